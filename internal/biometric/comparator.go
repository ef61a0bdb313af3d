// Package biometric implements the face descriptor comparison gate used
// before attendance transitions. Comparison is a plain Euclidean distance
// over embedding vectors; this is an assistive check, not a secure
// biometric authentication scheme.
package biometric

import (
	"errors"
	"math"
)

// DefaultMatchThreshold is the distance below which two descriptors are
// considered the same person.
const DefaultMatchThreshold = 0.6

// ErrLengthMismatch is returned when two descriptors cannot be compared
// because their dimensions differ. Descriptors are never truncated.
var ErrLengthMismatch = errors.New("biometric: descriptor length mismatch")

// Result holds the outcome of a descriptor comparison.
type Result struct {
	IsMatch  bool    `json:"is_match"`
	Distance float64 `json:"distance"`
}

// Comparator decides match/no-match against a fixed distance threshold.
type Comparator struct {
	threshold float64
}

// NewComparator returns a comparator using the provided threshold, falling
// back to DefaultMatchThreshold when the value is not positive.
func NewComparator(threshold float64) *Comparator {
	if threshold <= 0 {
		threshold = DefaultMatchThreshold
	}
	return &Comparator{threshold: threshold}
}

// Threshold exposes the configured match threshold.
func (c *Comparator) Threshold() float64 {
	return c.threshold
}

// Compare computes the Euclidean distance between candidate and stored and
// applies the threshold. Both descriptors must have the same length.
func (c *Comparator) Compare(candidate, stored []float64) (Result, error) {
	d, err := Distance(candidate, stored)
	if err != nil {
		return Result{}, err
	}
	return Result{IsMatch: d < c.threshold, Distance: d}, nil
}

// Distance returns the Euclidean distance between two equal-length vectors.
func Distance(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, ErrLengthMismatch
	}
	var sum float64
	for i := range a {
		diff := a[i] - b[i]
		sum += diff * diff
	}
	return math.Sqrt(sum), nil
}
