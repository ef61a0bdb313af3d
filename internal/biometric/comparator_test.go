package biometric

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDistanceIdenticalVectorsIsZero(t *testing.T) {
	a := []float64{0.12, -0.34, 0.56, 0.78}
	d, err := Distance(a, a)
	require.NoError(t, err)
	assert.Zero(t, d)
}

func TestDistanceIsSymmetric(t *testing.T) {
	a := []float64{0.1, 0.2, 0.3}
	b := []float64{-0.4, 0.5, 0.05}
	dab, err := Distance(a, b)
	require.NoError(t, err)
	dba, err := Distance(b, a)
	require.NoError(t, err)
	assert.Equal(t, dab, dba)
}

func TestDistanceLengthMismatch(t *testing.T) {
	_, err := Distance([]float64{0.1, 0.2}, []float64{0.1})
	require.ErrorIs(t, err, ErrLengthMismatch)
}

func TestCompareAgainstThreshold(t *testing.T) {
	cmp := NewComparator(0)
	require.Equal(t, DefaultMatchThreshold, cmp.Threshold())

	cases := []struct {
		name      string
		candidate []float64
		stored    []float64
		wantMatch bool
	}{
		{"identical", []float64{0.5, 0.5}, []float64{0.5, 0.5}, true},
		{"close", []float64{0.5, 0.5}, []float64{0.5, 0.9}, true},
		{"far", []float64{0.5, 0.5}, []float64{0.5, 1.2}, false},
		{"exactly at threshold", []float64{0, 0}, []float64{0, 0.6}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := cmp.Compare(tc.candidate, tc.stored)
			require.NoError(t, err)
			assert.Equal(t, tc.wantMatch, res.IsMatch)
		})
	}
}

func TestCompareLengthMismatch(t *testing.T) {
	cmp := NewComparator(DefaultMatchThreshold)
	_, err := cmp.Compare([]float64{0.1, 0.2, 0.3}, []float64{0.1, 0.2})
	require.ErrorIs(t, err, ErrLengthMismatch)
}
