package models

import "time"

// BoundingBox records where the descriptor's face was detected in the
// source frame. Kept for audit only, never used in comparison.
type BoundingBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// FaceDescriptor is a student's stored embedding vector. One per student,
// overwritten on re-registration.
type FaceDescriptor struct {
	StudentID   string      `db:"student_id" json:"student_id"`
	Descriptor  []float64   `db:"-" json:"descriptor"`
	BoundingBox BoundingBox `db:"-" json:"bounding_box"`
	CreatedAt   time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time   `db:"updated_at" json:"updated_at"`
}

// FaceRegisterRequest carries a freshly captured embedding for storage.
type FaceRegisterRequest struct {
	Descriptor  []float64   `json:"descriptor" validate:"required,min=1"`
	BoundingBox BoundingBox `json:"bounding_box"`
}

// FaceCompareRequest carries a probe embedding for verification.
type FaceCompareRequest struct {
	Descriptor []float64 `json:"descriptor" validate:"required,min=1"`
}

// FaceCompareResult is the outcome surfaced to the attendance client.
// Registered is false when no descriptor is stored yet; that is a distinct
// outcome, not a failed match.
type FaceCompareResult struct {
	Registered bool    `json:"registered"`
	IsMatch    bool    `json:"is_match"`
	Distance   float64 `json:"distance"`
	Threshold  float64 `json:"threshold"`
}
