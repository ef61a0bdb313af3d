package models

import "time"

// Student holds the OJT profile attached to a user with the STUDENT role.
type Student struct {
	ID            string    `db:"id" json:"id"`
	UserID        string    `db:"user_id" json:"user_id"`
	StudentNo     string    `db:"student_no" json:"student_no"`
	ProgramID     string    `db:"program_id" json:"program_id"`
	RequiredHours float64   `db:"required_hours" json:"required_hours"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// StudentDetail extends the profile with user and program metadata.
type StudentDetail struct {
	Student
	FullName    string  `db:"full_name" json:"full_name"`
	Email       string  `db:"email" json:"email"`
	Active      bool    `db:"active" json:"active"`
	ProgramName *string `db:"program_name" json:"program_name,omitempty"`
}

// CreateStudentRequest provisions an account and its OJT profile together.
type CreateStudentRequest struct {
	Email         string  `json:"email" validate:"required,email"`
	Password      string  `json:"password" validate:"required,min=6"`
	FullName      string  `json:"full_name" validate:"required"`
	StudentNo     string  `json:"student_no" validate:"required"`
	ProgramID     string  `json:"program_id" validate:"required"`
	RequiredHours float64 `json:"required_hours" validate:"gte=0"`
}

// UpdateStudentRequest updates mutable profile fields.
type UpdateStudentRequest struct {
	StudentNo     string  `json:"student_no" validate:"required"`
	ProgramID     string  `json:"program_id" validate:"required"`
	RequiredHours float64 `json:"required_hours" validate:"gte=0"`
}

// StudentFilter captures filtering criteria for listing students.
type StudentFilter struct {
	ProgramID string
	Active    *bool
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
