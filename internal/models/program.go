package models

import "time"

// Program represents an academic program offered by a department.
// Coordinators and students are scoped to exactly one program.
type Program struct {
	ID           string    `db:"id" json:"id"`
	DepartmentID string    `db:"department_id" json:"department_id"`
	Code         string    `db:"code" json:"code"`
	Name         string    `db:"name" json:"name"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// ProgramDetail extends a program with its department name.
type ProgramDetail struct {
	Program
	DepartmentName string `db:"department_name" json:"department_name"`
}

// ProgramRequest is the create/update payload for a program.
type ProgramRequest struct {
	DepartmentID string `json:"department_id" validate:"required"`
	Code         string `json:"code" validate:"required"`
	Name         string `json:"name" validate:"required"`
}

// ProgramFilter scopes program listings.
type ProgramFilter struct {
	DepartmentID string
	Search       string
	Page         int
	PageSize     int
	SortBy       string
	SortOrder    string
}
