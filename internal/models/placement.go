package models

import "time"

// PlacementStatus enumerates the review states of a placement submission.
type PlacementStatus string

const (
	PlacementStatusPending  PlacementStatus = "PENDING"
	PlacementStatusApproved PlacementStatus = "APPROVED"
	PlacementStatusRejected PlacementStatus = "REJECTED"
)

// Valid returns true when the status is a supported value.
func (s PlacementStatus) Valid() bool {
	switch s {
	case PlacementStatusPending, PlacementStatusApproved, PlacementStatusRejected:
		return true
	default:
		return false
	}
}

// PlacementSubmission is a student's declared internship placement awaiting
// coordinator review. A student has at most one submission.
type PlacementSubmission struct {
	ID                string          `db:"id" json:"id"`
	StudentID         string          `db:"student_id" json:"student_id"`
	CompanyName       string          `db:"company_name" json:"company_name"`
	CompanyAddress    string          `db:"company_address" json:"company_address"`
	SupervisorName    string          `db:"supervisor_name" json:"supervisor_name"`
	SupervisorContact string          `db:"supervisor_contact" json:"supervisor_contact"`
	DocumentRef       *string         `db:"document_ref" json:"document_ref,omitempty"`
	Status            PlacementStatus `db:"status" json:"status"`
	SubmittedAt       time.Time       `db:"submitted_at" json:"submitted_at"`
	ApprovedAt        *time.Time      `db:"approved_at" json:"approved_at,omitempty"`
	RejectedAt        *time.Time      `db:"rejected_at" json:"rejected_at,omitempty"`
	ReviewedBy        *string         `db:"reviewed_by" json:"reviewed_by,omitempty"`
	CreatedAt         time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time       `db:"updated_at" json:"updated_at"`
}

// PlacementDetail extends a submission with student metadata for review queues.
type PlacementDetail struct {
	PlacementSubmission
	StudentName string  `db:"student_name" json:"student_name"`
	StudentNo   string  `db:"student_no" json:"student_no"`
	ProgramID   string  `db:"program_id" json:"program_id"`
	ProgramName *string `db:"program_name" json:"program_name,omitempty"`
}

// PlacementSubmitRequest is the student's submission payload. Document bytes
// arrive through the multipart form, not the JSON body.
type PlacementSubmitRequest struct {
	CompanyName       string `json:"company_name" validate:"required"`
	CompanyAddress    string `json:"company_address" validate:"required"`
	SupervisorName    string `json:"supervisor_name" validate:"required"`
	SupervisorContact string `json:"supervisor_contact" validate:"required"`
	Document          []byte `json:"-"`
	DocumentName      string `json:"-"`
}

// PlacementReviewRequest is the reviewer's verdict payload.
type PlacementReviewRequest struct {
	Decision ReviewDecision `json:"decision" validate:"required,oneof=approve reject"`
}

// PlacementFilter scopes review queue listings.
type PlacementFilter struct {
	ProgramID string
	Status    *PlacementStatus
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// ReviewDecision enumerates reviewer verdicts.
type ReviewDecision string

const (
	ReviewDecisionApprove ReviewDecision = "approve"
	ReviewDecisionReject  ReviewDecision = "reject"
)
