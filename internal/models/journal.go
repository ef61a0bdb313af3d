package models

import "time"

// JournalEntry is a student's daily narrative of OJT activities.
type JournalEntry struct {
	ID        string    `db:"id" json:"id"`
	StudentID string    `db:"student_id" json:"student_id"`
	EntryDate time.Time `db:"entry_date" json:"entry_date"`
	Title     string    `db:"title" json:"title"`
	Body      string    `db:"body" json:"body"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// JournalEntryRequest is the create/update payload for a journal entry.
type JournalEntryRequest struct {
	EntryDate time.Time `json:"entry_date" validate:"required"`
	Title     string    `json:"title" validate:"required"`
	Body      string    `json:"body" validate:"required"`
}

// JournalFilter scopes journal listings.
type JournalFilter struct {
	StudentID string
	ProgramID string
	Search    string
	DateFrom  *time.Time
	DateTo    *time.Time
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
