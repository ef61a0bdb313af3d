package models

import "time"

// Announcement is a notice posted by an admin or coordinator. Program-wide
// announcements carry a program ID; school-wide ones leave it empty.
type Announcement struct {
	ID        string    `db:"id" json:"id"`
	AuthorID  string    `db:"author_id" json:"author_id"`
	ProgramID *string   `db:"program_id" json:"program_id,omitempty"`
	Title     string    `db:"title" json:"title"`
	Body      string    `db:"body" json:"body"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// AnnouncementRequest is the create/update payload for an announcement.
type AnnouncementRequest struct {
	ProgramID *string `json:"program_id,omitempty"`
	Title     string  `json:"title" validate:"required"`
	Body      string  `json:"body" validate:"required"`
}

// AnnouncementFilter scopes announcement listings.
type AnnouncementFilter struct {
	ProgramID string
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
