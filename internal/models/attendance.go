package models

import "time"

// TimeRecord is one calendar day's attendance cycle for one student.
// (student_id, record_date) is unique; the row is created on time-in and
// closed in place on time-out. RenderedHours is frozen at completion.
type TimeRecord struct {
	ID            string     `db:"id" json:"id"`
	StudentID     string     `db:"student_id" json:"student_id"`
	RecordDate    time.Time  `db:"record_date" json:"record_date"`
	TimeIn        *time.Time `db:"time_in" json:"time_in,omitempty"`
	TimeOut       *time.Time `db:"time_out" json:"time_out,omitempty"`
	TimeInImage   *string    `db:"time_in_image" json:"time_in_image,omitempty"`
	TimeOutImage  *string    `db:"time_out_image" json:"time_out_image,omitempty"`
	RenderedHours *float64   `db:"rendered_hours" json:"rendered_hours,omitempty"`
	Remarks       *string    `db:"remarks" json:"remarks,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
}

// Completed reports whether the day's cycle is finalized.
func (r *TimeRecord) Completed() bool {
	return r.TimeIn != nil && r.TimeOut != nil
}

// TimeRecordDetail extends a record with student metadata.
type TimeRecordDetail struct {
	TimeRecord
	StudentName string `db:"student_name" json:"student_name"`
	StudentNo   string `db:"student_no" json:"student_no"`
}

// TimeRecordFilter scopes time record listings.
type TimeRecordFilter struct {
	StudentID string
	ProgramID string
	DateFrom  *time.Time
	DateTo    *time.Time
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// AttendanceState enumerates the daily cycle states for one student/day.
type AttendanceState string

const (
	AttendanceStateNoRecord  AttendanceState = "NO_RECORD"
	AttendanceStateTimedIn   AttendanceState = "TIMED_IN"
	AttendanceStateCompleted AttendanceState = "COMPLETED"
)

// DayStatus reports the state of a student's cycle for a calendar day.
type DayStatus struct {
	State  AttendanceState `json:"state"`
	Record *TimeRecord     `json:"record,omitempty"`
}

// TimeInRequest carries the multipart time-in payload after decoding.
type TimeInRequest struct {
	Descriptor []float64
	Image      []byte
	Remarks    *string
}

// TimeOutRequest carries the multipart time-out payload after decoding.
type TimeOutRequest struct {
	Descriptor []float64
	Image      []byte
}

// ProgressSummary reports completed hours against the required target.
type ProgressSummary struct {
	StudentID      string  `json:"student_id"`
	CompletedHours float64 `json:"completed_hours"`
	RequiredHours  float64 `json:"required_hours"`
	Percent        int     `json:"percent"`
}
