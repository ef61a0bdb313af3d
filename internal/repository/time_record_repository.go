package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/ojt-portal-api/internal/models"
)

// TimeRecordRepository handles persistence for daily time records.
//
// The time_records table carries a UNIQUE (student_id, record_date) index;
// duplicate time-ins lose at the insert, not at an application-level
// existence check.
type TimeRecordRepository struct {
	db *sqlx.DB
}

// NewTimeRecordRepository constructs the repository.
func NewTimeRecordRepository(db *sqlx.DB) *TimeRecordRepository {
	return &TimeRecordRepository{db: db}
}

const timeRecordColumns = `id, student_id, record_date, time_in, time_out, time_in_image, time_out_image, rendered_hours, remarks, created_at, updated_at`

// CreateTimeIn inserts the day's record with time-in set. Returns (nil, nil)
// when a record for (student, date) already exists.
func (r *TimeRecordRepository) CreateTimeIn(ctx context.Context, record *models.TimeRecord) (*models.TimeRecord, error) {
	now := time.Now().UTC()
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.UpdatedAt = now

	query := fmt.Sprintf(`INSERT INTO time_records (id, student_id, record_date, time_in, time_in_image, remarks, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (student_id, record_date) DO NOTHING
RETURNING %s`, timeRecordColumns)

	var stored models.TimeRecord
	err := r.db.GetContext(ctx, &stored, query,
		record.ID, record.StudentID, record.RecordDate, record.TimeIn, record.TimeInImage, record.Remarks, record.CreatedAt, record.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("insert time-in: %w", err)
	}
	return &stored, nil
}

// CloseRecord finalizes an open record with time-out, image reference and
// the frozen rendered hours. Returns (nil, nil) when the record is already
// closed or missing; the guard on time_out IS NULL makes concurrent
// time-outs single-winner.
func (r *TimeRecordRepository) CloseRecord(ctx context.Context, id string, timeOut time.Time, image *string, renderedHours float64) (*models.TimeRecord, error) {
	query := fmt.Sprintf(`UPDATE time_records
SET time_out = $2, time_out_image = $3, rendered_hours = $4, updated_at = $5
WHERE id = $1 AND time_out IS NULL
RETURNING %s`, timeRecordColumns)

	var stored models.TimeRecord
	err := r.db.GetContext(ctx, &stored, query, id, timeOut, image, renderedHours, time.Now().UTC())
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("close time record: %w", err)
	}
	return &stored, nil
}

// FindByStudentAndDate returns the record for a student on a calendar date,
// or (nil, nil) when none exists.
func (r *TimeRecordRepository) FindByStudentAndDate(ctx context.Context, studentID string, date time.Time) (*models.TimeRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM time_records WHERE student_id = $1 AND record_date = $2 LIMIT 1`, timeRecordColumns)
	var record models.TimeRecord
	if err := r.db.GetContext(ctx, &record, query, studentID, date); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("find time record: %w", err)
	}
	return &record, nil
}

// List returns time records matching the provided filter.
func (r *TimeRecordRepository) List(ctx context.Context, filter models.TimeRecordFilter) ([]models.TimeRecordDetail, int, error) {
	base := `FROM time_records tr
JOIN students st ON st.id = tr.student_id
JOIN users u ON u.id = st.user_id`
	where := []string{"1=1"}
	args := []interface{}{}
	if filter.StudentID != "" {
		where = append(where, fmt.Sprintf("tr.student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.ProgramID != "" {
		where = append(where, fmt.Sprintf("st.program_id = $%d", len(args)+1))
		args = append(args, filter.ProgramID)
	}
	if filter.DateFrom != nil {
		where = append(where, fmt.Sprintf("tr.record_date >= $%d", len(args)+1))
		args = append(args, *filter.DateFrom)
	}
	if filter.DateTo != nil {
		where = append(where, fmt.Sprintf("tr.record_date <= $%d", len(args)+1))
		args = append(args, *filter.DateTo)
	}
	whereClause := strings.Join(where, " AND ")

	sortBy := filter.SortBy
	allowedSort := map[string]string{
		"record_date": "tr.record_date",
		"created_at":  "tr.created_at",
	}
	if sortBy == "" {
		sortBy = "record_date"
	}
	sortColumn, ok := allowedSort[sortBy]
	if !ok {
		sortColumn = "tr.record_date"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 200 {
		size = 50
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT tr.id, tr.student_id, tr.record_date, tr.time_in, tr.time_out, tr.time_in_image, tr.time_out_image, tr.rendered_hours, tr.remarks, tr.created_at, tr.updated_at,
        u.full_name AS student_name, st.student_no
        %s WHERE %s
        ORDER BY %s %s
        LIMIT %d OFFSET %d`, base, whereClause, sortColumn, order, size, offset)

	var rows []models.TimeRecordDetail
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list time records: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s WHERE %s", base, whereClause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count time records: %w", err)
	}
	return rows, total, nil
}

// ListForStudent returns a student's records within an optional date range,
// oldest first, for DTR rendering.
func (r *TimeRecordRepository) ListForStudent(ctx context.Context, studentID string, from, to *time.Time) ([]models.TimeRecord, error) {
	where := []string{"student_id = $1"}
	args := []interface{}{studentID}
	if from != nil {
		where = append(where, fmt.Sprintf("record_date >= $%d", len(args)+1))
		args = append(args, *from)
	}
	if to != nil {
		where = append(where, fmt.Sprintf("record_date <= $%d", len(args)+1))
		args = append(args, *to)
	}
	query := fmt.Sprintf(`SELECT %s FROM time_records WHERE %s ORDER BY record_date ASC`, timeRecordColumns, strings.Join(where, " AND "))
	var rows []models.TimeRecord
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list student time records: %w", err)
	}
	return rows, nil
}

// CompletedHours sums frozen rendered hours over finalized records only.
// Open records and NULL rendered_hours contribute nothing.
func (r *TimeRecordRepository) CompletedHours(ctx context.Context, studentID string) (float64, error) {
	const query = `SELECT COALESCE(SUM(rendered_hours), 0) FROM time_records WHERE student_id = $1 AND time_out IS NOT NULL`
	var total float64
	if err := r.db.GetContext(ctx, &total, query, studentID); err != nil {
		return 0, fmt.Errorf("sum completed hours: %w", err)
	}
	return total, nil
}
