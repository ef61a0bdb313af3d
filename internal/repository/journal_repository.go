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

// JournalRepository manages persistence for student journal entries.
type JournalRepository struct {
	db *sqlx.DB
}

// NewJournalRepository constructs a JournalRepository.
func NewJournalRepository(db *sqlx.DB) *JournalRepository {
	return &JournalRepository{db: db}
}

const journalColumns = `j.id, j.student_id, j.entry_date, j.title, j.body, j.created_at, j.updated_at`

// List returns journal entries matching the filter.
func (r *JournalRepository) List(ctx context.Context, filter models.JournalFilter) ([]models.JournalEntry, int, error) {
	base := `FROM journal_entries j JOIN students st ON st.id = j.student_id`
	where := []string{"1=1"}
	args := []interface{}{}
	if filter.StudentID != "" {
		where = append(where, fmt.Sprintf("j.student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.ProgramID != "" {
		where = append(where, fmt.Sprintf("st.program_id = $%d", len(args)+1))
		args = append(args, filter.ProgramID)
	}
	if filter.DateFrom != nil {
		where = append(where, fmt.Sprintf("j.entry_date >= $%d", len(args)+1))
		args = append(args, *filter.DateFrom)
	}
	if filter.DateTo != nil {
		where = append(where, fmt.Sprintf("j.entry_date <= $%d", len(args)+1))
		args = append(args, *filter.DateTo)
	}
	whereClause := strings.Join(where, " AND ")

	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT %s %s WHERE %s ORDER BY j.entry_date %s LIMIT %d OFFSET %d`,
		journalColumns, base, whereClause, order, size, offset)
	var entries []models.JournalEntry
	if err := r.db.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list journal entries: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s WHERE %s", base, whereClause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count journal entries: %w", err)
	}
	return entries, total, nil
}

// FindByID returns one entry or sql.ErrNoRows.
func (r *JournalRepository) FindByID(ctx context.Context, id string) (*models.JournalEntry, error) {
	query := fmt.Sprintf(`SELECT %s FROM journal_entries j WHERE j.id = $1 LIMIT 1`, journalColumns)
	var entry models.JournalEntry
	if err := r.db.GetContext(ctx, &entry, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find journal entry: %w", err)
	}
	return &entry, nil
}

// Create inserts a journal entry.
func (r *JournalRepository) Create(ctx context.Context, entry *models.JournalEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = now
	}
	entry.UpdatedAt = now
	const query = `INSERT INTO journal_entries (id, student_id, entry_date, title, body, created_at, updated_at)
VALUES (:id, :student_id, :entry_date, :title, :body, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("create journal entry: %w", err)
	}
	return nil
}

// Update updates an entry's title and body.
func (r *JournalRepository) Update(ctx context.Context, entry *models.JournalEntry) error {
	entry.UpdatedAt = time.Now().UTC()
	const query = `UPDATE journal_entries SET title = :title, body = :body, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("update journal entry: %w", err)
	}
	return nil
}

// Delete removes an entry.
func (r *JournalRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM journal_entries WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete journal entry: %w", err)
	}
	return nil
}
