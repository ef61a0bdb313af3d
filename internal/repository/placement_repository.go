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

// PlacementRepository handles persistence for placement submissions.
// The placements table enforces UNIQUE (student_id).
type PlacementRepository struct {
	db *sqlx.DB
}

// NewPlacementRepository constructs the repository.
func NewPlacementRepository(db *sqlx.DB) *PlacementRepository {
	return &PlacementRepository{db: db}
}

const placementColumns = `id, student_id, company_name, company_address, supervisor_name, supervisor_contact, document_ref, status, submitted_at, approved_at, rejected_at, reviewed_by, created_at, updated_at`

// Create inserts a pending submission. Returns (nil, nil) when the student
// already has one; the unique index decides, not a prior existence check.
func (r *PlacementRepository) Create(ctx context.Context, p *models.PlacementSubmission) (*models.PlacementSubmission, error) {
	now := time.Now().UTC()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.SubmittedAt.IsZero() {
		p.SubmittedAt = now
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	p.Status = models.PlacementStatusPending

	query := fmt.Sprintf(`INSERT INTO placements (id, student_id, company_name, company_address, supervisor_name, supervisor_contact, document_ref, status, submitted_at, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
ON CONFLICT (student_id) DO NOTHING
RETURNING %s`, placementColumns)

	var stored models.PlacementSubmission
	err := r.db.GetContext(ctx, &stored, query,
		p.ID, p.StudentID, p.CompanyName, p.CompanyAddress, p.SupervisorName, p.SupervisorContact, p.DocumentRef, p.Status, p.SubmittedAt, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("create placement: %w", err)
	}
	return &stored, nil
}

// Edit rewrites the student's submission and resets it to pending, clearing
// any prior decision. Only non-approved submissions are editable; returns
// (nil, nil) when the submission is approved or missing.
func (r *PlacementRepository) Edit(ctx context.Context, studentID string, p *models.PlacementSubmission) (*models.PlacementSubmission, error) {
	query := fmt.Sprintf(`UPDATE placements
SET company_name = $2, company_address = $3, supervisor_name = $4, supervisor_contact = $5,
    document_ref = COALESCE($6, document_ref),
    status = $7, submitted_at = $8, approved_at = NULL, rejected_at = NULL, reviewed_by = NULL, updated_at = $8
WHERE student_id = $1 AND status <> $9
RETURNING %s`, placementColumns)

	now := time.Now().UTC()
	var stored models.PlacementSubmission
	err := r.db.GetContext(ctx, &stored, query,
		studentID, p.CompanyName, p.CompanyAddress, p.SupervisorName, p.SupervisorContact, p.DocumentRef,
		models.PlacementStatusPending, now, models.PlacementStatusApproved)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("edit placement: %w", err)
	}
	return &stored, nil
}

// Review finalizes a pending submission with the reviewer's decision.
// Returns (nil, nil) when the submission is no longer pending; the status
// guard makes concurrent reviews single-winner and the decision timestamp
// is therefore set exactly once.
func (r *PlacementRepository) Review(ctx context.Context, id string, decision models.ReviewDecision, reviewerID string) (*models.PlacementSubmission, error) {
	now := time.Now().UTC()
	status := models.PlacementStatusApproved
	approvedAt := &now
	var rejectedAt *time.Time
	if decision == models.ReviewDecisionReject {
		status = models.PlacementStatusRejected
		approvedAt = nil
		rejectedAt = &now
	}

	query := fmt.Sprintf(`UPDATE placements
SET status = $2, approved_at = $3, rejected_at = $4, reviewed_by = $5, updated_at = $6
WHERE id = $1 AND status = $7
RETURNING %s`, placementColumns)

	var stored models.PlacementSubmission
	err := r.db.GetContext(ctx, &stored, query, id, status, approvedAt, rejectedAt, reviewerID, now, models.PlacementStatusPending)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("review placement: %w", err)
	}
	return &stored, nil
}

// FindByStudent returns the student's submission or (nil, nil) when absent.
func (r *PlacementRepository) FindByStudent(ctx context.Context, studentID string) (*models.PlacementSubmission, error) {
	query := fmt.Sprintf(`SELECT %s FROM placements WHERE student_id = $1 LIMIT 1`, placementColumns)
	var p models.PlacementSubmission
	if err := r.db.GetContext(ctx, &p, query, studentID); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("find placement by student: %w", err)
	}
	return &p, nil
}

// FindDetailByID returns a submission joined with student metadata.
func (r *PlacementRepository) FindDetailByID(ctx context.Context, id string) (*models.PlacementDetail, error) {
	const query = `SELECT p.id, p.student_id, p.company_name, p.company_address, p.supervisor_name, p.supervisor_contact, p.document_ref, p.status, p.submitted_at, p.approved_at, p.rejected_at, p.reviewed_by, p.created_at, p.updated_at,
        u.full_name AS student_name, st.student_no, st.program_id, pr.name AS program_name
        FROM placements p
        JOIN students st ON st.id = p.student_id
        JOIN users u ON u.id = st.user_id
        LEFT JOIN programs pr ON pr.id = st.program_id
        WHERE p.id = $1`
	var detail models.PlacementDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find placement detail: %w", err)
	}
	return &detail, nil
}

// List returns submissions matching the filter for review queues.
func (r *PlacementRepository) List(ctx context.Context, filter models.PlacementFilter) ([]models.PlacementDetail, int, error) {
	base := `FROM placements p
JOIN students st ON st.id = p.student_id
JOIN users u ON u.id = st.user_id
LEFT JOIN programs pr ON pr.id = st.program_id`
	where := []string{"1=1"}
	args := []interface{}{}
	if filter.ProgramID != "" {
		where = append(where, fmt.Sprintf("st.program_id = $%d", len(args)+1))
		args = append(args, filter.ProgramID)
	}
	if filter.Status != nil && filter.Status.Valid() {
		where = append(where, fmt.Sprintf("p.status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	if filter.Search != "" {
		where = append(where, fmt.Sprintf("(LOWER(u.full_name) LIKE $%d OR LOWER(p.company_name) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}
	whereClause := strings.Join(where, " AND ")

	sortBy := filter.SortBy
	allowedSort := map[string]string{
		"submitted_at": "p.submitted_at",
		"status":       "p.status",
		"company_name": "p.company_name",
	}
	if sortBy == "" {
		sortBy = "submitted_at"
	}
	sortColumn, ok := allowedSort[sortBy]
	if !ok {
		sortColumn = "p.submitted_at"
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
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT p.id, p.student_id, p.company_name, p.company_address, p.supervisor_name, p.supervisor_contact, p.document_ref, p.status, p.submitted_at, p.approved_at, p.rejected_at, p.reviewed_by, p.created_at, p.updated_at,
        u.full_name AS student_name, st.student_no, st.program_id, pr.name AS program_name
        %s WHERE %s
        ORDER BY %s %s
        LIMIT %d OFFSET %d`, base, whereClause, sortColumn, order, size, offset)

	var rows []models.PlacementDetail
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list placements: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s WHERE %s", base, whereClause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count placements: %w", err)
	}
	return rows, total, nil
}

// HasApproved reports whether the student holds an approved submission.
func (r *PlacementRepository) HasApproved(ctx context.Context, studentID string) (bool, error) {
	const query = `SELECT 1 FROM placements WHERE student_id = $1 AND status = $2 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, studentID, models.PlacementStatusApproved); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check approved placement: %w", err)
	}
	return true, nil
}
