package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/ojt-portal-api/internal/models"
)

// FaceRepository stores one descriptor per student as JSONB.
type FaceRepository struct {
	db *sqlx.DB
}

// NewFaceRepository constructs the repository.
func NewFaceRepository(db *sqlx.DB) *FaceRepository {
	return &FaceRepository{db: db}
}

type faceRow struct {
	StudentID   string    `db:"student_id"`
	Descriptor  []byte    `db:"descriptor"`
	BoundingBox []byte    `db:"bounding_box"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

// Upsert writes the student's descriptor, overwriting any previous one.
func (r *FaceRepository) Upsert(ctx context.Context, fd *models.FaceDescriptor) error {
	descriptor, err := json.Marshal(fd.Descriptor)
	if err != nil {
		return fmt.Errorf("marshal descriptor: %w", err)
	}
	box, err := json.Marshal(fd.BoundingBox)
	if err != nil {
		return fmt.Errorf("marshal bounding box: %w", err)
	}
	now := time.Now().UTC()
	const query = `INSERT INTO face_descriptors (student_id, descriptor, bounding_box, created_at, updated_at)
VALUES ($1, $2, $3, $4, $4)
ON CONFLICT (student_id)
DO UPDATE SET descriptor = EXCLUDED.descriptor, bounding_box = EXCLUDED.bounding_box, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.ExecContext(ctx, query, fd.StudentID, descriptor, box, now); err != nil {
		return fmt.Errorf("upsert face descriptor: %w", err)
	}
	return nil
}

// FindByStudent returns the stored descriptor, or (nil, nil) when the
// student has not registered a face yet.
func (r *FaceRepository) FindByStudent(ctx context.Context, studentID string) (*models.FaceDescriptor, error) {
	const query = `SELECT student_id, descriptor, bounding_box, created_at, updated_at FROM face_descriptors WHERE student_id = $1 LIMIT 1`
	var row faceRow
	if err := r.db.GetContext(ctx, &row, query, studentID); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("find face descriptor: %w", err)
	}

	fd := &models.FaceDescriptor{
		StudentID: row.StudentID,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
	if err := json.Unmarshal(row.Descriptor, &fd.Descriptor); err != nil {
		return nil, fmt.Errorf("unmarshal descriptor: %w", err)
	}
	if len(row.BoundingBox) > 0 {
		if err := json.Unmarshal(row.BoundingBox, &fd.BoundingBox); err != nil {
			return nil, fmt.Errorf("unmarshal bounding box: %w", err)
		}
	}
	return fd, nil
}
