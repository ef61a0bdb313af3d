package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/ojt-portal-api/internal/models"
)

func newPlacementRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func placementRows(id string, status models.PlacementStatus) *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows([]string{"id", "student_id", "company_name", "company_address", "supervisor_name", "supervisor_contact", "document_ref", "status", "submitted_at", "approved_at", "rejected_at", "reviewed_by", "created_at", "updated_at"}).
		AddRow(id, "s1", "Acme Corp", "123 Main St", "Jo Reyes", "0917-000-0000", nil, status, now, nil, nil, nil, now, now)
}

func TestPlacementRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newPlacementRepoMock(t)
	defer cleanup()
	repo := NewPlacementRepository(db)

	mock.ExpectQuery("INSERT INTO placements").
		WithArgs(sqlmock.AnyArg(), "s1", "Acme Corp", "123 Main St", "Jo Reyes", "0917-000-0000", nil, models.PlacementStatusPending, sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(placementRows("p1", models.PlacementStatusPending))

	stored, err := repo.Create(context.Background(), &models.PlacementSubmission{
		StudentID:         "s1",
		CompanyName:       "Acme Corp",
		CompanyAddress:    "123 Main St",
		SupervisorName:    "Jo Reyes",
		SupervisorContact: "0917-000-0000",
	})
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, models.PlacementStatusPending, stored.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPlacementRepositoryCreateConflict(t *testing.T) {
	db, mock, cleanup := newPlacementRepoMock(t)
	defer cleanup()
	repo := NewPlacementRepository(db)

	// The unique index on student_id swallows the insert; no row comes back.
	mock.ExpectQuery("INSERT INTO placements").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	stored, err := repo.Create(context.Background(), &models.PlacementSubmission{StudentID: "s1"})
	require.NoError(t, err)
	assert.Nil(t, stored)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPlacementRepositoryReviewSingleWinner(t *testing.T) {
	db, mock, cleanup := newPlacementRepoMock(t)
	defer cleanup()
	repo := NewPlacementRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE placements")).
		WithArgs("p1", models.PlacementStatusApproved, sqlmock.AnyArg(), nil, "c1", sqlmock.AnyArg(), models.PlacementStatusPending).
		WillReturnRows(placementRows("p1", models.PlacementStatusApproved))

	stored, err := repo.Review(context.Background(), "p1", models.ReviewDecisionApprove, "c1")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, models.PlacementStatusApproved, stored.Status)

	// A second reviewer hits the status guard and loses.
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE placements")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	stored, err = repo.Review(context.Background(), "p1", models.ReviewDecisionReject, "c2")
	require.NoError(t, err)
	assert.Nil(t, stored)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPlacementRepositoryEditApprovedIsNoop(t *testing.T) {
	db, mock, cleanup := newPlacementRepoMock(t)
	defer cleanup()
	repo := NewPlacementRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE placements")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	stored, err := repo.Edit(context.Background(), "s1", &models.PlacementSubmission{CompanyName: "New Corp"})
	require.NoError(t, err)
	assert.Nil(t, stored)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPlacementRepositoryHasApproved(t *testing.T) {
	db, mock, cleanup := newPlacementRepoMock(t)
	defer cleanup()
	repo := NewPlacementRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM placements WHERE student_id = $1 AND status = $2 LIMIT 1")).
		WithArgs("s1", models.PlacementStatusApproved).
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))

	approved, err := repo.HasApproved(context.Background(), "s1")
	require.NoError(t, err)
	assert.True(t, approved)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM placements WHERE student_id = $1 AND status = $2 LIMIT 1")).
		WithArgs("s2", models.PlacementStatusApproved).
		WillReturnRows(sqlmock.NewRows([]string{"1"}))

	approved, err = repo.HasApproved(context.Background(), "s2")
	require.NoError(t, err)
	assert.False(t, approved)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPlacementRepositoryListFiltersByStatus(t *testing.T) {
	db, mock, cleanup := newPlacementRepoMock(t)
	defer cleanup()
	repo := NewPlacementRepository(db)

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "student_id", "company_name", "company_address", "supervisor_name", "supervisor_contact", "document_ref", "status", "submitted_at", "approved_at", "rejected_at", "reviewed_by", "created_at", "updated_at", "student_name", "student_no", "program_id", "program_name"}).
		AddRow("p1", "s1", "Acme Corp", "123 Main St", "Jo Reyes", "0917-000-0000", nil, models.PlacementStatusPending, now, nil, nil, nil, now, now, "Ana Cruz", "2021-001", "prog1", "BSIT")
	status := models.PlacementStatusPending
	mock.ExpectQuery("SELECT p.id, p.student_id").
		WithArgs("prog1", status).
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*)")).
		WithArgs("prog1", status).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	list, total, err := repo.List(context.Background(), models.PlacementFilter{ProgramID: "prog1", Status: &status})
	require.NoError(t, err)
	assert.Len(t, list, 1)
	assert.Equal(t, 1, total)
	assert.Equal(t, "2021-001", list[0].StudentNo)
	assert.NoError(t, mock.ExpectationsWereMet())
}
