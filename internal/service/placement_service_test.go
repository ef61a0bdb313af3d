package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/ojt-portal-api/internal/models"
)

type mockPlacementRepo struct {
	byStudent      map[string]*models.PlacementSubmission
	details        map[string]*models.PlacementDetail
	createConflict bool
	editBlocked    bool
	reviewBlocked  bool
	reviewed       *models.PlacementSubmission
	lastFilter     models.PlacementFilter
}

func (m *mockPlacementRepo) Create(ctx context.Context, p *models.PlacementSubmission) (*models.PlacementSubmission, error) {
	if m.createConflict {
		return nil, nil
	}
	p.ID = "pl-1"
	p.Status = models.PlacementStatusPending
	p.SubmittedAt = time.Now().UTC()
	if m.byStudent == nil {
		m.byStudent = make(map[string]*models.PlacementSubmission)
	}
	m.byStudent[p.StudentID] = p
	return p, nil
}

func (m *mockPlacementRepo) Edit(ctx context.Context, studentID string, p *models.PlacementSubmission) (*models.PlacementSubmission, error) {
	if m.editBlocked {
		return nil, nil
	}
	existing, ok := m.byStudent[studentID]
	if !ok {
		return nil, nil
	}
	existing.CompanyName = p.CompanyName
	existing.Status = models.PlacementStatusPending
	existing.ApprovedAt = nil
	existing.RejectedAt = nil
	existing.ReviewedBy = nil
	return existing, nil
}

func (m *mockPlacementRepo) Review(ctx context.Context, id string, decision models.ReviewDecision, reviewerID string) (*models.PlacementSubmission, error) {
	if m.reviewBlocked {
		return nil, nil
	}
	now := time.Now().UTC()
	status := models.PlacementStatusApproved
	submission := &models.PlacementSubmission{ID: id, Status: status, ReviewedBy: &reviewerID, ApprovedAt: &now}
	if decision == models.ReviewDecisionReject {
		submission.Status = models.PlacementStatusRejected
		submission.ApprovedAt = nil
		submission.RejectedAt = &now
	}
	m.reviewed = submission
	return submission, nil
}

func (m *mockPlacementRepo) FindByStudent(ctx context.Context, studentID string) (*models.PlacementSubmission, error) {
	return m.byStudent[studentID], nil
}

func (m *mockPlacementRepo) FindDetailByID(ctx context.Context, id string) (*models.PlacementDetail, error) {
	if d, ok := m.details[id]; ok {
		return d, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockPlacementRepo) List(ctx context.Context, filter models.PlacementFilter) ([]models.PlacementDetail, int, error) {
	m.lastFilter = filter
	return nil, 0, nil
}

func submitRequestFixture() models.PlacementSubmitRequest {
	return models.PlacementSubmitRequest{
		CompanyName:       "Acme Corp",
		CompanyAddress:    "123 Industry Ave",
		SupervisorName:    "Jo Reyes",
		SupervisorContact: "0917-000-0000",
	}
}

func newPlacementFixture(repo *mockPlacementRepo, audit *mockAudit) *PlacementService {
	return NewPlacementService(repo, studentFixture(), &mockSnapshotStore{}, validator.New(), audit, nil, zap.NewNop())
}

func TestPlacementServiceSubmit(t *testing.T) {
	repo := &mockPlacementRepo{}
	audit := &mockAudit{}
	svc := newPlacementFixture(repo, audit)

	stored, err := svc.Submit(context.Background(), "u1", submitRequestFixture())
	require.NoError(t, err)
	assert.Equal(t, models.PlacementStatusPending, stored.Status)
	assert.Equal(t, "s1", stored.StudentID)
	require.Len(t, audit.entries, 1)
	assert.Equal(t, models.AuditActionPlacementSubmit, audit.entries[0].Action)
}

func TestPlacementServiceSubmitTwiceConflicts(t *testing.T) {
	repo := &mockPlacementRepo{createConflict: true}
	svc := newPlacementFixture(repo, &mockAudit{})

	_, err := svc.Submit(context.Background(), "u1", submitRequestFixture())
	assert.Equal(t, "CONFLICT", errorCode(t, err))
}

func TestPlacementServiceSubmitValidatesPayload(t *testing.T) {
	svc := newPlacementFixture(&mockPlacementRepo{}, &mockAudit{})

	_, err := svc.Submit(context.Background(), "u1", models.PlacementSubmitRequest{CompanyName: "Acme Corp"})
	assert.Equal(t, "VALIDATION_ERROR", errorCode(t, err))
}

func TestPlacementServiceEditResetsToPending(t *testing.T) {
	reviewer := "c1"
	now := time.Now().UTC()
	repo := &mockPlacementRepo{byStudent: map[string]*models.PlacementSubmission{
		"s1": {ID: "pl-1", StudentID: "s1", Status: models.PlacementStatusRejected, RejectedAt: &now, ReviewedBy: &reviewer},
	}}
	svc := newPlacementFixture(repo, &mockAudit{})

	req := submitRequestFixture()
	req.CompanyName = "New Employer Inc"
	stored, err := svc.Edit(context.Background(), "u1", req)
	require.NoError(t, err)
	assert.Equal(t, models.PlacementStatusPending, stored.Status)
	assert.Equal(t, "New Employer Inc", stored.CompanyName)
	assert.Nil(t, stored.RejectedAt)
	assert.Nil(t, stored.ReviewedBy)
}

func TestPlacementServiceEditApprovedFails(t *testing.T) {
	repo := &mockPlacementRepo{
		editBlocked: true,
		byStudent: map[string]*models.PlacementSubmission{
			"s1": {ID: "pl-1", StudentID: "s1", Status: models.PlacementStatusApproved},
		},
	}
	svc := newPlacementFixture(repo, &mockAudit{})

	_, err := svc.Edit(context.Background(), "u1", submitRequestFixture())
	assert.Equal(t, "PLACEMENT_FINALIZED", errorCode(t, err))
}

func TestPlacementServiceEditWithoutSubmission(t *testing.T) {
	repo := &mockPlacementRepo{editBlocked: true}
	svc := newPlacementFixture(repo, &mockAudit{})

	_, err := svc.Edit(context.Background(), "u1", submitRequestFixture())
	assert.Equal(t, "NOT_FOUND", errorCode(t, err))
}

func TestPlacementServiceReview(t *testing.T) {
	program := "p1"
	repo := &mockPlacementRepo{details: map[string]*models.PlacementDetail{
		"pl-1": {PlacementSubmission: models.PlacementSubmission{ID: "pl-1", StudentID: "s1", Status: models.PlacementStatusPending}, ProgramID: program},
	}}
	audit := &mockAudit{}
	svc := newPlacementFixture(repo, audit)

	claims := &models.JWTClaims{UserID: "c1", Role: models.RoleCoordinator, ProgramID: &program}
	stored, err := svc.Review(context.Background(), claims, "pl-1", models.PlacementReviewRequest{Decision: models.ReviewDecisionApprove})
	require.NoError(t, err)
	assert.Equal(t, models.PlacementStatusApproved, stored.Status)
	assert.NotNil(t, stored.ApprovedAt)
	require.Len(t, audit.entries, 1)
	assert.Equal(t, models.AuditActionPlacementReview, audit.entries[0].Action)
}

func TestPlacementServiceReviewOutsideProgramForbidden(t *testing.T) {
	repo := &mockPlacementRepo{details: map[string]*models.PlacementDetail{
		"pl-1": {PlacementSubmission: models.PlacementSubmission{ID: "pl-1", Status: models.PlacementStatusPending}, ProgramID: "p1"},
	}}
	svc := newPlacementFixture(repo, &mockAudit{})

	other := "p2"
	claims := &models.JWTClaims{UserID: "c2", Role: models.RoleCoordinator, ProgramID: &other}
	_, err := svc.Review(context.Background(), claims, "pl-1", models.PlacementReviewRequest{Decision: models.ReviewDecisionReject})
	assert.Equal(t, "FORBIDDEN", errorCode(t, err))
}

func TestPlacementServiceReviewAlreadyDecided(t *testing.T) {
	program := "p1"
	repo := &mockPlacementRepo{
		reviewBlocked: true,
		details: map[string]*models.PlacementDetail{
			"pl-1": {PlacementSubmission: models.PlacementSubmission{ID: "pl-1", Status: models.PlacementStatusApproved}, ProgramID: program},
		},
	}
	svc := newPlacementFixture(repo, &mockAudit{})

	claims := &models.JWTClaims{UserID: "admin", Role: models.RoleAdmin}
	_, err := svc.Review(context.Background(), claims, "pl-1", models.PlacementReviewRequest{Decision: models.ReviewDecisionApprove})
	assert.Equal(t, "PLACEMENT_FINALIZED", errorCode(t, err))
}

func TestPlacementServiceListScopesCoordinator(t *testing.T) {
	repo := &mockPlacementRepo{}
	svc := newPlacementFixture(repo, &mockAudit{})

	program := "p1"
	claims := &models.JWTClaims{UserID: "c1", Role: models.RoleCoordinator, ProgramID: &program}
	_, _, err := svc.List(context.Background(), claims, models.PlacementFilter{})
	require.NoError(t, err)
	assert.Equal(t, "p1", repo.lastFilter.ProgramID)
}

func TestPlacementServiceMineNotFound(t *testing.T) {
	svc := newPlacementFixture(&mockPlacementRepo{}, &mockAudit{})

	_, err := svc.Mine(context.Background(), "u1")
	assert.Equal(t, "NOT_FOUND", errorCode(t, err))
}
