package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/ojt-portal-api/internal/models"
	appErrors "github.com/noah-isme/ojt-portal-api/pkg/errors"
)

type placementRepository interface {
	Create(ctx context.Context, p *models.PlacementSubmission) (*models.PlacementSubmission, error)
	Edit(ctx context.Context, studentID string, p *models.PlacementSubmission) (*models.PlacementSubmission, error)
	Review(ctx context.Context, id string, decision models.ReviewDecision, reviewerID string) (*models.PlacementSubmission, error)
	FindByStudent(ctx context.Context, studentID string) (*models.PlacementSubmission, error)
	FindDetailByID(ctx context.Context, id string) (*models.PlacementDetail, error)
	List(ctx context.Context, filter models.PlacementFilter) ([]models.PlacementDetail, int, error)
}

// PlacementService runs the placement approval workflow. A student holds at
// most one submission; approval gates the attendance flow, and editing a
// non-approved submission resets it to pending.
type PlacementService struct {
	placements placementRepository
	students   attendanceStudentRepository
	documents  snapshotStore
	validator  *validator.Validate
	audit      auditRecorder
	metrics    *MetricsService
	logger     *zap.Logger
}

// NewPlacementService constructs a PlacementService.
func NewPlacementService(placements placementRepository, students attendanceStudentRepository, documents snapshotStore, validate *validator.Validate, audit auditRecorder, metrics *MetricsService, logger *zap.Logger) *PlacementService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &PlacementService{
		placements: placements,
		students:   students,
		documents:  documents,
		validator:  validate,
		audit:      audit,
		metrics:    metrics,
		logger:     logger,
	}
}

// Submit creates the caller's placement submission in the pending state.
func (s *PlacementService) Submit(ctx context.Context, userID string, req models.PlacementSubmitRequest) (*models.PlacementSubmission, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid placement payload")
	}

	student, err := s.findStudent(ctx, userID)
	if err != nil {
		return nil, err
	}

	docRef, err := s.storeDocument(student.ID, req.Document, req.DocumentName)
	if err != nil {
		return nil, err
	}

	submission := &models.PlacementSubmission{
		StudentID:         student.ID,
		CompanyName:       req.CompanyName,
		CompanyAddress:    req.CompanyAddress,
		SupervisorName:    req.SupervisorName,
		SupervisorContact: req.SupervisorContact,
		DocumentRef:       docRef,
	}

	stored, err := s.placements.Create(ctx, submission)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create placement")
	}
	if stored == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "placement already submitted, edit the existing submission instead")
	}

	s.recordAudit(student.UserID, models.AuditActionPlacementSubmit, stored.ID)
	return stored, nil
}

// Edit rewrites the caller's submission and resets it to pending. Approved
// submissions are immutable.
func (s *PlacementService) Edit(ctx context.Context, userID string, req models.PlacementSubmitRequest) (*models.PlacementSubmission, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid placement payload")
	}

	student, err := s.findStudent(ctx, userID)
	if err != nil {
		return nil, err
	}

	docRef, err := s.storeDocument(student.ID, req.Document, req.DocumentName)
	if err != nil {
		return nil, err
	}

	submission := &models.PlacementSubmission{
		CompanyName:       req.CompanyName,
		CompanyAddress:    req.CompanyAddress,
		SupervisorName:    req.SupervisorName,
		SupervisorContact: req.SupervisorContact,
		DocumentRef:       docRef,
	}

	stored, err := s.placements.Edit(ctx, student.ID, submission)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to edit placement")
	}
	if stored != nil {
		s.recordAudit(student.UserID, models.AuditActionPlacementSubmit, stored.ID)
		return stored, nil
	}

	// The guarded update matched nothing: either no submission exists or it
	// is already approved.
	existing, err := s.placements.FindByStudent(ctx, student.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load placement")
	}
	if existing == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "no placement submitted yet")
	}
	return nil, appErrors.Clone(appErrors.ErrPlacementFinalized, "approved placement can no longer be edited")
}

// Mine returns the caller's submission.
func (s *PlacementService) Mine(ctx context.Context, userID string) (*models.PlacementSubmission, error) {
	student, err := s.findStudent(ctx, userID)
	if err != nil {
		return nil, err
	}

	submission, err := s.placements.FindByStudent(ctx, student.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load placement")
	}
	if submission == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "no placement submitted yet")
	}
	return submission, nil
}

// List returns the review queue scoped to the caller's program when the
// caller is a coordinator.
func (s *PlacementService) List(ctx context.Context, claims *models.JWTClaims, filter models.PlacementFilter) ([]models.PlacementDetail, int, error) {
	if claims == nil {
		return nil, 0, appErrors.Clone(appErrors.ErrUnauthorized, "missing authentication context")
	}
	if claims.Role == models.RoleCoordinator && claims.ProgramID != nil {
		filter.ProgramID = *claims.ProgramID
	}

	rows, total, err := s.placements.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list placements")
	}
	return rows, total, nil
}

// Get returns one submission with student metadata, enforcing program scope
// for coordinators.
func (s *PlacementService) Get(ctx context.Context, claims *models.JWTClaims, id string) (*models.PlacementDetail, error) {
	detail, err := s.loadDetail(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkProgramScope(claims, detail); err != nil {
		return nil, err
	}
	return detail, nil
}

// Review finalizes a pending submission. Reviewers outside the student's
// program are rejected, and a submission already decided stays decided; the
// first reviewer wins.
func (s *PlacementService) Review(ctx context.Context, claims *models.JWTClaims, id string, req models.PlacementReviewRequest) (*models.PlacementSubmission, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid review payload")
	}
	if claims == nil {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "missing authentication context")
	}

	detail, err := s.loadDetail(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkProgramScope(claims, detail); err != nil {
		return nil, err
	}

	stored, err := s.placements.Review(ctx, id, req.Decision, claims.UserID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to review placement")
	}
	if stored == nil {
		return nil, appErrors.Clone(appErrors.ErrPlacementFinalized, "placement already reviewed")
	}
	s.metrics.RecordPlacementReview(string(req.Decision))

	s.recordAudit(claims.UserID, models.AuditActionPlacementReview, stored.ID)
	return stored, nil
}

func (s *PlacementService) loadDetail(ctx context.Context, id string) (*models.PlacementDetail, error) {
	detail, err := s.placements.FindDetailByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "placement not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load placement")
	}
	return detail, nil
}

func (s *PlacementService) checkProgramScope(claims *models.JWTClaims, detail *models.PlacementDetail) error {
	if claims == nil {
		return appErrors.Clone(appErrors.ErrUnauthorized, "missing authentication context")
	}
	if claims.Role != models.RoleCoordinator {
		return nil
	}
	if claims.ProgramID == nil || *claims.ProgramID != detail.ProgramID {
		return appErrors.Clone(appErrors.ErrForbidden, "placement belongs to another program")
	}
	return nil
}

func (s *PlacementService) storeDocument(studentID string, data []byte, name string) (*string, error) {
	if len(data) == 0 {
		return nil, nil
	}
	ext := filepath.Ext(name)
	if ext == "" {
		ext = ".pdf"
	}
	filename := fmt.Sprintf("placements/%s/%d%s", studentID, time.Now().UTC().UnixNano(), ext)
	ref, err := s.documents.Save(filename, data)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store placement document")
	}
	return &ref, nil
}

func (s *PlacementService) recordAudit(userID, action, resourceID string) {
	if s.audit == nil {
		return
	}
	s.audit.Record(&models.AuditLog{
		UserID:     &userID,
		Action:     action,
		Resource:   "placements",
		ResourceID: &resourceID,
	})
}

func (s *PlacementService) findStudent(ctx context.Context, userID string) (*models.StudentDetail, error) {
	student, err := s.students.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student profile not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student profile")
	}
	return student, nil
}
