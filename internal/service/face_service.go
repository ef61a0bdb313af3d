package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/ojt-portal-api/internal/biometric"
	"github.com/noah-isme/ojt-portal-api/internal/models"
	appErrors "github.com/noah-isme/ojt-portal-api/pkg/errors"
)

type faceDescriptorRepository interface {
	Upsert(ctx context.Context, fd *models.FaceDescriptor) error
	FindByStudent(ctx context.Context, studentID string) (*models.FaceDescriptor, error)
}

// FaceService manages stored face descriptors and on-demand comparisons.
// One descriptor per student; re-registration overwrites.
type FaceService struct {
	faces     faceDescriptorRepository
	students  attendanceStudentRepository
	matcher   faceMatcher
	validator *validator.Validate
	audit     auditRecorder
	metrics   *MetricsService
	logger    *zap.Logger
}

// NewFaceService constructs a FaceService.
func NewFaceService(faces faceDescriptorRepository, students attendanceStudentRepository, matcher faceMatcher, validate *validator.Validate, audit auditRecorder, metrics *MetricsService, logger *zap.Logger) *FaceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &FaceService{faces: faces, students: students, matcher: matcher, validator: validate, audit: audit, metrics: metrics, logger: logger}
}

// Register stores (or replaces) the caller's descriptor.
func (s *FaceService) Register(ctx context.Context, userID string, req models.FaceRegisterRequest) (*models.FaceDescriptor, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid face registration payload")
	}

	student, err := s.findStudent(ctx, userID)
	if err != nil {
		return nil, err
	}

	fd := &models.FaceDescriptor{
		StudentID:   student.ID,
		Descriptor:  req.Descriptor,
		BoundingBox: req.BoundingBox,
	}
	if err := s.faces.Upsert(ctx, fd); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store face descriptor")
	}

	if s.audit != nil {
		s.audit.Record(&models.AuditLog{
			UserID:     &student.UserID,
			Action:     models.AuditActionFaceRegister,
			Resource:   "face_descriptors",
			ResourceID: &student.ID,
		})
	}

	stored, err := s.faces.FindByStudent(ctx, student.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reload face descriptor")
	}
	return stored, nil
}

// Compare checks a probe descriptor against the caller's stored one. An
// unregistered student is a distinct outcome, not a failed match.
func (s *FaceService) Compare(ctx context.Context, userID string, req models.FaceCompareRequest) (*models.FaceCompareResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid face comparison payload")
	}

	student, err := s.findStudent(ctx, userID)
	if err != nil {
		return nil, err
	}

	stored, err := s.faces.FindByStudent(ctx, student.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load face descriptor")
	}
	if stored == nil {
		return &models.FaceCompareResult{Registered: false, Threshold: s.matcher.Threshold()}, nil
	}

	result, err := s.matcher.Compare(req.Descriptor, stored.Descriptor)
	if err != nil {
		if errors.Is(err, biometric.ErrLengthMismatch) {
			return nil, appErrors.Clone(appErrors.ErrDescriptorMismatch, "descriptor length mismatch")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compare descriptors")
	}
	s.metrics.RecordFaceComparison(result.IsMatch)

	return &models.FaceCompareResult{
		Registered: true,
		IsMatch:    result.IsMatch,
		Distance:   result.Distance,
		Threshold:  s.matcher.Threshold(),
	}, nil
}

// Registered reports whether a student has a stored descriptor.
func (s *FaceService) Registered(ctx context.Context, studentID string) (bool, error) {
	stored, err := s.faces.FindByStudent(ctx, studentID)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load face descriptor")
	}
	return stored != nil, nil
}

func (s *FaceService) findStudent(ctx context.Context, userID string) (*models.StudentDetail, error) {
	student, err := s.students.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student profile not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student profile")
	}
	return student, nil
}
