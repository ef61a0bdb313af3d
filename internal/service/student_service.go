package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/ojt-portal-api/internal/models"
	"github.com/noah-isme/ojt-portal-api/pkg/config"
	appErrors "github.com/noah-isme/ojt-portal-api/pkg/errors"
)

type studentRepository interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.StudentDetail, error)
	FindByUserID(ctx context.Context, userID string) (*models.StudentDetail, error)
	ExistsByStudentNo(ctx context.Context, studentNo string, excludeID string) (bool, error)
	Create(ctx context.Context, student *models.Student) error
	Update(ctx context.Context, student *models.Student) error
}

type programLookup interface {
	FindByID(ctx context.Context, id string) (*models.Program, error)
}

// StudentService provisions student accounts with their OJT profile and
// manages profile updates.
type StudentService struct {
	students  studentRepository
	users     userRepository
	programs  programLookup
	validator *validator.Validate
	audit     auditRecorder
	logger    *zap.Logger
	cfg       config.AttendanceConfig
}

// NewStudentService constructs a StudentService.
func NewStudentService(students studentRepository, users userRepository, programs programLookup, validate *validator.Validate, audit auditRecorder, logger *zap.Logger, cfg config.AttendanceConfig) *StudentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &StudentService{
		students:  students,
		users:     users,
		programs:  programs,
		validator: validate,
		audit:     audit,
		logger:    logger,
		cfg:       cfg,
	}
}

// List returns student profiles scoped to the caller's program when the
// caller is a coordinator.
func (s *StudentService) List(ctx context.Context, claims *models.JWTClaims, filter models.StudentFilter) ([]models.StudentDetail, int, error) {
	if claims != nil && claims.Role == models.RoleCoordinator && claims.ProgramID != nil {
		filter.ProgramID = *claims.ProgramID
	}
	students, total, err := s.students.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	return students, total, nil
}

// Get returns one profile by ID.
func (s *StudentService) Get(ctx context.Context, id string) (*models.StudentDetail, error) {
	student, err := s.students.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return student, nil
}

// Me returns the caller's own profile.
func (s *StudentService) Me(ctx context.Context, userID string) (*models.StudentDetail, error) {
	student, err := s.students.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student profile not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student profile")
	}
	return student, nil
}

// Create provisions the user account and the profile in one step. The
// required hours default to the school-wide target when omitted.
func (s *StudentService) Create(ctx context.Context, actorID string, req models.CreateStudentRequest) (*models.StudentDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}

	if _, err := s.programs.FindByID(ctx, req.ProgramID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "program does not exist")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check program")
	}

	if existing, err := s.users.FindByEmail(ctx, req.Email); err == nil && existing != nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "email already in use")
	} else if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check email")
	}

	taken, err := s.students.ExistsByStudentNo(ctx, req.StudentNo, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check student number")
	}
	if taken {
		return nil, appErrors.Clone(appErrors.ErrConflict, "student number already in use")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	user := &models.User{
		Email:        req.Email,
		PasswordHash: string(hash),
		FullName:     req.FullName,
		Role:         models.RoleStudent,
		ProgramID:    &req.ProgramID,
		Active:       true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create user account")
	}

	required := req.RequiredHours
	if required <= 0 {
		required = s.cfg.DefaultRequiredHours
	}

	student := &models.Student{
		UserID:        user.ID,
		StudentNo:     req.StudentNo,
		ProgramID:     req.ProgramID,
		RequiredHours: required,
	}
	if err := s.students.Create(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create student profile")
	}

	if s.audit != nil {
		s.audit.Record(&models.AuditLog{
			UserID:     &actorID,
			Action:     models.AuditActionUserCreate,
			Resource:   "students",
			ResourceID: &student.ID,
		})
	}

	return s.Get(ctx, student.ID)
}

// Update rewrites mutable profile fields.
func (s *StudentService) Update(ctx context.Context, actorID, id string, req models.UpdateStudentRequest) (*models.StudentDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}

	detail, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if _, err := s.programs.FindByID(ctx, req.ProgramID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "program does not exist")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check program")
	}

	taken, err := s.students.ExistsByStudentNo(ctx, req.StudentNo, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check student number")
	}
	if taken {
		return nil, appErrors.Clone(appErrors.ErrConflict, "student number already in use")
	}

	student := detail.Student
	student.StudentNo = req.StudentNo
	student.ProgramID = req.ProgramID
	if req.RequiredHours > 0 {
		student.RequiredHours = req.RequiredHours
	}

	if err := s.students.Update(ctx, &student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update student")
	}

	if s.audit != nil {
		s.audit.Record(&models.AuditLog{
			UserID:     &actorID,
			Action:     models.AuditActionUserUpdate,
			Resource:   "students",
			ResourceID: &student.ID,
		})
	}

	return s.Get(ctx, id)
}
