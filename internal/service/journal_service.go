package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/ojt-portal-api/internal/models"
	appErrors "github.com/noah-isme/ojt-portal-api/pkg/errors"
)

type journalRepository interface {
	List(ctx context.Context, filter models.JournalFilter) ([]models.JournalEntry, int, error)
	FindByID(ctx context.Context, id string) (*models.JournalEntry, error)
	Create(ctx context.Context, entry *models.JournalEntry) error
	Update(ctx context.Context, entry *models.JournalEntry) error
	Delete(ctx context.Context, id string) error
}

// JournalService manages student activity journals. Students own their
// entries; coordinators read their program's entries.
type JournalService struct {
	journals  journalRepository
	students  attendanceStudentRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewJournalService constructs a JournalService.
func NewJournalService(journals journalRepository, students attendanceStudentRepository, validate *validator.Validate, logger *zap.Logger) *JournalService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &JournalService{journals: journals, students: students, validator: validate, logger: logger}
}

// List returns entries scoped to the caller: students see their own,
// coordinators their program.
func (s *JournalService) List(ctx context.Context, claims *models.JWTClaims, filter models.JournalFilter) ([]models.JournalEntry, int, error) {
	if claims == nil {
		return nil, 0, appErrors.Clone(appErrors.ErrUnauthorized, "missing authentication context")
	}

	switch claims.Role {
	case models.RoleStudent:
		student, err := s.findStudent(ctx, claims.UserID)
		if err != nil {
			return nil, 0, err
		}
		filter.StudentID = student.ID
	case models.RoleCoordinator:
		if claims.ProgramID != nil {
			filter.ProgramID = *claims.ProgramID
		}
	}

	entries, total, err := s.journals.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list journal entries")
	}
	return entries, total, nil
}

// Create inserts an entry owned by the caller.
func (s *JournalService) Create(ctx context.Context, userID string, req models.JournalEntryRequest) (*models.JournalEntry, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid journal payload")
	}

	student, err := s.findStudent(ctx, userID)
	if err != nil {
		return nil, err
	}

	entry := &models.JournalEntry{
		StudentID: student.ID,
		EntryDate: req.EntryDate,
		Title:     req.Title,
		Body:      req.Body,
	}
	if err := s.journals.Create(ctx, entry); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create journal entry")
	}
	return entry, nil
}

// Update rewrites an entry the caller owns.
func (s *JournalService) Update(ctx context.Context, userID, id string, req models.JournalEntryRequest) (*models.JournalEntry, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid journal payload")
	}

	entry, err := s.findOwned(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	entry.Title = req.Title
	entry.Body = req.Body
	if err := s.journals.Update(ctx, entry); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update journal entry")
	}
	return entry, nil
}

// Delete removes an entry the caller owns.
func (s *JournalService) Delete(ctx context.Context, userID, id string) error {
	if _, err := s.findOwned(ctx, userID, id); err != nil {
		return err
	}
	if err := s.journals.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete journal entry")
	}
	return nil
}

func (s *JournalService) findOwned(ctx context.Context, userID, id string) (*models.JournalEntry, error) {
	entry, err := s.journals.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "journal entry not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load journal entry")
	}

	student, err := s.findStudent(ctx, userID)
	if err != nil {
		return nil, err
	}
	if entry.StudentID != student.ID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "journal entry belongs to another student")
	}
	return entry, nil
}

func (s *JournalService) findStudent(ctx context.Context, userID string) (*models.StudentDetail, error) {
	student, err := s.students.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student profile not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student profile")
	}
	return student, nil
}
