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

type announcementRepository interface {
	List(ctx context.Context, filter models.AnnouncementFilter) ([]models.Announcement, int, error)
	FindByID(ctx context.Context, id string) (*models.Announcement, error)
	Create(ctx context.Context, announcement *models.Announcement) error
	Update(ctx context.Context, announcement *models.Announcement) error
	Delete(ctx context.Context, id string) error
}

// AnnouncementService manages notices. Admins post school-wide or to any
// program; coordinators post to their own program only.
type AnnouncementService struct {
	announcements announcementRepository
	validator     *validator.Validate
	logger        *zap.Logger
}

// NewAnnouncementService constructs an AnnouncementService.
func NewAnnouncementService(announcements announcementRepository, validate *validator.Validate, logger *zap.Logger) *AnnouncementService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &AnnouncementService{announcements: announcements, validator: validate, logger: logger}
}

// List returns notices visible to the caller. Students and coordinators see
// their program's notices plus school-wide ones.
func (s *AnnouncementService) List(ctx context.Context, claims *models.JWTClaims, filter models.AnnouncementFilter) ([]models.Announcement, int, error) {
	if claims == nil {
		return nil, 0, appErrors.Clone(appErrors.ErrUnauthorized, "missing authentication context")
	}
	if claims.Role != models.RoleAdmin && claims.ProgramID != nil {
		filter.ProgramID = *claims.ProgramID
	}

	announcements, total, err := s.announcements.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list announcements")
	}
	return announcements, total, nil
}

// Create posts a notice authored by the caller.
func (s *AnnouncementService) Create(ctx context.Context, claims *models.JWTClaims, req models.AnnouncementRequest) (*models.Announcement, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid announcement payload")
	}
	if claims == nil {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "missing authentication context")
	}

	programID := req.ProgramID
	if claims.Role == models.RoleCoordinator {
		// Coordinators always post to their own program.
		programID = claims.ProgramID
		if programID == nil {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "coordinator has no assigned program")
		}
	}

	announcement := &models.Announcement{
		AuthorID:  claims.UserID,
		ProgramID: programID,
		Title:     req.Title,
		Body:      req.Body,
	}
	if err := s.announcements.Create(ctx, announcement); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create announcement")
	}
	return announcement, nil
}

// Update rewrites a notice the caller may manage.
func (s *AnnouncementService) Update(ctx context.Context, claims *models.JWTClaims, id string, req models.AnnouncementRequest) (*models.Announcement, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid announcement payload")
	}

	announcement, err := s.findManaged(ctx, claims, id)
	if err != nil {
		return nil, err
	}

	announcement.Title = req.Title
	announcement.Body = req.Body
	if err := s.announcements.Update(ctx, announcement); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update announcement")
	}
	return announcement, nil
}

// Delete removes a notice the caller may manage.
func (s *AnnouncementService) Delete(ctx context.Context, claims *models.JWTClaims, id string) error {
	if _, err := s.findManaged(ctx, claims, id); err != nil {
		return err
	}
	if err := s.announcements.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete announcement")
	}
	return nil
}

func (s *AnnouncementService) findManaged(ctx context.Context, claims *models.JWTClaims, id string) (*models.Announcement, error) {
	if claims == nil {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "missing authentication context")
	}

	announcement, err := s.announcements.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "announcement not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load announcement")
	}

	if claims.Role == models.RoleAdmin {
		return announcement, nil
	}
	if announcement.AuthorID != claims.UserID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "announcement belongs to another author")
	}
	return announcement, nil
}
