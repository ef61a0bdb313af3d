package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/ojt-portal-api/internal/biometric"
	"github.com/noah-isme/ojt-portal-api/internal/models"
	"github.com/noah-isme/ojt-portal-api/internal/repository"
	"github.com/noah-isme/ojt-portal-api/pkg/config"
	appErrors "github.com/noah-isme/ojt-portal-api/pkg/errors"
)

type attendanceRecordRepository interface {
	CreateTimeIn(ctx context.Context, record *models.TimeRecord) (*models.TimeRecord, error)
	CloseRecord(ctx context.Context, id string, timeOut time.Time, image *string, renderedHours float64) (*models.TimeRecord, error)
	FindByStudentAndDate(ctx context.Context, studentID string, date time.Time) (*models.TimeRecord, error)
	List(ctx context.Context, filter models.TimeRecordFilter) ([]models.TimeRecordDetail, int, error)
	CompletedHours(ctx context.Context, studentID string) (float64, error)
}

type attendanceStudentRepository interface {
	FindByID(ctx context.Context, id string) (*models.StudentDetail, error)
	FindByUserID(ctx context.Context, userID string) (*models.StudentDetail, error)
}

type attendancePlacementRepository interface {
	HasApproved(ctx context.Context, studentID string) (bool, error)
}

type attendanceFaceRepository interface {
	FindByStudent(ctx context.Context, studentID string) (*models.FaceDescriptor, error)
}

type faceMatcher interface {
	Compare(candidate, stored []float64) (biometric.Result, error)
	Threshold() float64
}

type snapshotStore interface {
	Save(filename string, data []byte) (string, error)
}

type progressCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

type auditRecorder interface {
	Record(entry *models.AuditLog)
}

// AttendanceService drives the daily time-record cycle: one record per
// student per calendar day, created on time-in and closed in place on
// time-out with the hour credit frozen at that moment.
type AttendanceService struct {
	records    attendanceRecordRepository
	students   attendanceStudentRepository
	placements attendancePlacementRepository
	faces      attendanceFaceRepository
	matcher    faceMatcher
	snapshots  snapshotStore
	cache      progressCache
	audit      auditRecorder
	metrics    *MetricsService
	logger     *zap.Logger
	cfg        config.AttendanceConfig
	cacheTTL   time.Duration
}

// NewAttendanceService constructs an AttendanceService.
func NewAttendanceService(
	records attendanceRecordRepository,
	students attendanceStudentRepository,
	placements attendancePlacementRepository,
	faces attendanceFaceRepository,
	matcher faceMatcher,
	snapshots snapshotStore,
	cache progressCache,
	audit auditRecorder,
	metrics *MetricsService,
	logger *zap.Logger,
	cfg config.AttendanceConfig,
	cacheTTL time.Duration,
) *AttendanceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &AttendanceService{
		records:    records,
		students:   students,
		placements: placements,
		faces:      faces,
		matcher:    matcher,
		snapshots:  snapshots,
		cache:      cache,
		audit:      audit,
		metrics:    metrics,
		logger:     logger,
		cfg:        cfg,
		cacheTTL:   cacheTTL,
	}
}

// RenderedHours returns the hour credit for a completed cycle. A time-out
// before time-in yields zero, never a negative credit.
func RenderedHours(timeIn, timeOut time.Time) float64 {
	hours := timeOut.Sub(timeIn).Hours()
	if hours < 0 {
		return 0
	}
	return math.Round(hours*100) / 100
}

// ProgressPercent returns min(100, floor(completed/required*100)). A
// non-positive requirement reports zero progress.
func ProgressPercent(completed, required float64) int {
	if required <= 0 {
		return 0
	}
	pct := int(math.Floor(completed / required * 100))
	if pct > 100 {
		pct = 100
	}
	if pct < 0 {
		pct = 0
	}
	return pct
}

// TimeIn opens today's record for the student owning the given user account.
// The placement must be approved and, when the face gate is on, the supplied
// descriptor must match the stored one. Duplicate time-ins lose at the
// insert and surface ErrAlreadyTimedIn.
func (s *AttendanceService) TimeIn(ctx context.Context, userID string, req models.TimeInRequest) (*models.TimeRecord, error) {
	student, err := s.findStudentByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	approved, err := s.placements.HasApproved(ctx, student.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check placement")
	}
	if !approved {
		return nil, appErrors.Clone(appErrors.ErrPlacementNotApproved, "an approved placement is required before timing in")
	}

	if s.cfg.RequireFaceMatch {
		if err := s.verifyFace(ctx, student.ID, req.Descriptor); err != nil {
			return nil, err
		}
	}

	now := time.Now().UTC()
	recordDate := dateOf(now)

	var imageRef *string
	if len(req.Image) > 0 {
		ref, err := s.snapshots.Save(snapshotName(student.ID, recordDate, "in"), req.Image)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store time-in snapshot")
		}
		imageRef = &ref
	}

	record := &models.TimeRecord{
		StudentID:   student.ID,
		RecordDate:  recordDate,
		TimeIn:      &now,
		TimeInImage: imageRef,
		Remarks:     req.Remarks,
	}

	stored, err := s.records.CreateTimeIn(ctx, record)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record time-in")
	}
	if stored == nil {
		s.metrics.RecordAttendanceEvent("time_in", "conflict")
		return nil, appErrors.Clone(appErrors.ErrAlreadyTimedIn, "already timed in for today")
	}
	s.metrics.RecordAttendanceEvent("time_in", "ok")

	s.recordAudit(&models.AuditLog{
		UserID:     &student.UserID,
		Action:     models.AuditActionTimeIn,
		Resource:   "time_records",
		ResourceID: &stored.ID,
	})

	return stored, nil
}

// TimeOut closes today's open record and freezes the rendered hours. The
// guard in the repository keeps concurrent time-outs single-winner.
func (s *AttendanceService) TimeOut(ctx context.Context, userID string, req models.TimeOutRequest) (*models.TimeRecord, error) {
	student, err := s.findStudentByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	record, err := s.records.FindByStudentAndDate(ctx, student.ID, dateOf(now))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load today's record")
	}
	if record == nil || record.TimeIn == nil {
		return nil, appErrors.Clone(appErrors.ErrNoPriorTimeIn, "no time-in recorded for today")
	}
	if record.TimeOut != nil {
		return nil, appErrors.Clone(appErrors.ErrAlreadyTimedOut, "already timed out for today")
	}

	if s.cfg.RequireFaceMatch {
		if err := s.verifyFace(ctx, student.ID, req.Descriptor); err != nil {
			return nil, err
		}
	}

	if now.Before(*record.TimeIn) {
		s.logger.Warn("time-out precedes time-in, clamping rendered hours to zero",
			zap.String("record_id", record.ID),
			zap.Time("time_in", *record.TimeIn),
			zap.Time("time_out", now))
	}
	hours := RenderedHours(*record.TimeIn, now)

	var imageRef *string
	if len(req.Image) > 0 {
		ref, err := s.snapshots.Save(snapshotName(student.ID, record.RecordDate, "out"), req.Image)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store time-out snapshot")
		}
		imageRef = &ref
	}

	closed, err := s.records.CloseRecord(ctx, record.ID, now, imageRef, hours)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record time-out")
	}
	if closed == nil {
		s.metrics.RecordAttendanceEvent("time_out", "conflict")
		return nil, appErrors.Clone(appErrors.ErrAlreadyTimedOut, "already timed out for today")
	}
	s.metrics.RecordAttendanceEvent("time_out", "ok")

	if s.cache != nil {
		if err := s.cache.Delete(ctx, repository.ProgressKey(student.ID)); err != nil {
			s.logger.Warn("failed to invalidate progress cache", zap.String("student_id", student.ID), zap.Error(err))
		}
	}

	s.recordAudit(&models.AuditLog{
		UserID:     &student.UserID,
		Action:     models.AuditActionTimeOut,
		Resource:   "time_records",
		ResourceID: &closed.ID,
	})

	return closed, nil
}

// Today reports the state of the student's cycle for the current day.
func (s *AttendanceService) Today(ctx context.Context, userID string) (*models.DayStatus, error) {
	student, err := s.findStudentByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	record, err := s.records.FindByStudentAndDate(ctx, student.ID, dateOf(time.Now().UTC()))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load today's record")
	}

	status := &models.DayStatus{State: models.AttendanceStateNoRecord}
	if record != nil {
		status.Record = record
		if record.Completed() {
			status.State = models.AttendanceStateCompleted
		} else {
			status.State = models.AttendanceStateTimedIn
		}
	}
	return status, nil
}

// List returns time records scoped to the caller: students see only their
// own, coordinators see their program, admins see everything.
func (s *AttendanceService) List(ctx context.Context, claims *models.JWTClaims, filter models.TimeRecordFilter) ([]models.TimeRecordDetail, int, error) {
	if claims == nil {
		return nil, 0, appErrors.Clone(appErrors.ErrUnauthorized, "missing authentication context")
	}

	switch claims.Role {
	case models.RoleStudent:
		student, err := s.findStudentByUser(ctx, claims.UserID)
		if err != nil {
			return nil, 0, err
		}
		filter.StudentID = student.ID
	case models.RoleCoordinator:
		if claims.ProgramID != nil {
			filter.ProgramID = *claims.ProgramID
		}
	}

	rows, total, err := s.records.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list time records")
	}
	return rows, total, nil
}

// Progress returns the student's completed-hours summary, served from cache
// when fresh. Only closed records contribute to the sum.
func (s *AttendanceService) Progress(ctx context.Context, studentID string) (*models.ProgressSummary, error) {
	if s.cache != nil {
		var cached models.ProgressSummary
		err := s.cache.Get(ctx, repository.ProgressKey(studentID), &cached)
		if err == nil {
			s.metrics.RecordCacheLookup(true)
			return &cached, nil
		}
		s.metrics.RecordCacheLookup(false)
		if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("progress cache read failed", zap.String("student_id", studentID), zap.Error(err))
		}
	}

	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	return s.buildProgress(ctx, &student.Student)
}

// ProgressForUser resolves the caller's student profile and reports progress.
func (s *AttendanceService) ProgressForUser(ctx context.Context, userID string) (*models.ProgressSummary, error) {
	student, err := s.findStudentByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		var cached models.ProgressSummary
		if err := s.cache.Get(ctx, repository.ProgressKey(student.ID), &cached); err == nil {
			s.metrics.RecordCacheLookup(true)
			return &cached, nil
		}
		s.metrics.RecordCacheLookup(false)
	}

	return s.buildProgress(ctx, &student.Student)
}

func (s *AttendanceService) buildProgress(ctx context.Context, student *models.Student) (*models.ProgressSummary, error) {
	completed, err := s.records.CompletedHours(ctx, student.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sum completed hours")
	}

	required := student.RequiredHours
	if required <= 0 {
		required = s.cfg.DefaultRequiredHours
	}

	summary := &models.ProgressSummary{
		StudentID:      student.ID,
		CompletedHours: completed,
		RequiredHours:  required,
		Percent:        ProgressPercent(completed, required),
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, repository.ProgressKey(student.ID), summary, s.cacheTTL); err != nil {
			s.logger.Warn("progress cache write failed", zap.String("student_id", student.ID), zap.Error(err))
		}
	}
	return summary, nil
}

func (s *AttendanceService) verifyFace(ctx context.Context, studentID string, descriptor []float64) error {
	stored, err := s.faces.FindByStudent(ctx, studentID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load face descriptor")
	}
	if stored == nil {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "no face data registered")
	}
	if len(descriptor) == 0 {
		return appErrors.Clone(appErrors.ErrValidation, "face descriptor is required")
	}

	result, err := s.matcher.Compare(descriptor, stored.Descriptor)
	if err != nil {
		if errors.Is(err, biometric.ErrLengthMismatch) {
			return appErrors.Clone(appErrors.ErrDescriptorMismatch, "descriptor length mismatch")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compare descriptors")
	}
	s.metrics.RecordFaceComparison(result.IsMatch)
	if !result.IsMatch {
		return appErrors.Clone(appErrors.ErrFaceMismatch, fmt.Sprintf("face distance %.4f is not below threshold %.2f", result.Distance, s.matcher.Threshold()))
	}
	return nil
}

func (s *AttendanceService) findStudentByUser(ctx context.Context, userID string) (*models.StudentDetail, error) {
	student, err := s.students.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student profile not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student profile")
	}
	return student, nil
}

func (s *AttendanceService) recordAudit(entry *models.AuditLog) {
	if s.audit == nil {
		return
	}
	s.audit.Record(entry)
}

func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func snapshotName(studentID string, date time.Time, phase string) string {
	return fmt.Sprintf("attendance/%s/%s-%s.jpg", studentID, date.Format("2006-01-02"), phase)
}
