package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/ojt-portal-api/internal/models"
	"github.com/noah-isme/ojt-portal-api/pkg/config"
	"github.com/noah-isme/ojt-portal-api/pkg/jobs"
)

type auditLogRepository interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// AuditService persists audit log entries asynchronously through a worker
// queue so request latency never waits on the audit table.
type AuditService struct {
	repo   auditLogRepository
	queue  *jobs.Queue
	logger *zap.Logger
}

// NewAuditService constructs the service and its backing queue. Call Start
// before recording entries and Stop on shutdown.
func NewAuditService(repo auditLogRepository, logger *zap.Logger, cfg config.AuditConfig) *AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &AuditService{repo: repo, logger: logger}
	s.queue = jobs.NewQueue("audit-log", s.handle, jobs.QueueConfig{
		Workers:    cfg.Workers,
		BufferSize: cfg.BufferSize,
		MaxRetries: cfg.MaxRetries,
		Logger:     logger,
	})
	return s
}

// Start launches the queue workers.
func (s *AuditService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the workers.
func (s *AuditService) Stop() {
	s.queue.Stop()
}

// Record enqueues an audit entry. Failures are logged, never surfaced to the
// caller; audit logging is best-effort by design of the request path.
func (s *AuditService) Record(entry *models.AuditLog) {
	if entry == nil {
		return
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	if !s.queue.TryEnqueue(jobs.Job{ID: entry.ID, Type: "audit_log", Payload: entry}) {
		s.logger.Warn("audit queue unavailable, dropping entry", zap.String("action", entry.Action))
	}
}

func (s *AuditService) handle(ctx context.Context, job jobs.Job) error {
	entry, ok := job.Payload.(*models.AuditLog)
	if !ok {
		return fmt.Errorf("unexpected audit payload type %T", job.Payload)
	}
	return s.repo.CreateAuditLog(ctx, entry)
}
