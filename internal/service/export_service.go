package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/ojt-portal-api/internal/models"
	appErrors "github.com/noah-isme/ojt-portal-api/pkg/errors"
	"github.com/noah-isme/ojt-portal-api/pkg/export"
)

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type exportRecordRepository interface {
	ListForStudent(ctx context.Context, studentID string, from, to *time.Time) ([]models.TimeRecord, error)
}

// ExportResult is a rendered daily time record document.
type ExportResult struct {
	Filename    string
	ContentType string
	Content     []byte
}

// ExportService renders a student's daily time record as CSV or PDF.
type ExportService struct {
	records  exportRecordRepository
	students attendanceStudentRepository
	csv      csvRenderer
	pdf      pdfRenderer
	logger   *zap.Logger
}

// NewExportService constructs an ExportService.
func NewExportService(records exportRecordRepository, students attendanceStudentRepository, csv csvRenderer, pdf pdfRenderer, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{records: records, students: students, csv: csv, pdf: pdf, logger: logger}
}

var dtrHeaders = []string{"Date", "Time In", "Time Out", "Rendered Hours", "Remarks"}

// DailyTimeRecord renders the DTR for a student, scoped to the caller:
// students export only their own, coordinators only their program's.
func (s *ExportService) DailyTimeRecord(ctx context.Context, claims *models.JWTClaims, studentID, format string, from, to *time.Time) (*ExportResult, error) {
	if claims == nil {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "missing authentication context")
	}

	var student *models.StudentDetail
	var err error
	if claims.Role == models.RoleStudent {
		student, err = s.students.FindByUserID(ctx, claims.UserID)
	} else {
		student, err = s.students.FindByID(ctx, studentID)
	}
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}
	if claims.Role == models.RoleCoordinator {
		if claims.ProgramID == nil || *claims.ProgramID != student.ProgramID {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "student belongs to another program")
		}
	}

	records, err := s.records.ListForStudent(ctx, student.ID, from, to)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load time records")
	}

	dataset := buildDTRDataset(student, records)
	stamp := time.Now().UTC().Format("20060102")

	switch strings.ToLower(format) {
	case "", "csv":
		content, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return &ExportResult{
			Filename:    fmt.Sprintf("dtr-%s-%s.csv", student.StudentNo, stamp),
			ContentType: "text/csv",
			Content:     content,
		}, nil
	case "pdf":
		content, err := s.pdf.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return &ExportResult{
			Filename:    fmt.Sprintf("dtr-%s-%s.pdf", student.StudentNo, stamp),
			ContentType: "application/pdf",
			Content:     content,
		}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported export format, use csv or pdf")
	}
}

func buildDTRDataset(student *models.StudentDetail, records []models.TimeRecord) export.Dataset {
	rows := make([]map[string]string, 0, len(records))
	var total float64
	for _, record := range records {
		row := map[string]string{
			"Date":           record.RecordDate.Format("2006-01-02"),
			"Time In":        formatClock(record.TimeIn),
			"Time Out":       formatClock(record.TimeOut),
			"Rendered Hours": "",
			"Remarks":        deref(record.Remarks),
		}
		if record.RenderedHours != nil {
			row["Rendered Hours"] = fmt.Sprintf("%.2f", *record.RenderedHours)
			total += *record.RenderedHours
		}
		rows = append(rows, row)
	}
	return export.Dataset{
		Title:   fmt.Sprintf("Daily Time Record - %s (%s)", student.FullName, student.StudentNo),
		Headers: dtrHeaders,
		Rows:    rows,
		Footer: map[string]string{
			"Date":           "TOTAL",
			"Rendered Hours": fmt.Sprintf("%.2f", total),
		},
		SignLines: []string{
			"Certified correct: ______________________ (Trainee)",
			"Verified by: ______________________ (Supervisor)",
		},
	}
}

func formatClock(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("15:04")
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
