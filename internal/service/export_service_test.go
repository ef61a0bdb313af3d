package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/ojt-portal-api/internal/models"
	"github.com/noah-isme/ojt-portal-api/pkg/export"
)

type mockExportRecordRepo struct {
	records []models.TimeRecord
}

func (m *mockExportRecordRepo) ListForStudent(ctx context.Context, studentID string, from, to *time.Time) ([]models.TimeRecord, error) {
	return m.records, nil
}

func exportRecordsFixture() []models.TimeRecord {
	day1In := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	day1Out := day1In.Add(8 * time.Hour)
	day1Hours := 8.0
	day2In := time.Date(2026, 3, 3, 8, 30, 0, 0, time.UTC)
	return []models.TimeRecord{
		{RecordDate: time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), TimeIn: &day1In, TimeOut: &day1Out, RenderedHours: &day1Hours},
		{RecordDate: time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC), TimeIn: &day2In},
	}
}

func newExportFixture(records []models.TimeRecord) *ExportService {
	return NewExportService(&mockExportRecordRepo{records: records}, studentFixture(), export.NewCSVExporter(), export.NewPDFExporter(), zap.NewNop())
}

func TestExportServiceDailyTimeRecordCSV(t *testing.T) {
	svc := newExportFixture(exportRecordsFixture())

	claims := &models.JWTClaims{UserID: "u1", Role: models.RoleStudent}
	result, err := svc.DailyTimeRecord(context.Background(), claims, "", "csv", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "text/csv", result.ContentType)
	assert.True(t, strings.HasPrefix(result.Filename, "dtr-2021-001-"))

	body := string(result.Content)
	assert.Contains(t, body, "2026-03-02,08:00,16:00,8.00")
	assert.Contains(t, body, "TOTAL")
	assert.Contains(t, body, "8.00")
	// The open day contributes no hours.
	assert.Contains(t, body, "2026-03-03,08:30,,,")
}

func TestExportServiceDailyTimeRecordPDF(t *testing.T) {
	svc := newExportFixture(exportRecordsFixture())

	claims := &models.JWTClaims{UserID: "u1", Role: models.RoleStudent}
	result, err := svc.DailyTimeRecord(context.Background(), claims, "", "pdf", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", result.ContentType)
	assert.True(t, strings.HasSuffix(result.Filename, ".pdf"))
	assert.NotEmpty(t, result.Content)
}

func TestExportServiceUnsupportedFormat(t *testing.T) {
	svc := newExportFixture(nil)

	claims := &models.JWTClaims{UserID: "u1", Role: models.RoleStudent}
	_, err := svc.DailyTimeRecord(context.Background(), claims, "", "xlsx", nil, nil)
	assert.Equal(t, "VALIDATION_ERROR", errorCode(t, err))
}

func TestExportServiceCoordinatorOutsideProgram(t *testing.T) {
	svc := newExportFixture(nil)

	other := "p2"
	claims := &models.JWTClaims{UserID: "c1", Role: models.RoleCoordinator, ProgramID: &other}
	_, err := svc.DailyTimeRecord(context.Background(), claims, "s1", "csv", nil, nil)
	assert.Equal(t, "FORBIDDEN", errorCode(t, err))
}
