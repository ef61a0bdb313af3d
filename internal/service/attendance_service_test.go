package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/ojt-portal-api/internal/biometric"
	"github.com/noah-isme/ojt-portal-api/internal/models"
	"github.com/noah-isme/ojt-portal-api/pkg/config"
	appErrors "github.com/noah-isme/ojt-portal-api/pkg/errors"
)

type mockTimeRecordRepo struct {
	today          *models.TimeRecord
	createConflict bool
	created        *models.TimeRecord
	closed         *models.TimeRecord
	closedHours    float64
	closeConflict  bool
	completed      float64
	listed         []models.TimeRecordDetail
	lastFilter     models.TimeRecordFilter
	hoursCalls     int
}

func (m *mockTimeRecordRepo) CreateTimeIn(ctx context.Context, record *models.TimeRecord) (*models.TimeRecord, error) {
	if m.createConflict {
		return nil, nil
	}
	record.ID = "tr-1"
	m.created = record
	return record, nil
}

func (m *mockTimeRecordRepo) CloseRecord(ctx context.Context, id string, timeOut time.Time, image *string, renderedHours float64) (*models.TimeRecord, error) {
	if m.closeConflict {
		return nil, nil
	}
	m.closedHours = renderedHours
	closed := *m.today
	closed.TimeOut = &timeOut
	closed.TimeOutImage = image
	closed.RenderedHours = &renderedHours
	m.closed = &closed
	return m.closed, nil
}

func (m *mockTimeRecordRepo) FindByStudentAndDate(ctx context.Context, studentID string, date time.Time) (*models.TimeRecord, error) {
	return m.today, nil
}

func (m *mockTimeRecordRepo) List(ctx context.Context, filter models.TimeRecordFilter) ([]models.TimeRecordDetail, int, error) {
	m.lastFilter = filter
	return m.listed, len(m.listed), nil
}

func (m *mockTimeRecordRepo) CompletedHours(ctx context.Context, studentID string) (float64, error) {
	m.hoursCalls++
	return m.completed, nil
}

type mockStudentReader struct {
	students map[string]*models.StudentDetail
	byUser   map[string]*models.StudentDetail
}

func (m *mockStudentReader) FindByID(ctx context.Context, id string) (*models.StudentDetail, error) {
	if s, ok := m.students[id]; ok {
		return s, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockStudentReader) FindByUserID(ctx context.Context, userID string) (*models.StudentDetail, error) {
	if s, ok := m.byUser[userID]; ok {
		return s, nil
	}
	return nil, sql.ErrNoRows
}

type mockPlacementChecker struct {
	approved bool
}

func (m *mockPlacementChecker) HasApproved(ctx context.Context, studentID string) (bool, error) {
	return m.approved, nil
}

type mockFaceReader struct {
	descriptor *models.FaceDescriptor
}

func (m *mockFaceReader) FindByStudent(ctx context.Context, studentID string) (*models.FaceDescriptor, error) {
	return m.descriptor, nil
}

type mockSnapshotStore struct {
	saved map[string][]byte
}

func (m *mockSnapshotStore) Save(filename string, data []byte) (string, error) {
	if m.saved == nil {
		m.saved = make(map[string][]byte)
	}
	m.saved[filename] = data
	return filename, nil
}

type mockProgressCache struct {
	data    map[string]models.ProgressSummary
	deleted []string
	sets    int
}

func (m *mockProgressCache) Get(ctx context.Context, key string, dest interface{}) error {
	if v, ok := m.data[key]; ok {
		*dest.(*models.ProgressSummary) = v
		return nil
	}
	return appErrors.ErrCacheMiss
}

func (m *mockProgressCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if m.data == nil {
		m.data = make(map[string]models.ProgressSummary)
	}
	m.data[key] = *value.(*models.ProgressSummary)
	m.sets++
	return nil
}

func (m *mockProgressCache) Delete(ctx context.Context, key string) error {
	m.deleted = append(m.deleted, key)
	delete(m.data, key)
	return nil
}

type mockAudit struct {
	entries []*models.AuditLog
}

func (m *mockAudit) Record(entry *models.AuditLog) {
	m.entries = append(m.entries, entry)
}

func errorCode(t *testing.T, err error) string {
	t.Helper()
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	return appErr.Code
}

func studentFixture() *mockStudentReader {
	detail := &models.StudentDetail{Student: models.Student{ID: "s1", UserID: "u1", StudentNo: "2021-001", ProgramID: "p1", RequiredHours: 486}}
	return &mockStudentReader{
		students: map[string]*models.StudentDetail{"s1": detail},
		byUser:   map[string]*models.StudentDetail{"u1": detail},
	}
}

func newAttendanceFixture(records *mockTimeRecordRepo, placements *mockPlacementChecker, faces *mockFaceReader, cache *mockProgressCache, audit *mockAudit, requireFace bool) *AttendanceService {
	return NewAttendanceService(
		records,
		studentFixture(),
		placements,
		faces,
		biometric.NewComparator(0.6),
		&mockSnapshotStore{},
		cache,
		audit,
		nil,
		zap.NewNop(),
		config.AttendanceConfig{DefaultRequiredHours: 486, RequireFaceMatch: requireFace},
		time.Minute,
	)
}

func TestAttendanceServiceTimeIn(t *testing.T) {
	records := &mockTimeRecordRepo{}
	audit := &mockAudit{}
	descriptor := []float64{0.1, 0.2, 0.3}
	faces := &mockFaceReader{descriptor: &models.FaceDescriptor{StudentID: "s1", Descriptor: descriptor}}
	svc := newAttendanceFixture(records, &mockPlacementChecker{approved: true}, faces, &mockProgressCache{}, audit, true)

	stored, err := svc.TimeIn(context.Background(), "u1", models.TimeInRequest{Descriptor: descriptor, Image: []byte("jpg")})
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "s1", stored.StudentID)
	assert.NotNil(t, stored.TimeIn)
	assert.NotNil(t, records.created.TimeInImage)
	require.Len(t, audit.entries, 1)
	assert.Equal(t, models.AuditActionTimeIn, audit.entries[0].Action)
}

func TestAttendanceServiceTimeInWithoutApprovedPlacement(t *testing.T) {
	svc := newAttendanceFixture(&mockTimeRecordRepo{}, &mockPlacementChecker{approved: false}, &mockFaceReader{}, &mockProgressCache{}, &mockAudit{}, false)

	_, err := svc.TimeIn(context.Background(), "u1", models.TimeInRequest{})
	assert.Equal(t, "PLACEMENT_NOT_APPROVED", errorCode(t, err))
}

func TestAttendanceServiceTimeInTwiceConflicts(t *testing.T) {
	records := &mockTimeRecordRepo{createConflict: true}
	svc := newAttendanceFixture(records, &mockPlacementChecker{approved: true}, &mockFaceReader{}, &mockProgressCache{}, &mockAudit{}, false)

	_, err := svc.TimeIn(context.Background(), "u1", models.TimeInRequest{})
	assert.Equal(t, "ALREADY_TIMED_IN", errorCode(t, err))
}

func TestAttendanceServiceTimeInFaceGate(t *testing.T) {
	stored := []float64{0.1, 0.2, 0.3}
	cases := []struct {
		name       string
		descriptor []float64
		registered bool
		wantCode   string
	}{
		{name: "no registered face", descriptor: stored, registered: false, wantCode: "PRECONDITION_FAILED"},
		{name: "length mismatch", descriptor: []float64{0.1, 0.2}, registered: true, wantCode: "DESCRIPTOR_LENGTH_MISMATCH"},
		{name: "distance too far", descriptor: []float64{5, 5, 5}, registered: true, wantCode: "FACE_MISMATCH"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			faces := &mockFaceReader{}
			if tc.registered {
				faces.descriptor = &models.FaceDescriptor{StudentID: "s1", Descriptor: stored}
			}
			svc := newAttendanceFixture(&mockTimeRecordRepo{}, &mockPlacementChecker{approved: true}, faces, &mockProgressCache{}, &mockAudit{}, true)

			_, err := svc.TimeIn(context.Background(), "u1", models.TimeInRequest{Descriptor: tc.descriptor})
			assert.Equal(t, tc.wantCode, errorCode(t, err))
		})
	}
}

func TestAttendanceServiceTimeOut(t *testing.T) {
	timeIn := time.Now().UTC().Add(-4 * time.Hour)
	records := &mockTimeRecordRepo{today: &models.TimeRecord{ID: "tr-1", StudentID: "s1", RecordDate: dateOf(time.Now().UTC()), TimeIn: &timeIn}}
	cache := &mockProgressCache{}
	svc := newAttendanceFixture(records, &mockPlacementChecker{approved: true}, &mockFaceReader{}, cache, &mockAudit{}, false)

	closed, err := svc.TimeOut(context.Background(), "u1", models.TimeOutRequest{})
	require.NoError(t, err)
	require.NotNil(t, closed.TimeOut)
	assert.InDelta(t, 4.0, records.closedHours, 0.05)
	assert.Contains(t, cache.deleted, "progress:s1")
}

func TestAttendanceServiceTimeOutWithoutTimeIn(t *testing.T) {
	svc := newAttendanceFixture(&mockTimeRecordRepo{}, &mockPlacementChecker{approved: true}, &mockFaceReader{}, &mockProgressCache{}, &mockAudit{}, false)

	_, err := svc.TimeOut(context.Background(), "u1", models.TimeOutRequest{})
	assert.Equal(t, "NO_PRIOR_TIME_IN", errorCode(t, err))
}

func TestAttendanceServiceTimeOutTwiceConflicts(t *testing.T) {
	timeIn := time.Now().UTC().Add(-8 * time.Hour)
	timeOut := time.Now().UTC().Add(-time.Hour)
	records := &mockTimeRecordRepo{today: &models.TimeRecord{ID: "tr-1", StudentID: "s1", TimeIn: &timeIn, TimeOut: &timeOut}}
	svc := newAttendanceFixture(records, &mockPlacementChecker{approved: true}, &mockFaceReader{}, &mockProgressCache{}, &mockAudit{}, false)

	_, err := svc.TimeOut(context.Background(), "u1", models.TimeOutRequest{})
	assert.Equal(t, "ALREADY_TIMED_OUT", errorCode(t, err))
}

func TestAttendanceServiceTimeOutClampsNegativeSpan(t *testing.T) {
	timeIn := time.Now().UTC().Add(2 * time.Hour)
	records := &mockTimeRecordRepo{today: &models.TimeRecord{ID: "tr-1", StudentID: "s1", RecordDate: dateOf(time.Now().UTC()), TimeIn: &timeIn}}
	svc := newAttendanceFixture(records, &mockPlacementChecker{approved: true}, &mockFaceReader{}, &mockProgressCache{}, &mockAudit{}, false)

	_, err := svc.TimeOut(context.Background(), "u1", models.TimeOutRequest{})
	require.NoError(t, err)
	assert.Equal(t, 0.0, records.closedHours)
}

func TestAttendanceServiceToday(t *testing.T) {
	timeIn := time.Now().UTC().Add(-time.Hour)
	records := &mockTimeRecordRepo{today: &models.TimeRecord{ID: "tr-1", StudentID: "s1", TimeIn: &timeIn}}
	svc := newAttendanceFixture(records, &mockPlacementChecker{approved: true}, &mockFaceReader{}, &mockProgressCache{}, &mockAudit{}, false)

	status, err := svc.Today(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, models.AttendanceStateTimedIn, status.State)

	records.today = nil
	status, err = svc.Today(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, models.AttendanceStateNoRecord, status.State)
}

func TestAttendanceServiceListScopesStudent(t *testing.T) {
	records := &mockTimeRecordRepo{}
	svc := newAttendanceFixture(records, &mockPlacementChecker{approved: true}, &mockFaceReader{}, &mockProgressCache{}, &mockAudit{}, false)

	claims := &models.JWTClaims{UserID: "u1", Role: models.RoleStudent}
	_, _, err := svc.List(context.Background(), claims, models.TimeRecordFilter{StudentID: "someone-else"})
	require.NoError(t, err)
	assert.Equal(t, "s1", records.lastFilter.StudentID)
}

func TestAttendanceServiceListScopesCoordinator(t *testing.T) {
	records := &mockTimeRecordRepo{}
	svc := newAttendanceFixture(records, &mockPlacementChecker{approved: true}, &mockFaceReader{}, &mockProgressCache{}, &mockAudit{}, false)

	program := "p1"
	claims := &models.JWTClaims{UserID: "u2", Role: models.RoleCoordinator, ProgramID: &program}
	_, _, err := svc.List(context.Background(), claims, models.TimeRecordFilter{})
	require.NoError(t, err)
	assert.Equal(t, "p1", records.lastFilter.ProgramID)
}

func TestAttendanceServiceProgress(t *testing.T) {
	records := &mockTimeRecordRepo{completed: 243}
	cache := &mockProgressCache{}
	svc := newAttendanceFixture(records, &mockPlacementChecker{approved: true}, &mockFaceReader{}, cache, &mockAudit{}, false)

	summary, err := svc.Progress(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, 243.0, summary.CompletedHours)
	assert.Equal(t, 486.0, summary.RequiredHours)
	assert.Equal(t, 50, summary.Percent)
	assert.Equal(t, 1, cache.sets)

	// Second call is served from cache without recomputing.
	_, err = svc.Progress(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, 1, records.hoursCalls)
}

func TestRenderedHours(t *testing.T) {
	base := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	cases := []struct {
		name string
		out  time.Time
		want float64
	}{
		{name: "full day", out: base.Add(8 * time.Hour), want: 8},
		{name: "partial", out: base.Add(90 * time.Minute), want: 1.5},
		{name: "negative clamps to zero", out: base.Add(-time.Hour), want: 0},
		{name: "zero span", out: base, want: 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, RenderedHours(base, tc.out))
		})
	}
}

func TestProgressPercent(t *testing.T) {
	cases := []struct {
		name      string
		completed float64
		required  float64
		want      int
	}{
		{name: "halfway", completed: 243, required: 486, want: 50},
		{name: "floors fraction", completed: 485.9, required: 486, want: 99},
		{name: "caps at hundred", completed: 600, required: 486, want: 100},
		{name: "exactly complete", completed: 486, required: 486, want: 100},
		{name: "zero required", completed: 100, required: 0, want: 0},
		{name: "nothing completed", completed: 0, required: 486, want: 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ProgressPercent(tc.completed, tc.required))
		})
	}
}
