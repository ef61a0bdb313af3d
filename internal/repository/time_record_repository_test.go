package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/ojt-portal-api/internal/models"
)

func newTimeRecordRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func timeRecordRows(id string, timeIn, timeOut *time.Time, hours *float64) *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows([]string{"id", "student_id", "record_date", "time_in", "time_out", "time_in_image", "time_out_image", "rendered_hours", "remarks", "created_at", "updated_at"}).
		AddRow(id, "s1", now.Truncate(24*time.Hour), timeIn, timeOut, nil, nil, hours, nil, now, now)
}

func TestTimeRecordRepositoryCreateTimeIn(t *testing.T) {
	db, mock, cleanup := newTimeRecordRepoMock(t)
	defer cleanup()
	repo := NewTimeRecordRepository(db)

	now := time.Now().UTC()
	mock.ExpectQuery("INSERT INTO time_records").
		WithArgs(sqlmock.AnyArg(), "s1", sqlmock.AnyArg(), sqlmock.AnyArg(), nil, nil, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(timeRecordRows("tr1", &now, nil, nil))

	stored, err := repo.CreateTimeIn(context.Background(), &models.TimeRecord{StudentID: "s1", RecordDate: now, TimeIn: &now})
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "tr1", stored.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimeRecordRepositoryCreateTimeInConflict(t *testing.T) {
	db, mock, cleanup := newTimeRecordRepoMock(t)
	defer cleanup()
	repo := NewTimeRecordRepository(db)

	now := time.Now().UTC()
	// ON CONFLICT DO NOTHING yields no row; the repo reports that as (nil, nil).
	mock.ExpectQuery("INSERT INTO time_records").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	stored, err := repo.CreateTimeIn(context.Background(), &models.TimeRecord{StudentID: "s1", RecordDate: now, TimeIn: &now})
	require.NoError(t, err)
	assert.Nil(t, stored)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimeRecordRepositoryCloseRecord(t *testing.T) {
	db, mock, cleanup := newTimeRecordRepoMock(t)
	defer cleanup()
	repo := NewTimeRecordRepository(db)

	timeIn := time.Now().UTC().Add(-8 * time.Hour)
	timeOut := time.Now().UTC()
	hours := 8.0
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE time_records")).
		WithArgs("tr1", timeOut, nil, 8.0, sqlmock.AnyArg()).
		WillReturnRows(timeRecordRows("tr1", &timeIn, &timeOut, &hours))

	stored, err := repo.CloseRecord(context.Background(), "tr1", timeOut, nil, 8.0)
	require.NoError(t, err)
	require.NotNil(t, stored)
	require.NotNil(t, stored.RenderedHours)
	assert.InDelta(t, 8.0, *stored.RenderedHours, 0.001)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimeRecordRepositoryCloseRecordAlreadyClosed(t *testing.T) {
	db, mock, cleanup := newTimeRecordRepoMock(t)
	defer cleanup()
	repo := NewTimeRecordRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE time_records")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	stored, err := repo.CloseRecord(context.Background(), "tr1", time.Now().UTC(), nil, 4.0)
	require.NoError(t, err)
	assert.Nil(t, stored)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimeRecordRepositoryFindByStudentAndDateMissing(t *testing.T) {
	db, mock, cleanup := newTimeRecordRepoMock(t)
	defer cleanup()
	repo := NewTimeRecordRepository(db)

	mock.ExpectQuery("SELECT (.+) FROM time_records WHERE student_id").
		WithArgs("s1", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	record, err := repo.FindByStudentAndDate(context.Background(), "s1", time.Now().UTC())
	require.NoError(t, err)
	assert.Nil(t, record)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimeRecordRepositoryCompletedHours(t *testing.T) {
	db, mock, cleanup := newTimeRecordRepoMock(t)
	defer cleanup()
	repo := NewTimeRecordRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COALESCE(SUM(rendered_hours), 0) FROM time_records WHERE student_id = $1 AND time_out IS NOT NULL")).
		WithArgs("s1").
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(243.5))

	total, err := repo.CompletedHours(context.Background(), "s1")
	require.NoError(t, err)
	assert.InDelta(t, 243.5, total, 0.001)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimeRecordRepositoryListScopesByStudent(t *testing.T) {
	db, mock, cleanup := newTimeRecordRepoMock(t)
	defer cleanup()
	repo := NewTimeRecordRepository(db)

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "student_id", "record_date", "time_in", "time_out", "time_in_image", "time_out_image", "rendered_hours", "remarks", "created_at", "updated_at", "student_name", "student_no"}).
		AddRow("tr1", "s1", now, &now, nil, nil, nil, nil, nil, now, now, "Ana Cruz", "2021-001")
	mock.ExpectQuery("SELECT tr.id, tr.student_id").
		WithArgs("s1").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*)")).
		WithArgs("s1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	list, total, err := repo.List(context.Background(), models.TimeRecordFilter{StudentID: "s1"})
	require.NoError(t, err)
	assert.Len(t, list, 1)
	assert.Equal(t, 1, total)
	assert.Equal(t, "2021-001", list[0].StudentNo)
	assert.NoError(t, mock.ExpectationsWereMet())
}
