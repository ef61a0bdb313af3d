package service

import (
	"context"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/ojt-portal-api/internal/biometric"
	"github.com/noah-isme/ojt-portal-api/internal/models"
)

type mockFaceRepo struct {
	stored *models.FaceDescriptor
}

func (m *mockFaceRepo) Upsert(ctx context.Context, fd *models.FaceDescriptor) error {
	m.stored = fd
	return nil
}

func (m *mockFaceRepo) FindByStudent(ctx context.Context, studentID string) (*models.FaceDescriptor, error) {
	return m.stored, nil
}

func newFaceFixture(repo *mockFaceRepo, audit *mockAudit) *FaceService {
	return NewFaceService(repo, studentFixture(), biometric.NewComparator(0.6), validator.New(), audit, nil, zap.NewNop())
}

func TestFaceServiceRegister(t *testing.T) {
	repo := &mockFaceRepo{}
	audit := &mockAudit{}
	svc := newFaceFixture(repo, audit)

	stored, err := svc.Register(context.Background(), "u1", models.FaceRegisterRequest{Descriptor: []float64{0.1, 0.2, 0.3}})
	require.NoError(t, err)
	assert.Equal(t, "s1", stored.StudentID)
	require.Len(t, audit.entries, 1)
	assert.Equal(t, models.AuditActionFaceRegister, audit.entries[0].Action)
}

func TestFaceServiceRegisterOverwrites(t *testing.T) {
	repo := &mockFaceRepo{stored: &models.FaceDescriptor{StudentID: "s1", Descriptor: []float64{0.9, 0.9, 0.9}}}
	svc := newFaceFixture(repo, &mockAudit{})

	stored, err := svc.Register(context.Background(), "u1", models.FaceRegisterRequest{Descriptor: []float64{0.1, 0.2, 0.3}})
	require.NoError(t, err)
	assert.Equal(t, []float64{0.1, 0.2, 0.3}, stored.Descriptor)
}

func TestFaceServiceRegisterRequiresDescriptor(t *testing.T) {
	svc := newFaceFixture(&mockFaceRepo{}, &mockAudit{})

	_, err := svc.Register(context.Background(), "u1", models.FaceRegisterRequest{})
	assert.Equal(t, "VALIDATION_ERROR", errorCode(t, err))
}

func TestFaceServiceCompare(t *testing.T) {
	repo := &mockFaceRepo{stored: &models.FaceDescriptor{StudentID: "s1", Descriptor: []float64{0.1, 0.2, 0.3}}}
	svc := newFaceFixture(repo, &mockAudit{})

	result, err := svc.Compare(context.Background(), "u1", models.FaceCompareRequest{Descriptor: []float64{0.1, 0.2, 0.3}})
	require.NoError(t, err)
	assert.True(t, result.Registered)
	assert.True(t, result.IsMatch)
	assert.Equal(t, 0.0, result.Distance)
	assert.Equal(t, 0.6, result.Threshold)
}

func TestFaceServiceCompareMismatch(t *testing.T) {
	repo := &mockFaceRepo{stored: &models.FaceDescriptor{StudentID: "s1", Descriptor: []float64{0.1, 0.2, 0.3}}}
	svc := newFaceFixture(repo, &mockAudit{})

	result, err := svc.Compare(context.Background(), "u1", models.FaceCompareRequest{Descriptor: []float64{5, 5, 5}})
	require.NoError(t, err)
	assert.True(t, result.Registered)
	assert.False(t, result.IsMatch)
	assert.Greater(t, result.Distance, 0.6)
}

func TestFaceServiceCompareUnregistered(t *testing.T) {
	svc := newFaceFixture(&mockFaceRepo{}, &mockAudit{})

	result, err := svc.Compare(context.Background(), "u1", models.FaceCompareRequest{Descriptor: []float64{0.1, 0.2, 0.3}})
	require.NoError(t, err)
	assert.False(t, result.Registered)
	assert.False(t, result.IsMatch)
}

func TestFaceServiceCompareLengthMismatch(t *testing.T) {
	repo := &mockFaceRepo{stored: &models.FaceDescriptor{StudentID: "s1", Descriptor: []float64{0.1, 0.2, 0.3}}}
	svc := newFaceFixture(repo, &mockAudit{})

	_, err := svc.Compare(context.Background(), "u1", models.FaceCompareRequest{Descriptor: []float64{0.1, 0.2}})
	assert.Equal(t, "DESCRIPTOR_LENGTH_MISMATCH", errorCode(t, err))
}

func TestFaceServiceRegistered(t *testing.T) {
	repo := &mockFaceRepo{}
	svc := newFaceFixture(repo, &mockAudit{})

	registered, err := svc.Registered(context.Background(), "s1")
	require.NoError(t, err)
	assert.False(t, registered)

	repo.stored = &models.FaceDescriptor{StudentID: "s1", Descriptor: []float64{0.1}}
	registered, err = svc.Registered(context.Background(), "s1")
	require.NoError(t, err)
	assert.True(t, registered)
}
