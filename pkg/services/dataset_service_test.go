package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/veronikad26/chemical-equip-analyser/pkg/apperrors"
	"github.com/veronikad26/chemical-equip-analyser/pkg/models"
)

func seedDataset(t *testing.T, repo *mockDatasetRepo, blobs *mockBlobStore, owner uuid.UUID) *models.Dataset {
	t.Helper()
	ds := &models.Dataset{
		ID:         uuid.New(),
		OwnerID:    owner,
		Filename:   "readings.csv",
		UploadedAt: time.Now(),
		Summary: models.Summary{
			EquipmentCount: 1,
			AvgFlowrate:    10, MinFlowrate: 10, MaxFlowrate: 10,
			AvgPressure: 2, MinPressure: 2, MaxPressure: 2,
			AvgTemperature: 80, MinTemperature: 80, MaxTemperature: 80,
			TypeDistribution: models.TypeDistribution{{Type: "Pump", Count: 1}},
		},
		Rows:    []models.EquipmentRow{{Name: "Pump-1", Type: "Pump", Flowrate: 10, Pressure: 2, Temperature: 80}},
		BlobRef: "some-blob-ref",
	}
	require.NoError(t, repo.Insert(context.Background(), ds))
	require.NoError(t, blobs.Put(context.Background(), ds.BlobRef, []byte("raw csv bytes")))
	return ds
}

func TestDatasetService_Get(t *testing.T) {
	repo := newMockDatasetRepo()
	blobs := newMockBlobStore()
	owner := uuid.New()
	ds := seedDataset(t, repo, blobs, owner)
	svc := NewDatasetService(repo, blobs, NewReportService(nil, zap.NewNop()), zap.NewNop())

	got, err := svc.Get(context.Background(), ds.ID, owner)
	require.NoError(t, err)
	assert.Equal(t, ds.Filename, got.Filename)
	assert.Len(t, got.Rows, 1)
}

func TestDatasetService_GetWrongOwner(t *testing.T) {
	repo := newMockDatasetRepo()
	blobs := newMockBlobStore()
	ds := seedDataset(t, repo, blobs, uuid.New())
	svc := NewDatasetService(repo, blobs, NewReportService(nil, zap.NewNop()), zap.NewNop())

	_, err := svc.Get(context.Background(), ds.ID, uuid.New())
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestDatasetService_DeleteRemovesRecordAndBlob(t *testing.T) {
	repo := newMockDatasetRepo()
	blobs := newMockBlobStore()
	owner := uuid.New()
	ds := seedDataset(t, repo, blobs, owner)
	svc := NewDatasetService(repo, blobs, NewReportService(nil, zap.NewNop()), zap.NewNop())

	require.NoError(t, svc.Delete(context.Background(), ds.ID, owner))

	_, err := repo.GetByID(context.Background(), ds.ID, owner)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	_, err = blobs.Get(context.Background(), ds.BlobRef)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestDatasetService_DeleteUnknown(t *testing.T) {
	repo := newMockDatasetRepo()
	blobs := newMockBlobStore()
	svc := NewDatasetService(repo, blobs, NewReportService(nil, zap.NewNop()), zap.NewNop())

	err := svc.Delete(context.Background(), uuid.New(), uuid.New())
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestDatasetService_DeleteSurvivesBlobFailure(t *testing.T) {
	repo := newMockDatasetRepo()
	blobs := newMockBlobStore()
	owner := uuid.New()
	ds := seedDataset(t, repo, blobs, owner)
	blobs.deleteErr = errors.New("disk unplugged")
	svc := NewDatasetService(repo, blobs, NewReportService(nil, zap.NewNop()), zap.NewNop())

	// The record is authoritative; a stuck blob is only an orphan.
	require.NoError(t, svc.Delete(context.Background(), ds.ID, owner))
	_, err := repo.GetByID(context.Background(), ds.ID, owner)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
