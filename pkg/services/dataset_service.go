package services

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/veronikad26/chemical-equip-analyser/pkg/blob"
	"github.com/veronikad26/chemical-equip-analyser/pkg/logging"
	"github.com/veronikad26/chemical-equip-analyser/pkg/models"
	"github.com/veronikad26/chemical-equip-analyser/pkg/repositories"
)

// DatasetService exposes owner-scoped reads and explicit deletion.
type DatasetService interface {
	// Get returns the full dataset including rows. A dataset owned by a
	// different user is reported as not found.
	Get(ctx context.Context, id, owner uuid.UUID) (*models.Dataset, error)
	// ListRecent returns the owner's datasets newest first, without rows.
	ListRecent(ctx context.Context, owner uuid.UUID, limit int) ([]*models.Dataset, error)
	// Delete removes the record, its blob and any cached report.
	Delete(ctx context.Context, id, owner uuid.UUID) error
}

type datasetService struct {
	datasets repositories.DatasetRepository
	blobs    blob.Store
	reports  ReportService
	logger   *zap.Logger
}

// NewDatasetService creates the dataset read/delete service.
func NewDatasetService(
	datasets repositories.DatasetRepository,
	blobs blob.Store,
	reports ReportService,
	logger *zap.Logger,
) DatasetService {
	return &datasetService{
		datasets: datasets,
		blobs:    blobs,
		reports:  reports,
		logger:   logger.Named("dataset-service"),
	}
}

var _ DatasetService = (*datasetService)(nil)

func (s *datasetService) Get(ctx context.Context, id, owner uuid.UUID) (*models.Dataset, error) {
	return s.datasets.GetByID(ctx, id, owner)
}

func (s *datasetService) ListRecent(ctx context.Context, owner uuid.UUID, limit int) ([]*models.Dataset, error) {
	return s.datasets.ListRecent(ctx, owner, limit)
}

func (s *datasetService) Delete(ctx context.Context, id, owner uuid.UUID) error {
	blobRef, err := s.datasets.Delete(ctx, id, owner)
	if err != nil {
		return err
	}

	// The record is gone; a blob that fails to delete is an orphan a
	// sweep can reclaim, never a record pointing at nothing.
	if err := s.blobs.Delete(ctx, blobRef); err != nil {
		s.logger.Error("Failed to delete blob for removed dataset",
			zap.String("dataset_id", id.String()),
			zap.String("error", logging.SanitizeError(err)))
	}
	s.reports.Invalidate(ctx, id)

	return nil
}
