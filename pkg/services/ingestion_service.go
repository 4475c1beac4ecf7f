package services

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/veronikad26/chemical-equip-analyser/pkg/apperrors"
	"github.com/veronikad26/chemical-equip-analyser/pkg/blob"
	"github.com/veronikad26/chemical-equip-analyser/pkg/config"
	"github.com/veronikad26/chemical-equip-analyser/pkg/logging"
	"github.com/veronikad26/chemical-equip-analyser/pkg/models"
	"github.com/veronikad26/chemical-equip-analyser/pkg/repositories"
	"github.com/veronikad26/chemical-equip-analyser/pkg/tabular"
)

// PreviewRowLimit caps the number of rows echoed back in an upload result.
const PreviewRowLimit = 100

// UploadResult is what a successful upload returns to the caller.
type UploadResult struct {
	DatasetID uuid.UUID             `json:"dataset_id"`
	Summary   models.Summary        `json:"summary"`
	Preview   []models.EquipmentRow `json:"preview_rows"`
}

// IngestionService runs the upload pipeline: validate the payload,
// summarize it, persist blob and record, then trim the owner's history.
// A failure at any stage leaves no partially-visible dataset.
type IngestionService interface {
	Upload(ctx context.Context, owner uuid.UUID, filename string, data []byte) (*UploadResult, error)
}

type ingestionService struct {
	datasets repositories.DatasetRepository
	blobs    blob.Store
	reports  ReportService
	maxBytes int64
	maxRows  int
	keep     int
	logger   *zap.Logger
}

// NewIngestionService creates the ingestion orchestrator.
func NewIngestionService(
	datasets repositories.DatasetRepository,
	blobs blob.Store,
	reports ReportService,
	cfg *config.UploadConfig,
	logger *zap.Logger,
) IngestionService {
	return &ingestionService{
		datasets: datasets,
		blobs:    blobs,
		reports:  reports,
		maxBytes: cfg.MaxBytes,
		maxRows:  cfg.MaxRows,
		keep:     cfg.RetainPerUser,
		logger:   logger.Named("ingestion-service"),
	}
}

var _ IngestionService = (*ingestionService)(nil)

func (s *ingestionService) Upload(ctx context.Context, owner uuid.UUID, filename string, data []byte) (*UploadResult, error) {
	// Validated: declared format and size limits, then the schema.
	if !strings.HasSuffix(strings.ToLower(filename), ".csv") {
		return nil, &apperrors.FormatError{Reason: "only CSV files are allowed"}
	}
	if int64(len(data)) > s.maxBytes {
		return nil, apperrors.ErrUploadTooBig
	}

	table, err := tabular.ParseCSV(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	if len(table.Rows) == 0 {
		return nil, apperrors.ErrEmptyDataset
	}
	if len(table.Rows) > s.maxRows {
		return nil, apperrors.ErrTooManyRows
	}

	// Summarized.
	summary := Summarize(table.Rows)

	// Persisted: blob first, then the record; a failed insert rolls the
	// blob back so no orphan survives a partial create.
	ds := &models.Dataset{
		ID:         uuid.New(),
		OwnerID:    owner,
		Filename:   filename,
		UploadedAt: time.Now(),
		Summary:    summary,
		Rows:       table.Rows,
	}
	ds.BlobRef = blob.Key(ds.ID, filename)

	if err := s.blobs.Put(ctx, ds.BlobRef, data); err != nil {
		s.logger.Error("Failed to write blob", zap.String("dataset_id", ds.ID.String()),
			zap.String("error", logging.SanitizeError(err)))
		return nil, fmt.Errorf("failed to store uploaded file")
	}
	if err := s.datasets.Insert(ctx, ds); err != nil {
		if cleanupErr := s.blobs.Delete(ctx, ds.BlobRef); cleanupErr != nil {
			s.logger.Error("Failed to clean up blob after insert failure",
				zap.String("dataset_id", ds.ID.String()),
				zap.String("error", logging.SanitizeError(cleanupErr)))
		}
		s.logger.Error("Failed to insert dataset", zap.String("dataset_id", ds.ID.String()),
			zap.String("error", logging.SanitizeError(err)))
		return nil, fmt.Errorf("failed to store dataset")
	}

	// Trimmed: eviction is best-effort relative to this upload. The
	// user's dataset is already persisted; a failed trim is logged and
	// retried by the next upload.
	dropBlob := func(ctx context.Context, id uuid.UUID, blobRef string) error {
		if err := s.blobs.Delete(ctx, blobRef); err != nil {
			return err
		}
		s.reports.Invalidate(ctx, id)
		return nil
	}
	evicted, err := s.datasets.EvictExcess(ctx, owner, s.keep, dropBlob)
	if err != nil {
		s.logger.Error("Eviction incomplete, will retry on next upload",
			zap.String("owner_id", owner.String()),
			zap.String("error", logging.SanitizeError(err)))
	}
	if evicted > 0 {
		s.logger.Info("Evicted old datasets",
			zap.String("owner_id", owner.String()),
			zap.Int("evicted", evicted),
			zap.Int("keep", s.keep))
	}

	// Done.
	preview := table.Rows
	if len(preview) > PreviewRowLimit {
		preview = preview[:PreviewRowLimit]
	}
	return &UploadResult{
		DatasetID: ds.ID,
		Summary:   summary,
		Preview:   preview,
	}, nil
}
