package services

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/veronikad26/chemical-equip-analyser/pkg/apperrors"
	"github.com/veronikad26/chemical-equip-analyser/pkg/models"
)

// reportCacheTTL bounds how long rendered reports stay cached. Datasets
// are immutable, so staleness only matters after deletion, which also
// invalidates explicitly.
const reportCacheTTL = time.Hour

// ReportService renders the fixed-layout PDF summary for a dataset.
type ReportService interface {
	// Render returns the PDF bytes and the suggested download filename.
	Render(ctx context.Context, ds *models.Dataset) ([]byte, string, error)
	// Invalidate drops any cached report for the dataset.
	Invalidate(ctx context.Context, id uuid.UUID)
}

// reportService implements ReportService with an optional Redis cache.
// A nil client disables caching entirely.
type reportService struct {
	cache  *redis.Client
	logger *zap.Logger
}

// NewReportService creates the report renderer. cache may be nil.
func NewReportService(cache *redis.Client, logger *zap.Logger) ReportService {
	return &reportService{
		cache:  cache,
		logger: logger.Named("report-service"),
	}
}

var _ ReportService = (*reportService)(nil)

func reportCacheKey(id uuid.UUID) string {
	return "report:" + id.String()
}

func (s *reportService) Render(ctx context.Context, ds *models.Dataset) ([]byte, string, error) {
	// A stored summary always satisfies these invariants; a violation
	// means the store is corrupt, not that the user did anything wrong.
	if err := ds.Summary.Validate(); err != nil {
		return nil, "", fmt.Errorf("%w: %s", apperrors.ErrRenderFailure, err)
	}

	name := "report_" + ds.Filename + ".pdf"

	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, reportCacheKey(ds.ID)).Bytes(); err == nil {
			return cached, name, nil
		} else if err != redis.Nil {
			s.logger.Warn("Report cache read failed", zap.Error(err))
		}
	}

	data, err := renderPDF(ds)
	if err != nil {
		return nil, "", err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, reportCacheKey(ds.ID), data, reportCacheTTL).Err(); err != nil {
			s.logger.Warn("Report cache write failed", zap.Error(err))
		}
	}

	return data, name, nil
}

func (s *reportService) Invalidate(ctx context.Context, id uuid.UUID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, reportCacheKey(id)).Err(); err != nil {
		s.logger.Warn("Report cache invalidation failed",
			zap.String("dataset_id", id.String()), zap.Error(err))
	}
}

// renderPDF builds the document: title, summary block with averages at
// two decimal places, then the type distribution table in summarizer
// order. Document dates are pinned to the upload time so the same
// dataset always renders byte-identical output.
func renderPDF(ds *models.Dataset) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCreationDate(ds.UploadedAt.UTC())
	pdf.SetModificationDate(ds.UploadedAt.UTC())
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 12, "Equipment Report: "+ds.Filename, "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 8, "Summary Statistics", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(0, 6, fmt.Sprintf("Equipment Count: %d", ds.Summary.EquipmentCount), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Average Flowrate: %.2f", ds.Summary.AvgFlowrate), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Average Pressure: %.2f", ds.Summary.AvgPressure), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Average Temperature: %.2f", ds.Summary.AvgTemperature), "", 1, "L", false, 0, "")
	pdf.Ln(6)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetFillColor(128, 128, 128)
	pdf.SetTextColor(255, 255, 255)
	pdf.CellFormat(70, 9, "Equipment Type", "1", 0, "C", true, 0, "")
	pdf.CellFormat(40, 9, "Count", "1", 1, "C", true, 0, "")

	pdf.SetFont("Helvetica", "", 11)
	pdf.SetFillColor(245, 245, 220)
	pdf.SetTextColor(0, 0, 0)
	for _, tc := range ds.Summary.TypeDistribution {
		pdf.CellFormat(70, 8, tc.Type, "1", 0, "C", true, 0, "")
		pdf.CellFormat(40, 8, strconv.Itoa(tc.Count), "1", 1, "C", true, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render report: %w", err)
	}
	return buf.Bytes(), nil
}
