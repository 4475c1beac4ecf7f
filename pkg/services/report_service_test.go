package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/veronikad26/chemical-equip-analyser/pkg/apperrors"
	"github.com/veronikad26/chemical-equip-analyser/pkg/models"
)

func reportFixture() *models.Dataset {
	return &models.Dataset{
		ID:         uuid.New(),
		OwnerID:    uuid.New(),
		Filename:   "plant_a.csv",
		UploadedAt: time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
		Summary: models.Summary{
			EquipmentCount: 6,
			AvgFlowrate:    7.5, MinFlowrate: 5, MaxFlowrate: 10,
			AvgPressure: 2.5, MinPressure: 2, MaxPressure: 3,
			AvgTemperature: 70, MinTemperature: 60, MaxTemperature: 80,
			TypeDistribution: models.TypeDistribution{
				{Type: "Pump", Count: 3},
				{Type: "Valve", Count: 1},
				{Type: "Heat Exchanger", Count: 2},
			},
		},
	}
}

func TestRender_ProducesPDF(t *testing.T) {
	svc := NewReportService(nil, zap.NewNop())
	ds := reportFixture()

	data, name, err := svc.Render(context.Background(), ds)
	require.NoError(t, err)
	assert.Equal(t, "report_plant_a.csv.pdf", name)
	require.Greater(t, len(data), 4)
	assert.Equal(t, "%PDF", string(data[:4]))
}

func TestRender_Deterministic(t *testing.T) {
	svc := NewReportService(nil, zap.NewNop())
	ds := reportFixture()

	first, _, err := svc.Render(context.Background(), ds)
	require.NoError(t, err)
	second, _, err := svc.Render(context.Background(), ds)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestRender_RejectsCorruptSummary(t *testing.T) {
	svc := NewReportService(nil, zap.NewNop())
	ds := reportFixture()
	ds.Summary.EquipmentCount = 0

	_, _, err := svc.Render(context.Background(), ds)
	assert.ErrorIs(t, err, apperrors.ErrRenderFailure)
}

func TestInvalidate_NoCacheIsNoop(t *testing.T) {
	svc := NewReportService(nil, zap.NewNop())
	svc.Invalidate(context.Background(), uuid.New())
}
