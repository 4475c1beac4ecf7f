package services

import (
	"github.com/veronikad26/chemical-equip-analyser/pkg/models"
)

// Summarize computes the aggregate statistics for a validated, non-empty
// table. Averages are plain double-precision means; no rounding happens
// here (display rounding belongs to the report renderer). The type
// distribution counts rows grouped on Type, ordered by first occurrence.
//
// Callers must not pass an empty slice; ingestion rejects zero-row tables
// before summarization so a persisted summary is always fully defined.
func Summarize(rows []models.EquipmentRow) models.Summary {
	s := models.Summary{
		EquipmentCount: len(rows),
		MinFlowrate:    rows[0].Flowrate,
		MaxFlowrate:    rows[0].Flowrate,
		MinPressure:    rows[0].Pressure,
		MaxPressure:    rows[0].Pressure,
		MinTemperature: rows[0].Temperature,
		MaxTemperature: rows[0].Temperature,
	}

	var sumFlow, sumPress, sumTemp float64
	typeIndex := make(map[string]int)

	for _, row := range rows {
		sumFlow += row.Flowrate
		sumPress += row.Pressure
		sumTemp += row.Temperature

		s.MinFlowrate = min(s.MinFlowrate, row.Flowrate)
		s.MaxFlowrate = max(s.MaxFlowrate, row.Flowrate)
		s.MinPressure = min(s.MinPressure, row.Pressure)
		s.MaxPressure = max(s.MaxPressure, row.Pressure)
		s.MinTemperature = min(s.MinTemperature, row.Temperature)
		s.MaxTemperature = max(s.MaxTemperature, row.Temperature)

		if i, ok := typeIndex[row.Type]; ok {
			s.TypeDistribution[i].Count++
		} else {
			typeIndex[row.Type] = len(s.TypeDistribution)
			s.TypeDistribution = append(s.TypeDistribution, models.TypeCount{Type: row.Type, Count: 1})
		}
	}

	n := float64(len(rows))
	s.AvgFlowrate = sumFlow / n
	s.AvgPressure = sumPress / n
	s.AvgTemperature = sumTemp / n

	return s
}
