package gait

import (
	"math"

	"gait-backend/internal/models"
)

// ColumnStats summarizes one metric column over the padded table.
type ColumnStats struct {
	Average float64 `json:"average"`
	StdDev  float64 `json:"std_dev"`
}

// roundFloat rounds a float64 to a specified number of decimal places.
func roundFloat(val float64, precision uint) float64 {
	ratio := math.Pow(10, float64(precision))
	return math.Round(val*ratio) / ratio
}

// calculateStats computes the average and sample standard deviation of a
// column, ignoring the null padding cells.
func calculateStats(data []*float64) ColumnStats {
	filtered := make([]float64, 0, len(data))
	for _, valPtr := range data {
		if valPtr != nil {
			filtered = append(filtered, *valPtr)
		}
	}

	n := len(filtered)
	if n == 0 {
		return ColumnStats{}
	}

	sum := 0.0
	for _, val := range filtered {
		sum += val
	}
	average := sum / float64(n)

	if n < 2 {
		return ColumnStats{Average: roundFloat(average, 4)}
	}

	varianceSum := 0.0
	for _, val := range filtered {
		varianceSum += math.Pow(val-average, 2)
	}
	stdDev := math.Sqrt(varianceSum / float64(n-1))

	return ColumnStats{Average: roundFloat(average, 4), StdDev: roundFloat(stdDev, 4)}
}

// TableStats returns per-column averages and deviations for a session's
// metrics, keyed by the column's JSON name.
func TableStats(metrics []models.GaitMetric) map[string]ColumnStats {
	columns := map[string]func(m models.GaitMetric) *float64{
		"stance_time_left":          func(m models.GaitMetric) *float64 { return m.StanceTimeLeft },
		"stance_time_right":         func(m models.GaitMetric) *float64 { return m.StanceTimeRight },
		"swing_time_left":           func(m models.GaitMetric) *float64 { return m.SwingTimeLeft },
		"swing_time_right":          func(m models.GaitMetric) *float64 { return m.SwingTimeRight },
		"step_time_left":            func(m models.GaitMetric) *float64 { return m.StepTimeLeft },
		"step_time_right":           func(m models.GaitMetric) *float64 { return m.StepTimeRight },
		"double_support_time_left":  func(m models.GaitMetric) *float64 { return m.DoubleSupportTimeLeft },
		"double_support_time_right": func(m models.GaitMetric) *float64 { return m.DoubleSupportTimeRight },
	}

	stats := make(map[string]ColumnStats, len(columns))
	for name, get := range columns {
		col := make([]*float64, 0, len(metrics))
		for _, m := range metrics {
			col = append(col, get(m))
		}
		stats[name] = calculateStats(col)
	}
	return stats
}
