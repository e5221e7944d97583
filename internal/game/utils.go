package game

import (
	"fmt"
	"math"
	"time"

	"github.com/iburimskiy/matrix-rain/internal/config"
)

// clamp01 bounds a loudness or slider fraction; NaN reads as silence.
func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(1, v))
}

// snap clamps v into r and rounds it to the nearest step from r.Min.
func snap(v float64, r config.SliderRange) float64 {
	if math.IsNaN(v) {
		v = r.Min
	}
	if v < r.Min {
		v = r.Min
	}
	if v > r.Max {
		v = r.Max
	}
	if r.Step > 0 {
		v = r.Min + math.Round((v-r.Min)/r.Step)*r.Step
		// undo float drift such as 0.30000000000000004
		v = math.Round(v*1e6) / 1e6
	}
	return math.Min(v, r.Max)
}

// formatValue prints v with as many decimals as the slider step needs.
func formatValue(v float64, r config.SliderRange) string {
	if r.Step >= 1 || r.Step == 0 {
		return fmt.Sprintf("%.0f", v)
	}
	return fmt.Sprintf("%.1f", v)
}

// formatDuration prints a track position as MM:SS, or H:MM:SS past an hour.
func formatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d / time.Second)
	h, m, s := total/3600, total/60%60, total%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}
