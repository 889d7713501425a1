package buffer

import "fmt"

// ComputeHealthScore implements spec.md §4.A's component-weighted scoring
// and its HEALTHY/WARNING/CRITICAL/POOR status bands.
func ComputeHealthScore(m BufferMetrics) BufferHealthScore {
	bufferLevel := clamp01(safeDiv(m.CurrentBufferedSec, m.TargetBufferSec))
	starvation := 1 - clamp01(float64(m.StarvationEventsLastMinute)/3.0)
	rebuffer := 1 - clamp01(m.RebufferDurationLastMinute/5.0)

	score := 0.5*bufferLevel + 0.3*starvation + 0.2*rebuffer
	status := statusFor(score)

	return BufferHealthScore{
		Score:            score,
		Status:           status,
		BufferLevelScore: bufferLevel,
		StarvationScore:  starvation,
		RebufferScore:    rebuffer,
		Recommendations:  recommendationsFor(status, m),
	}
}

func statusFor(score float64) HealthStatus {
	switch {
	case score >= 0.8:
		return HealthHealthy
	case score >= 0.6:
		return HealthWarning
	case score >= 0.3:
		return HealthCritical
	default:
		return HealthPoor
	}
}

func recommendationsFor(status HealthStatus, m BufferMetrics) []string {
	var recs []string

	if status == HealthWarning && m.JitterMs > 200 {
		recs = append(recs, "increase target buffer by 30%")
	}
	if status == HealthCritical || status == HealthPoor {
		recs = append(recs, "reduce bitrate to stabilize playback")
	}
	if m.StarvationEventsLastMinute >= 2 {
		recs = append(recs, fmt.Sprintf("buffer starved %d times in the last minute, consider lowering quality", m.StarvationEventsLastMinute))
	}
	if m.RebufferDurationLastMinute > 3 {
		recs = append(recs, "rebuffering duration is high, switch to a smaller segment size")
	}
	return recs
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func safeDiv(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return a / b
}
