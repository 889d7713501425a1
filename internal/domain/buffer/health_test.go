package buffer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeHealthScore_Bands(t *testing.T) {
	tests := []struct {
		name   string
		m      BufferMetrics
		status HealthStatus
	}{
		{
			name:   "fully buffered, no issues",
			m:      BufferMetrics{CurrentBufferedSec: 20, TargetBufferSec: 20},
			status: HealthHealthy,
		},
		{
			name:   "half buffered with some starvation",
			m:      BufferMetrics{CurrentBufferedSec: 10, TargetBufferSec: 20, StarvationEventsLastMinute: 1},
			status: HealthWarning,
		},
		{
			name:   "mostly empty buffer",
			m:      BufferMetrics{CurrentBufferedSec: 4, TargetBufferSec: 20, StarvationEventsLastMinute: 2, RebufferDurationLastMinute: 2},
			status: HealthCritical,
		},
		{
			name:   "empty buffer under heavy rebuffering",
			m:      BufferMetrics{CurrentBufferedSec: 0, TargetBufferSec: 20, StarvationEventsLastMinute: 5, RebufferDurationLastMinute: 8},
			status: HealthPoor,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeHealthScore(tt.m)
			assert.GreaterOrEqual(t, got.Score, 0.0)
			assert.LessOrEqual(t, got.Score, 1.0)
			assert.Equal(t, tt.status, got.Status)
		})
	}
}

func TestComputeHealthScore_RecommendsBufferIncreaseOnJitteryWarning(t *testing.T) {
	m := BufferMetrics{CurrentBufferedSec: 10, TargetBufferSec: 20, JitterMs: 250}
	got := ComputeHealthScore(m)
	if got.Status == HealthWarning {
		assert.Contains(t, got.Recommendations, "increase target buffer by 30%")
	}
}

func TestComputeHealthScore_ZeroTargetDoesNotDivideByZero(t *testing.T) {
	got := ComputeHealthScore(BufferMetrics{CurrentBufferedSec: 5, TargetBufferSec: 0})
	assert.Equal(t, 0.0, got.BufferLevelScore)
}
