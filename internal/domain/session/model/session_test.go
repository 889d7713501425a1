package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		name string
		from Status
		to   Status
		want bool
	}{
		{"active to paused", StatusActive, StatusPaused, true},
		{"active to ended", StatusActive, StatusEnded, true},
		{"paused to active", StatusPaused, StatusActive, true},
		{"paused to expired", StatusPaused, StatusExpired, true},
		{"ended never reopens to active", StatusEnded, StatusActive, false},
		{"expired never reopens to paused", StatusExpired, StatusPaused, false},
		{"ended to ended is not a transition", StatusEnded, StatusEnded, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestTier_ConcurrencyLimit(t *testing.T) {
	assert.Equal(t, 1, TierFree.ConcurrencyLimit())
	assert.Equal(t, 5, TierPremium.ConcurrencyLimit())
	assert.Equal(t, 6, TierFamily.ConcurrencyLimit())
}

func TestApplyHeartbeat_CountersNeverRegress(t *testing.T) {
	start := time.Now()
	sess := &StreamingSession{StartedAt: start, LastHeartbeatAt: start}

	sess.ApplyHeartbeat(HeartbeatMetrics{StreamedSeconds: 50, StreamedBytes: 1000}, start.Add(time.Second))
	assert.EqualValues(t, 50, sess.StreamedSeconds)

	sess.ApplyHeartbeat(HeartbeatMetrics{StreamedSeconds: 10, StreamedBytes: 2000}, start.Add(2*time.Second))
	assert.EqualValues(t, 50, sess.StreamedSeconds, "a lower counter must not regress the stored max")
	assert.EqualValues(t, 2000, sess.StreamedBytes)
}

func TestApplyHeartbeat_LastHeartbeatOnlyMovesForward(t *testing.T) {
	start := time.Now()
	sess := &StreamingSession{StartedAt: start, LastHeartbeatAt: start.Add(10 * time.Second)}

	sess.ApplyHeartbeat(HeartbeatMetrics{}, start.Add(time.Second))
	assert.True(t, sess.LastHeartbeatAt.Equal(start.Add(10*time.Second)), "an out-of-order heartbeat must not rewind lastHeartbeatAt")
}
