// Package buffer implements the Adaptive Buffer Strategy Engine: pure,
// deterministic computation of client buffer configuration, buffer health
// scoring, and predictive preload hints.
package buffer

// DeviceClass classifies the playback device for buffer sizing purposes.
type DeviceClass string

const (
	DeviceMobile       DeviceClass = "MOBILE"
	DeviceTablet       DeviceClass = "TABLET"
	DeviceDesktop      DeviceClass = "DESKTOP"
	DeviceTV           DeviceClass = "TV"
	DeviceSmartSpeaker DeviceClass = "SMART_SPEAKER"
	DeviceCar          DeviceClass = "CAR"
	DeviceUnknown      DeviceClass = "UNKNOWN"
)

// NetworkProfile describes the client's current network conditions.
type NetworkProfile struct {
	BandwidthKbps  int
	LatencyMs      int
	JitterMs       int
	PacketLossPct  float64
	ConnectionType string
}

// BufferConfiguration is the immutable snapshot returned to a client at
// stream start, per spec.md §4.A.
type BufferConfiguration struct {
	MinBufferSec                 float64
	TargetBufferSec              float64
	MaxBufferSec                 float64
	PreloadSec                   float64
	SegmentSec                   int
	RebufferThresholdSec         float64
	AdaptiveBitrateEnabled       bool
	MinBitrate                   int
	StartBitrate                 int
	MaxBitrate                   int
	BitrateAdaptationIntervalSec int
	RecommendedQuality           int
}

// HealthStatus is the banded verdict derived from a BufferHealthScore.
type HealthStatus string

const (
	HealthHealthy  HealthStatus = "HEALTHY"
	HealthWarning  HealthStatus = "WARNING"
	HealthCritical HealthStatus = "CRITICAL"
	HealthPoor     HealthStatus = "POOR"
)

// BufferMetrics carries the client-reported samples computeHealthScore scores.
type BufferMetrics struct {
	CurrentBufferedSec         float64
	TargetBufferSec            float64
	StarvationEventsLastMinute int
	RebufferDurationLastMinute float64
	JitterMs                   int
}

// BufferHealthScore is the scored verdict for a stream's current buffer health.
type BufferHealthScore struct {
	Score            float64
	Status           HealthStatus
	BufferLevelScore float64
	StarvationScore  float64
	RebufferScore    float64
	Recommendations  []string
}

// PreloadHint is one server-suggested next-song candidate.
type PreloadHint struct {
	SongID      string
	Probability float64
	Reason      string
}

// availableQualities is the fixed bitrate ladder recommended quality is
// snapped onto.
var availableQualities = []int{64, 96, 128, 192, 256, 320}
