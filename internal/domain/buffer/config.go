package buffer

import (
	"math"

	"github.com/Rostanic20/Musify-Backend-sub000/internal/errs"
)

// deviceMultiplier is a product decision, not a derived invariant — see
// spec.md §9's open question on magic numbers. Kept as a lookup table
// colocated with the algorithm rather than pushed into internal/config,
// since these are domain constants, not operator-tunable knobs.
var deviceMultiplier = map[DeviceClass]float64{
	DeviceMobile:       1.2,
	DeviceTablet:       1.1,
	DeviceDesktop:      1.0,
	DeviceTV:           0.9,
	DeviceSmartSpeaker: 1.3,
	DeviceCar:          1.5,
	DeviceUnknown:      1.2,
}

// ComputeBufferConfig implements spec.md §4.A's nine-step algorithm. It is
// pure and deterministic: identical inputs always produce an identical
// BufferConfiguration.
func ComputeBufferConfig(net NetworkProfile, device DeviceClass, premium bool) (BufferConfiguration, error) {
	if net.BandwidthKbps <= 0 {
		return BufferConfiguration{}, errs.Invalid("bandwidthKbps", "bandwidthKbps must be > 0")
	}
	if net.LatencyMs < 0 {
		return BufferConfiguration{}, errs.Invalid("latencyMs", "latencyMs must be >= 0")
	}
	if net.PacketLossPct < 0 || net.PacketLossPct > 100 {
		return BufferConfiguration{}, errs.Invalid("packetLossPct", "packetLossPct must be in [0,100]")
	}

	// 1. Base buffer by bandwidth band.
	target := baseBufferSeconds(net.BandwidthKbps)

	// 2. Device multiplier.
	target *= deviceMultiplierFor(device)

	// 3. Jitter multiplier.
	target *= jitterMultiplier(net.JitterMs)

	// 4. Packet-loss multiplier.
	target *= packetLossMultiplier(net.PacketLossPct)

	// 6. Clamp target, derive min/max/rebuffer threshold.
	// (Step 5, preload, is independent of target and computed below.)
	target = clamp(target, 5, 60)
	minBuffer := math.Max(5, target*0.5)
	maxBuffer := math.Min(120, target*2.0)
	rebufferThreshold := math.Max(2, target*0.3)

	// 5. Premium preload bonus.
	preloadCap := 60.0
	if premium {
		preloadCap = 120.0
	}
	preload := math.Min(target, preloadCap)

	// 7. Segment duration.
	segmentSec := int(clamp(math.Round(target/4), 2, 10))

	// 8. Bitrate ladder.
	bw := float64(net.BandwidthKbps)
	maxBitrate := math.Min(320, math.Floor(0.75*bw))
	minBitrate := math.Max(64, math.Floor(0.20*bw))
	if !premium && maxBitrate > 192 {
		maxBitrate = 192
	}
	if minBitrate > maxBitrate {
		minBitrate = maxBitrate
	}
	startBitrate := clamp(math.Floor(0.50*bw), minBitrate, maxBitrate)

	// 9. Recommended quality: nearest ladder value <= startBitrate.
	recommended := recommendedQuality(int(startBitrate))

	return BufferConfiguration{
		MinBufferSec:                 minBuffer,
		TargetBufferSec:              target,
		MaxBufferSec:                 maxBuffer,
		PreloadSec:                   preload,
		SegmentSec:                   segmentSec,
		RebufferThresholdSec:         rebufferThreshold,
		AdaptiveBitrateEnabled:       true,
		MinBitrate:                   int(minBitrate),
		StartBitrate:                 int(startBitrate),
		MaxBitrate:                   int(maxBitrate),
		BitrateAdaptationIntervalSec: 10,
		RecommendedQuality:           recommended,
	}, nil
}

func baseBufferSeconds(bandwidthKbps int) float64 {
	switch {
	case bandwidthKbps < 512:
		return 30
	case bandwidthKbps < 2048:
		return 20
	case bandwidthKbps < 10240:
		return 15
	default:
		return 10
	}
}

func deviceMultiplierFor(device DeviceClass) float64 {
	if m, ok := deviceMultiplier[device]; ok {
		return m
	}
	return deviceMultiplier[DeviceUnknown]
}

func jitterMultiplier(jitterMs int) float64 {
	switch {
	case jitterMs < 50:
		return 1.0
	case jitterMs < 100:
		return 1.1
	case jitterMs < 200:
		return 1.3
	default:
		return 1.5
	}
}

// packetLossMultiplier is piecewise-linear from 1.0 at 0% to 1.6 at >=5%.
func packetLossMultiplier(lossPct float64) float64 {
	if lossPct >= 5 {
		return 1.6
	}
	if lossPct <= 0 {
		return 1.0
	}
	return 1.0 + (lossPct/5.0)*0.6
}

func recommendedQuality(startBitrate int) int {
	best := availableQualities[0]
	for _, q := range availableQualities {
		if q <= startBitrate {
			best = q
		} else {
			break
		}
	}
	return best
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
