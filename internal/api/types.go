package api

import (
	"time"

	"github.com/Rostanic20/Musify-Backend-sub000/internal/domain/buffer"
	"github.com/Rostanic20/Musify-Backend-sub000/internal/domain/session/model"
)

type networkProfileDTO struct {
	BandwidthKbps  int     `json:"bandwidthKbps"`
	LatencyMs      int     `json:"latencyMs"`
	JitterMs       int     `json:"jitterMs"`
	PacketLossPct  float64 `json:"packetLossPct"`
	ConnectionType string  `json:"connectionType"`
}

func (n networkProfileDTO) toDomain() buffer.NetworkProfile {
	return buffer.NetworkProfile{
		BandwidthKbps:  n.BandwidthKbps,
		LatencyMs:      n.LatencyMs,
		JitterMs:       n.JitterMs,
		PacketLossPct:  n.PacketLossPct,
		ConnectionType: n.ConnectionType,
	}
}

type bufferConfigDTO struct {
	MinBufferSec                 float64 `json:"minBufferSec"`
	TargetBufferSec              float64 `json:"targetBufferSec"`
	MaxBufferSec                 float64 `json:"maxBufferSec"`
	PreloadSec                   float64 `json:"preloadSec"`
	SegmentSec                   int     `json:"segmentSec"`
	RebufferThresholdSec         float64 `json:"rebufferThresholdSec"`
	AdaptiveBitrateEnabled       bool    `json:"adaptiveBitrateEnabled"`
	MinBitrate                   int     `json:"minBitrate"`
	StartBitrate                 int     `json:"startBitrate"`
	MaxBitrate                   int     `json:"maxBitrate"`
	BitrateAdaptationIntervalSec int     `json:"bitrateAdaptationIntervalSec"`
	RecommendedQuality           int     `json:"recommendedQuality"`
}

func bufferConfigFromDomain(c buffer.BufferConfiguration) bufferConfigDTO {
	return bufferConfigDTO{
		MinBufferSec:                 c.MinBufferSec,
		TargetBufferSec:              c.TargetBufferSec,
		MaxBufferSec:                 c.MaxBufferSec,
		PreloadSec:                   c.PreloadSec,
		SegmentSec:                   c.SegmentSec,
		RebufferThresholdSec:         c.RebufferThresholdSec,
		AdaptiveBitrateEnabled:       c.AdaptiveBitrateEnabled,
		MinBitrate:                   c.MinBitrate,
		StartBitrate:                 c.StartBitrate,
		MaxBitrate:                   c.MaxBitrate,
		BitrateAdaptationIntervalSec: c.BitrateAdaptationIntervalSec,
		RecommendedQuality:           c.RecommendedQuality,
	}
}

type preloadHintDTO struct {
	SongID      string  `json:"songId"`
	Probability float64 `json:"probability"`
	Reason      string  `json:"reason"`
}

func preloadHintsFromDomain(hints []buffer.PreloadHint) []preloadHintDTO {
	out := make([]preloadHintDTO, 0, len(hints))
	for _, h := range hints {
		out = append(out, preloadHintDTO{SongID: h.SongID, Probability: h.Probability, Reason: h.Reason})
	}
	return out
}

type startSessionRequestDTO struct {
	SongID         string            `json:"songId"`
	DeviceID       string            `json:"deviceId"`
	DeviceName     string            `json:"deviceName"`
	DeviceType     string            `json:"deviceType"`
	Quality        int               `json:"quality"`
	StreamType     string            `json:"streamType"`
	NetworkProfile networkProfileDTO `json:"networkProfile"`
}

type startSessionResponseDTO struct {
	SessionID    string           `json:"sessionId"`
	SignedURL    string           `json:"signedUrl"`
	ManifestURL  string           `json:"manifestUrl,omitempty"`
	BufferConfig bufferConfigDTO  `json:"bufferConfig"`
	PreloadHints []preloadHintDTO `json:"preloadHints"`
	ExpiresAt    time.Time        `json:"expiresAt"`
}

type heartbeatRequestDTO struct {
	SessionID           string            `json:"sessionId"`
	StreamedSeconds     int64             `json:"streamedSeconds"`
	StreamedBytes       int64             `json:"streamedBytes"`
	BufferingEvents     int64             `json:"bufferingEvents"`
	BufferingDurationMs int64             `json:"bufferingDurationMs"`
	CurrentBufferedSec  float64           `json:"currentBufferedSec"`
	NetworkProfile      networkProfileDTO `json:"networkProfile"`
	DeviceType          string            `json:"deviceType"`
	IsPremium           bool              `json:"isPremium"`
}

type heartbeatResponseDTO struct {
	OK            bool             `json:"ok"`
	UpdatedConfig *bufferConfigDTO `json:"updatedConfig,omitempty"`
}

type endSessionRequestDTO struct {
	SessionID string `json:"sessionId"`
}

type changeSongRequestDTO struct {
	SessionID string `json:"sessionId"`
	SongID    string `json:"songId"`
}

type okResponseDTO struct {
	OK bool `json:"ok"`
}

type sessionDTO struct {
	SessionID       string    `json:"sessionId"`
	SongID          string    `json:"songId"`
	DeviceID        string    `json:"deviceId"`
	Quality         int       `json:"quality"`
	StreamType      string    `json:"streamType"`
	Status          string    `json:"status"`
	StartedAt       time.Time `json:"startedAt"`
	LastHeartbeatAt time.Time `json:"lastHeartbeatAt"`
	StreamedSeconds int64     `json:"streamedSeconds"`
	StreamedBytes   int64     `json:"streamedBytes"`
}

func sessionFromDomain(s *model.StreamingSession) sessionDTO {
	return sessionDTO{
		SessionID:       s.SessionID,
		SongID:          s.SongID,
		DeviceID:        s.DeviceID,
		Quality:         s.Quality,
		StreamType:      string(s.StreamType),
		Status:          string(s.Status),
		StartedAt:       s.StartedAt,
		LastHeartbeatAt: s.LastHeartbeatAt,
		StreamedSeconds: s.StreamedSeconds,
		StreamedBytes:   s.StreamedBytes,
	}
}

type bufferConfigRequestDTO struct {
	NetworkProfile networkProfileDTO `json:"networkProfile"`
	DeviceType     string            `json:"deviceType"`
	IsPremium      bool              `json:"isPremium"`
}

type bufferConfigResponseDTO struct {
	Configuration bufferConfigDTO `json:"configuration"`
	ExpiresAt     time.Time       `json:"expiresAt"`
}

func deviceClassOf(deviceType string) buffer.DeviceClass {
	switch buffer.DeviceClass(deviceType) {
	case buffer.DeviceMobile, buffer.DeviceTablet, buffer.DeviceDesktop, buffer.DeviceTV, buffer.DeviceSmartSpeaker, buffer.DeviceCar:
		return buffer.DeviceClass(deviceType)
	default:
		return buffer.DeviceUnknown
	}
}

func streamTypeOf(s string) model.StreamType {
	switch model.StreamType(s) {
	case model.StreamCDN, model.StreamHLS:
		return model.StreamType(s)
	default:
		return model.StreamDirect
	}
}
