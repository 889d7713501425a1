package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/Rostanic20/Musify-Backend-sub000/internal/domain/buffer"
)

// handleBufferConfig implements POST /buffer/config, the standalone
// buffer-sizing endpoint clients call to re-evaluate their configuration
// mid-stream without opening a new session. Results are cached by
// (networkProfile, deviceType, isPremium) since the computation is pure.
func (s *Server) handleBufferConfig(w http.ResponseWriter, r *http.Request) {
	var req bufferConfigRequestDTO
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	cacheKey := bufferConfigCacheKey(req)
	if s.ConfigCache != nil {
		if cached, ok := s.ConfigCache.Get(cacheKey); ok {
			if cfg, ok := cached.(buffer.BufferConfiguration); ok {
				writeJSON(w, http.StatusOK, bufferConfigResponseDTO{
					Configuration: bufferConfigFromDomain(cfg),
					ExpiresAt:     time.Now().Add(s.StreamURLTTL),
				})
				return
			}
		}
	}

	net := req.NetworkProfile.toDomain()
	device := deviceClassOf(req.DeviceType)
	cfg, err := buffer.ComputeBufferConfig(net, device, req.IsPremium)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if s.ConfigCache != nil {
		s.ConfigCache.Set(cacheKey, cfg, 5*time.Minute)
	}

	writeJSON(w, http.StatusOK, bufferConfigResponseDTO{
		Configuration: bufferConfigFromDomain(cfg),
		ExpiresAt:     time.Now().Add(s.StreamURLTTL),
	})
}

func bufferConfigCacheKey(req bufferConfigRequestDTO) string {
	n := req.NetworkProfile
	return fmt.Sprintf("bufcfg:%d:%d:%d:%.2f:%s:%t", n.BandwidthKbps, n.LatencyMs, n.JitterMs, n.PacketLossPct, req.DeviceType, req.IsPremium)
}
