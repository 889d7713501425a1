package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/Rostanic20/Musify-Backend-sub000/internal/domain/buffer"
	"github.com/Rostanic20/Musify-Backend-sub000/internal/domain/session/manager"
	"github.com/Rostanic20/Musify-Backend-sub000/internal/domain/session/model"
	"github.com/Rostanic20/Musify-Backend-sub000/internal/errs"
)

// handleStreamStart implements POST /stream/start. It resolves the
// backing object's storage URL through the resilience layer, computes the
// buffer configuration and preload hints, and opens a session carrying the
// Session Controller's own app-level signature layered on top of the
// storage URL.
func (s *Server) handleStreamStart(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r.Context())
	if !ok {
		writeError(w, r, errs.New(errs.Unauthenticated, "missing caller identity"))
		return
	}

	var req startSessionRequestDTO
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.SongID == "" {
		writeError(w, r, errs.Invalid("songId", "songId is required"))
		return
	}

	now := time.Now()
	ctx := r.Context()

	tier, err := s.Subscriptions.Tier(ctx, userID)
	if err != nil {
		writeError(w, r, errs.Wrap(errs.Internal, err, "resolve subscription tier"))
		return
	}
	premium := tier == model.TierPremium || tier == model.TierFamily

	net := req.NetworkProfile.toDomain()
	device := deviceClassOf(req.DeviceType)
	cfg, err := buffer.ComputeBufferConfig(net, device, premium)
	if err != nil {
		writeError(w, r, err)
		return
	}

	hints, err := buffer.PredictPreloadHints(ctx, s.History, userID, req.SongID, now, s.MaxHints)
	if err != nil {
		writeError(w, r, errs.Wrap(errs.Internal, err, "predict preload hints"))
		return
	}

	streamType := streamTypeOf(req.StreamType)

	var storageURL string
	if streamType == model.StreamCDN && s.CDN != nil {
		storageURL, err = s.CDN.SignedURL(ctx, objectKeyForSong(req.SongID, req.Quality), s.StreamURLTTL)
	} else {
		storageURL, err = s.Storage.SignedURL(ctx, objectKeyForSong(req.SongID, req.Quality), s.StreamURLTTL)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}

	result, err := s.Sessions.StartSession(ctx, manager.StartSessionRequest{
		UserID:        userID,
		Tier:          tier,
		SongID:        req.SongID,
		DeviceID:      req.DeviceID,
		DeviceName:    req.DeviceName,
		IPAddress:     r.RemoteAddr,
		UserAgent:     r.UserAgent(),
		Quality:       req.Quality,
		StreamType:    streamType,
		StreamBaseURL: storageURL,
	}, now)
	if err != nil {
		writeError(w, r, mapManagerError(err))
		return
	}

	resp := startSessionResponseDTO{
		SessionID:    result.Session.SessionID,
		SignedURL:    result.SignedURL,
		BufferConfig: bufferConfigFromDomain(cfg),
		PreloadHints: preloadHintsFromDomain(hints),
		ExpiresAt:    result.ExpiresAt,
	}
	if streamType == model.StreamHLS {
		resp.ManifestURL = fmt.Sprintf("/stream/%s/master.m3u8", req.SongID)
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleHeartbeat implements POST /stream/heartbeat.
func (s *Server) handleHeartbeat(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r.Context())
	if !ok {
		writeError(w, r, errs.New(errs.Unauthenticated, "missing caller identity"))
		return
	}

	var req heartbeatRequestDTO
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.SessionID == "" {
		writeError(w, r, errs.Invalid("sessionId", "sessionId is required"))
		return
	}

	hb, err := s.Sessions.Heartbeat(r.Context(), req.SessionID, userID, model.HeartbeatMetrics{
		StreamedSeconds:     req.StreamedSeconds,
		StreamedBytes:       req.StreamedBytes,
		BufferingEvents:     req.BufferingEvents,
		BufferingDurationMs: req.BufferingDurationMs,
		CurrentBufferedSec:  req.CurrentBufferedSec,
	}, time.Now())
	if err != nil {
		writeError(w, r, mapManagerError(err))
		return
	}

	resp := heartbeatResponseDTO{OK: true}
	if req.NetworkProfile.BandwidthKbps > 0 {
		target, err := buffer.ComputeBufferConfig(req.NetworkProfile.toDomain(), deviceClassOf(req.DeviceType), req.IsPremium)
		if err == nil {
			score := buffer.ComputeHealthScore(buffer.BufferMetrics{
				CurrentBufferedSec:         req.CurrentBufferedSec,
				TargetBufferSec:            target.TargetBufferSec,
				StarvationEventsLastMinute: int(hb.BufferingEventsSinceLast),
				RebufferDurationLastMinute: float64(hb.BufferingDurationMsSinceLast) / 1000,
				JitterMs:                   req.NetworkProfile.JitterMs,
			})
			if score.Status != buffer.HealthHealthy {
				cfg := bufferConfigFromDomain(target)
				resp.UpdatedConfig = &cfg
			}
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// handleChangeSong implements POST /stream/change-song.
func (s *Server) handleChangeSong(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r.Context())
	if !ok {
		writeError(w, r, errs.New(errs.Unauthenticated, "missing caller identity"))
		return
	}

	var req changeSongRequestDTO
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.SessionID == "" {
		writeError(w, r, errs.Invalid("sessionId", "sessionId is required"))
		return
	}
	if req.SongID == "" {
		writeError(w, r, errs.Invalid("songId", "songId is required"))
		return
	}

	sess, err := s.Sessions.ChangeSong(r.Context(), req.SessionID, userID, req.SongID, time.Now())
	if err != nil {
		writeError(w, r, mapManagerError(err))
		return
	}
	writeJSON(w, http.StatusOK, sessionFromDomain(sess))
}

// handleStreamEnd implements POST /stream/end.
func (s *Server) handleStreamEnd(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r.Context())
	if !ok {
		writeError(w, r, errs.New(errs.Unauthenticated, "missing caller identity"))
		return
	}

	var req endSessionRequestDTO
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.SessionID == "" {
		writeError(w, r, errs.Invalid("sessionId", "sessionId is required"))
		return
	}

	if _, err := s.Sessions.EndSession(r.Context(), req.SessionID, userID, time.Now()); err != nil {
		writeError(w, r, mapManagerError(err))
		return
	}
	writeJSON(w, http.StatusOK, okResponseDTO{OK: true})
}

// handleListSessions implements GET /stream/sessions.
func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r.Context())
	if !ok {
		writeError(w, r, errs.New(errs.Unauthenticated, "missing caller identity"))
		return
	}

	sessions, err := s.Sessions.ListActive(r.Context(), userID)
	if err != nil {
		writeError(w, r, errs.Wrap(errs.Internal, err, "list active sessions"))
		return
	}

	out := make([]sessionDTO, 0, len(sessions))
	for _, sess := range sessions {
		out = append(out, sessionFromDomain(sess))
	}
	writeJSON(w, http.StatusOK, out)
}

func objectKeyForSong(songID string, kbps int) string {
	if kbps <= 0 {
		return fmt.Sprintf("songs/%s/original", songID)
	}
	return fmt.Sprintf("songs/%s/audio_%dkbps", songID, kbps)
}

func mapManagerError(err error) error {
	switch err {
	case manager.ErrConcurrencyLimitExceeded:
		return errs.New(errs.ConcurrentLimit, "concurrent stream limit exceeded for this subscription tier")
	case manager.ErrSessionNotFound:
		return errs.New(errs.NotFound, "session not found")
	case manager.ErrSessionExpired:
		return errs.New(errs.Expired, "session has already expired")
	case manager.ErrNotOwner:
		return errs.New(errs.PermissionDenied, "session does not belong to caller")
	case manager.ErrInvalidTransition:
		return errs.New(errs.InvalidArgument, "invalid session state transition")
	default:
		if e, ok := errs.As(err); ok {
			return e
		}
		return errs.Wrap(errs.Internal, err, "session operation failed")
	}
}
