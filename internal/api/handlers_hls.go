package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/Rostanic20/Musify-Backend-sub000/internal/errs"
	"github.com/Rostanic20/Musify-Backend-sub000/internal/hls"
)

// handleHLSMaster implements GET /stream/{songId}/master.m3u8. Free-tier
// filtering happens inside hls.GenerateMaster; this handler only resolves
// whether the caller is premium when a bearer token is present, defaulting
// to free-tier filtering for anonymous requests.
func (s *Server) handleHLSMaster(w http.ResponseWriter, r *http.Request) {
	songID := chi.URLParam(r, "songId")

	qualities, err := s.Catalog.AvailableQualities(r.Context(), songID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	premium := s.isPremiumCaller(r)
	body := hls.GenerateMaster(songID, qualities, premium)

	w.Header().Set("Content-Type", "application/vnd.apple.mpegurl")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// handleHLSMedia implements GET /stream/{songId}/audio_{kbps}kbps/playlist.m3u8.
func (s *Server) handleHLSMedia(w http.ResponseWriter, r *http.Request) {
	songID := chi.URLParam(r, "songId")
	kbps, err := strconv.Atoi(chi.URLParam(r, "kbps"))
	if err != nil {
		writeError(w, r, errs.Invalid("kbps", "kbps must be an integer"))
		return
	}

	qualities, err := s.Catalog.AvailableQualities(r.Context(), songID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	body, err := hls.GenerateMedia(songID, kbps, qualities, defaultSegmentCount, hls.DefaultSegmentSeconds)
	if err != nil {
		writeError(w, r, errs.New(errs.NotFound, err.Error()))
		return
	}

	w.Header().Set("Content-Type", "application/vnd.apple.mpegurl")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// defaultSegmentCount is a placeholder segment count for a fixed-length
// media playlist; real segment counts come from the originating transcode
// job, which is out of this core's scope per spec.md §1.
const defaultSegmentCount = 10

func (s *Server) isPremiumCaller(r *http.Request) bool {
	userID, ok := userIDFromContext(r.Context())
	if !ok {
		return false
	}
	premium, err := s.Subscriptions.IsPremium(r.Context(), userID)
	if err != nil {
		return false
	}
	return premium
}
