// Package api assembles the streaming core's HTTP surface: stream
// lifecycle, HLS manifests, buffer configuration, and health endpoints,
// grounded on the teacher's v3 API server shape but carrying this core's
// own dependencies.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/Rostanic20/Musify-Backend-sub000/internal/auth"
	"github.com/Rostanic20/Musify-Backend-sub000/internal/cache"
	"github.com/Rostanic20/Musify-Backend-sub000/internal/config"
	"github.com/Rostanic20/Musify-Backend-sub000/internal/domain/session/manager"
	"github.com/Rostanic20/Musify-Backend-sub000/internal/health"
	"github.com/Rostanic20/Musify-Backend-sub000/internal/log"
	apimw "github.com/Rostanic20/Musify-Backend-sub000/internal/middleware"
	"github.com/Rostanic20/Musify-Backend-sub000/internal/repository"
	"github.com/Rostanic20/Musify-Backend-sub000/internal/resilience"
)

// Server bundles every collaborator the HTTP handlers need. Construct one
// with NewServer and mount its Router() under an http.Server.
type Server struct {
	Sessions      *manager.Manager
	Health        *health.Manager
	Signer        *auth.Signer
	Storage       *resilience.StorageTransport
	CDN           *resilience.CDNTransport
	History       *repository.HistoryRepository
	Catalog       *repository.CatalogRepository
	Subscriptions *repository.SubscriptionRepository
	ConfigCache   cache.Cache

	StreamURLTTL time.Duration
	MaxHints     int

	cfg config.AppConfig
}

// NewServer constructs a Server. cfg governs rate limiting and tracing
// service name for the router built by Router().
func NewServer(cfg config.AppConfig) *Server {
	return &Server{cfg: cfg, StreamURLTTL: cfg.StreamURLTTL}
}

// Router builds the chi router for this Server, with the canonical
// middleware stack applied in the teacher's ordering: recover, request
// logging, tracing, rate limiting, then routing.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.Recoverer)
	r.Use(log.Middleware())
	r.Use(apimw.Tracing(s.cfg.TracingServiceName))
	r.Use(apimw.APIRateLimit(s.cfg.RateLimitEnabled, s.cfg.RateLimitRPS, s.cfg.RateLimitWhitelist))

	r.Get("/health", s.Health.ServeHealth)
	r.Get("/health/live", s.Health.ServeLive)
	r.Get("/health/ready", s.Health.ServeReady)

	r.Group(func(r chi.Router) {
		r.Use(s.optionalAuthenticate)
		r.Get("/stream/{songId}/master.m3u8", s.handleHLSMaster)
		r.Get("/stream/{songId}/audio_{kbps}kbps/playlist.m3u8", s.handleHLSMedia)
	})

	r.Post("/buffer/config", s.handleBufferConfig)

	r.Group(func(r chi.Router) {
		r.Use(s.authenticate)
		r.Post("/stream/start", s.handleStreamStart)
		r.Post("/stream/heartbeat", s.handleHeartbeat)
		r.Post("/stream/change-song", s.handleChangeSong)
		r.Post("/stream/end", s.handleStreamEnd)
		r.Get("/stream/sessions", s.handleListSessions)
	})

	return r
}
