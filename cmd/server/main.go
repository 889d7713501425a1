package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Rostanic20/Musify-Backend-sub000/internal/api"
	"github.com/Rostanic20/Musify-Backend-sub000/internal/auth"
	"github.com/Rostanic20/Musify-Backend-sub000/internal/cache"
	"github.com/Rostanic20/Musify-Backend-sub000/internal/cdn"
	"github.com/Rostanic20/Musify-Backend-sub000/internal/config"
	"github.com/Rostanic20/Musify-Backend-sub000/internal/domain/session/manager"
	"github.com/Rostanic20/Musify-Backend-sub000/internal/domain/session/model"
	"github.com/Rostanic20/Musify-Backend-sub000/internal/domain/session/store"
	"github.com/Rostanic20/Musify-Backend-sub000/internal/health"
	xglog "github.com/Rostanic20/Musify-Backend-sub000/internal/log"
	"github.com/Rostanic20/Musify-Backend-sub000/internal/metrics"
	"github.com/Rostanic20/Musify-Backend-sub000/internal/objectstore"
	"github.com/Rostanic20/Musify-Backend-sub000/internal/persistence/sqlite"
	"github.com/Rostanic20/Musify-Backend-sub000/internal/repository"
	"github.com/Rostanic20/Musify-Backend-sub000/internal/resilience"
)

var (
	version = "v0.1.0"
	commit  = "none"
)

// scanner matches manager.Sweeper's storage dependency; Scan is part of
// store.Store, so every backend (memory, sqlite, badger) implements it.
type scanner interface {
	Scan(ctx context.Context, fn func(*model.StreamingSession) error) error
}

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	configPath := flag.String("config", "", "path to config file (YAML)")
	flag.Parse()

	if *showVersion {
		fmt.Printf("musify-streamcore %s (commit: %s)\n", version, commit)
		os.Exit(0)
	}

	xglog.Configure(xglog.Config{Level: "info", Service: "musify-streamcore", Version: version})
	logger := xglog.WithComponent("main")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.NewLoader(*configPath).Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load configuration")
	}

	xglog.Configure(xglog.Config{Level: cfg.LogLevel, Service: "musify-streamcore", Version: version})
	logger = xglog.WithComponent("main")
	logger.Info().
		Str("httpAddr", cfg.HTTPAddr).
		Str("sessionStoreBackend", cfg.SessionStoreBackend).
		Bool("rateLimitEnabled", cfg.RateLimitEnabled).
		Msg("configuration loaded")

	healthMgr := health.NewManager(2 * time.Second)

	sessionStorePath := cfg.SQLitePath
	if cfg.SessionStoreBackend == string(store.BackendBadger) {
		sessionStorePath = cfg.BadgerPath
	}
	sessionStore, err := store.Open(store.Backend(cfg.SessionStoreBackend), sessionStorePath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open session store")
	}

	signer := auth.NewSigner(cfg.SigningKey)
	sessionManager := manager.NewManager(sessionStore, signer, manager.ConcurrencyLimits{
		Free:    cfg.ConcurrentFree,
		Premium: cfg.ConcurrentPremium,
		Family:  cfg.ConcurrentFamily,
	}, cfg.StreamURLTTL)

	breakers := resilience.NewRegistry()
	retryCfg := resilience.DefaultRetryConfig("storage")
	retryCfg.MaxAttempts = cfg.RetryMaxAttempts
	retryCfg.InitialDelay = cfg.RetryInitialDelay
	retryCfg.MaxDelay = cfg.RetryMaxDelay
	retryCfg.BackoffMultiplier = cfg.RetryBackoffMultiplier

	breakerCfg := resilience.DefaultBreakerConfig("storage")
	breakerCfg.FailureThreshold = cfg.CircuitFailureThreshold
	breakerCfg.SuccessThreshold = cfg.CircuitSuccessThreshold
	breakerCfg.ResetTimeout = cfg.CircuitResetTimeout
	breakerCfg.HalfOpenProbeCount = cfg.CircuitHalfOpenProbes

	primaryStore := objectstore.NewHTTPStore(cfg.StoragePrimaryName, cfg.StoragePrimaryURL, cfg.StorageTimeout)
	var fallbackStore objectstore.Store
	if cfg.StorageFallbackURL != "" {
		fallbackStore = objectstore.NewHTTPStore(cfg.StorageFallbackName, cfg.StorageFallbackURL, cfg.StorageTimeout)
	}
	storageTransport := resilience.NewStorageTransport(primaryStore, fallbackStore, breakers, retryCfg, breakerCfg)

	var cdnEdges []cdn.Edge
	for _, domain := range cfg.CDNDomains {
		cdnEdges = append(cdnEdges, cdn.NewHTTPEdge(domain, cfg.CDNTimeout))
	}
	var cdnTransport *resilience.CDNTransport
	if len(cdnEdges) > 0 {
		cdnRetry := retryCfg
		cdnRetry.Name = "cdn"
		cdnBreaker := breakerCfg
		cdnBreaker.Name = "cdn"
		cdnTransport = resilience.NewCDNTransport(cdnEdges, primaryStore, breakers, cdnRetry, cdnBreaker)
	}

	db, err := sqlite.Open(cfg.CatalogDBPath, sqlite.DefaultConfig())
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open catalog/history database")
	}
	if err := repository.Migrate(ctx, db); err != nil {
		logger.Fatal().Err(err).Msg("failed to migrate catalog/history database")
	}
	historyRepo := repository.NewHistoryRepository(db)
	catalogRepo := repository.NewCatalogRepository(db)
	subscriptionRepo := repository.NewSubscriptionRepository(db)

	var configCache cache.Cache
	if cfg.RedisAddr != "" {
		redisCache, err := cache.NewRedisCache("buffer-config", cache.RedisConfig{Addr: cfg.RedisAddr}, xglog.Base())
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to redis")
		}
		configCache = redisCache
		healthMgr.Register(health.NewPingerChecker("redis", redisCache))
	} else {
		configCache = cache.NewMemoryCache("buffer-config", time.Minute)
	}

	healthMgr.Register(health.NewDBChecker("database", db))
	healthMgr.Register(health.NewBreakerRegistryChecker("storage-breakers", breakers, true))
	if cdnTransport != nil {
		metrics.SetActiveCDNDomains(cdnTransport.ActiveDomainCount())
	}

	server := api.NewServer(cfg)
	server.Sessions = sessionManager
	server.Health = healthMgr
	server.Signer = signer
	server.Storage = storageTransport
	server.CDN = cdnTransport
	server.History = historyRepo
	server.Catalog = catalogRepo
	server.Subscriptions = subscriptionRepo
	server.ConfigCache = configCache
	server.MaxHints = 5

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/", server.Router())

	httpServer := &http.Server{
		Addr:           cfg.HTTPAddr,
		Handler:        mux,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   30 * time.Second,
		IdleTimeout:    120 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	if scannable, ok := sessionStore.(scanner); ok {
		sweeper := &manager.Sweeper{
			Manager: sessionManager,
			Store:   scannable,
			Conf: manager.SweeperConfig{
				Interval:         cfg.JanitorInterval,
				HeartbeatTimeout: cfg.HeartbeatTimeout,
			},
		}
		go sweeper.Run(ctx)
	} else {
		logger.Warn().Msg("session store does not support scanning; stale-session sweeper disabled")
	}

	errChan := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", cfg.HTTPAddr).Msg("starting HTTP server")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		logger.Fatal().Err(err).Msg("HTTP server failed")
	case <-ctx.Done():
		logger.Info().Msg("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
	_ = db.Close()
	logger.Info().Msg("server stopped")
}
