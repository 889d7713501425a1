package config

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/Rostanic20/Musify-Backend-sub000/internal/log"
)

// Holder holds the current AppConfig with atomic hot-reload support, backed
// by an optional fsnotify watch on the source YAML file.
type Holder struct {
	reloadOpMu sync.Mutex
	epoch      atomic.Uint64
	snapshot   atomic.Pointer[AppConfig]
	loader     *Loader
	configPath string
	configDir  string
	configFile string
	watcher    *fsnotify.Watcher
	logger     zerolog.Logger

	listenersMu sync.RWMutex
	listeners   []chan<- AppConfig
}

// NewHolder constructs a Holder seeded with initial and backed by loader for
// subsequent reloads.
func NewHolder(initial AppConfig, loader *Loader) *Holder {
	h := &Holder{
		loader: loader,
		logger: log.WithComponent("config"),
	}
	h.snapshot.Store(&initial)
	if loader != nil {
		h.configPath = loader.ConfigPath
	}
	return h
}

// Get returns the current configuration.
func (h *Holder) Get() AppConfig {
	if p := h.snapshot.Load(); p != nil {
		return *p
	}
	return AppConfig{}
}

// Epoch returns the number of successful reloads applied so far.
func (h *Holder) Epoch() uint64 {
	return h.epoch.Load()
}

// Reload re-runs the Loader and, if the result validates, atomically swaps
// the held configuration. On failure the previously held configuration
// remains in effect.
func (h *Holder) Reload(_ context.Context) error {
	h.reloadOpMu.Lock()
	defer h.reloadOpMu.Unlock()

	if h.loader == nil {
		return fmt.Errorf("config: no loader configured, cannot reload")
	}

	next, err := h.loader.Load()
	if err != nil {
		h.logger.Error().Err(err).Str("event", "config.reload_failed").Msg("failed to reload configuration")
		return err
	}

	h.snapshot.Store(&next)
	h.epoch.Add(1)
	h.notify(next)

	h.logger.Info().Str("event", "config.reload_success").Uint64("epoch", h.epoch.Load()).Msg("configuration reloaded")
	return nil
}

// StartWatcher begins watching the backing YAML file for changes, debouncing
// bursts of writes into a single Reload. A no-op if no file path is set.
func (h *Holder) StartWatcher(ctx context.Context) error {
	if h.configPath == "" {
		h.logger.Info().Str("event", "config.watcher_disabled").Msg("no config file set, skipping watcher")
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	h.watcher = watcher
	h.configDir = filepath.Dir(h.configPath)
	h.configFile = filepath.Base(h.configPath)

	if err := watcher.Add(h.configDir); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("watch config dir: %w", err)
	}

	h.logger.Info().Str("event", "config.watcher_started").Str("path", h.configPath).Msg("watching config file")
	go h.watchLoop(ctx)
	return nil
}

func (h *Holder) watchLoop(ctx context.Context) {
	var debounce *time.Timer
	const debounceWindow = 300 * time.Millisecond

	for {
		select {
		case <-ctx.Done():
			if h.watcher != nil {
				_ = h.watcher.Close()
			}
			return
		case ev, ok := <-h.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(ev.Name) != h.configFile {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(debounceWindow, func() {
				if err := h.Reload(ctx); err != nil {
					h.logger.Error().Err(err).Str("event", "config.auto_reload_failed").Msg("automatic reload failed")
				}
			})
		case err, ok := <-h.watcher.Errors:
			if !ok {
				return
			}
			h.logger.Error().Err(err).Str("event", "config.watcher_error").Msg("watcher error")
		}
	}
}

// Stop closes the file watcher, if running.
func (h *Holder) Stop() {
	if h.watcher != nil {
		_ = h.watcher.Close()
	}
}

// Subscribe registers ch to receive the new AppConfig after every successful
// reload. The caller owns the channel's lifecycle.
func (h *Holder) Subscribe(ch chan<- AppConfig) {
	h.listenersMu.Lock()
	defer h.listenersMu.Unlock()
	h.listeners = append(h.listeners, ch)
}

func (h *Holder) notify(cfg AppConfig) {
	h.listenersMu.RLock()
	defer h.listenersMu.RUnlock()
	for _, ch := range h.listeners {
		select {
		case ch <- cfg:
		default:
			h.logger.Warn().Str("event", "config.listener_full").Msg("dropping reload notification, listener channel full")
		}
	}
}
