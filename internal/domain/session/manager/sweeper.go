package manager

import (
	"context"
	"time"

	"github.com/Rostanic20/Musify-Backend-sub000/internal/domain/session/model"
	"github.com/Rostanic20/Musify-Backend-sub000/internal/log"
)

// SweeperConfig controls the background janitor's cadence and the
// heartbeat timeout beyond which a session is considered abandoned.
type SweeperConfig struct {
	Interval         time.Duration
	HeartbeatTimeout time.Duration
}

// Sweeper periodically scans the store for sessions whose heartbeat has
// gone stale and expires them.
type Sweeper struct {
	Manager *Manager
	Store   interface {
		Scan(ctx context.Context, fn func(*model.StreamingSession) error) error
	}
	Conf SweeperConfig
}

// Run blocks, calling SweepOnce on a ticker until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	if s.Conf.Interval <= 0 {
		return
	}

	ticker := time.NewTicker(s.Conf.Interval)
	defer ticker.Stop()

	log.L().Info().Dur("interval", s.Conf.Interval).Msg("session sweeper started")

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.SweepOnce(ctx, time.Now())
		}
	}
}

// SweepOnce performs exactly one pass, expiring every non-terminal session
// whose lastHeartbeatAt is older than the configured timeout as of now.
// Exported and deterministic (takes "now" explicitly) so tests can drive
// it without a real ticker.
func (s *Sweeper) SweepOnce(ctx context.Context, now time.Time) {
	var stale []string

	err := s.Store.Scan(ctx, func(sess *model.StreamingSession) error {
		if sess.Status.IsTerminal() {
			return nil
		}
		if now.Sub(sess.LastHeartbeatAt) > s.Conf.HeartbeatTimeout {
			stale = append(stale, sess.SessionID)
		}
		return nil
	})
	if err != nil {
		log.L().Warn().Err(err).Msg("session sweep scan failed")
		return
	}

	for _, sessionID := range stale {
		if err := s.Manager.ExpireStale(ctx, sessionID, now, s.Conf.HeartbeatTimeout); err != nil {
			log.L().Warn().Err(err).Str("sessionId", sessionID).Msg("failed to expire stale session")
		}
	}

	if len(stale) > 0 {
		log.L().Info().Int("count", len(stale)).Msg("session sweep expired stale sessions")
	}
}
