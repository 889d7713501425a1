// Package manager implements the Streaming Session & Concurrency
// Controller: starting, heartbeating, and ending playback sessions while
// enforcing per-tier concurrency caps and issuing signed stream URLs.
package manager

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Rostanic20/Musify-Backend-sub000/internal/auth"
	"github.com/Rostanic20/Musify-Backend-sub000/internal/domain/session/model"
	"github.com/Rostanic20/Musify-Backend-sub000/internal/domain/session/store"
	"github.com/Rostanic20/Musify-Backend-sub000/internal/errs"
	"github.com/Rostanic20/Musify-Backend-sub000/internal/log"
	"github.com/Rostanic20/Musify-Backend-sub000/internal/metrics"
)

// ConcurrencyLimits maps each subscription tier to its maximum number of
// simultaneous ACTIVE/PAUSED sessions, per spec.md §4.B.
type ConcurrencyLimits struct {
	Free    int
	Premium int
	Family  int
}

func (c ConcurrencyLimits) limitFor(tier model.Tier) int {
	switch tier {
	case model.TierPremium:
		if c.Premium > 0 {
			return c.Premium
		}
	case model.TierFamily:
		if c.Family > 0 {
			return c.Family
		}
	}
	if c.Free > 0 {
		return c.Free
	}
	return 1
}

// Manager orchestrates the streaming session lifecycle.
type Manager struct {
	store       store.Store
	signer      *auth.Signer
	limits      ConcurrencyLimits
	urlTTL      time.Duration
	userLock    *keyedMutex
	sessionLock *keyedMutex
}

// NewManager constructs a Manager over store, using signer to issue signed
// stream URLs valid for urlTTL.
func NewManager(st store.Store, signer *auth.Signer, limits ConcurrencyLimits, urlTTL time.Duration) *Manager {
	return &Manager{
		store:       st,
		signer:      signer,
		limits:      limits,
		urlTTL:      urlTTL,
		userLock:    newKeyedMutex(),
		sessionLock: newKeyedMutex(),
	}
}

// StartSessionRequest carries everything needed to open a new streaming
// session.
type StartSessionRequest struct {
	UserID     string
	Tier       model.Tier
	SongID     string
	DeviceID   string
	DeviceName string
	IPAddress  string
	UserAgent  string
	Quality    int
	StreamType model.StreamType

	// StreamBaseURL is the unsigned URL of the resource being streamed;
	// the manager appends a signed, time-limited token to it.
	StreamBaseURL string
}

// StartResult is returned by StartSession: the persisted session plus the
// signed URL the client should use to fetch audio.
type StartResult struct {
	Session   *model.StreamingSession
	SignedURL string
	ExpiresAt time.Time
}

// StartSession opens a new session for req.UserID, rejecting the request
// with ErrConcurrencyLimitExceeded if the user is already at their tier's
// concurrent-stream cap. The concurrency check and the session insert are
// serialized per user so two concurrent starts can't both observe room
// under the cap and both proceed.
func (m *Manager) StartSession(ctx context.Context, req StartSessionRequest, now time.Time) (*StartResult, error) {
	if req.UserID == "" {
		return nil, errs.Invalid("userId", "userId is required")
	}
	if req.SongID == "" {
		return nil, errs.Invalid("songId", "songId is required")
	}

	unlock := m.userLock.Lock(req.UserID)
	defer unlock()

	count, err := m.store.CountActiveByUser(ctx, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("manager: count active sessions: %w", err)
	}
	if count >= m.limits.limitFor(req.Tier) {
		metrics.RecordSessionStart("concurrency_limit")
		return nil, ErrConcurrencyLimitExceeded
	}

	sess := &model.StreamingSession{
		SessionID:       uuid.NewString(),
		UserID:          req.UserID,
		SongID:          req.SongID,
		DeviceID:        req.DeviceID,
		DeviceName:      req.DeviceName,
		IPAddress:       req.IPAddress,
		UserAgent:       req.UserAgent,
		Quality:         req.Quality,
		StreamType:      req.StreamType,
		Status:          model.StatusActive,
		StartedAt:       now,
		LastHeartbeatAt: now,
	}

	if err := m.store.Put(ctx, sess); err != nil {
		return nil, fmt.Errorf("manager: persist session: %w", err)
	}

	metrics.RecordSessionStart("started")
	metrics.SetActiveSessions(string(req.Tier), count+1)
	log.L().Info().Str("sessionId", sess.SessionID).Str("userId", req.UserID).Msg("session started")

	result := &StartResult{Session: sess}
	if req.StreamBaseURL != "" && m.signer != nil {
		signedURL, expiresAt, err := m.signer.SignStreamURL(req.StreamBaseURL, req.UserID, req.SongID, m.urlTTL, now)
		if err != nil {
			return nil, fmt.Errorf("manager: sign stream url: %w", err)
		}
		result.SignedURL = signedURL
		result.ExpiresAt = expiresAt
	}

	return result, nil
}

// HeartbeatResult is returned by Heartbeat: the updated session plus how
// much the buffering counters moved since the previous heartbeat, which
// callers use to score buffer health over the just-elapsed interval rather
// than since session start.
type HeartbeatResult struct {
	Session                      *model.StreamingSession
	BufferingEventsSinceLast     int64
	BufferingDurationMsSinceLast int64
}

// Heartbeat applies an at-least-once heartbeat to sessionId, merging
// cumulative counters by max and bumping lastHeartbeatAt. Heartbeats on a
// terminal session are rejected; heartbeats on a PAUSED session keep it
// paused (a heartbeat alone never resumes playback).
func (m *Manager) Heartbeat(ctx context.Context, sessionID, userID string, mtr model.HeartbeatMetrics, now time.Time) (*HeartbeatResult, error) {
	unlock := m.sessionLock.Lock(sessionID)
	defer unlock()

	sess, err := m.store.Get(ctx, sessionID)
	if err != nil {
		if err == store.ErrNotFound {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	if sess.UserID != userID {
		return nil, ErrNotOwner
	}
	if sess.Status == model.StatusExpired {
		return nil, ErrSessionExpired
	}
	if sess.Status.IsTerminal() {
		return nil, ErrInvalidTransition
	}

	prevEvents, prevDurationMs := sess.BufferingEvents, sess.BufferingDurationMs
	sess.ApplyHeartbeat(mtr, now)
	if err := m.store.Put(ctx, sess); err != nil {
		return nil, fmt.Errorf("manager: persist heartbeat: %w", err)
	}
	return &HeartbeatResult{
		Session:                      sess,
		BufferingEventsSinceLast:     sess.BufferingEvents - prevEvents,
		BufferingDurationMsSinceLast: sess.BufferingDurationMs - prevDurationMs,
	}, nil
}

// ChangeSong switches an ACTIVE session to a new song without ending it,
// preserving the session's cumulative counters.
func (m *Manager) ChangeSong(ctx context.Context, sessionID, userID, newSongID string, now time.Time) (*model.StreamingSession, error) {
	unlock := m.sessionLock.Lock(sessionID)
	defer unlock()

	sess, err := m.store.Get(ctx, sessionID)
	if err != nil {
		if err == store.ErrNotFound {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	if sess.UserID != userID {
		return nil, ErrNotOwner
	}
	if sess.Status.IsTerminal() {
		return nil, ErrInvalidTransition
	}

	sess.SongID = newSongID
	sess.LastHeartbeatAt = now
	if err := m.store.Put(ctx, sess); err != nil {
		return nil, fmt.Errorf("manager: persist song change: %w", err)
	}
	return sess, nil
}

// Pause transitions an ACTIVE session to PAUSED.
func (m *Manager) Pause(ctx context.Context, sessionID, userID string, now time.Time) (*model.StreamingSession, error) {
	return m.transition(ctx, sessionID, userID, model.StatusPaused, now)
}

// Resume transitions a PAUSED session back to ACTIVE.
func (m *Manager) Resume(ctx context.Context, sessionID, userID string, now time.Time) (*model.StreamingSession, error) {
	return m.transition(ctx, sessionID, userID, model.StatusActive, now)
}

// EndSession transitions a session to ENDED. Ending is idempotent: ending
// an already-ended session is a no-op, not an error.
func (m *Manager) EndSession(ctx context.Context, sessionID, userID string, now time.Time) (*model.StreamingSession, error) {
	unlock := m.sessionLock.Lock(sessionID)
	defer unlock()

	sess, err := m.store.Get(ctx, sessionID)
	if err != nil {
		if err == store.ErrNotFound {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	if sess.UserID != userID {
		return nil, ErrNotOwner
	}
	if sess.Status.IsTerminal() {
		return sess, nil
	}

	sess.Status = model.StatusEnded
	ended := now
	sess.EndedAt = &ended
	if err := m.store.Put(ctx, sess); err != nil {
		return nil, fmt.Errorf("manager: persist session end: %w", err)
	}
	log.L().Info().Str("sessionId", sess.SessionID).Msg("session ended")
	return sess, nil
}

func (m *Manager) transition(ctx context.Context, sessionID, userID string, next model.Status, now time.Time) (*model.StreamingSession, error) {
	unlock := m.sessionLock.Lock(sessionID)
	defer unlock()

	sess, err := m.store.Get(ctx, sessionID)
	if err != nil {
		if err == store.ErrNotFound {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	if sess.UserID != userID {
		return nil, ErrNotOwner
	}
	if !sess.Status.CanTransitionTo(next) {
		return nil, ErrInvalidTransition
	}

	sess.Status = next
	sess.LastHeartbeatAt = now
	if err := m.store.Put(ctx, sess); err != nil {
		return nil, fmt.Errorf("manager: persist transition: %w", err)
	}
	return sess, nil
}

// ListActive returns every non-terminal session owned by userID.
func (m *Manager) ListActive(ctx context.Context, userID string) ([]*model.StreamingSession, error) {
	return m.store.ListActiveByUser(ctx, userID)
}

// ExpireStale transitions sessionID to EXPIRED, but only if its
// lastHeartbeatAt is still older than timeout as of now. Re-checking
// against a freshly fetched record (rather than the Sweeper's scan
// snapshot) closes the race where a heartbeat lands between the scan and
// this call: the fresher heartbeat wins and the session survives.
func (m *Manager) ExpireStale(ctx context.Context, sessionID string, now time.Time, timeout time.Duration) error {
	unlock := m.sessionLock.Lock(sessionID)
	defer unlock()

	sess, err := m.store.Get(ctx, sessionID)
	if err != nil {
		if err == store.ErrNotFound {
			return nil
		}
		return err
	}
	if sess.Status.IsTerminal() {
		return nil
	}
	if now.Sub(sess.LastHeartbeatAt) <= timeout {
		return nil
	}
	sess.Status = model.StatusExpired
	expired := now
	sess.EndedAt = &expired
	if err := m.store.Put(ctx, sess); err != nil {
		return fmt.Errorf("manager: persist expiration: %w", err)
	}
	metrics.RecordSessionExpiration()
	log.L().Info().Str("sessionId", sessionID).Msg("session expired by sweeper")
	return nil
}
