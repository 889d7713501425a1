package manager

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rostanic20/Musify-Backend-sub000/internal/auth"
	"github.com/Rostanic20/Musify-Backend-sub000/internal/domain/session/model"
	"github.com/Rostanic20/Musify-Backend-sub000/internal/domain/session/store"
)

func TestSweeper_ExpiresSessionsPastHeartbeatTimeout(t *testing.T) {
	st := store.NewMemoryStore()
	m := NewManager(st, auth.NewSigner("secret"), ConcurrencyLimits{Free: 10}, time.Hour)
	ctx := context.Background()
	now := time.Now()

	fresh, err := m.StartSession(ctx, StartSessionRequest{UserID: "u1", Tier: model.TierFree, SongID: "s1"}, now)
	require.NoError(t, err)
	stale, err := m.StartSession(ctx, StartSessionRequest{UserID: "u2", Tier: model.TierFree, SongID: "s2"}, now)
	require.NoError(t, err)

	sweeper := &Sweeper{Manager: m, Store: st, Conf: SweeperConfig{Interval: time.Second, HeartbeatTimeout: 30 * time.Second}}
	sweeper.SweepOnce(ctx, now.Add(10*time.Second))

	got, err := st.Get(ctx, fresh.Session.SessionID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusActive, got.Status, "within the timeout window, sweep must not touch the session")

	sweeper.SweepOnce(ctx, now.Add(40*time.Second))

	got, err = st.Get(ctx, stale.Session.SessionID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusExpired, got.Status)
}

func TestSweeper_IgnoresAlreadyTerminalSessions(t *testing.T) {
	st := store.NewMemoryStore()
	m := NewManager(st, auth.NewSigner("secret"), ConcurrencyLimits{Free: 10}, time.Hour)
	ctx := context.Background()
	now := time.Now()

	result, err := m.StartSession(ctx, StartSessionRequest{UserID: "u1", Tier: model.TierFree, SongID: "s1"}, now)
	require.NoError(t, err)
	_, err = m.EndSession(ctx, result.Session.SessionID, "u1", now)
	require.NoError(t, err)

	sweeper := &Sweeper{Manager: m, Store: st, Conf: SweeperConfig{Interval: time.Second, HeartbeatTimeout: time.Second}}
	sweeper.SweepOnce(ctx, now.Add(time.Hour))

	got, err := st.Get(ctx, result.Session.SessionID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusEnded, got.Status)
}
