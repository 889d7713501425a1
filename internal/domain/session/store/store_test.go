package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rostanic20/Musify-Backend-sub000/internal/domain/session/model"
)

// backends exercises every Store implementation against the same
// behavioral contract.
func backends(t *testing.T) map[string]Store {
	t.Helper()
	dir := t.TempDir()

	sqliteStore, err := NewSQLiteStore(filepath.Join(dir, "sessions.db"))
	require.NoError(t, err)
	t.Cleanup(func() { sqliteStore.Close() })

	badgerStore, err := NewBadgerStore(filepath.Join(dir, "badger"))
	require.NoError(t, err)
	t.Cleanup(func() { badgerStore.Close() })

	return map[string]Store{
		"memory": NewMemoryStore(),
		"sqlite": sqliteStore,
		"badger": badgerStore,
	}
}

func TestStore_PutGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	now := time.Now().Truncate(time.Second).UTC()

	for name, st := range backends(t) {
		t.Run(name, func(t *testing.T) {
			sess := &model.StreamingSession{
				SessionID: "sess-1", UserID: "u1", SongID: "song-1",
				Status: model.StatusActive, StreamType: model.StreamHLS,
				StartedAt: now, LastHeartbeatAt: now, Quality: 192,
			}
			require.NoError(t, st.Put(ctx, sess))

			got, err := st.Get(ctx, "sess-1")
			require.NoError(t, err)
			assert.Equal(t, sess.UserID, got.UserID)
			assert.Equal(t, sess.SongID, got.SongID)
			assert.Equal(t, sess.Status, got.Status)
			assert.Equal(t, sess.Quality, got.Quality)
		})
	}
}

func TestStore_GetMissingReturnsErrNotFound(t *testing.T) {
	ctx := context.Background()
	for name, st := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, err := st.Get(ctx, "does-not-exist")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestStore_ListActiveByUserExcludesTerminal(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC()

	for name, st := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, st.Put(ctx, &model.StreamingSession{
				SessionID: "active-1", UserID: "u1", SongID: "s1",
				Status: model.StatusActive, StartedAt: now, LastHeartbeatAt: now,
			}))
			require.NoError(t, st.Put(ctx, &model.StreamingSession{
				SessionID: "ended-1", UserID: "u1", SongID: "s2",
				Status: model.StatusEnded, StartedAt: now, LastHeartbeatAt: now,
			}))

			active, err := st.ListActiveByUser(ctx, "u1")
			require.NoError(t, err)
			require.Len(t, active, 1)
			assert.Equal(t, "active-1", active[0].SessionID)

			count, err := st.CountActiveByUser(ctx, "u1")
			require.NoError(t, err)
			assert.Equal(t, 1, count)
		})
	}
}

func TestStore_ScanVisitsEverySession(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC()

	for name, st := range backends(t) {
		t.Run(name, func(t *testing.T) {
			for i := 0; i < 3; i++ {
				require.NoError(t, st.Put(ctx, &model.StreamingSession{
					SessionID: "sess-" + string(rune('a'+i)), UserID: "u1", SongID: "s",
					Status: model.StatusActive, StartedAt: now, LastHeartbeatAt: now,
				}))
			}

			seen := 0
			err := st.Scan(ctx, func(*model.StreamingSession) error {
				seen++
				return nil
			})
			require.NoError(t, err)
			assert.Equal(t, 3, seen)
		})
	}
}

func TestStore_DeleteRemovesFromUserIndex(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC()

	for name, st := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, st.Put(ctx, &model.StreamingSession{
				SessionID: "to-delete", UserID: "u1", SongID: "s1",
				Status: model.StatusActive, StartedAt: now, LastHeartbeatAt: now,
			}))
			require.NoError(t, st.Delete(ctx, "to-delete"))

			_, err := st.Get(ctx, "to-delete")
			assert.ErrorIs(t, err, ErrNotFound)

			active, err := st.ListActiveByUser(ctx, "u1")
			require.NoError(t, err)
			assert.Empty(t, active)
		})
	}
}
