package repository

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rostanic20/Musify-Backend-sub000/internal/domain/session/model"
	"github.com/Rostanic20/Musify-Backend-sub000/internal/persistence/sqlite"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sqlite.Open(filepath.Join(t.TempDir(), "repository.db"), sqlite.DefaultConfig())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, Migrate(context.Background(), db))
	return db
}

func insertPlay(t *testing.T, db *sql.DB, userID, songID string, at time.Time, skipped bool) {
	t.Helper()
	skip := 0
	if skipped {
		skip = 1
	}
	_, err := db.ExecContext(context.Background(), `
		INSERT INTO play_events (user_id, song_id, played_at, skipped) VALUES (?, ?, ?, ?)
	`, userID, songID, at.Unix(), skip)
	require.NoError(t, err)
}

func TestCatalogRepository_RegisterAndLookup(t *testing.T) {
	ctx := context.Background()
	catalog := NewCatalogRepository(openTestDB(t))

	require.NoError(t, catalog.RegisterSong(ctx, "song-1", "Title", "Artist", []int{96, 320, 128}))

	qualities, err := catalog.AvailableQualities(ctx, "song-1")
	require.NoError(t, err)
	assert.Equal(t, []int{96, 128, 320}, qualities)
}

func TestCatalogRepository_UnknownSongNotFound(t *testing.T) {
	catalog := NewCatalogRepository(openTestDB(t))
	_, err := catalog.AvailableQualities(context.Background(), "missing")
	assert.Error(t, err)
}

func TestSubscriptionRepository_DefaultsToFree(t *testing.T) {
	sub := NewSubscriptionRepository(openTestDB(t))
	tier, err := sub.Tier(context.Background(), "unknown-user")
	require.NoError(t, err)
	assert.Equal(t, model.TierFree, tier)
}

func TestSubscriptionRepository_SetAndLookup(t *testing.T) {
	ctx := context.Background()
	sub := NewSubscriptionRepository(openTestDB(t))

	require.NoError(t, sub.SetTier(ctx, "u1", model.TierPremium))
	tier, err := sub.Tier(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, model.TierPremium, tier)

	premium, err := sub.IsPremium(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, premium)
}

func TestHistoryRepository_ActivePlaylistNext(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	hist := NewHistoryRepository(db)

	_, err := db.ExecContext(ctx, `INSERT INTO playlists (playlist_id, user_id) VALUES ('pl-1', 'u1')`)
	require.NoError(t, err)
	for i, song := range []string{"song-a", "song-b", "song-c", "song-d"} {
		_, err := db.ExecContext(ctx, `INSERT INTO playlist_tracks (playlist_id, position, song_id) VALUES (?, ?, ?)`, "pl-1", i, song)
		require.NoError(t, err)
	}
	_, err = db.ExecContext(ctx, `INSERT INTO active_playlist_state (user_id, playlist_id, current_position) VALUES ('u1', 'pl-1', 0)`)
	require.NoError(t, err)

	next, inPlaylist, err := hist.ActivePlaylistNext(ctx, "u1", "song-a")
	require.NoError(t, err)
	assert.True(t, inPlaylist)
	assert.Equal(t, []string{"song-b", "song-c", "song-d"}, next)
}

func TestHistoryRepository_NoActivePlaylist(t *testing.T) {
	hist := NewHistoryRepository(openTestDB(t))
	next, inPlaylist, err := hist.ActivePlaylistNext(context.Background(), "ghost", "song-a")
	require.NoError(t, err)
	assert.False(t, inPlaylist)
	assert.Nil(t, next)
}

func TestHistoryRepository_CoPlayedWithin(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	hist := NewHistoryRepository(db)

	base := time.Now()
	insertPlay(t, db, "u1", "song-a", base, false)
	insertPlay(t, db, "u1", "song-b", base.Add(2*time.Minute), false)
	insertPlay(t, db, "u1", "song-b", base.Add(10*time.Minute), false)
	insertPlay(t, db, "u1", "song-c", base.Add(3*time.Minute), false)

	freqs, err := hist.CoPlayedWithin(ctx, "u1", "song-a", 30*24*time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, freqs)
	assert.Equal(t, "song-b", freqs[0].SongID)
}

func TestHistoryRepository_SkipRateLast24h(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	hist := NewHistoryRepository(db)

	now := time.Now()
	insertPlay(t, db, "u1", "song-a", now, true)
	insertPlay(t, db, "u1", "song-b", now, false)

	rate, err := hist.SkipRateLast24h(ctx, "u1")
	require.NoError(t, err)
	assert.InDelta(t, 0.5, rate, 0.01)
}
