package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/Rostanic20/Musify-Backend-sub000/internal/domain/buffer"
)

// HistoryRepository implements buffer.HistoryRepository over a SQL
// database, backing the Buffer Strategy Engine's predictive preloading
// with the user's actual playlist position and play history.
type HistoryRepository struct {
	db *sql.DB
}

// NewHistoryRepository constructs a HistoryRepository over db. The caller
// owns db's lifecycle.
func NewHistoryRepository(db *sql.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

var _ buffer.HistoryRepository = (*HistoryRepository)(nil)

// ActivePlaylistNext reports the tracks that follow currentSongID in the
// playlist userID is actively playing through, if the user has an active
// playlist position recorded and it currently points at currentSongID.
func (r *HistoryRepository) ActivePlaylistNext(ctx context.Context, userID, currentSongID string) ([]string, bool, error) {
	var playlistID string
	var position int
	err := r.db.QueryRowContext(ctx, `
		SELECT playlist_id, current_position FROM active_playlist_state WHERE user_id = ?
	`, userID).Scan(&playlistID, &position)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var atSong string
	err = r.db.QueryRowContext(ctx, `
		SELECT song_id FROM playlist_tracks WHERE playlist_id = ? AND position = ?
	`, playlistID, position).Scan(&atSong)
	if err == sql.ErrNoRows || atSong != currentSongID {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT song_id FROM playlist_tracks
		WHERE playlist_id = ? AND position > ?
		ORDER BY position ASC
	`, playlistID, position)
	if err != nil {
		return nil, false, err
	}
	defer rows.Close()

	var next []string
	for rows.Next() {
		var songID string
		if err := rows.Scan(&songID); err != nil {
			return nil, false, err
		}
		next = append(next, songID)
	}
	if err := rows.Err(); err != nil {
		return nil, false, err
	}
	return next, true, nil
}

// CoPlayedWithin returns songs userID played within 30 minutes of a play
// of currentSongID, counting only plays of currentSongID inside the
// lookback window ending now, ranked by raw co-occurrence count.
func (r *HistoryRepository) CoPlayedWithin(ctx context.Context, userID, currentSongID string, window time.Duration) ([]buffer.SongFrequency, error) {
	since := time.Now().Add(-window).Unix()

	rows, err := r.db.QueryContext(ctx, `
		SELECT other.song_id, COUNT(*) AS plays
		FROM play_events anchor
		JOIN play_events other
		  ON other.user_id = anchor.user_id
		 AND other.song_id != anchor.song_id
		 AND ABS(other.played_at - anchor.played_at) <= 1800
		WHERE anchor.user_id = ?
		  AND anchor.song_id = ?
		  AND anchor.played_at >= ?
		GROUP BY other.song_id
		ORDER BY plays DESC
	`, userID, currentSongID, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var freqs []buffer.SongFrequency
	for rows.Next() {
		var f buffer.SongFrequency
		if err := rows.Scan(&f.SongID, &f.Plays); err != nil {
			return nil, err
		}
		freqs = append(freqs, f)
	}
	return freqs, rows.Err()
}

// SkipRateLast24h returns the fraction of userID's plays in the last 24
// hours that were marked skipped.
func (r *HistoryRepository) SkipRateLast24h(ctx context.Context, userID string) (float64, error) {
	since := time.Now().Add(-24 * time.Hour).Unix()

	var total, skipped int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(skipped), 0)
		FROM play_events
		WHERE user_id = ? AND played_at >= ?
	`, userID, since).Scan(&total, &skipped)
	if err != nil {
		return 0, err
	}
	if total == 0 {
		return 0, nil
	}
	return float64(skipped) / float64(total), nil
}

// RecordPlay appends one play event to the history that preload
// prediction reads.
func (r *HistoryRepository) RecordPlay(ctx context.Context, userID, songID string, at time.Time, skipped bool) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO play_events (user_id, song_id, played_at, skipped) VALUES (?, ?, ?, ?)
	`, userID, songID, at.Unix(), boolToInt(skipped))
	return err
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
