// Package repository implements the SQL-backed adapters for the
// cross-cutting repository contracts spec.md §2 calls out: listening
// history (feeding the Buffer Strategy Engine's predictive preloading),
// the song/quality catalog (feeding HLS manifest generation), and
// subscription tiers (feeding the Session Controller's concurrency caps).
// The SQL persistence layer itself remains an external collaborator per
// spec.md §1; this package is the thin, concrete shape that boundary takes
// inside this core.
package repository

import (
	"context"
	"database/sql"
	"fmt"
)

const schemaVersion = 1

// Migrate applies this package's schema to db, idempotently.
func Migrate(ctx context.Context, db *sql.DB) error {
	var current int
	if err := db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&current); err != nil {
		return err
	}
	if current >= schemaVersion {
		return nil
	}

	schema := `
	CREATE TABLE IF NOT EXISTS songs (
		song_id      TEXT PRIMARY KEY,
		title        TEXT NOT NULL,
		artist       TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS song_qualities (
		song_id TEXT NOT NULL REFERENCES songs(song_id) ON DELETE CASCADE,
		kbps    INTEGER NOT NULL,
		PRIMARY KEY (song_id, kbps)
	);

	CREATE TABLE IF NOT EXISTS subscriptions (
		user_id TEXT PRIMARY KEY,
		tier    TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS playlists (
		playlist_id TEXT PRIMARY KEY,
		user_id     TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS playlist_tracks (
		playlist_id TEXT NOT NULL REFERENCES playlists(playlist_id) ON DELETE CASCADE,
		position    INTEGER NOT NULL,
		song_id     TEXT NOT NULL,
		PRIMARY KEY (playlist_id, position)
	);

	CREATE TABLE IF NOT EXISTS active_playlist_state (
		user_id          TEXT PRIMARY KEY,
		playlist_id      TEXT NOT NULL,
		current_position INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS play_events (
		user_id     TEXT NOT NULL,
		song_id     TEXT NOT NULL,
		played_at   INTEGER NOT NULL,
		skipped     INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_play_events_user_time ON play_events(user_id, played_at);
	`

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("repository: apply schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
		return err
	}
	return tx.Commit()
}
