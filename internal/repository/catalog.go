package repository

import (
	"context"
	"database/sql"
	"sort"

	"github.com/Rostanic20/Musify-Backend-sub000/internal/errs"
)

// CatalogRepository resolves the bitrate qualities available for a song,
// the fact the HLS Manifest Generator (spec.md §4.C) needs but does not
// itself own.
type CatalogRepository struct {
	db *sql.DB
}

// NewCatalogRepository constructs a CatalogRepository over db.
func NewCatalogRepository(db *sql.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// AvailableQualities returns songID's precomputed bitrate variants
// ascending, or NOT_FOUND if the song has none registered.
func (r *CatalogRepository) AvailableQualities(ctx context.Context, songID string) ([]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT kbps FROM song_qualities WHERE song_id = ?`, songID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var qualities []int
	for rows.Next() {
		var kbps int
		if err := rows.Scan(&kbps); err != nil {
			return nil, err
		}
		qualities = append(qualities, kbps)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(qualities) == 0 {
		return nil, errs.New(errs.NotFound, "song "+songID+" has no registered qualities")
	}
	sort.Ints(qualities)
	return qualities, nil
}

// RegisterSong inserts or replaces songID's catalog entry and its
// available bitrate ladder, used by fixtures and ingestion paths.
func (r *CatalogRepository) RegisterSong(ctx context.Context, songID, title, artist string, qualities []int) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO songs (song_id, title, artist) VALUES (?, ?, ?)
		ON CONFLICT(song_id) DO UPDATE SET title = excluded.title, artist = excluded.artist
	`, songID, title, artist); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM song_qualities WHERE song_id = ?`, songID); err != nil {
		return err
	}
	for _, kbps := range qualities {
		if _, err := tx.ExecContext(ctx, `INSERT INTO song_qualities (song_id, kbps) VALUES (?, ?)`, songID, kbps); err != nil {
			return err
		}
	}
	return tx.Commit()
}
