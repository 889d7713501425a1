package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Rostanic20/Musify-Backend-sub000/internal/domain/session/model"
	"github.com/Rostanic20/Musify-Backend-sub000/internal/persistence/sqlite"
)

const schemaVersion = 1

// SQLiteStore is a durable Store backed by an embedded SQLite database, for
// deployments that need sessions to survive a process restart.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if necessary) a SQLite-backed session
// store at dbPath and applies its schema.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sqlite.Open(dbPath, sqlite.DefaultConfig())
	if err != nil {
		return nil, err
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("session sqlite store: migration failed: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

func (s *SQLiteStore) migrate(ctx context.Context) error {
	var current int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&current); err != nil {
		return err
	}
	if current >= schemaVersion {
		return nil
	}

	schema := `
	CREATE TABLE IF NOT EXISTS streaming_sessions (
		session_id             TEXT PRIMARY KEY,
		user_id                TEXT NOT NULL,
		song_id                TEXT NOT NULL,
		device_id              TEXT NOT NULL,
		device_name            TEXT NOT NULL,
		ip_address             TEXT NOT NULL,
		user_agent             TEXT NOT NULL,
		quality                INTEGER NOT NULL,
		stream_type            TEXT NOT NULL,
		status                 TEXT NOT NULL,
		started_at_unix        INTEGER NOT NULL,
		last_heartbeat_at_unix INTEGER NOT NULL,
		ended_at_unix          INTEGER,
		streamed_seconds       INTEGER NOT NULL DEFAULT 0,
		streamed_bytes         INTEGER NOT NULL DEFAULT 0,
		buffering_events       INTEGER NOT NULL DEFAULT 0,
		buffering_duration_ms  INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_streaming_sessions_user ON streaming_sessions(user_id, status);
	CREATE INDEX IF NOT EXISTS idx_streaming_sessions_heartbeat ON streaming_sessions(status, last_heartbeat_at_unix);

	CREATE TABLE IF NOT EXISTS buffer_metrics (
		session_id      TEXT NOT NULL REFERENCES streaming_sessions(session_id) ON DELETE CASCADE,
		recorded_at_unix INTEGER NOT NULL,
		buffer_level_sec REAL NOT NULL,
		starvation_count INTEGER NOT NULL,
		rebuffer_count   INTEGER NOT NULL,
		health_score     REAL NOT NULL,
		health_status    TEXT NOT NULL,
		PRIMARY KEY (session_id, recorded_at_unix)
	);
	`

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, schema); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLiteStore) Put(ctx context.Context, sess *model.StreamingSession) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO streaming_sessions (
			session_id, user_id, song_id, device_id, device_name, ip_address, user_agent,
			quality, stream_type, status, started_at_unix, last_heartbeat_at_unix, ended_at_unix,
			streamed_seconds, streamed_bytes, buffering_events, buffering_duration_ms
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET
			song_id = excluded.song_id,
			quality = excluded.quality,
			stream_type = excluded.stream_type,
			status = excluded.status,
			last_heartbeat_at_unix = excluded.last_heartbeat_at_unix,
			ended_at_unix = excluded.ended_at_unix,
			streamed_seconds = excluded.streamed_seconds,
			streamed_bytes = excluded.streamed_bytes,
			buffering_events = excluded.buffering_events,
			buffering_duration_ms = excluded.buffering_duration_ms
	`,
		sess.SessionID, sess.UserID, sess.SongID, sess.DeviceID, sess.DeviceName, sess.IPAddress, sess.UserAgent,
		sess.Quality, string(sess.StreamType), string(sess.Status), sess.StartedAt.Unix(), sess.LastHeartbeatAt.Unix(), endedAtUnix(sess.EndedAt),
		sess.StreamedSeconds, sess.StreamedBytes, sess.BufferingEvents, sess.BufferingDurationMs,
	)
	return err
}

func (s *SQLiteStore) Get(ctx context.Context, sessionID string) (*model.StreamingSession, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+sessionColumns+" FROM streaming_sessions WHERE session_id = ?", sessionID)
	sess, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return sess, err
}

func (s *SQLiteStore) ListActiveByUser(ctx context.Context, userID string) ([]*model.StreamingSession, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+sessionColumns+" FROM streaming_sessions WHERE user_id = ? AND status IN ('ACTIVE','PAUSED')", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSessions(rows)
}

func (s *SQLiteStore) CountActiveByUser(ctx context.Context, userID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM streaming_sessions WHERE user_id = ? AND status IN ('ACTIVE','PAUSED')", userID).Scan(&n)
	return n, err
}

func (s *SQLiteStore) Scan(ctx context.Context, fn func(*model.StreamingSession) error) error {
	rows, err := s.db.QueryContext(ctx, "SELECT "+sessionColumns+" FROM streaming_sessions")
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		sess, err := scanSessionRow(rows)
		if err != nil {
			return err
		}
		if err := fn(sess); err != nil {
			return err
		}
	}
	return rows.Err()
}

func (s *SQLiteStore) Delete(ctx context.Context, sessionID string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM streaming_sessions WHERE session_id = ?", sessionID)
	return err
}

const sessionColumns = `session_id, user_id, song_id, device_id, device_name, ip_address, user_agent,
	quality, stream_type, status, started_at_unix, last_heartbeat_at_unix, ended_at_unix,
	streamed_seconds, streamed_bytes, buffering_events, buffering_duration_ms`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSession(r rowScanner) (*model.StreamingSession, error) {
	return scanSessionRow(r)
}

func scanSessionRow(r rowScanner) (*model.StreamingSession, error) {
	var sess model.StreamingSession
	var streamType, status string
	var startedAt, lastHeartbeat int64
	var endedAt sql.NullInt64

	err := r.Scan(
		&sess.SessionID, &sess.UserID, &sess.SongID, &sess.DeviceID, &sess.DeviceName, &sess.IPAddress, &sess.UserAgent,
		&sess.Quality, &streamType, &status, &startedAt, &lastHeartbeat, &endedAt,
		&sess.StreamedSeconds, &sess.StreamedBytes, &sess.BufferingEvents, &sess.BufferingDurationMs,
	)
	if err != nil {
		return nil, err
	}

	sess.StreamType = model.StreamType(streamType)
	sess.Status = model.Status(status)
	sess.StartedAt = time.Unix(startedAt, 0).UTC()
	sess.LastHeartbeatAt = time.Unix(lastHeartbeat, 0).UTC()
	if endedAt.Valid {
		t := time.Unix(endedAt.Int64, 0).UTC()
		sess.EndedAt = &t
	}
	return &sess, nil
}

func scanSessions(rows *sql.Rows) ([]*model.StreamingSession, error) {
	var out []*model.StreamingSession
	for rows.Next() {
		sess, err := scanSessionRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sess)
	}
	return out, rows.Err()
}

func endedAtUnix(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.Unix()
}
