// Package store persists StreamingSession records behind a Store
// interface, with a memory-backed implementation for tests and an
// embedded durable backend selectable via internal/config.
package store

import (
	"context"
	"errors"

	"github.com/Rostanic20/Musify-Backend-sub000/internal/domain/session/model"
)

var ErrNotFound = errors.New("store: session not found")

// Store persists and queries StreamingSession records.
type Store interface {
	// Put upserts a session record.
	Put(ctx context.Context, s *model.StreamingSession) error

	// Get fetches a single session by id.
	Get(ctx context.Context, sessionID string) (*model.StreamingSession, error)

	// ListActiveByUser returns every non-terminal session owned by userID.
	ListActiveByUser(ctx context.Context, userID string) ([]*model.StreamingSession, error)

	// CountActiveByUser returns the count of ACTIVE/PAUSED sessions for
	// userID, used for the concurrency-cap check.
	CountActiveByUser(ctx context.Context, userID string) (int, error)

	// Scan invokes fn for every stored session. Used by the sweeper to
	// find sessions whose heartbeat has timed out. Iteration takes a
	// point-in-time snapshot so slow callbacks never hold the store lock.
	Scan(ctx context.Context, fn func(*model.StreamingSession) error) error

	// Delete removes a session record entirely (used only by retention
	// cleanup, not by normal lifecycle transitions which set ENDED/EXPIRED).
	Delete(ctx context.Context, sessionID string) error

	Close() error
}
