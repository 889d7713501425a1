package store

import (
	"context"
	"encoding/json"

	"github.com/Rostanic20/Musify-Backend-sub000/internal/domain/session/model"
	"github.com/dgraph-io/badger/v4"
)

// BadgerStore is an embedded KV-backed Store, an alternative to SQLiteStore
// for deployments that prefer a log-structured embedded store over a
// relational one. Sessions are stored as JSON under "sess:<id>"; a
// secondary "user:<userId>:<sessionId>" index key (empty value) supports
// ListActiveByUser without a full scan.
type BadgerStore struct {
	db *badger.DB
}

func NewBadgerStore(path string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &BadgerStore{db: db}, nil
}

func (s *BadgerStore) Close() error { return s.db.Close() }

func sessionKey(id string) []byte           { return []byte("sess:" + id) }
func userIndexKey(userID, id string) []byte { return []byte("user:" + userID + ":" + id) }

func (s *BadgerStore) Put(_ context.Context, sess *model.StreamingSession) error {
	buf, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(sessionKey(sess.SessionID), buf); err != nil {
			return err
		}
		return txn.Set(userIndexKey(sess.UserID, sess.SessionID), nil)
	})
}

func (s *BadgerStore) Get(_ context.Context, sessionID string) (*model.StreamingSession, error) {
	var sess model.StreamingSession
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(sessionKey(sessionID))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &sess)
		})
	})
	if err == badger.ErrKeyNotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &sess, nil
}

func (s *BadgerStore) ListActiveByUser(ctx context.Context, userID string) ([]*model.StreamingSession, error) {
	var out []*model.StreamingSession
	prefix := []byte("user:" + userID + ":")
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			id := string(it.Item().Key()[len(prefix):])
			item, err := txn.Get(sessionKey(id))
			if err == badger.ErrKeyNotFound {
				continue
			}
			if err != nil {
				return err
			}
			var sess model.StreamingSession
			if err := item.Value(func(val []byte) error { return json.Unmarshal(val, &sess) }); err != nil {
				return err
			}
			if sess.Status.IsTerminal() {
				continue
			}
			cpy := sess
			out = append(out, &cpy)
		}
		return nil
	})
	return out, err
}

func (s *BadgerStore) CountActiveByUser(ctx context.Context, userID string) (int, error) {
	active, err := s.ListActiveByUser(ctx, userID)
	if err != nil {
		return 0, err
	}
	return len(active), nil
}

func (s *BadgerStore) Scan(ctx context.Context, fn func(*model.StreamingSession) error) error {
	prefix := []byte("sess:")
	var snapshot []*model.StreamingSession
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var sess model.StreamingSession
			if err := it.Item().Value(func(val []byte) error { return json.Unmarshal(val, &sess) }); err != nil {
				continue
			}
			snapshot = append(snapshot, &sess)
		}
		return nil
	})
	if err != nil {
		return err
	}

	for _, sess := range snapshot {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err := fn(sess); err != nil {
			return err
		}
	}
	return nil
}

func (s *BadgerStore) Delete(_ context.Context, sessionID string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(sessionKey(sessionID))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		var sess model.StreamingSession
		if err := item.Value(func(val []byte) error { return json.Unmarshal(val, &sess) }); err != nil {
			return err
		}
		if err := txn.Delete(sessionKey(sessionID)); err != nil {
			return err
		}
		return txn.Delete(userIndexKey(sess.UserID, sessionID))
	})
}
