package history

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/cockroachdb/pebble"
	"github.com/segmentio/ksuid"
)

const sessionPrefix = "session/"

// Store persists parse sessions in a pebble database
type Store struct {
	db *pebble.DB
}

// Open opens the session store at the given path, creating it if needed
func Open(path string) (*Store, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("open history store: %w", err)
	}

	return &Store{db: db}, nil
}

// Put stores a session, assigning a new id when it has none. Session
// ids are ksuids, so key order matches creation order.
func (s *Store) Put(session *Session) error {
	if session.ID == "" {
		session.ID = ksuid.New().String()
	}

	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session %s: %w", session.ID, err)
	}

	if err := s.db.Set(sessionKey(session.ID), data, pebble.NoSync); err != nil {
		return fmt.Errorf("store session %s: %w", session.ID, err)
	}

	return nil
}

// Get returns the session with the given id
func (s *Store) Get(id string) (*Session, error) {
	data, closer, err := s.db.Get(sessionKey(id))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, fmt.Errorf("session %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("read session %s: %w", id, err)
	}
	defer closer.Close()

	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", id, err)
	}

	return &session, nil
}

// List returns all sessions in chronological order
func (s *Store) List() ([]*Session, error) {
	lower := []byte(sessionPrefix)
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: lower,
		UpperBound: prefixEnd(lower),
	})
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer iter.Close()

	var sessions []*Session
	for iter.First(); iter.Valid(); iter.Next() {
		var session Session
		if err := json.Unmarshal(iter.Value(), &session); err != nil {
			return nil, fmt.Errorf("decode session %s: %w", iter.Key(), err)
		}
		sessions = append(sessions, &session)
	}
	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	return sessions, nil
}

// Delete removes the session with the given id
func (s *Store) Delete(id string) error {
	if _, err := s.Get(id); err != nil {
		return err
	}

	if err := s.db.Delete(sessionKey(id), pebble.NoSync); err != nil {
		return fmt.Errorf("delete session %s: %w", id, err)
	}

	return nil
}

// Close closes the underlying database
func (s *Store) Close() error {
	return s.db.Close()
}

func sessionKey(id string) []byte {
	return []byte(sessionPrefix + id)
}

// prefixEnd returns the smallest key greater than every key with the
// given prefix, for use as an exclusive iteration upper bound.
func prefixEnd(prefix []byte) []byte {
	end := make([]byte, len(prefix))
	copy(end, prefix)
	for i := len(end) - 1; i >= 0; i-- {
		end[i]++
		if end[i] != 0 {
			return end[:i+1]
		}
	}

	return nil
}
