package pipeline

import "sync"

// progressStore publishes the most recent progress snapshot behind a
// single guard. Writers replace the value wholesale; readers on other
// goroutines see the old or the new snapshot, never a torn one.
type progressStore struct {
	mu  sync.RWMutex
	cur Progress
}

func newProgressStore() *progressStore {
	return &progressStore{}
}

func (s *progressStore) update(p Progress) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cur = p
}

func (s *progressStore) snapshot() Progress {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur
}
