package services

import (
	"errors"
	"sync"

	"github.com/sleepoutside/backend/internal/storage"
)

var errDiskFull = errors.New("disk full")

// flakyStore wraps a MemoryStore and fails every Set while failing is true.
type flakyStore struct {
	*storage.MemoryStore
	mu      sync.Mutex
	failing bool
	writes  int
}

func newFlakyStore() *flakyStore {
	return &flakyStore{MemoryStore: storage.NewMemoryStore()}
}

func (s *flakyStore) fail(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failing = on
}

func (s *flakyStore) Set(key, value string) error {
	s.mu.Lock()
	failing := s.failing
	if !failing {
		s.writes++
	}
	s.mu.Unlock()
	if failing {
		return errDiskFull
	}
	return s.MemoryStore.Set(key, value)
}

func (s *flakyStore) writeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}
