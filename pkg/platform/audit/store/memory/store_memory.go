package memory

import (
	"context"
	"sync"

	id "subvene/pkg/domain"
	"subvene/pkg/platform/audit"
)

// Store keeps trail events in memory, keyed by subsidy. Used in tests and
// single-node development runs.
type Store struct {
	mu     sync.RWMutex
	events map[id.SubsidyID][]audit.Event
}

func New() *Store {
	return &Store{events: make(map[id.SubsidyID][]audit.Event)}
}

func (s *Store) Append(_ context.Context, event audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[event.SubsidyID] = append(s.events[event.SubsidyID], event)
	return nil
}

func (s *Store) ListBySubsidy(_ context.Context, subsidyID id.SubsidyID) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]audit.Event{}, s.events[subsidyID]...), nil
}
