package subsidy

import (
	"context"
	"sort"
	"sync"
	"time"

	id "subvene/pkg/domain"
	"subvene/pkg/platform/sentinel"
)

// InMemoryStore keeps subsidy contracts in memory. Used in tests and
// single-node development runs; the Postgres store is the production path.
type InMemoryStore struct {
	mu        sync.RWMutex
	contracts map[id.SubsidyID]*SubsidyContract
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{contracts: make(map[id.SubsidyID]*SubsidyContract)}
}

func (s *InMemoryStore) Create(_ context.Context, contract *SubsidyContract) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.contracts[contract.ID]; exists {
		return sentinel.ErrConflict
	}
	s.contracts[contract.ID] = cloneContract(contract)
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, subsidyID id.SubsidyID) (*SubsidyContract, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	contract, ok := s.contracts[subsidyID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return cloneContract(contract), nil
}

func (s *InMemoryStore) ListActive(_ context.Context) ([]*SubsidyContract, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*SubsidyContract
	for _, contract := range s.contracts {
		if contract.IsActive {
			out = append(out, cloneContract(contract))
		}
	}
	sortByCreatedAt(out)
	return out, nil
}

func (s *InMemoryStore) ListByProducer(_ context.Context, producerID id.ProducerID) ([]*SubsidyContract, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*SubsidyContract
	for _, contract := range s.contracts {
		if contract.ProducerID == producerID {
			out = append(out, cloneContract(contract))
		}
	}
	sortByCreatedAt(out)
	return out, nil
}

func (s *InMemoryStore) MarkReleased(_ context.Context, subsidyID id.SubsidyID, index int, releasedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	contract, ok := s.contracts[subsidyID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if index < 0 || index >= len(contract.Milestones) {
		return sentinel.ErrNotFound
	}
	if contract.Milestones[index].IsReleased {
		return sentinel.ErrAlreadyReleased
	}
	contract.Milestones[index].IsReleased = true
	ts := releasedAt
	contract.Milestones[index].ReleasedAt = &ts
	contract.Status = contract.RecomputeStatus()
	return nil
}

func (s *InMemoryStore) UpdateStatus(_ context.Context, subsidyID id.SubsidyID, status Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	contract, ok := s.contracts[subsidyID]
	if !ok {
		return sentinel.ErrNotFound
	}
	contract.Status = status
	return nil
}

func cloneContract(c *SubsidyContract) *SubsidyContract {
	clone := *c
	clone.Milestones = append([]Milestone{}, c.Milestones...)
	return &clone
}

func sortByCreatedAt(contracts []*SubsidyContract) {
	sort.Slice(contracts, func(i, j int) bool {
		return contracts[i].CreatedAt.Before(contracts[j].CreatedAt)
	})
}
