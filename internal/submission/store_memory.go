package submission

import (
	"context"
	"sort"
	"sync"
	"time"

	id "subvene/pkg/domain"
	"subvene/pkg/platform/sentinel"
)

// InMemoryStore keeps submissions in memory, ordered per subsidy.
type InMemoryStore struct {
	mu          sync.RWMutex
	submissions map[id.SubsidyID][]*MilestoneSubmission
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{submissions: make(map[id.SubsidyID][]*MilestoneSubmission)}
}

func (s *InMemoryStore) Create(_ context.Context, sub *MilestoneSubmission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *sub
	s.submissions[sub.SubsidyID] = append(s.submissions[sub.SubsidyID], &clone)
	return nil
}

func (s *InMemoryStore) ListBySubsidy(_ context.Context, subsidyID id.SubsidyID) ([]*MilestoneSubmission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*MilestoneSubmission, 0, len(s.submissions[subsidyID]))
	for _, sub := range s.submissions[subsidyID] {
		clone := *sub
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *InMemoryStore) OldestPending(_ context.Context, subsidyID id.SubsidyID) (*MilestoneSubmission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var oldest *MilestoneSubmission
	for _, sub := range s.submissions[subsidyID] {
		if sub.Status != StatusSubmitted {
			continue
		}
		if oldest == nil || sub.CreatedAt.Before(oldest.CreatedAt) {
			oldest = sub
		}
	}
	if oldest == nil {
		return nil, sentinel.ErrNotFound
	}
	clone := *oldest
	return &clone, nil
}

func (s *InMemoryStore) MarkVerified(_ context.Context, subsidyID id.SubsidyID, milestoneIndex int, verifiedAt time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	changed := 0
	for _, sub := range s.submissions[subsidyID] {
		if sub.MilestoneIndex == milestoneIndex && sub.Status == StatusSubmitted {
			sub.Status = StatusVerified
			ts := verifiedAt
			sub.VerifiedAt = &ts
			changed++
		}
	}
	return changed, nil
}

func (s *InMemoryStore) RejectPending(_ context.Context, subsidyID id.SubsidyID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	changed := 0
	for _, sub := range s.submissions[subsidyID] {
		if sub.Status == StatusSubmitted {
			sub.Status = StatusRejected
			changed++
		}
	}
	return changed, nil
}
