package submission

import (
	"context"
	"time"

	id "subvene/pkg/domain"
)

// Store is the persistence boundary for milestone submissions. The cascade
// methods are best-effort multi-document updates: no transaction with the
// subsidy store is assumed, and the sweeper re-runs them when they lag.
type Store interface {
	Create(ctx context.Context, sub *MilestoneSubmission) error
	ListBySubsidy(ctx context.Context, subsidyID id.SubsidyID) ([]*MilestoneSubmission, error)

	// OldestPending returns the oldest still-Submitted submission for a
	// subsidy, or sentinel.ErrNotFound when none is pending.
	OldestPending(ctx context.Context, subsidyID id.SubsidyID) (*MilestoneSubmission, error)

	// MarkVerified transitions all Submitted submissions for one milestone
	// to Verified. Returns how many rows changed.
	MarkVerified(ctx context.Context, subsidyID id.SubsidyID, milestoneIndex int, verifiedAt time.Time) (int, error)

	// RejectPending transitions all Submitted submissions for the subsidy to
	// Rejected. Returns how many rows changed.
	RejectPending(ctx context.Context, subsidyID id.SubsidyID) (int, error)
}
