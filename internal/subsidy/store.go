package subsidy

import (
	"context"
	"time"

	id "subvene/pkg/domain"
)

// Store is the persistence boundary for subsidy contracts. Implementations
// must make MarkReleased a single atomic update over the milestone array;
// it is the authoritative local record of money movement.
type Store interface {
	Create(ctx context.Context, contract *SubsidyContract) error
	Get(ctx context.Context, subsidyID id.SubsidyID) (*SubsidyContract, error)
	ListActive(ctx context.Context) ([]*SubsidyContract, error)
	ListByProducer(ctx context.Context, producerID id.ProducerID) ([]*SubsidyContract, error)

	// MarkReleased atomically flips milestones[index].IsReleased to true,
	// stamps ReleasedAt, and recomputes the contract status in the same
	// write. Returns sentinel.ErrAlreadyReleased when the flag was already
	// set and sentinel.ErrNotFound for unknown subsidies or indices.
	MarkReleased(ctx context.Context, subsidyID id.SubsidyID, index int, releasedAt time.Time) error

	// UpdateStatus sets the lifecycle status directly. Used for the terminal
	// Rejected transition only; released-driven transitions go through
	// MarkReleased.
	UpdateStatus(ctx context.Context, subsidyID id.SubsidyID, status Status) error
}
