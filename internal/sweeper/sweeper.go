// Package sweeper implements the periodic reconciliation loop that repairs
// local subsidy records from ledger truth. The sweeper is read-only against
// the ledger: it never issues a release, it only copies released flags that
// the ledger already confirms into the local store.
package sweeper

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"subvene/internal/escrow"
	"subvene/internal/escrow/metrics"
	"subvene/internal/ledger"
	"subvene/internal/submission"
	"subvene/internal/subsidy"
	"subvene/pkg/platform/audit"
	"subvene/pkg/platform/sentinel"
)

// Sweeper walks every active subsidy, compares each locally-unreleased
// milestone against the ledger, and repairs the local side of any
// divergence. The ledger wins every disagreement about released=true; a
// local released=true the ledger denies is alerted, never rolled back,
// because the local flag is monotonic. Rejection stops new releases, not
// repair: a rejected subsidy still gets its released flags corrected while
// its terminal status holds.
type Sweeper struct {
	subsidies   subsidy.Store
	submissions submission.Store
	gateway     ledger.Gateway
	trail       escrow.TrailPublisher
	metrics     *metrics.Metrics
	logger      *slog.Logger
	interval    time.Duration
}

func New(
	subsidies subsidy.Store,
	submissions submission.Store,
	gateway ledger.Gateway,
	trail escrow.TrailPublisher,
	m *metrics.Metrics,
	logger *slog.Logger,
	interval time.Duration,
) *Sweeper {
	return &Sweeper{
		subsidies:   subsidies,
		submissions: submissions,
		gateway:     gateway,
		trail:       trail,
		metrics:     m,
		logger:      logger,
		interval:    interval,
	}
}

// Run sweeps on a fixed interval until ctx is cancelled. One cycle runs at
// startup so a restart after a crash repairs divergence immediately.
func (s *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.sweepCycle(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.sweepCycle(ctx)
		}
	}
}

func (s *Sweeper) sweepCycle(ctx context.Context) {
	start := time.Now()
	repaired, err := s.SweepOnce(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "reconciliation sweep failed", "error", err.Error())
		return
	}
	s.metrics.SweepCycles.Inc()
	s.logger.InfoContext(ctx, "reconciliation sweep completed",
		"repaired", repaired,
		"duration", time.Since(start).String(),
	)
}

// SweepOnce runs a single full reconciliation pass and returns how many
// milestones were repaired. Per-subsidy failures are logged and skipped so
// one unreachable contract cannot stall the rest of the fleet.
func (s *Sweeper) SweepOnce(ctx context.Context) (int, error) {
	contracts, err := s.subsidies.ListActive(ctx)
	if err != nil {
		return 0, err
	}

	repaired := 0
	for _, contract := range contracts {
		n, err := s.sweepContract(ctx, contract)
		repaired += n
		if err != nil {
			s.logger.WarnContext(ctx, "sweep skipped subsidy",
				"subsidy_id", contract.ID,
				"error", err.Error(),
			)
		}
		if ctx.Err() != nil {
			return repaired, ctx.Err()
		}
	}
	return repaired, nil
}

func (s *Sweeper) sweepContract(ctx context.Context, contract *subsidy.SubsidyContract) (int, error) {
	repaired := 0
	for _, milestone := range contract.Milestones {
		state, err := s.gateway.GetMilestoneState(ctx, contract.ContractAddress, milestone.Index)
		if err != nil {
			return repaired, err
		}

		switch {
		case state.Released && !milestone.IsReleased:
			if s.repairMilestone(ctx, contract, milestone.Index) {
				repaired++
			}
		case !state.Released && milestone.IsReleased:
			// Local claims money moved that the ledger denies. The released
			// flag never goes backwards; this needs a human.
			s.metrics.DivergencesDetected.Inc()
			s.logger.ErrorContext(ctx, "local record claims release the ledger denies",
				"subsidy_id", contract.ID,
				"milestone_index", milestone.Index,
			)
			_ = s.trail.Emit(ctx, audit.Event{
				Action:         audit.ActionDivergenceDetected,
				SubsidyID:      contract.ID,
				MilestoneIndex: milestone.Index,
				ActorRole:      "sweeper",
				Reason:         "local released=true but ledger reports unreleased; manual review required",
			})
		}
	}

	// Submission cascade repair: releases that landed without their
	// best-effort cascade leave Submitted rows behind on released milestones.
	for _, milestone := range contract.Milestones {
		if !contract.Milestones[milestone.Index].IsReleased {
			continue
		}
		n, err := s.submissions.MarkVerified(ctx, contract.ID, milestone.Index, time.Now())
		if err != nil {
			s.logger.WarnContext(ctx, "submission cascade repair failed",
				"subsidy_id", contract.ID,
				"milestone_index", milestone.Index,
				"error", err.Error(),
			)
			continue
		}
		if n > 0 {
			_ = s.trail.Emit(ctx, audit.Event{
				Action:         audit.ActionCascadeRepaired,
				SubsidyID:      contract.ID,
				MilestoneIndex: milestone.Index,
				ActorRole:      "sweeper",
			})
		}
	}
	return repaired, nil
}

// repairMilestone copies released=true from the ledger into the local record.
func (s *Sweeper) repairMilestone(ctx context.Context, contract *subsidy.SubsidyContract, index int) bool {
	s.metrics.DivergencesDetected.Inc()
	_ = s.trail.Emit(ctx, audit.Event{
		Action:         audit.ActionDivergenceDetected,
		SubsidyID:      contract.ID,
		MilestoneIndex: index,
		ActorRole:      "sweeper",
		Reason:         "ledger reports released; local record did not",
	})

	err := s.subsidies.MarkReleased(ctx, contract.ID, index, time.Now())
	if err != nil && !errors.Is(err, sentinel.ErrAlreadyReleased) {
		s.logger.ErrorContext(ctx, "divergence repair failed",
			"subsidy_id", contract.ID,
			"milestone_index", index,
			"error", err.Error(),
		)
		return false
	}

	// Keep the in-memory copy current so the cascade pass below sees the
	// repaired flag without a reload.
	contract.Milestones[index].IsReleased = true

	s.metrics.DivergencesRepaired.Inc()
	s.logger.InfoContext(ctx, "local record repaired from ledger",
		"subsidy_id", contract.ID,
		"milestone_index", index,
	)
	_ = s.trail.Emit(ctx, audit.Event{
		Action:         audit.ActionDivergenceRepaired,
		SubsidyID:      contract.ID,
		MilestoneIndex: index,
		ActorRole:      "sweeper",
	})
	return true
}
