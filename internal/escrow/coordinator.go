// Package escrow implements the release coordination engine: the only code
// path that moves money. It reconciles the local record store with the
// authoritative external ledger under a per-subsidy advisory lock.
package escrow

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"subvene/internal/escrow/metrics"
	"subvene/internal/ledger"
	"subvene/internal/submission"
	"subvene/internal/subsidy"
	id "subvene/pkg/domain"
	dErrors "subvene/pkg/domain-errors"
	"subvene/pkg/platform/audit"
	"subvene/pkg/platform/sentinel"
)

// TrailPublisher emits action-trail events.
type TrailPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Coordinator is the sole writer of released state. All fund movement goes
// through Release; the audit decision service and any future surfaces
// delegate here.
type Coordinator struct {
	subsidies   subsidy.Store
	submissions submission.Store
	gateway     ledger.Gateway
	locks       Locker
	trail       TrailPublisher
	metrics     *metrics.Metrics
	logger      *slog.Logger

	// markRetries bounds the authoritative-write retry loop after a
	// confirmed ledger release.
	markRetries int
}

func NewCoordinator(
	subsidies subsidy.Store,
	submissions submission.Store,
	gateway ledger.Gateway,
	locks Locker,
	trail TrailPublisher,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Coordinator {
	return &Coordinator{
		subsidies:   subsidies,
		submissions: submissions,
		gateway:     gateway,
		locks:       locks,
		trail:       trail,
		metrics:     m,
		logger:      logger,
		markRetries: 3,
	}
}

// ReleaseResult reports a completed release.
type ReleaseResult struct {
	TxHash  string
	Subsidy *subsidy.SubsidyContract
}

// Release moves one milestone's funds to the producer, at most once.
//
// The sequence under the per-subsidy lock:
//  1. Local idempotency guard: unknown index or already-released milestone
//     stops here with no ledger interaction.
//  2. Ledger pre-check: the milestone's authoritative released state is
//     queried first. The local guard depends on the local record being
//     correct, which is exactly what may be wrong after a crash between a
//     confirmed ledger call and the local write. If the ledger already shows
//     released, the local record is repaired from ledger truth and the call
//     reports already-released; no second transfer can occur.
//  3. The single non-idempotent ledger release call.
//  4. Authoritative local write (milestone flag + status), retried; then the
//     best-effort submission cascade. A local write that keeps failing after
//     ledger confirmation is surfaced as divergence for the sweeper, never
//     as a plain failure that would invite a second ledger call.
func (c *Coordinator) Release(ctx context.Context, subsidyID id.SubsidyID, index int) (*ReleaseResult, error) {
	unlock, err := c.locks.Lock(ctx, subsidyID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	contract, err := c.subsidies.Get(ctx, subsidyID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "subsidy not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load subsidy")
	}
	if contract.Status == subsidy.StatusRejected {
		return nil, dErrors.New(dErrors.CodeInvalidState, "subsidy is rejected; no further releases")
	}
	milestone, err := contract.MilestoneAt(index)
	if err != nil {
		return nil, err
	}
	if milestone.IsReleased {
		c.metrics.ReleasesTotal.WithLabelValues(metrics.OutcomeAlreadyReleased).Inc()
		return nil, dErrors.New(dErrors.CodeConflict, "milestone already released")
	}

	// Ledger pre-check: safe-retry policy. Only call the non-idempotent
	// release if the ledger itself reports the milestone as unreleased.
	state, err := c.gateway.GetMilestoneState(ctx, contract.ContractAddress, index)
	if err != nil {
		c.metrics.ReleasesTotal.WithLabelValues(metrics.OutcomeLedgerError).Inc()
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "cannot verify ledger state before release")
	}
	if state.Released {
		// Local said unreleased, ledger says released: a previous attempt
		// succeeded without its local write. Repair and stop.
		c.repairFromLedger(ctx, contract, index)
		return nil, dErrors.New(dErrors.CodeConflict, "milestone already released")
	}

	receipt, err := c.gateway.ReleaseMilestone(ctx, contract.ContractAddress, index)
	if err != nil {
		return c.resolveReleaseFailure(ctx, contract, index, err)
	}
	return c.finalize(ctx, contract, index, receipt.TxHash)
}

// resolveReleaseFailure decides what a failed release call means. Confirmed
// failures are safe to surface as retryable ledger errors. Unknown outcomes
// (timeouts, dropped connections) must be resolved against ledger truth
// before anyone is allowed to retry.
func (c *Coordinator) resolveReleaseFailure(ctx context.Context, contract *subsidy.SubsidyContract, index int, callErr error) (*ReleaseResult, error) {
	if ledger.IsConfirmedFailed(callErr) {
		c.metrics.ReleasesTotal.WithLabelValues(metrics.OutcomeLedgerError).Inc()
		return nil, dErrors.Wrap(callErr, dErrors.CodeUnavailable, "ledger rejected the release")
	}

	// Outcome unknown. Re-query the specific milestone before deciding.
	state, err := c.gateway.GetMilestoneState(ctx, contract.ContractAddress, index)
	if err != nil {
		c.metrics.ReleasesTotal.WithLabelValues(metrics.OutcomeLedgerError).Inc()
		return nil, dErrors.Wrap(callErr, dErrors.CodeTimeout,
			"release outcome unknown and ledger state unavailable; do not assume failure")
	}
	if !state.Released {
		// The call genuinely did not land. Safe to retry later.
		c.metrics.ReleasesTotal.WithLabelValues(metrics.OutcomeLedgerError).Inc()
		return nil, dErrors.Wrap(callErr, dErrors.CodeUnavailable, "release not confirmed; safe to retry")
	}

	// The timed-out call actually succeeded on the ledger. Proceed with the
	// local bookkeeping; the transaction hash was lost with the response.
	c.logger.WarnContext(ctx, "release call timed out but ledger confirms success",
		"subsidy_id", contract.ID,
		"milestone_index", index,
	)
	return c.finalize(ctx, contract, index, "")
}

// finalize performs the post-confirmation local writes. The milestone flag
// is authoritative and retried; the submission cascade is best-effort.
func (c *Coordinator) finalize(ctx context.Context, contract *subsidy.SubsidyContract, index int, txHash string) (*ReleaseResult, error) {
	// The ledger already moved the money: the local write must not be
	// abandoned because the caller's request context expired.
	ctx = context.WithoutCancel(ctx)
	now := time.Now()

	var markErr error
	for attempt := 0; attempt < c.markRetries; attempt++ {
		markErr = c.subsidies.MarkReleased(ctx, contract.ID, index, now)
		if markErr == nil || errors.Is(markErr, sentinel.ErrAlreadyReleased) {
			markErr = nil
			break
		}
		time.Sleep(time.Duration(attempt+1) * 100 * time.Millisecond)
	}
	if markErr != nil {
		// Divergence: ledger released, local not. Alert and hand off to the
		// sweeper; never report this as "the release failed".
		c.metrics.ReleasesTotal.WithLabelValues(metrics.OutcomeDiverged).Inc()
		c.metrics.DivergencesDetected.Inc()
		c.logger.ErrorContext(ctx, "ledger released but local record update failed",
			"subsidy_id", contract.ID,
			"milestone_index", index,
			"error", markErr.Error(),
		)
		_ = c.trail.Emit(ctx, audit.Event{
			Action:         audit.ActionDivergenceDetected,
			SubsidyID:      contract.ID,
			MilestoneIndex: index,
			TxHash:         txHash,
			ActorRole:      "coordinator",
			Reason:         "funds released on ledger; local record update failed",
		})
		return nil, dErrors.Wrap(markErr, dErrors.CodeInternal,
			"funds released on ledger; local record pending reconciliation")
	}

	// Best-effort cascade; the sweeper repairs it if this lags.
	if _, err := c.submissions.MarkVerified(ctx, contract.ID, index, now); err != nil {
		c.logger.WarnContext(ctx, "submission cascade failed; sweeper will reconcile",
			"subsidy_id", contract.ID,
			"milestone_index", index,
			"error", err.Error(),
		)
	}

	updated, err := c.subsidies.Get(ctx, contract.ID)
	if err != nil {
		updated = contract
	}

	c.metrics.ReleasesTotal.WithLabelValues(metrics.OutcomeReleased).Inc()
	_ = c.trail.Emit(ctx, audit.Event{
		Action:         audit.ActionMilestoneReleased,
		SubsidyID:      contract.ID,
		MilestoneIndex: index,
		TxHash:         txHash,
		ActorRole:      "coordinator",
	})
	if updated.Status == subsidy.StatusCompleted {
		_ = c.trail.Emit(ctx, audit.Event{
			Action:         audit.ActionSubsidyCompleted,
			SubsidyID:      contract.ID,
			MilestoneIndex: -1,
		})
	}
	return &ReleaseResult{TxHash: txHash, Subsidy: updated}, nil
}

// repairFromLedger overwrites the local released flag from ledger truth when
// the pre-check finds a stale record. The same repair the sweeper performs,
// done inline because the divergence was observed here first.
func (c *Coordinator) repairFromLedger(ctx context.Context, contract *subsidy.SubsidyContract, index int) {
	ctx = context.WithoutCancel(ctx)
	c.metrics.DivergencesDetected.Inc()
	_ = c.trail.Emit(ctx, audit.Event{
		Action:         audit.ActionDivergenceDetected,
		SubsidyID:      contract.ID,
		MilestoneIndex: index,
		ActorRole:      "coordinator",
		Reason:         "ledger reports released; local record did not",
	})
	err := c.subsidies.MarkReleased(ctx, contract.ID, index, time.Now())
	if err != nil && !errors.Is(err, sentinel.ErrAlreadyReleased) {
		c.logger.ErrorContext(ctx, "divergence repair failed; sweeper will retry",
			"subsidy_id", contract.ID,
			"milestone_index", index,
			"error", err.Error(),
		)
		return
	}
	c.metrics.DivergencesRepaired.Inc()
	_ = c.trail.Emit(ctx, audit.Event{
		Action:         audit.ActionDivergenceRepaired,
		SubsidyID:      contract.ID,
		MilestoneIndex: index,
		ActorRole:      "coordinator",
	})
}
