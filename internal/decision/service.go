// Package decision implements auditor verdicts on milestone submissions:
// accept resolves the oldest pending claim and triggers a fund release
// through the escrow coordinator; reject terminates the whole subsidy.
package decision

import (
	"context"
	"errors"
	"log/slog"

	"subvene/internal/escrow"
	"subvene/internal/submission"
	"subvene/internal/subsidy"
	id "subvene/pkg/domain"
	dErrors "subvene/pkg/domain-errors"
	"subvene/pkg/platform/audit"
	"subvene/pkg/platform/sentinel"
)

// Releaser is the slice of the escrow coordinator decisions need.
type Releaser interface {
	Release(ctx context.Context, subsidyID id.SubsidyID, milestoneIndex int) (*escrow.ReleaseResult, error)
}

// TrailPublisher emits action-trail events.
type TrailPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

type Service struct {
	subsidies   subsidy.Store
	submissions submission.Store
	releaser    Releaser
	trail       TrailPublisher
	logger      *slog.Logger
}

func New(
	subsidies subsidy.Store,
	submissions submission.Store,
	releaser Releaser,
	trail TrailPublisher,
	logger *slog.Logger,
) *Service {
	return &Service{
		subsidies:   subsidies,
		submissions: submissions,
		releaser:    releaser,
		trail:       trail,
		logger:      logger,
	}
}

// AcceptResult reports a successful verdict and the release it triggered.
type AcceptResult struct {
	Submission *submission.MilestoneSubmission
	TxHash     string
	Subsidy    *subsidy.SubsidyContract
}

// Accept resolves the oldest pending submission for the subsidy and releases
// the funds for the milestone it claims. Only the subsidy's designated
// auditor may accept. Idempotency and two-system consistency are the
// coordinator's job; this service only decides which claim is being judged.
func (s *Service) Accept(ctx context.Context, subsidyID id.SubsidyID, auditorID id.AuditorID) (*AcceptResult, error) {
	if _, err := s.loadForVerdict(ctx, subsidyID, auditorID); err != nil {
		return nil, err
	}

	pending, err := s.submissions.OldestPending(ctx, subsidyID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeInvalidState, "no pending submission to accept")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load pending submission")
	}

	result, err := s.releaser.Release(ctx, subsidyID, pending.MilestoneIndex)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "submission accepted",
		"subsidy_id", subsidyID,
		"submission_id", pending.ID,
		"milestone_index", pending.MilestoneIndex,
		"auditor_id", auditorID,
	)
	return &AcceptResult{
		Submission: pending,
		TxHash:     result.TxHash,
		Subsidy:    result.Subsidy,
	}, nil
}

// Reject terminates the subsidy: status becomes Rejected, every pending
// submission is closed out, and no further releases are possible. Funds
// already released stay released; the remainder is handled by the
// government's off-system clawback process.
func (s *Service) Reject(ctx context.Context, subsidyID id.SubsidyID, auditorID id.AuditorID, reason string) (*subsidy.SubsidyContract, error) {
	if _, err := s.loadForVerdict(ctx, subsidyID, auditorID); err != nil {
		return nil, err
	}

	if err := s.subsidies.UpdateStatus(ctx, subsidyID, subsidy.StatusRejected); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "subsidy not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to reject subsidy")
	}

	closed, err := s.submissions.RejectPending(ctx, subsidyID)
	if err != nil {
		// The terminal status is already durable; the cascade is repairable.
		s.logger.WarnContext(ctx, "failed to close pending submissions after rejection",
			"subsidy_id", subsidyID,
			"error", err.Error(),
		)
	}

	_ = s.trail.Emit(ctx, audit.Event{
		Action:         audit.ActionSubsidyRejected,
		SubsidyID:      subsidyID,
		MilestoneIndex: -1,
		ActorRole:      "auditor",
		ActorID:        auditorID.String(),
		Reason:         reason,
	})
	s.logger.InfoContext(ctx, "subsidy rejected",
		"subsidy_id", subsidyID,
		"auditor_id", auditorID,
		"pending_closed", closed,
	)

	contract, err := s.subsidies.Get(ctx, subsidyID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to reload subsidy")
	}
	return contract, nil
}

// loadForVerdict loads the subsidy and enforces that the caller is its
// designated auditor and that the subsidy can still take verdicts.
func (s *Service) loadForVerdict(ctx context.Context, subsidyID id.SubsidyID, auditorID id.AuditorID) (*subsidy.SubsidyContract, error) {
	contract, err := s.subsidies.Get(ctx, subsidyID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "subsidy not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load subsidy")
	}
	if contract.AuditorID != auditorID {
		return nil, dErrors.New(dErrors.CodeForbidden, "caller is not the designated auditor for this subsidy")
	}
	switch contract.Status {
	case subsidy.StatusRejected:
		return nil, dErrors.New(dErrors.CodeInvalidState, "subsidy is already rejected")
	case subsidy.StatusCompleted:
		return nil, dErrors.New(dErrors.CodeInvalidState, "subsidy is already completed")
	}
	return contract, nil
}
