// Package service implements the milestone submission pipeline: producer
// evidence intake against in-progress subsidies. Intake performs no ledger
// interaction and no locking; it is fully concurrent across subsidies and
// producers.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"subvene/internal/submission"
	"subvene/internal/subsidy"
	id "subvene/pkg/domain"
	dErrors "subvene/pkg/domain-errors"
	"subvene/pkg/platform/sentinel"
)

// SubsidyReader is the slice of the registry this pipeline needs.
type SubsidyReader interface {
	Get(ctx context.Context, subsidyID id.SubsidyID) (*subsidy.SubsidyContract, error)
}

type Service struct {
	store     submission.Store
	subsidies SubsidyReader
	logger    *slog.Logger
}

func New(store submission.Store, subsidies SubsidyReader, logger *slog.Logger) *Service {
	return &Service{store: store, subsidies: subsidies, logger: logger}
}

// SubmitInput carries a producer's claim for one milestone.
type SubmitInput struct {
	SubsidyID      id.SubsidyID
	MilestoneIndex int
	ProducerID     id.ProducerID
	Description    string
	EvidenceRef    string
}

// Submit records a claim with status Submitted, copying the auditor
// reference from the subsidy. The subsidy must exist and be InProgress.
func (s *Service) Submit(ctx context.Context, in SubmitInput) (*submission.MilestoneSubmission, error) {
	if in.Description == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "description is required")
	}
	if in.ProducerID.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "producer_id is required")
	}

	contract, err := s.subsidies.Get(ctx, in.SubsidyID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) || dErrors.HasCode(err, dErrors.CodeNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "subsidy not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load subsidy")
	}
	if contract.Status != subsidy.StatusInProgress {
		return nil, dErrors.New(dErrors.CodeInvalidState,
			"submissions are only accepted while the subsidy is in progress")
	}
	if _, err := contract.MilestoneAt(in.MilestoneIndex); err != nil {
		return nil, err
	}

	sub := &submission.MilestoneSubmission{
		ID:             id.NewSubmissionID(),
		SubsidyID:      in.SubsidyID,
		MilestoneIndex: in.MilestoneIndex,
		ProducerID:     in.ProducerID,
		AuditorID:      contract.AuditorID,
		Description:    in.Description,
		EvidenceRef:    in.EvidenceRef,
		Status:         submission.StatusSubmitted,
		CreatedAt:      time.Now(),
	}
	if err := s.store.Create(ctx, sub); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store submission")
	}

	s.logger.InfoContext(ctx, "milestone submission created",
		"submission_id", sub.ID,
		"subsidy_id", sub.SubsidyID,
		"milestone_index", sub.MilestoneIndex,
	)
	return sub, nil
}

// ListBySubsidy returns the full claim history, oldest first.
func (s *Service) ListBySubsidy(ctx context.Context, subsidyID id.SubsidyID) ([]*submission.MilestoneSubmission, error) {
	subs, err := s.store.ListBySubsidy(ctx, subsidyID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list submissions")
	}
	return subs, nil
}
