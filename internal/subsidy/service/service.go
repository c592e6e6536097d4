// Package service implements the subsidy registry: contract creation with
// escrow deployment, and derived-status reads.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"subvene/internal/ledger"
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

// Service owns the SubsidyContract lifecycle. Fund movement is delegated to
// the escrow coordinator; this service only creates and reads.
type Service struct {
	store   subsidy.Store
	gateway ledger.Gateway
	trail   TrailPublisher
	logger  *slog.Logger
}

func New(store subsidy.Store, gateway ledger.Gateway, trail TrailPublisher, logger *slog.Logger) *Service {
	return &Service{store: store, gateway: gateway, trail: trail, logger: logger}
}

// CreateInput carries everything needed to deploy and record a subsidy.
// ProducerAddress is the producer's ledger account; the producer directory
// that resolves it lives outside this service.
type CreateInput struct {
	Title           string
	GovernmentID    id.GovernmentID
	ProducerID      id.ProducerID
	AuditorID       id.AuditorID
	ProducerAddress string
	TotalAmount     id.Amount
	Specs           []subsidy.MilestoneSpec
}

// Create validates the milestone sum invariant, deploys and pre-funds the
// escrow contract, registers each milestone on-ledger, and persists the
// contract record with status InProgress.
//
// If the ledger succeeds but persistence fails, money is escrowed with no
// local record. That gap is recorded on the trail as an orphaned escrow so
// the reconciliation sweeper and operators can close it; it is never
// silently dropped.
func (s *Service) Create(ctx context.Context, in CreateInput) (*subsidy.SubsidyContract, error) {
	if in.Title == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "title is required")
	}
	if in.ProducerID.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "producer_id is required")
	}
	if in.AuditorID.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "auditor_id is required")
	}
	if in.ProducerAddress == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "producer_address is required")
	}
	if in.TotalAmount <= 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "total_amount must be positive")
	}
	if err := subsidy.ValidateSpecs(in.TotalAmount, in.Specs); err != nil {
		return nil, err
	}

	// Deploy + fund is one atomic on-ledger step from this component's view.
	deployed, err := s.gateway.Deploy(ctx, in.ProducerAddress, in.TotalAmount)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "escrow deployment failed")
	}
	for _, spec := range in.Specs {
		if err := s.gateway.AddMilestone(ctx, deployed.ContractAddress, spec.Description, spec.Amount); err != nil {
			s.recordOrphan(ctx, deployed, in)
			return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "milestone registration failed after deployment")
		}
	}

	now := time.Now()
	contract := &subsidy.SubsidyContract{
		ID:              id.NewSubsidyID(),
		Title:           in.Title,
		GovernmentID:    in.GovernmentID,
		ProducerID:      in.ProducerID,
		AuditorID:       in.AuditorID,
		TotalAmount:     in.TotalAmount,
		Milestones:      make([]subsidy.Milestone, len(in.Specs)),
		ContractAddress: deployed.ContractAddress,
		Status:          subsidy.StatusInProgress, // escrow funded at deploy
		IsActive:        true,
		CreatedAt:       now,
	}
	for i, spec := range in.Specs {
		contract.Milestones[i] = subsidy.Milestone{
			Index:       i,
			Description: spec.Description,
			Amount:      spec.Amount,
		}
	}

	if err := s.store.Create(ctx, contract); err != nil {
		s.recordOrphan(ctx, deployed, in)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "escrow deployed but record persistence failed; pending reconciliation")
	}

	_ = s.trail.Emit(ctx, audit.Event{
		Action:         audit.ActionEscrowDeployed,
		SubsidyID:      contract.ID,
		MilestoneIndex: -1,
		TxHash:         deployed.TxHash,
		ActorRole:      "government",
		ActorID:        in.GovernmentID.String(),
	})
	return contract, nil
}

// recordOrphan leaves a durable marker for escrowed funds that have no
// usable local record yet.
func (s *Service) recordOrphan(ctx context.Context, deployed ledger.DeployResult, in CreateInput) {
	s.logger.ErrorContext(ctx, "escrow deployed without local record",
		"contract_address", deployed.ContractAddress,
		"producer_id", in.ProducerID,
	)
	if err := s.trail.Emit(ctx, audit.Event{
		Action:         audit.ActionEscrowOrphaned,
		MilestoneIndex: -1,
		TxHash:         deployed.TxHash,
		ActorRole:      "government",
		ActorID:        in.GovernmentID.String(),
		Reason:         "contract " + deployed.ContractAddress + " deployed but registry persistence failed",
	}); err != nil {
		s.logger.ErrorContext(ctx, "failed to record orphaned escrow", "error", err.Error())
	}
}

// Get loads one contract.
func (s *Service) Get(ctx context.Context, subsidyID id.SubsidyID) (*subsidy.SubsidyContract, error) {
	contract, err := s.store.Get(ctx, subsidyID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "subsidy not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load subsidy")
	}
	return contract, nil
}

// ListActive returns active contracts ordered by creation time.
func (s *Service) ListActive(ctx context.Context) ([]*subsidy.SubsidyContract, error) {
	contracts, err := s.store.ListActive(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list subsidies")
	}
	return contracts, nil
}

// ListByProducer returns a producer's contracts ordered by creation time.
func (s *Service) ListByProducer(ctx context.Context, producerID id.ProducerID) ([]*subsidy.SubsidyContract, error) {
	contracts, err := s.store.ListByProducer(ctx, producerID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list producer subsidies")
	}
	return contracts, nil
}
