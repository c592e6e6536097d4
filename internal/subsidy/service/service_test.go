package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"subvene/internal/ledger"
	"subvene/internal/subsidy"
	id "subvene/pkg/domain"
	dErrors "subvene/pkg/domain-errors"
	"subvene/pkg/platform/audit"
	auditmemory "subvene/pkg/platform/audit/store/memory"
	"subvene/pkg/testutil"
)

type SubsidyServiceSuite struct {
	suite.Suite
	store      *subsidy.InMemoryStore
	gateway    *ledger.FakeGateway
	trailStore *auditmemory.Store
	service    *Service
}

func TestSubsidyServiceSuite(t *testing.T) {
	suite.Run(t, new(SubsidyServiceSuite))
}

func (s *SubsidyServiceSuite) SetupTest() {
	s.store = subsidy.NewInMemoryStore()
	s.gateway = ledger.NewFakeGateway()
	s.trailStore = auditmemory.New()
	s.service = New(s.store, s.gateway, audit.NewPublisher(s.trailStore), testutil.Logger())
}

// SetupSubTest gives each s.Run subtest the same fresh fixtures as a test
// method; testify only runs SetupTest per method.
func (s *SubsidyServiceSuite) SetupSubTest() {
	s.SetupTest()
}

func (s *SubsidyServiceSuite) validInput() CreateInput {
	return CreateInput{
		Title:           "rural broadband",
		GovernmentID:    id.NewGovernmentID(),
		ProducerID:      id.NewProducerID(),
		AuditorID:       id.NewAuditorID(),
		ProducerAddress: "0xproducer",
		TotalAmount:     1000,
		Specs: []subsidy.MilestoneSpec{
			{Description: "trenching", Amount: 400},
			{Description: "fiber pull", Amount: 600},
		},
	}
}

func (s *SubsidyServiceSuite) TestCreate() {
	ctx := context.Background()

	s.Run("deploys escrow and persists the contract", func() {
		contract, err := s.service.Create(ctx, s.validInput())
		s.Require().NoError(err)

		s.NotEmpty(contract.ContractAddress)
		s.Equal(subsidy.StatusInProgress, contract.Status, "escrow is funded at deploy")
		s.True(contract.IsActive)
		s.Require().Len(contract.Milestones, 2)
		s.Equal(0, contract.Milestones[0].Index)
		s.Equal(id.Amount(400), contract.Milestones[0].Amount)
		s.False(contract.Milestones[0].IsReleased)

		// The escrow holds the full amount on the ledger.
		balance, err := s.gateway.GetBalance(ctx, contract.ContractAddress)
		s.Require().NoError(err)
		s.Equal(id.Amount(1000), balance)

		stored, err := s.store.Get(ctx, contract.ID)
		s.Require().NoError(err)
		s.Equal(contract.ContractAddress, stored.ContractAddress)

		events, err := s.trailStore.ListBySubsidy(ctx, contract.ID)
		s.Require().NoError(err)
		s.Require().Len(events, 1)
		s.Equal(audit.ActionEscrowDeployed, events[0].Action)
	})

	s.Run("milestone sum mismatch is rejected before any ledger call", func() {
		in := s.validInput()
		in.Specs[1].Amount = 500

		_, err := s.service.Create(ctx, in)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))

		contracts, err := s.store.ListActive(ctx)
		s.Require().NoError(err)
		s.Empty(contracts, "nothing persisted")
	})

	s.Run("empty milestone list is rejected", func() {
		in := s.validInput()
		in.Specs = nil
		_, err := s.service.Create(ctx, in)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("non-positive milestone amount is rejected", func() {
		in := s.validInput()
		in.Specs[0].Amount = 0
		in.Specs[1].Amount = 1000
		_, err := s.service.Create(ctx, in)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("missing title is rejected", func() {
		in := s.validInput()
		in.Title = ""
		_, err := s.service.Create(ctx, in)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *SubsidyServiceSuite) TestCreateOrphanTrail() {
	ctx := context.Background()

	// Persistence fails after successful deployment: escrowed money with no
	// usable record. The trail must carry an orphan marker.
	failing := &failingStore{InMemoryStore: s.store}
	svc := New(failing, s.gateway, audit.NewPublisher(s.trailStore), testutil.Logger())

	_, err := svc.Create(ctx, s.validInput())
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))

	// Orphan events carry no subsidy ID; they are keyed by the nil UUID.
	events, err := s.trailStore.ListBySubsidy(ctx, id.SubsidyID{})
	s.Require().NoError(err)
	s.Require().Len(events, 1)
	s.Equal(audit.ActionEscrowOrphaned, events[0].Action)
	s.Contains(events[0].Reason, "0x")
}

func (s *SubsidyServiceSuite) TestGet() {
	ctx := context.Background()

	s.Run("unknown subsidy returns not found", func() {
		_, err := s.service.Get(ctx, id.NewSubsidyID())
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("existing subsidy round-trips", func() {
		created, err := s.service.Create(ctx, s.validInput())
		s.Require().NoError(err)
		got, err := s.service.Get(ctx, created.ID)
		s.Require().NoError(err)
		s.Equal(created.ID, got.ID)
	})
}

func (s *SubsidyServiceSuite) TestListByProducer() {
	ctx := context.Background()

	in := s.validInput()
	_, err := s.service.Create(ctx, in)
	s.Require().NoError(err)
	_, err = s.service.Create(ctx, s.validInput())
	s.Require().NoError(err)

	mine, err := s.service.ListByProducer(ctx, in.ProducerID)
	s.Require().NoError(err)
	s.Len(mine, 1)

	all, err := s.service.ListActive(ctx)
	s.Require().NoError(err)
	s.Len(all, 2)
}

// failingStore fails every create to exercise the orphan path.
type failingStore struct {
	*subsidy.InMemoryStore
}

func (f *failingStore) Create(context.Context, *subsidy.SubsidyContract) error {
	return context.DeadlineExceeded
}
