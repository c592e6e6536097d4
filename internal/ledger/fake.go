package ledger

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	domain "subvene/pkg/domain"
)

// FakeGateway is an in-memory ledger with deterministic behavior and a
// configurable latency to mimic real confirmation waits. Tests use it to
// seed divergence and to count state-changing calls; dev runs use it when no
// node is configured.
type FakeGateway struct {
	Latency time.Duration

	mu        sync.Mutex
	contracts map[string]*fakeContract

	// ReleaseCalls counts ReleaseMilestone invocations, including failed
	// ones. The idempotence tests assert on it.
	ReleaseCalls int

	// FailNextRelease injects one failure with the given outcome, then
	// clears itself. With OutcomeUnknown the release still happens on the
	// fake ledger, mimicking a timed-out call that was actually included.
	FailNextRelease *CallError
}

type fakeContract struct {
	producerAddress string
	balance         domain.Amount
	milestones      []fakeMilestone
}

type fakeMilestone struct {
	amount   domain.Amount
	released bool
}

func NewFakeGateway() *FakeGateway {
	return &FakeGateway{contracts: make(map[string]*fakeContract)}
}

func (g *FakeGateway) wait(ctx context.Context) error {
	if g.Latency == 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return NewCallError(CategoryTimeout, OutcomeUnknown, "fake", "context cancelled", ctx.Err())
	case <-time.After(g.Latency):
		return nil
	}
}

func (g *FakeGateway) Deploy(ctx context.Context, producerAddress string, totalAmount domain.Amount) (DeployResult, error) {
	if err := g.wait(ctx); err != nil {
		return DeployResult{}, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	addr := "0x" + uuid.NewString()[:20]
	g.contracts[addr] = &fakeContract{
		producerAddress: producerAddress,
		balance:         totalAmount,
	}
	return DeployResult{ContractAddress: addr, TxHash: newTxHash()}, nil
}

func (g *FakeGateway) AddMilestone(ctx context.Context, contractAddress, description string, amount domain.Amount) error {
	if err := g.wait(ctx); err != nil {
		return err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	c, ok := g.contracts[contractAddress]
	if !ok {
		return NewCallError(CategoryBadData, OutcomeConfirmedFailed, "escrow_addMilestone", "unknown contract", nil)
	}
	c.milestones = append(c.milestones, fakeMilestone{amount: amount})
	return nil
}

func (g *FakeGateway) ReleaseMilestone(ctx context.Context, contractAddress string, index int) (Receipt, error) {
	if err := g.wait(ctx); err != nil {
		return Receipt{}, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.ReleaseCalls++

	c, ok := g.contracts[contractAddress]
	if !ok {
		return Receipt{}, NewCallError(CategoryBadData, OutcomeConfirmedFailed, "escrow_release", "unknown contract", nil)
	}
	if index < 0 || index >= len(c.milestones) {
		return Receipt{}, NewCallError(CategoryBadData, OutcomeConfirmedFailed, "escrow_release", "milestone index out of range", nil)
	}
	if c.milestones[index].released {
		return Receipt{}, NewCallError(CategoryReverted, OutcomeConfirmedFailed, "escrow_release", "milestone already released", nil)
	}

	if fail := g.FailNextRelease; fail != nil {
		g.FailNextRelease = nil
		if fail.Outcome == OutcomeUnknown {
			// The transaction went through; only the response was lost.
			c.milestones[index].released = true
			c.balance -= c.milestones[index].amount
		}
		return Receipt{}, fail
	}

	c.milestones[index].released = true
	c.balance -= c.milestones[index].amount
	return Receipt{TxHash: newTxHash()}, nil
}

func (g *FakeGateway) GetMilestoneState(ctx context.Context, contractAddress string, index int) (MilestoneState, error) {
	if err := g.wait(ctx); err != nil {
		return MilestoneState{}, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	c, ok := g.contracts[contractAddress]
	if !ok {
		return MilestoneState{}, NewCallError(CategoryBadData, OutcomeConfirmedFailed, "escrow_milestoneState", "unknown contract", nil)
	}
	if index < 0 || index >= len(c.milestones) {
		return MilestoneState{}, NewCallError(CategoryBadData, OutcomeConfirmedFailed, "escrow_milestoneState", "milestone index out of range", nil)
	}
	return MilestoneState{Released: c.milestones[index].released}, nil
}

func (g *FakeGateway) GetBalance(ctx context.Context, address string) (domain.Amount, error) {
	if err := g.wait(ctx); err != nil {
		return 0, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	c, ok := g.contracts[address]
	if !ok {
		return 0, NewCallError(CategoryBadData, OutcomeConfirmedFailed, "escrow_getBalance", "unknown contract", nil)
	}
	return c.balance, nil
}

// SetReleased flips a milestone directly on the fake ledger, bypassing the
// gateway surface. Sweeper tests use it to seed divergence.
func (g *FakeGateway) SetReleased(contractAddress string, index int, released bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if c, ok := g.contracts[contractAddress]; ok && index >= 0 && index < len(c.milestones) {
		c.milestones[index].released = released
	}
}

func newTxHash() string {
	return fmt.Sprintf("0x%x%x", uuid.New(), uuid.New())
}

var _ Gateway = (*FakeGateway)(nil)
