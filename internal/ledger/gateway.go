// Package ledger wraps the external escrow ledger node. The ledger is the
// single source of truth for money movement; everything local is a projection
// of it.
package ledger

import (
	"context"
	"errors"
	"fmt"

	domain "subvene/pkg/domain"
)

// Gateway is the consumed ledger capability. Every call is a network round
// trip with wait-for-confirmation semantics: fallible, latency-bearing, and
// never assumed to have succeeded synchronously.
type Gateway interface {
	// Deploy creates the escrow contract for a producer and pre-funds it with
	// the subsidy's total amount in one atomic on-ledger step.
	Deploy(ctx context.Context, producerAddress string, totalAmount domain.Amount) (DeployResult, error)

	// AddMilestone appends a milestone slot to a deployed escrow contract.
	AddMilestone(ctx context.Context, contractAddress, description string, amount domain.Amount) error

	// ReleaseMilestone moves one milestone's funds to the producer. This call
	// is NOT idempotent at the ledger level; callers own the guard.
	ReleaseMilestone(ctx context.Context, contractAddress string, index int) (Receipt, error)

	// GetMilestoneState reports the authoritative released flag for one
	// milestone. This is the read used to decide whether a retry is safe.
	GetMilestoneState(ctx context.Context, contractAddress string, index int) (MilestoneState, error)

	// GetBalance reports the remaining escrowed amount on a contract.
	GetBalance(ctx context.Context, address string) (domain.Amount, error)
}

// DeployResult identifies a freshly deployed, funded escrow contract.
type DeployResult struct {
	ContractAddress string
	TxHash          string
}

// Receipt confirms an included release transaction.
type Receipt struct {
	TxHash string
}

// MilestoneState is the ledger's view of one milestone.
type MilestoneState struct {
	Released bool
}

// Outcome classifies what is known about a failed call. Retrying a
// state-changing call is only safe when the outcome is ConfirmedFailed, or
// after a fresh GetMilestoneState says the funds did not move.
type Outcome string

const (
	// OutcomeConfirmedFailed: the node confirmed the transaction reverted or
	// was rejected. No state changed; retrying is safe.
	OutcomeConfirmedFailed Outcome = "confirmed_failed"

	// OutcomeUnknown: the call timed out or the connection dropped mid-flight.
	// The transaction may or may not have been included. Never retry a
	// state-changing call on this outcome without re-querying ledger state.
	OutcomeUnknown Outcome = "unknown"
)

// Category is the normalized failure taxonomy for ledger calls.
type Category string

const (
	CategoryTimeout    Category = "timeout"
	CategoryNodeOutage Category = "node_outage"
	CategoryReverted   Category = "reverted"
	CategoryBadData    Category = "bad_data"
	CategoryInternal   Category = "internal"
)

// CallError wraps ledger failures with normalized categorization and an
// outcome classification.
type CallError struct {
	Category   Category
	Outcome    Outcome
	Method     string
	Message    string
	Underlying error
}

func (e *CallError) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("ledger %s [%s/%s]: %s: %v", e.Method, e.Category, e.Outcome, e.Message, e.Underlying)
	}
	return fmt.Sprintf("ledger %s [%s/%s]: %s", e.Method, e.Category, e.Outcome, e.Message)
}

func (e *CallError) Unwrap() error { return e.Underlying }

// NewCallError creates a normalized ledger call error.
func NewCallError(category Category, outcome Outcome, method, message string, underlying error) *CallError {
	return &CallError{
		Category:   category,
		Outcome:    outcome,
		Method:     method,
		Message:    message,
		Underlying: underlying,
	}
}

// OutcomeOf extracts the outcome from an error. Errors that are not ledger
// call errors are treated as unknown, the conservative choice.
func OutcomeOf(err error) Outcome {
	var ce *CallError
	if errors.As(err, &ce) {
		return ce.Outcome
	}
	return OutcomeUnknown
}

// IsConfirmedFailed reports whether the ledger positively confirmed that no
// state changed.
func IsConfirmedFailed(err error) bool {
	return OutcomeOf(err) == OutcomeConfirmedFailed
}
