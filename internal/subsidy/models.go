package subsidy

import (
	"time"

	id "subvene/pkg/domain"
	dErrors "subvene/pkg/domain-errors"
)

// Status is the subsidy lifecycle state. Created and Funded exist for wire
// compatibility with older records; creation deploys and funds the escrow in
// one step, so new contracts start at InProgress.
type Status string

const (
	StatusCreated    Status = "Created"
	StatusFunded     Status = "Funded"
	StatusInProgress Status = "InProgress"
	StatusCompleted  Status = "Completed"
	StatusRejected   Status = "Rejected"
)

// Milestone is one funded sub-goal. Index and Amount are fixed at creation;
// IsReleased only ever transitions false to true.
type Milestone struct {
	Index       int        `json:"index"`
	Description string     `json:"description"`
	Amount      id.Amount  `json:"amount"`
	IsReleased  bool       `json:"is_released"`
	ReleasedAt  *time.Time `json:"released_at,omitempty"`
}

// MilestoneSpec is the creation-time shape of a milestone.
type MilestoneSpec struct {
	Description string
	Amount      id.Amount
}

// SubsidyContract mirrors the escrowed on-ledger contract. The milestone
// array is embedded: milestones are not independently addressable and are
// only ever updated through their owning contract.
type SubsidyContract struct {
	ID              id.SubsidyID    `json:"id"`
	Title           string          `json:"title"`
	GovernmentID    id.GovernmentID `json:"government_id"`
	ProducerID      id.ProducerID   `json:"producer_id"`
	AuditorID       id.AuditorID    `json:"auditor_id"`
	TotalAmount     id.Amount       `json:"total_amount"`
	Milestones      []Milestone     `json:"milestones"`
	ContractAddress string          `json:"contract_address"`
	Status          Status          `json:"status"`
	IsActive        bool            `json:"is_active"`
	CreatedAt       time.Time       `json:"created_at"`
}

// ValidateSpecs enforces the creation invariant: milestone amounts must sum
// exactly to the total. Returns a validation error with no side effects.
func ValidateSpecs(totalAmount id.Amount, specs []MilestoneSpec) error {
	if len(specs) == 0 {
		return dErrors.New(dErrors.CodeValidation, "at least one milestone is required")
	}
	amounts := make([]id.Amount, 0, len(specs))
	for _, spec := range specs {
		if spec.Amount <= 0 {
			return dErrors.New(dErrors.CodeValidation, "milestone amounts must be positive")
		}
		if spec.Description == "" {
			return dErrors.New(dErrors.CodeValidation, "milestone descriptions cannot be empty")
		}
		amounts = append(amounts, spec.Amount)
	}
	sum, err := id.SumAmounts(amounts)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeValidation, "milestone amounts overflow")
	}
	if sum != totalAmount {
		return dErrors.New(dErrors.CodeValidation, "milestone amounts must sum to the total amount")
	}
	return nil
}

// AllReleased reports whether every milestone's funds have moved.
func (s *SubsidyContract) AllReleased() bool {
	for _, m := range s.Milestones {
		if !m.IsReleased {
			return false
		}
	}
	return len(s.Milestones) > 0
}

// RecomputeStatus derives the lifecycle state from milestone flags. Rejected
// is sticky: once terminal, nothing moves it.
func (s *SubsidyContract) RecomputeStatus() Status {
	if s.Status == StatusRejected {
		return StatusRejected
	}
	if s.AllReleased() {
		return StatusCompleted
	}
	return StatusInProgress
}

// MilestoneAt bounds-checks an index against the fixed milestone list.
func (s *SubsidyContract) MilestoneAt(index int) (*Milestone, error) {
	if index < 0 || index >= len(s.Milestones) {
		return nil, dErrors.New(dErrors.CodeNotFound, "milestone index out of range")
	}
	return &s.Milestones[index], nil
}
