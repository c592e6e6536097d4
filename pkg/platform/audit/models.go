package audit

import (
	"time"

	id "subvene/pkg/domain"
)

// EventCategory classifies trail events by their primary purpose. Compliance
// events are the durable money-movement record; operations events cover
// debugging and alerting.
type EventCategory string

const (
	// CategoryCompliance covers events with regulatory significance: escrow
	// deployment, fund releases, subsidy rejection. These form the durable
	// transaction trail.
	CategoryCompliance EventCategory = "compliance"

	// CategoryOperations covers operational visibility: sweeper repairs,
	// divergence alerts, cascade retries.
	CategoryOperations EventCategory = "operations"
)

// Action names for trail events.
type Action string

const (
	ActionEscrowDeployed     Action = "escrow_deployed"
	ActionEscrowOrphaned     Action = "escrow_orphaned"
	ActionMilestoneReleased  Action = "milestone_released"
	ActionSubsidyRejected    Action = "subsidy_rejected"
	ActionSubsidyCompleted   Action = "subsidy_completed"
	ActionDivergenceDetected Action = "divergence_detected"
	ActionDivergenceRepaired Action = "divergence_repaired"
	ActionCascadeRepaired    Action = "submission_cascade_repaired"
)

var actionCategories = map[Action]EventCategory{
	ActionEscrowDeployed:    CategoryCompliance,
	ActionEscrowOrphaned:    CategoryCompliance,
	ActionMilestoneReleased: CategoryCompliance,
	ActionSubsidyRejected:   CategoryCompliance,
	ActionSubsidyCompleted:  CategoryCompliance,

	ActionDivergenceDetected: CategoryOperations,
	ActionDivergenceRepaired: CategoryOperations,
	ActionCascadeRepaired:    CategoryOperations,
}

// Category returns the EventCategory for an action. Unknown actions default
// to CategoryOperations.
func (a Action) Category() EventCategory {
	if cat, ok := actionCategories[a]; ok {
		return cat
	}
	return CategoryOperations
}

// Event is one entry in the append-only per-subsidy action trail. It is
// transport-agnostic so stores and sinks can fan out the same record.
type Event struct {
	Category       EventCategory `json:"category"`
	Timestamp      time.Time     `json:"timestamp"`
	Action         Action        `json:"action"`
	SubsidyID      id.SubsidyID  `json:"subsidy_id"`
	MilestoneIndex int           `json:"milestone_index"`
	TxHash         string        `json:"tx_hash,omitempty"`
	// ActorRole records who triggered the action: government, producer,
	// auditor, or sweeper for background repairs.
	ActorRole string `json:"actor_role,omitempty"`
	ActorID   string `json:"actor_id,omitempty"`
	Reason    string `json:"reason,omitempty"`
}
