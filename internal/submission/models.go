package submission

import (
	"time"

	id "subvene/pkg/domain"
)

// Status is the submission review state.
type Status string

const (
	StatusSubmitted Status = "Submitted"
	StatusVerified  Status = "Verified"
	StatusRejected  Status = "Rejected"
)

// MilestoneSubmission is a producer's evidence-backed claim that a milestone
// was achieved. Submissions are append-only audit history: never deleted or
// overwritten in place, only status-transitioned.
type MilestoneSubmission struct {
	ID             id.SubmissionID `json:"id"`
	SubsidyID      id.SubsidyID    `json:"subsidy_id"`
	MilestoneIndex int             `json:"milestone_index"`
	ProducerID     id.ProducerID   `json:"producer_id"`
	// AuditorID is copied from the subsidy at creation time so the claim
	// keeps its reviewer even if the subsidy's auditor later changes.
	AuditorID   id.AuditorID `json:"auditor_id"`
	Description string       `json:"description"`
	EvidenceRef string       `json:"evidence_ref"`
	Status      Status       `json:"status"`
	VerifiedAt  *time.Time   `json:"verified_at,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
}
