package handler

import (
	"time"

	"subvene/internal/submission"
)

// SubmissionResponse is the HTTP shape of a milestone submission.
type SubmissionResponse struct {
	ID             string     `json:"id"`
	SubsidyID      string     `json:"subsidy_id"`
	MilestoneIndex int        `json:"milestone_index"`
	ProducerID     string     `json:"producer_id"`
	AuditorID      string     `json:"auditor_id"`
	Description    string     `json:"description"`
	EvidenceRef    string     `json:"evidence_ref,omitempty"`
	Status         string     `json:"status"`
	VerifiedAt     *time.Time `json:"verified_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// FromSubmission converts a domain submission to an HTTP response.
func FromSubmission(s *submission.MilestoneSubmission) *SubmissionResponse {
	return &SubmissionResponse{
		ID:             s.ID.String(),
		SubsidyID:      s.SubsidyID.String(),
		MilestoneIndex: s.MilestoneIndex,
		ProducerID:     s.ProducerID.String(),
		AuditorID:      s.AuditorID.String(),
		Description:    s.Description,
		EvidenceRef:    s.EvidenceRef,
		Status:         string(s.Status),
		VerifiedAt:     s.VerifiedAt,
		CreatedAt:      s.CreatedAt,
	}
}

// FromSubmissions converts a submission list.
func FromSubmissions(subs []*submission.MilestoneSubmission) []*SubmissionResponse {
	out := make([]*SubmissionResponse, len(subs))
	for i, s := range subs {
		out[i] = FromSubmission(s)
	}
	return out
}
