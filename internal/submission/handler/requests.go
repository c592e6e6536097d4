package handler

import (
	"strings"

	dErrors "subvene/pkg/domain-errors"
)

// CreateSubmissionRequest is the HTTP request body for
// POST /api/subsidies/{subsidyID}/submissions.
type CreateSubmissionRequest struct {
	MilestoneIndex int    `json:"milestone_index"`
	Description    string `json:"description"`
	EvidenceRef    string `json:"evidence_ref"`
}

// Validate validates the request.
func (r *CreateSubmissionRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if r.MilestoneIndex < 0 {
		return dErrors.New(dErrors.CodeValidation, "milestone_index must not be negative")
	}
	r.Description = strings.TrimSpace(r.Description)
	if r.Description == "" {
		return dErrors.New(dErrors.CodeValidation, "description is required")
	}
	if len(r.Description) > 2000 {
		return dErrors.New(dErrors.CodeValidation, "description must be at most 2000 characters")
	}
	r.EvidenceRef = strings.TrimSpace(r.EvidenceRef)
	return nil
}
