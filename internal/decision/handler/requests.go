package handler

import (
	"strings"

	dErrors "subvene/pkg/domain-errors"
)

// RejectRequest is the HTTP request body for POST /api/subsidies/{id}/reject.
type RejectRequest struct {
	Reason string `json:"reason"`
}

// Validate validates the request. A reason is mandatory: rejection is
// terminal for the whole subsidy and the trail must say why.
func (r *RejectRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.Reason = strings.TrimSpace(r.Reason)
	if r.Reason == "" {
		return dErrors.New(dErrors.CodeValidation, "reason is required")
	}
	if len(r.Reason) > 2000 {
		return dErrors.New(dErrors.CodeValidation, "reason must be at most 2000 characters")
	}
	return nil
}
