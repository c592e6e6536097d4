package handler

import (
	"strings"

	"subvene/internal/subsidy"
	id "subvene/pkg/domain"
	dErrors "subvene/pkg/domain-errors"
)

// CreateSubsidyRequest is the HTTP request body for POST /api/subsidies.
type CreateSubsidyRequest struct {
	Title           string             `json:"title"`
	ProducerID      string             `json:"producer_id"`
	AuditorID       string             `json:"auditor_id"`
	ProducerAddress string             `json:"producer_address"`
	TotalAmount     int64              `json:"total_amount"`
	Milestones      []MilestoneRequest `json:"milestones"`

	// Parsed values (populated by Validate)
	parsedProducerID id.ProducerID
	parsedAuditorID  id.AuditorID
	parsedAmount     id.Amount
}

// MilestoneRequest is one milestone spec in the creation request.
type MilestoneRequest struct {
	Description string `json:"description"`
	Amount      int64  `json:"amount"`
}

// Validate validates and parses the request. Amount semantics (positivity,
// sum invariant) are enforced by the service; here we only parse shapes.
func (r *CreateSubsidyRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}

	r.Title = strings.TrimSpace(r.Title)
	if r.Title == "" {
		return dErrors.New(dErrors.CodeValidation, "title is required")
	}
	if len(r.Title) > 200 {
		return dErrors.New(dErrors.CodeValidation, "title must be at most 200 characters")
	}
	r.ProducerAddress = strings.TrimSpace(r.ProducerAddress)
	if r.ProducerAddress == "" {
		return dErrors.New(dErrors.CodeValidation, "producer_address is required")
	}
	if len(r.Milestones) == 0 {
		return dErrors.New(dErrors.CodeValidation, "at least one milestone is required")
	}

	producerID, err := id.ParseProducerID(r.ProducerID)
	if err != nil {
		return dErrors.New(dErrors.CodeValidation, "producer_id must be a valid UUID")
	}
	r.parsedProducerID = producerID

	auditorID, err := id.ParseAuditorID(r.AuditorID)
	if err != nil {
		return dErrors.New(dErrors.CodeValidation, "auditor_id must be a valid UUID")
	}
	r.parsedAuditorID = auditorID

	amount, err := id.ParseAmount(r.TotalAmount)
	if err != nil {
		return err
	}
	r.parsedAmount = amount
	return nil
}

// ParsedProducerID returns the validated producer ID.
func (r *CreateSubsidyRequest) ParsedProducerID() id.ProducerID { return r.parsedProducerID }

// ParsedAuditorID returns the validated auditor ID.
func (r *CreateSubsidyRequest) ParsedAuditorID() id.AuditorID { return r.parsedAuditorID }

// ParsedAmount returns the validated total amount.
func (r *CreateSubsidyRequest) ParsedAmount() id.Amount { return r.parsedAmount }

// Specs converts the request milestones to domain specs.
func (r *CreateSubsidyRequest) Specs() []subsidy.MilestoneSpec {
	specs := make([]subsidy.MilestoneSpec, len(r.Milestones))
	for i, m := range r.Milestones {
		specs[i] = subsidy.MilestoneSpec{
			Description: strings.TrimSpace(m.Description),
			Amount:      id.Amount(m.Amount),
		}
	}
	return specs
}
