package handler

import (
	"time"

	"subvene/internal/subsidy"
)

// SubsidyResponse is the HTTP shape of a subsidy contract.
type SubsidyResponse struct {
	ID              string              `json:"id"`
	Title           string              `json:"title"`
	GovernmentID    string              `json:"government_id"`
	ProducerID      string              `json:"producer_id"`
	AuditorID       string              `json:"auditor_id"`
	TotalAmount     int64               `json:"total_amount"`
	Milestones      []MilestoneResponse `json:"milestones"`
	ContractAddress string              `json:"contract_address"`
	Status          string              `json:"status"`
	IsActive        bool                `json:"is_active"`
	CreatedAt       time.Time           `json:"created_at"`
}

// MilestoneResponse is one milestone in a subsidy response.
type MilestoneResponse struct {
	Index       int        `json:"index"`
	Description string     `json:"description"`
	Amount      int64      `json:"amount"`
	IsReleased  bool       `json:"is_released"`
	ReleasedAt  *time.Time `json:"released_at,omitempty"`
}

// FromContract converts a domain contract to an HTTP response.
func FromContract(c *subsidy.SubsidyContract) *SubsidyResponse {
	milestones := make([]MilestoneResponse, len(c.Milestones))
	for i, m := range c.Milestones {
		milestones[i] = MilestoneResponse{
			Index:       m.Index,
			Description: m.Description,
			Amount:      int64(m.Amount),
			IsReleased:  m.IsReleased,
			ReleasedAt:  m.ReleasedAt,
		}
	}
	return &SubsidyResponse{
		ID:              c.ID.String(),
		Title:           c.Title,
		GovernmentID:    c.GovernmentID.String(),
		ProducerID:      c.ProducerID.String(),
		AuditorID:       c.AuditorID.String(),
		TotalAmount:     int64(c.TotalAmount),
		Milestones:      milestones,
		ContractAddress: c.ContractAddress,
		Status:          string(c.Status),
		IsActive:        c.IsActive,
		CreatedAt:       c.CreatedAt,
	}
}

// FromContracts converts a contract list.
func FromContracts(contracts []*subsidy.SubsidyContract) []*SubsidyResponse {
	out := make([]*SubsidyResponse, len(contracts))
	for i, c := range contracts {
		out[i] = FromContract(c)
	}
	return out
}
