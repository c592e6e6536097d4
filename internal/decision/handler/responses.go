package handler

import (
	"subvene/internal/decision"
	"subvene/internal/subsidy"
	subsidyhandler "subvene/internal/subsidy/handler"
)

// AcceptResponse is the HTTP response for a successful accept verdict.
type AcceptResponse struct {
	SubmissionID   string                          `json:"submission_id"`
	MilestoneIndex int                             `json:"milestone_index"`
	TxHash         string                          `json:"tx_hash,omitempty"`
	Subsidy        *subsidyhandler.SubsidyResponse `json:"subsidy"`
}

// FromAcceptResult converts a domain accept result to an HTTP response.
func FromAcceptResult(result *decision.AcceptResult) *AcceptResponse {
	return &AcceptResponse{
		SubmissionID:   result.Submission.ID.String(),
		MilestoneIndex: result.Submission.MilestoneIndex,
		TxHash:         result.TxHash,
		Subsidy:        subsidyhandler.FromContract(result.Subsidy),
	}
}

// RejectResponse is the HTTP response for a reject verdict.
type RejectResponse struct {
	Subsidy *subsidyhandler.SubsidyResponse `json:"subsidy"`
}

// FromRejectedContract converts the rejected contract to an HTTP response.
func FromRejectedContract(contract *subsidy.SubsidyContract) *RejectResponse {
	return &RejectResponse{Subsidy: subsidyhandler.FromContract(contract)}
}
