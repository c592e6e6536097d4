package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"subvene/internal/decision"
	"subvene/internal/platform/middleware"
	"subvene/internal/subsidy"
	id "subvene/pkg/domain"
	dErrors "subvene/pkg/domain-errors"
	"subvene/pkg/platform/httputil"
)

// Service defines the interface for auditor verdict operations.
type Service interface {
	Accept(ctx context.Context, subsidyID id.SubsidyID, auditorID id.AuditorID) (*decision.AcceptResult, error)
	Reject(ctx context.Context, subsidyID id.SubsidyID, auditorID id.AuditorID, reason string) (*subsidy.SubsidyContract, error)
}

// Handler wires auditor verdict endpoints to the decision service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts verdict endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/subsidies/{subsidyID}/accept", h.HandleAccept)
	r.Post("/subsidies/{subsidyID}/reject", h.HandleReject)
}

// HandleAccept handles POST /api/subsidies/{subsidyID}/accept. The verdict
// applies to the oldest pending submission and releases its milestone's
// funds.
func (h *Handler) HandleAccept(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)
	start := time.Now()

	subsidyID, auditorID, ok := h.verdictParams(w, r)
	if !ok {
		return
	}

	result, err := h.service.Accept(ctx, subsidyID, auditorID)
	if err != nil {
		h.logger.ErrorContext(ctx, "accept verdict failed",
			"request_id", requestID,
			"subsidy_id", subsidyID,
			"auditor_id", auditorID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "accept verdict applied",
		"request_id", requestID,
		"subsidy_id", subsidyID,
		"milestone_index", result.Submission.MilestoneIndex,
		"tx_hash", result.TxHash,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, FromAcceptResult(result))
}

// HandleReject handles POST /api/subsidies/{subsidyID}/reject.
func (h *Handler) HandleReject(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	subsidyID, auditorID, ok := h.verdictParams(w, r)
	if !ok {
		return
	}

	req, ok := httputil.DecodeAndPrepare[RejectRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	contract, err := h.service.Reject(ctx, subsidyID, auditorID, req.Reason)
	if err != nil {
		h.logger.ErrorContext(ctx, "reject verdict failed",
			"request_id", requestID,
			"subsidy_id", subsidyID,
			"auditor_id", auditorID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "subsidy rejected",
		"request_id", requestID,
		"subsidy_id", subsidyID,
		"auditor_id", auditorID,
	)
	httputil.WriteJSON(w, http.StatusOK, FromRejectedContract(contract))
}

// verdictParams extracts and authorizes the common verdict inputs: a valid
// subsidy ID in the path and an authenticated auditor caller.
func (h *Handler) verdictParams(w http.ResponseWriter, r *http.Request) (id.SubsidyID, id.AuditorID, bool) {
	ctx := r.Context()

	if middleware.GetRole(ctx) != "auditor" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "only auditor callers can issue verdicts"))
		return id.SubsidyID{}, id.AuditorID{}, false
	}
	auditorID, err := id.ParseAuditorID(middleware.GetSubjectID(ctx))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return id.SubsidyID{}, id.AuditorID{}, false
	}
	subsidyID, err := id.ParseSubsidyID(chi.URLParam(r, "subsidyID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "subsidy id must be a valid UUID"))
		return id.SubsidyID{}, id.AuditorID{}, false
	}
	return subsidyID, auditorID, true
}
