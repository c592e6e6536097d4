package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"subvene/internal/platform/middleware"
	"subvene/internal/submission"
	"subvene/internal/submission/service"
	id "subvene/pkg/domain"
	dErrors "subvene/pkg/domain-errors"
	"subvene/pkg/platform/httputil"
)

// Service defines the interface for submission pipeline operations.
type Service interface {
	Submit(ctx context.Context, in service.SubmitInput) (*submission.MilestoneSubmission, error)
	ListBySubsidy(ctx context.Context, subsidyID id.SubsidyID) ([]*submission.MilestoneSubmission, error)
}

// Handler wires submission endpoints to the submission service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts submission endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/subsidies/{subsidyID}/submissions", h.HandleCreate)
	r.Get("/subsidies/{subsidyID}/submissions", h.HandleList)
}

// HandleCreate handles POST /api/subsidies/{subsidyID}/submissions. Only
// producer callers submit; the authenticated subject is the claiming
// producer.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	if middleware.GetRole(ctx) != "producer" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "only producer callers can submit milestones"))
		return
	}
	producerID, err := id.ParseProducerID(middleware.GetSubjectID(ctx))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}
	subsidyID, err := id.ParseSubsidyID(chi.URLParam(r, "subsidyID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "subsidy id must be a valid UUID"))
		return
	}

	req, ok := httputil.DecodeAndPrepare[CreateSubmissionRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	sub, err := h.service.Submit(ctx, service.SubmitInput{
		SubsidyID:      subsidyID,
		MilestoneIndex: req.MilestoneIndex,
		ProducerID:     producerID,
		Description:    req.Description,
		EvidenceRef:    req.EvidenceRef,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "submission failed",
			"request_id", requestID,
			"subsidy_id", subsidyID,
			"milestone_index", req.MilestoneIndex,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, FromSubmission(sub))
}

// HandleList handles GET /api/subsidies/{subsidyID}/submissions.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	subsidyID, err := id.ParseSubsidyID(chi.URLParam(r, "subsidyID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "subsidy id must be a valid UUID"))
		return
	}
	subs, err := h.service.ListBySubsidy(ctx, subsidyID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromSubmissions(subs))
}
