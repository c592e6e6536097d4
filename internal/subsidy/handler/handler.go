package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"subvene/internal/platform/middleware"
	"subvene/internal/subsidy"
	"subvene/internal/subsidy/service"
	id "subvene/pkg/domain"
	dErrors "subvene/pkg/domain-errors"
	"subvene/pkg/platform/httputil"
)

// Service defines the interface for subsidy registry operations.
type Service interface {
	Create(ctx context.Context, in service.CreateInput) (*subsidy.SubsidyContract, error)
	Get(ctx context.Context, subsidyID id.SubsidyID) (*subsidy.SubsidyContract, error)
	ListActive(ctx context.Context) ([]*subsidy.SubsidyContract, error)
	ListByProducer(ctx context.Context, producerID id.ProducerID) ([]*subsidy.SubsidyContract, error)
}

// Handler wires subsidy registry endpoints to the subsidy service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts subsidy endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/subsidies", h.HandleCreate)
	r.Get("/subsidies", h.HandleList)
	r.Get("/subsidies/{subsidyID}", h.HandleGet)
}

// HandleCreate handles POST /api/subsidies. Only government callers may
// create subsidies; the authenticated subject becomes the contract's
// government reference.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)
	start := time.Now()

	if middleware.GetRole(ctx) != "government" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "only government callers can create subsidies"))
		return
	}
	governmentID, err := id.ParseGovernmentID(middleware.GetSubjectID(ctx))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	req, ok := httputil.DecodeAndPrepare[CreateSubsidyRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	contract, err := h.service.Create(ctx, service.CreateInput{
		Title:           req.Title,
		GovernmentID:    governmentID,
		ProducerID:      req.ParsedProducerID(),
		AuditorID:       req.ParsedAuditorID(),
		ProducerAddress: req.ProducerAddress,
		TotalAmount:     req.ParsedAmount(),
		Specs:           req.Specs(),
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "subsidy creation failed",
			"request_id", requestID,
			"producer_id", req.ProducerID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "subsidy created",
		"request_id", requestID,
		"subsidy_id", contract.ID,
		"contract_address", contract.ContractAddress,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusCreated, FromContract(contract))
}

// HandleGet handles GET /api/subsidies/{subsidyID}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	subsidyID, err := id.ParseSubsidyID(chi.URLParam(r, "subsidyID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "subsidy id must be a valid UUID"))
		return
	}

	contract, err := h.service.Get(ctx, subsidyID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromContract(contract))
}

// HandleList handles GET /api/subsidies, optionally filtered by producer via
// the producer_id query parameter.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if raw := r.URL.Query().Get("producer_id"); raw != "" {
		producerID, err := id.ParseProducerID(raw)
		if err != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "producer_id must be a valid UUID"))
			return
		}
		contracts, err := h.service.ListByProducer(ctx, producerID)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, FromContracts(contracts))
		return
	}

	contracts, err := h.service.ListActive(ctx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromContracts(contracts))
}
