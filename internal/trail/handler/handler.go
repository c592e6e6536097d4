// Package handler exposes the per-subsidy action trail read surface.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	id "subvene/pkg/domain"
	dErrors "subvene/pkg/domain-errors"
	"subvene/pkg/platform/audit"
	"subvene/pkg/platform/httputil"
)

// Service defines the interface for trail reads.
type Service interface {
	List(ctx context.Context, subsidyID id.SubsidyID) ([]audit.Event, error)
}

// Handler wires the trail endpoint to the trail publisher.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the trail endpoint on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/subsidies/{subsidyID}/trail", h.HandleList)
}

// EventResponse is the HTTP shape of one trail event.
type EventResponse struct {
	Category       string    `json:"category"`
	Timestamp      time.Time `json:"timestamp"`
	Action         string    `json:"action"`
	SubsidyID      string    `json:"subsidy_id"`
	MilestoneIndex int       `json:"milestone_index"`
	TxHash         string    `json:"tx_hash,omitempty"`
	ActorRole      string    `json:"actor_role,omitempty"`
	ActorID        string    `json:"actor_id,omitempty"`
	Reason         string    `json:"reason,omitempty"`
}

// HandleList handles GET /api/subsidies/{subsidyID}/trail.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	subsidyID, err := id.ParseSubsidyID(chi.URLParam(r, "subsidyID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "subsidy id must be a valid UUID"))
		return
	}

	events, err := h.service.List(ctx, subsidyID)
	if err != nil {
		h.logger.ErrorContext(ctx, "trail listing failed",
			"subsidy_id", subsidyID,
			"error", err,
		)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list trail events"))
		return
	}

	out := make([]EventResponse, len(events))
	for i, e := range events {
		out[i] = EventResponse{
			Category:       string(e.Category),
			Timestamp:      e.Timestamp,
			Action:         string(e.Action),
			SubsidyID:      e.SubsidyID.String(),
			MilestoneIndex: e.MilestoneIndex,
			TxHash:         e.TxHash,
			ActorRole:      e.ActorRole,
			ActorID:        e.ActorID,
			Reason:         e.Reason,
		}
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}
