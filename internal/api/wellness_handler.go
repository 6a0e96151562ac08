package api

import (
	"context"
	"net/http"

	"github.com/apedley/SparkyFitness/internal/api/respond"
	"github.com/apedley/SparkyFitness/internal/api/validate"
	"github.com/apedley/SparkyFitness/internal/model"
)

// WellnessService aggregates per-day health metrics for a date range.
type WellnessService interface {
	Fetch(ctx context.Context, req model.WellnessRequest) (*model.WellnessResponse, error)
}

type WellnessHandler struct {
	svc WellnessService
}

func NewWellnessHandler(svc WellnessService) *WellnessHandler {
	return &WellnessHandler{svc: svc}
}

// Fetch handles POST /data/health_and_wellness.
func (h *WellnessHandler) Fetch(w http.ResponseWriter, r *http.Request) {
	var req model.WellnessRequest
	if err := validate.Body(r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}
	resp, err := h.svc.Fetch(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, resp)
}
