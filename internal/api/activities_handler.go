package api

import (
	"context"
	"net/http"

	"github.com/apedley/SparkyFitness/internal/api/respond"
	"github.com/apedley/SparkyFitness/internal/api/validate"
	"github.com/apedley/SparkyFitness/internal/model"
)

// ActivitiesService lists and enriches activities and workouts for a range.
type ActivitiesService interface {
	Fetch(ctx context.Context, req model.ActivitiesRequest) (*model.ActivitiesResponse, error)
}

type ActivitiesHandler struct {
	svc ActivitiesService
}

func NewActivitiesHandler(svc ActivitiesService) *ActivitiesHandler {
	return &ActivitiesHandler{svc: svc}
}

// Fetch handles POST /data/activities_and_workouts.
func (h *ActivitiesHandler) Fetch(w http.ResponseWriter, r *http.Request) {
	var req model.ActivitiesRequest
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
