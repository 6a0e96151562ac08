package api

import (
	"net/http"
	"time"

	"github.com/apedley/SparkyFitness/internal/api/respond"
)

// HealthHandler handles the liveness probes.
type HealthHandler struct{}

func NewHealthHandler() *HealthHandler { return &HealthHandler{} }

// Root handles GET /.
func (h *HealthHandler) Root(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "Garmin Connect Microservice is running!",
	})
}

// CheckHealth handles GET /api/health. Always 200; the body reports status.
func (h *HealthHandler) CheckHealth(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}
