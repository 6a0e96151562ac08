package api

import (
	"context"
	"net/http"

	"github.com/apedley/SparkyFitness/internal/api/respond"
	"github.com/apedley/SparkyFitness/internal/api/validate"
	"github.com/apedley/SparkyFitness/internal/model"
)

// AuthService drives the two-phase Garmin login.
type AuthService interface {
	Login(ctx context.Context, req model.LoginRequest) (*model.LoginResponse, error)
	Resume(ctx context.Context, req model.ResumeLoginRequest) (*model.LoginResponse, error)
}

type AuthHandler struct {
	svc AuthService
}

func NewAuthHandler(svc AuthService) *AuthHandler {
	return &AuthHandler{svc: svc}
}

// Login handles POST /auth/garmin/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if err := validate.Body(r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}
	resp, err := h.svc.Login(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, resp)
}

// Resume handles POST /auth/garmin/resume_login.
func (h *AuthHandler) Resume(w http.ResponseWriter, r *http.Request) {
	var req model.ResumeLoginRequest
	if err := validate.Body(r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}
	resp, err := h.svc.Resume(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, resp)
}
