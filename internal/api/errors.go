// Package api exposes the service over HTTP: the two data endpoints, the
// two-step login flow, and the health and metrics probes.
package api

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/apedley/SparkyFitness/internal/api/respond"
	"github.com/apedley/SparkyFitness/internal/model"
)

// writeServiceError maps domain sentinel errors onto HTTP statuses. Anything
// unrecognized is an internal error and logged with a stack.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, model.ErrValidation), errors.Is(err, model.ErrMFAStateNotFound):
		respond.WriteBadRequest(w, err.Error())
	case errors.Is(err, model.ErrInvalidCredentials), errors.Is(err, model.ErrMFACodeRejected):
		respond.WriteUnauthorized(w, err.Error())
	case errors.Is(err, model.ErrNotFound):
		respond.WriteNotFound(w, err.Error())
	case errors.Is(err, model.ErrUpstream):
		respond.WriteBadGateway(w, err.Error())
	default:
		log.Error().Stack().Err(err).Str("method", r.Method).Str("url", r.URL.String()).Msg("request failed")
		respond.WriteInternalError(w, err.Error())
	}
}
