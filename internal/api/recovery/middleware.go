package recovery

import (
	"net/http"
	"runtime/debug"

	"github.com/rs/zerolog/log"

	"github.com/apedley/SparkyFitness/internal/api/respond"
)

// Middleware intercepts panics from downstream handlers, logs details, and
// returns HTTP 500 in the standard error shape. Panic details stay in the log;
// the body never echoes them.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Error().
					Interface("panic", rec).
					Str("method", r.Method).
					Str("url", r.URL.String()).
					Str("remote", r.RemoteAddr).
					Bytes("stack", debug.Stack()).
					Msg("panic recovered")

				respond.WriteInternalError(w, "")
			}
		}()
		next.ServeHTTP(w, r)
	})
}
