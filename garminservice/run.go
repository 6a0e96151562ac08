// Package garminservice assembles and runs the Garmin gateway HTTP server.
package garminservice

import (
	"context"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/apedley/SparkyFitness/internal/activities"
	"github.com/apedley/SparkyFitness/internal/api"
	"github.com/apedley/SparkyFitness/internal/auth"
	"github.com/apedley/SparkyFitness/internal/config"
	"github.com/apedley/SparkyFitness/internal/fetchpool"
	"github.com/apedley/SparkyFitness/internal/garmin"
	"github.com/apedley/SparkyFitness/internal/logger"
	"github.com/apedley/SparkyFitness/internal/replay"
	"github.com/apedley/SparkyFitness/internal/service"
	"github.com/apedley/SparkyFitness/internal/wellness"
)

// Run starts the gateway HTTP server and blocks until shutdown or error.
func Run() error {
	log := logger.New("garmin-service")

	cfg, err := config.New()
	if err != nil {
		log.Error().Err(err).Msg("Failed to load configuration")
		return err
	}

	log.Info().
		Int("port", cfg.ServicePort).
		Str("data_source", cfg.DataSource).
		Bool("is_cn", cfg.ServiceIsCN).
		Int("fetch_concurrency", cfg.FetchConcurrency).
		Msg("Garmin gateway starting")

	// Create cancellable root context bound to SIGINT/SIGTERM
	ctx, stop := newServerContext()
	defer stop()

	snapshots, err := replay.Open(cfg.ReplayDBPath)
	if err != nil {
		log.Error().Stack().Err(err).Msg("Snapshot store unavailable")
		return err
	}
	defer func() { _ = snapshots.Close() }()

	pool := fetchpool.New(log, fetchpool.Config{
		Workers:    cfg.FetchConcurrency,
		JobTimeout: cfg.UpstreamTimeout(),
	})
	defer pool.Stop()

	// Build router
	router := buildRouter(cfg, pool, snapshots, log)

	// HTTP server and serve
	server := newHTTPServer(ctx, cfg, router)
	errCh := serveHTTP(server, log, cfg)

	// Graceful shutdown on context cancel or server error
	select {
	case <-ctx.Done():
		log.Info().Msg("Shutting down server")
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctxShutdown); err != nil {
			log.Error().Stack().Err(err).Msg("Server forced to shutdown")
			return err
		}
		log.Info().Msg("Server exited")
		return nil
	case err := <-errCh:
		log.Error().Stack().Err(err).Msg("HTTP server failed")
		return err
	}
}

// buildRouter wires the Connect client, services, and handlers into the router.
func buildRouter(cfg *config.Config, pool *fetchpool.Pool, snapshots *replay.Store, log zerolog.Logger) *mux.Router {
	connect := garmin.NewClient(garmin.Config{
		IsCN:    cfg.ServiceIsCN,
		Timeout: cfg.UpstreamTimeout(),
	}, log)
	provider := service.UpstreamProvider(connect)

	wellnessSvc := service.NewWellnessService(
		provider,
		wellness.NewAggregator(pool, log),
		snapshots,
		cfg.IsLocalSource(),
		log,
	)
	activitiesSvc := service.NewActivitiesService(
		provider,
		activities.NewAssembler(pool, log),
		snapshots,
		cfg.IsLocalSource(),
		log,
	)
	authSvc := auth.NewService(connect, auth.NewChallengeStore(auth.DefaultTTL), log)

	return api.NewRouter(wellnessSvc, activitiesSvc, authSvc)
}

func newHTTPServer(ctx context.Context, cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           handler,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
}

func serveHTTP(server *http.Server, log zerolog.Logger, cfg *config.Config) <-chan error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Int("port", cfg.ServicePort).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()
	return errCh
}

// newServerContext returns a cancellable context that is cancelled on SIGINT/SIGTERM.
func newServerContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
