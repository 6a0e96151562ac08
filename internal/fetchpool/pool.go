// Package fetchpool runs upstream fetch jobs on a fixed set of workers,
// bounding concurrency toward the provider. Callers track completion of
// their own jobs; the pool owns scheduling, per-job timeouts, panic
// containment, and metrics.
package fetchpool

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// ErrStopped is returned by Submit after Stop has been called.
var ErrStopped = errors.New("fetch pool stopped")

// QueueFullError reports a submission that waited the full enqueue timeout
// without a queue slot opening up.
type QueueFullError struct {
	Waited time.Duration
}

func (e *QueueFullError) Error() string {
	return fmt.Sprintf("fetch queue full after waiting %s", e.Waited)
}

// Config tunes the pool. Zero values fall back to defaults.
type Config struct {
	// Workers is the number of concurrent jobs (default 8).
	Workers int
	// QueueSize bounds jobs waiting for a worker (default 256).
	QueueSize int
	// EnqueueTimeout is how long Submit blocks on a full queue (default 5s).
	EnqueueTimeout time.Duration
	// JobTimeout bounds each job's context (default 20s). Zero disables.
	JobTimeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.Workers <= 0 {
		c.Workers = 8
	}
	if c.QueueSize <= 0 {
		c.QueueSize = 256
	}
	if c.EnqueueTimeout <= 0 {
		c.EnqueueTimeout = 5 * time.Second
	}
	if c.JobTimeout < 0 {
		c.JobTimeout = 0
	}
	return c
}

type queued struct {
	ctx context.Context
	job Job
}

// Pool dispatches jobs to a fixed number of workers over a bounded queue.
type Pool struct {
	cfg Config
	log zerolog.Logger

	mu      sync.RWMutex
	stopped bool
	jobs    chan queued

	wg sync.WaitGroup
}

// New starts the workers and returns a ready pool.
func New(log zerolog.Logger, cfg Config) *Pool {
	cfg = cfg.withDefaults()
	p := &Pool{
		cfg:  cfg,
		log:  log,
		jobs: make(chan queued, cfg.QueueSize),
	}
	p.wg.Add(cfg.Workers)
	for i := 0; i < cfg.Workers; i++ {
		go p.runWorker()
	}
	return p
}

// Submit enqueues a job. It blocks up to the enqueue timeout when the queue
// is full, and fails fast once the pool is stopped or ctx is done. The job's
// context is derived from ctx with the pool's per-job timeout applied.
func (p *Pool) Submit(ctx context.Context, j Job) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.stopped {
		return ErrStopped
	}

	timer := time.NewTimer(p.cfg.EnqueueTimeout)
	defer timer.Stop()

	select {
	case p.jobs <- queued{ctx: ctx, job: j}:
		submissionsTotal.Inc()
		queueDepth.Inc()
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		queueFullTotal.Inc()
		return &QueueFullError{Waited: p.cfg.EnqueueTimeout}
	}
}

// Stop rejects new submissions, drains queued jobs, and waits for workers to
// exit. Safe to call more than once.
func (p *Pool) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	close(p.jobs)
	p.mu.Unlock()
	p.wg.Wait()
}

func (p *Pool) runWorker() {
	defer p.wg.Done()
	for q := range p.jobs {
		queueDepth.Dec()
		p.runJob(q)
	}
}

func (p *Pool) runJob(q queued) {
	defer func() {
		if r := recover(); r != nil {
			jobsTotal.WithLabelValues("panic").Inc()
			p.log.Error().Interface("panic", r).Msg("fetch job panicked")
		}
	}()

	ctx := q.ctx
	if p.cfg.JobTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.JobTimeout)
		defer cancel()
	}

	start := time.Now()
	err := q.job.Run(ctx)
	runSeconds.Observe(time.Since(start).Seconds())
	if err != nil {
		jobsTotal.WithLabelValues("error").Inc()
		return
	}
	jobsTotal.WithLabelValues("ok").Inc()
}
