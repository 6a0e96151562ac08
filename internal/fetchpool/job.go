package fetchpool

import "context"

// Job is a unit of upstream work executed by the pool.
type Job interface {
	Run(ctx context.Context) error
}

// JobFunc adapts a plain function to the Job interface.
type JobFunc func(ctx context.Context) error

// Run implements Job.
func (f JobFunc) Run(ctx context.Context) error { return f(ctx) }
