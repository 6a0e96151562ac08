// Package service implements the data endpoints' business logic: restoring
// an upstream session from caller tokens, running the wellness aggregation
// or activity assembly, and keeping the local snapshot store in sync with
// the configured data source.
package service

import (
	"context"

	"github.com/apedley/SparkyFitness/internal/activities"
	"github.com/apedley/SparkyFitness/internal/garmin"
	"github.com/apedley/SparkyFitness/internal/model"
	"github.com/apedley/SparkyFitness/internal/wellness"
)

// Session is the authenticated upstream surface the data services fetch
// from: the per-metric wellness calls plus the activity and workout calls.
type Session interface {
	wellness.MetricSource
	activities.Source
}

// Provider opens sessions from caller-held tokens. Restore fails with
// model.ErrInvalidCredentials when the tokens are malformed or rejected.
type Provider interface {
	Restore(ctx context.Context, tokens model.SessionTokens) (Session, error)
}

// UpstreamProvider adapts the garmin client to the Provider interface.
func UpstreamProvider(c *garmin.Client) Provider { return upstreamProvider{c} }

type upstreamProvider struct {
	c *garmin.Client
}

func (p upstreamProvider) Restore(ctx context.Context, tokens model.SessionTokens) (Session, error) {
	s, err := p.c.Restore(ctx, tokens)
	if err != nil {
		return nil, err
	}
	return s, nil
}
