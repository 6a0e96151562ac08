package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/apedley/SparkyFitness/internal/model"
	"github.com/apedley/SparkyFitness/internal/replay"
	"github.com/apedley/SparkyFitness/internal/wellness"
)

// WellnessService serves POST /data/health_and_wellness. In garmin mode it
// aggregates live metrics and overwrites the local snapshot on the way out;
// in local mode it replays the last snapshot without touching the upstream.
type WellnessService struct {
	provider  Provider
	agg       *wellness.Aggregator
	snapshots *replay.Store
	local     bool
	log       zerolog.Logger
}

func NewWellnessService(provider Provider, agg *wellness.Aggregator, snapshots *replay.Store, local bool, log zerolog.Logger) *WellnessService {
	return &WellnessService{provider: provider, agg: agg, snapshots: snapshots, local: local, log: log}
}

func (s *WellnessService) Fetch(ctx context.Context, req model.WellnessRequest) (*model.WellnessResponse, error) {
	if s.local {
		var resp model.WellnessResponse
		if err := loadSnapshot(ctx, s.snapshots, replay.DatasetWellness, &resp); err != nil {
			return nil, err
		}
		s.log.Info().Str("user_id", req.UserID).Msg("serving health and wellness data from local snapshot")
		return &resp, nil
	}

	sess, err := s.provider.Restore(ctx, model.SessionTokens(req.Tokens))
	if err != nil {
		return nil, err
	}
	series, err := s.agg.Aggregate(ctx, sess, wellness.Request{
		UserID:     req.UserID,
		StartDate:  req.StartDate.String(),
		EndDate:    req.EndDate.String(),
		Categories: req.MetricTypes,
	})
	if err != nil {
		return nil, err
	}

	resp := &model.WellnessResponse{
		UserID:    req.UserID,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		Data:      series,
	}
	saveSnapshot(ctx, s.snapshots, replay.DatasetWellness, resp, s.log)
	return resp, nil
}

// loadSnapshot decodes the dataset's last snapshot into out. A missing
// snapshot surfaces as a not-found with guidance for switching the data
// source back to garmin.
func loadSnapshot(ctx context.Context, store *replay.Store, dataset string, out any) error {
	raw, err := store.Load(ctx, dataset)
	if err != nil {
		return fmt.Errorf("%w; set GARMIN_DATA_SOURCE=garmin to fetch and save data", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %q snapshot: %w", dataset, err)
	}
	return nil
}

// saveSnapshot persists the response for local replay. Failures are logged
// and never fail the request.
func saveSnapshot(ctx context.Context, store *replay.Store, dataset string, resp any, log zerolog.Logger) {
	payload, err := json.Marshal(resp)
	if err != nil {
		log.Warn().Err(err).Str("dataset", dataset).Msg("snapshot not saved: encode failed")
		return
	}
	if err := store.Save(ctx, dataset, payload); err != nil {
		log.Warn().Err(err).Str("dataset", dataset).Msg("snapshot not saved")
		return
	}
	log.Debug().Str("dataset", dataset).Int("bytes", len(payload)).Msg("snapshot saved")
}
