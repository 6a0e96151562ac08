package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/apedley/SparkyFitness/internal/activities"
	"github.com/apedley/SparkyFitness/internal/model"
	"github.com/apedley/SparkyFitness/internal/replay"
)

// ActivitiesService serves POST /data/activities_and_workouts with the same
// garmin/local split as WellnessService.
type ActivitiesService struct {
	provider  Provider
	asm       *activities.Assembler
	snapshots *replay.Store
	local     bool
	log       zerolog.Logger
}

func NewActivitiesService(provider Provider, asm *activities.Assembler, snapshots *replay.Store, local bool, log zerolog.Logger) *ActivitiesService {
	return &ActivitiesService{provider: provider, asm: asm, snapshots: snapshots, local: local, log: log}
}

func (s *ActivitiesService) Fetch(ctx context.Context, req model.ActivitiesRequest) (*model.ActivitiesResponse, error) {
	if s.local {
		var resp model.ActivitiesResponse
		if err := loadSnapshot(ctx, s.snapshots, replay.DatasetActivities, &resp); err != nil {
			return nil, err
		}
		s.log.Info().Str("user_id", req.UserID).Msg("serving activities and workouts from local snapshot")
		return &resp, nil
	}

	sess, err := s.provider.Restore(ctx, model.SessionTokens(req.Tokens))
	if err != nil {
		return nil, err
	}
	acts, workouts, err := s.asm.ListAndEnrich(ctx, sess, req.StartDate.String(), req.EndDate.String(), req.ActivityType)
	if err != nil {
		return nil, err
	}

	resp := &model.ActivitiesResponse{
		UserID:     req.UserID,
		StartDate:  req.StartDate,
		EndDate:    req.EndDate,
		Activities: acts,
		Workouts:   workouts,
	}
	saveSnapshot(ctx, s.snapshots, replay.DatasetActivities, resp, s.log)
	return resp, nil
}
