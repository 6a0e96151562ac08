package auth

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/apedley/SparkyFitness/internal/garmin"
	"github.com/apedley/SparkyFitness/internal/model"
)

// Provider is the upstream login surface the service drives. The concrete
// implementation is the garmin client.
type Provider interface {
	Login(ctx context.Context, email, password string) (garmin.LoginResult, error)
	ResumeLogin(ctx context.Context, st *garmin.ChallengeState, mfaCode string) (model.SessionTokens, error)
}

// Service is the login state machine. A login either completes with tokens
// or parks an MFA challenge in the store; a resume redeems a parked
// challenge exactly once.
type Service struct {
	provider Provider
	store    *ChallengeStore
	log      zerolog.Logger
}

func NewService(provider Provider, store *ChallengeStore, log zerolog.Logger) *Service {
	return &Service{provider: provider, store: store, log: log}
}

// Login exchanges credentials for tokens. When the account requires MFA the
// response carries an opaque handle instead; the provider challenge state
// never leaves the service.
func (s *Service) Login(ctx context.Context, req model.LoginRequest) (*model.LoginResponse, error) {
	res, err := s.provider.Login(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}
	if res.Challenge != nil {
		handle := s.store.Put(res.Challenge)
		s.log.Info().Str("user_id", req.UserID).Str("client_state", handle).Msg("mfa required, challenge parked")
		return &model.LoginResponse{Status: model.StatusNeedsMFA, ClientState: handle}, nil
	}
	s.log.Info().Str("user_id", req.UserID).Msg("garmin login succeeded")
	return &model.LoginResponse{Status: model.StatusSuccess, Tokens: res.Tokens}, nil
}

// Resume redeems the handle's parked challenge against the provider. The
// handle is consumed even when the code is wrong; the caller must restart
// the login to get a new one.
func (s *Service) Resume(ctx context.Context, req model.ResumeLoginRequest) (*model.LoginResponse, error) {
	state, ok := s.store.Pop(req.ClientState)
	if !ok {
		return nil, model.ErrMFAStateNotFound
	}
	tokens, err := s.provider.ResumeLogin(ctx, state, req.MFACode)
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("user_id", req.UserID).Msg("garmin login resumed after mfa")
	return &model.LoginResponse{Status: model.StatusSuccess, Tokens: tokens}, nil
}
