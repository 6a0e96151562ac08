package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/apedley/SparkyFitness/internal/garmin"
	"github.com/apedley/SparkyFitness/internal/model"
)

type fakeProvider struct {
	loginResult  garmin.LoginResult
	loginErr     error
	resumeTokens model.SessionTokens
	resumeErr    error

	resumedWith *garmin.ChallengeState
	resumedCode string
}

func (f *fakeProvider) Login(_ context.Context, _, _ string) (garmin.LoginResult, error) {
	return f.loginResult, f.loginErr
}

func (f *fakeProvider) ResumeLogin(_ context.Context, st *garmin.ChallengeState, code string) (model.SessionTokens, error) {
	f.resumedWith = st
	f.resumedCode = code
	return f.resumeTokens, f.resumeErr
}

func newTestService(p Provider) *Service {
	return NewService(p, NewChallengeStore(time.Minute), zerolog.Nop())
}

func TestLogin_Success(t *testing.T) {
	p := &fakeProvider{loginResult: garmin.LoginResult{Tokens: "blob"}}
	svc := newTestService(p)

	resp, err := svc.Login(context.Background(), model.LoginRequest{Email: "a@b.c", Password: "pw", UserID: "u1"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if resp.Status != model.StatusSuccess || resp.Tokens != "blob" || resp.ClientState != "" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestLogin_MFAChallengeParked(t *testing.T) {
	challenge := &garmin.ChallengeState{}
	p := &fakeProvider{loginResult: garmin.LoginResult{Challenge: challenge}}
	svc := newTestService(p)

	resp, err := svc.Login(context.Background(), model.LoginRequest{Email: "a@b.c", Password: "pw", UserID: "u1"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if resp.Status != model.StatusNeedsMFA {
		t.Fatalf("expected needs_mfa, got %q", resp.Status)
	}
	if resp.Tokens != "" {
		t.Fatal("an mfa challenge must not carry tokens")
	}
	if len(resp.ClientState) != 32 {
		t.Fatalf("expected an opaque handle, got %q", resp.ClientState)
	}

	// the handle redeems the exact parked state
	p.resumeTokens = "blob2"
	resumed, err := svc.Resume(context.Background(), model.ResumeLoginRequest{ClientState: resp.ClientState, MFACode: "123456", UserID: "u1"})
	if err != nil {
		t.Fatalf("resume: %v", err)
	}
	if resumed.Status != model.StatusSuccess || resumed.Tokens != "blob2" {
		t.Fatalf("unexpected resume response: %+v", resumed)
	}
	if p.resumedWith != challenge || p.resumedCode != "123456" {
		t.Fatal("resume did not hand the parked challenge to the provider")
	}
}

func TestLogin_CredentialErrorPassesThrough(t *testing.T) {
	p := &fakeProvider{loginErr: model.ErrInvalidCredentials}
	svc := newTestService(p)

	_, err := svc.Login(context.Background(), model.LoginRequest{Email: "a@b.c", Password: "bad", UserID: "u1"})
	if !errors.Is(err, model.ErrInvalidCredentials) {
		t.Fatalf("expected credential error, got %v", err)
	}
}

func TestResume_UnknownHandle(t *testing.T) {
	svc := newTestService(&fakeProvider{})
	_, err := svc.Resume(context.Background(), model.ResumeLoginRequest{ClientState: "missing", MFACode: "111111", UserID: "u1"})
	if !errors.Is(err, model.ErrMFAStateNotFound) {
		t.Fatalf("expected handle error, got %v", err)
	}
}

func TestResume_HandleConsumedOnWrongCode(t *testing.T) {
	p := &fakeProvider{loginResult: garmin.LoginResult{Challenge: &garmin.ChallengeState{}}}
	svc := newTestService(p)

	resp, err := svc.Login(context.Background(), model.LoginRequest{Email: "a@b.c", Password: "pw", UserID: "u1"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	p.resumeErr = model.ErrMFACodeRejected
	_, err = svc.Resume(context.Background(), model.ResumeLoginRequest{ClientState: resp.ClientState, MFACode: "000000", UserID: "u1"})
	if !errors.Is(err, model.ErrMFACodeRejected) {
		t.Fatalf("expected code rejection, got %v", err)
	}

	// the handle was spent by the failed attempt
	p.resumeErr = nil
	_, err = svc.Resume(context.Background(), model.ResumeLoginRequest{ClientState: resp.ClientState, MFACode: "123456", UserID: "u1"})
	if !errors.Is(err, model.ErrMFAStateNotFound) {
		t.Fatalf("expected spent-handle error, got %v", err)
	}
}

func TestResume_ExpiredAndConsumedLookAlike(t *testing.T) {
	now := time.Unix(1000, 0)
	store := NewChallengeStoreWithClock(time.Minute, func() time.Time { return now })
	p := &fakeProvider{loginResult: garmin.LoginResult{Challenge: &garmin.ChallengeState{}}}
	svc := NewService(p, store, zerolog.Nop())

	first, err := svc.Login(context.Background(), model.LoginRequest{Email: "a@b.c", Password: "pw", UserID: "u1"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	second, err := svc.Login(context.Background(), model.LoginRequest{Email: "a@b.c", Password: "pw", UserID: "u1"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	// consume the first, expire the second
	if _, err := svc.Resume(context.Background(), model.ResumeLoginRequest{ClientState: first.ClientState, MFACode: "123456", UserID: "u1"}); err != nil {
		t.Fatalf("resume: %v", err)
	}
	now = now.Add(2 * time.Minute)

	_, errConsumed := svc.Resume(context.Background(), model.ResumeLoginRequest{ClientState: first.ClientState, MFACode: "123456", UserID: "u1"})
	_, errExpired := svc.Resume(context.Background(), model.ResumeLoginRequest{ClientState: second.ClientState, MFACode: "123456", UserID: "u1"})
	if !errors.Is(errConsumed, model.ErrMFAStateNotFound) || !errors.Is(errExpired, model.ErrMFAStateNotFound) {
		t.Fatalf("both must fail the same way: consumed=%v expired=%v", errConsumed, errExpired)
	}
	if errConsumed.Error() != errExpired.Error() {
		t.Fatalf("consumed and expired handles must be indistinguishable: %q vs %q", errConsumed, errExpired)
	}
}
