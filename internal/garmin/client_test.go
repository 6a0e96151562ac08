package garmin

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/apedley/SparkyFitness/internal/model"
)

func TestNewClient_DomainAndTimeout(t *testing.T) {
	t.Parallel()
	c := NewClient(Config{}, zerolog.Nop())
	if c.domain != "garmin.com" {
		t.Fatalf("default domain = %s", c.domain)
	}
	if c.timeout != defaultTimeout {
		t.Fatalf("default timeout = %s", c.timeout)
	}

	cn := NewClient(Config{IsCN: true, Timeout: 5 * time.Second}, zerolog.Nop())
	if cn.domain != "garmin.cn" {
		t.Fatalf("cn domain = %s", cn.domain)
	}
	if cn.timeout != 5*time.Second {
		t.Fatalf("configured timeout = %s", cn.timeout)
	}
}

func TestRestore_MalformedTokens(t *testing.T) {
	t.Parallel()
	c := NewClient(Config{}, zerolog.Nop())

	// malformed blobs fail before any network call
	for _, blob := range []string{"", "not base64!!!", "aGVsbG8="} {
		if _, err := c.Restore(context.Background(), model.SessionTokens(blob)); !errors.Is(err, model.ErrInvalidCredentials) {
			t.Fatalf("blob %q: expected credential error, got %v", blob, err)
		}
	}
}

func TestResumeLogin_NilState(t *testing.T) {
	t.Parallel()
	c := NewClient(Config{}, zerolog.Nop())

	if _, err := c.ResumeLogin(context.Background(), nil, "123456"); !errors.Is(err, model.ErrMFAStateNotFound) {
		t.Fatalf("nil state: expected state-not-found, got %v", err)
	}
	if _, err := c.ResumeLogin(context.Background(), &ChallengeState{}, "123456"); !errors.Is(err, model.ErrMFAStateNotFound) {
		t.Fatalf("empty state: expected state-not-found, got %v", err)
	}
}

func TestFirstMatch_SSOPagePatterns(t *testing.T) {
	t.Parallel()
	signinPage := `<html><head><title>GARMIN Authentication Application</title></head>
	<body><form><input type="hidden" name="_csrf" value="abc-123-def" /></form></body></html>`
	if got := firstMatch(csrfRe, signinPage); got != "abc-123-def" {
		t.Fatalf("csrf = %q", got)
	}
	if got := firstMatch(titleRe, signinPage); got != "GARMIN Authentication Application" {
		t.Fatalf("title = %q", got)
	}

	successPage := `<script>var response_url = "https://connect.garmin.com/modern?embed?ticket=ST-012345-abcdef-cas";</script>`
	if got := firstMatch(ticketRe, successPage); got != "ST-012345-abcdef-cas" {
		t.Fatalf("ticket = %q", got)
	}

	mfaPage := `<html><head><title>MFA Required</title></head><body></body></html>`
	if got := firstMatch(titleRe, mfaPage); got != "MFA Required" {
		t.Fatalf("mfa title = %q", got)
	}

	if got := firstMatch(ticketRe, signinPage); got != "" {
		t.Fatalf("no ticket expected on the signin page, got %q", got)
	}
}
