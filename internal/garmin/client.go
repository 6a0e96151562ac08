// Package garmin speaks to Garmin's SSO and Connect APIs: the two-phase
// credential/MFA exchange that issues session tokens, and the per-date,
// per-activity data endpoints bound to a restored session.
package garmin

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"github.com/apedley/SparkyFitness/internal/model"
)

const (
	userAgent      = "com.garmin.android.apps.connectmobile"
	defaultTimeout = 20 * time.Second
)

// The SSO endpoints answer with HTML; these pull out the pieces the exchange
// needs. The ticket pattern matches the embed redirect the success page
// scripts in.
var (
	csrfRe   = regexp.MustCompile(`name="_csrf"\s+value="([^"]+)"`)
	ticketRe = regexp.MustCompile(`embed\?ticket=([^"]+)"`)
	titleRe  = regexp.MustCompile(`<title>([^<]*)</title>`)
)

// Config tunes the client. Zero values fall back to defaults.
type Config struct {
	// IsCN switches every host to the China domain.
	IsCN bool
	// Timeout bounds each upstream HTTP call (default 20s).
	Timeout time.Duration
}

// Client drives logins and restores sessions. It is stateless between
// calls; per-attempt cookie state lives in the attempt's own HTTP client.
type Client struct {
	domain  string
	timeout time.Duration
	log     zerolog.Logger
}

func NewClient(cfg Config, log zerolog.Logger) *Client {
	domain := "garmin.com"
	if cfg.IsCN {
		domain = "garmin.cn"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{domain: domain, timeout: timeout, log: log}
}

// ChallengeState is the in-flight half of an MFA login: the cookie-bound
// client of the original attempt plus the form token for the code page. It
// never leaves process memory; callers hold it via an opaque handle.
type ChallengeState struct {
	http *resty.Client
	csrf string
}

// LoginResult carries either session tokens or, when the account requires
// MFA, the challenge state to resume with.
type LoginResult struct {
	Tokens    model.SessionTokens
	Challenge *ChallengeState
}

// Login performs the SSO credential exchange. Rejected credentials and a
// missing service ticket both surface as invalid credentials; an MFA
// requirement is not an error.
func (c *Client) Login(ctx context.Context, email, password string) (LoginResult, error) {
	sso := c.newSSOClient()
	query := c.signinQuery()

	page, err := c.ssoGET(ctx, sso, "/sso/signin", query)
	if err != nil {
		return LoginResult{}, err
	}
	csrf := firstMatch(csrfRe, page)
	if csrf == "" {
		return LoginResult{}, fmt.Errorf("%w: signin page without csrf token", model.ErrUpstream)
	}

	form := map[string]string{
		"username": email,
		"password": password,
		"embed":    "true",
		"_csrf":    csrf,
	}
	resp, err := c.ssoPOST(ctx, sso, "/sso/signin", query, form)
	if err != nil {
		return LoginResult{}, err
	}
	switch resp.StatusCode() {
	case http.StatusUnauthorized, http.StatusForbidden:
		return LoginResult{}, fmt.Errorf("%w: credential exchange rejected", model.ErrInvalidCredentials)
	}
	if resp.IsError() {
		return LoginResult{}, fmt.Errorf("%w: POST /sso/signin: status %d", model.ErrUpstream, resp.StatusCode())
	}

	body := resp.String()
	if strings.Contains(firstMatch(titleRe, body), "MFA") {
		mfaCSRF := firstMatch(csrfRe, body)
		if mfaCSRF == "" {
			return LoginResult{}, fmt.Errorf("%w: mfa page without csrf token", model.ErrUpstream)
		}
		c.log.Debug().Msg("sso responded with mfa challenge")
		return LoginResult{Challenge: &ChallengeState{http: sso, csrf: mfaCSRF}}, nil
	}

	ticket := firstMatch(ticketRe, body)
	if ticket == "" {
		return LoginResult{}, fmt.Errorf("%w: no service ticket in sso response", model.ErrInvalidCredentials)
	}
	tokens, err := c.exchangeTicket(ctx, sso, ticket)
	if err != nil {
		return LoginResult{}, err
	}
	return LoginResult{Tokens: tokens}, nil
}

// ResumeLogin submits the MFA code against a parked login attempt and
// finishes the exchange.
func (c *Client) ResumeLogin(ctx context.Context, st *ChallengeState, mfaCode string) (model.SessionTokens, error) {
	if st == nil || st.http == nil {
		return "", model.ErrMFAStateNotFound
	}
	form := map[string]string{
		"mfa-code": mfaCode,
		"embed":    "true",
		"_csrf":    st.csrf,
		"fromPage": "setupEnterMfaCode",
	}
	resp, err := c.ssoPOST(ctx, st.http, "/sso/verifyMFA/loginEnterMfaCode", nil, form)
	if err != nil {
		return "", err
	}
	switch resp.StatusCode() {
	case http.StatusUnauthorized, http.StatusForbidden:
		return "", fmt.Errorf("%w: mfa verification rejected", model.ErrMFACodeRejected)
	}
	if resp.IsError() {
		return "", fmt.Errorf("%w: POST /sso/verifyMFA/loginEnterMfaCode: status %d", model.ErrUpstream, resp.StatusCode())
	}
	ticket := firstMatch(ticketRe, resp.String())
	if ticket == "" {
		return "", fmt.Errorf("%w: no service ticket after mfa code", model.ErrMFACodeRejected)
	}
	return c.exchangeTicket(ctx, st.http, ticket)
}

// Restore binds a session to previously issued tokens and validates them by
// resolving the account's social profile, which several data endpoints key
// on.
func (c *Client) Restore(ctx context.Context, tokens model.SessionTokens) (*Session, error) {
	payload, err := decodeTokens(tokens)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed session tokens", model.ErrInvalidCredentials)
	}
	s := &Session{
		http: resty.New().
			SetBaseURL("https://connectapi." + c.domain).
			SetTimeout(c.timeout).
			SetHeader("User-Agent", userAgent).
			SetAuthToken(payload.AccessToken),
		log: c.log,
	}
	var profile struct {
		DisplayName string `json:"displayName"`
	}
	if err := s.getJSON(ctx, "/userprofile-service/socialProfile", nil, &profile); err != nil {
		return nil, err
	}
	s.displayName = profile.DisplayName
	return s, nil
}

func (c *Client) newSSOClient() *resty.Client {
	return resty.New().
		SetBaseURL("https://sso." + c.domain).
		SetTimeout(c.timeout).
		SetHeader("User-Agent", userAgent)
}

func (c *Client) signinQuery() map[string]string {
	return map[string]string{
		"service":              "https://connect." + c.domain + "/modern",
		"clientId":             "GarminConnect",
		"gauthHost":            "https://sso." + c.domain + "/sso",
		"consumeServiceTicket": "false",
		"embedWidget":          "true",
	}
}

func (c *Client) ssoGET(ctx context.Context, sso *resty.Client, path string, query map[string]string) (string, error) {
	resp, err := sso.R().SetContext(ctx).SetQueryParams(query).Get(path)
	if err != nil {
		return "", fmt.Errorf("%w: GET %s: %v", model.ErrUpstream, path, err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("%w: GET %s: status %d", model.ErrUpstream, path, resp.StatusCode())
	}
	return resp.String(), nil
}

// ssoPOST returns the response for the caller to interpret: signin and MFA
// pages carry their outcome in the body, not the status code alone.
func (c *Client) ssoPOST(ctx context.Context, sso *resty.Client, path string, query, form map[string]string) (*resty.Response, error) {
	resp, err := sso.R().SetContext(ctx).SetQueryParams(query).SetFormData(form).Post(path)
	if err != nil {
		return nil, fmt.Errorf("%w: POST %s: %v", model.ErrUpstream, path, err)
	}
	return resp, nil
}

// exchangeTicket trades an SSO service ticket for OAuth tokens. The exchange
// lives on the API host but needs the SSO cookies, so it reuses the login
// attempt's client.
func (c *Client) exchangeTicket(ctx context.Context, sso *resty.Client, ticket string) (model.SessionTokens, error) {
	var exchanged struct {
		AccessToken  string `json:"access_token"`
		TokenType    string `json:"token_type"`
		RefreshToken string `json:"refresh_token"`
		ExpiresIn    int64  `json:"expires_in"`
	}
	resp, err := sso.R().
		SetContext(ctx).
		SetFormData(map[string]string{"embed": "true", "ticket": ticket}).
		SetResult(&exchanged).
		Post("https://connectapi." + c.domain + "/oauth-service/oauth/exchange/user/2.0")
	if err != nil {
		return "", fmt.Errorf("%w: oauth exchange: %v", model.ErrUpstream, err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("%w: oauth exchange: status %d", model.ErrUpstream, resp.StatusCode())
	}
	if exchanged.AccessToken == "" {
		return "", fmt.Errorf("%w: oauth exchange returned no access token", model.ErrUpstream)
	}
	return encodeTokens(tokenPayload{
		AccessToken:  exchanged.AccessToken,
		TokenType:    exchanged.TokenType,
		RefreshToken: exchanged.RefreshToken,
		ExpiresAt:    time.Now().Unix() + exchanged.ExpiresIn,
	})
}

func firstMatch(re *regexp.Regexp, s string) string {
	m := re.FindStringSubmatch(s)
	if len(m) < 2 {
		return ""
	}
	return m[1]
}
