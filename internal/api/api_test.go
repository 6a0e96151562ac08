package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/apedley/SparkyFitness/internal/api/respond"
	"github.com/apedley/SparkyFitness/internal/model"
)

type mockWellness struct {
	lastReq model.WellnessRequest
	resp    *model.WellnessResponse
	err     error
	panics  bool
}

func (m *mockWellness) Fetch(ctx context.Context, req model.WellnessRequest) (*model.WellnessResponse, error) {
	if m.panics {
		panic("wellness blew up")
	}
	m.lastReq = req
	if m.err != nil {
		return nil, m.err
	}
	return m.resp, nil
}

type mockActivities struct {
	lastReq model.ActivitiesRequest
	resp    *model.ActivitiesResponse
	err     error
}

func (m *mockActivities) Fetch(ctx context.Context, req model.ActivitiesRequest) (*model.ActivitiesResponse, error) {
	m.lastReq = req
	if m.err != nil {
		return nil, m.err
	}
	return m.resp, nil
}

type mockAuth struct {
	loginResp  *model.LoginResponse
	loginErr   error
	resumeResp *model.LoginResponse
	resumeErr  error
}

func (m *mockAuth) Login(ctx context.Context, req model.LoginRequest) (*model.LoginResponse, error) {
	return m.loginResp, m.loginErr
}

func (m *mockAuth) Resume(ctx context.Context, req model.ResumeLoginRequest) (*model.LoginResponse, error) {
	return m.resumeResp, m.resumeErr
}

func newTestRouter(w *mockWellness, a *mockActivities, au *mockAuth) http.Handler {
	if w == nil {
		w = &mockWellness{resp: &model.WellnessResponse{}}
	}
	if a == nil {
		a = &mockActivities{resp: &model.ActivitiesResponse{}}
	}
	if au == nil {
		au = &mockAuth{loginResp: &model.LoginResponse{Status: model.StatusSuccess}}
	}
	return NewRouter(w, a, au)
}

func postJSON(t *testing.T, router http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) respond.ErrorResponse {
	t.Helper()
	var resp respond.ErrorResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return resp
}

func TestRouter_RootAndHealth(t *testing.T) {
	router := newTestRouter(nil, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("GET / status = %d", w.Code)
	}
	var root map[string]string
	if err := json.NewDecoder(w.Body).Decode(&root); err != nil {
		t.Fatalf("decode root: %v", err)
	}
	if root["message"] != "Garmin Connect Microservice is running!" {
		t.Fatalf("unexpected root message: %q", root["message"])
	}

	req = httptest.NewRequest(http.MethodGet, "/api/health", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("GET /api/health status = %d", w.Code)
	}
	var health map[string]any
	if err := json.NewDecoder(w.Body).Decode(&health); err != nil {
		t.Fatalf("decode health: %v", err)
	}
	if health["status"] != "healthy" {
		t.Fatalf("unexpected health status: %v", health["status"])
	}
	if ts, _ := health["timestamp"].(string); ts == "" {
		t.Fatal("health response should carry a timestamp")
	}
}

func TestRouter_MetricsExposed(t *testing.T) {
	router := newTestRouter(nil, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("GET /metrics status = %d", w.Code)
	}
	if w.Body.Len() == 0 {
		t.Fatal("metrics body should not be empty")
	}
}

func TestWellnessEndpoint_Success(t *testing.T) {
	mw := &mockWellness{resp: &model.WellnessResponse{
		UserID: "u1",
		Data: model.MetricSeries{
			"steps": {model.Entry{"date": "2025-03-01", "value": float64(9000)}},
		},
	}}
	router := newTestRouter(mw, nil, nil)

	w := postJSON(t, router, "/data/health_and_wellness",
		`{"user_id":"u1","tokens":"blob","start_date":"2025-03-01","end_date":"2025-03-03","metric_types":["steps"]}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", w.Code, w.Body.String())
	}

	if mw.lastReq.UserID != "u1" || mw.lastReq.Tokens != "blob" {
		t.Fatalf("request not forwarded: %+v", mw.lastReq)
	}
	if mw.lastReq.StartDate.String() != "2025-03-01" || mw.lastReq.EndDate.String() != "2025-03-03" {
		t.Fatalf("dates not forwarded: %s %s", mw.lastReq.StartDate, mw.lastReq.EndDate)
	}
	if len(mw.lastReq.MetricTypes) != 1 || mw.lastReq.MetricTypes[0] != "steps" {
		t.Fatalf("metric types not forwarded: %v", mw.lastReq.MetricTypes)
	}

	var resp model.WellnessResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.UserID != "u1" || len(resp.Data["steps"]) != 1 {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestWellnessEndpoint_BadBodies(t *testing.T) {
	router := newTestRouter(nil, nil, nil)

	w := postJSON(t, router, "/data/health_and_wellness", `{not json`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("malformed json status = %d", w.Code)
	}
	if resp := decodeError(t, w); !strings.Contains(resp.Message, "invalid json body") {
		t.Fatalf("unexpected message: %q", resp.Message)
	}

	w = postJSON(t, router, "/data/health_and_wellness",
		`{"user_id":"u1","start_date":"2025-03-01","end_date":"2025-03-03"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("missing tokens status = %d", w.Code)
	}
	if resp := decodeError(t, w); !strings.Contains(resp.Message, "tokens is required") {
		t.Fatalf("unexpected message: %q", resp.Message)
	}
}

func TestServiceErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
	}{
		{"validation", fmt.Errorf("%w: end_date before start_date", model.ErrValidation), http.StatusBadRequest},
		{"mfa state", model.ErrMFAStateNotFound, http.StatusBadRequest},
		{"credentials", fmt.Errorf("%w: login rejected", model.ErrInvalidCredentials), http.StatusUnauthorized},
		{"mfa code", model.ErrMFACodeRejected, http.StatusUnauthorized},
		{"not found", fmt.Errorf("%w: no snapshot", model.ErrNotFound), http.StatusNotFound},
		{"upstream", fmt.Errorf("%w: 503 from provider", model.ErrUpstream), http.StatusBadGateway},
		{"unknown", fmt.Errorf("sqlite exploded"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			router := newTestRouter(&mockWellness{err: tc.err}, nil, nil)
			w := postJSON(t, router, "/data/health_and_wellness",
				`{"user_id":"u1","tokens":"blob","start_date":"2025-03-01","end_date":"2025-03-03"}`)
			if w.Code != tc.code {
				t.Fatalf("status = %d, want %d", w.Code, tc.code)
			}
			resp := decodeError(t, w)
			if resp.Code != tc.code {
				t.Fatalf("body code = %d, want %d", resp.Code, tc.code)
			}
			if resp.Error != http.StatusText(tc.code) {
				t.Fatalf("error label = %q", resp.Error)
			}
		})
	}
}

func TestActivitiesEndpoint(t *testing.T) {
	ma := &mockActivities{resp: &model.ActivitiesResponse{
		UserID:     "u1",
		Activities: []any{map[string]any{"activity": map[string]any{"activityName": "Morning Run"}}},
	}}
	router := newTestRouter(nil, ma, nil)

	w := postJSON(t, router, "/data/activities_and_workouts",
		`{"user_id":"u1","tokens":"blob","start_date":"2025-03-01","end_date":"2025-03-03","activity_type":"running"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", w.Code, w.Body.String())
	}
	if ma.lastReq.ActivityType != "running" {
		t.Fatalf("activity type not forwarded: %q", ma.lastReq.ActivityType)
	}

	// optional activity_type may be omitted
	w = postJSON(t, router, "/data/activities_and_workouts",
		`{"user_id":"u1","tokens":"blob","start_date":"2025-03-01","end_date":"2025-03-03"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status without activity_type = %d", w.Code)
	}
}

func TestAuthEndpoints(t *testing.T) {
	au := &mockAuth{
		loginResp:  &model.LoginResponse{Status: model.StatusNeedsMFA, ClientState: "abcd1234"},
		resumeResp: &model.LoginResponse{Status: model.StatusSuccess, Tokens: "blob"},
	}
	router := newTestRouter(nil, nil, au)

	w := postJSON(t, router, "/auth/garmin/login",
		`{"email":"x@y.z","password":"pw","user_id":"u1"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("login status = %d", w.Code)
	}
	var login model.LoginResponse
	if err := json.NewDecoder(w.Body).Decode(&login); err != nil {
		t.Fatalf("decode login: %v", err)
	}
	if login.Status != model.StatusNeedsMFA || login.ClientState == "" {
		t.Fatalf("unexpected login response: %+v", login)
	}

	w = postJSON(t, router, "/auth/garmin/resume_login",
		`{"client_state":"abcd1234","mfa_code":"123456","user_id":"u1"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("resume status = %d", w.Code)
	}
	var resume model.LoginResponse
	if err := json.NewDecoder(w.Body).Decode(&resume); err != nil {
		t.Fatalf("decode resume: %v", err)
	}
	if resume.Status != model.StatusSuccess || resume.Tokens == "" {
		t.Fatalf("unexpected resume response: %+v", resume)
	}

	// missing mfa_code is caught before the service
	w = postJSON(t, router, "/auth/garmin/resume_login",
		`{"client_state":"abcd1234","user_id":"u1"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("missing mfa_code status = %d", w.Code)
	}
}

func TestAuthEndpoints_FailureStatuses(t *testing.T) {
	au := &mockAuth{
		loginErr:  fmt.Errorf("%w: bad password", model.ErrInvalidCredentials),
		resumeErr: model.ErrMFAStateNotFound,
	}
	router := newTestRouter(nil, nil, au)

	w := postJSON(t, router, "/auth/garmin/login",
		`{"email":"x@y.z","password":"pw","user_id":"u1"}`)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("bad credentials status = %d", w.Code)
	}

	w = postJSON(t, router, "/auth/garmin/resume_login",
		`{"client_state":"stale","mfa_code":"123456","user_id":"u1"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("stale handle status = %d", w.Code)
	}
}

func TestRouter_MethodNotAllowed(t *testing.T) {
	router := newTestRouter(nil, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/data/health_and_wellness", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("GET on a POST route status = %d", w.Code)
	}
}

func TestRouter_RecoversFromPanic(t *testing.T) {
	router := newTestRouter(&mockWellness{panics: true}, nil, nil)

	w := postJSON(t, router, "/data/health_and_wellness",
		`{"user_id":"u1","tokens":"blob","start_date":"2025-03-01","end_date":"2025-03-03"}`)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("panicking handler status = %d", w.Code)
	}
}
