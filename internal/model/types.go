package model

import (
	"encoding/json"
	"fmt"

	"github.com/go-openapi/strfmt"
)

// SessionTokens is the opaque serialized credential blob issued by login or
// resume. The service never persists it; callers hold it and send it back with
// every data request.
type SessionTokens string

// Entry is one dated record inside a metric category. Categories are
// heterogeneous, so entries stay schemaless on the wire.
type Entry map[string]any

// MetricSeries maps a metric category name to its dated entries. A category
// key is present only when its sequence is non-empty after cleaning.
type MetricSeries map[string][]Entry

// EntryOf converts a typed record into an Entry via its JSON form. Records
// keep their wire field names from json tags.
func EntryOf(v any) (Entry, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	var e Entry
	if err := json.Unmarshal(b, &e); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	return e, nil
}

// WellnessRequest is the body of POST /data/health_and_wellness. Empty
// MetricTypes means "all known categories".
type WellnessRequest struct {
	UserID      string      `json:"user_id" validate:"required"`
	Tokens      string      `json:"tokens" validate:"required"`
	StartDate   strfmt.Date `json:"start_date" validate:"required"`
	EndDate     strfmt.Date `json:"end_date" validate:"required"`
	MetricTypes []string    `json:"metric_types,omitempty"`
}

// WellnessResponse echoes the request identity and carries the aggregated
// per-category series.
type WellnessResponse struct {
	UserID    string       `json:"user_id"`
	StartDate strfmt.Date  `json:"start_date"`
	EndDate   strfmt.Date  `json:"end_date"`
	Data      MetricSeries `json:"data"`
}

// ActivitiesRequest is the body of POST /data/activities_and_workouts.
type ActivitiesRequest struct {
	UserID       string      `json:"user_id" validate:"required"`
	Tokens       string      `json:"tokens" validate:"required"`
	StartDate    strfmt.Date `json:"start_date" validate:"required"`
	EndDate      strfmt.Date `json:"end_date" validate:"required"`
	ActivityType string      `json:"activity_type,omitempty"`
}

// ActivitiesResponse carries enriched activities and workouts.
type ActivitiesResponse struct {
	UserID     string      `json:"user_id"`
	StartDate  strfmt.Date `json:"start_date"`
	EndDate    strfmt.Date `json:"end_date"`
	Activities any         `json:"activities"`
	Workouts   any         `json:"workouts"`
}

// LoginRequest is the body of POST /auth/garmin/login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
	UserID   string `json:"user_id" validate:"required"`
}

// Login outcome statuses.
const (
	StatusSuccess  = "success"
	StatusNeedsMFA = "needs_mfa"
)

// LoginResponse is either a completed login (Status "success" with Tokens)
// or an MFA challenge (Status "needs_mfa" with ClientState).
type LoginResponse struct {
	Status      string        `json:"status"`
	Tokens      SessionTokens `json:"tokens,omitempty"`
	ClientState string        `json:"client_state,omitempty"`
}

// ResumeLoginRequest is the body of POST /auth/garmin/resume_login.
type ResumeLoginRequest struct {
	ClientState string `json:"client_state" validate:"required"`
	MFACode     string `json:"mfa_code" validate:"required"`
	UserID      string `json:"user_id" validate:"required"`
}
