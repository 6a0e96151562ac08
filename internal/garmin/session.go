package garmin

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"github.com/apedley/SparkyFitness/internal/model"
)

// listPageSize is the page size for the paginated listing endpoints.
const listPageSize = 100

// Session is an authenticated binding to the Connect API. It is immutable
// after Restore and safe for concurrent fetches.
type Session struct {
	http        *resty.Client
	log         zerolog.Logger
	displayName string
}

// getJSON runs one GET and decodes the body into out. An empty body (the
// API's "no data for this date") leaves out untouched. Auth rejections are
// distinguished from other upstream failures.
func (s *Session) getJSON(ctx context.Context, path string, query map[string]string, out any) error {
	req := s.http.R().SetContext(ctx)
	if len(query) > 0 {
		req.SetQueryParams(query)
	}
	resp, err := req.Get(path)
	if err != nil {
		return fmt.Errorf("%w: GET %s: %v", model.ErrUpstream, path, err)
	}
	if resp.StatusCode() == http.StatusUnauthorized || resp.StatusCode() == http.StatusForbidden {
		return fmt.Errorf("%w: GET %s: status %d", model.ErrInvalidCredentials, path, resp.StatusCode())
	}
	if resp.IsError() {
		return fmt.Errorf("%w: GET %s: status %d", model.ErrUpstream, path, resp.StatusCode())
	}
	body := resp.Body()
	if len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: GET %s: decode: %v", model.ErrUpstream, path, err)
	}
	return nil
}

func (s *Session) mapGET(ctx context.Context, path string, query map[string]string) (map[string]any, error) {
	var out map[string]any
	if err := s.getJSON(ctx, path, query, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// anyGET is for endpoints that answer with an object or a list depending on
// account and date.
func (s *Session) anyGET(ctx context.Context, path string, query map[string]string) (any, error) {
	var out any
	if err := s.getJSON(ctx, path, query, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Session) UserSummary(ctx context.Context, date string) (map[string]any, error) {
	return s.mapGET(ctx, "/usersummary-service/usersummary/daily/"+s.displayName, map[string]string{"calendarDate": date})
}

func (s *Session) HydrationData(ctx context.Context, date string) (map[string]any, error) {
	return s.mapGET(ctx, "/usersummary-service/usersummary/hydration/daily/"+date, nil)
}

func (s *Session) Floors(ctx context.Context, date string) (map[string]any, error) {
	return s.mapGET(ctx, "/wellness-service/wellness/floorsChartData/daily/"+date, nil)
}

func (s *Session) FitnessAge(ctx context.Context, date string) (map[string]any, error) {
	return s.mapGET(ctx, "/fitnessage-service/fitnessage/"+date, nil)
}

func (s *Session) HeartRates(ctx context.Context, date string) (map[string]any, error) {
	return s.mapGET(ctx, "/wellness-service/wellness/dailyHeartRate/"+s.displayName, map[string]string{"date": date})
}

func (s *Session) SleepData(ctx context.Context, date string) (map[string]any, error) {
	return s.mapGET(ctx, "/wellness-service/wellness/dailySleepData/"+s.displayName, map[string]string{
		"date":                  date,
		"nonSleepBufferMinutes": "60",
	})
}

func (s *Session) StressData(ctx context.Context, date string) (map[string]any, error) {
	return s.mapGET(ctx, "/wellness-service/wellness/dailyStress/"+date, nil)
}

func (s *Session) RespirationData(ctx context.Context, date string) (map[string]any, error) {
	return s.mapGET(ctx, "/wellness-service/wellness/daily/respiration/"+date, nil)
}

func (s *Session) SpO2Data(ctx context.Context, date string) (map[string]any, error) {
	return s.mapGET(ctx, "/wellness-service/wellness/daily/spo2/"+date, nil)
}

func (s *Session) IntensityMinutes(ctx context.Context, date string) (map[string]any, error) {
	return s.mapGET(ctx, "/wellness-service/wellness/daily/im/"+date, nil)
}

func (s *Session) TrainingReadiness(ctx context.Context, date string) (any, error) {
	return s.anyGET(ctx, "/metrics-service/metrics/trainingreadiness/"+date, nil)
}

func (s *Session) TrainingStatus(ctx context.Context, date string) (map[string]any, error) {
	return s.mapGET(ctx, "/metrics-service/metrics/trainingstatus/aggregated/"+date, nil)
}

func (s *Session) MaxMetrics(ctx context.Context, date string) (any, error) {
	return s.anyGET(ctx, "/metrics-service/metrics/maxmet/daily/"+date+"/"+date, nil)
}

func (s *Session) GraphQL(ctx context.Context, query map[string]any) (map[string]any, error) {
	var out map[string]any
	resp, err := s.http.R().
		SetContext(ctx).
		SetBody(query).
		SetResult(&out).
		Post("/graphql-gateway/graphql")
	if err != nil {
		return nil, fmt.Errorf("%w: POST /graphql-gateway/graphql: %v", model.ErrUpstream, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%w: POST /graphql-gateway/graphql: status %d", model.ErrUpstream, resp.StatusCode())
	}
	return out, nil
}

func (s *Session) HRVData(ctx context.Context, date string) (map[string]any, error) {
	return s.mapGET(ctx, "/hrv-service/hrv/"+date, nil)
}

func (s *Session) EnduranceScore(ctx context.Context, startDate, endDate string) (map[string]any, error) {
	return s.mapGET(ctx, "/metrics-service/metrics/endurancescore", map[string]string{
		"startDate": startDate,
		"endDate":   endDate,
	})
}

func (s *Session) HillScore(ctx context.Context, startDate, endDate string) (map[string]any, error) {
	return s.mapGET(ctx, "/metrics-service/metrics/hillscore", map[string]string{
		"startDate": startDate,
		"endDate":   endDate,
	})
}

func (s *Session) BloodPressure(ctx context.Context, startDate, endDate string) (map[string]any, error) {
	return s.mapGET(ctx, "/bloodpressure-service/bloodpressure/range/"+startDate+"/"+endDate, map[string]string{"includeAll": "true"})
}

func (s *Session) BodyBattery(ctx context.Context, startDate, endDate string) (any, error) {
	return s.anyGET(ctx, "/wellness-service/wellness/bodyBattery/reports/daily", map[string]string{
		"startDate": startDate,
		"endDate":   endDate,
	})
}

func (s *Session) MenstrualData(ctx context.Context, date string) (map[string]any, error) {
	return s.mapGET(ctx, "/periodichealth-service/menstrualcycle/dayview/"+date, nil)
}

func (s *Session) MenstrualCalendar(ctx context.Context, startDate, endDate string) (map[string]any, error) {
	return s.mapGET(ctx, "/periodichealth-service/menstrualcycle/calendar/"+startDate+"/"+endDate, nil)
}

func (s *Session) BodyComposition(ctx context.Context, startDate, endDate string) (map[string]any, error) {
	return s.mapGET(ctx, "/weight-service/weight/dateRange", map[string]string{
		"startDate": startDate,
		"endDate":   endDate,
	})
}

func (s *Session) LactateThreshold(ctx context.Context) (map[string]any, error) {
	return s.mapGET(ctx, "/biometric-service/biometric/latestLactateThreshold", nil)
}

func (s *Session) RacePredictions(ctx context.Context) (map[string]any, error) {
	return s.mapGET(ctx, "/metrics-service/metrics/racepredictions/latest/"+s.displayName, nil)
}

func (s *Session) PregnancySummary(ctx context.Context) (map[string]any, error) {
	return s.mapGET(ctx, "/periodichealth-service/menstrualcycle/pregnancysnapshot", nil)
}

// ActivitiesByDate pages through the activity search until a short page.
func (s *Session) ActivitiesByDate(ctx context.Context, startDate, endDate, activityType string) ([]map[string]any, error) {
	var all []map[string]any
	for start := 0; ; start += listPageSize {
		query := map[string]string{
			"startDate": startDate,
			"endDate":   endDate,
			"start":     strconv.Itoa(start),
			"limit":     strconv.Itoa(listPageSize),
		}
		if activityType != "" {
			query["activityType"] = activityType
		}
		var page []map[string]any
		if err := s.getJSON(ctx, "/activitylist-service/activities/search/activities", query, &page); err != nil {
			return nil, err
		}
		all = append(all, page...)
		if len(page) < listPageSize {
			return all, nil
		}
	}
}

func (s *Session) ActivityDetails(ctx context.Context, activityID int64) (any, error) {
	return s.anyGET(ctx, "/activity-service/activity/"+strconv.FormatInt(activityID, 10)+"/details", nil)
}

func (s *Session) ActivitySplits(ctx context.Context, activityID int64) (any, error) {
	return s.anyGET(ctx, "/activity-service/activity/"+strconv.FormatInt(activityID, 10)+"/splits", nil)
}

func (s *Session) ActivityWeather(ctx context.Context, activityID int64) (any, error) {
	return s.anyGET(ctx, "/activity-service/activity/"+strconv.FormatInt(activityID, 10)+"/weather", nil)
}

func (s *Session) ActivityHRInTimezones(ctx context.Context, activityID int64) (any, error) {
	return s.anyGET(ctx, "/activity-service/activity/"+strconv.FormatInt(activityID, 10)+"/hrTimeInZones", nil)
}

func (s *Session) ActivityExerciseSets(ctx context.Context, activityID int64) (any, error) {
	return s.anyGET(ctx, "/activity-service/activity/"+strconv.FormatInt(activityID, 10)+"/exerciseSets", nil)
}

func (s *Session) ActivityGear(ctx context.Context, activityID int64) (any, error) {
	return s.anyGET(ctx, "/gear-service/gear/filterGear", map[string]string{
		"activityId": strconv.FormatInt(activityID, 10),
	})
}

// Workouts pages through the workout list until a short page.
func (s *Session) Workouts(ctx context.Context) ([]map[string]any, error) {
	var all []map[string]any
	for start := 0; ; start += listPageSize {
		query := map[string]string{
			"start": strconv.Itoa(start),
			"limit": strconv.Itoa(listPageSize),
		}
		var page []map[string]any
		if err := s.getJSON(ctx, "/workout-service/workouts", query, &page); err != nil {
			return nil, err
		}
		all = append(all, page...)
		if len(page) < listPageSize {
			return all, nil
		}
	}
}

func (s *Session) WorkoutByID(ctx context.Context, workoutID int64) (map[string]any, error) {
	return s.mapGET(ctx, "/workout-service/workout/"+strconv.FormatInt(workoutID, 10), nil)
}
