// Package activities lists Garmin activities and workouts for a date range
// and enriches each activity with six secondary documents. Enrichments ride
// along as serialized JSON blobs so provider schema drift cannot break
// response decoding; every failure is isolated to its own activity and
// field.
package activities

import (
	"context"
	"encoding/json"
	"math"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/apedley/SparkyFitness/internal/fetchpool"
	"github.com/apedley/SparkyFitness/internal/normalize"
)

// enrichmentFields names the sub-documents in output order. The fetcher list
// built per activity must stay index-aligned with it; cadence/power
// extraction reads the details slot.
var enrichmentFields = []string{"details", "splits", "weather", "hr_in_timezones", "exercise_sets", "gear"}

// Assembler fans per-activity enrichment fetches out over the shared pool
// and serializes the results into self-contained activity records.
type Assembler struct {
	pool    *fetchpool.Pool
	cleaner normalize.Cleaner
	log     zerolog.Logger
}

func NewAssembler(pool *fetchpool.Pool, log zerolog.Logger) *Assembler {
	return &Assembler{
		pool:    pool,
		cleaner: normalize.KeepStrings(enrichmentFields...),
		log:     log,
	}
}

// activitySlot carries one activity through the fan-out. Each doc slot is
// written by exactly one enrichment job; reads happen only after the join.
type activitySlot struct {
	activity map[string]any
	id       int64
	hasID    bool
	docs     []any
}

// ListAndEnrich lists the range's activities and workouts and enriches each
// concurrently. Listing failures are hard errors; every per-activity and
// per-field enrichment failure is logged and leaves that field empty.
func (a *Assembler) ListAndEnrich(ctx context.Context, src Source, startDate, endDate, activityType string) (any, any, error) {
	list, err := src.ActivitiesByDate(ctx, startDate, endDate, activityType)
	if err != nil {
		return nil, nil, errors.Wrap(err, "list activities")
	}
	workouts, err := src.Workouts(ctx)
	if err != nil {
		return nil, nil, errors.Wrap(err, "list workouts")
	}
	a.log.Info().
		Int("activities", len(list)).
		Int("workouts", len(workouts)).
		Str("start_date", startDate).
		Str("end_date", endDate).
		Str("activity_type", activityType).
		Msg("enriching activities and workouts")

	var wg sync.WaitGroup
	submit := func(field string, fn func(ctx context.Context) error) {
		wg.Add(1)
		err := a.pool.Submit(ctx, fetchpool.JobFunc(func(jobCtx context.Context) error {
			defer wg.Done()
			return fn(jobCtx)
		}))
		if err != nil {
			wg.Done()
			a.log.Warn().Err(err).Str("field", field).Msg("enrichment job not scheduled")
		}
	}

	slots := make([]*activitySlot, len(list))
	for i, activity := range list {
		backfillName(activity)
		convertUnits(activity)

		s := &activitySlot{activity: activity, docs: make([]any, len(enrichmentFields))}
		slots[i] = s
		if f, ok := normalize.AsFloat(activity["activityId"]); ok {
			s.id, s.hasID = int64(f), true
		} else {
			a.log.Warn().Interface("activity_name", activity["activityName"]).Msg("activity has no usable id, skipping enrichment")
			continue
		}
		for k, fetch := range a.enrichmentFetchers(src, s.id) {
			k, fetch := k, fetch
			field := enrichmentFields[k]
			submit(field, func(ctx context.Context) error {
				doc, err := fetch(ctx)
				if err != nil {
					a.log.Warn().Err(err).Int64("activity_id", s.id).Str("field", field).Msg("activity enrichment failed")
					return err
				}
				s.docs[k] = doc
				return nil
			})
		}
	}

	detailedWorkouts := make([]any, len(workouts))
	for i, workout := range workouts {
		i, workout := i, workout
		f, ok := normalize.AsFloat(workout["workoutId"])
		if !ok {
			a.log.Warn().Interface("workout_name", workout["workoutName"]).Msg("workout has no usable id, keeping summary")
			detailedWorkouts[i] = workout
			continue
		}
		id := int64(f)
		submit("workout", func(ctx context.Context) error {
			full, err := src.WorkoutByID(ctx, id)
			if err != nil {
				a.log.Warn().Err(err).Int64("workout_id", id).Msg("workout detail fetch failed, keeping summary")
				detailedWorkouts[i] = workout
				return err
			}
			if !normalize.Truthy(full) {
				detailedWorkouts[i] = workout
				return nil
			}
			detailedWorkouts[i] = full
			return nil
		})
	}

	wg.Wait()
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	detailed := make([]any, 0, len(slots))
	for _, s := range slots {
		detailed = append(detailed, a.buildRecord(s))
	}
	return a.cleaner.Clean(detailed), a.cleaner.Clean(detailedWorkouts), nil
}

func (a *Assembler) enrichmentFetchers(src Source, id int64) []func(context.Context) (any, error) {
	return []func(context.Context) (any, error){
		func(ctx context.Context) (any, error) { return src.ActivityDetails(ctx, id) },
		func(ctx context.Context) (any, error) { return src.ActivitySplits(ctx, id) },
		func(ctx context.Context) (any, error) { return src.ActivityWeather(ctx, id) },
		func(ctx context.Context) (any, error) { return src.ActivityHRInTimezones(ctx, id) },
		func(ctx context.Context) (any, error) { return src.ActivityExerciseSets(ctx, id) },
		func(ctx context.Context) (any, error) { return src.ActivityGear(ctx, id) },
	}
}

// buildRecord assembles one output record: the core activity with derived
// fields, plus whichever enrichment docs arrived, cleaned and serialized.
func (a *Assembler) buildRecord(s *activitySlot) map[string]any {
	core := make(map[string]any, len(s.activity)+3)
	for k, v := range s.activity {
		core[k] = v
	}
	cadence, power := extractCadencePower(s.docs[0])
	core["cadence"] = cadence
	core["power"] = power
	core["active_calories"] = activeCalories(s.activity)

	record := map[string]any{"activity": core}
	for k, field := range enrichmentFields {
		doc := s.docs[k]
		if !normalize.Truthy(doc) {
			continue
		}
		cleaned := a.cleaner.Clean(doc)
		if cleaned == nil {
			continue
		}
		blob, err := json.Marshal(cleaned)
		if err != nil {
			a.log.Warn().Err(err).Int64("activity_id", s.id).Str("field", field).Msg("enrichment serialization failed")
			continue
		}
		record[field] = string(blob)
	}
	return record
}

// backfillName derives a display name from the activity type key when the
// provider omits one: underscores to spaces, title case.
func backfillName(activity map[string]any) {
	if normalize.Truthy(activity["activityName"]) {
		return
	}
	typeKey, _ := normalize.Dig(activity, "activityType", "typeKey").(string)
	if typeKey == "" {
		return
	}
	activity["activityName"] = cases.Title(language.English).String(strings.ReplaceAll(typeKey, "_", " "))
}

// convertUnits rewrites the distance/duration family in place: meters to km,
// seconds to minutes.
func convertUnits(activity map[string]any) {
	activity["distance"] = normalize.Convert(activity["distance"], normalize.MetersToKm)
	activity["duration"] = normalize.Convert(activity["duration"], normalize.SecondsToMinutes)
	activity["elapsedDuration"] = normalize.Convert(activity["elapsedDuration"], normalize.SecondsToMinutes)
	activity["movingDuration"] = normalize.Convert(activity["movingDuration"], normalize.SecondsToMinutes)
}

func activeCalories(activity map[string]any) float64 {
	var cal, bmr float64
	if v, ok := normalize.AsFloat(activity["calories"]); ok {
		cal = v
	}
	if v, ok := normalize.AsFloat(activity["bmrCalories"]); ok {
		bmr = v
	}
	return math.Max(0, cal-bmr)
}

// extractCadencePower searches the details document: named per-sample
// metrics first (last match wins), then the top-level average fields.
func extractCadencePower(details any) (cadence, power any) {
	m, ok := details.(map[string]any)
	if !ok {
		return nil, nil
	}
	if metrics, ok := m["metrics"].([]any); ok {
		for _, item := range metrics {
			metric, ok := item.(map[string]any)
			if !ok {
				continue
			}
			switch metric["metricName"] {
			case "cadence":
				cadence = metric["value"]
			case "power":
				power = metric["value"]
			}
		}
	}
	cadence = normalize.Coalesce(cadence, m["avgCadence"], m["averageCadence"])
	power = normalize.Coalesce(power, m["avgPower"], m["averagePower"])
	return cadence, power
}
