// Package wellness fetches per-day health metrics from Garmin Connect,
// normalizes provider payloads into stable per-category entries, and merges
// them into a single response keyed by category.
package wellness

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/apedley/SparkyFitness/internal/fetchpool"
	"github.com/apedley/SparkyFitness/internal/model"
	"github.com/apedley/SparkyFitness/internal/normalize"
)

const dateLayout = "2006-01-02"

// Aggregator fans per-date metric fetches out over a shared worker pool and
// assembles the results into per-category series ordered by ascending date.
type Aggregator struct {
	pool    *fetchpool.Pool
	cleaner normalize.Cleaner
	log     zerolog.Logger
}

func NewAggregator(pool *fetchpool.Pool, log zerolog.Logger) *Aggregator {
	return &Aggregator{pool: pool, log: log}
}

// Request names the user, the inclusive calendar-date range, and the metric
// categories for one aggregation run. An empty category list means all
// default categories.
type Request struct {
	UserID     string
	StartDate  string
	EndDate    string
	Categories []string
}

// datesInRange expands an inclusive ISO date range into its calendar dates.
// A start after the end yields no dates.
func datesInRange(start, end string) ([]string, error) {
	from, err := time.Parse(dateLayout, start)
	if err != nil {
		return nil, fmt.Errorf("%w: bad start date %q", model.ErrValidation, start)
	}
	to, err := time.Parse(dateLayout, end)
	if err != nil {
		return nil, fmt.Errorf("%w: bad end date %q", model.ErrValidation, end)
	}
	var dates []string
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d.Format(dateLayout))
	}
	return dates, nil
}

// Aggregate fetches every requested category for every date in the range and
// merges the results. Individual metric failures are logged and leave gaps;
// only an invalid range or a cancelled context fail the whole run.
func (a *Aggregator) Aggregate(ctx context.Context, src MetricSource, req Request) (model.MetricSeries, error) {
	dates, err := datesInRange(req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}
	cats := newCategorySet(req.Categories)

	a.log.Info().
		Str("user_id", req.UserID).
		Str("start_date", req.StartDate).
		Str("end_date", req.EndDate).
		Int("dates", len(dates)).
		Int("categories", len(cats)).
		Msg("starting wellness aggregation")

	days := make([]*dayResult, len(dates))
	for i, d := range dates {
		days[i] = &dayResult{date: d}
	}
	rng := &rangeResult{}

	var wg sync.WaitGroup
	submit := func(category string, fn func(ctx context.Context) error) {
		wg.Add(1)
		err := a.pool.Submit(ctx, fetchpool.JobFunc(func(jobCtx context.Context) error {
			defer wg.Done()
			return fn(jobCtx)
		}))
		if err != nil {
			wg.Done()
			a.log.Warn().Err(err).Str("category", category).Msg("fetch job not scheduled")
		}
	}

	if len(dates) > 0 {
		// These categories do not vary by date, so they are fetched once and
		// keyed to the range start.
		if cats.has("lactate_threshold") {
			submit("lactate_threshold", func(ctx context.Context) error {
				return a.fetchLactate(ctx, src, rng, dates[0])
			})
		}
		if cats.has("race_predictions") {
			submit("race_predictions", func(ctx context.Context) error {
				return a.fetchRacePredictions(ctx, src, rng, dates[0])
			})
		}
		if cats.has("pregnancy_summary") {
			submit("pregnancy_summary", func(ctx context.Context) error {
				return a.fetchPregnancy(ctx, src, rng, dates[0])
			})
		}
	}

	for _, day := range days {
		day := day
		if cats.hasAny("steps", "total_distance", "highly_active_seconds", "active_seconds", "sedentary_seconds", "body_battery") {
			submit("daily_summary", func(ctx context.Context) error {
				return a.fetchSummaryGroup(ctx, src, day, cats)
			})
		}
		if cats.has("hydration") {
			submit("hydration", func(ctx context.Context) error { return a.fetchHydration(ctx, src, day) })
		}
		if cats.has("floors") {
			submit("floors", func(ctx context.Context) error { return a.fetchFloors(ctx, src, day) })
		}
		if cats.has("fitness_age") {
			submit("fitness_age", func(ctx context.Context) error { return a.fetchFitnessAge(ctx, src, day) })
		}
		if cats.has("heart_rates") {
			submit("heart_rates", func(ctx context.Context) error { return a.fetchHeartRates(ctx, src, day) })
		}
		if cats.has("sleep") {
			submit("sleep", func(ctx context.Context) error { return a.fetchSleep(ctx, src, day) })
		}
		if cats.has("stress") {
			submit("stress", func(ctx context.Context) error { return a.fetchStress(ctx, src, day) })
		}
		if cats.has("respiration") {
			submit("respiration", func(ctx context.Context) error { return a.fetchRespiration(ctx, src, day) })
		}
		if cats.has("spo2") {
			submit("spo2", func(ctx context.Context) error { return a.fetchSpO2(ctx, src, day) })
		}
		if cats.has("intensity_minutes") {
			submit("intensity_minutes", func(ctx context.Context) error { return a.fetchIntensity(ctx, src, day) })
		}
		if cats.hasAny("training_readiness", "recovery_time", "acute_load") {
			submit("training_readiness", func(ctx context.Context) error {
				return a.fetchReadinessGroup(ctx, src, day, cats)
			})
		}
		if cats.hasAny("training_status", "training_load", "acute_load") {
			submit("training_status", func(ctx context.Context) error {
				return a.fetchStatusGroup(ctx, src, day, cats)
			})
		}
		if cats.has("max_metrics") {
			submit("max_metrics", func(ctx context.Context) error { return a.fetchMaxMetrics(ctx, src, day) })
		}
		if cats.has("hrv") {
			submit("hrv", func(ctx context.Context) error { return a.fetchHRV(ctx, src, day) })
		}
		if cats.has("endurance_score") {
			submit("endurance_score", func(ctx context.Context) error { return a.fetchEndurance(ctx, src, day) })
		}
		if cats.has("hill_score") {
			submit("hill_score", func(ctx context.Context) error { return a.fetchHill(ctx, src, day) })
		}
		if cats.has("blood_pressure") {
			submit("blood_pressure", func(ctx context.Context) error { return a.fetchBloodPressure(ctx, src, day) })
		}
		if cats.has("menstrual_data") {
			submit("menstrual_data", func(ctx context.Context) error { return a.fetchMenstrual(ctx, src, day) })
		}
		if cats.has("menstrual_calendar_data") {
			submit("menstrual_calendar_data", func(ctx context.Context) error { return a.fetchMenstrualCalendar(ctx, src, day) })
		}
		if cats.has("body_composition") {
			submit("body_composition", func(ctx context.Context) error { return a.fetchBodyComposition(ctx, src, day) })
		}
	}
	wg.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Second wave: the range endpoint backfills body battery for dates whose
	// daily summary carried none. It depends on first-wave outcomes, so it
	// cannot be scheduled alongside them.
	if cats.has("body_battery") {
		for _, day := range days {
			day := day
			if day.batteryPrimary {
				continue
			}
			submit("body_battery", func(ctx context.Context) error { return a.fetchBatteryFallback(ctx, src, day) })
		}
		wg.Wait()
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}

	series := a.assemble(days, rng, cats)

	for _, cat := range orderedCategories(cats) {
		a.log.Info().Str("category", cat).Int("entries", len(series[cat])).Msg("category aggregated")
	}
	return series, nil
}

// orderedCategories filters the known categories down to the requested set,
// preserving canonical order. Unknown requested names are dropped.
func orderedCategories(cats categorySet) []string {
	known := append(append([]string{}, AllCategories...), optInCategories...)
	out := make([]string, 0, len(cats))
	for _, c := range known {
		if cats.has(c) {
			out = append(out, c)
		}
	}
	return out
}

func (a *Aggregator) assemble(days []*dayResult, rng *rangeResult, cats categorySet) model.MetricSeries {
	series := model.MetricSeries{}
	add := func(category string, entries []model.Entry) {
		for _, e := range entries {
			cleaned, ok := a.cleaner.Clean(map[string]any(e)).(map[string]any)
			if !ok || len(cleaned) == 0 {
				continue
			}
			series[category] = append(series[category], model.Entry(cleaned))
		}
	}

	add("lactate_threshold", rng.lactate)
	add("race_predictions", rng.races)
	add("pregnancy_summary", rng.pregnancy)

	for _, day := range days {
		for _, cat := range []string{"steps", "total_distance", "highly_active_seconds", "active_seconds", "sedentary_seconds", "body_battery"} {
			add(cat, day.summaryEntries[cat])
		}
		add("body_battery", day.batteryFallback)
		add("hydration", day.hydration)
		add("floors", day.floors)
		add("fitness_age", day.fitnessAge)
		add("heart_rates", day.heartRates)
		add("sleep", day.sleep)
		add("stress", day.stress)
		add("respiration", day.respiration)
		add("spo2", day.spo2)
		if day.spo2Fetched && len(day.spo2) == 0 {
			if v, ok := normalize.TruthyNumber(day.sleepAvgSpO2); ok {
				add("spo2", []model.Entry{{"date": day.date, "average_spo2": v}})
			}
		}
		add("intensity_minutes", day.intensity)
		add("training_readiness", day.readinessScore)
		add("recovery_time", day.recoveryTime)
		add("training_status", day.status)
		add("training_load", day.trainingLoad)
		if cats.has("acute_load") && day.statusGate && day.acuteLoad != nil {
			add("acute_load", []model.Entry{{"date": day.date, "value": day.acuteLoad}})
		}
		add("max_metrics", day.maxMetrics)
		add("hrv", day.hrv)
		add("endurance_score", day.endurance)
		add("hill_score", day.hill)
		add("blood_pressure", day.bloodPressure)
		add("menstrual_data", day.menstrual)
		add("menstrual_calendar_data", day.menstrualCal)
		add("body_composition", day.bodyComp)
	}
	return series
}
