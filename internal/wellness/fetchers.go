package wellness

import (
	"context"
	"fmt"

	"github.com/apedley/SparkyFitness/internal/model"
	"github.com/apedley/SparkyFitness/internal/normalize"
)

// dayResult collects one date's fetch-group outputs. Each field is written
// by exactly one pool job; reads happen only after the wave joins.
type dayResult struct {
	date string

	summaryEntries map[string][]model.Entry
	batteryPrimary bool

	hydration  []model.Entry
	floors     []model.Entry
	fitnessAge []model.Entry
	heartRates []model.Entry

	sleep        []model.Entry
	sleepAvgSpO2 any

	stress      []model.Entry
	respiration []model.Entry

	spo2        []model.Entry
	spo2Fetched bool

	intensity []model.Entry

	readinessScore []model.Entry
	recoveryTime   []model.Entry
	acuteLoad      any

	status       []model.Entry
	trainingLoad []model.Entry
	statusGate   bool

	maxMetrics    []model.Entry
	hrv           []model.Entry
	endurance     []model.Entry
	hill          []model.Entry
	bloodPressure []model.Entry
	menstrual     []model.Entry
	menstrualCal  []model.Entry
	bodyComp      []model.Entry

	batteryFallback []model.Entry
}

// rangeResult holds the categories fetched once per request rather than per
// date, keyed to the range's start date.
type rangeResult struct {
	lactate   []model.Entry
	races     []model.Entry
	pregnancy []model.Entry
}

func (a *Aggregator) soft(err error, category, date string) error {
	a.log.Warn().Err(err).Str("category", category).Str("date", date).Msg("metric fetch failed")
	return err
}

func (a *Aggregator) fetchSummaryGroup(ctx context.Context, src MetricSource, day *dayResult, cats categorySet) error {
	summary, err := src.UserSummary(ctx, day.date)
	if err != nil {
		return a.soft(err, "daily_summary", day.date)
	}
	if !normalize.Truthy(summary) {
		return nil
	}

	entries := map[string][]model.Entry{}
	if cats.has("steps") {
		entries["steps"] = []model.Entry{{"date": day.date, "value": summary["totalSteps"]}}
	}
	if cats.has("total_distance") {
		distance := normalize.Coalesce(summary["totalDistance"], summary["totalDistanceMeters"], summary["distance"])
		entries["total_distance"] = []model.Entry{{"date": day.date, "value": normalize.Convert(distance, normalize.MetersToKm)}}
	}
	if cats.has("highly_active_seconds") {
		entries["highly_active_seconds"] = []model.Entry{{"date": day.date, "value": normalize.Convert(summary["highlyActiveSeconds"], normalize.SecondsToMinutes)}}
	}
	if cats.has("active_seconds") {
		entries["active_seconds"] = []model.Entry{{"date": day.date, "value": normalize.Convert(summary["activeSeconds"], normalize.SecondsToMinutes)}}
	}
	if cats.has("sedentary_seconds") {
		entries["sedentary_seconds"] = []model.Entry{{"date": day.date, "value": normalize.Convert(summary["sedentarySeconds"], normalize.SecondsToMinutes)}}
	}
	if cats.has("body_battery") {
		highest := summary["bodyBatteryHighestValue"]
		lowest := summary["bodyBatteryLowestValue"]
		atWake := summary["bodyBatteryAtWakeTime"]
		charged := summary["bodyBatteryChargedValue"]
		drained := summary["bodyBatteryDrainedValue"]
		if normalize.Truthy(highest) || normalize.Truthy(lowest) || normalize.Truthy(atWake) || normalize.Truthy(charged) || normalize.Truthy(drained) {
			entries["body_battery"] = []model.Entry{{
				"date":                 day.date,
				"body_battery_highest": highest,
				"body_battery_lowest":  lowest,
				"body_battery_at_wake": atWake,
				"body_battery_charged": charged,
				"body_battery_drained": drained,
				"body_battery_current": summary["bodyBatteryMostRecentValue"],
			}}
			day.batteryPrimary = true
		}
	}
	day.summaryEntries = entries
	return nil
}

func (a *Aggregator) fetchHydration(ctx context.Context, src MetricSource, day *dayResult) error {
	data, err := src.HydrationData(ctx, day.date)
	if err != nil {
		return a.soft(err, "hydration", day.date)
	}
	if normalize.Truthy(data) && data["valueInML"] != nil {
		day.hydration = []model.Entry{{"date": day.date, "hydration": data["valueInML"]}}
	}
	return nil
}

func (a *Aggregator) fetchFloors(ctx context.Context, src MetricSource, day *dayResult) error {
	data, err := src.Floors(ctx, day.date)
	if err != nil {
		return a.soft(err, "floors", day.date)
	}
	if !normalize.Truthy(data) {
		return nil
	}

	ascended := normalize.Coalesce(data["totalFloorsAscended"], data["floorsAscended"])
	descended := normalize.Coalesce(data["totalFloorsDescended"], data["floorsDescended"])

	// Intraday rows are [startTime, endTime, ascended, descended].
	if ascended == nil {
		if rows, ok := data["floorValuesArray"].([]any); ok && len(rows) > 0 {
			var upSum, downSum float64
			for _, item := range rows {
				row, ok := item.([]any)
				if !ok {
					continue
				}
				if len(row) > 2 {
					if v, ok := normalize.AsFloat(row[2]); ok {
						upSum += v
					}
				}
				if len(row) > 3 {
					if v, ok := normalize.AsFloat(row[3]); ok {
						downSum += v
					}
				}
			}
			ascended = upSum
			descended = downSum
		}
	}

	if ascended != nil || descended != nil {
		day.floors = []model.Entry{{"date": day.date, "floors_ascended": ascended, "floors_descended": descended}}
	}
	return nil
}

func (a *Aggregator) fetchFitnessAge(ctx context.Context, src MetricSource, day *dayResult) error {
	data, err := src.FitnessAge(ctx, day.date)
	if err != nil {
		return a.soft(err, "fitness_age", day.date)
	}
	if normalize.Truthy(data) {
		day.fitnessAge = []model.Entry{{
			"date":                   day.date,
			"fitness_age":            data["fitnessAge"],
			"chronological_age":      data["chronologicalAge"],
			"achievable_fitness_age": data["achievableFitnessAge"],
		}}
	}
	return nil
}

func (a *Aggregator) fetchHeartRates(ctx context.Context, src MetricSource, day *dayResult) error {
	data, err := src.HeartRates(ctx, day.date)
	if err != nil {
		return a.soft(err, "heart_rates", day.date)
	}
	if data == nil {
		return nil
	}

	samples := []model.Entry{}
	if values, ok := data["heartRateValues"].([]any); ok {
		for _, item := range values {
			pair, ok := item.([]any)
			if !ok || len(pair) < 2 {
				continue
			}
			if !normalize.Truthy(pair[1]) {
				continue
			}
			ts, ok := normalize.AsFloat(pair[0])
			if !ok {
				continue
			}
			samples = append(samples, model.Entry{"time": isoUTC(epochMillisToTime(ts)), "data": pair[1]})
		}
	}
	day.heartRates = []model.Entry{{"date": day.date, "HeartRate": samples}}
	return nil
}

func (a *Aggregator) fetchSleep(ctx context.Context, src MetricSource, day *dayResult) error {
	raw, err := src.SleepData(ctx, day.date)
	if err != nil {
		return a.soft(err, "sleep", day.date)
	}
	if !normalize.Truthy(raw) {
		return nil
	}
	rec, ok := BuildSleepRecord(day.date, raw)
	if !ok {
		a.log.Warn().Str("date", day.date).Msg("skipping sleep entry: bedtime/wake time unresolved or empty night")
		return nil
	}
	entry, err := model.EntryOf(rec)
	if err != nil {
		return a.soft(err, "sleep", day.date)
	}
	day.sleep = []model.Entry{entry}
	day.sleepAvgSpO2 = rec.AverageSpO2Value
	return nil
}

func (a *Aggregator) fetchStress(ctx context.Context, src MetricSource, day *dayResult) error {
	raw, err := src.StressData(ctx, day.date)
	if err != nil {
		return a.soft(err, "stress", day.date)
	}
	if raw == nil {
		return nil
	}
	rec, ok := BuildStressRecord(day.date, raw)
	if !ok {
		a.log.Debug().Str("date", day.date).Msg("no valid stress samples or derived mood")
		return nil
	}
	entry, err := model.EntryOf(rec)
	if err != nil {
		return a.soft(err, "stress", day.date)
	}
	day.stress = []model.Entry{entry}
	return nil
}

func (a *Aggregator) fetchRespiration(ctx context.Context, src MetricSource, day *dayResult) error {
	data, err := src.RespirationData(ctx, day.date)
	if err != nil {
		return a.soft(err, "respiration", day.date)
	}
	if !normalize.Truthy(data) {
		return nil
	}
	sleepResp := data["avgSleepRespirationValue"]
	awakeResp := data["avgWakingRespirationValue"]
	avgResp := data["avgRespiration"]
	if normalize.Truthy(sleepResp) || normalize.Truthy(awakeResp) || normalize.Truthy(avgResp) {
		day.respiration = []model.Entry{{
			"date":                     day.date,
			"sleep_respiration_avg":    sleepResp,
			"awake_respiration_avg":    awakeResp,
			"average_respiration_rate": normalize.Coalesce(avgResp, sleepResp, awakeResp),
		}}
	}
	return nil
}

func (a *Aggregator) fetchSpO2(ctx context.Context, src MetricSource, day *dayResult) error {
	data, err := src.SpO2Data(ctx, day.date)
	if err != nil {
		return a.soft(err, "spo2", day.date)
	}
	day.spo2Fetched = true
	if data == nil {
		return nil
	}
	if avg, ok := ExtractSpO2Average(data); ok {
		day.spo2 = []model.Entry{{"date": day.date, "average_spo2": avg}}
	}
	return nil
}

func (a *Aggregator) fetchIntensity(ctx context.Context, src MetricSource, day *dayResult) error {
	data, err := src.IntensityMinutes(ctx, day.date)
	if err != nil {
		return a.soft(err, "intensity_minutes", day.date)
	}
	if normalize.Truthy(data) {
		day.intensity = []model.Entry{{"date": day.date, "total_intensity_minutes": data["total"]}}
	}
	return nil
}

func (a *Aggregator) fetchReadinessGroup(ctx context.Context, src MetricSource, day *dayResult, cats categorySet) error {
	payload, err := src.TrainingReadiness(ctx, day.date)
	if err != nil {
		return a.soft(err, "training_readiness", day.date)
	}
	if cats.has("training_readiness") && normalize.Truthy(payload) {
		if score, ok := ExtractReadinessScore(payload); ok {
			day.readinessScore = []model.Entry{{"date": day.date, "training_readiness_score": score}}
		}
	}
	if first, ok := firstListItem(payload); ok {
		if cats.has("recovery_time") && first["recoveryTime"] != nil {
			day.recoveryTime = []model.Entry{{"date": day.date, "value": first["recoveryTime"]}}
		}
		if cats.has("acute_load") {
			day.acuteLoad = first["acuteLoad"]
		}
	}
	return nil
}

func (a *Aggregator) fetchStatusGroup(ctx context.Context, src MetricSource, day *dayResult, cats categorySet) error {
	data, err := src.TrainingStatus(ctx, day.date)
	if err != nil {
		return a.soft(err, "training_status", day.date)
	}
	if !normalize.Truthy(data) {
		return nil
	}
	if cats.has("training_status") {
		day.status = []model.Entry{{"date": day.date, "training_status": data["status"]}}
	}
	if !cats.hasAny("training_load", "acute_load") {
		return nil
	}

	recent, ok := data["mostRecentTrainingStatus"].(map[string]any)
	if !ok || len(recent) == 0 {
		return nil
	}
	device := firstDeviceEntry(recent["latestTrainingStatusData"])
	if device == nil {
		return nil
	}
	day.statusGate = true

	if cats.has("training_load") {
		weekly := device["weeklyTrainingLoad"]
		acute := normalize.Dig(device, "acuteTrainingLoadDTO", "dailyTrainingLoadAcute")
		chronic := normalize.Dig(device, "acuteTrainingLoadDTO", "dailyTrainingLoadChronic")
		if weekly != nil || acute != nil || chronic != nil {
			day.trainingLoad = []model.Entry{{
				"date":                        day.date,
				"weekly_training_load":        weekly,
				"daily_acute_training_load":   acute,
				"daily_chronic_training_load": chronic,
			}}
		}
	}
	return nil
}

// firstDeviceEntry picks one device's status block from the per-device map.
// Keys are device IDs; the lowest key is used so the choice is stable.
func firstDeviceEntry(v any) map[string]any {
	byDevice, ok := v.(map[string]any)
	if !ok || len(byDevice) == 0 {
		return nil
	}
	var minKey string
	for k := range byDevice {
		if minKey == "" || k < minKey {
			minKey = k
		}
	}
	device, _ := byDevice[minKey].(map[string]any)
	return device
}

func (a *Aggregator) fetchMaxMetrics(ctx context.Context, src MetricSource, day *dayResult) error {
	payload, err := src.MaxMetrics(ctx, day.date)
	if err != nil {
		return a.soft(err, "max_metrics", day.date)
	}

	value, ok := ExtractVO2Max(payload)
	if !ok {
		query := fmt.Sprintf("query{vo2MaxScalar(startDate:%q, endDate:%q)}", day.date, day.date)
		result, gqlErr := src.GraphQL(ctx, map[string]any{"query": query})
		if gqlErr != nil {
			a.log.Warn().Err(gqlErr).Str("date", day.date).Msg("vo2max graphql fallback failed")
		} else if result != nil {
			value, ok = ExtractVO2MaxScalar(result)
		}
	}
	if ok {
		day.maxMetrics = []model.Entry{{"date": day.date, "vo2_max": value}}
	}
	return nil
}

func (a *Aggregator) fetchHRV(ctx context.Context, src MetricSource, day *dayResult) error {
	raw, err := src.HRVData(ctx, day.date)
	if err != nil {
		return a.soft(err, "hrv", day.date)
	}
	if raw == nil {
		raw = map[string]any{}
	}

	entry := model.Entry{"date": day.date}
	samples := []model.Entry{}
	var sum float64
	var n int
	if readings, ok := raw["hrvReadings"].([]any); ok {
		for _, item := range readings {
			m, ok := item.(map[string]any)
			if !ok {
				continue
			}
			value, ok := normalize.TruthyNumber(m["hrvValue"])
			if !ok {
				continue
			}
			at, ok := m["readingTimeGMT"].(string)
			if !ok {
				return a.soft(fmt.Errorf("hrv reading missing readingTimeGMT"), "hrv", day.date)
			}
			t, ok := parseGMT(at)
			if !ok {
				return a.soft(fmt.Errorf("hrv reading has malformed readingTimeGMT %q", at), "hrv", day.date)
			}
			samples = append(samples, model.Entry{"time": isoUTC(t), "data": value})
			sum += value
			n++
		}
	}
	entry["hrvValue"] = samples
	if n > 0 {
		entry["average_overnight_hrv"] = sum / float64(n)
	}

	entry["hrv_status"] = normalize.Coalesce(raw["hrvStatus"], raw["status"])
	entry["weekly_avg"] = normalize.Coalesce(raw["weeklyAvg"], raw["sevenDayAvg"])
	entry["baseline_low"] = normalize.Coalesce(raw["baselineLowUpper"], raw["baselineLow"])
	entry["baseline_high"] = normalize.Coalesce(raw["baselineBalancedLow"], raw["baselineHigh"])

	if hrvSummary, ok := raw["hrvSummary"].(map[string]any); ok && len(hrvSummary) > 0 {
		entry["last_night_avg"] = normalize.Coalesce(hrvSummary["lastNightAvg"], hrvSummary["lastNight"])
		entry["last_night_5min_high"] = hrvSummary["lastNight5MinHigh"]
		entry["baseline_balanced_low"] = hrvSummary["baselineBalancedLow"]
		entry["baseline_balanced_upper"] = hrvSummary["baselineBalancedUpper"]
		entry["status"] = hrvSummary["status"]
	}

	day.hrv = []model.Entry{entry}
	return nil
}

func (a *Aggregator) fetchEndurance(ctx context.Context, src MetricSource, day *dayResult) error {
	data, err := src.EnduranceScore(ctx, day.date, day.date)
	if err != nil {
		return a.soft(err, "endurance_score", day.date)
	}
	if normalize.Truthy(data) {
		day.endurance = []model.Entry{{"date": day.date, "endurance_score": data["score"]}}
	}
	return nil
}

func (a *Aggregator) fetchHill(ctx context.Context, src MetricSource, day *dayResult) error {
	data, err := src.HillScore(ctx, day.date, day.date)
	if err != nil {
		return a.soft(err, "hill_score", day.date)
	}
	if normalize.Truthy(data) {
		day.hill = []model.Entry{{"date": day.date, "hill_score": data["overall"]}}
	}
	return nil
}

func (a *Aggregator) fetchBloodPressure(ctx context.Context, src MetricSource, day *dayResult) error {
	data, err := src.BloodPressure(ctx, day.date, day.date)
	if err != nil {
		return a.soft(err, "blood_pressure", day.date)
	}
	summaries, _ := data["measurementSummaries"].([]any)
	entries := []model.Entry{}
	for _, item := range summaries {
		ms, ok := item.(map[string]any)
		if !ok {
			continue
		}
		measurements, _ := ms["measurements"].([]any)
		for _, mi := range measurements {
			m, ok := mi.(map[string]any)
			if !ok {
				continue
			}
			systolic := m["systolic"]
			diastolic := m["diastolic"]
			if systolic == nil || diastolic == nil {
				a.log.Warn().Str("date", day.date).Msg("incomplete blood pressure measurement")
				continue
			}
			value := fmt.Sprintf("%v/%v", systolic, diastolic)
			if pulse := m["pulse"]; pulse != nil {
				value += fmt.Sprintf(", %v bpm", pulse)
			}
			entries = append(entries, model.Entry{"date": day.date, "value": value})
		}
	}
	if len(entries) > 0 {
		day.bloodPressure = entries
	}
	return nil
}

func (a *Aggregator) fetchMenstrual(ctx context.Context, src MetricSource, day *dayResult) error {
	data, err := src.MenstrualData(ctx, day.date)
	if err != nil {
		return a.soft(err, "menstrual_data", day.date)
	}
	if normalize.Truthy(data) {
		day.menstrual = []model.Entry{{"date": day.date, "data": data}}
	}
	return nil
}

func (a *Aggregator) fetchMenstrualCalendar(ctx context.Context, src MetricSource, day *dayResult) error {
	data, err := src.MenstrualCalendar(ctx, day.date, day.date)
	if err != nil {
		return a.soft(err, "menstrual_calendar_data", day.date)
	}
	if normalize.Truthy(data) {
		day.menstrualCal = []model.Entry{{"date": day.date, "data": data}}
	}
	return nil
}

func (a *Aggregator) fetchBodyComposition(ctx context.Context, src MetricSource, day *dayResult) error {
	data, err := src.BodyComposition(ctx, day.date, day.date)
	if err != nil {
		return a.soft(err, "body_composition", day.date)
	}
	weights, _ := data["dateWeightList"].([]any)
	entries := []model.Entry{}
	for _, item := range weights {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		entries = append(entries, model.Entry{
			"date":                  m["date"],
			"weight":                normalize.Convert(m["weight"], normalize.GramsToKg),
			"body_fat_percentage":   m["bodyFat"],
			"bmi":                   m["bmi"],
			"body_water_percentage": m["bodyWater"],
			"bone_mass":             normalize.Convert(m["boneMass"], normalize.GramsToKg),
			"muscle_mass":           normalize.Convert(m["muscleMass"], normalize.GramsToKg),
		})
	}
	if len(entries) > 0 {
		day.bodyComp = entries
	}
	return nil
}

// fetchBatteryFallback runs in the second wave, only for dates where the
// daily summary produced no body-battery entry.
func (a *Aggregator) fetchBatteryFallback(ctx context.Context, src MetricSource, day *dayResult) error {
	payload, err := src.BodyBattery(ctx, day.date, day.date)
	if err != nil {
		return a.soft(err, "body_battery", day.date)
	}
	list, ok := payload.([]any)
	if !ok || len(list) == 0 {
		return nil
	}

	entries := []model.Entry{}
	for _, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		var highest, lowest, current any
		if rows, ok := m["bodyBatteryValuesArray"].([]any); ok && len(rows) > 0 {
			var values []float64
			for _, ri := range rows {
				row, ok := ri.([]any)
				if !ok || len(row) < 2 {
					continue
				}
				if v, ok := normalize.AsFloat(row[1]); ok {
					values = append(values, v)
				}
			}
			if len(values) > 0 {
				hi, lo := values[0], values[0]
				for _, v := range values[1:] {
					if v > hi {
						hi = v
					}
					if v < lo {
						lo = v
					}
				}
				highest, lowest, current = hi, lo, values[len(values)-1]
			}
		}
		entries = append(entries, model.Entry{
			"date":                 day.date,
			"body_battery_highest": highest,
			"body_battery_lowest":  lowest,
			"body_battery_at_wake": nil,
			"body_battery_charged": m["charged"],
			"body_battery_drained": m["drained"],
			"body_battery_current": current,
		})
	}
	if len(entries) > 0 {
		day.batteryFallback = entries
	}
	return nil
}

func (a *Aggregator) fetchLactate(ctx context.Context, src MetricSource, rng *rangeResult, startDate string) error {
	data, err := src.LactateThreshold(ctx)
	if err != nil {
		return a.soft(err, "lactate_threshold", startDate)
	}
	if normalize.Truthy(data) {
		rng.lactate = []model.Entry{{
			"date":                 startDate,
			"lactate_threshold_hr": normalize.Dig(data, "speed_and_heart_rate", "heartRate"),
		}}
	}
	return nil
}

var raceTypeFields = map[string]string{
	"FIVE_K":        "race_prediction_5k",
	"TEN_K":         "race_prediction_10k",
	"HALF_MARATHON": "race_prediction_half_marathon",
	"MARATHON":      "race_prediction_marathon",
}

func (a *Aggregator) fetchRacePredictions(ctx context.Context, src MetricSource, rng *rangeResult, startDate string) error {
	data, err := src.RacePredictions(ctx)
	if err != nil {
		return a.soft(err, "race_predictions", startDate)
	}
	if !normalize.Truthy(data) {
		return nil
	}
	entry := model.Entry{"date": startDate}
	if predictions, ok := data["racePredictionList"].([]any); ok {
		for _, item := range predictions {
			m, ok := item.(map[string]any)
			if !ok {
				continue
			}
			raceType, _ := m["raceType"].(string)
			if field, ok := raceTypeFields[raceType]; ok {
				entry[field] = m["predictedTime"]
			}
		}
	}
	if len(entry) > 1 {
		rng.races = []model.Entry{entry}
	}
	return nil
}

func (a *Aggregator) fetchPregnancy(ctx context.Context, src MetricSource, rng *rangeResult, startDate string) error {
	data, err := src.PregnancySummary(ctx)
	if err != nil {
		return a.soft(err, "pregnancy_summary", startDate)
	}
	if normalize.Truthy(data) {
		rng.pregnancy = []model.Entry{{"date": startDate, "data": data}}
	}
	return nil
}
