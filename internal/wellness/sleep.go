package wellness

import (
	"sort"
	"time"

	"github.com/apedley/SparkyFitness/internal/normalize"
)

// SleepStageEvent is one intraday stage interval.
type SleepStageEvent struct {
	StageType         string `json:"stage_type"`
	StartTime         string `json:"start_time"`
	EndTime           string `json:"end_time"`
	DurationInSeconds int    `json:"duration_in_seconds"`
}

// SleepRecord reconciles the nightly summary with optional intraday stage
// events into one dated record. Stage totals come from the summary when it
// has them; otherwise they are recomputed by summing events. Never both.
type SleepRecord struct {
	EntryDate           string `json:"entry_date"`
	Bedtime             string `json:"bedtime"`
	WakeTime            string `json:"wake_time"`
	DurationInSeconds   int    `json:"duration_in_seconds"`
	TimeAsleepInSeconds int    `json:"time_asleep_in_seconds"`
	Source              string `json:"source"`
	SleepScore          any    `json:"sleep_score"`

	DeepSleepSeconds  int `json:"deep_sleep_seconds"`
	LightSleepSeconds int `json:"light_sleep_seconds"`
	RemSleepSeconds   int `json:"rem_sleep_seconds"`
	AwakeSleepSeconds int `json:"awake_sleep_seconds"`

	AverageSpO2Value any `json:"average_spo2_value"`
	LowestSpO2Value  any `json:"lowest_spo2_value"`
	HighestSpO2Value any `json:"highest_spo2_value"`

	AverageRespirationValue any `json:"average_respiration_value"`
	LowestRespirationValue  any `json:"lowest_respiration_value"`
	HighestRespirationValue any `json:"highest_respiration_value"`

	AwakeCount           any `json:"awake_count"`
	AvgSleepStress       any `json:"avg_sleep_stress"`
	RestlessMomentsCount any `json:"restless_moments_count"`
	AvgOvernightHrv      any `json:"avg_overnight_hrv"`
	BodyBatteryChange    any `json:"body_battery_change"`
	RestingHeartRate     any `json:"resting_heart_rate"`

	StageEvents []SleepStageEvent `json:"stage_events"`
}

type stageSpan struct {
	start    time.Time
	end      time.Time
	level    float64
	hasLevel bool
}

func parseStageSpans(levels []any) ([]stageSpan, bool) {
	spans := make([]stageSpan, 0, len(levels))
	for _, item := range levels {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, false
		}
		startRaw, _ := m["startGMT"].(string)
		endRaw, _ := m["endGMT"].(string)
		start, ok := parseGMT(startRaw)
		if !ok {
			return nil, false
		}
		end, ok := parseGMT(endRaw)
		if !ok {
			return nil, false
		}
		span := stageSpan{start: start, end: end}
		if lv, ok := normalize.AsFloat(m["activityLevel"]); ok {
			span.level = lv
			span.hasLevel = true
		}
		spans = append(spans, span)
	}
	return spans, true
}

// BuildSleepRecord derives a SleepRecord for one date from the raw sleep
// payload. ok is false when bedtime/wake time cannot be resolved, the total
// duration is not positive, or the intraday events are malformed.
func BuildSleepRecord(date string, raw map[string]any) (*SleepRecord, bool) {
	summary, _ := raw["dailySleepDTO"].(map[string]any)

	levels, _ := raw["sleepLevels"].([]any)
	spans, ok := parseStageSpans(levels)
	if !ok {
		return nil, false
	}

	var bedtime, wakeTime time.Time
	var haveTimes bool
	if startMs, ok := normalize.TruthyNumber(summary["sleepStartTimestampGMT"]); ok {
		if endMs, ok := normalize.TruthyNumber(summary["sleepEndTimestampGMT"]); ok {
			bedtime = epochMillisToTime(startMs)
			wakeTime = epochMillisToTime(endMs)
			haveTimes = true
		}
	}
	if !haveTimes && len(spans) > 0 {
		sorted := make([]stageSpan, len(spans))
		copy(sorted, spans)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i].start.Before(sorted[j].start) })
		bedtime = sorted[0].start
		wakeTime = sorted[len(sorted)-1].end
		haveTimes = true
	}
	if !haveTimes {
		return nil, false
	}

	duration := int(wakeTime.Sub(bedtime).Seconds())
	if f, ok := normalize.AsFloat(summary["sleepTimeSeconds"]); ok {
		duration = int(f)
	}

	rec := &SleepRecord{
		EntryDate:         date,
		Bedtime:           isoUTC(bedtime),
		WakeTime:          isoUTC(wakeTime),
		DurationInSeconds: duration,
		Source:            "garmin",
		SleepScore:        normalize.Dig(summary, "sleepScores", "overall", "value"),

		DeepSleepSeconds:  normalize.IntOrZero(summary["deepSleepSeconds"]),
		LightSleepSeconds: normalize.IntOrZero(summary["lightSleepSeconds"]),
		RemSleepSeconds:   normalize.IntOrZero(summary["remSleepSeconds"]),
		AwakeSleepSeconds: normalize.IntOrZero(normalize.Coalesce(summary["awakeSleepSeconds"], summary["awakeDuringSleepSeconds"])),

		AverageSpO2Value: summary["averageSpO2Value"],
		LowestSpO2Value:  summary["lowestSpO2Value"],
		HighestSpO2Value: summary["highestSpO2Value"],

		AverageRespirationValue: summary["averageRespirationValue"],
		LowestRespirationValue:  summary["lowestRespirationValue"],
		HighestRespirationValue: summary["highestRespirationValue"],

		AwakeCount:           summary["awakeCount"],
		AvgSleepStress:       summary["avgSleepStress"],
		RestlessMomentsCount: raw["restlessMomentsCount"],
		AvgOvernightHrv:      raw["avgOvernightHrv"],
		BodyBatteryChange:    raw["bodyBatteryChange"],
		RestingHeartRate:     raw["restingHeartRate"],

		StageEvents: make([]SleepStageEvent, 0, len(spans)),
	}

	// Recompute totals from events only when the summary had none at all;
	// summing on top of summary values would double-count.
	needsStageSum := rec.DeepSleepSeconds == 0 && rec.LightSleepSeconds == 0 && rec.RemSleepSeconds == 0
	if needsStageSum {
		rec.AwakeSleepSeconds = 0
	}

	for _, span := range spans {
		if !span.hasLevel {
			continue
		}
		stageType := stageTypeForLevel(span.level)
		stageSeconds := int(span.end.Sub(span.start).Seconds())
		rec.StageEvents = append(rec.StageEvents, SleepStageEvent{
			StageType:         stageType,
			StartTime:         isoUTC(span.start),
			EndTime:           isoUTC(span.end),
			DurationInSeconds: stageSeconds,
		})
		if needsStageSum {
			switch stageType {
			case "deep":
				rec.DeepSleepSeconds += stageSeconds
			case "light":
				rec.LightSleepSeconds += stageSeconds
			case "rem":
				rec.RemSleepSeconds += stageSeconds
			case "awake":
				rec.AwakeSleepSeconds += stageSeconds
			}
		}
	}

	rec.TimeAsleepInSeconds = rec.DeepSleepSeconds + rec.LightSleepSeconds + rec.RemSleepSeconds

	if rec.DurationInSeconds <= 0 {
		return nil, false
	}
	return rec, true
}
