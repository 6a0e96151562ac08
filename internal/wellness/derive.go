package wellness

import (
	"time"

	"github.com/apedley/SparkyFitness/internal/normalize"
)

// gmtLayout parses the provider's zone-less GMT strings; fractional seconds
// are accepted implicitly by time.Parse.
const gmtLayout = "2006-01-02T15:04:05"

func parseGMT(s string) (time.Time, bool) {
	t, err := time.Parse(gmtLayout, s)
	if err != nil {
		return time.Time{}, false
	}
	return t.UTC(), true
}

func epochMillisToTime(ms float64) time.Time {
	return time.UnixMilli(int64(ms)).UTC()
}

func isoUTC(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// MoodFromStress maps an average stress level onto a mood value and category
// label. Negative input means the provider had no data: ok is false and no
// mood is derived. Fractional averages that fall between bands and values
// above 100 take the default.
func MoodFromStress(level float64) (value int, category string, ok bool) {
	if level < 0 {
		return 0, "", false
	}
	switch {
	case level >= 0 && level <= 10:
		return 95, "Excited", true
	case level >= 11 && level <= 25:
		return 85, "Happy", true
	case level >= 26 && level <= 35:
		return 75, "Confident", true
	case level >= 36 && level <= 50:
		return 65, "Calm", true
	case level >= 51 && level <= 60:
		return 55, "Thoughtful", true
	case level >= 61 && level <= 75:
		return 45, "Neutral", true
	case level >= 76 && level <= 85:
		return 35, "Worried", true
	case level >= 86 && level <= 95:
		return 25, "Angry", true
	case level >= 96 && level <= 100:
		return 15, "Sad/Tired", true
	default:
		return 50, "Neutral", true
	}
}

// stageTypeForLevel classifies an intraday sleep activity level. Levels of 3
// and above are awake; anything unrecognized is "unknown" and excluded from
// stage totals.
func stageTypeForLevel(level float64) string {
	switch {
	case level == 0:
		return "deep"
	case level == 1:
		return "light"
	case level == 2:
		return "rem"
	case level >= 3:
		return "awake"
	default:
		return "unknown"
	}
}

// The provider returns the same logical value under different names and
// shapes depending on endpoint and account age. Each ambiguous metric gets
// an explicit extractor chain tried in priority order; the first truthy hit
// wins. Zero advances the chain, matching upstream presence conventions.

type numberExtractor func(m map[string]any) (float64, bool)

func fieldNumber(key string) numberExtractor {
	return func(m map[string]any) (float64, bool) {
		return normalize.TruthyNumber(m[key])
	}
}

func nestedNumber(outer, inner string) numberExtractor {
	return func(m map[string]any) (float64, bool) {
		return normalize.TruthyNumber(normalize.Dig(m, outer, inner))
	}
}

func runChain(m map[string]any, chain []numberExtractor) (float64, bool) {
	for _, extract := range chain {
		if v, ok := extract(m); ok {
			return v, true
		}
	}
	return 0, false
}

// firstObject normalizes the provider's object-or-list ambiguity: a list
// payload yields its first element.
func firstObject(payload any) (map[string]any, bool) {
	switch v := payload.(type) {
	case map[string]any:
		return v, true
	case []any:
		if len(v) == 0 {
			return nil, false
		}
		m, ok := v[0].(map[string]any)
		return m, ok
	default:
		return nil, false
	}
}

// firstListItem is like firstObject but accepts only the list shape.
func firstListItem(payload any) (map[string]any, bool) {
	v, ok := payload.([]any)
	if !ok || len(v) == 0 {
		return nil, false
	}
	m, ok := v[0].(map[string]any)
	return m, ok
}

var vo2MaxChain = []numberExtractor{
	fieldNumber("vo2Max"),
	fieldNumber("vo2MaxValue"),
	nestedNumber("generic", "vo2MaxPreciseValue"),
}

// ExtractVO2Max pulls a VO2max value out of the REST max-metrics payload,
// which arrives as either an object or a single-element list.
func ExtractVO2Max(payload any) (float64, bool) {
	m, ok := firstObject(payload)
	if !ok {
		return 0, false
	}
	return runChain(m, vo2MaxChain)
}

// ExtractVO2MaxScalar pulls a VO2max value from the GraphQL fallback
// response shape: data.vo2MaxScalar[0].{vo2Max|value}.
func ExtractVO2MaxScalar(result map[string]any) (float64, bool) {
	m, ok := firstListItem(normalize.Dig(result, "data", "vo2MaxScalar"))
	if !ok {
		return 0, false
	}
	return runChain(m, []numberExtractor{fieldNumber("vo2Max"), fieldNumber("value")})
}

var spo2DirectChain = []numberExtractor{
	fieldNumber("avgSpO2"),
	fieldNumber("averageSpO2"),
	fieldNumber("average"),
	fieldNumber("latestSpO2Value"),
}

// ExtractSpO2Average resolves the day's average SpO2 from the pulse-ox
// payload: direct average fields first, then the mean of intraday readings,
// then the all-day sub-document.
func ExtractSpO2Average(payload map[string]any) (float64, bool) {
	if v, ok := runChain(payload, spo2DirectChain); ok {
		return v, true
	}
	if daily, ok := payload["dailySpO2Values"].([]any); ok {
		var sum float64
		var n int
		for _, item := range daily {
			m, ok := item.(map[string]any)
			if !ok {
				continue
			}
			if v, ok := normalize.TruthyNumber(normalize.Coalesce(m["spO2"], m["value"])); ok {
				sum += v
				n++
			}
		}
		if n > 0 {
			return sum / float64(n), true
		}
	}
	if allDay, ok := payload["allDaySpO2"].(map[string]any); ok {
		return runChain(allDay, []numberExtractor{
			fieldNumber("averageValue"),
			fieldNumber("avg"),
			fieldNumber("avgSpO2"),
		})
	}
	return 0, false
}

// ExtractReadinessScore resolves the training readiness score from either
// response shape. The bare "value" field is only trusted in the list shape.
func ExtractReadinessScore(payload any) (float64, bool) {
	switch v := payload.(type) {
	case []any:
		m, ok := firstListItem(v)
		if !ok {
			return 0, false
		}
		return runChain(m, []numberExtractor{
			fieldNumber("score"),
			fieldNumber("trainingReadinessScore"),
			fieldNumber("value"),
		})
	case map[string]any:
		return runChain(v, []numberExtractor{
			fieldNumber("score"),
			fieldNumber("trainingReadinessScore"),
		})
	default:
		return 0, false
	}
}
