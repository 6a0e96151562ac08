package wellness

import (
	"fmt"

	"github.com/apedley/SparkyFitness/internal/normalize"
)

// StressSample is one intraday reading. Body-battery samples reuse the same
// shape (and field name) as stress samples on the wire.
type StressSample struct {
	Time        string  `json:"time"`
	StressLevel float64 `json:"stress_level"`
}

// StressRecord carries the day's valid stress samples, the parallel
// body-battery samples, and the mood derived from the mean stress level.
type StressRecord struct {
	Date             string         `json:"date"`
	StressLevel      []StressSample `json:"stressLevel"`
	BodyBatteryLevel []StressSample `json:"BodyBatteryLevel"`
	RawStressData    []StressSample `json:"raw_stress_data"`
	DerivedMoodValue any            `json:"derived_mood_value"`
	DerivedMoodNotes any            `json:"derived_mood_notes"`
}

// BuildStressRecord derives a StressRecord for one date from the raw stress
// payload. Negative samples mark "no reading" and are filtered. ok is false
// when the day has neither a valid sample nor a derivable mood.
func BuildStressRecord(date string, raw map[string]any) (*StressRecord, bool) {
	rec := &StressRecord{
		Date:             date,
		StressLevel:      []StressSample{},
		BodyBatteryLevel: []StressSample{},
	}

	stressArr, _ := raw["stressValuesArray"].([]any)
	var validSum float64
	for _, item := range stressArr {
		pair, ok := item.([]any)
		if !ok || len(pair) < 2 {
			continue
		}
		ts, tsOK := normalize.AsFloat(pair[0])
		v, vOK := normalize.AsFloat(pair[1])
		if !tsOK || !vOK || v < 0 {
			continue
		}
		rec.StressLevel = append(rec.StressLevel, StressSample{
			Time:        isoUTC(epochMillisToTime(ts)),
			StressLevel: v,
		})
		validSum += v
	}

	batteryArr, _ := raw["bodyBatteryValuesArray"].([]any)
	for _, item := range batteryArr {
		pair, ok := item.([]any)
		if !ok || len(pair) < 3 {
			continue
		}
		ts, tsOK := normalize.AsFloat(pair[0])
		v, vOK := normalize.AsFloat(pair[2])
		if !tsOK || !vOK || v < 0 {
			continue
		}
		rec.BodyBatteryLevel = append(rec.BodyBatteryLevel, StressSample{
			Time:        isoUTC(epochMillisToTime(ts)),
			StressLevel: v,
		})
	}

	rec.RawStressData = rec.StressLevel

	if n := len(rec.StressLevel); n > 0 {
		avg := validSum / float64(n)
		if value, category, ok := MoodFromStress(avg); ok {
			rec.DerivedMoodValue = value
			rec.DerivedMoodNotes = fmt.Sprintf("Derived from Garmin Stress: Average %.0f (%s)", avg, category)
		}
	}

	if len(rec.StressLevel) == 0 && rec.DerivedMoodValue == nil {
		return nil, false
	}
	return rec, true
}
