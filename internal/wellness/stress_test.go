package wellness

import (
	"testing"
	"time"
)

func epochMS(h, m int) float64 {
	return float64(time.Date(2025, 3, 1, h, m, 0, 0, time.UTC).UnixMilli())
}

func TestBuildStressRecord_FiltersAndDerivesMood(t *testing.T) {
	raw := map[string]any{
		"stressValuesArray": []any{
			[]any{epochMS(8, 0), float64(20)},
			[]any{epochMS(8, 3), float64(-1)}, // no reading
			[]any{epochMS(8, 6), float64(30)},
			[]any{epochMS(8, 9)}, // malformed pair
		},
		"bodyBatteryValuesArray": []any{
			[]any{epochMS(8, 0), "MEASURED", float64(80)},
			[]any{epochMS(8, 3), "MEASURED", float64(-5)}, // invalid
			[]any{epochMS(8, 6), "MEASURED", float64(78)},
		},
	}

	rec, ok := BuildStressRecord("2025-03-01", raw)
	if !ok {
		t.Fatal("expected a record")
	}
	if len(rec.StressLevel) != 2 {
		t.Fatalf("negative and malformed samples should be filtered: %+v", rec.StressLevel)
	}
	if rec.StressLevel[0].Time != "2025-03-01T08:00:00Z" || rec.StressLevel[0].StressLevel != 20 {
		t.Fatalf("unexpected first sample: %+v", rec.StressLevel[0])
	}
	if len(rec.BodyBatteryLevel) != 2 || rec.BodyBatteryLevel[1].StressLevel != 78 {
		t.Fatalf("unexpected battery samples: %+v", rec.BodyBatteryLevel)
	}

	// mean of 20 and 30 is 25 -> Happy band
	if rec.DerivedMoodValue != 85 {
		t.Fatalf("derived mood value = %v, want 85", rec.DerivedMoodValue)
	}
	notes, _ := rec.DerivedMoodNotes.(string)
	if notes != "Derived from Garmin Stress: Average 25 (Happy)" {
		t.Fatalf("unexpected mood notes: %q", notes)
	}

	if len(rec.RawStressData) != len(rec.StressLevel) {
		t.Fatalf("raw stress data should mirror the valid samples")
	}
}

func TestBuildStressRecord_AllInvalidSamples(t *testing.T) {
	raw := map[string]any{
		"stressValuesArray": []any{
			[]any{epochMS(8, 0), float64(-1)},
			[]any{epochMS(8, 3), float64(-2)},
		},
	}
	if _, ok := BuildStressRecord("2025-03-01", raw); ok {
		t.Fatal("a day with no valid samples and no mood should be skipped")
	}
}

func TestBuildStressRecord_EmptyPayload(t *testing.T) {
	if _, ok := BuildStressRecord("2025-03-01", map[string]any{}); ok {
		t.Fatal("empty payload should be skipped")
	}
}

func TestBuildStressRecord_BatteryPairsTooShort(t *testing.T) {
	raw := map[string]any{
		"stressValuesArray": []any{[]any{epochMS(9, 0), float64(40)}},
		// battery rows need three slots; two-slot rows are stress-shaped
		"bodyBatteryValuesArray": []any{[]any{epochMS(9, 0), float64(70)}},
	}
	rec, ok := BuildStressRecord("2025-03-01", raw)
	if !ok {
		t.Fatal("expected a record")
	}
	if len(rec.BodyBatteryLevel) != 0 {
		t.Fatalf("short battery rows should be ignored: %+v", rec.BodyBatteryLevel)
	}
}
