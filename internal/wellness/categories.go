package wellness

// AllCategories is the fixed set of metric categories fetched when a request
// names none. Order matters only for readability; output ordering is by date.
var AllCategories = []string{
	// daily summary metrics
	"steps", "total_distance", "highly_active_seconds", "active_seconds", "sedentary_seconds",
	// health metrics
	"heart_rates", "sleep", "stress", "respiration", "spo2",
	"intensity_minutes", "training_readiness", "training_status", "max_metrics",
	"hrv", "lactate_threshold", "endurance_score", "hill_score", "race_predictions",
	"blood_pressure", "body_battery", "menstrual_data", "floors", "fitness_age",
	"body_composition", "hydration", "recovery_time", "training_load", "acute_load",
}

// Opt-in categories are fetched only when a request names them explicitly.
// They are not part of the AllCategories expansion.
var optInCategories = []string{"pregnancy_summary", "menstrual_calendar_data"}

type categorySet map[string]struct{}

// newCategorySet expands an empty request to all default categories.
func newCategorySet(requested []string) categorySet {
	if len(requested) == 0 {
		requested = AllCategories
	}
	s := make(categorySet, len(requested))
	for _, c := range requested {
		s[c] = struct{}{}
	}
	return s
}

func (s categorySet) has(cat string) bool {
	_, ok := s[cat]
	return ok
}

func (s categorySet) hasAny(cats ...string) bool {
	for _, c := range cats {
		if s.has(c) {
			return true
		}
	}
	return false
}
