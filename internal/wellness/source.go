package wellness

import "context"

// MetricSource is the authenticated upstream surface the aggregator fetches
// from. One method per provider operation; date parameters are ISO-8601
// calendar dates. Implementations return provider-native JSON decoded into
// generic values, or an error treated as a soft failure by the caller.
type MetricSource interface {
	UserSummary(ctx context.Context, date string) (map[string]any, error)
	HydrationData(ctx context.Context, date string) (map[string]any, error)
	Floors(ctx context.Context, date string) (map[string]any, error)
	FitnessAge(ctx context.Context, date string) (map[string]any, error)
	HeartRates(ctx context.Context, date string) (map[string]any, error)
	SleepData(ctx context.Context, date string) (map[string]any, error)
	StressData(ctx context.Context, date string) (map[string]any, error)
	RespirationData(ctx context.Context, date string) (map[string]any, error)
	SpO2Data(ctx context.Context, date string) (map[string]any, error)
	IntensityMinutes(ctx context.Context, date string) (map[string]any, error)
	TrainingReadiness(ctx context.Context, date string) (any, error)
	TrainingStatus(ctx context.Context, date string) (map[string]any, error)
	MaxMetrics(ctx context.Context, date string) (any, error)
	GraphQL(ctx context.Context, query map[string]any) (map[string]any, error)
	HRVData(ctx context.Context, date string) (map[string]any, error)
	EnduranceScore(ctx context.Context, startDate, endDate string) (map[string]any, error)
	HillScore(ctx context.Context, startDate, endDate string) (map[string]any, error)
	BloodPressure(ctx context.Context, startDate, endDate string) (map[string]any, error)
	BodyBattery(ctx context.Context, startDate, endDate string) (any, error)
	MenstrualData(ctx context.Context, date string) (map[string]any, error)
	MenstrualCalendar(ctx context.Context, startDate, endDate string) (map[string]any, error)
	BodyComposition(ctx context.Context, startDate, endDate string) (map[string]any, error)
	LactateThreshold(ctx context.Context) (map[string]any, error)
	RacePredictions(ctx context.Context) (map[string]any, error)
	PregnancySummary(ctx context.Context) (map[string]any, error)
}
