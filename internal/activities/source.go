package activities

import "context"

// Source is the slice of an authenticated Garmin session the assembler
// needs: one listing call per kind plus the per-activity enrichment calls.
type Source interface {
	ActivitiesByDate(ctx context.Context, startDate, endDate, activityType string) ([]map[string]any, error)
	ActivityDetails(ctx context.Context, activityID int64) (any, error)
	ActivitySplits(ctx context.Context, activityID int64) (any, error)
	ActivityWeather(ctx context.Context, activityID int64) (any, error)
	ActivityHRInTimezones(ctx context.Context, activityID int64) (any, error)
	ActivityExerciseSets(ctx context.Context, activityID int64) (any, error)
	ActivityGear(ctx context.Context, activityID int64) (any, error)
	Workouts(ctx context.Context) ([]map[string]any, error)
	WorkoutByID(ctx context.Context, workoutID int64) (map[string]any, error)
}
