package api

import (
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/apedley/SparkyFitness/internal/api/recovery"
)

// NewRouter wires all HTTP routes to their handlers.
func NewRouter(wellness WellnessService, activities ActivitiesService, auth AuthService) *mux.Router {
	router := mux.NewRouter()
	router.Use(recovery.Middleware)

	health := NewHealthHandler()
	router.HandleFunc("/", health.Root).Methods("GET")
	router.HandleFunc("/api/health", health.CheckHealth).Methods("GET")
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	wellnessHandler := NewWellnessHandler(wellness)
	router.HandleFunc("/data/health_and_wellness", wellnessHandler.Fetch).Methods("POST")

	activitiesHandler := NewActivitiesHandler(activities)
	router.HandleFunc("/data/activities_and_workouts", activitiesHandler.Fetch).Methods("POST")

	authHandler := NewAuthHandler(auth)
	router.HandleFunc("/auth/garmin/login", authHandler.Login).Methods("POST")
	router.HandleFunc("/auth/garmin/resume_login", authHandler.Resume).Methods("POST")

	return router
}
