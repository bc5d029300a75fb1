// Package api serves the JSON endpoints: projects, per-day timelines,
// execution history and rebuilt scenes.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/leapstack-labs/leapline/internal/ui/features/common"
)

// SetupRoutes configures routes for the api feature.
func SetupRoutes(router chi.Router, deps *common.Deps) error {
	handlers := NewHandlers(deps)

	router.Route("/api", func(r chi.Router) {
		if len(deps.Origins) > 0 {
			r.Use(cors.Handler(cors.Options{
				AllowedOrigins:       deps.Origins,
				AllowedMethods:       []string{http.MethodGet, http.MethodOptions},
				AllowedHeaders:       []string{"Accept", "Content-Type"},
				MaxAge:               300,
				OptionsSuccessStatus: http.StatusNoContent,
			}))
		}
		r.Get("/projects", handlers.Projects)
		r.Get("/timeline/{projectId}/{date}", handlers.Timeline)
		r.Get("/real-timeline-data", handlers.RealTimelineData)
		r.Get("/scene", handlers.Scene)
	})

	return nil
}
