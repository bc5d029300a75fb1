// Package timeline serves the interactive timeline page and its SSE updates.
package timeline

import (
	"github.com/go-chi/chi/v5"

	"github.com/leapstack-labs/leapline/internal/ui/features/common"
)

// SetupRoutes configures routes for the timeline feature.
func SetupRoutes(router chi.Router, deps *common.Deps) error {
	handlers := NewHandlers(deps, NewViews())

	router.Get("/", handlers.Redirect)
	router.Get("/timeline", handlers.TimelinePage)
	router.Get("/timeline/updates", handlers.TimelineUpdates)
	router.Post("/timeline/interact", handlers.Interact)

	return nil
}
