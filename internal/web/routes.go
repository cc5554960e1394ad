package web

import (
	"github.com/go-chi/chi/v5"

	"github.com/Ashish-Pandey62/Photo-Validation-System/internal/web/handlers"
)

func (s *Server) setupRoutes() {
	batchesHandler := handlers.NewBatchesHandler(s.config, s.runner, s.snapshots, s.jobManager, s.runs, s.logger)
	configHandler := handlers.NewConfigHandler(s.config, s.snapshots, s.logger)
	resultsHandler := handlers.NewResultsHandler(s.config, s.logger)
	systemHandler := handlers.NewSystemHandler(s.config, s.monitor)
	runsHandler := handlers.NewRunsHandler(s.runs)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", handlers.HealthCheck)

		// Batches (long-running validation runs)
		r.Post("/batches", batchesHandler.Start)
		r.Get("/batches", batchesHandler.List)
		r.Get("/batches/{jobId}", batchesHandler.Status)
		r.Get("/batches/{jobId}/events", batchesHandler.Events)
		r.Delete("/batches/{jobId}", batchesHandler.Cancel)

		// Config
		r.Get("/config", configHandler.Get)
		r.Put("/config", configHandler.Update)

		// Results (failure log of one input directory, ?dir=)
		r.Get("/results", resultsHandler.List)
		r.Delete("/results", resultsHandler.Clear)
		r.Post("/results/restore", resultsHandler.Restore)
		r.Post("/results/archive", resultsHandler.Archive)
		r.Get("/results/export", resultsHandler.Export)

		// Host
		r.Get("/system", systemHandler.Get)

		// History
		r.Get("/runs", runsHandler.List)
		r.Get("/runs/{id}", runsHandler.Get)
	})
}
