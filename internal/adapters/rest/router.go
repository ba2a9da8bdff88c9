// Package rest exposes the focus-area services over HTTP.
package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/example/focusarea/internal/observability"
	"github.com/example/focusarea/internal/ports/primary"
	"github.com/example/focusarea/internal/version"
)

// Router creates and configures the HTTP router.
type Router struct {
	focusAreas     primary.FocusAreaService
	history        primary.HistoryService
	packages       primary.PackageService
	metrics        *observability.Collector
	logger         *zap.Logger
	allowedOrigins []string
}

// NewRouter creates a new router instance. metrics may be nil.
func NewRouter(
	focusAreas primary.FocusAreaService,
	history primary.HistoryService,
	packages primary.PackageService,
	metrics *observability.Collector,
	logger *zap.Logger,
	allowedOrigins []string,
) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"http://localhost:*"}
	}
	return &Router{
		focusAreas:     focusAreas,
		history:        history,
		packages:       packages,
		metrics:        metrics,
		logger:         logger,
		allowedOrigins: allowedOrigins,
	}
}

// Setup configures all routes and middleware.
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	router.Use(ensureRequestID)
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(requestContext)
	router.Use(Logger(rt.logger))
	router.Use(Metrics(rt.metrics))

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   rt.allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", requestIDHeader, actorHeader},
		ExposedHeaders:   []string{requestIDHeader},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Get("/health", rt.healthCheck)
	if rt.metrics != nil {
		router.Method(http.MethodGet, "/metrics", rt.metrics.Handler())
	}

	router.Route("/api/v1", func(r chi.Router) {
		pkgHandler := NewPackageHandler(rt.packages, rt.focusAreas, rt.logger)
		faHandler := NewFocusAreaHandler(rt.focusAreas, rt.history, rt.logger)

		r.Route("/packages", func(r chi.Router) {
			r.Post("/", pkgHandler.CreatePackage)
			r.Get("/", pkgHandler.ListPackages)
			r.Get("/{packageID}", pkgHandler.GetPackage)
			r.Delete("/{packageID}", pkgHandler.DeletePackage)
			r.Get("/{packageID}/focus-areas", pkgHandler.ListFocusAreas)
			r.Post("/{packageID}/focus-areas", faHandler.CreateFocusArea)
		})

		r.Route("/focus-areas/{focusAreaID}", func(r chi.Router) {
			r.Get("/", faHandler.GetCurrent)
			r.Delete("/", faHandler.RemoveFocusArea)
			r.Post("/versions", faHandler.ApplyBatch)
			r.Get("/versions", faHandler.ListHistory)
			r.Get("/versions/{versionNumber}", faHandler.GetVersion)
			r.Post("/ai-revisions", faHandler.ApplyAIRevision)
			r.Post("/proposals", faHandler.ApplyProposal)
			r.Post("/recoveries", faHandler.RecoverVersion)
			r.Get("/verify", faHandler.VerifyHistory)
		})
	})

	return router
}

// healthCheck handles health check requests
func (rt *Router) healthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"version": version.String(),
	})
}
