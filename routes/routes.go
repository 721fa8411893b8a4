package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/upb/cascade-control-plane/app"
	"github.com/upb/cascade-control-plane/handlers"
	"github.com/upb/cascade-control-plane/middleware"
)

// SetupRoutes configures all application routes and middleware
func SetupRoutes(deps *app.Dependencies) http.Handler {
	r := chi.NewRouter()

	// Core middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))
	r.Use(middleware.EchoRequestID)

	// CORS middleware
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "https://*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	var dbChecker handlers.DatabaseChecker
	if deps.DB != nil {
		dbChecker = deps.DB
	}
	healthHandler := handlers.NewHealthHandler(dbChecker, deps.CatalogRegistry, deps.Logger)
	dispatchHandler := handlers.NewDispatchHandler(deps.Dispatcher, deps.CatalogRegistry, deps.Normalizer, deps.Logger)
	rpcHandler := handlers.NewRPCHandler(deps.Dispatcher, deps.CatalogRegistry, deps.Normalizer, deps.Logger)
	catalogHandler := handlers.NewCatalogHandler(deps.CatalogRegistry, deps.Logger)

	// Health check endpoints
	r.Get("/healthz", healthHandler.HandleHealth)
	r.Get("/readyz", healthHandler.HandleReadiness)

	// Request/response front door and catalog listing
	r.Route("/v1", func(r chi.Router) {
		r.Post("/dispatch", dispatchHandler.HandleDispatch)
		r.Get("/services", catalogHandler.HandleListServices)
	})

	// Remote-procedure front door
	r.Post("/rpc", rpcHandler.HandleRPC)

	// 404 handler
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"endpoint not found"}`))
	})

	return r
}
