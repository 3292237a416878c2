package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/routecraft/routecraft/internal/api/auth"
	"github.com/routecraft/routecraft/internal/api/itinerary"
	"github.com/routecraft/routecraft/internal/api/route"
)

// Config carries the handlers and middleware the router wires together.
type Config struct {
	AuthHandler            *auth.Handler
	ItineraryHandler       *itinerary.Handler
	RouteHandler           *route.Handler
	AuthenticateMiddleware func(http.Handler) http.Handler
	AllowedOrigins         []string
}

// SetupRouter builds the API router. Server-wide middleware (request ID,
// logging, recoverer, timeouts) is applied around this router in main.
func SetupRouter(cfg *Config) chi.Router {
	r := chi.NewRouter()

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:5173", "http://localhost:3000"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("pong"))
	})

	r.Route("/api/v1", func(r chi.Router) {
		// Public routes: account handling and published route lookup.
		r.Group(func(r chi.Router) {
			r.Post("/auth/register", cfg.AuthHandler.Register)
			r.Post("/auth/login", cfg.AuthHandler.Login)
			r.Post("/auth/refresh", cfg.AuthHandler.RefreshSession)

			r.Get("/routes/{routeID}", cfg.RouteHandler.Get)
		})

		// Everything touching itineraries requires a valid session.
		r.Group(func(r chi.Router) {
			r.Use(cfg.AuthenticateMiddleware)

			r.Route("/itineraries", func(r chi.Router) {
				r.Get("/", cfg.ItineraryHandler.List)
				r.Post("/generate", cfg.ItineraryHandler.Generate)

				r.Route("/{itineraryID}", func(r chi.Router) {
					r.Get("/", cfg.ItineraryHandler.Get)
					r.Post("/modify", cfg.ItineraryHandler.Modify)
					r.Post("/copy", cfg.ItineraryHandler.Copy)
					r.Post("/publish", cfg.RouteHandler.Publish)

					r.Patch("/reorder", cfg.ItineraryHandler.ReorderStops)
					r.Patch("/move", cfg.ItineraryHandler.MoveStop)
					r.Post("/stops", cfg.ItineraryHandler.AddStop)
					r.Delete("/stops/{stopID}", cfg.ItineraryHandler.RemoveStop)
				})
			})
		})
	})

	return r
}
