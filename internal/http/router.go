package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"pitchmate/internal/config"
)

// Dependencies are the services behind the routes.
type Dependencies struct {
	Places    PlaceFinder
	Providers ProviderLookup
	Users     UserUpserter
	Issuer    TokenIssuer
	Verifier  TokenVerifier
	Logins    LoginRecorder
	Tools     ToolRegistry
	Agent     AgentSource
	// Metrics serves /metrics when set.
	Metrics http.Handler
}

// NewRouter wires application routes and middleware using chi.
func NewRouter(cfg config.Config, deps Dependencies, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(newSlogMiddleware(logger))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"status":      "ok",
			"environment": cfg.Environment,
		})
	})
	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics)
	}

	external := NewExternalHandler(deps.Places, logger)
	r.Route("/external", func(r chi.Router) {
		r.Get("/tour/search", external.TourSearch)
		r.Get("/sports/nearby", external.SportsNearby)
		r.Get("/camping/search", external.CampingSearch)
		r.Get("/camping/list", external.CampingList)
		r.Get("/camping/nearby", external.CampingNearby)
	})

	oauth := NewOAuthHandler(deps.Providers, deps.Users, deps.Issuer, deps.Logins, cfg.CookieSecure, logger)
	r.Route("/auth/{provider}", func(r chi.Router) {
		r.Get("/login", oauth.Login)
		r.Get("/callback", oauth.Callback)
	})

	sessions := NewSessionHandler(cfg.CookieSecure)
	r.With(newAuthMiddleware(deps.Verifier, logger)).Get("/me", sessions.Me)
	r.Post("/logout", sessions.Logout)

	toolsHandler := NewToolsHandler(deps.Tools, logger)
	r.Route("/mcp", func(r chi.Router) {
		r.Get("/tools", toolsHandler.List)
		r.Post("/tools/{tool_name}", toolsHandler.Call)
	})

	agentHandler := NewAgentHandler(deps.Agent, logger)
	r.Post("/agent/ask", agentHandler.Ask)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})

	return r
}
