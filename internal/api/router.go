package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/rpsgame/internal/api/apierr"
	"github.com/mcoot/rpsgame/internal/api/handler"
	"github.com/mcoot/rpsgame/internal/api/middleware"
	"github.com/mcoot/rpsgame/internal/api/response"
	"github.com/mcoot/rpsgame/internal/events"
	"github.com/mcoot/rpsgame/internal/services/auth"
	"github.com/mcoot/rpsgame/internal/services/ranking"
	"github.com/mcoot/rpsgame/internal/services/tournament"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger      *slog.Logger
	Directory   *auth.Service
	Rankings    *ranking.Service
	Tournaments *tournament.Engine
	Events      *events.Hub
}

// NewRouter creates the read-only status API router
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(notFoundHandler)

	// Create handlers
	playerHandler := handler.NewPlayerHandler(cfg.Directory, cfg.Rankings)
	rankingHandler := handler.NewRankingHandler(cfg.Rankings)
	tournamentHandler := handler.NewTournamentHandler(cfg.Tournaments)
	eventsHandler := handler.NewEventsHandler(cfg.Events)

	// API subrouter with common middleware
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(middleware.Logging(cfg.Logger))
	api.Use(middleware.Recovery(cfg.Logger))

	api.HandleFunc("/health", healthHandler).Methods(http.MethodGet)
	api.HandleFunc("/rankings", rankingHandler.List).Methods(http.MethodGet)
	api.HandleFunc("/tournaments", tournamentHandler.List).Methods(http.MethodGet)
	api.HandleFunc("/tournaments/{name}", tournamentHandler.Get).Methods(http.MethodGet)

	// Registered before the {username} route so "online" is not read as a name
	api.HandleFunc("/players/online", playerHandler.Online).Methods(http.MethodGet)
	api.HandleFunc("/players/{username}", playerHandler.Get).Methods(http.MethodGet)

	// Server-sent events
	api.HandleFunc("/events", eventsHandler.Stream).Methods(http.MethodGet)

	return r
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	response.JSON(w, http.StatusOK, response.Health{Status: "ok"})
}

func notFoundHandler(w http.ResponseWriter, _ *http.Request) {
	apierr.WriteError(w, apierr.NewNotFoundError())
}
