package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/othellochat/internal/api/apierr"
	"github.com/mcoot/othellochat/internal/api/handler"
	"github.com/mcoot/othellochat/internal/api/response"
	"github.com/mcoot/othellochat/internal/middleware"
	"github.com/mcoot/othellochat/internal/realtime"
	"github.com/mcoot/othellochat/internal/services/game"
	"github.com/mcoot/othellochat/internal/services/registry"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger          *slog.Logger
	Loop            *realtime.Loop
	Registry        *registry.Service
	GameController  *game.Controller
	ConnectionStats handler.ConnectionStats
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	// Create handlers
	gameHandler := handler.NewGameHandler(cfg.Loop, cfg.GameController)
	statsHandler := handler.NewStatsHandler(cfg.Loop, cfg.Registry, cfg.GameController, cfg.ConnectionStats)

	// API subrouter with common middleware
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(middleware.Recovery(cfg.Logger, apierr.PanicHandler))
	api.Use(middleware.Logging(cfg.Logger))

	api.HandleFunc("/health", healthHandler).Methods(http.MethodGet)
	api.HandleFunc("/stats", statsHandler.Get).Methods(http.MethodGet)
	api.HandleFunc("/games", gameHandler.List).Methods(http.MethodGet)
	api.HandleFunc("/games/{id}", gameHandler.Get).Methods(http.MethodGet)

	return r
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	response.JSON(w, http.StatusOK, response.Health{Status: "ok"})
}
