package handler

import (
	"context"
	"net/http"

	"github.com/mcoot/othellochat/internal/api/apierr"
	"github.com/mcoot/othellochat/internal/api/response"
	"github.com/mcoot/othellochat/internal/realtime"
	"github.com/mcoot/othellochat/internal/services/game"
	"github.com/mcoot/othellochat/internal/services/registry"
)

// ConnectionStats reports transport-level counts
type ConnectionStats interface {
	Stats() (connections, rooms int)
}

// StatsHandler reports how much state the server holds
type StatsHandler struct {
	loop           *realtime.Loop
	registry       *registry.Service
	gameController *game.Controller
	connections    ConnectionStats
}

// NewStatsHandler creates a new stats handler
func NewStatsHandler(loop *realtime.Loop, registry *registry.Service, gameController *game.Controller, connections ConnectionStats) *StatsHandler {
	return &StatsHandler{
		loop:           loop,
		registry:       registry,
		gameController: gameController,
		connections:    connections,
	}
}

// Get handles GET /api/v1/stats
func (h *StatsHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), loopTimeout)
	defer cancel()

	var stats response.Stats
	err := h.loop.Call(ctx, func(ctx context.Context) error {
		players, err := h.registry.Count(ctx)
		if err != nil {
			return err
		}
		ids, err := h.gameController.ListGameIDs(ctx)
		if err != nil {
			return err
		}
		stats.Players = players
		stats.Games = len(ids)
		return nil
	})
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	stats.Connections, stats.Rooms = h.connections.Stats()
	response.JSON(w, http.StatusOK, stats)
}
