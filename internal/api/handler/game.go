package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/mcoot/othellochat/internal/api/apierr"
	"github.com/mcoot/othellochat/internal/api/response"
	"github.com/mcoot/othellochat/internal/model"
	"github.com/mcoot/othellochat/internal/realtime"
	"github.com/mcoot/othellochat/internal/services/game"
)

// loopTimeout bounds how long a request waits for the dispatch loop
const loopTimeout = 5 * time.Second

// GameHandler serves read-only game snapshots
type GameHandler struct {
	loop           *realtime.Loop
	gameController *game.Controller
}

// NewGameHandler creates a new game handler
func NewGameHandler(loop *realtime.Loop, gameController *game.Controller) *GameHandler {
	return &GameHandler{
		loop:           loop,
		gameController: gameController,
	}
}

// List handles GET /api/v1/games
func (h *GameHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), loopTimeout)
	defer cancel()

	var ids []model.GameID
	err := h.loop.Call(ctx, func(ctx context.Context) error {
		var err error
		ids, err = h.gameController.ListGameIDs(ctx)
		return err
	})
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.GameListFromModel(ids))
}

// Get handles GET /api/v1/games/{id}
func (h *GameHandler) Get(w http.ResponseWriter, r *http.Request) {
	gameID := model.GameID(mux.Vars(r)["id"])
	if gameID == "" {
		apierr.WriteError(w, apierr.NewInvalidRequestError("game id is required"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), loopTimeout)
	defer cancel()

	var snapshot response.Game
	err := h.loop.Call(ctx, func(ctx context.Context) error {
		g, err := h.gameController.GetGame(ctx, gameID)
		if err != nil {
			return err
		}
		// Copied on the loop so the response never races a move
		snapshot = *g
		return nil
	})
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, snapshot)
}
