package response

import (
	"encoding/json"
	"net/http"

	"github.com/mcoot/othellochat/internal/model"
)

// JSON writes data with the given status
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// Health is the body of the health check
type Health struct {
	Status string `json:"status"`
}

// Stats reports the size of the live server state
type Stats struct {
	Players     int `json:"players"`
	Games       int `json:"games"`
	Rooms       int `json:"rooms"`
	Connections int `json:"connections"`
}

// GameList lists the ids of live games
type GameList struct {
	Games []string `json:"games"`
}

// GameListFromModel converts game ids
func GameListFromModel(ids []model.GameID) GameList {
	games := make([]string, len(ids))
	for i, id := range ids {
		games[i] = string(id)
	}
	return GameList{Games: games}
}

// Game is a game snapshot, in the same shape as the game_update event
type Game = model.Game
