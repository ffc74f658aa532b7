package storage

import (
	"context"

	"github.com/mcoot/othellochat/internal/model"
)

// Storage defines the interface for data persistence.
// All calls are made from the event loop goroutine; implementations must still be safe
// for concurrent readers.
type Storage interface {
	// Player operations
	SavePlayer(ctx context.Context, player *model.Player) error
	GetPlayer(ctx context.Context, id model.ConnectionID) (*model.Player, error)
	DeletePlayer(ctx context.Context, id model.ConnectionID) error
	CountPlayers(ctx context.Context) (int, error)

	// Game operations
	SaveGame(ctx context.Context, game *model.Game) error
	GetGame(ctx context.Context, id model.GameID) (*model.Game, error)
	DeleteGame(ctx context.Context, id model.GameID) error
	GameExists(ctx context.Context, id model.GameID) (bool, error)
	ListGameIDs(ctx context.Context) ([]model.GameID, error)
}
