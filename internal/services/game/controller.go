package game

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mcoot/othellochat/internal/dependencies/clock"
	"github.com/mcoot/othellochat/internal/dependencies/random"
	"github.com/mcoot/othellochat/internal/model"
	"github.com/mcoot/othellochat/internal/realtime"
	"github.com/mcoot/othellochat/internal/services/board"
	"github.com/mcoot/othellochat/internal/services/registry"
	"github.com/mcoot/othellochat/internal/storage"
)

const (
	// DefaultEvictionDelay is how long a finished game is kept
	DefaultEvictionDelay = time.Hour

	// gameIDSpace is the range game ids are drawn from, as lower-case hex of [1, gameIDSpace]
	gameIDSpace = 0x100000

	maxGameIDAttempts = 8
)

// Controller owns every game: lazy creation, seating, moves, snapshots and eviction.
// All methods must be called from the dispatch loop.
type Controller struct {
	storage       storage.Storage
	registry      *registry.Service
	boardService  *board.Service
	transport     realtime.Transport
	executor      realtime.Executor
	clock         clock.Clock
	random        random.Random
	logger        *slog.Logger
	evictionDelay time.Duration

	// Pending evictions, keyed by game. Only touched on the dispatch loop.
	evictions map[model.GameID]clock.Timer
}

// NewController creates a new game Controller
func NewController(
	storage storage.Storage,
	registry *registry.Service,
	boardService *board.Service,
	transport realtime.Transport,
	executor realtime.Executor,
	clk clock.Clock,
	random random.Random,
	logger *slog.Logger,
	evictionDelay time.Duration,
) *Controller {
	if evictionDelay <= 0 {
		evictionDelay = DefaultEvictionDelay
	}
	return &Controller{
		storage:       storage,
		registry:      registry,
		boardService:  boardService,
		transport:     transport,
		executor:      executor,
		clock:         clk,
		random:        random,
		logger:        logger,
		evictionDelay: evictionDelay,
		evictions:     make(map[model.GameID]clock.Timer),
	}
}

// GetGame retrieves a game by ID
func (c *Controller) GetGame(ctx context.Context, gameID model.GameID) (*model.Game, error) {
	return c.storage.GetGame(ctx, gameID)
}

// ListGameIDs returns the ids of every live game
func (c *Controller) ListGameIDs(ctx context.Context) ([]model.GameID, error) {
	return c.storage.ListGameIDs(ctx)
}

// EnsureGame returns the game, creating it with the starting position if it does not exist
func (c *Controller) EnsureGame(ctx context.Context, gameID model.GameID) (*model.Game, error) {
	game, err := c.storage.GetGame(ctx, gameID)
	if err == nil {
		return game, nil
	}
	if !errors.Is(err, model.ErrGameNotFound) {
		return nil, err
	}

	game = model.NewGame(gameID, c.clock.Now())
	game.LegalMoves = c.boardService.LegalMoves(game.WhoseTurn, &game.Board)

	if err := c.storage.SaveGame(ctx, game); err != nil {
		c.logger.Error("failed to save game",
			slog.String("game_id", string(gameID)),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	c.logger.Info("game created", slog.String("game_id", string(gameID)))
	return game, nil
}

// NewGameID draws an id that does not name a live game
func (c *Controller) NewGameID(ctx context.Context) (model.GameID, error) {
	for attempt := 0; attempt < maxGameIDAttempts; attempt++ {
		id := model.GameID(fmt.Sprintf("%x", 1+c.random.Intn(gameIDSpace)))
		exists, err := c.storage.GameExists(ctx, id)
		if err != nil {
			return "", err
		}
		if !exists {
			return id, nil
		}
		c.logger.Warn("game id collision", slog.String("game_id", string(id)))
	}
	return "", model.ErrGameIDExhausted
}

// Seat assigns seats from the channel's members in the given order.
// Unseated members take White, then Black; anyone beyond that is removed from the channel.
// The caller saves the game.
func (c *Controller) Seat(ctx context.Context, game *model.Game, members []model.ConnectionID) error {
	room := game.ID.Room()

	for _, member := range members {
		if game.IsSeated(member) {
			continue
		}

		player, err := c.registry.Lookup(ctx, member)
		if err != nil {
			return err
		}
		if player == nil {
			c.logger.Error("cannot seat member",
				slog.String("game_id", string(game.ID)),
				slog.String("connection_id", string(member)),
				slog.String("error", model.ErrRosterDesync.Error()),
			)
			continue
		}

		seat := model.Seat{Socket: member, Username: player.Username}
		switch {
		case game.PlayerWhite.IsEmpty():
			game.PlayerWhite = seat
			c.logger.Info("seat assigned",
				slog.String("game_id", string(game.ID)),
				slog.String("connection_id", string(member)),
				slog.String("color", string(model.ColorWhite)),
			)
		case game.PlayerBlack.IsEmpty():
			game.PlayerBlack = seat
			c.logger.Info("seat assigned",
				slog.String("game_id", string(game.ID)),
				slog.String("connection_id", string(member)),
				slog.String("color", string(model.ColorBlack)),
			)
		default:
			c.transport.Leave(member, room)
			if player.Room == room {
				if err := c.registry.ClearRoom(ctx, member); err != nil {
					return err
				}
			}
			c.logger.Info("member kicked from full game",
				slog.String("game_id", string(game.ID)),
				slog.String("connection_id", string(member)),
			)
		}
	}

	return nil
}

// PlayToken validates and applies a move for the connection's current game.
// Nothing is mutated unless every check passes.
func (c *Controller) PlayToken(ctx context.Context, conn model.ConnectionID, req model.PlayTokenPayload) (model.GameID, error) {
	player, err := c.registry.Lookup(ctx, conn)
	if err != nil {
		return "", err
	}
	if player == nil {
		return "", model.ErrPlayUnregistered
	}
	if player.Username == "" {
		return "", model.ErrPlayNoUsername
	}
	if player.Room == "" {
		return "", model.ErrPlayNoGame
	}
	if req.Row == nil {
		return "", model.ErrPlayNoRow
	}
	if req.Column == nil {
		return "", model.ErrPlayNoColumn
	}
	if req.Color == nil {
		return "", model.ErrPlayNoColor
	}
	color, ok := model.ParseColor(*req.Color)
	if !ok {
		return "", model.ErrPlayNoColor
	}

	gameID := model.GameID(player.Room)
	game, err := c.storage.GetGame(ctx, gameID)
	if errors.Is(err, model.ErrGameNotFound) {
		return "", model.ErrPlayNoGame
	}
	if err != nil {
		return "", err
	}

	if color != game.WhoseTurn {
		return "", model.ErrPlayWrongTurn
	}
	if game.SeatFor(color).Socket != conn {
		return "", model.ErrPlayWrongPlayer
	}

	pos := model.Position{Row: *req.Row, Col: *req.Column}
	switch err := c.boardService.ValidatePlacement(&game.Board, pos); {
	case errors.Is(err, model.ErrInvalidPosition):
		return "", model.ErrPlayOffBoard
	case errors.Is(err, model.ErrCellOccupied):
		return "", model.ErrPlayOccupied
	case err != nil:
		return "", err
	}
	if game.LegalMoves.Get(pos) != color.Token() {
		return "", model.ErrPlayIllegal
	}

	flipped, err := c.boardService.ApplyMove(color, pos, &game.Board)
	if err != nil {
		return "", err
	}
	game.WhoseTurn = color.Opponent()
	game.LegalMoves = c.boardService.LegalMoves(game.WhoseTurn, &game.Board)
	game.LastMoveTime = c.clock.Now().UnixMilli()

	if err := c.storage.SaveGame(ctx, game); err != nil {
		return "", err
	}

	c.logger.Info("token played",
		slog.String("game_id", string(gameID)),
		slog.String("connection_id", string(conn)),
		slog.String("color", string(color)),
		slog.Int("row", pos.Row),
		slog.Int("column", pos.Col),
		slog.Int("flipped", flipped),
	)

	return gameID, nil
}

// BroadcastUpdate creates the game if needed, then once the channel roster is known
// re-seats from it and sends the snapshot to the channel.
func (c *Controller) BroadcastUpdate(ctx context.Context, gameID model.GameID, message string) {
	if _, err := c.EnsureGame(ctx, gameID); err != nil {
		c.logger.Error("failed to prepare game update",
			slog.String("game_id", string(gameID)),
			slog.String("error", err.Error()),
		)
		return
	}

	c.executor.QueryMembers(gameID.Room(), func(ctx context.Context, members []model.ConnectionID) {
		if err := c.publishUpdate(ctx, gameID, members, message); err != nil {
			c.logger.Error("failed to publish game update",
				slog.String("game_id", string(gameID)),
				slog.String("error", err.Error()),
			)
		}
	})
}

func (c *Controller) publishUpdate(ctx context.Context, gameID model.GameID, members []model.ConnectionID, message string) error {
	// The game may have been evicted while the roster query was pending
	game, err := c.EnsureGame(ctx, gameID)
	if err != nil {
		return err
	}

	if err := c.Seat(ctx, game, members); err != nil {
		return err
	}
	if err := c.storage.SaveGame(ctx, game); err != nil {
		return err
	}

	room := gameID.Room()
	c.transport.EmitRoom(room, model.EventGameUpdate, model.GameUpdate{
		Result:  model.ResultSuccess,
		GameID:  gameID,
		Game:    game,
		Message: message,
	})

	if !c.boardService.IsTerminal(&game.Board) {
		return nil
	}

	c.transport.EmitRoom(room, model.EventGameOver, model.GameOver{
		Result: model.ResultSuccess,
		GameID: gameID,
		Game:   game,
		WhoWon: model.WhoWonEveryone,
	})
	c.scheduleEviction(gameID)
	return nil
}

func (c *Controller) scheduleEviction(gameID model.GameID) {
	if _, pending := c.evictions[gameID]; pending {
		return
	}

	c.evictions[gameID] = c.clock.AfterFunc(c.evictionDelay, func() {
		c.executor.Submit(func(ctx context.Context) {
			c.Evict(ctx, gameID)
		})
	})

	c.logger.Info("game over, eviction scheduled",
		slog.String("game_id", string(gameID)),
		slog.Duration("delay", c.evictionDelay),
	)
}

// EvictionPending reports whether a finished game is waiting to be removed
func (c *Controller) EvictionPending(gameID model.GameID) bool {
	_, ok := c.evictions[gameID]
	return ok
}

// Evict removes a game
func (c *Controller) Evict(ctx context.Context, gameID model.GameID) {
	delete(c.evictions, gameID)
	if err := c.storage.DeleteGame(ctx, gameID); err != nil {
		c.logger.Error("failed to evict game",
			slog.String("game_id", string(gameID)),
			slog.String("error", err.Error()),
		)
		return
	}
	c.logger.Info("game evicted", slog.String("game_id", string(gameID)))
}

// Close cancels pending evictions. Call after the dispatch loop has stopped.
func (c *Controller) Close() {
	for id, timer := range c.evictions {
		timer.Stop()
		delete(c.evictions, id)
	}
}

// Interface for dependency injection
type ControllerInterface interface {
	GetGame(ctx context.Context, gameID model.GameID) (*model.Game, error)
	ListGameIDs(ctx context.Context) ([]model.GameID, error)
	EnsureGame(ctx context.Context, gameID model.GameID) (*model.Game, error)
	NewGameID(ctx context.Context) (model.GameID, error)
	Seat(ctx context.Context, game *model.Game, members []model.ConnectionID) error
	PlayToken(ctx context.Context, conn model.ConnectionID, req model.PlayTokenPayload) (model.GameID, error)
	BroadcastUpdate(ctx context.Context, gameID model.GameID, message string)
	Evict(ctx context.Context, gameID model.GameID)
}

var _ ControllerInterface = (*Controller)(nil)
