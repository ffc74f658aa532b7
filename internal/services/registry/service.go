package registry

import (
	"context"
	"errors"
	"log/slog"

	"github.com/mcoot/othellochat/internal/model"
	"github.com/mcoot/othellochat/internal/storage"
)

// Service maps live connections to their display name and room
type Service struct {
	storage storage.Storage
	logger  *slog.Logger
}

// New creates a new registry Service
func New(storage storage.Storage, logger *slog.Logger) *Service {
	return &Service{
		storage: storage,
		logger:  logger,
	}
}

// Register creates or replaces the player for a connection
func (s *Service) Register(ctx context.Context, conn model.ConnectionID, username string, room model.RoomName) (*model.Player, error) {
	player := &model.Player{ID: conn, Username: username, Room: room}
	if err := s.storage.SavePlayer(ctx, player); err != nil {
		return nil, err
	}
	s.logger.Debug("player registered",
		slog.String("connection_id", string(conn)),
		slog.String("username", username),
		slog.String("room", string(room)),
	)
	return player, nil
}

// Get returns the player for a connection, or model.ErrPlayerNotFound
func (s *Service) Get(ctx context.Context, conn model.ConnectionID) (*model.Player, error) {
	return s.storage.GetPlayer(ctx, conn)
}

// Lookup returns the player for a connection, or nil if none is registered
func (s *Service) Lookup(ctx context.Context, conn model.ConnectionID) (*model.Player, error) {
	player, err := s.storage.GetPlayer(ctx, conn)
	if errors.Is(err, model.ErrPlayerNotFound) {
		return nil, nil
	}
	return player, err
}

// ClearRoom records that a player no longer belongs to any room
func (s *Service) ClearRoom(ctx context.Context, conn model.ConnectionID) error {
	player, err := s.Lookup(ctx, conn)
	if err != nil || player == nil {
		return err
	}
	player.Room = ""
	return s.storage.SavePlayer(ctx, player)
}

// Unregister removes and returns the player for a connection.
// Returns nil without error if the connection never registered.
func (s *Service) Unregister(ctx context.Context, conn model.ConnectionID) (*model.Player, error) {
	player, err := s.Lookup(ctx, conn)
	if err != nil || player == nil {
		return nil, err
	}
	if err := s.storage.DeletePlayer(ctx, conn); err != nil {
		return nil, err
	}
	return player, nil
}

// Count returns the number of registered players
func (s *Service) Count(ctx context.Context) (int, error) {
	return s.storage.CountPlayers(ctx)
}

// Interface for dependency injection
type ServiceInterface interface {
	Register(ctx context.Context, conn model.ConnectionID, username string, room model.RoomName) (*model.Player, error)
	Get(ctx context.Context, conn model.ConnectionID) (*model.Player, error)
	Lookup(ctx context.Context, conn model.ConnectionID) (*model.Player, error)
	ClearRoom(ctx context.Context, conn model.ConnectionID) error
	Unregister(ctx context.Context, conn model.ConnectionID) (*model.Player, error)
	Count(ctx context.Context) (int, error)
}

var _ ServiceInterface = (*Service)(nil)
