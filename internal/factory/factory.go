package factory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/mcoot/othellochat/internal/api"
	"github.com/mcoot/othellochat/internal/dependencies/clock"
	"github.com/mcoot/othellochat/internal/dependencies/random"
	"github.com/mcoot/othellochat/internal/dispatch"
	"github.com/mcoot/othellochat/internal/realtime"
	"github.com/mcoot/othellochat/internal/services/board"
	"github.com/mcoot/othellochat/internal/services/game"
	"github.com/mcoot/othellochat/internal/services/lobby"
	"github.com/mcoot/othellochat/internal/services/registry"
	"github.com/mcoot/othellochat/internal/storage"
	"github.com/mcoot/othellochat/internal/storage/memory"
	redisstorage "github.com/mcoot/othellochat/internal/storage/redis"
	"github.com/mcoot/othellochat/internal/web"
	"github.com/mcoot/othellochat/internal/web/ws"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage

	// External dependencies
	Clock  clock.Clock
	Random random.Random

	// Realtime plumbing
	Loop *realtime.Loop
	Hub  *ws.Hub

	// Services
	BoardService    *board.Service
	Registry        *registry.Service
	GameController  *game.Controller
	LobbyController *lobby.Controller
	Dispatcher      *dispatch.Dispatcher

	Logger *slog.Logger
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory" or "redis")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
	// EvictionDelay is how long a finished game is kept (optional)
	EvictionDelay time.Duration
}

// Ensure the dispatcher can serve WebSocket connections
var _ ws.Handler = (*dispatch.Dispatcher)(nil)

// HandlerConfig configures the HTTP surface
type HandlerConfig struct {
	StaticDir      string
	AllowedOrigins []string
	MaxMessageSize int64
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	// Use no-op logger if not provided
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	// Create storage based on type
	var store storage.Storage
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		store = memory.New()
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		redisStore, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			return nil, err
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err = redisStore.Clear(ctx)
		cancel()
		if err != nil {
			_ = redisStore.Close()
			return nil, fmt.Errorf("clear redis state: %w", err)
		}
		store = redisStore
	default:
		return nil, errors.New("invalid StorageType: must be 'memory' or 'redis'")
	}

	return newWithDependencies(store, clock.New(), random.New(), cfg.EvictionDelay, logger), nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(store storage.Storage, clk clock.Clock, rnd random.Random, evictionDelay time.Duration, logger *slog.Logger) *App {
	hub := ws.NewHub(logger.With(slog.String("component", "ws")))
	loop := realtime.NewLoop(hub, logger.With(slog.String("component", "loop")))

	boardService := board.New()
	registryService := registry.New(store, logger)
	gameController := game.NewController(store, registryService, boardService, hub, loop, clk, rnd, logger, evictionDelay)
	lobbyController := lobby.NewController(registryService, gameController, hub, loop, logger)
	dispatcher := dispatch.New(lobbyController, gameController, hub, loop, logger)

	return &App{
		Storage:         store,
		Clock:           clk,
		Random:          rnd,
		Loop:            loop,
		Hub:             hub,
		BoardService:    boardService,
		Registry:        registryService,
		GameController:  gameController,
		LobbyController: lobbyController,
		Dispatcher:      dispatcher,
		Logger:          logger,
	}
}

// Handler builds the HTTP surface: /api/ for the read-only API, /ws and static files for browsers
func (a *App) Handler(cfg HandlerConfig) http.Handler {
	apiRouter := api.NewRouter(api.RouterConfig{
		Logger:          a.Logger,
		Loop:            a.Loop,
		Registry:        a.Registry,
		GameController:  a.GameController,
		ConnectionStats: a.Hub,
	})

	webRouter := web.NewRouter(web.RouterConfig{
		Logger: a.Logger,
		WebSocket: ws.NewServer(a.Hub, a.Dispatcher, ws.Options{
			AllowedOrigins: cfg.AllowedOrigins,
			MaxMessageSize: cfg.MaxMessageSize,
		}, a.Logger),
		StaticDir: cfg.StaticDir,
	})

	mux := http.NewServeMux()
	mux.Handle("/api/", apiRouter)
	mux.Handle("/", webRouter)
	return mux
}

// Close disconnects every client, cancels pending evictions and releases the store.
// Call it after the context passed to Loop.Run is cancelled and Run has returned.
func (a *App) Close() error {
	a.Hub.Close()
	a.GameController.Close()
	if closer, ok := a.Storage.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
