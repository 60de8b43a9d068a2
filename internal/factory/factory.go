package factory

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/mcoot/rpsgame/internal/dependencies/clock"
	"github.com/mcoot/rpsgame/internal/dependencies/random"
	"github.com/mcoot/rpsgame/internal/events"
	"github.com/mcoot/rpsgame/internal/services/auth"
	"github.com/mcoot/rpsgame/internal/services/match"
	"github.com/mcoot/rpsgame/internal/services/matchmaking"
	"github.com/mcoot/rpsgame/internal/services/ranking"
	"github.com/mcoot/rpsgame/internal/services/tournament"
	"github.com/mcoot/rpsgame/internal/session"
	"github.com/mcoot/rpsgame/internal/storage"
	filestorage "github.com/mcoot/rpsgame/internal/storage/file"
	"github.com/mcoot/rpsgame/internal/storage/memory"
	redisstorage "github.com/mcoot/rpsgame/internal/storage/redis"
)

// Storage type constants
const (
	StorageTypeFile   = "file"
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
	Logger *slog.Logger

	// Services
	Directory   *auth.Service
	Rankings    *ranking.Service
	Matches     *match.Engine
	Queue       *matchmaking.Queue
	Tournaments *tournament.Engine

	// Events streams match and tournament outcomes to status API clients
	Events *events.Hub
}

// Config holds configuration for the application factory
type Config struct {
	// AuthConfig holds configuration for the auth service (optional)
	// If zero value, defaults to auth.DefaultConfig()
	AuthConfig auth.Config
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("file", "memory" or "redis")
	// If empty, defaults to "file"
	StorageType string
	// DataDir is where the file backend keeps players.json and rankings.json
	DataDir string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	// Use no-op logger if not provided
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	store, err := newStorage(cfg)
	if err != nil {
		return nil, err
	}

	authCfg := cfg.AuthConfig
	if authCfg.BcryptCost == 0 {
		authCfg = auth.DefaultConfig()
	}

	logger.Info("storage ready", slog.String("storage_type", storageType(cfg)))
	return newWithDependencies(store, clock.New(), random.New(), authCfg, logger), nil
}

func storageType(cfg Config) string {
	if cfg.StorageType == "" {
		return StorageTypeFile
	}
	return cfg.StorageType
}

func newStorage(cfg Config) (storage.Storage, error) {
	switch storageType(cfg) {
	case StorageTypeFile:
		dir := cfg.DataDir
		if dir == "" {
			dir = "."
		}
		return filestorage.New(dir)
	case StorageTypeMemory:
		return memory.New(), nil
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		return redisstorage.New(*cfg.RedisConfig)
	default:
		return nil, fmt.Errorf("invalid StorageType %q: must be 'file', 'memory' or 'redis'", cfg.StorageType)
	}
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(
	store storage.Storage,
	clk clock.Clock,
	rnd random.Random,
	authCfg auth.Config,
	logger *slog.Logger,
) *App {
	hub := events.NewHub(logger)
	go hub.Run()
	broadcaster := events.NewBroadcaster(hub, logger)

	directory := auth.New(store, clk, authCfg, logger)
	rankings := ranking.New(store, logger)
	matches := match.NewEngine(rankings, broadcaster, logger)
	queue := matchmaking.New(matches, logger)
	tournaments := tournament.NewEngine(directory, rankings, broadcaster, clk, rnd, logger)

	return &App{
		Storage:     store,
		Clock:       clk,
		Random:      rnd,
		Logger:      logger,
		Directory:   directory,
		Rankings:    rankings,
		Matches:     matches,
		Queue:       queue,
		Tournaments: tournaments,
		Events:      hub,
	}
}

// SessionDependencies returns the services every connection session needs
func (a *App) SessionDependencies() session.Dependencies {
	return session.Dependencies{
		Directory:   a.Directory,
		Rankings:    a.Rankings,
		Queue:       a.Queue,
		Tournaments: a.Tournaments,
		Logger:      a.Logger,
	}
}

// Close ends event streams and releases the storage backend
func (a *App) Close() error {
	a.Events.Close()
	return a.Storage.Close()
}
