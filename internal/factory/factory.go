package factory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/mcoot/tictacnet/internal/dependencies/clock"
	"github.com/mcoot/tictacnet/internal/dependencies/random"
	"github.com/mcoot/tictacnet/internal/services/board"
	"github.com/mcoot/tictacnet/internal/services/names"
	"github.com/mcoot/tictacnet/internal/services/registry"
	"github.com/mcoot/tictacnet/internal/storage"
	"github.com/mcoot/tictacnet/internal/storage/memory"
	redisstorage "github.com/mcoot/tictacnet/internal/storage/redis"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
)

// App contains all wired application components
type App struct {
	// Storage
	NamePool storage.NamePool

	// External dependencies
	Clock  clock.Clock
	Random random.Random

	// Services
	BoardService *board.Service
	Names        *names.Allocator
	Registry     *registry.Registry

	closer io.Closer
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the name pool backend ("memory" or "redis")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
	// NamePool overrides the built-in display names (optional)
	NamePool []string
}

// New creates a new application with all dependencies wired and the name pool seeded
func New(ctx context.Context, cfg Config) (*App, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	clk := clock.New()
	rnd := random.New()

	var pool storage.NamePool
	var closer io.Closer
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		pool = memory.NewNamePool(rnd)
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		redisPool, err := redisstorage.NewNamePool(*cfg.RedisConfig)
		if err != nil {
			return nil, err
		}
		pool = redisPool
		closer = redisPool
	default:
		return nil, errors.New("invalid StorageType: must be 'memory' or 'redis'")
	}

	app := newWithDependencies(pool, clk, rnd, logger)
	app.closer = closer

	if err := app.Names.Seed(ctx, cfg.NamePool); err != nil {
		_ = app.Close()
		return nil, fmt.Errorf("init names: %w", err)
	}

	logger.Info("application wired", slog.String("storage", storageType))
	return app, nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(pool storage.NamePool, clk clock.Clock, rnd random.Random, logger *slog.Logger) *App {
	boardService := board.New()
	allocator := names.New(pool, logger.With(slog.String("component", "names")))
	reg := registry.New(boardService, clk, logger.With(slog.String("component", "registry")))

	return &App{
		NamePool:     pool,
		Clock:        clk,
		Random:       rnd,
		BoardService: boardService,
		Names:        allocator,
		Registry:     reg,
	}
}

// Close releases storage connections held by the app
func (a *App) Close() error {
	if a.closer == nil {
		return nil
	}
	return a.closer.Close()
}
