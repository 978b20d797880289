package names

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mcoot/tictacnet/internal/storage"
)

// DefaultPool is the built-in list of display names
var DefaultPool = []string{
	"Ada", "Alan", "Barbara", "Brian", "Claude", "Dennis", "Donald", "Edsger",
	"Frances", "Grace", "Guido", "Hedy", "Ivan", "John", "Ken", "Leslie",
	"Linus", "Margaret", "Niklaus", "Radia", "Rob", "Robin", "Shafi", "Sophie",
	"Tim", "Tony", "Vint", "Whitfield",
}

// Allocator hands out display names that are unique among live participants
type Allocator struct {
	pool   storage.NamePool
	logger *slog.Logger
}

// New creates an Allocator over the given pool
func New(pool storage.NamePool, logger *slog.Logger) *Allocator {
	return &Allocator{
		pool:   pool,
		logger: logger,
	}
}

// Seed loads the names the allocator may hand out. An empty list falls back to DefaultPool.
func (a *Allocator) Seed(ctx context.Context, names []string) error {
	if len(names) == 0 {
		names = DefaultPool
	}
	if err := a.pool.Seed(ctx, names); err != nil {
		return fmt.Errorf("seed name pool: %w", err)
	}
	a.logger.Info("name pool seeded", slog.Int("size", len(names)))
	return nil
}

// Allocate returns a name not currently held by anyone
func (a *Allocator) Allocate(ctx context.Context) (string, error) {
	name, err := a.pool.Take(ctx)
	if err != nil {
		return "", fmt.Errorf("allocate name: %w", err)
	}
	a.logger.Debug("name allocated", slog.String("name", name))
	return name, nil
}

// Release returns a name to the pool
func (a *Allocator) Release(ctx context.Context, name string) error {
	if err := a.pool.Return(ctx, name); err != nil {
		return fmt.Errorf("release name %q: %w", name, err)
	}
	a.logger.Debug("name released", slog.String("name", name))
	return nil
}

// Available returns how many names can still be allocated
func (a *Allocator) Available(ctx context.Context) (int, error) {
	return a.pool.Available(ctx)
}

// Interface for dependency injection
type AllocatorInterface interface {
	Allocate(ctx context.Context) (string, error)
	Release(ctx context.Context, name string) error
	Available(ctx context.Context) (int, error)
}

var _ AllocatorInterface = (*Allocator)(nil)
