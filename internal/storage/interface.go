package storage

import (
	"context"
)

// NamePool is the shared set of display names handed out to connecting participants.
// Implementations must make Take and Return atomic with respect to each other.
type NamePool interface {
	// Seed replaces the configured pool; every name becomes available
	Seed(ctx context.Context, names []string) error

	// Take removes and returns one available name, or model.ErrPoolExhausted
	Take(ctx context.Context) (string, error)

	// Return makes a taken name available again. Names outside the pool are ignored.
	Return(ctx context.Context, name string) error

	// Available returns the number of names not currently held
	Available(ctx context.Context) (int, error)
}
