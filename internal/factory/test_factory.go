package factory

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/mcoot/tictacnet/internal/dependencies/mocks"
	"github.com/mcoot/tictacnet/internal/storage/memory"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock  *mocks.MockClock
	MockRandom *mocks.MockRandom
}

// NewTestApp creates an App with an in-memory pool seeded with names, and mocked dependencies
func NewTestApp(names ...string) (*TestApp, error) {
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()
	pool := memory.NewNamePool(mockRandom)

	app := newWithDependencies(pool, mockClock, mockRandom, slog.New(slog.NewJSONHandler(io.Discard, nil)))
	if err := app.Names.Seed(context.Background(), names); err != nil {
		return nil, err
	}

	return &TestApp{
		App:        app,
		MockClock:  mockClock,
		MockRandom: mockRandom,
	}, nil
}
