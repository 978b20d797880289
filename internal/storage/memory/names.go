package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/mcoot/tictacnet/internal/dependencies/random"
	"github.com/mcoot/tictacnet/internal/model"
	"github.com/mcoot/tictacnet/internal/storage"
)

// NamePool is an in-memory implementation of the name pool
type NamePool struct {
	mu sync.Mutex

	random    random.Random
	pool      map[string]struct{} // every configured name
	available []string            // names not currently held
}

// NewNamePool creates an empty pool that picks free names with the given random source
func NewNamePool(random random.Random) *NamePool {
	return &NamePool{
		random: random,
		pool:   make(map[string]struct{}),
	}
}

// Ensure NamePool implements the interface
var _ storage.NamePool = (*NamePool)(nil)

func (p *NamePool) Seed(ctx context.Context, names []string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.pool = make(map[string]struct{}, len(names))
	p.available = make([]string, 0, len(names))
	for _, name := range names {
		if _, ok := p.pool[name]; ok {
			continue
		}
		p.pool[name] = struct{}{}
		p.available = append(p.available, name)
	}
	return nil
}

func (p *NamePool) Take(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	name, i := random.Pick(p.random, p.available)
	if i < 0 {
		return "", model.ErrPoolExhausted
	}
	last := len(p.available) - 1
	p.available[i] = p.available[last]
	p.available = p.available[:last]
	return name, nil
}

func (p *NamePool) Return(ctx context.Context, name string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.pool[name]; !ok || slices.Contains(p.available, name) {
		return nil
	}
	p.available = append(p.available, name)
	return nil
}

func (p *NamePool) Available(ctx context.Context) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.available), nil
}
