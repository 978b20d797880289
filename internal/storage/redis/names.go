package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/tictacnet/internal/model"
	"github.com/mcoot/tictacnet/internal/storage"
)

// NamePool is a Redis-backed name pool. SPOP and SADD keep allocation atomic
// across every server process sharing the same Redis.
type NamePool struct {
	client *redis.Client
	cfg    Config
}

// NewNamePool creates a Redis name pool and verifies the connection
func NewNamePool(cfg Config) (*NamePool, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return NewNamePoolWithClient(client, cfg), nil
}

// NewNamePoolWithClient creates a Redis name pool with an existing client (for testing)
func NewNamePoolWithClient(client *redis.Client, cfg Config) *NamePool {
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = DefaultConfig().KeyPrefix
	}
	return &NamePool{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (p *NamePool) Close() error {
	return p.client.Close()
}

// Ensure NamePool implements the interface
var _ storage.NamePool = (*NamePool)(nil)

func (p *NamePool) Seed(ctx context.Context, names []string) error {
	members := make([]any, len(names))
	for i, name := range names {
		members[i] = name
	}

	pipe := p.client.TxPipeline()
	pipe.Del(ctx, namePoolKey(p.cfg.KeyPrefix), namesAvailableKey(p.cfg.KeyPrefix))
	if len(members) > 0 {
		pipe.SAdd(ctx, namePoolKey(p.cfg.KeyPrefix), members...)
		pipe.SAdd(ctx, namesAvailableKey(p.cfg.KeyPrefix), members...)
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (p *NamePool) Take(ctx context.Context) (string, error) {
	name, err := p.client.SPop(ctx, namesAvailableKey(p.cfg.KeyPrefix)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", model.ErrPoolExhausted
		}
		return "", err
	}
	return name, nil
}

func (p *NamePool) Return(ctx context.Context, name string) error {
	inPool, err := p.client.SIsMember(ctx, namePoolKey(p.cfg.KeyPrefix), name).Result()
	if err != nil {
		return err
	}
	if !inPool {
		return nil
	}
	return p.client.SAdd(ctx, namesAvailableKey(p.cfg.KeyPrefix), name).Err()
}

func (p *NamePool) Available(ctx context.Context) (int, error) {
	n, err := p.client.SCard(ctx, namesAvailableKey(p.cfg.KeyPrefix)).Result()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}
