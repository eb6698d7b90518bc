package main

import (
	"context"
	"fmt"
	"io"

	"github.com/goliatone/go-params/layering"
	"github.com/goliatone/go-params/pkg/state"
	"github.com/goliatone/go-params/pkg/state/redisstore"
	"github.com/goliatone/go-params/pkg/state/sqlitestore"
	"github.com/redis/go-redis/v9"
)

// openBackend returns the configured store and a closer releasing it.
func openBackend(ctx context.Context, cfg BackendConfig) (state.ListingStore, io.Closer, error) {
	switch cfg.Kind {
	case "memory":
		seed := map[string]any{}
		if cfg.Memory.Seed != "" {
			layer, err := layering.ReadFile(cfg.Memory.Seed)
			if err != nil {
				return nil, nil, fmt.Errorf("memory seed: %w", err)
			}
			seed = layer.Values
		}
		return state.NewMemoryStore(seed), closerFunc(func() error { return nil }), nil
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		store, err := redisstore.New(client,
			redisstore.WithPrefix(cfg.Redis.Prefix),
			redisstore.WithRetry(cfg.Redis.Retries, cfg.Redis.Backoff),
		)
		if err != nil {
			client.Close()
			return nil, nil, err
		}
		return store, client, nil
	case "sqlite":
		store, err := sqlitestore.Open(ctx, cfg.SQLite.Path)
		if err != nil {
			return nil, nil, err
		}
		return store, store, nil
	default:
		return nil, nil, fmt.Errorf("unknown backend %q", cfg.Kind)
	}
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }
