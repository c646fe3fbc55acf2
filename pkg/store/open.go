package store

import (
	"context"
	"fmt"

	"github.com/helmcode/gamemodel-ai/pkg/config"
)

// Open builds the backend named by cfg.Backend. "none" and "" return a nil
// Store, which callers treat as caching disabled.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Backend {
	case "", "none":
		return nil, nil
	case "memory":
		return NewMemory(cfg.TTL), nil
	case "redis":
		r, err := NewRedis(cfg.RedisURL, cfg.TTL)
		if err != nil {
			return nil, err
		}
		if err := r.Init(ctx); err != nil {
			r.Close()
			return nil, err
		}
		return r, nil
	case "postgres":
		if cfg.PostgresDSN == "" {
			return nil, fmt.Errorf("store.postgres_dsn is required for the postgres backend")
		}
		p, err := NewPostgres(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		return p, nil
	default:
		return nil, fmt.Errorf("unsupported store backend: %s", cfg.Backend)
	}
}
