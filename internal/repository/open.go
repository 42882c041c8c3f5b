// Package repository selects the state store backend.
package repository

import (
	"context"
	"fmt"

	"github.com/Rrens/clipboard-ai/internal/config"
	"github.com/Rrens/clipboard-ai/internal/domain"
	"github.com/Rrens/clipboard-ai/internal/repository/file"
	"github.com/Rrens/clipboard-ai/internal/repository/redis"
	"github.com/Rrens/clipboard-ai/internal/repository/sqlite"
	"github.com/rs/zerolog/log"
)

// Open returns the StateStore configured in cfg.State.Backend
func Open(ctx context.Context, cfg *config.Config) (domain.StateStore, error) {
	backend := cfg.State.Backend
	log.Debug().Str("backend", backend).Msg("Opening state store")

	switch backend {
	case "", "file":
		store, err := file.NewStore(cfg.Paths.StateDir, cfg.Paths.HistoryDir)
		if err != nil {
			return nil, err
		}
		return store, nil
	case "sqlite":
		store, err := sqlite.NewStore(ctx, cfg.Paths.StateDB)
		if err != nil {
			return nil, err
		}
		return store, nil
	case "redis":
		client, err := redis.NewClient(ctx, cfg.State.Redis)
		if err != nil {
			return nil, err
		}
		return redis.NewStore(client, cfg.State.Redis.Prefix), nil
	default:
		return nil, fmt.Errorf("unknown state backend: %s", backend)
	}
}
