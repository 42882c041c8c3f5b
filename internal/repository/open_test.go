package repository_test

import (
	"context"
	"strconv"
	"testing"

	"github.com/Rrens/clipboard-ai/internal/config"
	"github.com/Rrens/clipboard-ai/internal/repository"
	"github.com/Rrens/clipboard-ai/internal/repository/file"
	"github.com/Rrens/clipboard-ai/internal/repository/redis"
	"github.com/Rrens/clipboard-ai/internal/repository/sqlite"
	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T, backend string) *config.Config {
	paths := config.NewPaths(t.TempDir())
	require.NoError(t, paths.Ensure())
	return &config.Config{
		State: config.StateConfig{Backend: backend},
		Paths: paths,
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	t.Run("file", func(t *testing.T) {
		store, err := repository.Open(ctx, testConfig(t, "file"))
		require.NoError(t, err)
		defer store.Close()
		assert.IsType(t, &file.Store{}, store)
	})

	t.Run("sqlite", func(t *testing.T) {
		store, err := repository.Open(ctx, testConfig(t, "sqlite"))
		require.NoError(t, err)
		defer store.Close()
		assert.IsType(t, &sqlite.Store{}, store)
	})

	t.Run("redis", func(t *testing.T) {
		mr := miniredis.RunT(t)
		port, err := strconv.Atoi(mr.Port())
		require.NoError(t, err)

		cfg := testConfig(t, "redis")
		cfg.State.Redis = config.RedisConfig{Host: mr.Host(), Port: port, Prefix: "t:"}

		store, err := repository.Open(ctx, cfg)
		require.NoError(t, err)
		defer store.Close()
		assert.IsType(t, &redis.Store{}, store)
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := repository.Open(ctx, testConfig(t, "etcd"))
		assert.Error(t, err)
	})
}
