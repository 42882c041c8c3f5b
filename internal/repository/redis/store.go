// Package redis implements domain.StateStore on Redis.
//
// Keys, relative to the configured prefix:
//
//	current          JSON of the live session
//	history          sorted set of archive keys, all scored 0
//	history:<key>    JSON of one archived session
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Rrens/clipboard-ai/internal/domain"
	"github.com/redis/go-redis/v9"
)

// Store implements domain.StateStore
type Store struct {
	client *Client
	prefix string
	now    func() time.Time
}

// NewStore creates a state store over an existing client
func NewStore(client *Client, prefix string) *Store {
	return &Store{client: client, prefix: prefix, now: time.Now}
}

func (s *Store) currentKey() string           { return s.prefix + "current" }
func (s *Store) indexKey() string             { return s.prefix + "history" }
func (s *Store) archiveKey(key string) string { return s.prefix + "history:" + key }

func (s *Store) LoadCurrent(ctx context.Context) (*domain.SessionState, error) {
	data, err := s.client.rdb.Get(ctx, s.currentKey()).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, &domain.StorageError{Op: "load", Key: "current", Err: err}
	}

	state, err := decode(data)
	if err != nil {
		return nil, &domain.StorageError{Op: "load", Key: "current", Err: err}
	}
	return state, nil
}

func (s *Store) SaveCurrent(ctx context.Context, state *domain.SessionState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return &domain.StorageError{Op: "save", Key: "current", Err: err}
	}

	if err := s.client.rdb.Set(ctx, s.currentKey(), data, 0).Err(); err != nil {
		return &domain.StorageError{Op: "save", Key: "current", Err: err}
	}
	return nil
}

// ArchiveCurrent moves the current session under a history key. The move
// runs in a MULTI block guarded by WATCH on the current key.
func (s *Store) ArchiveCurrent(ctx context.Context) (bool, error) {
	archived := false

	err := s.client.rdb.Watch(ctx, func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, s.currentKey()).Bytes()
		if errors.Is(err, redis.Nil) {
			return nil
		}
		if err != nil {
			return err
		}

		state, err := decode(data)
		if err != nil {
			return err
		}
		state.Active = false

		payload, err := json.Marshal(state)
		if err != nil {
			return fmt.Errorf("failed to marshal: %w", err)
		}

		key, err := s.freeKey(ctx, tx, domain.ArchiveKey(s.now()))
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, s.archiveKey(key), payload, 0)
			pipe.ZAdd(ctx, s.indexKey(), redis.Z{Score: 0, Member: key})
			pipe.Del(ctx, s.currentKey())
			return nil
		})
		if err != nil {
			return err
		}

		archived = true
		return nil
	}, s.currentKey())
	if err != nil {
		return false, &domain.StorageError{Op: "archive", Key: "current", Err: err}
	}

	return archived, nil
}

func (s *Store) DeleteCurrent(ctx context.Context) (bool, error) {
	n, err := s.client.rdb.Del(ctx, s.currentKey()).Result()
	if err != nil {
		return false, &domain.StorageError{Op: "delete", Key: "current", Err: err}
	}
	return n > 0, nil
}

// ListArchived returns archive keys, most recent first. Equal scores make
// ZREVRANGE order members by descending key.
func (s *Store) ListArchived(ctx context.Context) ([]string, error) {
	keys, err := s.client.rdb.ZRevRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, &domain.StorageError{Op: "list", Err: err}
	}
	if keys == nil {
		keys = []string{}
	}
	return keys, nil
}

func (s *Store) LoadArchived(ctx context.Context, key string) (*domain.SessionState, error) {
	data, err := s.client.rdb.Get(ctx, s.archiveKey(key)).Bytes()
	if err != nil {
		return nil, &domain.StorageError{Op: "load", Key: key, Err: err}
	}

	state, err := decode(data)
	if err != nil {
		return nil, &domain.StorageError{Op: "load", Key: key, Err: err}
	}
	return state, nil
}

// ClearAll removes every key under the prefix
func (s *Store) ClearAll(ctx context.Context) error {
	pattern := s.prefix + "*"
	var cursor uint64

	for {
		keys, nextCursor, err := s.client.rdb.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return &domain.StorageError{Op: "clear", Err: fmt.Errorf("failed to scan keys: %w", err)}
		}

		if len(keys) > 0 {
			if err := s.client.rdb.Del(ctx, keys...).Err(); err != nil {
				return &domain.StorageError{Op: "clear", Err: fmt.Errorf("failed to delete keys: %w", err)}
			}
		}

		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}

	return nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) freeKey(ctx context.Context, tx *redis.Tx, key string) (string, error) {
	candidate := key
	for n := 1; ; n++ {
		err := tx.ZScore(ctx, s.indexKey(), candidate).Err()
		if errors.Is(err, redis.Nil) {
			return candidate, nil
		}
		if err != nil {
			return "", err
		}
		candidate = domain.CollisionKey(key, n)
	}
}

func decode(data []byte) (*domain.SessionState, error) {
	var state domain.SessionState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal: %w", err)
	}
	return &state, nil
}
