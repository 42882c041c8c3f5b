// Package storetest holds behaviour checks shared by every
// domain.StateStore implementation.
package storetest

import (
	"context"
	"fmt"
	"slices"
	"testing"
	"time"

	"github.com/Rrens/clipboard-ai/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Factory returns a fresh, empty store for one subtest
type Factory func(t *testing.T) domain.StateStore

// SampleState returns a session with two exchanges and UTC timestamps
func SampleState(prompt string) *domain.SessionState {
	start := time.Date(2025, 3, 1, 9, 30, 15, 123456000, time.UTC)
	s := domain.NewSessionState(prompt, "gemini-2.5-flash", start)
	s.AddMessage(domain.RoleUser, "first message", start.Add(time.Second))
	s.AddMessage(domain.RoleModel, "Ready.", start.Add(2*time.Second))
	s.AddMessage(domain.RoleUser, "what is 2+2?", start.Add(time.Minute))
	s.AddMessage(domain.RoleModel, "4", start.Add(time.Minute+time.Second))
	return s
}

// Run exercises the full StateStore contract
func Run(t *testing.T, newStore Factory) {
	ctx := context.Background()

	t.Run("empty store", func(t *testing.T) {
		store := newStore(t)

		state, err := store.LoadCurrent(ctx)
		require.NoError(t, err)
		assert.Nil(t, state)

		archived, err := store.ArchiveCurrent(ctx)
		require.NoError(t, err)
		assert.False(t, archived)

		deleted, err := store.DeleteCurrent(ctx)
		require.NoError(t, err)
		assert.False(t, deleted)

		keys, err := store.ListArchived(ctx)
		require.NoError(t, err)
		assert.Empty(t, keys)
	})

	t.Run("save and load round trip", func(t *testing.T) {
		store := newStore(t)
		want := SampleState("default")

		require.NoError(t, store.SaveCurrent(ctx, want))

		got, err := store.LoadCurrent(ctx)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, want, got)
	})

	t.Run("save overwrites current", func(t *testing.T) {
		store := newStore(t)
		first := SampleState("default")
		second := SampleState("coder")
		second.AddMessage(domain.RoleUser, "more", second.LastActivity.Add(time.Second))

		require.NoError(t, store.SaveCurrent(ctx, first))
		require.NoError(t, store.SaveCurrent(ctx, second))

		got, err := store.LoadCurrent(ctx)
		require.NoError(t, err)
		assert.Equal(t, "coder", got.PromptName)
		assert.Equal(t, 5, got.MessageCount())
	})

	t.Run("archive moves current to history", func(t *testing.T) {
		store := newStore(t)
		state := SampleState("default")
		require.NoError(t, store.SaveCurrent(ctx, state))

		archived, err := store.ArchiveCurrent(ctx)
		require.NoError(t, err)
		assert.True(t, archived)

		current, err := store.LoadCurrent(ctx)
		require.NoError(t, err)
		assert.Nil(t, current)

		keys, err := store.ListArchived(ctx)
		require.NoError(t, err)
		require.Len(t, keys, 1)

		old, err := store.LoadArchived(ctx, keys[0])
		require.NoError(t, err)
		assert.False(t, old.Active)
		assert.Equal(t, state.Messages, old.Messages)
		assert.Equal(t, state.PromptName, old.PromptName)
	})

	t.Run("archives are listed most recent first", func(t *testing.T) {
		store := newStore(t)
		for _, name := range []string{"a", "b", "c"} {
			require.NoError(t, store.SaveCurrent(ctx, SampleState(name)))
			archived, err := store.ArchiveCurrent(ctx)
			require.NoError(t, err)
			require.True(t, archived)
		}

		keys, err := store.ListArchived(ctx)
		require.NoError(t, err)
		require.Len(t, keys, 3)
		assert.True(t, slices.IsSortedFunc(keys, func(a, b string) int {
			switch {
			case a > b:
				return -1
			case a < b:
				return 1
			}
			return 0
		}), "keys not descending: %v", keys)

		newest, err := store.LoadArchived(ctx, keys[0])
		require.NoError(t, err)
		assert.Equal(t, "c", newest.PromptName)
	})

	t.Run("same second archives keep their order", func(t *testing.T) {
		store := newStore(t)
		var names []string
		for i := 0; i < 12; i++ {
			name := fmt.Sprintf("p%02d", i)
			names = append(names, name)
			require.NoError(t, store.SaveCurrent(ctx, SampleState(name)))
			archived, err := store.ArchiveCurrent(ctx)
			require.NoError(t, err)
			require.True(t, archived)
		}

		keys, err := store.ListArchived(ctx)
		require.NoError(t, err)
		require.Len(t, keys, len(names))

		for i, key := range keys {
			state, err := store.LoadArchived(ctx, key)
			require.NoError(t, err)
			assert.Equal(t, names[len(names)-1-i], state.PromptName, "key %s", key)
		}
	})

	t.Run("delete current", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, store.SaveCurrent(ctx, SampleState("default")))

		deleted, err := store.DeleteCurrent(ctx)
		require.NoError(t, err)
		assert.True(t, deleted)

		current, err := store.LoadCurrent(ctx)
		require.NoError(t, err)
		assert.Nil(t, current)

		keys, err := store.ListArchived(ctx)
		require.NoError(t, err)
		assert.Empty(t, keys)
	})

	t.Run("clear all", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, store.SaveCurrent(ctx, SampleState("old")))
		_, err := store.ArchiveCurrent(ctx)
		require.NoError(t, err)
		require.NoError(t, store.SaveCurrent(ctx, SampleState("new")))

		require.NoError(t, store.ClearAll(ctx))

		current, err := store.LoadCurrent(ctx)
		require.NoError(t, err)
		assert.Nil(t, current)

		keys, err := store.ListArchived(ctx)
		require.NoError(t, err)
		assert.Empty(t, keys)
	})

	t.Run("missing archive", func(t *testing.T) {
		store := newStore(t)

		_, err := store.LoadArchived(ctx, "1999-01-01-00-00-00")
		var storageErr *domain.StorageError
		assert.ErrorAs(t, err, &storageErr)
	})
}
