// Package file implements domain.StateStore on JSON files:
// <state>/current.json holds the current session and <state>/history/<key>.json
// holds each archived one.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/Rrens/clipboard-ai/internal/domain"
)

const currentFile = "current.json"

// Store implements domain.StateStore
type Store struct {
	stateDir   string
	historyDir string
	now        func() time.Time
}

// NewStore creates a file store rooted at stateDir, creating it if needed
func NewStore(stateDir, historyDir string) (*Store, error) {
	for _, dir := range []string{stateDir, historyDir} {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, &domain.StorageError{Op: "init", Key: dir, Err: err}
		}
	}
	return &Store{stateDir: stateDir, historyDir: historyDir, now: time.Now}, nil
}

func (s *Store) currentPath() string {
	return filepath.Join(s.stateDir, currentFile)
}

func (s *Store) archivePath(key string) string {
	return filepath.Join(s.historyDir, key+".json")
}

func (s *Store) LoadCurrent(ctx context.Context) (*domain.SessionState, error) {
	state, err := readState(s.currentPath())
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, &domain.StorageError{Op: "load", Key: currentFile, Err: err}
	}
	return state, nil
}

func (s *Store) SaveCurrent(ctx context.Context, state *domain.SessionState) error {
	if err := writeState(s.currentPath(), state); err != nil {
		return &domain.StorageError{Op: "save", Key: currentFile, Err: err}
	}
	return nil
}

// ArchiveCurrent copies the current session into history and removes it.
// The write and the delete are sequential, not atomic.
func (s *Store) ArchiveCurrent(ctx context.Context) (bool, error) {
	state, err := s.LoadCurrent(ctx)
	if err != nil {
		return false, err
	}
	if state == nil {
		return false, nil
	}

	state.Active = false
	key := s.freeKey(domain.ArchiveKey(s.now()))
	if err := writeState(s.archivePath(key), state); err != nil {
		return false, &domain.StorageError{Op: "archive", Key: key, Err: err}
	}

	if err := os.Remove(s.currentPath()); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return false, &domain.StorageError{Op: "archive", Key: currentFile, Err: err}
	}
	return true, nil
}

func (s *Store) DeleteCurrent(ctx context.Context) (bool, error) {
	err := os.Remove(s.currentPath())
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, &domain.StorageError{Op: "delete", Key: currentFile, Err: err}
	}
	return true, nil
}

// ListArchived returns archive keys, most recent first
func (s *Store) ListArchived(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.historyDir)
	if errors.Is(err, fs.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, &domain.StorageError{Op: "list", Key: s.historyDir, Err: err}
	}

	keys := make([]string, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		keys = append(keys, strings.TrimSuffix(name, ".json"))
	}

	slices.Sort(keys)
	slices.Reverse(keys)
	return keys, nil
}

func (s *Store) LoadArchived(ctx context.Context, key string) (*domain.SessionState, error) {
	if key == "" || strings.ContainsAny(key, `/\`) {
		return nil, &domain.StorageError{Op: "load", Key: key, Err: fmt.Errorf("invalid archive key")}
	}
	state, err := readState(s.archivePath(key))
	if err != nil {
		return nil, &domain.StorageError{Op: "load", Key: key, Err: err}
	}
	return state, nil
}

func (s *Store) ClearAll(ctx context.Context) error {
	if _, err := s.DeleteCurrent(ctx); err != nil {
		return err
	}

	keys, err := s.ListArchived(ctx)
	if err != nil {
		return err
	}
	for _, key := range keys {
		if err := os.Remove(s.archivePath(key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return &domain.StorageError{Op: "clear", Key: key, Err: err}
		}
	}
	return nil
}

func (s *Store) Close() error {
	return nil
}

// freeKey picks a collision key when an archive with the same second already exists
func (s *Store) freeKey(key string) string {
	candidate := key
	for n := 1; ; n++ {
		if _, err := os.Stat(s.archivePath(candidate)); errors.Is(err, fs.ErrNotExist) {
			return candidate
		}
		candidate = domain.CollisionKey(key, n)
	}
}

func readState(path string) (*domain.SessionState, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var state domain.SessionState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal: %w", err)
	}
	return &state, nil
}

// writeState writes to a temp file first, then renames it into place
func writeState(path string, state *domain.SessionState) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename file: %w", err)
	}
	return nil
}
