package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNoActiveConversation = errors.New("no active conversation")
	ErrProfileNotFound      = errors.New("prompt profile not found")
)

// StorageError reports an I/O or decode failure in a StateStore
type StorageError struct {
	Op  string
	Key string
	Err error
}

func (e *StorageError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("storage %s %s: %v", e.Op, e.Key, e.Err)
	}
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
