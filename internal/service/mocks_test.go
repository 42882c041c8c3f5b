package service

import (
	"context"

	"github.com/Rrens/clipboard-ai/internal/domain"
	"github.com/Rrens/clipboard-ai/internal/llm"
	"github.com/stretchr/testify/mock"
)

// MockProvider mocks the llm.Provider interface
type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) Name() string {
	return m.Called().String(0)
}

func (m *MockProvider) AvailableModels() []string {
	args := m.Called()
	return args.Get(0).([]string)
}

func (m *MockProvider) DefaultModel() string {
	return m.Called().String(0)
}

func (m *MockProvider) IsConfigured() bool {
	return m.Called().Bool(0)
}

func (m *MockProvider) NewHandle(ctx context.Context, cfg llm.HandleConfig) (llm.Handle, error) {
	args := m.Called(ctx, cfg)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(llm.Handle), args.Error(1)
}

// MockHandle mocks the llm.Handle interface
type MockHandle struct {
	mock.Mock
}

func (m *MockHandle) Send(ctx context.Context, text string) (string, error) {
	args := m.Called(ctx, text)
	return args.String(0), args.Error(1)
}

// MockStateStore mocks the domain.StateStore interface
type MockStateStore struct {
	mock.Mock
}

func (m *MockStateStore) LoadCurrent(ctx context.Context) (*domain.SessionState, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SessionState), args.Error(1)
}

func (m *MockStateStore) SaveCurrent(ctx context.Context, state *domain.SessionState) error {
	args := m.Called(ctx, state)
	return args.Error(0)
}

func (m *MockStateStore) ArchiveCurrent(ctx context.Context) (bool, error) {
	args := m.Called(ctx)
	return args.Bool(0), args.Error(1)
}

func (m *MockStateStore) DeleteCurrent(ctx context.Context) (bool, error) {
	args := m.Called(ctx)
	return args.Bool(0), args.Error(1)
}

func (m *MockStateStore) ListArchived(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockStateStore) LoadArchived(ctx context.Context, key string) (*domain.SessionState, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SessionState), args.Error(1)
}

func (m *MockStateStore) ClearAll(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockStateStore) Close() error {
	args := m.Called()
	return args.Error(0)
}

// MockProfileResolver mocks the ProfileResolver interface
type MockProfileResolver struct {
	mock.Mock
}

func (m *MockProfileResolver) Resolve(name string) (*domain.PromptProfile, error) {
	args := m.Called(name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PromptProfile), args.Error(1)
}

func (m *MockProfileResolver) Names() ([]string, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}
