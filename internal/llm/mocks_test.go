package llm_test

import (
	"context"

	"github.com/Rrens/clipboard-ai/internal/llm"
	"github.com/stretchr/testify/mock"
)

type MockHandle struct {
	mock.Mock
}

func (m *MockHandle) Send(ctx context.Context, text string) (string, error) {
	args := m.Called(ctx, text)
	return args.String(0), args.Error(1)
}

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
