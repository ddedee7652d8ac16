// Package providertest provides mock implementations for testing code that
// consumes the provider interfaces.
package providertest

import (
	"context"
	"sync/atomic"

	"github.com/nyxmora/relay/internal/provider"
)

// MockProvider is a configurable mock implementation of provider.Provider.
type MockProvider struct {
	CompleteFunc  func(ctx context.Context, req provider.Request) (string, error)
	ModelNameFunc func() string

	// Calls counts Complete invocations. Safe for concurrent use.
	Calls atomic.Int64
}

// Complete implements provider.Provider.
func (m *MockProvider) Complete(ctx context.Context, req provider.Request) (string, error) {
	m.Calls.Add(1)
	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, req)
	}
	return "", nil
}

// ModelName implements provider.Provider.
func (m *MockProvider) ModelName() string {
	if m.ModelNameFunc != nil {
		return m.ModelNameFunc()
	}
	return "mock-model"
}
