package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"matterdesk/internal/domain"
	"matterdesk/internal/port"
)

// MockExtractionEngine is a mock implementation of port.ExtractionEngine.
type MockExtractionEngine struct {
	mock.Mock
}

func (m *MockExtractionEngine) Extract(ctx context.Context, input port.ExtractInput) (*domain.ExtractionResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ExtractionResult), args.Error(1)
}
