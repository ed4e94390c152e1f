package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"matterdesk/internal/domain"
)

// MockTimeEntryService is a mock implementation of service.TimeEntryService.
type MockTimeEntryService struct {
	mock.Mock
}

func (m *MockTimeEntryService) Capture(ctx context.Context, narrative string) (*domain.TimeEntryDraft, error) {
	args := m.Called(ctx, narrative)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TimeEntryDraft), args.Error(1)
}
