package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"matterdesk/internal/domain"
	"matterdesk/internal/service"
)

// MockDocumentService is a mock implementation of service.DocumentService.
type MockDocumentService struct {
	mock.Mock
}

func (m *MockDocumentService) Submit(ctx context.Context, input service.SubmitInput) (*domain.DocumentRecord, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DocumentRecord), args.Error(1)
}

func (m *MockDocumentService) Advance(ctx context.Context, documentID uuid.UUID, target domain.DocumentState, opts service.AdvanceOpts) (*domain.DocumentRecord, error) {
	args := m.Called(ctx, documentID, target, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DocumentRecord), args.Error(1)
}

func (m *MockDocumentService) Get(ctx context.Context, documentID uuid.UUID) (*domain.DocumentRecord, error) {
	args := m.Called(ctx, documentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DocumentRecord), args.Error(1)
}

func (m *MockDocumentService) GetDownloadURL(ctx context.Context, documentID uuid.UUID) (string, error) {
	args := m.Called(ctx, documentID)
	return args.String(0), args.Error(1)
}
