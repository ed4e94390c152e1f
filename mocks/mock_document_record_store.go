package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"matterdesk/internal/domain"
)

// MockDocumentRecordStore is a mock implementation of port.DocumentRecordStore.
type MockDocumentRecordStore struct {
	mock.Mock
}

func (m *MockDocumentRecordStore) Create(ctx context.Context, rec *domain.DocumentRecord) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *MockDocumentRecordStore) Get(ctx context.Context, id uuid.UUID) (*domain.DocumentRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DocumentRecord), args.Error(1)
}

func (m *MockDocumentRecordStore) Put(ctx context.Context, rec *domain.DocumentRecord) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *MockDocumentRecordStore) ListByState(ctx context.Context, state domain.DocumentState, offset, limit int) ([]domain.DocumentRecord, int, error) {
	args := m.Called(ctx, state, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.DocumentRecord), args.Int(1), args.Error(2)
}
