package port

import (
	"context"

	"github.com/google/uuid"

	"matterdesk/internal/domain"
)

// DocumentRecordStore holds one mutable status record per document, keyed by
// document ID. The state machine is its only writer; pollers treat it as
// read-only.
type DocumentRecordStore interface {
	// Create inserts a new record. The record must not already exist.
	Create(ctx context.Context, rec *domain.DocumentRecord) error

	// Get returns the record for id, or domain.ErrNotFound.
	Get(ctx context.Context, id uuid.UUID) (*domain.DocumentRecord, error)

	// Put overwrites the record for rec.ID. Writes are last-writer-wins;
	// transitions are strictly forward-ordered by the single owning process,
	// so re-applying the same write is harmless.
	Put(ctx context.Context, rec *domain.DocumentRecord) error

	// ListByState returns records currently in the given state, newest first.
	ListByState(ctx context.Context, state domain.DocumentState, offset, limit int) ([]domain.DocumentRecord, int, error)
}
