package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"matterdesk/internal/domain"
	"matterdesk/internal/port"
)

type documentRecordRepo struct {
	db *sqlx.DB
}

// NewDocumentRecordRepo creates a new PostgreSQL-backed DocumentRecordStore.
func NewDocumentRecordRepo(db *sqlx.DB) port.DocumentRecordStore {
	return &documentRecordRepo{db: db}
}

func (r *documentRecordRepo) Create(ctx context.Context, rec *domain.DocumentRecord) error {
	now := time.Now().UTC()
	if rec.SubmittedAt.IsZero() {
		rec.SubmittedAt = now
	}
	rec.UpdatedAt = now

	query := `INSERT INTO document_records (
		id, matter_id, file_name, file_size, state,
		tier, overall_confidence, extracted_data, error_detail,
		submitted_at, updated_at
	) VALUES (
		$1, $2, $3, $4, $5,
		$6, $7, $8, $9,
		$10, $11
	)`

	_, err := r.db.ExecContext(ctx, query,
		rec.ID, rec.MatterID, rec.FileName, rec.FileSize, rec.State,
		rec.Tier, rec.OverallConfidence, rec.ExtractedData, rec.ErrorDetail,
		rec.SubmittedAt, rec.UpdatedAt)
	if err != nil {
		return fmt.Errorf("documentRecordRepo.Create: %w", err)
	}
	return nil
}

func (r *documentRecordRepo) Get(ctx context.Context, id uuid.UUID) (*domain.DocumentRecord, error) {
	var rec domain.DocumentRecord
	err := r.db.GetContext(ctx, &rec,
		"SELECT * FROM document_records WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("documentRecordRepo.Get: %w", err)
	}
	return &rec, nil
}

// Put overwrites the stored record. The upsert keeps re-applied transitions
// harmless: the state machine is the sole writer and issues writes in strict
// forward order, so last-writer-wins is safe.
func (r *documentRecordRepo) Put(ctx context.Context, rec *domain.DocumentRecord) error {
	rec.UpdatedAt = time.Now().UTC()

	query := `INSERT INTO document_records (
		id, matter_id, file_name, file_size, state,
		tier, overall_confidence, extracted_data, error_detail,
		submitted_at, updated_at
	) VALUES (
		$1, $2, $3, $4, $5,
		$6, $7, $8, $9,
		$10, $11
	)
	ON CONFLICT (id) DO UPDATE SET
		state = EXCLUDED.state,
		tier = EXCLUDED.tier,
		overall_confidence = EXCLUDED.overall_confidence,
		extracted_data = EXCLUDED.extracted_data,
		error_detail = EXCLUDED.error_detail,
		updated_at = EXCLUDED.updated_at`

	_, err := r.db.ExecContext(ctx, query,
		rec.ID, rec.MatterID, rec.FileName, rec.FileSize, rec.State,
		rec.Tier, rec.OverallConfidence, rec.ExtractedData, rec.ErrorDetail,
		rec.SubmittedAt, rec.UpdatedAt)
	if err != nil {
		return fmt.Errorf("documentRecordRepo.Put: %w", err)
	}
	return nil
}

func (r *documentRecordRepo) ListByState(ctx context.Context, state domain.DocumentState, offset, limit int) ([]domain.DocumentRecord, int, error) {
	var total int
	err := r.db.GetContext(ctx, &total,
		"SELECT COUNT(*) FROM document_records WHERE state = $1", state)
	if err != nil {
		return nil, 0, fmt.Errorf("documentRecordRepo.ListByState count: %w", err)
	}

	var recs []domain.DocumentRecord
	err = r.db.SelectContext(ctx, &recs,
		`SELECT * FROM document_records WHERE state = $1
		 ORDER BY submitted_at DESC OFFSET $2 LIMIT $3`,
		state, offset, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("documentRecordRepo.ListByState: %w", err)
	}
	return recs, total, nil
}
