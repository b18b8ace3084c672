package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/MKhiriev/go-social-sync/internal/logger"
	"github.com/MKhiriev/go-social-sync/models"
)

type localDraftRepository struct {
	db     *DB
	logger *logger.Logger
}

// NewLocalDraftRepository constructs a [DraftRepository] backed by db.
func NewLocalDraftRepository(db *DB, logger *logger.Logger) DraftRepository {
	logger.Debug().Msg("creating local draft repository")
	return &localDraftRepository{db: db, logger: logger}
}

func scanDraft(s rowScanner) (models.DraftPost, error) {
	var d models.DraftPost
	err := s.Scan(&d.LocalID, &d.OwnerID, &d.Title, &d.Description, &d.Images, &d.CreatedAt, &d.UpdatedAt)
	return d, err
}

func (r *localDraftRepository) Insert(ctx context.Context, d models.DraftPost) (int64, error) {
	now := time.Now().UTC()
	id, err := r.db.insert(ctx, insertDraft, []any{d.OwnerID, d.Title, d.Description, d.Images, now, now}, tableDrafts)
	if err != nil {
		logger.FromContext(ctx).Err(err).Str("func", "localDraftRepository.Insert").Msg("failed to insert draft")
		return 0, err
	}
	return id, nil
}

func (r *localDraftRepository) Update(ctx context.Context, d models.DraftPost) error {
	n, err := r.db.exec(ctx, updateDraft, []any{d.Title, d.Description, d.Images, time.Now().UTC(), d.LocalID}, tableDrafts)
	if err != nil {
		logger.FromContext(ctx).Err(err).Str("func", "localDraftRepository.Update").Msg("failed to update draft")
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *localDraftRepository) GetByID(ctx context.Context, localID int64) (models.DraftPost, error) {
	d, err := scanDraft(r.db.conn(ctx).QueryRowContext(ctx, getDraftByID, localID))
	if errors.Is(err, sql.ErrNoRows) {
		return models.DraftPost{}, ErrNotFound
	}
	if err != nil {
		return models.DraftPost{}, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}
	return d, nil
}

func (r *localDraftRepository) Delete(ctx context.Context, localID int64) error {
	n, err := r.db.exec(ctx, deleteDraft, []any{localID}, tableDrafts)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *localDraftRepository) ListByOwner(ctx context.Context, ownerID string) ([]models.DraftPost, error) {
	rows, err := r.db.conn(ctx).QueryContext(ctx, listDrafts, ownerID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	drafts := make([]models.DraftPost, 0)
	for rows.Next() {
		d, err := scanDraft(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrScanningRow, err)
		}
		drafts = append(drafts, d)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
	}
	return drafts, nil
}
