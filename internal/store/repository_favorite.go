package store

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/MKhiriev/go-social-sync/internal/logger"
	"github.com/MKhiriev/go-social-sync/models"
)

// localFavoriteRepository is the SQLite-backed implementation of
// [FavoriteRepository].
type localFavoriteRepository struct {
	db     *DB
	logger *logger.Logger
}

// NewLocalFavoriteRepository constructs a [FavoriteRepository] backed by db.
func NewLocalFavoriteRepository(db *DB, logger *logger.Logger) FavoriteRepository {
	logger.Debug().Msg("creating local favorite repository")
	return &localFavoriteRepository{db: db, logger: logger}
}

func (r *localFavoriteRepository) Set(ctx context.Context, userID string, postID int64, favorite bool) error {
	_, err := r.db.exec(ctx, upsertFavorite, []any{userID, postID, !favorite, time.Now().UTC()}, tableFavorites)
	if err != nil {
		logger.FromContext(ctx).Err(err).Str("func", "localFavoriteRepository.Set").Int64("post_id", postID).Msg("failed to set favorite")
		return err
	}
	return nil
}

func (r *localFavoriteRepository) IsFavorite(ctx context.Context, userID string, postID int64) (bool, error) {
	var n int
	if err := r.db.conn(ctx).QueryRowContext(ctx, isFavorite, userID, postID).Scan(&n); err != nil {
		return false, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}
	return n > 0, nil
}

func (r *localFavoriteRepository) MarkSynced(ctx context.Context, userID string, postID int64, favorite bool) error {
	query := settleFavorite
	if !favorite {
		query = settleUnfavorite
	}

	if _, err := r.db.exec(ctx, query, []any{userID, postID}, tableFavorites); err != nil {
		logger.FromContext(ctx).Err(err).Str("func", "localFavoriteRepository.MarkSynced").Msg("failed to settle favorite")
		return err
	}
	return nil
}

func (r *localFavoriteRepository) ListPending(ctx context.Context, userID string) ([]models.PendingFavorite, error) {
	rows, err := r.db.conn(ctx).QueryContext(ctx, listPendingFavorites, userID)
	if err != nil {
		logger.FromContext(ctx).Err(err).Str("func", "localFavoriteRepository.ListPending").Msg("failed to query favorites")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	out := make([]models.PendingFavorite, 0)
	for rows.Next() {
		var f models.PendingFavorite
		if err = rows.Scan(&f.UserID, &f.PostID, &f.Synced, &f.Deleted, &f.CreatedAt, &f.PostServerID); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrScanningRow, err)
		}
		out = append(out, f)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
	}

	return out, nil
}

func (r *localFavoriteRepository) ReplaceSynced(ctx context.Context, userID string, postIDs []int64) error {
	return r.db.InTx(ctx, func(ctx context.Context) error {
		stale := builder.Delete("favorites").Where(sq.And{
			sq.Eq{"user_id": userID},
			sq.Eq{"synced": true},
			sq.NotEq{"post_id": postIDs},
		})
		if _, err := r.db.execBuilder(ctx, stale, tableFavorites); err != nil {
			logger.FromContext(ctx).Err(err).Str("func", "localFavoriteRepository.ReplaceSynced").Msg("failed to drop stale favorites")
			return err
		}

		now := time.Now().UTC()
		for _, id := range postIDs {
			if _, err := r.db.exec(ctx, insertSyncedFavorite, []any{userID, id, now}, tableFavorites); err != nil {
				return err
			}
		}
		return nil
	})
}
