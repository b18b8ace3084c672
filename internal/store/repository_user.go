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

// localUserRepository is the SQLite-backed implementation of
// [UserRepository].
type localUserRepository struct {
	db     *DB
	logger *logger.Logger
}

// NewLocalUserRepository constructs a [UserRepository] backed by db.
func NewLocalUserRepository(db *DB, logger *logger.Logger) UserRepository {
	logger.Debug().Msg("creating local user repository")
	return &localUserRepository{db: db, logger: logger}
}

func (r *localUserRepository) Upsert(ctx context.Context, u models.User) error {
	log := logger.FromContext(ctx)

	now := time.Now().UTC()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	if u.UpdatedAt.IsZero() {
		u.UpdatedAt = u.CreatedAt
	}

	_, err := r.db.exec(ctx, upsertUser, []any{
		u.ID, u.Email, u.FirstName, u.LastName, u.Alias, u.Phone, u.Website, u.Avatar,
		u.CreatedAt.UTC(), u.UpdatedAt.UTC(),
	}, tableUsers)
	if err != nil {
		log.Err(err).Str("func", "localUserRepository.Upsert").Str("user_id", u.ID).Msg("failed to upsert user")
		return err
	}

	return nil
}

func (r *localUserRepository) EnsureExists(ctx context.Context, id string) error {
	now := time.Now().UTC()
	if _, err := r.db.exec(ctx, ensureUser, []any{id, now, now}, tableUsers); err != nil {
		logger.FromContext(ctx).Err(err).Str("func", "localUserRepository.EnsureExists").Msg("failed to insert user")
		return err
	}
	return nil
}

func (r *localUserRepository) GetByID(ctx context.Context, id string) (models.User, error) {
	row := r.db.conn(ctx).QueryRowContext(ctx, getUserByID, id)

	var u models.User
	err := row.Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.Alias, &u.Phone, &u.Website, &u.Avatar, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrNotFound
	}
	if err != nil {
		logger.FromContext(ctx).Err(err).Str("func", "localUserRepository.GetByID").Msg("failed to scan user")
		return models.User{}, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}

	return u, nil
}

func (r *localUserRepository) DeleteByID(ctx context.Context, id string) error {
	n, err := r.db.exec(ctx, deleteUser, []any{id}, tableUsers, tablePosts, tableComments, tableFavorites, tableDrafts)
	if err != nil {
		logger.FromContext(ctx).Err(err).Str("func", "localUserRepository.DeleteByID").Msg("failed to delete user")
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
