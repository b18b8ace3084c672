package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/MKhiriev/go-social-sync/internal/logger"
	"github.com/MKhiriev/go-social-sync/internal/utils"
)

const metaClientID = "client_id"

type localMetaRepository struct {
	db     *DB
	uuid   *utils.UUIDGenerator
	logger *logger.Logger
}

// NewLocalMetaRepository constructs a [MetaRepository] backed by db.
func NewLocalMetaRepository(db *DB, logger *logger.Logger) MetaRepository {
	return &localMetaRepository{db: db, uuid: utils.NewUUIDGenerator(), logger: logger}
}

func (r *localMetaRepository) Get(ctx context.Context, key string) (string, bool, error) {
	var v string
	err := r.db.conn(ctx).QueryRowContext(ctx, getMeta, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}
	return v, true, nil
}

func (r *localMetaRepository) Set(ctx context.Context, key, value string) error {
	_, err := r.db.exec(ctx, setMeta, []any{key, value}, tableMeta)
	return err
}

func (r *localMetaRepository) ClientID(ctx context.Context) (string, error) {
	var id string
	err := r.db.InTx(ctx, func(ctx context.Context) error {
		v, ok, err := r.Get(ctx, metaClientID)
		if err != nil {
			return err
		}
		if ok {
			id = v
			return nil
		}

		id = r.uuid.Generate()
		logger.FromContext(ctx).Info().Str("client_id", id).Msg("generated client id")
		return r.Set(ctx, metaClientID, id)
	})
	return id, err
}
