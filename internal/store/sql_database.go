package store

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/MKhiriev/go-social-sync/internal/logger"
	"github.com/MKhiriev/go-social-sync/migrations"
)

// maxTxAttempts bounds retries of a top-level transaction that failed with
// a retryable error.
const maxTxAttempts = 3

// builder renders squirrel queries with SQLite "?" placeholders.
var builder = sq.StatementBuilder.PlaceholderFormat(sq.Question)

// DB is the local SQLite database. Every committed transaction publishes the
// set of tables it changed to the [Notifier], which drives reactive
// subscriptions created with [Watch].
type DB struct {
	*sql.DB
	// reader serves subscription loads; nil means they share DB.
	reader             *sql.DB
	errorClassificator ErrorClassificator
	notifier           *Notifier
	logger             *logger.Logger
}

// NewDB wraps an open connection.
func NewDB(conn *sql.DB, log *logger.Logger) *DB {
	return &DB{
		DB:                 conn,
		errorClassificator: NewSQLiteErrorClassifier(),
		notifier:           NewNotifier(),
		logger:             log,
	}
}

// attachReader makes reader serve loads of subscriptions, so they never
// queue behind a writer on the single write connection.
func (db *DB) attachReader(reader *sql.DB) {
	db.reader = reader
}

// Close closes the read pool, if any, and the write connection.
func (db *DB) Close() error {
	if db.reader != nil {
		if err := db.reader.Close(); err != nil {
			db.logger.Err(err).Str("func", "DB.Close").Msg("error closing read pool")
		}
	}
	return db.DB.Close()
}

// Migrate applies the embedded schema migrations.
func (db *DB) Migrate() error {
	return migrations.Migrate(db.DB, db.logger)
}

// Notifier returns the change notifier of db.
func (db *DB) Notifier() *Notifier {
	return db.notifier
}

type txKey struct{}

type txState struct {
	tx      *sql.Tx
	changed map[string]struct{}
}

func (s *txState) mark(tables ...string) {
	for _, t := range tables {
		s.changed[t] = struct{}{}
	}
}

func (s *txState) tables() []string {
	out := make([]string, 0, len(s.changed))
	for t := range s.changed {
		out = append(out, t)
	}
	return out
}

func txFromContext(ctx context.Context) *txState {
	st, _ := ctx.Value(txKey{}).(*txState)
	return st
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type readerKey struct{}

// withReader routes reads made with ctx outside a transaction to the read
// pool.
func withReader(ctx context.Context) context.Context {
	return context.WithValue(ctx, readerKey{}, true)
}

// conn returns the transaction carried by ctx, or the read pool when ctx
// asks for it, or the write connection.
func (db *DB) conn(ctx context.Context) querier {
	if st := txFromContext(ctx); st != nil {
		return st.tx
	}
	if ro, _ := ctx.Value(readerKey{}).(bool); ro && db.reader != nil {
		return db.reader
	}
	return db.DB
}

// InTx runs fn inside a transaction carried by the context passed to fn.
// Repository calls made with that context join the transaction. A nested
// InTx joins the outer transaction instead of opening a new one.
//
// Subscribers observe nothing until commit, and then exactly one change
// notification covering every table written inside fn.
func (db *DB) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if txFromContext(ctx) != nil {
		return fn(ctx)
	}

	var err error
	for attempt := 1; attempt <= maxTxAttempts; attempt++ {
		err = db.runTx(ctx, fn)
		if err == nil || ctx.Err() != nil || db.errorClassificator.Classify(err) != Retryable {
			return err
		}

		logger.FromContext(ctx).Warn().Err(err).
			Str("func", "DB.InTx").
			Int("attempt", attempt).
			Msg("retrying transaction after lock contention")
	}

	return err
}

func (db *DB) runTx(ctx context.Context, fn func(ctx context.Context) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBeginningTransaction, err)
	}
	defer tx.Rollback()

	st := &txState{tx: tx, changed: make(map[string]struct{})}
	if err = fn(context.WithValue(ctx, txKey{}, st)); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("%w: %w", ErrCommitingTransaction, err)
	}

	db.notifier.Publish(st.tables()...)
	return nil
}

// exec runs a mutating statement. When it affects at least one row the
// given tables are marked as changed. Outside a transaction the statement
// runs in its own one, so it also publishes exactly once.
func (db *DB) exec(ctx context.Context, query string, args []any, tables ...string) (int64, error) {
	var affected int64
	err := db.InTx(ctx, func(ctx context.Context) error {
		st := txFromContext(ctx)

		res, err := st.tx.ExecContext(ctx, query, args...)
		if err != nil {
			return classifyWriteError(err)
		}

		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
		}
		if n > 0 {
			st.mark(tables...)
		}
		affected = n
		return nil
	})

	return affected, err
}

// insert runs an INSERT and returns the id of the new row.
func (db *DB) insert(ctx context.Context, query string, args []any, tables ...string) (int64, error) {
	var id int64
	err := db.InTx(ctx, func(ctx context.Context) error {
		st := txFromContext(ctx)

		res, err := st.tx.ExecContext(ctx, query, args...)
		if err != nil {
			return classifyWriteError(err)
		}

		id, err = res.LastInsertId()
		if err != nil {
			return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
		}
		st.mark(tables...)
		return nil
	})

	return id, err
}

// execBuilder renders a squirrel statement and runs it with exec.
func (db *DB) execBuilder(ctx context.Context, b sq.Sqlizer, tables ...string) (int64, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}
	return db.exec(ctx, query, args, tables...)
}

// Purge removes every cached user and, through cascades, all content that
// references them together with pending tombstones. Settings in the meta
// table survive.
func (db *DB) Purge(ctx context.Context) error {
	return db.InTx(ctx, func(ctx context.Context) error {
		if _, err := db.exec(ctx, purgeUsers, nil, tableUsers, tablePosts, tableComments, tableFavorites, tableDrafts); err != nil {
			return err
		}
		_, err := db.exec(ctx, purgeTombstones, nil, tableTombstones)
		return err
	})
}
