package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/MKhiriev/go-social-sync/internal/config"
	"github.com/MKhiriev/go-social-sync/internal/logger"
)

// sqliteOptions turns on foreign key enforcement (needed for cascades),
// waits on a locked database instead of failing and enables WAL.
const sqliteOptions = "_foreign_keys=on&_busy_timeout=5000&_journal_mode=WAL"

// readerOptions are added for the read pool; query_only rejects any write
// that reaches it by mistake.
const readerOptions = "&_query_only=1"

// maxReaderConns bounds the read pool. WAL lets these run beside the writer.
const maxReaderConns = 4

// NewConnectSQLite opens the SQLite database file named by cfg.DSN, creating
// it if needed.
func NewConnectSQLite(ctx context.Context, cfg config.ClientDB, log *logger.Logger) (*DB, error) {
	if err := createLocalDBFileIfNotExists(cfg.DSN); err != nil {
		log.Err(err).Str("func", "NewConnectSQLite").Msg("error creating database file")
		return nil, fmt.Errorf("error creating database file: %w", err)
	}

	conn, err := sql.Open("sqlite3", sqliteDSN(cfg.DSN))
	if err != nil {
		log.Err(err).Str("func", "NewConnectSQLite").Msg("error connecting database")
		return nil, fmt.Errorf("error opening connection to DB: %w", err)
	}

	// a single connection serialises writers and keeps the per-connection
	// pragmas in effect for every statement
	conn.SetMaxOpenConns(1)

	if err = conn.PingContext(ctx); err != nil {
		conn.Close()
		log.Err(err).Str("func", "NewConnectSQLite").Msg("error connecting database (ping)")
		return nil, err
	}
	log.Debug().Str("func", "NewConnectSQLite").Str("dsn", cfg.DSN).Msg("connected to database successfully")

	db := NewDB(conn, log)
	if isMemoryDSN(cfg.DSN) {
		// a private in-memory database is invisible to a second pool
		return db, nil
	}

	reader, err := sql.Open("sqlite3", sqliteDSN(cfg.DSN)+readerOptions)
	if err != nil {
		conn.Close()
		log.Err(err).Str("func", "NewConnectSQLite").Msg("error opening read pool")
		return nil, fmt.Errorf("error opening read pool: %w", err)
	}
	reader.SetMaxOpenConns(maxReaderConns)
	db.attachReader(reader)

	return db, nil
}

func isMemoryDSN(dsn string) bool {
	return dsn == ":memory:" || strings.Contains(dsn, "mode=memory")
}

// Open connects to the database and applies migrations.
func Open(ctx context.Context, cfg config.ClientDB, log *logger.Logger) (*DB, error) {
	db, err := NewConnectSQLite(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	if err = db.Migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	return db, nil
}

func sqliteDSN(path string) string {
	if strings.HasPrefix(path, "file:") {
		if strings.Contains(path, "?") {
			return path + "&" + sqliteOptions
		}
		return path + "?" + sqliteOptions
	}
	return "file:" + path + "?" + sqliteOptions
}

func createLocalDBFileIfNotExists(dbFile string) error {
	if strings.HasPrefix(dbFile, "file:") {
		return nil
	}

	if _, err := os.Stat(dbFile); os.IsNotExist(err) {
		if dir := filepath.Dir(dbFile); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("error creating DB dir: %w", err)
			}
		}

		f, err := os.Create(dbFile)
		if err != nil {
			return fmt.Errorf("error creating DB file: %w", err)
		}
		f.Close()
	}

	return nil
}
