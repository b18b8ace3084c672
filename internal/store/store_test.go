package store

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/go-social-sync/internal/config"
	"github.com/MKhiriev/go-social-sync/internal/logger"
	"github.com/MKhiriev/go-social-sync/models"
)

func newTestDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

// newDBFromSQL создаёт DB из существующего *sql.DB (для тестов).
func newDBFromSQL(db *sql.DB) *DB {
	return NewDB(db, logger.Nop())
}

func testContext() context.Context {
	l := zerolog.Nop()
	return l.WithContext(context.Background())
}

// newSQLiteStorages открывает настоящую SQLite базу во временной директории.
func newSQLiteStorages(t *testing.T) *ClientStorages {
	t.Helper()

	db, err := Open(testContext(), config.ClientDB{DSN: filepath.Join(t.TempDir(), "test.db")}, logger.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewClientStoragesFromDB(db, logger.Nop())
}

func seedUser(t *testing.T, s *ClientStorages, id, alias string) models.User {
	t.Helper()
	u := models.User{
		ID:        id,
		Email:     alias + "@example.com",
		FirstName: alias,
		Alias:     alias,
		CreatedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, s.Users.Upsert(testContext(), u))
	return u
}

func seedPost(t *testing.T, s *ClientStorages, p models.Post) int64 {
	t.Helper()
	id, err := s.Posts.Insert(testContext(), p)
	require.NoError(t, err)
	return id
}

func strPtr(s string) *string { return &s }

func int64Ptr(v int64) *int64 { return &v }
