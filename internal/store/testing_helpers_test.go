package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/MKhiriev/triage-queue-sync/internal/logger"
	"github.com/MKhiriev/triage-queue-sync/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)

func newTestDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return db, mock
}

// newDBFromSQL создаёт DB из существующего *sql.DB (для тестов).
func newDBFromSQL(db *sql.DB) *DB {
	return &DB{DB: db, logger: logger.Nop()}
}

func testContext() context.Context {
	l := zerolog.Nop()
	return l.WithContext(context.Background())
}

func patient(id string, status models.QueueStatus, priority int, created time.Time) models.QueueItem {
	return models.QueueItem{
		ID:          id,
		CreatedAt:   created,
		TriageLevel: models.TriageYellow,
		Status:      status,
		Priority:    priority,
	}
}

func document(t *testing.T, item models.QueueItem) []byte {
	t.Helper()
	b, err := json.Marshal(item)
	require.NoError(t, err)
	return b
}
