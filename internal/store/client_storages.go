package store

import (
	"context"
	"fmt"

	"github.com/MKhiriev/triage-queue-sync/internal/clock"
	"github.com/MKhiriev/triage-queue-sync/internal/config"
	"github.com/MKhiriev/triage-queue-sync/internal/logger"
)

// ClientStorages groups all client-side repositories into a single value
// that can be passed around the service layer. All of them share one SQLite
// connection pool.
type ClientStorages struct {
	// Queue is the durable copy of the triage queue.
	Queue QueueRepository
	// Recordings holds audio samples of queued patients.
	Recordings RecordingRepository
	// Ledger records local changes until the server acknowledges them.
	Ledger LedgerRepository

	db *DB
}

// NewClientStorages opens the SQLite file named by cfg.DB.DSN (creating it
// if needed), runs pending schema migrations and wires the repositories.
//
// Returns an error if the database connection cannot be established or if
// migration fails.
func NewClientStorages(ctx context.Context, cfg config.ClientStorage, clk clock.Clock, logger *logger.Logger) (*ClientStorages, error) {
	logger.Info().Msg("creating new storages...")

	db, err := NewConnectSQLite(ctx, cfg.DB, logger)
	if err != nil {
		return nil, fmt.Errorf("sqlite connection error: %w", err)
	}

	if err = db.Migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	return newClientStorages(db, clk, logger), nil
}

func newClientStorages(db *DB, clk clock.Clock, logger *logger.Logger) *ClientStorages {
	return &ClientStorages{
		Queue:      NewQueueRepository(db, logger),
		Recordings: NewRecordingRepository(db, logger),
		Ledger:     NewLedgerRepository(db, clk, logger),
		db:         db,
	}
}

// Close releases the connection pool.
func (s *ClientStorages) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
