package store

import (
	"context"

	"github.com/MKhiriev/triage-queue-sync/models"
)

//go:generate mockgen -source=client_interfaces.go -destination=../mock/client_store_mock.go -package=mock

// QueueRepository is the durable local copy of the triage queue.
type QueueRepository interface {
	// ReplaceAll makes the stored queue equal to items. Entries missing from
	// items are deleted together with their recordings.
	ReplaceAll(ctx context.Context, items []models.QueueItem) error
	// Save inserts or overwrites a single entry.
	Save(ctx context.Context, item models.QueueItem) error
	// Get returns the entry or [ErrPatientNotFound].
	Get(ctx context.Context, id string) (models.QueueItem, error)
	// List returns the entries with the given status (all when empty), in
	// presentation order.
	List(ctx context.Context, status models.QueueStatus) ([]models.QueueItem, error)
	// Delete removes the entry. Deleting an absent entry is not an error.
	Delete(ctx context.Context, id string) error
	// Rename moves an entry (and its recordings) to a new identifier.
	Rename(ctx context.Context, oldID, newID string) error
	Stats(ctx context.Context) (models.QueueStats, error)
}

// RecordingRepository stores audio samples attached to queue entries.
type RecordingRepository interface {
	Save(ctx context.Context, rec models.Recording) error
	ListByPatient(ctx context.Context, patientID string) ([]models.Recording, error)
}

// LedgerRepository is the pending-mutation ledger: changes applied locally
// that the server has not acknowledged yet.
type LedgerRepository interface {
	Enqueue(ctx context.Context, mutation models.PendingMutation) error
	// ListPending returns entries that still have to be sent, oldest first.
	// Failed entries are included until they reach maxAttempts.
	ListPending(ctx context.Context, maxAttempts int) ([]models.PendingMutation, error)
	MarkInProgress(ctx context.Context, id string) error
	MarkCompleted(ctx context.Context, id string) error
	// MarkFailed records a failed attempt. A non-zero setAttempts overwrites
	// the attempt counter instead of incrementing it.
	MarkFailed(ctx context.Context, id string, cause string, setAttempts int) error
	// RemapEntity points every unfinished entry for oldID at newID.
	RemapEntity(ctx context.Context, entityType, oldID, newID string) error
	// CancelUnsentCreate retires every waiting entry of an entity whose
	// create has not been picked up by a flush yet. It reports false when
	// there is no such create, including when one is being sent right now.
	CancelUnsentCreate(ctx context.Context, entityType, entityID string) (bool, error)
	Counts(ctx context.Context) (map[models.MutationStatus]int, error)
	PurgeCompleted(ctx context.Context) (int64, error)
}
