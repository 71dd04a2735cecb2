package service

import (
	"context"
	"io"
	"time"

	"github.com/MKhiriev/triage-queue-sync/models"
)

//go:generate mockgen -source=client_interfaces.go -destination=../mock/client_service_mock.go -package=mock

// ClientSyncService reconciles the local queue with the server. It is the
// coordinator driven by the connectivity monitor.
type ClientSyncService interface {
	// IsOnline probes the server. An unreachable or unhealthy server reports
	// (false, nil); an error is returned only if ctx ended.
	IsOnline(ctx context.Context) (bool, error)

	// SyncAll flushes the pending-mutation ledger and then pulls the server
	// queue. Concurrent calls share a single run.
	SyncAll(ctx context.Context) error

	// Flush sends pending ledger entries in creation order. It stops at the
	// first transient failure and returns it.
	Flush(ctx context.Context) error

	// Pull fetches the server queue, rebases unsent local changes on top of
	// it, stores the result and hands it to the snapshot sink.
	Pull(ctx context.Context) ([]models.QueueItem, error)
}

// ClientQueueService is the entry point for every user-initiated queue
// operation. Changes are applied to the reactive store first and reconciled
// with the server afterwards.
type ClientQueueService interface {
	// Load fills the reactive store from the durable copy.
	Load(ctx context.Context) error

	// Add queues a new patient. Identifier, timestamps, status and priority
	// are assigned here; the returned item carries them.
	Add(ctx context.Context, item models.QueueItem) (models.QueueItem, error)

	// Remove deletes a patient. Removing an entry that is absent or already
	// being removed is a no-op.
	Remove(ctx context.Context, id string) error

	// Update merges patch into the entry.
	Update(ctx context.Context, id string, patch models.QueueItemPatch) (models.QueueItem, error)

	// Refresh replaces the local queue with the server's.
	Refresh(ctx context.Context) error

	// Stats summarises the durable queue, including ledger counts.
	Stats(ctx context.Context) (models.QueueStats, error)

	// ExportCSV writes the durable queue as CSV.
	ExportCSV(ctx context.Context, w io.Writer) error

	AttachRecording(ctx context.Context, rec models.Recording) (models.Recording, error)
	Recordings(ctx context.Context, patientID string) ([]models.Recording, error)
}

// ClientSyncJob runs SyncAll periodically in the background.
type ClientSyncJob interface {
	// Start replaces any running job with one that ticks every interval.
	Start(ctx context.Context, interval time.Duration)
	// Stop cancels the job and waits for it. Safe to call repeatedly.
	Stop()
}

// Publisher announces local changes to sibling instances.
type Publisher interface {
	PatientAdded(ctx context.Context, item models.QueueItem) error
	PatientRemoved(ctx context.Context, id string) error
	QueueRefreshed(ctx context.Context, items []models.QueueItem) error
}

// SyncScheduler is the part of the connectivity monitor the queue service
// talks to.
type SyncScheduler interface {
	IsOnline() bool
	ScheduleSync(delay time.Duration)
}

// QueueView is the reactive store as seen by the services.
type QueueView interface {
	SetPatients(items []models.QueueItem)
	AddPatient(item models.QueueItem)
	RemovePatient(id string) bool
	RollbackRemove(item models.QueueItem)
	ConfirmRemove(id string)
	UpdatePatient(id string, patch models.QueueItemPatch) (models.QueueItem, bool)
	Patient(id string) (models.QueueItem, bool)
	Patients() []models.QueueItem
	SetError(msg string)
	ClearError()
}
