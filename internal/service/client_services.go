package service

import (
	"github.com/MKhiriev/triage-queue-sync/internal/adapter"
	"github.com/MKhiriev/triage-queue-sync/internal/clock"
	"github.com/MKhiriev/triage-queue-sync/internal/logger"
	"github.com/MKhiriev/triage-queue-sync/internal/store"
	"github.com/MKhiriev/triage-queue-sync/models"
)

// ClientDeps are the collaborators of the client services that live outside
// this package.
type ClientDeps struct {
	Adapter   adapter.ServerAdapter
	Storages  *store.ClientStorages
	View      QueueView
	Publisher Publisher
	Clock     clock.Clock

	// NewScheduler builds the connectivity monitor around the sync service
	// it will drive.
	NewScheduler func(coordinator ClientSyncService) SyncScheduler

	// LedgerMaxAttempts bounds retries of one pending mutation.
	LedgerMaxAttempts int
	// OnPull receives every queue the sync manager pulls.
	OnPull func([]models.QueueItem)
}

type ClientServices struct {
	SyncService  ClientSyncService
	QueueService ClientQueueService
	SyncJob      ClientSyncJob
}

func NewClientServices(deps ClientDeps, log *logger.Logger) *ClientServices {
	syncSvc := NewSyncManager(deps.Adapter, deps.Storages, deps.LedgerMaxAttempts, deps.OnPull, log)
	scheduler := deps.NewScheduler(syncSvc)
	queueSvc := NewQueueService(deps.Adapter, deps.Storages, syncSvc, deps.View, deps.Publisher, scheduler, deps.Clock, log)

	return &ClientServices{
		SyncService:  syncSvc,
		QueueService: queueSvc,
		SyncJob:      NewClientSyncJob(syncSvc, scheduler.IsOnline, deps.Clock, log),
	}
}
