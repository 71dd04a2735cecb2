package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/MKhiriev/triage-queue-sync/internal/adapter"
	"github.com/MKhiriev/triage-queue-sync/internal/clock"
	"github.com/MKhiriev/triage-queue-sync/internal/logger"
	"github.com/MKhiriev/triage-queue-sync/internal/store"
	"github.com/MKhiriev/triage-queue-sync/internal/utils"
	"github.com/MKhiriev/triage-queue-sync/models"
)

// queueService applies every change to the reactive store first, persists
// it together with a ledger entry, and leaves delivery to the sync manager.
// Removal is the exception: while online it is confirmed by the server before
// the entry is dropped for good, unless the server has not seen the entry yet.
type queueService struct {
	adapter    adapter.ServerAdapter
	queue      store.QueueRepository
	recordings store.RecordingRepository
	ledger     store.LedgerRepository

	sync      ClientSyncService
	view      QueueView
	publisher Publisher
	scheduler SyncScheduler

	ids    *utils.UUIDGenerator
	clock  clock.Clock
	logger *logger.Logger
}

func NewQueueService(
	serverAdapter adapter.ServerAdapter,
	storages *store.ClientStorages,
	syncSvc ClientSyncService,
	view QueueView,
	publisher Publisher,
	scheduler SyncScheduler,
	clk clock.Clock,
	log *logger.Logger,
) ClientQueueService {
	return &queueService{
		adapter:    serverAdapter,
		queue:      storages.Queue,
		recordings: storages.Recordings,
		ledger:     storages.Ledger,
		sync:       syncSvc,
		view:       view,
		publisher:  publisher,
		scheduler:  scheduler,
		ids:        utils.NewUUIDGenerator(),
		clock:      clk,
		logger:     log.Component("queue"),
	}
}

func (s *queueService) Load(ctx context.Context) error {
	items, err := s.queue.List(ctx, "")
	if err != nil {
		s.view.SetError("Failed to load queue")
		return fmt.Errorf("load local queue: %w", err)
	}
	s.view.SetPatients(items)
	return nil
}

func (s *queueService) Add(ctx context.Context, item models.QueueItem) (models.QueueItem, error) {
	if item.TriageLevel == "" {
		return models.QueueItem{}, fmt.Errorf("%w: triage level is required", ErrInvalidPatient)
	}

	now := s.clock.Now()
	item.ID = s.ids.Short()
	item.CreatedAt = now
	item.UpdatedAt = now
	item.Status = models.StatusPending
	item.Priority = models.CalculatePriority(item.TriageLevel, item.TriageConfidence)

	s.view.AddPatient(item)

	if err := s.queue.Save(ctx, item); err != nil {
		s.view.RemovePatient(item.ID)
		s.view.ConfirmRemove(item.ID)
		s.view.SetError("Failed to add patient: local storage error")
		return models.QueueItem{}, fmt.Errorf("save patient locally: %w", err)
	}

	payload, err := json.Marshal(item)
	if err != nil {
		return models.QueueItem{}, fmt.Errorf("encode patient: %w", err)
	}
	if err = s.record(ctx, models.OpCreate, item.ID, payload); err != nil {
		s.view.SetError("Failed to add patient: local storage error")
		return item, err
	}

	s.announce("patient_added", func() error { return s.publisher.PatientAdded(ctx, item) })
	s.scheduler.ScheduleSync(0)

	s.logger.Info().Str("patient_id", item.ID).Str("level", string(item.TriageLevel)).Msg("patient queued")
	return item, nil
}

func (s *queueService) Remove(ctx context.Context, id string) error {
	item, ok := s.view.Patient(id)
	if !ok || !s.view.RemovePatient(id) {
		return nil
	}

	// The server has never seen an entry whose create is still waiting in
	// the ledger: dropping the create is the whole removal.
	cancelled, err := s.ledger.CancelUnsentCreate(ctx, models.EntityPatient, id)
	if err != nil {
		s.logger.Warn().Err(err).Str("patient_id", id).Msg("failed to cancel unsent create")
		return s.removeLater(ctx, item)
	}
	if cancelled {
		s.logger.Info().Str("patient_id", id).Msg("unsent patient removed locally")
		s.confirmRemove(ctx, id)
		return nil
	}

	if !s.scheduler.IsOnline() {
		return s.removeLater(ctx, item)
	}

	err = s.adapter.DeletePatient(ctx, id)
	switch {
	case err == nil:
		s.confirmRemove(ctx, id)
		return nil

	case errors.Is(err, adapter.ErrNotFound):
		// either gone already or its create is in flight under a local id;
		// a recorded delete settles both once the flush catches up
		return s.removeLater(ctx, item)

	case ctx.Err() != nil:
		s.view.RollbackRemove(item)
		return ctx.Err()

	case adapter.IsTransient(err):
		s.logger.Warn().Err(err).Str("patient_id", id).Msg("server unavailable, deferring removal")
		return s.removeLater(ctx, item)
	}

	s.view.RollbackRemove(item)
	s.view.SetError(userMessage("remove patient", err))
	return fmt.Errorf("%w: %w", ErrRemoveRejected, err)
}

// removeLater records the removal for the next flush. Once recorded the
// removal is final locally.
func (s *queueService) removeLater(ctx context.Context, item models.QueueItem) error {
	if err := s.record(ctx, models.OpDelete, item.ID, nil); err != nil {
		s.view.RollbackRemove(item)
		s.view.SetError("Failed to remove patient: local storage error")
		return err
	}
	s.confirmRemove(ctx, item.ID)
	s.scheduler.ScheduleSync(0)
	return nil
}

func (s *queueService) confirmRemove(ctx context.Context, id string) {
	if err := s.queue.Delete(ctx, id); err != nil {
		s.logger.Err(err).Str("patient_id", id).Msg("failed to delete local patient")
	}
	s.view.ConfirmRemove(id)
	s.announce("patient_removed", func() error { return s.publisher.PatientRemoved(ctx, id) })
}

func (s *queueService) Update(ctx context.Context, id string, patch models.QueueItemPatch) (models.QueueItem, error) {
	if patch.Status != nil && !patch.Status.Valid() {
		return models.QueueItem{}, fmt.Errorf("%w: unknown status %q", ErrInvalidPatient, *patch.Status)
	}
	if patch.Empty() {
		item, ok := s.view.Patient(id)
		if !ok {
			return models.QueueItem{}, ErrPatientNotFound
		}
		return item, nil
	}

	updated, ok := s.view.UpdatePatient(id, patch)
	if !ok {
		return models.QueueItem{}, ErrPatientNotFound
	}

	if err := s.queue.Save(ctx, updated); err != nil {
		s.view.SetError("Failed to update patient: local storage error")
		return updated, fmt.Errorf("save patient locally: %w", err)
	}

	payload, err := json.Marshal(patch)
	if err != nil {
		return updated, fmt.Errorf("encode patch: %w", err)
	}
	if err = s.record(ctx, models.OpUpdate, id, payload); err != nil {
		s.view.SetError("Failed to update patient: local storage error")
		return updated, err
	}

	s.announce("queue_refreshed", func() error { return s.publisher.QueueRefreshed(ctx, s.view.Patients()) })
	s.scheduler.ScheduleSync(0)
	return updated, nil
}

func (s *queueService) Refresh(ctx context.Context) error {
	if _, err := s.sync.Pull(ctx); err != nil {
		s.view.SetError(userMessage("refresh queue", err))
		return err
	}
	s.view.ClearError()
	return nil
}

func (s *queueService) Stats(ctx context.Context) (models.QueueStats, error) {
	stats, err := s.queue.Stats(ctx)
	if err != nil {
		return models.QueueStats{}, fmt.Errorf("queue stats: %w", err)
	}
	counts, err := s.ledger.Counts(ctx)
	if err != nil {
		return models.QueueStats{}, fmt.Errorf("ledger counts: %w", err)
	}
	stats.Ledger = counts
	return stats, nil
}

func (s *queueService) AttachRecording(ctx context.Context, rec models.Recording) (models.Recording, error) {
	if rec.PatientID == "" || len(rec.Data) == 0 {
		return models.Recording{}, ErrInvalidRecording
	}
	if _, ok := s.view.Patient(rec.PatientID); !ok {
		return models.Recording{}, ErrPatientNotFound
	}

	rec.ID = s.ids.Generate()
	rec.CreatedAt = s.clock.Now()
	if err := s.recordings.Save(ctx, rec); err != nil {
		return models.Recording{}, fmt.Errorf("save recording: %w", err)
	}
	return rec, nil
}

func (s *queueService) Recordings(ctx context.Context, patientID string) ([]models.Recording, error) {
	return s.recordings.ListByPatient(ctx, patientID)
}

func (s *queueService) record(ctx context.Context, op models.MutationOp, entityID string, payload []byte) error {
	err := s.ledger.Enqueue(ctx, models.PendingMutation{
		ID:         s.ids.Generate(),
		EntityType: models.EntityPatient,
		EntityID:   entityID,
		Op:         op,
		Payload:    payload,
		Status:     models.MutationPending,
		CreatedAt:  s.clock.Now(),
	})
	if err != nil {
		return fmt.Errorf("record %s %s: %w", op, entityID, err)
	}
	return nil
}

// announce publishes to sibling instances. Failures only cost the siblings
// a refresh, so they are logged and dropped.
func (s *queueService) announce(kind string, publish func() error) {
	if s.publisher == nil {
		return
	}
	if err := publish(); err != nil {
		s.logger.Warn().Err(err).Str("type", kind).Msg("broadcast failed")
	}
}
