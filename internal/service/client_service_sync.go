package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/MKhiriev/triage-queue-sync/internal/adapter"
	"github.com/MKhiriev/triage-queue-sync/internal/logger"
	"github.com/MKhiriev/triage-queue-sync/internal/store"
	"github.com/MKhiriev/triage-queue-sync/models"
	"golang.org/x/sync/singleflight"
)

const syncKey = "sync-all"

type syncManager struct {
	adapter     adapter.ServerAdapter
	queue       store.QueueRepository
	ledger      store.LedgerRepository
	maxAttempts int
	sink        func([]models.QueueItem)

	group singleflight.Group

	// aliases maps local ids to the ids the server assigned. A delete
	// recorded under a local id after its create was sent still reaches the
	// server entry.
	aliasMu sync.Mutex
	aliases map[string]string

	logger *logger.Logger
}

// NewSyncManager returns the sync coordinator. sink receives every queue
// pulled from the server after local changes are rebased on it; it may be nil.
func NewSyncManager(
	serverAdapter adapter.ServerAdapter,
	storages *store.ClientStorages,
	maxAttempts int,
	sink func([]models.QueueItem),
	log *logger.Logger,
) ClientSyncService {
	return &syncManager{
		adapter:     serverAdapter,
		queue:       storages.Queue,
		ledger:      storages.Ledger,
		maxAttempts: maxAttempts,
		sink:        sink,
		aliases:     make(map[string]string),
		logger:      log.Component("sync"),
	}
}

func (s *syncManager) IsOnline(ctx context.Context) (bool, error) {
	err := s.adapter.Ping(ctx)
	if err == nil {
		return true, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return false, ctxErr
	}
	s.logger.Debug().Err(err).Msg("server probe failed")
	return false, nil
}

func (s *syncManager) SyncAll(ctx context.Context) error {
	ch := s.group.DoChan(syncKey, func() (any, error) {
		return nil, s.syncAll(ctx)
	})

	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *syncManager) syncAll(ctx context.Context) error {
	if err := s.Flush(ctx); err != nil {
		return fmt.Errorf("flush ledger: %w", err)
	}
	if _, err := s.Pull(ctx); err != nil {
		return fmt.Errorf("pull queue: %w", err)
	}
	return nil
}

func (s *syncManager) Flush(ctx context.Context) error {
	pending, err := s.ledger.ListPending(ctx, s.maxAttempts)
	if err != nil {
		return fmt.Errorf("list pending mutations: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	sent := 0

	for _, m := range pending {
		m.EntityID = s.serverID(m.EntityID)

		err = s.ledger.MarkInProgress(ctx, m.ID)
		if errors.Is(err, store.ErrMutationNotFound) {
			// cancelled after the listing
			continue
		}
		if err != nil {
			return fmt.Errorf("mark mutation %s in progress: %w", m.ID, err)
		}

		err = s.send(ctx, m)
		switch {
		case err == nil:
			if err = s.ledger.MarkCompleted(ctx, m.ID); err != nil {
				return fmt.Errorf("mark mutation %s completed: %w", m.ID, err)
			}
			sent++

		case ctx.Err() != nil || adapter.IsTransient(err):
			if markErr := s.ledger.MarkFailed(context.WithoutCancel(ctx), m.ID, err.Error(), 0); markErr != nil {
				s.logger.Err(markErr).Str("mutation_id", m.ID).Msg("failed to record attempt")
			}
			s.logger.Warn().Err(err).
				Str("op", string(m.Op)).
				Str("entity_id", m.EntityID).
				Int("sent", sent).
				Msg("flush interrupted")
			if sent > 0 {
				s.purge(context.WithoutCancel(ctx))
			}
			return fmt.Errorf("send %s %s: %w", m.Op, m.EntityID, err)

		default:
			// the server will not take this change; stop retrying it and let
			// the next pull restore the server's view of the entity
			if markErr := s.ledger.MarkFailed(ctx, m.ID, err.Error(), s.maxAttempts); markErr != nil {
				s.logger.Err(markErr).Str("mutation_id", m.ID).Msg("failed to record rejection")
			}
			s.logger.Warn().Err(err).
				Str("op", string(m.Op)).
				Str("entity_id", m.EntityID).
				Msg("mutation rejected by server")
		}
	}

	s.logger.Info().Int("sent", sent).Int("total", len(pending)).Msg("ledger flushed")
	if sent > 0 {
		s.purge(ctx)
	}
	return nil
}

func (s *syncManager) purge(ctx context.Context) {
	purged, err := s.ledger.PurgeCompleted(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to purge completed mutations")
		return
	}
	s.logger.Debug().Int64("purged", purged).Msg("completed mutations purged")
}

func (s *syncManager) send(ctx context.Context, m models.PendingMutation) error {
	switch m.Op {
	case models.OpCreate:
		return s.sendCreate(ctx, m)
	case models.OpUpdate:
		return s.sendUpdate(ctx, m)
	case models.OpDelete:
		err := s.adapter.DeletePatient(ctx, m.EntityID)
		if errors.Is(err, adapter.ErrNotFound) {
			return nil
		}
		return err
	}
	return fmt.Errorf("%w: %q", ErrUnknownOperation, m.Op)
}

func (s *syncManager) sendCreate(ctx context.Context, m models.PendingMutation) error {
	var item models.QueueItem
	if err := json.Unmarshal(m.Payload, &item); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedMutation, err)
	}
	item.ID = m.EntityID

	resp, err := s.adapter.AddPatient(ctx, item)
	if err != nil {
		return err
	}
	if resp.PatientID == "" || resp.PatientID == m.EntityID {
		return nil
	}

	// The server assigned its own id. Everything still pointing at the local
	// one is moved over; failures here are repaired by the following pull.
	s.alias(m.EntityID, resp.PatientID)
	if err = s.queue.Rename(ctx, m.EntityID, resp.PatientID); err != nil {
		s.logger.Err(err).Str("from", m.EntityID).Str("to", resp.PatientID).Msg("failed to rename local patient")
	}
	if err = s.ledger.RemapEntity(ctx, models.EntityPatient, m.EntityID, resp.PatientID); err != nil {
		s.logger.Err(err).Str("from", m.EntityID).Str("to", resp.PatientID).Msg("failed to remap ledger")
	}
	return nil
}

func (s *syncManager) sendUpdate(ctx context.Context, m models.PendingMutation) error {
	var patch models.QueueItemPatch
	if err := json.Unmarshal(m.Payload, &patch); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedMutation, err)
	}
	if patch.Status == nil && patch.Notes == nil && patch.ReviewedBy == nil && patch.ReferredTo == nil {
		// priority is derived by the server and cannot be written
		return nil
	}

	update := models.StatusUpdate{
		Notes:      patch.Notes,
		ReviewedBy: patch.ReviewedBy,
		ReferredTo: patch.ReferredTo,
	}
	if patch.Status != nil {
		update.Status = *patch.Status
	} else {
		status, err := s.currentStatus(ctx, m.EntityID)
		if err != nil {
			return err
		}
		update.Status = status
	}

	return s.adapter.UpdatePatient(ctx, m.EntityID, update)
}

// currentStatus is needed because the server only accepts updates that carry
// a status.
func (s *syncManager) currentStatus(ctx context.Context, id string) (models.QueueStatus, error) {
	item, err := s.queue.Get(ctx, id)
	if err == nil {
		return item.Status, nil
	}
	if !errors.Is(err, store.ErrPatientNotFound) {
		s.logger.Warn().Err(err).Str("entity_id", id).Msg("local lookup failed, asking server")
	}

	item, err = s.adapter.GetPatient(ctx, id)
	if err != nil {
		return "", err
	}
	return item.Status, nil
}

func (s *syncManager) Pull(ctx context.Context) ([]models.QueueItem, error) {
	items, err := s.adapter.FetchQueue(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("fetch server queue: %w", err)
	}

	pending, err := s.ledger.ListPending(ctx, s.maxAttempts)
	if err != nil {
		return nil, fmt.Errorf("list pending mutations: %w", err)
	}

	resolved := make([]models.PendingMutation, len(pending))
	for i, m := range pending {
		m.EntityID = s.serverID(m.EntityID)
		resolved[i] = m
	}
	merged := rebase(items, resolved)
	if err = s.queue.ReplaceAll(ctx, merged); err != nil {
		return nil, fmt.Errorf("store pulled queue: %w", err)
	}
	if s.sink != nil {
		s.sink(merged)
	}

	s.logger.Debug().
		Int("server", len(items)).
		Int("pending", len(pending)).
		Msg("queue pulled")
	return merged, nil
}

func (s *syncManager) alias(localID, serverID string) {
	s.aliasMu.Lock()
	defer s.aliasMu.Unlock()
	s.aliases[localID] = serverID
}

// serverID returns the server's id for a local one, or id itself.
func (s *syncManager) serverID(id string) string {
	s.aliasMu.Lock()
	defer s.aliasMu.Unlock()
	if serverID, ok := s.aliases[id]; ok {
		return serverID
	}
	return id
}

// rebase applies the changes still waiting in the ledger on top of a server
// snapshot, so that a pull never hides work the user has already done.
// Entries whose payload cannot be decoded are skipped.
func rebase(server []models.QueueItem, pending []models.PendingMutation) []models.QueueItem {
	out := slices.Clone(server)
	if out == nil {
		out = []models.QueueItem{}
	}
	index := make(map[string]int, len(out))
	for i, item := range out {
		index[item.ID] = i
	}
	deleted := make(map[string]bool)

	for _, m := range pending {
		switch m.Op {
		case models.OpCreate:
			if _, ok := index[m.EntityID]; ok || deleted[m.EntityID] {
				continue
			}
			var item models.QueueItem
			if json.Unmarshal(m.Payload, &item) != nil {
				continue
			}
			item.ID = m.EntityID
			index[item.ID] = len(out)
			out = append(out, item)

		case models.OpUpdate:
			i, ok := index[m.EntityID]
			if !ok {
				continue
			}
			var patch models.QueueItemPatch
			if json.Unmarshal(m.Payload, &patch) != nil {
				continue
			}
			out[i] = patch.Apply(out[i], m.CreatedAt)

		case models.OpDelete:
			deleted[m.EntityID] = true
		}
	}

	if len(deleted) > 0 {
		out = slices.DeleteFunc(out, func(item models.QueueItem) bool { return deleted[item.ID] })
	}
	models.SortQueue(out)
	return out
}
