// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package queuestore holds the in-memory, observable projection of the triage
// queue that the presentation layer renders.
//
// The store is the convergence point of four writers: optimistic local
// mutations, the real-time channel, the sync coordinator's pull and
// broadcasts from sibling instances. It keeps no history. Every write
// replaces or merges state and queues an immutable [Snapshot] for the
// observers.
//
// Snapshots are delivered one at a time in version order, outside the lock,
// and a mutating call returns only after its own snapshot was delivered.
// The writer that finds nobody delivering drains the queue; the others wait
// for it. Observers may read the store but must not write to it.
package queuestore

import (
	"slices"
	"sync"

	"github.com/MKhiriev/triage-queue-sync/internal/clock"
	"github.com/MKhiriev/triage-queue-sync/internal/logger"
	"github.com/MKhiriev/triage-queue-sync/models"
)

// Snapshot is a read-only copy of the store. Version increases by one on
// every change.
type Snapshot struct {
	Version      uint64
	Patients     []models.QueueItem
	Deleting     []string
	Error        string
	Connectivity models.ConnectivityState
	Channel      models.ChannelStatus
}

// Observer receives every snapshot produced by a mutation.
type Observer func(Snapshot)

// Store is safe for concurrent use.
type Store struct {
	mu           sync.Mutex
	version      uint64
	patients     []models.QueueItem
	deleting     map[string]struct{}
	err          string
	connectivity models.ConnectivityState
	channel      models.ChannelStatus

	// outbox, delivering and delivered are guarded by mu
	outbox     []Snapshot
	delivering bool
	delivered  uint64
	deliveredC *sync.Cond

	observers  map[int]Observer
	nextObsID  int
	observerMu sync.Mutex

	clock  clock.Clock
	logger *logger.Logger
}

// New returns an empty store in the unknown connectivity state.
func New(clk clock.Clock, log *logger.Logger) *Store {
	s := &Store{
		deleting:     make(map[string]struct{}),
		connectivity: models.ConnectivityUnknown,
		channel:      models.ChannelStatus{State: models.ChannelDisconnected},
		observers:    make(map[int]Observer),
		clock:        clk,
		logger:       log,
	}
	s.deliveredC = sync.NewCond(&s.mu)
	return s
}

// SetPatients replaces the list wholesale and clears the error.
//
// Deletion markers are left untouched. An in-flight id that reappears in an
// authoritative snapshot stays guarded until its removal is confirmed or
// rolled back.
func (s *Store) SetPatients(items []models.QueueItem) {
	s.mutate(func() bool {
		s.patients = slices.Clone(items)
		s.err = ""
		return true
	})
}

// AddPatient prepends item. An existing entry with the same id is dropped so
// that ids stay unique.
func (s *Store) AddPatient(item models.QueueItem) {
	s.mutate(func() bool {
		s.patients = slices.DeleteFunc(s.patients, func(p models.QueueItem) bool { return p.ID == item.ID })
		s.patients = slices.Insert(s.patients, 0, item)
		return true
	})
}

// RemovePatient optimistically removes id and marks it as being deleted. It
// reports false, changing nothing, if id is absent or already being deleted.
func (s *Store) RemovePatient(id string) bool {
	removed := false
	s.mutate(func() bool {
		if _, busy := s.deleting[id]; busy {
			s.logger.Debug().Str("patient_id", id).Msg("delete already in flight, ignoring")
			return false
		}
		idx := slices.IndexFunc(s.patients, func(p models.QueueItem) bool { return p.ID == id })
		if idx < 0 {
			s.logger.Debug().Str("patient_id", id).Msg("patient not in queue, ignoring delete")
			return false
		}
		s.patients = slices.Delete(s.patients, idx, idx+1)
		s.deleting[id] = struct{}{}
		removed = true
		return true
	})
	return removed
}

// RollbackRemove re-inserts item after a rejected removal and clears the
// marker. The item is appended and only when its id is absent; a sibling
// may have re-added it in the meantime.
func (s *Store) RollbackRemove(item models.QueueItem) {
	s.mutate(func() bool {
		delete(s.deleting, item.ID)
		if !slices.ContainsFunc(s.patients, func(p models.QueueItem) bool { return p.ID == item.ID }) {
			s.patients = append(s.patients, item)
		}
		return true
	})
}

// ConfirmRemove clears the marker of a removal the server (or the ledger)
// accepted.
func (s *Store) ConfirmRemove(id string) {
	s.mutate(func() bool {
		if _, ok := s.deleting[id]; !ok {
			return false
		}
		delete(s.deleting, id)
		return true
	})
}

// UpdatePatient merges patch into the entry with id. Unknown ids are ignored.
func (s *Store) UpdatePatient(id string, patch models.QueueItemPatch) (models.QueueItem, bool) {
	var updated models.QueueItem
	found := false
	now := s.clock.Now()
	s.mutate(func() bool {
		idx := slices.IndexFunc(s.patients, func(p models.QueueItem) bool { return p.ID == id })
		if idx < 0 {
			return false
		}
		s.patients[idx] = patch.Apply(s.patients[idx], now)
		updated, found = s.patients[idx], true
		return true
	})
	return updated, found
}

// IsPatientDeleting reports whether a removal of id is in flight.
func (s *Store) IsPatientDeleting(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.deleting[id]
	return ok
}

// Patient returns the entry with id.
func (s *Store) Patient(id string) (models.QueueItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := slices.IndexFunc(s.patients, func(p models.QueueItem) bool { return p.ID == id })
	if idx < 0 {
		return models.QueueItem{}, false
	}
	return s.patients[idx], true
}

// Patients returns a copy of the current list in store order.
func (s *Store) Patients() []models.QueueItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.patients)
}

func (s *Store) SetError(msg string) {
	s.mutate(func() bool {
		if s.err == msg {
			return false
		}
		s.err = msg
		return true
	})
}

func (s *Store) ClearError() { s.SetError("") }

func (s *Store) SetConnectivity(state models.ConnectivityState) {
	s.mutate(func() bool {
		if s.connectivity == state {
			return false
		}
		s.connectivity = state
		return true
	})
}

func (s *Store) SetChannelStatus(status models.ChannelStatus) {
	s.mutate(func() bool {
		if s.channel == status {
			return false
		}
		s.channel = status
		return true
	})
}

// Snapshot returns the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Subscribe registers obs. The returned func detaches it.
func (s *Store) Subscribe(obs Observer) (unsubscribe func()) {
	s.observerMu.Lock()
	id := s.nextObsID
	s.nextObsID++
	s.observers[id] = obs
	s.observerMu.Unlock()

	return func() {
		s.observerMu.Lock()
		delete(s.observers, id)
		s.observerMu.Unlock()
	}
}

// mutate runs fn under the lock and, if it reports a change, queues the new
// snapshot for the observers.
func (s *Store) mutate(fn func() bool) {
	s.mu.Lock()
	if !fn() {
		s.mu.Unlock()
		return
	}
	s.version++
	version := s.version
	s.outbox = append(s.outbox, s.snapshotLocked())
	if s.delivering {
		for s.delivered < version {
			s.deliveredC.Wait()
		}
		s.mu.Unlock()
		return
	}
	s.delivering = true
	s.mu.Unlock()

	s.deliver()
}

// deliver drains the outbox until it stays empty. Only one goroutine runs it
// at a time.
func (s *Store) deliver() {
	for {
		s.mu.Lock()
		batch := s.outbox
		s.outbox = nil
		if len(batch) == 0 {
			s.delivering = false
			s.mu.Unlock()
			return
		}
		s.mu.Unlock()

		for _, snap := range batch {
			s.notify(snap)

			s.mu.Lock()
			s.delivered = snap.Version
			s.mu.Unlock()
			s.deliveredC.Broadcast()
		}
	}
}

func (s *Store) snapshotLocked() Snapshot {
	deleting := make([]string, 0, len(s.deleting))
	for id := range s.deleting {
		deleting = append(deleting, id)
	}
	slices.Sort(deleting)

	return Snapshot{
		Version:      s.version,
		Patients:     slices.Clone(s.patients),
		Deleting:     deleting,
		Error:        s.err,
		Connectivity: s.connectivity,
		Channel:      s.channel,
	}
}

func (s *Store) notify(snap Snapshot) {
	s.observerMu.Lock()
	observers := make([]Observer, 0, len(s.observers))
	for _, obs := range s.observers {
		observers = append(observers, obs)
	}
	s.observerMu.Unlock()

	for _, obs := range observers {
		func() {
			defer func() {
				if r := recover(); r != nil {
					s.logger.Error().Interface("panic", r).Uint64("version", snap.Version).Msg("queue observer panicked")
				}
			}()
			obs(snap)
		}()
	}
}
