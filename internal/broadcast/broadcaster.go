// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package broadcast propagates local queue mutations to sibling instances of
// the client running on the same device.
//
// Received messages are applied straight to the local queue store through
// entry points that never publish, so a message cannot be relayed back and
// forth. Messages carry no ordering information: when two instances race,
// whichever message is applied last wins.
package broadcast

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/MKhiriev/triage-queue-sync/internal/clock"
	"github.com/MKhiriev/triage-queue-sync/internal/logger"
	"github.com/MKhiriev/triage-queue-sync/internal/utils"
	"github.com/MKhiriev/triage-queue-sync/models"
)

// seenLimit bounds the de-duplication memory.
const seenLimit = 512

// Sink is the part of the queue store the receive path writes to.
type Sink interface {
	AddPatient(item models.QueueItem)
	Patients() []models.QueueItem
	SetPatients(items []models.QueueItem)
}

// Broadcaster owns this instance's channel handle.
type Broadcaster struct {
	origin string
	open   Opener
	sink   Sink
	clock  clock.Clock
	logger *logger.Logger

	mu        sync.Mutex
	transport Transport
	started   bool
	seen      map[string]struct{}
	seenOrder []string
}

// New returns a stopped broadcaster. A nil open makes it a permanent no-op.
func New(origin string, open Opener, sink Sink, clk clock.Clock, log *logger.Logger) *Broadcaster {
	if origin == "" {
		origin = utils.ShortID()
	}
	return &Broadcaster{
		origin: origin,
		open:   open,
		sink:   sink,
		clock:  clk,
		logger: log,
		seen:   make(map[string]struct{}),
	}
}

// Origin is the id stamped on every message this instance sends.
func (b *Broadcaster) Origin() string { return b.origin }

// Start opens the channel. A transport that cannot be opened leaves the
// broadcaster in single-instance mode; Start itself never fails.
func (b *Broadcaster) Start(_ context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.started {
		return nil
	}
	b.started = true

	if b.open == nil {
		b.logger.Info().Msg("cross-instance broadcast disabled")
		return nil
	}

	t, err := b.open()
	if err != nil {
		b.logger.Warn().Err(err).Msg("cross-instance broadcast unavailable, running single-instance")
		return nil
	}
	t.Subscribe(b.receive)
	b.transport = t

	b.logger.Info().Str("origin", b.origin).Msg("cross-instance broadcast started")
	return nil
}

// Stop closes the channel. It is safe to call more than once.
func (b *Broadcaster) Stop() {
	b.mu.Lock()
	t := b.transport
	b.transport = nil
	b.mu.Unlock()

	if t == nil {
		return
	}
	if err := t.Close(); err != nil {
		b.logger.Warn().Err(err).Msg("failed to close broadcast transport")
	}
}

// Enabled reports whether messages are actually sent.
func (b *Broadcaster) Enabled() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.transport != nil
}

func (b *Broadcaster) PatientAdded(ctx context.Context, item models.QueueItem) error {
	return b.publish(ctx, models.NewPatientAdded(item))
}

func (b *Broadcaster) PatientRemoved(ctx context.Context, id string) error {
	return b.publish(ctx, models.NewPatientRemoved(id))
}

func (b *Broadcaster) QueueRefreshed(ctx context.Context, items []models.QueueItem) error {
	return b.publish(ctx, models.NewQueueRefreshed(items))
}

func (b *Broadcaster) publish(ctx context.Context, msg models.BroadcastMessage) error {
	if err := msg.Validate(); err != nil {
		return err
	}

	b.mu.Lock()
	t := b.transport
	b.mu.Unlock()
	if t == nil {
		return nil
	}

	frame, err := EncodeFrame(Envelope{
		ID:      utils.NewUUIDGenerator().Generate(),
		Origin:  b.origin,
		SentAt:  b.clock.Now(),
		Message: msg,
	})
	if err != nil {
		return err
	}

	if err = t.Publish(ctx, frame); err != nil {
		if errors.Is(err, ErrTransportClosed) {
			return nil
		}
		return err
	}

	b.logger.Debug().Str("type", string(msg.Type)).Int("bytes", len(frame)).Msg("broadcast sent")
	return nil
}

// receive applies a frame from a sibling. It must never publish.
func (b *Broadcaster) receive(frame []byte) {
	env, err := DecodeFrame(frame)
	if err != nil {
		b.logger.Warn().Err(err).Msg("discarding broadcast frame")
		return
	}
	if env.Origin == b.origin || !b.markSeen(env.ID) {
		return
	}
	if err = env.Message.Validate(); err != nil {
		b.logger.Warn().Err(err).Str("origin", env.Origin).Msg("discarding broadcast message")
		return
	}

	msg := env.Message
	switch msg.Type {
	case models.BroadcastPatientAdded:
		b.sink.AddPatient(*msg.Patient)
	case models.BroadcastPatientRemoved:
		b.sink.SetPatients(slices.DeleteFunc(b.sink.Patients(), func(p models.QueueItem) bool {
			return p.ID == msg.PatientID
		}))
	case models.BroadcastQueueRefreshed:
		b.sink.SetPatients(msg.Patients)
	}

	b.logger.Debug().Str("type", string(msg.Type)).Str("origin", env.Origin).Msg("broadcast applied")
}

// markSeen records id and reports whether it was new.
func (b *Broadcaster) markSeen(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.seen[id]; ok {
		return false
	}
	b.seen[id] = struct{}{}
	b.seenOrder = append(b.seenOrder, id)
	if len(b.seenOrder) > seenLimit {
		delete(b.seen, b.seenOrder[0])
		b.seenOrder = b.seenOrder[1:]
	}
	return true
}
