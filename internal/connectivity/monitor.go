// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package connectivity tracks whether the queue server is reachable and
// schedules synchronisation when it becomes reachable again.
//
// A [Monitor] combines passive platform signals with active probes through
// the sync coordinator. All of its decisions are made by a transition
// function over an explicit state record, executed by a single event-loop
// goroutine. Probes and syncs run in their own goroutines and post their
// results back into the loop; timers do the same.
package connectivity

import (
	"context"
	"sync"
	"time"

	"github.com/MKhiriev/triage-queue-sync/internal/backoff"
	"github.com/MKhiriev/triage-queue-sync/internal/clock"
	"github.com/MKhiriev/triage-queue-sync/internal/config"
	"github.com/MKhiriev/triage-queue-sync/internal/logger"
	"github.com/MKhiriev/triage-queue-sync/internal/platform"
	"github.com/MKhiriev/triage-queue-sync/models"
)

// Coordinator is the part of the sync coordinator the monitor drives.
type Coordinator interface {
	// IsOnline actively probes the server. Unreachable is (false, nil).
	IsOnline(ctx context.Context) (bool, error)
	// SyncAll flushes pending mutations and pulls the authoritative queue.
	SyncAll(ctx context.Context) error
}

// Config is the monitor schedule.
type Config struct {
	CheckInterval   time.Duration
	OnlineSyncDelay time.Duration
	StartupGrace    time.Duration
	Retry           backoff.Policy
}

// NewConfig maps the client configuration onto the monitor schedule.
func NewConfig(c config.ClientConnectivity) Config {
	return Config{
		CheckInterval:   c.CheckInterval,
		OnlineSyncDelay: c.OnlineSyncDelay,
		StartupGrace:    c.StartupGrace,
		Retry: backoff.Policy{
			Base:        c.RetryBase,
			Cap:         c.RetryCap,
			MaxAttempts: c.RetryMaxAttempts,
		},
	}
}

// ListenerID identifies a registered listener.
type ListenerID uint64

type listener struct {
	onChange func(models.ConnectivityEvent)
	only     models.ConnectivityState
}

const eventQueueSize = 128

// Monitor is the connectivity monitor. Construct it with [NewMonitor], then
// Start it; Destroy releases it for good.
type Monitor struct {
	clock       clock.Clock
	coordinator Coordinator
	source      platform.Source
	logger      *logger.Logger

	events  chan event
	machine *machine

	// loop-owned timers
	syncTimer  clock.Timer
	checkTimer clock.Timer

	mu          sync.Mutex
	status      models.ConnectivityState
	runCtx      context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	unsubscribe func()
	destroyed   bool

	listenersMu sync.Mutex
	listeners   map[ListenerID]listener
	nextID      ListenerID
}

// NewMonitor builds a stopped monitor in the unknown state. source may be nil
// when the host has no platform signals.
func NewMonitor(cfg Config, clk clock.Clock, coordinator Coordinator, source platform.Source, log *logger.Logger) *Monitor {
	return &Monitor{
		clock:       clk,
		coordinator: coordinator,
		source:      source,
		logger:      log,
		events:      make(chan event, eventQueueSize),
		machine:     newMachine(cfg),
		status:      models.ConnectivityUnknown,
		listeners:   make(map[ListenerID]listener),
	}
}

// Start attaches platform signals, starts the event loop and issues the first
// probe. Starting a running or destroyed monitor does nothing.
func (m *Monitor) Start(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.destroyed || m.cancel != nil {
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	m.runCtx = runCtx
	m.cancel = cancel
	m.machine.startedAt = m.clock.Now()

	if m.source != nil && m.unsubscribe == nil {
		m.unsubscribe = m.source.Subscribe(m.onSignal)
	}

	m.events <- event{kind: evCheck}

	m.wg.Add(1)
	go m.loop(runCtx)

	m.logger.Info().
		Dur("check_interval", m.machine.cfg.CheckInterval).
		Dur("startup_grace", m.machine.cfg.StartupGrace).
		Msg("connectivity monitor started")
}

// Stop halts the loop and waits for in-flight probes and syncs to return.
// Listeners and platform subscriptions are kept, so the monitor can be
// started again.
func (m *Monitor) Stop() {
	m.mu.Lock()
	cancel := m.cancel
	m.cancel = nil
	m.runCtx = nil
	m.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	m.wg.Wait()
	m.logger.Info().Msg("connectivity monitor stopped")
}

// Destroy stops the monitor, detaches platform signals and drops every
// listener. It is safe to call more than once.
func (m *Monitor) Destroy() {
	m.Stop()

	m.mu.Lock()
	m.destroyed = true
	unsubscribe := m.unsubscribe
	m.unsubscribe = nil
	m.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}

	m.listenersMu.Lock()
	clear(m.listeners)
	m.listenersMu.Unlock()
}

// CheckStatus probes the server and returns the resulting state. A failed
// probe leaves the state unchanged. When skipAutoSync is set a transition to
// online does not schedule a sync.
func (m *Monitor) CheckStatus(ctx context.Context, skipAutoSync bool) models.ConnectivityState {
	reply := make(chan models.ConnectivityState, 1)
	runCtx, ok := m.send(event{kind: evCheck, skipAutoSync: skipAutoSync, reply: reply})
	if !ok {
		return m.Status()
	}

	select {
	case state := <-reply:
		return state
	case <-ctx.Done():
	case <-runCtx.Done():
	}
	return m.Status()
}

// ScheduleSync asks for a full sync after delay. It is ignored while not
// online or during the startup grace window, and replaces a pending one.
func (m *Monitor) ScheduleSync(delay time.Duration) {
	m.send(event{kind: evScheduleSync, delay: delay})
}

// IsOnline reports whether the cached state is online.
func (m *Monitor) IsOnline() bool {
	return m.Status() == models.ConnectivityOnline
}

// Status returns the cached state.
func (m *Monitor) Status() models.ConnectivityState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// OnOnline calls fn on every transition to online.
func (m *Monitor) OnOnline(fn func()) ListenerID {
	return m.addListener(listener{
		only:     models.ConnectivityOnline,
		onChange: func(models.ConnectivityEvent) { fn() },
	})
}

// OnOffline calls fn on every transition to offline.
func (m *Monitor) OnOffline(fn func()) ListenerID {
	return m.addListener(listener{
		only:     models.ConnectivityOffline,
		onChange: func(models.ConnectivityEvent) { fn() },
	})
}

// OnChange calls fn on every transition.
func (m *Monitor) OnChange(fn func(models.ConnectivityEvent)) ListenerID {
	return m.addListener(listener{onChange: fn})
}

// RemoveListener detaches a listener. Unknown ids are ignored.
func (m *Monitor) RemoveListener(id ListenerID) {
	m.listenersMu.Lock()
	defer m.listenersMu.Unlock()
	delete(m.listeners, id)
}

func (m *Monitor) addListener(l listener) ListenerID {
	m.listenersMu.Lock()
	defer m.listenersMu.Unlock()
	m.nextID++
	m.listeners[m.nextID] = l
	return m.nextID
}

func (m *Monitor) onSignal(sig platform.Signal) {
	m.logger.Debug().Str("signal", string(sig)).Msg("platform signal")
	m.send(event{kind: evSignal, signal: sig})
}

// send queues ev for the running loop. It reports false if the monitor is
// not running.
func (m *Monitor) send(ev event) (context.Context, bool) {
	m.mu.Lock()
	ctx := m.runCtx
	m.mu.Unlock()
	if ctx == nil {
		return nil, false
	}
	return ctx, m.post(ctx, ev)
}

func (m *Monitor) post(ctx context.Context, ev event) bool {
	select {
	case m.events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

func (m *Monitor) loop(ctx context.Context) {
	defer m.wg.Done()
	defer m.halt()

	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-m.events:
			if ev.kind == evProbeDone && ev.err != nil {
				m.logger.Warn().Err(ev.err).Msg("connectivity probe failed, keeping state")
			}
			for _, eff := range m.machine.apply(m.clock.Now(), ev) {
				m.execute(ctx, eff)
			}
		}
	}
}

func (m *Monitor) execute(ctx context.Context, eff effect) {
	switch eff.kind {
	case effProbe:
		m.wg.Add(1)
		go func() {
			defer m.wg.Done()
			online, err := m.coordinator.IsOnline(ctx)
			if err != nil && ctx.Err() != nil {
				return
			}
			m.post(ctx, event{kind: evProbeDone, online: online, err: err, skipAutoSync: eff.skipAutoSync, reply: eff.reply})
		}()

	case effArmSync:
		m.stopTimer(&m.syncTimer)
		gen := eff.gen
		m.syncTimer = m.clock.AfterFunc(eff.delay, func() {
			m.post(ctx, event{kind: evSyncTimer, gen: gen})
		})
		m.logger.Debug().Dur("delay", eff.delay).Msg("sync scheduled")

	case effStopSync:
		m.stopTimer(&m.syncTimer)

	case effRunSync:
		m.wg.Add(1)
		go func() {
			defer m.wg.Done()
			m.logger.Info().Msg("running full sync")
			err := m.coordinator.SyncAll(ctx)
			if ctx.Err() != nil {
				return
			}
			if err != nil {
				m.logger.Warn().Err(err).Msg("full sync failed")
			}
			m.post(ctx, event{kind: evSyncDone, err: err})
		}()

	case effArmCheck:
		m.stopTimer(&m.checkTimer)
		gen := eff.gen
		m.checkTimer = m.clock.AfterFunc(eff.delay, func() {
			m.post(ctx, event{kind: evCheckTick, gen: gen})
		})

	case effStopCheck:
		m.stopTimer(&m.checkTimer)

	case effNotify:
		m.mu.Lock()
		m.status = eff.change.Current
		m.mu.Unlock()
		m.logger.Info().
			Str("previous", string(eff.change.Previous)).
			Str("current", string(eff.change.Current)).
			Msg("connectivity changed")
		m.notify(eff.change)

	case effReply:
		eff.reply <- eff.state

	case effRetry:
		m.logger.Info().Int("attempt", eff.attempt).Dur("delay", eff.delay).Msg("sync retry scheduled")

	case effRetryExhausted:
		m.logger.Warn().Int("attempts", eff.attempt).Msg("sync retries exhausted, waiting for the next online transition")
	}
}

func (m *Monitor) notify(change models.ConnectivityEvent) {
	m.listenersMu.Lock()
	ls := make([]listener, 0, len(m.listeners))
	for _, l := range m.listeners {
		if l.only == "" || l.only == change.Current {
			ls = append(ls, l)
		}
	}
	m.listenersMu.Unlock()

	for _, l := range ls {
		func() {
			defer func() {
				if r := recover(); r != nil {
					m.logger.Error().Interface("panic", r).Msg("connectivity listener panicked")
				}
			}()
			l.onChange(change)
		}()
	}
}

func (m *Monitor) stopTimer(t *clock.Timer) {
	if *t != nil {
		(*t).Stop()
		*t = nil
	}
}

// halt runs when the loop exits.
func (m *Monitor) halt() {
	m.stopTimer(&m.syncTimer)
	m.stopTimer(&m.checkTimer)
	m.machine.halt()
	for {
		select {
		case <-m.events:
		default:
			return
		}
	}
}
