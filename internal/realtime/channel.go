// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package realtime keeps the reactive queue store fed with authoritative
// snapshots pushed by the server over Server-Sent Events.
//
// A [Channel] lives only while the queue view is shown: Activate opens it
// cold and Deactivate tears down the connection, the reconnect timer and the
// polling timer. Connection loss is retried with capped exponential backoff;
// once the attempts are used up the channel degrades to polling the full
// queue until Reconnect is called.
package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/MKhiriev/triage-queue-sync/internal/backoff"
	"github.com/MKhiriev/triage-queue-sync/internal/clock"
	"github.com/MKhiriev/triage-queue-sync/internal/config"
	"github.com/MKhiriev/triage-queue-sync/internal/logger"
	"github.com/MKhiriev/triage-queue-sync/models"
)

// EventQueueUpdate is the only event the channel consumes. Its data is a JSON
// array of queue items.
const EventQueueUpdate = "queue_update"

// ErrStreamClosed is reported when the server ends the stream.
var ErrStreamClosed = errors.New("event stream closed by server")

// Source is the server side of the channel.
type Source interface {
	// OpenEventStream opens the event stream. The body is closed by the
	// channel.
	OpenEventStream(ctx context.Context) (io.ReadCloser, error)
	// FetchQueue returns the full queue. An empty status means every status.
	FetchQueue(ctx context.Context, status models.QueueStatus) ([]models.QueueItem, error)
}

// Sink receives snapshots and status updates.
type Sink interface {
	SetPatients(items []models.QueueItem)
	SetChannelStatus(status models.ChannelStatus)
}

// Config is the channel schedule.
type Config struct {
	Reconnect    backoff.Policy
	PollInterval time.Duration
}

// NewConfig maps the client configuration onto the channel schedule.
func NewConfig(c config.ClientRealtime) Config {
	return Config{
		Reconnect: backoff.Policy{
			Base:        c.ReconnectBase,
			Cap:         c.ReconnectCap,
			MaxAttempts: c.ReconnectMaxAttempts,
		},
		PollInterval: c.PollInterval,
	}
}

// Channel is the real-time update channel.
type Channel struct {
	cfg    Config
	clock  clock.Clock
	source Source
	sink   Sink
	logger *logger.Logger

	mu      sync.Mutex
	status  models.ChannelStatus
	events  chan event
	cancel  context.CancelFunc
	runCtx  context.Context
	wg      sync.WaitGroup
	machine *machine

	// loop-owned
	streamCancel context.CancelFunc
	retryTimer   clock.Timer
	pollTimer    clock.Timer
}

// NewChannel returns an inactive channel.
func NewChannel(cfg Config, clk clock.Clock, source Source, sink Sink, log *logger.Logger) *Channel {
	return &Channel{
		cfg:    cfg,
		clock:  clk,
		source: source,
		sink:   sink,
		logger: log,
		status: models.ChannelStatus{State: models.ChannelDisconnected},
	}
}

// Activate opens the channel from a cold state. Activating an active channel
// does nothing.
func (c *Channel) Activate(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cancel != nil {
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	c.runCtx = runCtx
	c.cancel = cancel
	c.events = make(chan event, 64)
	c.machine = newMachine(c.cfg)
	c.events <- event{kind: evStart}

	c.wg.Add(1)
	go c.loop(runCtx, c.events, c.machine)

	c.logger.Info().Msg("real-time channel activated")
}

// Deactivate closes the connection, cancels pending timers and waits for
// background work to finish. It is safe to call on an inactive channel.
func (c *Channel) Deactivate() {
	c.mu.Lock()
	cancel := c.cancel
	c.cancel = nil
	c.runCtx = nil
	c.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	c.wg.Wait()

	c.publish(models.ChannelStatus{State: models.ChannelDisconnected})
	c.logger.Info().Msg("real-time channel deactivated")
}

// Reconnect drops any pending retry or polling and connects immediately with
// a fresh attempt counter. It is ignored while inactive.
func (c *Channel) Reconnect() {
	c.send(event{kind: evReconnect})
}

// Active reports whether the channel is activated.
func (c *Channel) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cancel != nil
}

// Status returns the last published status.
func (c *Channel) Status() models.ChannelStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

func (c *Channel) send(ev event) {
	c.mu.Lock()
	ctx, events := c.runCtx, c.events
	c.mu.Unlock()
	if ctx == nil {
		return
	}
	post(ctx, events, ev)
}

func post(ctx context.Context, events chan<- event, ev event) bool {
	select {
	case events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

func (c *Channel) loop(ctx context.Context, events chan event, m *machine) {
	defer c.wg.Done()
	defer c.halt()

	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-events:
			for _, eff := range m.apply(ev) {
				c.execute(ctx, events, eff)
			}
		}
	}
}

func (c *Channel) execute(ctx context.Context, events chan event, eff effect) {
	switch eff.kind {
	case effOpen:
		c.closeStream()
		streamCtx, cancel := context.WithCancel(ctx)
		c.streamCancel = cancel
		c.wg.Add(1)
		go c.stream(streamCtx, events, eff.gen)

	case effClose:
		c.closeStream()

	case effArmRetry:
		stopTimer(&c.retryTimer)
		gen := eff.gen
		c.retryTimer = c.clock.AfterFunc(eff.delay, func() { post(ctx, events, event{kind: evRetryTimer, gen: gen}) })

	case effStopRetry:
		stopTimer(&c.retryTimer)

	case effArmPoll:
		stopTimer(&c.pollTimer)
		gen := eff.gen
		c.pollTimer = c.clock.AfterFunc(eff.delay, func() { post(ctx, events, event{kind: evPollTimer, gen: gen}) })

	case effStopPoll:
		stopTimer(&c.pollTimer)

	case effFetch:
		gen := eff.gen
		c.wg.Add(1)
		go func() {
			defer c.wg.Done()
			items, err := c.source.FetchQueue(ctx, "")
			if ctx.Err() != nil {
				return
			}
			if err != nil {
				c.logger.Warn().Err(err).Msg("polling fetch failed")
			}
			post(ctx, events, event{kind: evFetchDone, gen: gen, items: items, err: err})
		}()

	case effApply:
		c.sink.SetPatients(eff.items)

	case effStatus:
		c.publish(eff.status)
		switch eff.status.State {
		case models.ChannelReconnecting:
			c.logger.Warn().Int("attempt", eff.status.Attempt).Str("error", eff.status.Error).Msg(eff.status.Message)
		case models.ChannelExhausted:
			c.logger.Warn().Int("attempt", eff.status.Attempt).Msg("reconnect attempts exhausted, falling back to polling")
		case models.ChannelConnected:
			c.logger.Info().Msg("real-time channel connected")
		}
	}
}

// stream owns one connection. Everything it learns is posted back to the
// loop tagged with gen, so results of a replaced connection are ignored.
func (c *Channel) stream(ctx context.Context, events chan<- event, gen uint64) {
	defer c.wg.Done()

	body, err := c.source.OpenEventStream(ctx)
	if err != nil {
		if ctx.Err() == nil {
			post(ctx, events, event{kind: evStreamError, gen: gen, err: err})
		}
		return
	}
	defer body.Close()

	// closing the body unblocks a pending read on cancellation
	stop := context.AfterFunc(ctx, func() { _ = body.Close() })
	defer stop()

	if !post(ctx, events, event{kind: evOpened, gen: gen}) {
		return
	}

	reader := newSSEReader(body)
	for reader.Next() {
		ev := reader.Event()
		if ev.Name != EventQueueUpdate {
			continue
		}
		var items []models.QueueItem
		if err := json.Unmarshal([]byte(ev.Data), &items); err != nil {
			c.logger.Warn().Err(err).Int("bytes", len(ev.Data)).Msg("discarding malformed queue_update event")
			continue
		}
		if !post(ctx, events, event{kind: evUpdate, gen: gen, items: items}) {
			return
		}
	}

	if ctx.Err() != nil {
		return
	}
	err = reader.Err()
	if err == nil {
		err = ErrStreamClosed
	}
	post(ctx, events, event{kind: evStreamError, gen: gen, err: err})
}

func (c *Channel) publish(st models.ChannelStatus) {
	c.mu.Lock()
	c.status = st
	c.mu.Unlock()
	c.sink.SetChannelStatus(st)
}

func (c *Channel) closeStream() {
	if c.streamCancel != nil {
		c.streamCancel()
		c.streamCancel = nil
	}
}

func (c *Channel) halt() {
	c.closeStream()
	stopTimer(&c.retryTimer)
	stopTimer(&c.pollTimer)
}

func stopTimer(t *clock.Timer) {
	if *t != nil {
		(*t).Stop()
		*t = nil
	}
}
