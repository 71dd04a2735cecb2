package connectivity

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/MKhiriev/triage-queue-sync/internal/clock"
	"github.com/MKhiriev/triage-queue-sync/internal/config"
	"github.com/MKhiriev/triage-queue-sync/internal/logger"
	"github.com/MKhiriev/triage-queue-sync/internal/platform"
	"github.com/MKhiriev/triage-queue-sync/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const waitFor = 2 * time.Second

// fakeCoordinator отвечает на пробы и считает синхронизации.
type fakeCoordinator struct {
	mu       sync.Mutex
	online   bool
	probeErr error
	syncErr  error
	probes   int
	block    chan struct{}
	syncs    chan struct{}
}

func newFakeCoordinator(online bool) *fakeCoordinator {
	return &fakeCoordinator{online: online, syncs: make(chan struct{}, 32)}
}

func (f *fakeCoordinator) IsOnline(context.Context) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.probes++
	return f.online, f.probeErr
}

func (f *fakeCoordinator) SyncAll(ctx context.Context) error {
	f.syncs <- struct{}{}
	f.mu.Lock()
	block := f.block
	f.mu.Unlock()
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.syncErr
}

func (f *fakeCoordinator) set(fn func(f *fakeCoordinator)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}

func (f *fakeCoordinator) probeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.probes
}

type harness struct {
	clk    *clock.FakeClock
	coord  *fakeCoordinator
	source *platform.Manual
	mon    *Monitor
}

// startHarness запускает монитор и ждёт первого вердикта.
func startHarness(t *testing.T, cfg Config, online bool) *harness {
	t.Helper()
	h := &harness{
		clk:    clock.NewFake(t0),
		coord:  newFakeCoordinator(online),
		source: platform.NewManual(logger.Nop()),
	}
	h.mon = NewMonitor(cfg, h.clk, h.coord, h.source, logger.Nop())
	h.mon.Start(context.Background())
	t.Cleanup(h.mon.Destroy)

	require.Eventually(t, func() bool {
		return h.mon.Status() != models.ConnectivityUnknown
	}, waitFor, time.Millisecond)
	return h
}

func (h *harness) expectSync(t *testing.T) {
	t.Helper()
	select {
	case <-h.coord.syncs:
	case <-time.After(waitFor):
		t.Fatal("sync was not triggered")
	}
}

func (h *harness) syncCount() int {
	return len(h.coord.syncs)
}

// ── CheckStatus ─────────────────────────────────────────────────────────────

func TestMonitor_FirstProbeOnlineDoesNotSync(t *testing.T) {
	h := startHarness(t, testConfig(), true)

	assert.True(t, h.mon.IsOnline())
	// only the periodic re-check is armed
	h.clk.WaitForTimers(1)
	assert.Equal(t, 1, h.clk.PendingCount())
	assert.Zero(t, h.syncCount())
}

func TestMonitor_CheckStatusRecoverySchedulesSync(t *testing.T) {
	h := startHarness(t, testConfig(), false)
	require.Equal(t, models.ConnectivityOffline, h.mon.Status())

	h.coord.set(func(f *fakeCoordinator) { f.online = true })
	state := h.mon.CheckStatus(context.Background(), false)
	require.Equal(t, models.ConnectivityOnline, state)

	h.clk.WaitForTimers(2)
	h.clk.Advance(0)
	h.expectSync(t)
}

func TestMonitor_CheckStatusSkipAutoSync(t *testing.T) {
	h := startHarness(t, testConfig(), false)

	h.coord.set(func(f *fakeCoordinator) { f.online = true })
	require.Equal(t, models.ConnectivityOnline, h.mon.CheckStatus(context.Background(), true))

	assert.Equal(t, 1, h.clk.PendingCount())
}

func TestMonitor_ProbeFailureKeepsState(t *testing.T) {
	h := startHarness(t, testConfig(), true)

	h.coord.set(func(f *fakeCoordinator) {
		f.online = false
		f.probeErr = errors.New("probe could not run")
	})
	assert.Equal(t, models.ConnectivityOnline, h.mon.CheckStatus(context.Background(), false))
	assert.True(t, h.mon.IsOnline())
}

func TestMonitor_CheckStatusWhenStopped(t *testing.T) {
	mon := NewMonitor(testConfig(), clock.NewFake(t0), newFakeCoordinator(true), nil, logger.Nop())
	assert.Equal(t, models.ConnectivityUnknown, mon.CheckStatus(context.Background(), false))
}

// ── platform signals ────────────────────────────────────────────────────────

func TestMonitor_OnlineSignalSyncsAfterDelay(t *testing.T) {
	h := startHarness(t, testConfig(), false)

	h.source.Notify(platform.SignalOnline)
	require.Eventually(t, h.mon.IsOnline, waitFor, time.Millisecond)
	h.clk.WaitForTimers(2)

	h.clk.Advance(999 * time.Millisecond)
	assert.Equal(t, 2, h.clk.PendingCount())
	assert.Zero(t, h.syncCount())

	h.clk.Advance(time.Millisecond)
	h.expectSync(t)
}

func TestMonitor_ConnectivityFlap(t *testing.T) {
	h := startHarness(t, testConfig(), false)

	h.source.Notify(platform.SignalOnline)
	h.clk.WaitForTimers(2)
	h.source.Notify(platform.SignalOffline)

	require.Eventually(t, func() bool { return h.clk.PendingCount() == 0 }, waitFor, time.Millisecond)
	assert.False(t, h.mon.IsOnline())

	h.clk.Advance(time.Minute)
	assert.Zero(t, h.syncCount())

	h.source.Notify(platform.SignalOnline)
	h.clk.WaitForTimers(2)
	h.clk.Advance(time.Second)
	h.expectSync(t)
	assert.Zero(t, h.syncCount())
}

func TestMonitor_VisibleSignalProbes(t *testing.T) {
	h := startHarness(t, testConfig(), false)
	before := h.coord.probeCount()

	h.coord.set(func(f *fakeCoordinator) { f.online = true })
	h.source.Notify(platform.SignalVisible)

	require.Eventually(t, h.mon.IsOnline, waitFor, time.Millisecond)
	assert.Greater(t, h.coord.probeCount(), before)
}

func TestMonitor_SyncRequestedSignal(t *testing.T) {
	h := startHarness(t, testConfig(), true)
	h.clk.WaitForTimers(1)

	h.source.Notify(platform.SignalSyncRequested)
	h.clk.WaitForTimers(2)
	h.clk.Advance(0)
	h.expectSync(t)
}

func TestMonitor_StartupGrace(t *testing.T) {
	cfg := testConfig()
	cfg.StartupGrace = 2 * time.Second
	h := startHarness(t, cfg, true)
	h.clk.WaitForTimers(1)

	h.mon.ScheduleSync(0)
	// ScheduleSync is asynchronous; a probe round trip drains the queue.
	h.mon.CheckStatus(context.Background(), true)
	assert.Equal(t, 1, h.clk.PendingCount())

	h.clk.Advance(2 * time.Second)
	h.mon.ScheduleSync(0)
	h.clk.WaitForTimers(2)
	h.clk.Advance(0)
	h.expectSync(t)
}

// ── retry backoff ───────────────────────────────────────────────────────────

func TestMonitor_SyncFailureBacksOff(t *testing.T) {
	cfg := testConfig()
	cfg.CheckInterval = time.Hour
	h := startHarness(t, cfg, false)
	h.coord.set(func(f *fakeCoordinator) { f.syncErr = errors.New("server unavailable") })

	h.source.Notify(platform.SignalOnline)
	h.clk.WaitForTimers(2)
	h.clk.Advance(time.Second)
	h.expectSync(t)

	for _, delay := range []time.Duration{time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second, 16 * time.Second} {
		h.clk.WaitForTimers(2)
		h.clk.Advance(delay - time.Nanosecond)
		require.Equal(t, 2, h.clk.PendingCount(), "retry fired before %s", delay)
		h.clk.Advance(time.Nanosecond)
		h.expectSync(t)
	}

	// the sixth failure gives up; only the periodic check remains
	assert.Never(t, func() bool { return h.clk.PendingCount() > 1 }, 100*time.Millisecond, 5*time.Millisecond)

	// a fresh online transition resets the counter
	h.coord.set(func(f *fakeCoordinator) { f.syncErr = nil })
	h.source.Notify(platform.SignalOffline)
	h.source.Notify(platform.SignalOnline)
	h.clk.WaitForTimers(2)
	h.clk.Advance(time.Second)
	h.expectSync(t)
}

func TestMonitor_SyncDueWhileRunningRunsAgain(t *testing.T) {
	h := startHarness(t, testConfig(), true)
	release := make(chan struct{})
	h.coord.set(func(f *fakeCoordinator) { f.block = release })
	h.clk.WaitForTimers(1)

	h.mon.ScheduleSync(0)
	h.clk.WaitForTimers(2)
	h.clk.Advance(0)
	h.expectSync(t)

	h.mon.ScheduleSync(0)
	h.clk.WaitForTimers(2)
	h.clk.Advance(0)
	assert.Zero(t, h.syncCount())

	h.coord.set(func(f *fakeCoordinator) { f.block = nil })
	close(release)

	h.clk.WaitForTimers(2)
	h.clk.Advance(0)
	h.expectSync(t)
}

// ── periodic check ──────────────────────────────────────────────────────────

func TestMonitor_PeriodicCheckDetectsSilentFailure(t *testing.T) {
	h := startHarness(t, testConfig(), true)
	h.clk.WaitForTimers(1)

	var offline sync.WaitGroup
	offline.Add(1)
	h.mon.OnOffline(offline.Done)

	h.coord.set(func(f *fakeCoordinator) { f.online = false })
	h.clk.Advance(30 * time.Second)

	offline.Wait()
	assert.False(t, h.mon.IsOnline())
	require.Eventually(t, func() bool { return h.clk.PendingCount() == 0 }, waitFor, time.Millisecond)
}

// ── listeners & lifecycle ───────────────────────────────────────────────────

func TestMonitor_Listeners(t *testing.T) {
	h := startHarness(t, testConfig(), false)

	var (
		mu      sync.Mutex
		changes []models.ConnectivityEvent
		onlines int
	)
	changeID := h.mon.OnChange(func(e models.ConnectivityEvent) {
		mu.Lock()
		changes = append(changes, e)
		mu.Unlock()
	})
	h.mon.OnOnline(func() {
		mu.Lock()
		onlines++
		mu.Unlock()
	})
	h.mon.OnChange(func(models.ConnectivityEvent) { panic("listener bug") })

	h.source.Notify(platform.SignalOnline)
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(changes) == 1 && onlines == 1
	}, waitFor, time.Millisecond)

	h.mon.RemoveListener(changeID)
	h.source.Notify(platform.SignalOffline)
	require.Eventually(t, func() bool { return !h.mon.IsOnline() }, waitFor, time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, changes, 1)
	assert.Equal(t, models.ConnectivityOffline, changes[0].Previous)
	assert.Equal(t, models.ConnectivityOnline, changes[0].Current)
	assert.Equal(t, t0, changes[0].At)
	assert.Equal(t, 1, onlines)
}

func TestMonitor_DestroyIsIdempotent(t *testing.T) {
	h := startHarness(t, testConfig(), true)

	called := false
	h.mon.OnChange(func(models.ConnectivityEvent) { called = true })

	h.mon.Destroy()
	h.mon.Destroy()

	// signals are detached and the monitor stays down
	h.source.Notify(platform.SignalOffline)
	h.mon.Start(context.Background())
	assert.Equal(t, models.ConnectivityOnline, h.mon.Status())
	assert.False(t, called)
}

func TestMonitor_StopAndRestart(t *testing.T) {
	h := startHarness(t, testConfig(), true)
	h.clk.WaitForTimers(1)

	h.mon.Stop()
	assert.Zero(t, h.clk.PendingCount())

	h.mon.Start(context.Background())
	h.clk.WaitForTimers(1)
	assert.True(t, h.mon.IsOnline())
}

func TestNewConfig(t *testing.T) {
	cfg := NewConfig(config.DefaultClientConfig().Connectivity)
	assert.Equal(t, 30*time.Second, cfg.CheckInterval)
	assert.Equal(t, 5, cfg.Retry.MaxAttempts)
	assert.Equal(t, time.Second, cfg.Retry.Base)
}
