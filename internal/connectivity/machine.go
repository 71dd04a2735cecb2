package connectivity

import (
	"time"

	"github.com/MKhiriev/triage-queue-sync/internal/platform"
	"github.com/MKhiriev/triage-queue-sync/models"
	"github.com/sethvargo/go-retry"
)

type eventKind int

const (
	evSignal eventKind = iota
	evCheck
	evProbeDone
	evScheduleSync
	evSyncTimer
	evSyncDone
	evCheckTick
)

// event is everything the loop reacts to. Timer and goroutine results carry
// the generation they were armed under so that stale ones are dropped.
type event struct {
	kind         eventKind
	signal       platform.Signal
	online       bool
	err          error
	skipAutoSync bool
	delay        time.Duration
	gen          uint64
	reply        chan models.ConnectivityState
}

type effectKind int

const (
	effProbe effectKind = iota
	effArmSync
	effStopSync
	effRunSync
	effArmCheck
	effStopCheck
	effNotify
	effReply
	effRetry
	effRetryExhausted
)

type effect struct {
	kind         effectKind
	delay        time.Duration
	gen          uint64
	attempt      int
	skipAutoSync bool
	reply        chan models.ConnectivityState
	change       models.ConnectivityEvent
	state        models.ConnectivityState
}

// machine is the monitor state. It is only touched by the event loop and
// never performs I/O itself: apply returns the effects the loop executes.
type machine struct {
	cfg Config

	state     models.ConnectivityState
	startedAt time.Time

	retry      retry.Backoff
	attempts   int
	syncArmed  bool
	syncGen    uint64
	syncActive bool
	resync     bool

	checkArmed bool
	checkGen   uint64
}

func newMachine(cfg Config) *machine {
	return &machine{cfg: cfg, state: models.ConnectivityUnknown}
}

func (m *machine) apply(now time.Time, ev event) []effect {
	switch ev.kind {
	case evSignal:
		return m.onSignal(now, ev.signal)
	case evCheck:
		return []effect{{kind: effProbe, skipAutoSync: ev.skipAutoSync, reply: ev.reply}}
	case evProbeDone:
		var effs []effect
		if ev.err == nil {
			next := models.ConnectivityOffline
			if ev.online {
				next = models.ConnectivityOnline
			}
			effs = m.setState(now, next, ev.skipAutoSync)
		}
		if ev.reply != nil {
			effs = append(effs, effect{kind: effReply, reply: ev.reply, state: m.state})
		}
		return effs
	case evScheduleSync:
		return m.scheduleSync(now, ev.delay)
	case evSyncTimer:
		return m.onSyncTimer(ev.gen)
	case evSyncDone:
		return m.onSyncDone(now, ev.err)
	case evCheckTick:
		if ev.gen != m.checkGen || !m.checkArmed {
			return nil
		}
		m.checkArmed = false
		if m.state != models.ConnectivityOnline {
			return nil
		}
		return append([]effect{{kind: effProbe}}, m.armCheck()...)
	}
	return nil
}

func (m *machine) onSignal(now time.Time, sig platform.Signal) []effect {
	switch sig {
	case platform.SignalOnline:
		m.resetRetry()
		effs := m.setState(now, models.ConnectivityOnline, true)
		return append(effs, m.scheduleSync(now, m.cfg.OnlineSyncDelay)...)
	case platform.SignalOffline:
		return m.setState(now, models.ConnectivityOffline, true)
	case platform.SignalVisible:
		return []effect{{kind: effProbe}}
	case platform.SignalSyncRequested:
		return m.scheduleSync(now, 0)
	}
	return nil
}

// setState moves to next. A transition out of unknown never schedules a
// sync: the first verdict only establishes the baseline.
func (m *machine) setState(now time.Time, next models.ConnectivityState, skipAutoSync bool) []effect {
	if next == m.state {
		if next == models.ConnectivityOnline && !m.checkArmed {
			return m.armCheck()
		}
		return nil
	}

	prev := m.state
	m.state = next
	effs := []effect{{
		kind:   effNotify,
		change: models.ConnectivityEvent{Previous: prev, Current: next, At: now},
	}}

	switch next {
	case models.ConnectivityOnline:
		m.resetRetry()
		if !m.checkArmed {
			effs = append(effs, m.armCheck()...)
		}
		if !skipAutoSync && prev != models.ConnectivityUnknown {
			effs = append(effs, m.scheduleSync(now, 0)...)
		}
	case models.ConnectivityOffline:
		m.resync = false
		effs = append(effs, m.cancelSync()...)
		effs = append(effs, m.cancelCheck()...)
	}
	return effs
}

func (m *machine) scheduleSync(now time.Time, delay time.Duration) []effect {
	if m.state != models.ConnectivityOnline {
		return nil
	}
	if now.Before(m.startedAt.Add(m.cfg.StartupGrace)) {
		return nil
	}
	return m.armSync(delay)
}

func (m *machine) onSyncTimer(gen uint64) []effect {
	if gen != m.syncGen || !m.syncArmed {
		return nil
	}
	m.syncArmed = false
	if m.state != models.ConnectivityOnline {
		return nil
	}
	if m.syncActive {
		m.resync = true
		return nil
	}
	m.syncActive = true
	return []effect{{kind: effRunSync}}
}

func (m *machine) onSyncDone(now time.Time, err error) []effect {
	m.syncActive = false

	if err == nil {
		m.resetRetry()
		if m.resync {
			m.resync = false
			return m.scheduleSync(now, 0)
		}
		return nil
	}

	m.resync = false
	if m.state != models.ConnectivityOnline {
		return nil
	}
	if m.retry == nil {
		m.retry = m.cfg.Retry.Sequence(0)
	}
	delay, stop := m.retry.Next()
	if stop {
		return []effect{{kind: effRetryExhausted, attempt: m.attempts}}
	}
	m.attempts++
	effs := []effect{{kind: effRetry, delay: delay, attempt: m.attempts}}
	return append(effs, m.armSync(delay)...)
}

func (m *machine) resetRetry() {
	m.retry = nil
	m.attempts = 0
}

// armSync replaces any pending sync timer.
func (m *machine) armSync(delay time.Duration) []effect {
	effs := m.cancelSync()
	m.syncGen++
	m.syncArmed = true
	return append(effs, effect{kind: effArmSync, delay: delay, gen: m.syncGen})
}

func (m *machine) cancelSync() []effect {
	if !m.syncArmed {
		return nil
	}
	m.syncArmed = false
	m.syncGen++
	return []effect{{kind: effStopSync}}
}

func (m *machine) armCheck() []effect {
	m.checkGen++
	m.checkArmed = true
	return []effect{{kind: effArmCheck, delay: m.cfg.CheckInterval, gen: m.checkGen}}
}

func (m *machine) cancelCheck() []effect {
	if !m.checkArmed {
		return nil
	}
	m.checkArmed = false
	m.checkGen++
	return []effect{{kind: effStopCheck}}
}

// halt forgets armed timers when the loop exits so that a restart re-arms
// them from scratch.
func (m *machine) halt() {
	m.syncArmed = false
	m.checkArmed = false
	m.syncActive = false
	m.resync = false
	m.syncGen++
	m.checkGen++
}
