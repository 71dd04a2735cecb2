package realtime

import (
	"fmt"
	"math"
	"time"

	"github.com/MKhiriev/triage-queue-sync/models"
	"github.com/sethvargo/go-retry"
)

type eventKind int

const (
	evStart eventKind = iota
	evReconnect
	evOpened
	evUpdate
	evStreamError
	evRetryTimer
	evPollTimer
	evFetchDone
)

type event struct {
	kind  eventKind
	gen   uint64
	items []models.QueueItem
	err   error
}

type effectKind int

const (
	effOpen effectKind = iota
	effClose
	effArmRetry
	effStopRetry
	effArmPoll
	effStopPoll
	effFetch
	effApply
	effStatus
)

type effect struct {
	kind   effectKind
	gen    uint64
	delay  time.Duration
	items  []models.QueueItem
	status models.ChannelStatus
}

// machine is the channel state for one activation. Generations tag every
// asynchronous result: conn for the stream, retry and poll for timers.
type machine struct {
	cfg Config

	status models.ChannelStatus
	seq    retry.Backoff

	conn       uint64
	retryGen   uint64
	retryArmed bool
	pollGen    uint64
	pollArmed  bool
	fetching   bool
}

func newMachine(cfg Config) *machine {
	return &machine{cfg: cfg, status: models.ChannelStatus{State: models.ChannelDisconnected}}
}

func (m *machine) apply(ev event) []effect {
	switch ev.kind {
	case evStart:
		return m.connect()

	case evReconnect:
		effs := m.stopTimers()
		effs = append(effs, effect{kind: effClose})
		m.status.Attempt = 0
		m.seq = nil
		return append(effs, m.connect()...)

	case evOpened:
		if ev.gen != m.conn {
			return nil
		}
		m.seq = nil
		return m.setStatus(models.ChannelStatus{State: models.ChannelConnected})

	case evUpdate:
		if ev.gen != m.conn {
			return nil
		}
		return []effect{{kind: effApply, items: ev.items}}

	case evStreamError:
		if ev.gen != m.conn {
			return nil
		}
		return m.onStreamError(ev.err)

	case evRetryTimer:
		if ev.gen != m.retryGen || !m.retryArmed {
			return nil
		}
		m.retryArmed = false
		return m.connect()

	case evPollTimer:
		if ev.gen != m.pollGen || !m.pollArmed {
			return nil
		}
		m.pollArmed = false
		m.fetching = true
		return []effect{{kind: effFetch, gen: m.pollGen}}

	case evFetchDone:
		if ev.gen != m.pollGen || !m.fetching || m.status.State != models.ChannelPolling {
			return nil
		}
		m.fetching = false
		var effs []effect
		if ev.err != nil {
			st := m.status
			st.Error = ev.err.Error()
			effs = m.setStatus(st)
		} else {
			effs = []effect{{kind: effApply, items: ev.items}}
			if m.status.Error != "" {
				st := m.status
				st.Error = ""
				effs = append(effs, m.setStatus(st)...)
			}
		}
		return append(effs, m.armPoll(m.cfg.PollInterval)...)
	}
	return nil
}

func (m *machine) connect() []effect {
	m.conn++
	effs := m.setStatus(models.ChannelStatus{
		State:   models.ChannelConnecting,
		Attempt: m.status.Attempt,
		Error:   m.status.Error,
	})
	return append(effs, effect{kind: effOpen, gen: m.conn})
}

// onStreamError tears the connection down and either schedules a reconnect
// or, once the attempts are used up, falls back to polling.
func (m *machine) onStreamError(err error) []effect {
	m.conn++
	effs := []effect{{kind: effClose}}

	attempt := m.status.Attempt + 1
	msg := ""
	if err != nil {
		msg = err.Error()
	}

	if m.seq == nil {
		m.seq = m.cfg.Reconnect.Sequence(1)
	}
	delay, stop := m.seq.Next()
	if !stop {
		effs = append(effs, m.setStatus(models.ChannelStatus{
			State:   models.ChannelReconnecting,
			Attempt: attempt,
			Message: fmt.Sprintf("Reconnecting in %ds", int(math.Ceil(delay.Seconds()))),
			Error:   msg,
		})...)
		return append(effs, m.armRetry(delay)...)
	}

	effs = append(effs, m.setStatus(models.ChannelStatus{
		State:   models.ChannelExhausted,
		Attempt: attempt,
		Message: "Live updates unavailable",
		Error:   msg,
	})...)
	effs = append(effs, m.setStatus(models.ChannelStatus{
		State:   models.ChannelPolling,
		Attempt: attempt,
		Message: fmt.Sprintf("Live updates unavailable, refreshing every %ds", int(m.cfg.PollInterval.Seconds())),
		Error:   msg,
	})...)
	// the first poll runs right away
	return append(effs, m.armPoll(0)...)
}

func (m *machine) setStatus(st models.ChannelStatus) []effect {
	m.status = st
	return []effect{{kind: effStatus, status: st}}
}

func (m *machine) armRetry(delay time.Duration) []effect {
	m.retryGen++
	m.retryArmed = true
	return []effect{{kind: effArmRetry, gen: m.retryGen, delay: delay}}
}

func (m *machine) armPoll(delay time.Duration) []effect {
	m.pollGen++
	m.pollArmed = true
	return []effect{{kind: effArmPoll, gen: m.pollGen, delay: delay}}
}

func (m *machine) stopTimers() []effect {
	var effs []effect
	if m.retryArmed {
		m.retryArmed = false
		m.retryGen++
		effs = append(effs, effect{kind: effStopRetry})
	}
	if m.pollArmed || m.fetching {
		m.pollArmed = false
		m.fetching = false
		m.pollGen++
		effs = append(effs, effect{kind: effStopPoll})
	}
	return effs
}
