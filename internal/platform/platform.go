// Package platform delivers host-level hints to the connectivity monitor:
// the network came up or went down, the application became visible again,
// or a background sync was requested.
//
// Signals are hints only. The monitor still confirms reachability with an
// active probe where it matters.
package platform

import (
	"sync"

	"github.com/MKhiriev/triage-queue-sync/internal/logger"
)

// Signal is a single platform notification.
type Signal string

const (
	SignalOnline        Signal = "online"
	SignalOffline       Signal = "offline"
	SignalVisible       Signal = "visible"
	SignalSyncRequested Signal = "sync_requested"
)

// Source emits platform signals to its subscribers.
type Source interface {
	// Subscribe registers handler and returns a func that detaches it.
	// Detaching twice is harmless.
	Subscribe(handler func(Signal)) (unsubscribe func())
}

// hub is the subscriber bookkeeping shared by every Source.
type hub struct {
	mu       sync.Mutex
	nextID   int
	handlers map[int]func(Signal)
	logger   *logger.Logger
}

func newHub(log *logger.Logger) *hub {
	return &hub{handlers: make(map[int]func(Signal)), logger: log}
}

func (h *hub) Subscribe(handler func(Signal)) func() {
	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.handlers[id] = handler
	h.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.handlers, id)
			h.mu.Unlock()
		})
	}
}

func (h *hub) emit(sig Signal) {
	h.mu.Lock()
	handlers := make([]func(Signal), 0, len(h.handlers))
	for _, fn := range h.handlers {
		handlers = append(handlers, fn)
	}
	h.mu.Unlock()

	for _, fn := range handlers {
		h.call(fn, sig)
	}
}

func (h *hub) call(fn func(Signal), sig Signal) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error().Interface("panic", r).Str("signal", string(sig)).Msg("platform signal handler panicked")
		}
	}()
	fn(sig)
}

// Manual is a Source fed by the host process, e.g. a window focus hook or an
// explicit "sync now" action.
type Manual struct {
	*hub
}

// NewManual returns an empty Manual source.
func NewManual(log *logger.Logger) *Manual {
	return &Manual{hub: newHub(log)}
}

// Notify delivers sig to every subscriber synchronously.
func (m *Manual) Notify(sig Signal) {
	m.emit(sig)
}

type merged []Source

// Merge returns a Source that forwards the signals of every non-nil source.
func Merge(sources ...Source) Source {
	out := make(merged, 0, len(sources))
	for _, s := range sources {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

func (m merged) Subscribe(handler func(Signal)) func() {
	unsubs := make([]func(), 0, len(m))
	for _, s := range m {
		unsubs = append(unsubs, s.Subscribe(handler))
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}
