package platform

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/MKhiriev/triage-queue-sync/internal/clock"
	"github.com/MKhiriev/triage-queue-sync/internal/logger"
)

// InterfaceWatcher polls the host network interfaces and emits SignalOnline
// or SignalOffline whenever the presence of a usable interface changes. A
// usable interface is up, not loopback and has at least one address.
type InterfaceWatcher struct {
	*hub

	clock    clock.Clock
	interval time.Duration
	probe    func() (bool, error)

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
	last   *bool
}

// NewInterfaceWatcher returns a watcher polling every interval.
func NewInterfaceWatcher(clk clock.Clock, interval time.Duration, log *logger.Logger) *InterfaceWatcher {
	return &InterfaceWatcher{
		hub:      newHub(log),
		clock:    clk,
		interval: interval,
		probe:    hasUsableInterface,
	}
}

// Start begins polling. A running watcher is restarted.
func (w *InterfaceWatcher) Start(ctx context.Context) {
	w.Stop()

	w.mu.Lock()
	defer w.mu.Unlock()

	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.last = nil

	ticker := w.clock.NewTicker(w.interval)
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer ticker.Stop()

		w.check()
		for {
			select {
			case <-runCtx.Done():
				return
			case <-ticker.C():
				w.check()
			}
		}
	}()
}

// Stop halts polling and waits for the poll goroutine to exit.
func (w *InterfaceWatcher) Stop() {
	w.mu.Lock()
	cancel := w.cancel
	w.cancel = nil
	w.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	w.wg.Wait()
}

// check emits a signal only on change. The first observation establishes the
// baseline silently.
func (w *InterfaceWatcher) check() {
	up, err := w.probe()
	if err != nil {
		w.logger.Warn().Err(err).Msg("failed to list network interfaces")
		return
	}

	w.mu.Lock()
	prev := w.last
	w.last = &up
	w.mu.Unlock()

	if prev == nil || *prev == up {
		return
	}
	if up {
		w.logger.Debug().Msg("network interface came up")
		w.emit(SignalOnline)
		return
	}
	w.logger.Debug().Msg("no usable network interface left")
	w.emit(SignalOffline)
}

func hasUsableInterface() (bool, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return false, err
	}
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil || len(addrs) == 0 {
			continue
		}
		return true, nil
	}
	return false, nil
}
