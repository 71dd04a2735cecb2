package workers

import (
	"context"
	"fmt"
	"sync"

	"github.com/MKhiriev/triage-queue-sync/internal/logger"
)

type Workers struct {
	mu      sync.Mutex
	workers []Worker
	started []Worker
	logger  *logger.Logger
}

func New(log *logger.Logger, ws ...Worker) *Workers {
	return &Workers{workers: ws, logger: log}
}

// Add registers w. Workers added after Start are not started.
func (w *Workers) Add(worker Worker) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.workers = append(w.workers, worker)
}

// Start starts every worker in order. If one fails, the ones already
// started are stopped again and the error is returned.
func (w *Workers) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if len(w.started) > 0 {
		return nil
	}

	for i, worker := range w.workers {
		if err := worker.Start(ctx); err != nil {
			w.stopLocked()
			return fmt.Errorf("start worker %s: %w", name(worker, i), err)
		}
		w.started = append(w.started, worker)
		w.logger.Debug().Str("worker", name(worker, i)).Msg("worker started")
	}
	return nil
}

// Stop stops the started workers in reverse order.
func (w *Workers) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.stopLocked()
}

func (w *Workers) stopLocked() {
	for i := len(w.started) - 1; i >= 0; i-- {
		w.started[i].Stop()
	}
	w.started = nil
}

func name(worker Worker, i int) string {
	if h, ok := worker.(Hook); ok && h.Name != "" {
		return h.Name
	}
	return fmt.Sprintf("#%d", i)
}
