// Package workers provides abstractions for managing the background
// components of the client: the connectivity monitor, the broadcast
// channel, the periodic sync job and anything else with a start/stop
// lifecycle.
//
// [Workers] starts its members in registration order and stops them in
// reverse, so a component may rely on everything registered before it.
package workers

import "context"

// Worker is the interface that must be implemented by any background worker.
//
// Start must not block for the lifetime of the worker; long-running work
// belongs in goroutines owned by the worker. Stop must be safe to call more
// than once.
//
// Example implementation:
//
//	type MyWorker struct{ cancel context.CancelFunc }
//
//	func (w *MyWorker) Start(ctx context.Context) error {
//	    ctx, w.cancel = context.WithCancel(ctx)
//	    go w.loop(ctx)
//	    return nil
//	}
//
//	func (w *MyWorker) Stop() { w.cancel() }
type Worker interface {
	Start(ctx context.Context) error
	Stop()
}

// Hook adapts a pair of functions to [Worker]. Either may be nil.
type Hook struct {
	Name    string
	OnStart func(ctx context.Context) error
	OnStop  func()
}

func (h Hook) Start(ctx context.Context) error {
	if h.OnStart == nil {
		return nil
	}
	return h.OnStart(ctx)
}

func (h Hook) Stop() {
	if h.OnStop != nil {
		h.OnStop()
	}
}
