package broadcast

import (
	"context"
	"errors"
	"sync"
)

// ErrTransportClosed is returned when publishing on a closed transport.
var ErrTransportClosed = errors.New("broadcast transport closed")

// Transport is a named publish/subscribe channel shared by sibling
// instances. A transport never delivers a frame back to the endpoint that
// published it.
type Transport interface {
	Publish(ctx context.Context, frame []byte) error
	// Subscribe sets the frame handler. Frames published before the call may
	// be lost.
	Subscribe(handler func(frame []byte))
	Close() error
}

// Opener opens the transport of one instance.
type Opener func() (Transport, error)

// MemoryHub connects instances living in the same process. Delivery is
// synchronous: Publish returns after every other endpoint's handler ran.
type MemoryHub struct {
	mu        sync.Mutex
	endpoints map[*memoryEndpoint]struct{}
}

func NewMemoryHub() *MemoryHub {
	return &MemoryHub{endpoints: make(map[*memoryEndpoint]struct{})}
}

// Open attaches a new endpoint.
func (h *MemoryHub) Open() (Transport, error) {
	ep := &memoryEndpoint{hub: h}
	h.mu.Lock()
	h.endpoints[ep] = struct{}{}
	h.mu.Unlock()
	return ep, nil
}

// Opener returns h.Open as an Opener.
func (h *MemoryHub) Opener() Opener { return h.Open }

type memoryEndpoint struct {
	hub     *MemoryHub
	mu      sync.Mutex
	handler func([]byte)
	closed  bool
}

func (e *memoryEndpoint) Publish(ctx context.Context, frame []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e.mu.Lock()
	closed := e.closed
	e.mu.Unlock()
	if closed {
		return ErrTransportClosed
	}

	e.hub.mu.Lock()
	peers := make([]*memoryEndpoint, 0, len(e.hub.endpoints))
	for ep := range e.hub.endpoints {
		if ep != e {
			peers = append(peers, ep)
		}
	}
	e.hub.mu.Unlock()

	for _, ep := range peers {
		ep.mu.Lock()
		handler := ep.handler
		ep.mu.Unlock()
		if handler != nil {
			handler(append([]byte(nil), frame...))
		}
	}
	return nil
}

func (e *memoryEndpoint) Subscribe(handler func([]byte)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handler = handler
}

func (e *memoryEndpoint) Close() error {
	e.mu.Lock()
	e.closed = true
	e.handler = nil
	e.mu.Unlock()

	e.hub.mu.Lock()
	delete(e.hub.endpoints, e)
	e.hub.mu.Unlock()
	return nil
}
