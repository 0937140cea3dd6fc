package scp

import (
	"context"
	"sync"
)

// cancelRegistry maps an in-flight request's MessageID to the
// context.CancelFunc that aborts its handler, so an incoming C-CANCEL-RQ
// (spec §6 "C-CANCEL", bound to a message id) can stop a running C-FIND,
// C-GET, or C-MOVE handler (spec §9 "cancellation as an explicit argument
// to every I/O- or time-bounded operation").
type cancelRegistry struct {
	mu      sync.Mutex
	cancels map[uint16]context.CancelFunc
}

func newCancelRegistry() *cancelRegistry {
	return &cancelRegistry{cancels: make(map[uint16]context.CancelFunc)}
}

func (r *cancelRegistry) register(messageID uint16, cancel context.CancelFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cancels[messageID] = cancel
}

func (r *cancelRegistry) unregister(messageID uint16) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.cancels, messageID)
}

func (r *cancelRegistry) cancel(messageID uint16) bool {
	r.mu.Lock()
	cancel, ok := r.cancels[messageID]
	r.mu.Unlock()
	if ok {
		cancel()
	}
	return ok
}

// withCancel wraps ctx with a cancelable child registered under
// messageID, returning a cleanup to call once the handler finishes.
func (r *cancelRegistry) withCancel(ctx context.Context, messageID uint16) (context.Context, func()) {
	child, cancel := context.WithCancel(ctx)
	r.register(messageID, cancel)
	return child, func() {
		r.unregister(messageID)
		cancel()
	}
}
