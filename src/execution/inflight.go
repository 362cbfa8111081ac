package execution

import (
	"errors"
	"sync"
)

// ErrAlreadyStarted rejects a second attempt for a signal instance that has
// already left the received state. Re-submitting an in-flight or finished
// signal is a no-op.
var ErrAlreadyStarted = errors.New("an execution for this signal has already started")

// inflightRegistry keys attempts by signal id so that exactly one execution
// record per signal ever transitions out of received.
type inflightRegistry struct {
	mu      sync.Mutex
	started map[string]struct{}
}

func newInflightRegistry() *inflightRegistry {
	return &inflightRegistry{started: make(map[string]struct{})}
}

// begin claims the signal id. The claim is permanent: finished signals stay
// claimed so a replayed signal cannot execute twice.
func (r *inflightRegistry) begin(signalID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.started[signalID]; ok {
		return ErrAlreadyStarted
	}
	r.started[signalID] = struct{}{}
	return nil
}
