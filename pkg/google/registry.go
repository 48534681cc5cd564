package google

import (
	"fmt"

	"github.com/klokku/calsync/internal/transport"
)

// Registry maps in-flight request handles to the intent that issued them.
// It is not safe for concurrent use; the orchestrator only touches it from its loop.
type Registry struct {
	pending map[transport.Handle]Intent
}

func NewRegistry() *Registry {
	return &Registry{pending: make(map[transport.Handle]Intent)}
}

// Register panics when handle is already open.
func (r *Registry) Register(handle transport.Handle, intent Intent) {
	if existing, ok := r.pending[handle]; ok {
		panic(fmt.Sprintf("request handle %s already registered for %s", handle, existing))
	}
	r.pending[handle] = intent
}

// Take removes and returns the intent of handle. It reports false when the
// handle is unknown or was already taken.
func (r *Registry) Take(handle transport.Handle) (Intent, bool) {
	intent, ok := r.pending[handle]
	if !ok {
		return Intent{}, false
	}
	delete(r.pending, handle)
	return intent, true
}

func (r *Registry) Len() int {
	return len(r.pending)
}
