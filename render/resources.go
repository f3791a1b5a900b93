package render

import (
	"sync"

	"github.com/flanksource/commons/logger"
)

type resource struct {
	label   string
	release func() error
}

// resources releases what a render acquired, newest first. Release may be called
// from the shutdown hook and the deferred cleanup concurrently, each resource is
// released once.
type resources struct {
	mu       sync.Mutex
	released bool
	items    []resource
}

// add tracks a resource. It returns false, without tracking it, when the set was
// already released; the caller must then release the resource itself.
func (r *resources) add(label string, release func() error) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.released {
		return false
	}
	r.items = append(r.items, resource{label: label, release: release})
	return true
}

func (r *resources) release() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.released = true
	for i := len(r.items) - 1; i >= 0; i-- {
		if err := r.items[i].release(); err != nil {
			logger.Warnf("failed to %s: %v", r.items[i].label, err)
		}
	}
	r.items = nil
}
