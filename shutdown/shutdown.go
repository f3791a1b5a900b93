package shutdown

import (
	"container/heap"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/flanksource/commons/logger"
)

const (
	PriorityDefault  = 100
	PriorityWorkers  = 200
	PriorityCritical = 400
)

// Hook is a cleanup function run when the process is interrupted
type Hook struct {
	label    string
	priority int
	fn       func()
	index    int // position in the heap, -1 once removed
}

type hookHeap []*Hook

func (h hookHeap) Len() int           { return len(h) }
func (h hookHeap) Less(i, j int) bool { return h[i].priority < h[j].priority }
func (h hookHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *hookHeap) Push(x interface{}) {
	item := x.(*Hook)
	item.index = len(*h)
	*h = append(*h, item)
}

func (h *hookHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*h = old[0 : n-1]
	return item
}

var (
	hooks    hookHeap
	hooksMux sync.Mutex
	once     sync.Once
)

// AddHook registers a shutdown hook with default priority
func AddHook(label string, fn func()) *Hook {
	return AddHookWithPriority(label, PriorityDefault, fn)
}

// AddHookWithPriority registers a shutdown hook, lower priorities run first
func AddHookWithPriority(label string, priority int, fn func()) *Hook {
	hooksMux.Lock()
	defer hooksMux.Unlock()

	hook := &Hook{
		label:    label,
		priority: priority,
		fn:       fn,
	}
	heap.Push(&hooks, hook)
	return hook
}

// RemoveHook unregisters a hook whose resource was already released
func RemoveHook(hook *Hook) {
	if hook == nil {
		return
	}
	hooksMux.Lock()
	defer hooksMux.Unlock()

	if hook.index >= 0 && hook.index < len(hooks) && hooks[hook.index] == hook {
		heap.Remove(&hooks, hook.index)
	}
}

// Pending returns the number of registered hooks
func Pending() int {
	hooksMux.Lock()
	defer hooksMux.Unlock()
	return len(hooks)
}

// Shutdown executes all registered hooks in priority order
func Shutdown() {
	hooksMux.Lock()
	defer hooksMux.Unlock()

	if len(hooks) == 0 {
		return
	}

	logger.Infof("Executing %d shutdown hooks", len(hooks))
	for hooks.Len() > 0 {
		hook := heap.Pop(&hooks).(*Hook)
		logger.Debugf("Executing shutdown hook: %s (priority=%d)", hook.label, hook.priority)

		func() {
			defer func() {
				if r := recover(); r != nil {
					logger.Errorf("Panic in shutdown hook %s: %v", hook.label, r)
				}
			}()
			hook.fn()
		}()
	}
}

// HandleSignals installs a handler that runs the hooks and exits 1 when SIGINT or
// SIGTERM arrives. A second signal exits immediately.
func HandleSignals() {
	once.Do(func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

		go func() {
			sig := <-sigChan
			fmt.Fprintf(os.Stderr, "\nReceived %s, stopping...\n", sig)

			go func() {
				<-sigChan
				fmt.Fprintf(os.Stderr, "\nForce exit\n")
				os.Exit(1)
			}()

			Shutdown()
			os.Exit(1)
		}()
	})
}
