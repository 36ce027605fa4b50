package harvest

import (
	"sync"

	"github.com/nao1215/gravelscan/internal/model"
)

// ProgressHub fans progress events out to registered observers and keeps
// the most recent event for late subscribers.
type ProgressHub struct {
	mu     sync.RWMutex
	sinks  map[int]model.Observer
	nextID int
	last   model.ProgressEvent
}

// NewProgressHub creates an empty hub.
func NewProgressHub() *ProgressHub {
	return &ProgressHub{sinks: make(map[int]model.Observer)}
}

// Register adds an observer and returns its id for Unregister.
func (h *ProgressHub) Register(o model.Observer) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.nextID++
	h.sinks[h.nextID] = o
	return h.nextID
}

// Unregister removes the observer with id. Unknown ids are ignored.
func (h *ProgressHub) Unregister(id int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.sinks, id)
}

// Publish records event and delivers it to every registered observer.
func (h *ProgressHub) Publish(event model.ProgressEvent) {
	h.mu.Lock()
	h.last = event
	sinks := make([]model.Observer, 0, len(h.sinks))
	for _, s := range h.sinks {
		sinks = append(sinks, s)
	}
	h.mu.Unlock()

	for _, s := range sinks {
		s.Observe(event)
	}
}

// Observe implements model.Observer so a hub can be passed wherever a
// single observer is expected.
func (h *ProgressHub) Observe(event model.ProgressEvent) {
	h.Publish(event)
}

// Last returns the most recently published event.
func (h *ProgressHub) Last() model.ProgressEvent {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.last
}

// Len returns the number of registered observers.
func (h *ProgressHub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sinks)
}
