package activity

import (
	"context"
	"sync"
)

// CaptureHook keeps every event it receives in memory. Tests and the
// examples use it to inspect what a resolution emitted.
type CaptureHook struct {
	mu sync.Mutex
	// Events holds normalized events in arrival order.
	Events []Event
	// Err, when set, is returned from every Notify.
	Err error
}

var _ ActivityHook = (*CaptureHook)(nil)

func (h *CaptureHook) Notify(_ context.Context, event Event) error {
	h.mu.Lock()
	h.Events = append(h.Events, NormalizeEvent(event))
	h.mu.Unlock()
	return h.Err
}

// Verbs lists the verb of every captured event in order.
func (h *CaptureHook) Verbs() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	verbs := make([]string, len(h.Events))
	for i, event := range h.Events {
		verbs[i] = event.Verb
	}
	return verbs
}

// ForParam returns the captured events whose object is the named parameter.
func (h *CaptureHook) ForParam(name string) []Event {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []Event
	for _, event := range h.Events {
		if event.ObjectType == ObjectParameter && event.ObjectID == name {
			out = append(out, event)
		}
	}
	return out
}

// Reset drops everything captured so far.
func (h *CaptureHook) Reset() {
	h.mu.Lock()
	h.Events = nil
	h.mu.Unlock()
}
