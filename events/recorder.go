package events

import "sync"

// Recorder is an in-memory event sink safe for concurrent use.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// Record appends an event.
func (r *Recorder) Record(e Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

// Events returns a snapshot of recorded events in arrival order.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Children returns recorded events whose parent is id.
func (r *Recorder) Children(id ID) []Event {
	var res []Event
	for _, e := range r.Events() {
		if e.ParentID() == id {
			res = append(res, e)
		}
	}
	return res
}

// Reset drops recorded events.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.events = nil
	r.mu.Unlock()
}
