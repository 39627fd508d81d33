package proxy

import (
	"fmt"
	"sync"
)

// Ring buffer capacities. Oldest entries are evicted first; insertion
// order is preserved for the retained window.
const (
	EventCapacity     = 100
	SelectionCapacity = 50
)

// Event is one tracked interaction from the injected script. The payload
// is carried as-is; only a few well-known keys are inspected server-side.
type Event map[string]interface{}

// Type returns the event's type tag.
func (e Event) Type() string {
	t, _ := e["type"].(string)
	return t
}

// PostID returns the event's post ID as a string, or "".
func (e Event) PostID() string {
	switch v := e["postId"].(type) {
	case string:
		if v == "" || v == "unknown" {
			return ""
		}
		return v
	case float64:
		return fmt.Sprintf("%.0f", v)
	default:
		return ""
	}
}

// URL returns the event's originating URL.
func (e Event) URL() string {
	u, _ := e["url"].(string)
	return u
}

// IsSelection reports whether the event should enter the selection buffer:
// explicit content selections, or clicks that carried a post ID.
func (e Event) IsSelection() bool {
	switch e.Type() {
	case "content_selection":
		return true
	case "click":
		return e.PostID() != ""
	}
	return false
}

// entry pairs an event with its absolute sequence number so stream
// subscribers can resume from where they left off.
type entry struct {
	seq uint64
	ev  Event
}

// Log holds the bounded tracking-event and selected-content buffers.
// Appends and reads are concurrency-safe; there are no transactional
// guarantees beyond that.
type Log struct {
	mu         sync.RWMutex
	events     []entry
	selections []Event
	seq        uint64
}

// NewLog creates an empty event log.
func NewLog() *Log {
	return &Log{}
}

// Append records a tracking event, evicting the oldest when full.
func (l *Log) Append(ev Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.seq++
	l.events = append(l.events, entry{seq: l.seq, ev: ev})
	if len(l.events) > EventCapacity {
		l.events = l.events[len(l.events)-EventCapacity:]
	}
}

// AppendSelection records a selected-content event, evicting the oldest
// when full.
func (l *Log) AppendSelection(ev Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.selections = append(l.selections, ev)
	if len(l.selections) > SelectionCapacity {
		l.selections = l.selections[len(l.selections)-SelectionCapacity:]
	}
}

// ReplaceSelection swaps the selection matching (timestamp, postId) for its
// enriched version, preserving position. Returns false when the original
// has already been evicted.
func (l *Log) ReplaceSelection(timestamp, postID interface{}, enriched Event) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, sel := range l.selections {
		if scalarEqual(sel["timestamp"], timestamp) && scalarEqual(sel["postId"], postID) {
			l.selections[i] = enriched
			return true
		}
	}
	return false
}

// Events returns a snapshot of the tracking buffer plus the latest
// sequence number, for stream subscribers to resume from.
func (l *Log) Events() ([]Event, uint64) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Event, len(l.events))
	for i, e := range l.events {
		out[i] = e.ev
	}
	return out, l.seq
}

// EventsSince returns events appended after seq, oldest first, plus the
// new resume point. Events evicted before being read are lost to the
// caller.
func (l *Log) EventsSince(seq uint64) ([]Event, uint64) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []Event
	for _, e := range l.events {
		if e.seq > seq {
			out = append(out, e.ev)
		}
	}
	return out, l.seq
}

// Selections returns a snapshot of the selected-content buffer.
func (l *Log) Selections() []Event {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Event, len(l.selections))
	copy(out, l.selections)
	return out
}

// scalarEqual compares two JSON scalars without panicking on mixed types.
func scalarEqual(a, b interface{}) bool {
	if a == nil || b == nil {
		return a == b
	}
	return fmt.Sprint(a) == fmt.Sprint(b)
}
