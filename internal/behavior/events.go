package behavior

import "sort"

// MaxEvents is the number of most recent events retained per session.
const MaxEvents = 2000

// EventType is the kind of browser interaction captured.
type EventType string

const (
	EventKeyDown   EventType = "keydown"
	EventKeyUp     EventType = "keyup"
	EventMouseMove EventType = "mousemove"
	EventScroll    EventType = "scroll"
	EventFocus     EventType = "focus"
	EventPaste     EventType = "paste"
)

// Event is one interaction sample. Timestamp is in milliseconds.
type Event struct {
	Type      EventType `json:"type"`
	Timestamp float64   `json:"timestamp"`
	FieldID   string    `json:"fieldId,omitempty"`
	X         *float64  `json:"x,omitempty"`
	Y         *float64  `json:"y,omitempty"`
	Depth     *float64  `json:"depth,omitempty"`
}

// EventBuffer is a fixed-capacity ring buffer that drops the oldest event
// when full.
type EventBuffer struct {
	events []Event
	start  int
	size   int
}

// NewEventBuffer creates a buffer holding at most capacity events.
// A non-positive capacity uses MaxEvents.
func NewEventBuffer(capacity int) *EventBuffer {
	if capacity <= 0 {
		capacity = MaxEvents
	}
	return &EventBuffer{events: make([]Event, capacity)}
}

// Push appends an event, overwriting the oldest one when full.
func (b *EventBuffer) Push(e Event) {
	capacity := len(b.events)
	if b.size < capacity {
		b.events[(b.start+b.size)%capacity] = e
		b.size++
		return
	}
	b.events[b.start] = e
	b.start = (b.start + 1) % capacity
}

// Len returns the number of retained events.
func (b *EventBuffer) Len() int {
	return b.size
}

// Events returns the retained events, oldest first.
func (b *EventBuffer) Events() []Event {
	out := make([]Event, b.size)
	for i := range b.size {
		out[i] = b.events[(b.start+i)%len(b.events)]
	}
	return out
}

// Normalize orders events by timestamp (stable) and keeps the most recent
// MaxEvents. The input slice is not modified.
func Normalize(events []Event) []Event {
	sorted := make([]Event, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp < sorted[j].Timestamp
	})
	if len(sorted) <= MaxEvents {
		return sorted
	}
	buf := NewEventBuffer(MaxEvents)
	for _, e := range sorted {
		buf.Push(e)
	}
	return buf.Events()
}
