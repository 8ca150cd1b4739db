package midi

import (
	"sync"
)

// EventQueue hands events from control goroutines to the audio goroutine.
// Events are kept ordered by sample offset; equal offsets keep their
// arrival order. The audio side only calls Drain, which copies into a
// caller-owned slice and does not allocate.
type EventQueue struct {
	events  []Event
	mu      sync.Mutex
	dropped int
	limit   int
}

// NewEventQueue creates a queue holding at most limit events. A limit of
// zero or less means unbounded.
func NewEventQueue(limit int) *EventQueue {
	size := limit
	if size <= 0 {
		size = 128
	}
	return &EventQueue{
		events: make([]Event, 0, size),
		limit:  limit,
	}
}

// Add inserts an event in offset order. It reports false and counts a drop
// when the queue is full.
func (q *EventQueue) Add(event Event) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.limit > 0 && len(q.events) >= q.limit {
		q.dropped++
		return false
	}

	q.events = append(q.events, event)
	i := len(q.events) - 1
	for i > 0 && q.events[i-1].SampleOffset() > event.SampleOffset() {
		q.events[i] = q.events[i-1]
		i--
	}
	q.events[i] = event
	return true
}

// AddMultiple adds events in order and returns how many were accepted.
func (q *EventQueue) AddMultiple(events []Event) int {
	n := 0
	for _, e := range events {
		if q.Add(e) {
			n++
		}
	}
	return n
}

// Drain moves every event with an offset below until onto dst and returns
// the extended slice.
func (q *EventQueue) Drain(until int32, dst []Event) []Event {
	q.mu.Lock()
	defer q.mu.Unlock()

	n := 0
	for n < len(q.events) && q.events[n].SampleOffset() < until {
		n++
	}
	if n == 0 {
		return dst
	}

	dst = append(dst, q.events[:n]...)
	rest := copy(q.events, q.events[n:])
	clear(q.events[rest:])
	q.events = q.events[:rest]
	return dst
}

// Next returns the offset of the earliest queued event.
func (q *EventQueue) Next() (int32, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.events) == 0 {
		return 0, false
	}
	return q.events[0].SampleOffset(), true
}

func (q *EventQueue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()

	clear(q.events)
	q.events = q.events[:0]
}

func (q *EventQueue) Size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events)
}

// Dropped returns how many events were refused because the queue was full.
func (q *EventQueue) Dropped() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.dropped
}
