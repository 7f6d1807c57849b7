package testutil

import (
	"context"
	"sync"

	"github.com/roach88/viewbridge/internal/ir"
)

// Recorder collects the events delivered to its receivers.
//
// Thread-safety: all methods are safe for concurrent use.
type Recorder struct {
	mu     sync.Mutex
	events []ir.Event
	tags   []string
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Receiver returns a receiver that records events under tag.
func (r *Recorder) Receiver(tag string) func(context.Context, ir.Event) {
	return func(_ context.Context, ev ir.Event) {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.events = append(r.events, ev)
		r.tags = append(r.tags, tag)
	}
}

// Events returns a copy of the recorded events in delivery order.
func (r *Recorder) Events() []ir.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]ir.Event(nil), r.events...)
}

// Tags returns the tags of the receivers that fired, in delivery order.
func (r *Recorder) Tags() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.tags...)
}

// Len returns the number of recorded events.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}
