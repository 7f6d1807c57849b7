package registry

import (
	"context"
	"sync"

	"github.com/roach88/viewbridge/internal/ir"
)

// Receiver is a host capability bound to one handler slot. Whatever state
// the host needs (the token of a C-style callback) is captured by the closure.
type Receiver func(ctx context.Context, ev ir.Event)

// Handlers maps handler identifiers to receivers and tracks dispatches in
// flight so that a removal can wait for them to finish.
//
// Thread-safety: all methods are safe for concurrent use.
type Handlers struct {
	mu       sync.Mutex
	idle     *sync.Cond
	slots    map[ir.HandlerID]Receiver
	inflight map[ir.ViewID]int
}

// NewHandlers creates an empty handler registry.
func NewHandlers() *Handlers {
	h := &Handlers{
		slots:    make(map[ir.HandlerID]Receiver),
		inflight: make(map[ir.ViewID]int),
	}
	h.idle = sync.NewCond(&h.mu)
	return h
}

// bind stores a receiver, replacing any previous one for the slot.
// Callers must hold the Tree lock so the view cannot vanish concurrently.
func (h *Handlers) bind(hid ir.HandlerID, r Receiver) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.slots[hid] = r
}

// Unregister removes a slot. Returns false if nothing was registered.
func (h *Handlers) Unregister(hid ir.HandlerID) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.slots[hid]; !ok {
		return false
	}
	delete(h.slots, hid)
	return true
}

// Acquire looks up the receiver for hid and marks a dispatch in flight for
// its view. The caller must invoke release exactly once after the receiver
// returns; extra calls are ignored.
func (h *Handlers) Acquire(hid ir.HandlerID) (r Receiver, release func(), ok bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	r, ok = h.slots[hid]
	if !ok {
		return nil, func() {}, false
	}
	h.inflight[hid.View]++

	var once sync.Once
	release = func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if h.inflight[hid.View]--; h.inflight[hid.View] <= 0 {
				delete(h.inflight, hid.View)
			}
			h.idle.Broadcast()
		})
	}
	return r, release, true
}

// purge drops every slot whose view is in views. Returns the number of
// slots removed.
func (h *Handlers) purge(views []ir.ViewID) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	n := 0
	for _, v := range views {
		for _, c := range ir.Categories {
			hid := ir.HandlerID{View: v, Category: c}
			if _, ok := h.slots[hid]; ok {
				delete(h.slots, hid)
				n++
			}
		}
	}
	return n
}

// awaitIdle blocks until no dispatch is in flight for any of views.
// Must be called without holding the Tree lock: receivers may read the tree.
func (h *Handlers) awaitIdle(views []ir.ViewID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for h.busy(views) {
		h.idle.Wait()
	}
}

func (h *Handlers) busy(views []ir.ViewID) bool {
	if len(h.inflight) == 0 {
		return false
	}
	for _, v := range views {
		if h.inflight[v] > 0 {
			return true
		}
	}
	return false
}

// Registered reports whether a receiver is bound to hid.
func (h *Handlers) Registered(hid ir.HandlerID) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, ok := h.slots[hid]
	return ok
}

// Len returns the number of bound slots.
func (h *Handlers) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.slots)
}

// InFlight returns the number of dispatches currently running for view.
func (h *Handlers) InFlight(view ir.ViewID) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.inflight[view]
}
