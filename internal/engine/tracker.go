package engine

import (
	"fmt"
	"sync"

	"github.com/roach88/viewbridge/internal/ir"
)

// PhasePolicy decides what happens to an event that violates its device's
// phase order.
type PhasePolicy int

const (
	// PermissiveForward reports the violation, still routes the event and
	// advances the device to the event's phase.
	PermissiveForward PhasePolicy = iota

	// StrictDrop drops the event and leaves the device's state unchanged.
	StrictDrop
)

func (p PhasePolicy) String() string {
	switch p {
	case PermissiveForward:
		return "permissive"
	case StrictDrop:
		return "strict"
	default:
		return fmt.Sprintf("policy(%d)", int(p))
	}
}

// ParsePhasePolicy parses "permissive" or "strict".
func ParsePhasePolicy(s string) (PhasePolicy, error) {
	switch s {
	case "permissive":
		return PermissiveForward, nil
	case "strict":
		return StrictDrop, nil
	default:
		return 0, fmt.Errorf("unknown phase policy %q", s)
	}
}

// deviceKey identifies one phase sequence. Pointer-like events with a
// pointer id are keyed by it; without one the device kind stands in as the
// session. Key events are keyed per key code.
type deviceKey struct {
	category ir.Category
	pointer  uint64
	device   ir.PointerDevice
	key      ir.KeyCode
}

func keyOf(p ir.Payload) (deviceKey, bool) {
	switch v := p.(type) {
	case ir.HoverPayload:
		return pointerKey(ir.CategoryHover, v.PointerID, v.Device), true
	case ir.PointerPayload:
		return pointerKey(ir.CategoryPointer, v.PointerID, v.Device), true
	case ir.KeyPayload:
		return deviceKey{category: ir.CategoryKey, key: v.Code}, true
	default:
		return deviceKey{}, false
	}
}

func pointerKey(c ir.Category, id uint64, dev ir.PointerDevice) deviceKey {
	if id != 0 {
		return deviceKey{category: c, pointer: id}
	}
	return deviceKey{category: c, device: dev}
}

func (k deviceKey) String() string {
	switch {
	case k.category == ir.CategoryKey:
		return fmt.Sprintf("key/%s", k.key)
	case k.pointer != 0:
		return fmt.Sprintf("%s/pointer-%d", k.category, k.pointer)
	default:
		return fmt.Sprintf("%s/%s", k.category, k.device)
	}
}

// phaseTracker remembers the last phase rank of every active device.
// A device absent from the map has no session in progress.
type phaseTracker struct {
	mu     sync.Mutex
	active map[deviceKey]int
}

func newPhaseTracker() *phaseTracker {
	return &phaseTracker{active: make(map[deviceKey]int)}
}

// observe checks ev against its device's state and returns the violation,
// if any. Unless the policy is StrictDrop and the event violates, the device
// moves to the event's phase; a terminal phase ends the session.
func (t *phaseTracker) observe(ev ir.Event, policy PhasePolicy) error {
	info, tracked := ir.PhaseOf(ev.Payload)
	if !tracked {
		return nil
	}
	key, _ := keyOf(ev.Payload)

	t.mu.Lock()
	defer t.mu.Unlock()

	last, inSession := t.active[key]

	var violation error
	switch {
	case !inSession && info.Rank != ir.RankInitial:
		violation = ir.Errorf(ir.ErrCodeOutOfOrderPhase, ev.Handler.View,
			"%s: %s without a preceding initial phase", key, info.Name)
	case inSession && info.Rank < max(last, ir.RankOngoing):
		violation = ir.Errorf(ir.ErrCodeOutOfOrderPhase, ev.Handler.View,
			"%s: %s after a phase of rank %d", key, info.Name, last)
	}

	if violation != nil && policy == StrictDrop {
		return violation
	}

	if info.Rank == ir.RankTerminal {
		delete(t.active, key)
	} else {
		t.active[key] = info.Rank
	}
	return violation
}

// sessions returns the number of devices with a session in progress.
func (t *phaseTracker) sessions() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.active)
}
