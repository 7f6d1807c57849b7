package registry

import (
	"fmt"
	"slices"
	"sync"

	"github.com/roach88/viewbridge/internal/ir"
)

// entry is the arena slot of one view. Links are identifiers, never pointers.
type entry struct {
	kind     ir.NodeKind
	props    ir.Properties
	parent   ir.ViewID
	children []ir.ViewID
}

// Tree is the identity and node registry: the single source of truth for
// whether a view exists and what it is.
//
// INVARIANTS (checked by Verify):
//   - every identifier names at most one entry
//   - an entry's kind never changes after creation
//   - every non-root entry has exactly one parent, and appears exactly once
//     in that parent's children
//   - the parent graph is acyclic
//   - a removed identifier stays retired until Confirm releases it
//
// Thread-safety: all methods are safe for concurrent use.
type Tree struct {
	mu       sync.RWMutex
	nodes    map[ir.ViewID]*entry
	roots    []ir.ViewID
	retired  map[ir.ViewID]struct{}
	handlers *Handlers
}

// NewTree creates an empty tree. Removals purge handler slots from handlers;
// handlers may be nil when no routing is attached.
func NewTree(handlers *Handlers) *Tree {
	return &Tree{
		nodes:    make(map[ir.ViewID]*entry),
		retired:  make(map[ir.ViewID]struct{}),
		handlers: handlers,
	}
}

// Upsert creates the view if unseen, otherwise overwrites its properties in
// place. Returns created=true for a new view.
//
// Fails with KindMismatch if the view exists with a different kind and with
// ViewRetired if the identifier was removed and not yet confirmed free. The
// tree is unchanged on failure.
func (t *Tree) Upsert(id ir.ViewID, props ir.Properties) (created bool, err error) {
	if props == nil {
		return false, ir.Errorf(ir.ErrCodeMalformed, id, "update without properties")
	}
	if !props.Kind().Valid() {
		return false, ir.Errorf(ir.ErrCodeMalformed, id, "invalid node kind %s", props.Kind())
	}
	if id.IsNil() {
		return false, ir.Errorf(ir.ErrCodeMalformed, id, "nil view id")
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if _, gone := t.retired[id]; gone {
		return false, ir.Errorf(ir.ErrCodeViewRetired, id, "view was removed and its id is not yet released")
	}

	if e, ok := t.nodes[id]; ok {
		if e.kind != props.Kind() {
			return false, ir.Errorf(ir.ErrCodeKindMismatch, id, "cannot change kind %s to %s", e.kind, props.Kind())
		}
		e.props = cloneProps(props)
		return false, nil
	}

	t.nodes[id] = &entry{kind: props.Kind(), props: cloneProps(props)}
	t.roots = append(t.roots, id)
	return true, nil
}

// Reparent makes child a child of parent, detaching it from its old parent.
//
// Fails with InvalidReference if either view does not exist and with
// CycleDetected if parent is child or one of its descendants. Re-parenting
// onto the current parent is a no-op that keeps the child's position.
func (t *Tree) Reparent(child, parent ir.ViewID) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	ce, ok := t.nodes[child]
	if !ok {
		return ir.Errorf(ir.ErrCodeInvalidReference, child, "child does not exist")
	}
	pe, ok := t.nodes[parent]
	if !ok {
		return ir.Errorf(ir.ErrCodeInvalidReference, parent, "parent does not exist")
	}
	if t.isAncestorOrSelf(child, parent) {
		return ir.Errorf(ir.ErrCodeCycleDetected, child, "parent %s is the view itself or one of its descendants", parent)
	}
	if ce.parent == parent {
		return nil
	}

	t.detach(child, ce)
	pe.children = append(pe.children, child)
	ce.parent = parent
	return nil
}

// isAncestorOrSelf walks up from v and reports whether it reaches anc.
func (t *Tree) isAncestorOrSelf(anc, v ir.ViewID) bool {
	for steps := 0; steps <= len(t.nodes); steps++ {
		if v == anc {
			return true
		}
		e, ok := t.nodes[v]
		if !ok || e.parent.IsNil() {
			return false
		}
		v = e.parent
	}
	// Unreachable while the acyclic invariant holds.
	return true
}

// detach unlinks id from its parent's children, or from the root list.
func (t *Tree) detach(id ir.ViewID, e *entry) {
	if e.parent.IsNil() {
		t.roots = deleteID(t.roots, id)
		return
	}
	if pe, ok := t.nodes[e.parent]; ok {
		pe.children = deleteID(pe.children, id)
	}
	e.parent = ir.NilViewID
}

// Remove deletes id and, transitively, its whole subtree. Returns the
// evicted identifiers in pre-order; nil if id was absent (removing twice is
// not an error).
//
// Every handler slot of the subtree is purged under the same critical
// section. Remove then waits, with no lock held, until dispatches already in
// flight to the purged views have returned.
func (t *Tree) Remove(id ir.ViewID) []ir.ViewID {
	t.mu.Lock()
	e, ok := t.nodes[id]
	if !ok {
		t.mu.Unlock()
		return nil
	}

	t.detach(id, e)
	removed := t.subtree(id)
	for _, v := range removed {
		delete(t.nodes, v)
		t.retired[v] = struct{}{}
	}
	if t.handlers != nil {
		t.handlers.purge(removed)
	}
	t.mu.Unlock()

	if t.handlers != nil {
		t.handlers.awaitIdle(removed)
	}
	return removed
}

// subtree collects id and its descendants in pre-order.
func (t *Tree) subtree(id ir.ViewID) []ir.ViewID {
	var out []ir.ViewID
	stack := []ir.ViewID{id}
	for len(stack) > 0 {
		v := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		out = append(out, v)

		e := t.nodes[v]
		for i := len(e.children) - 1; i >= 0; i-- {
			stack = append(stack, e.children[i])
		}
	}
	return out
}

// Confirm releases a retired identifier for reuse. Returns false if id was
// not retired.
func (t *Tree) Confirm(id ir.ViewID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.retired[id]; !ok {
		return false
	}
	delete(t.retired, id)
	return true
}

// Register binds r to hid. The view must exist; the check and the binding
// are atomic with respect to Remove, so a receiver can never be bound to a
// view that is already gone.
func (t *Tree) Register(hid ir.HandlerID, r Receiver) error {
	if t.handlers == nil {
		return fmt.Errorf("register %s: tree has no handler registry", hid)
	}
	if r == nil {
		return fmt.Errorf("register %s: nil receiver", hid)
	}
	if !hid.Category.Valid() {
		return ir.Errorf(ir.ErrCodeUnknownTag, hid.View, "unknown event category %s", hid.Category)
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	if _, ok := t.nodes[hid.View]; !ok {
		return ir.Errorf(ir.ErrCodeUnknownView, hid.View, "cannot register %s handler", hid.Category)
	}
	t.handlers.bind(hid, r)
	return nil
}

// Lookup returns a snapshot of the node.
func (t *Tree) Lookup(id ir.ViewID) (ir.Node, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	e, ok := t.nodes[id]
	if !ok {
		return ir.Node{}, false
	}
	return t.snapshot(id, e), true
}

func (t *Tree) snapshot(id ir.ViewID, e *entry) ir.Node {
	return ir.Node{
		ID:       id,
		Kind:     e.kind,
		Props:    cloneProps(e.props),
		Parent:   e.parent,
		Children: cloneIDs(e.children),
	}
}

// cloneIDs copies ids, normalizing empty to nil so snapshots compare equal
// regardless of history.
func cloneIDs(ids []ir.ViewID) []ir.ViewID {
	if len(ids) == 0 {
		return nil
	}
	return slices.Clone(ids)
}

// ChildrenOf returns the ordered children of id, or nil if id is absent.
func (t *Tree) ChildrenOf(id ir.ViewID) []ir.ViewID {
	t.mu.RLock()
	defer t.mu.RUnlock()

	e, ok := t.nodes[id]
	if !ok {
		return nil
	}
	return slices.Clone(e.children)
}

// Roots returns the top-level views in creation order.
func (t *Tree) Roots() []ir.ViewID {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return slices.Clone(t.roots)
}

// Contains reports whether id names a live view.
func (t *Tree) Contains(id ir.ViewID) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.nodes[id]
	return ok
}

// Retired reports whether id was removed and not yet confirmed free.
func (t *Tree) Retired(id ir.ViewID) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.retired[id]
	return ok
}

// Len returns the number of live views.
func (t *Tree) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.nodes)
}

// Snapshot returns every live node, roots first in creation order, each
// followed by its subtree in pre-order.
func (t *Tree) Snapshot() []ir.Node {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]ir.Node, 0, len(t.nodes))
	for _, r := range t.roots {
		for _, id := range t.subtree(r) {
			out = append(out, t.snapshot(id, t.nodes[id]))
		}
	}
	return out
}

// Verify checks the structural invariants and returns the first violation.
func (t *Tree) Verify() error {
	t.mu.RLock()
	defer t.mu.RUnlock()

	rootCount := make(map[ir.ViewID]int, len(t.roots))
	for _, r := range t.roots {
		rootCount[r]++
		e, ok := t.nodes[r]
		if !ok {
			return fmt.Errorf("root %s does not exist", r)
		}
		if !e.parent.IsNil() {
			return fmt.Errorf("root %s has parent %s", r, e.parent)
		}
	}

	for id, e := range t.nodes {
		if _, gone := t.retired[id]; gone {
			return fmt.Errorf("view %s is both live and retired", id)
		}
		if e.props == nil || e.props.Kind() != e.kind {
			return fmt.Errorf("view %s properties do not match kind %s", id, e.kind)
		}
		if e.parent.IsNil() {
			if rootCount[id] != 1 {
				return fmt.Errorf("parentless view %s listed %d times as root", id, rootCount[id])
			}
		} else {
			pe, ok := t.nodes[e.parent]
			if !ok {
				return fmt.Errorf("view %s has dangling parent %s", id, e.parent)
			}
			if n := countID(pe.children, id); n != 1 {
				return fmt.Errorf("view %s appears %d times under parent %s", id, n, e.parent)
			}
		}
		for _, c := range e.children {
			ce, ok := t.nodes[c]
			if !ok {
				return fmt.Errorf("view %s has dangling child %s", id, c)
			}
			if ce.parent != id {
				return fmt.Errorf("child %s of %s points at parent %s", c, id, ce.parent)
			}
		}
		// Every chain must end at a root within len(nodes) steps.
		for v, steps := e.parent, 0; !v.IsNil(); steps++ {
			ve, ok := t.nodes[v]
			if !ok || steps > len(t.nodes) {
				return fmt.Errorf("view %s has no chain to a root", id)
			}
			v = ve.parent
		}
	}
	return nil
}

func cloneProps(p ir.Properties) ir.Properties {
	if op, ok := p.(ir.OpaqueProps); ok {
		op.Data = slices.Clone(op.Data)
		return op
	}
	return p
}

func deleteID(ids []ir.ViewID, id ir.ViewID) []ir.ViewID {
	return slices.DeleteFunc(ids, func(v ir.ViewID) bool { return v == id })
}

func countID(ids []ir.ViewID, id ir.ViewID) int {
	n := 0
	for _, v := range ids {
		if v == id {
			n++
		}
	}
	return n
}
