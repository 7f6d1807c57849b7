package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/viewbridge/internal/engine"
	"github.com/roach88/viewbridge/internal/ir"
	"github.com/roach88/viewbridge/internal/registry"
)

// Harness is the scenario execution engine. It drives one bridge step by
// step and records what happened.
type Harness struct {
	bridge *engine.Bridge
	names  map[ir.ViewID]string
	result *Result
	logger *slog.Logger

	// step is the index of the running step; receivers read it to label
	// their deliveries.
	step int
}

// Run executes a scenario against a fresh bridge and returns the result.
//
// Logging is discarded unless opts carry a logger. opts are applied after
// the defaults, and the scenario's own policy, when set, is applied last.
//
// Execution flow:
//  1. Create a bridge with a fresh tree and clock
//  2. Execute each step, checking its expect clause and the tree invariants
//  3. Snapshot the final tree
//  4. Evaluate assertions
func Run(scenario *Scenario, opts ...engine.Option) (*Result, error) {
	all := []engine.Option{engine.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))}
	all = append(all, opts...)
	if scenario.Policy != "" {
		policy, err := engine.ParsePhasePolicy(scenario.Policy)
		if err != nil {
			return nil, err
		}
		all = append(all, engine.WithPhasePolicy(policy))
	}

	h := &Harness{
		bridge: engine.New(all...),
		names:  viewNames(scenario),
		result: NewResult(),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	ctx := context.Background()
	for i := range scenario.Steps {
		h.step = i
		if err := h.exec(ctx, &scenario.Steps[i]); err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
		if err := h.bridge.Tree().Verify(); err != nil {
			h.result.AddError(fmt.Sprintf("steps[%d]: tree invariant broken: %v", i, err))
		}
	}

	h.result.Tree = h.snapshot()
	h.result.Delivered = h.bridge.Router().Delivered()
	h.result.Dropped = h.bridge.Router().Dropped()

	for _, msg := range EvaluateAssertions(h.result, scenario.Assertions) {
		h.result.AddError(msg)
	}
	return h.result, nil
}

// exec runs one step and appends its trace entry. The entry is reserved
// before the step runs so deliveries made while it runs follow it.
func (h *Harness) exec(ctx context.Context, st *Step) error {
	idx := len(h.result.Trace)
	h.result.add(TraceEntry{Step: h.step, Op: st.Op(), View: st.View()})

	entry, err := h.run(ctx, st)
	if err != nil {
		return err
	}
	entry.Step, entry.Op, entry.View = h.step, st.Op(), st.View()
	h.result.Trace[idx] = entry

	if st.Expect != "" && st.Expect != entry.Result {
		h.result.AddError(fmt.Sprintf("steps[%d] %s %s: expected %s, got %s",
			h.step, entry.Op, entry.View, st.Expect, entry.Result))
	}

	h.logger.Info("step completed",
		"step", h.step,
		"op", entry.Op,
		"view", entry.View,
		"result", entry.Result,
	)
	return nil
}

func (h *Harness) run(ctx context.Context, st *Step) (TraceEntry, error) {
	var entry TraceEntry

	if p, ok, err := st.Patch(); ok {
		if err != nil {
			return entry, err
		}
		if sv, isSubview := p.(ir.Subview); isSubview {
			entry.Child = h.name(sv.Child)
		}
		entry.Seq = h.bridge.Clock().Current() + 1
		report := h.bridge.Apply(ctx, []ir.Patch{p})
		entry.Result = ResultOK
		if !report.OK() {
			entry.Result = string(report.Codes()[0])
		}
		return entry, nil
	}

	switch {
	case st.Confirm != nil:
		entry.Result = ResultNotRetired
		if h.bridge.Confirm(ctx, ir.NamedViewID(st.Confirm.View)) {
			entry.Result = ResultOK
			entry.Seq = h.bridge.Clock().Current()
		}

	case st.Register != nil:
		hid, err := st.Register.handler()
		if err != nil {
			return entry, err
		}
		entry.Category = hid.Category.String()
		entry.Result = ResultOK
		if err := h.bridge.Register(hid, h.receiver(hid, st.Register.Action)); err != nil {
			entry.Result = resultOf(err)
		}

	case st.Unregister != nil:
		hid, err := st.Unregister.handler()
		if err != nil {
			return entry, err
		}
		entry.Category = hid.Category.String()
		entry.Result = ResultNotRegistered
		if h.bridge.Unregister(hid) {
			entry.Result = ResultOK
		}

	case st.Event != nil:
		ev, err := st.Event.event()
		if err != nil {
			return entry, err
		}
		entry.Category = ev.Route().Category.String()
		if info, ok := ir.PhaseOf(ev.Payload); ok {
			entry.Phase = info.Name
		}
		out := h.bridge.Dispatch(ctx, ev)
		entry.Seq = out.Seq
		entry.Result = string(out.Drop)
		if out.Delivered {
			entry.Result = ResultDelivered
		}
		entry.Violation = string(ir.CodeOf(out.Violation))

	default:
		return entry, fmt.Errorf("step has no operation")
	}
	return entry, nil
}

// receiver returns a receiver that records each delivery in the trace and
// then carries out action.
func (h *Harness) receiver(hid ir.HandlerID, action string) registry.Receiver {
	name := h.name(hid.View)
	return func(ctx context.Context, ev ir.Event) {
		entry := TraceEntry{
			Step:     h.step,
			Op:       OpDeliver,
			View:     name,
			Category: ev.Category().String(),
			Result:   ResultOK,
		}
		if info, ok := ir.PhaseOf(ev.Payload); ok {
			entry.Phase = info.Name
		}
		h.result.add(entry)

		switch action {
		case ActionRemoveSelf:
			report := h.bridge.Apply(ctx, []ir.Patch{ir.Remove{View: hid.View}})
			result := ResultOK
			if report.Deferred {
				result = ResultDeferred
			}
			h.result.add(TraceEntry{Step: h.step, Op: OpRemove, View: name, Result: result})
		case ActionPanic:
			panic(fmt.Sprintf("receiver %s panicked", name))
		}
	}
}

// snapshot converts the final tree to named node states.
func (h *Harness) snapshot() []NodeState {
	nodes := h.bridge.Tree().Snapshot()
	out := make([]NodeState, 0, len(nodes))
	for _, n := range nodes {
		state := NodeState{
			View:     h.name(n.ID),
			Kind:     n.Kind.String(),
			Children: make([]string, 0, len(n.Children)),
		}
		if !n.IsRoot() {
			state.Parent = h.name(n.Parent)
		}
		for _, c := range n.Children {
			state.Children = append(state.Children, h.name(c))
		}
		out = append(out, state)
	}
	return out
}

func (h *Harness) name(id ir.ViewID) string {
	if n, ok := h.names[id]; ok {
		return n
	}
	return id.String()
}

// viewNames maps every view name the scenario mentions to its identifier.
func viewNames(s *Scenario) map[ir.ViewID]string {
	names := make(map[ir.ViewID]string)
	add := func(n string) {
		if n != "" {
			names[ir.NamedViewID(n)] = n
		}
	}
	for i := range s.Steps {
		st := &s.Steps[i]
		add(st.View())
		if st.Subview != nil {
			add(st.Subview.Child)
		}
	}
	return names
}

func resultOf(err error) string {
	if code := ir.CodeOf(err); code != "" {
		return string(code)
	}
	return err.Error()
}
