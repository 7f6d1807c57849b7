package harness

import (
	"fmt"
	"slices"
	"strings"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEntry // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for i, entry := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] step %d %s %s -> %s\n", i+1, entry.Step, entry.Op, entry.View, entry.Result)
		}
	}
	return buf.String()
}

// matches reports whether entry has the assertion's op, and its view and
// result when those are set.
func matches(entry TraceEntry, a Assertion) bool {
	if entry.Op != a.Op {
		return false
	}
	if a.View != "" && entry.View != a.View {
		return false
	}
	return a.Result == "" || entry.Result == a.Result
}

func describe(a Assertion) string {
	s := a.Op
	if a.View != "" {
		s += " " + a.View
	}
	if a.Result != "" {
		s += " -> " + a.Result
	}
	return s
}

// assertTraceContains checks that some entry matches.
func assertTraceContains(trace []TraceEntry, a Assertion) error {
	for _, entry := range trace {
		if matches(entry, a) {
			return nil
		}
	}
	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: describe(a),
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

// assertTraceCount checks that exactly Count entries match.
func assertTraceCount(trace []TraceEntry, a Assertion) error {
	count := 0
	for _, entry := range trace {
		if matches(entry, a) {
			count++
		}
	}
	if count != a.Count {
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%d occurrences of %s", a.Count, describe(a)),
			Actual:   fmt.Sprintf("%d occurrences", count),
			Trace:    trace,
		}
	}
	return nil
}

// assertTraceOrder checks that "op:view" entries appear in the given order.
// They need not be consecutive; each is matched after the previous match.
func assertTraceOrder(trace []TraceEntry, a Assertion) error {
	pos := 0
	for _, want := range a.Entries {
		op, view, _ := strings.Cut(want, ":")
		found := false
		for pos < len(trace) {
			entry := trace[pos]
			pos++
			if entry.Op == op && (view == "" || entry.View == view) {
				found = true
				break
			}
		}
		if !found {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("entries in order: %v", a.Entries),
				Actual:   fmt.Sprintf("%s not found after the previous entry", want),
				Trace:    trace,
			}
		}
	}
	return nil
}

// assertFinalState checks one view of the final tree.
func assertFinalState(tree []NodeState, a Assertion) error {
	idx := slices.IndexFunc(tree, func(n NodeState) bool { return n.View == a.View })

	if a.Absent {
		if idx >= 0 {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("view %s absent", a.View),
				Actual:   "view exists",
			}
		}
		return nil
	}
	if idx < 0 {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("view %s exists", a.View),
			Actual:   "view not found",
		}
	}

	node := tree[idx]
	if a.Parent != "" && node.Parent != a.Parent {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("view %s under %s", a.View, a.Parent),
			Actual:   fmt.Sprintf("parent %q", node.Parent),
		}
	}
	if a.Kind != "" && node.Kind != a.Kind {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("view %s of kind %s", a.View, a.Kind),
			Actual:   fmt.Sprintf("kind %s", node.Kind),
		}
	}
	if a.Children != nil && !slices.Equal(node.Children, a.Children) {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("view %s children %v", a.View, a.Children),
			Actual:   fmt.Sprintf("children %v", node.Children),
		}
	}
	return nil
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertTraceContains:
			err = assertTraceContains(result.Trace, assertion)
		case AssertTraceOrder:
			err = assertTraceOrder(result.Trace, assertion)
		case AssertTraceCount:
			err = assertTraceCount(result.Trace, assertion)
		case AssertFinalState:
			err = assertFinalState(result.Tree, assertion)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
