package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/viewbridge/internal/ir"
)

// TraceSnapshot captures the trace and final tree of a scenario execution.
// All fields use canonical JSON serialization for deterministic comparison.
type TraceSnapshot struct {
	ScenarioName string       `json:"scenario_name"`
	Trace        []TraceEntry `json:"trace"`
	Tree         []NodeState  `json:"tree"`
}

// toCanonicalMap converts a TraceSnapshot to a map[string]any for canonical
// JSON serialization, which only handles primitives, slices and maps.
func (s *TraceSnapshot) toCanonicalMap() map[string]any {
	trace := make([]any, len(s.Trace))
	for i, e := range s.Trace {
		m := map[string]any{
			"step":   e.Step,
			"op":     e.Op,
			"view":   e.View,
			"result": e.Result,
		}
		if e.Child != "" {
			m["child"] = e.Child
		}
		if e.Category != "" {
			m["category"] = e.Category
		}
		if e.Phase != "" {
			m["phase"] = e.Phase
		}
		if e.Seq != 0 {
			m["seq"] = e.Seq
		}
		if e.Violation != "" {
			m["violation"] = e.Violation
		}
		trace[i] = m
	}

	tree := make([]any, len(s.Tree))
	for i, n := range s.Tree {
		m := map[string]any{
			"view":     n.View,
			"kind":     n.Kind,
			"children": n.Children,
		}
		if n.Parent != "" {
			m["parent"] = n.Parent
		}
		tree[i] = m
	}

	return map[string]any{
		"scenario_name": s.ScenarioName,
		"trace":         trace,
		"tree":          tree,
	}
}

// MarshalSnapshot renders a result as canonical JSON.
func MarshalSnapshot(name string, result *Result) ([]byte, error) {
	snapshot := TraceSnapshot{
		ScenarioName: name,
		Trace:        result.Trace,
		Tree:         result.Tree,
	}
	return ir.MarshalCanonical(snapshot.toCanonicalMap())
}

// RunWithGolden executes a scenario and compares its snapshot against a
// golden file stored in testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the snapshot doesn't match.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result against a golden file without
// re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	traceJSON, err := MarshalSnapshot(scenarioName, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, traceJSON)
	return nil
}
