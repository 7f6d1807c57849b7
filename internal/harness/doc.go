// Package harness runs scripted bridge scenarios and checks their traces.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	policy: strict
//	steps:
//	  - update: { view: root, layer: { bounds: [0, 0, 320, 480] } }
//	  - update: { view: label, opaque: { kind: text, data: "hi" } }
//	  - subview: { parent: root, child: label }
//	  - register: { view: label, category: pointer, action: remove_self }
//	  - event: { view: label, pointer: { id: 1, phase: began } }
//	    expect: delivered
//	  - confirm: { view: label }
//	assertions:
//	  - type: trace_contains
//	    op: deliver
//	    view: label
//	  - type: final_state
//	    view: label
//	    absent: true
//
// Views are named; each name maps to a stable identifier via
// ir.NamedViewID, so traces and golden files never contain random ids.
//
// # Assertion Types
//
//   - trace_contains: an entry with the op (and view, result) exists
//   - trace_order: "op:view" entries appear in the given order
//   - trace_count: exactly N entries match
//   - final_state: a view's parent, kind and children, or its absence
//
// # Golden Files
//
// RunWithGolden renders the trace and final tree as canonical JSON and
// compares it with testdata/golden/{name}.golden using goldie.
package harness
