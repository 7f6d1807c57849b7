package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/viewbridge/internal/engine"
)

// Scenario is a scripted sequence of patches, confirmations, handler
// registrations and events run against a fresh bridge.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Policy is the phase policy: "permissive" (default) or "strict".
	Policy string `yaml:"policy,omitempty"`

	// Steps run in order. Each step holds exactly one operation.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final trace and tree.
	// Supported types: trace_contains, trace_order, trace_count, final_state
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Step is one scenario operation. Views are referred to by name; each name
// maps to a stable identifier via ir.NamedViewID.
type Step struct {
	Update     *UpdateStep   `yaml:"update,omitempty"`
	Subview    *SubviewStep  `yaml:"subview,omitempty"`
	Remove     *ViewRef      `yaml:"remove,omitempty"`
	Confirm    *ViewRef      `yaml:"confirm,omitempty"`
	Register   *RegisterStep `yaml:"register,omitempty"`
	Unregister *HandlerRef   `yaml:"unregister,omitempty"`
	Event      *EventStep    `yaml:"event,omitempty"`

	// Expect is the expected step result: "ok", an error code such as
	// CYCLE_DETECTED, "delivered", or a drop reason. Empty skips the check.
	Expect string `yaml:"expect,omitempty"`
}

// ViewRef names a single view.
type ViewRef struct {
	View string `yaml:"view"`
}

// UpdateStep creates or overwrites a view. Exactly one of Layer and Opaque
// is set.
type UpdateStep struct {
	View   string      `yaml:"view"`
	Layer  *LayerSpec  `yaml:"layer,omitempty"`
	Opaque *OpaqueSpec `yaml:"opaque,omitempty"`
}

// LayerSpec lists layer properties. Omitted fields take the values of an
// invisible, untransformed layer; opacity defaults to 1.
type LayerSpec struct {
	// Bounds is x, y, width, height.
	Bounds []float64 `yaml:"bounds,omitempty"`
	// Background and BorderColor are r, g, b, a.
	Background   []float64 `yaml:"background,omitempty"`
	CornerRadius float64   `yaml:"corner_radius,omitempty"`
	BorderWidth  float64   `yaml:"border_width,omitempty"`
	BorderColor  []float64 `yaml:"border_color,omitempty"`
	Clip         bool      `yaml:"clip,omitempty"`
	Opacity      *float64  `yaml:"opacity,omitempty"`
}

// OpaqueSpec is the property set of a non-layer node.
type OpaqueSpec struct {
	Kind string `yaml:"kind"`
	Data string `yaml:"data"`
}

// SubviewStep attaches Child under Parent.
type SubviewStep struct {
	Parent string `yaml:"parent"`
	Child  string `yaml:"child"`
}

// HandlerRef names a handler slot.
type HandlerRef struct {
	View     string `yaml:"view"`
	Category string `yaml:"category"`
}

// Receiver actions.
const (
	// ActionRecord records the delivery.
	ActionRecord = "record"
	// ActionRemoveSelf records the delivery, then removes its own view.
	ActionRemoveSelf = "remove_self"
	// ActionPanic records the delivery, then panics.
	ActionPanic = "panic"
)

// RegisterStep binds a receiver to a handler slot.
type RegisterStep struct {
	View     string `yaml:"view"`
	Category string `yaml:"category"`
	// Action is what the receiver does; defaults to record.
	Action string `yaml:"action,omitempty"`
}

// EventStep dispatches one event. Exactly one payload is set.
type EventStep struct {
	View string `yaml:"view"`
	// Category is the handler category the event is addressed to. It
	// defaults to the payload's category.
	Category  string  `yaml:"category,omitempty"`
	Timestamp float64 `yaml:"timestamp,omitempty"`

	Pointer *PointerSpec `yaml:"pointer,omitempty"`
	Hover   *HoverSpec   `yaml:"hover,omitempty"`
	Key     *KeySpec     `yaml:"key,omitempty"`
	Scroll  *ScrollSpec  `yaml:"scroll,omitempty"`
}

// PointerSpec describes a pointer payload. Device defaults to touch and
// pressure to 1.
type PointerSpec struct {
	ID       uint64   `yaml:"id,omitempty"`
	Device   string   `yaml:"device,omitempty"`
	Phase    string   `yaml:"phase"`
	X        float64  `yaml:"x,omitempty"`
	Y        float64  `yaml:"y,omitempty"`
	Pressure *float64 `yaml:"pressure,omitempty"`
}

// HoverSpec describes a hover payload. Device defaults to cursor.
type HoverSpec struct {
	ID     uint64  `yaml:"id,omitempty"`
	Device string  `yaml:"device,omitempty"`
	Phase  string  `yaml:"phase"`
	X      float64 `yaml:"x,omitempty"`
	Y      float64 `yaml:"y,omitempty"`
}

// KeySpec describes a key payload.
type KeySpec struct {
	Code    string `yaml:"code"`
	Phase   string `yaml:"phase"`
	Chars   string `yaml:"chars,omitempty"`
	Shift   bool   `yaml:"shift,omitempty"`
	Control bool   `yaml:"control,omitempty"`
	Option  bool   `yaml:"option,omitempty"`
	Command bool   `yaml:"command,omitempty"`
}

// ScrollSpec describes a scroll payload.
type ScrollSpec struct {
	X  float64 `yaml:"x,omitempty"`
	Y  float64 `yaml:"y,omitempty"`
	DX float64 `yaml:"dx,omitempty"`
	DY float64 `yaml:"dy,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
	AssertFinalState    = "final_state"
)

// Assertion validates the trace or the final tree.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Op and View select trace entries (trace_contains, trace_count).
	// Result, when set, must match too.
	Op     string `yaml:"op,omitempty"`
	View   string `yaml:"view,omitempty"`
	Result string `yaml:"result,omitempty"`

	// Count is the expected number of matching entries (trace_count).
	Count int `yaml:"count,omitempty"`

	// Entries are "op:view" pairs expected in this order (trace_order).
	Entries []string `yaml:"entries,omitempty"`

	// Parent, Kind and Children describe the view's final state
	// (final_state). Absent asserts that the view no longer exists.
	Parent   string   `yaml:"parent,omitempty"`
	Kind     string   `yaml:"kind,omitempty"`
	Children []string `yaml:"children,omitempty"`
	Absent   bool     `yaml:"absent,omitempty"`
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or fails validation.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "subveiw:".
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks required fields and converts every step once so
// that bad enums and shapes are reported before anything runs.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	if s.Policy != "" {
		if _, err := engine.ParsePhasePolicy(s.Policy); err != nil {
			return err
		}
	}

	for i := range s.Steps {
		if err := validateStep(&s.Steps[i]); err != nil {
			return fmt.Errorf("steps[%d]: %w", i, err)
		}
	}

	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(st *Step) error {
	if n := st.opCount(); n != 1 {
		return fmt.Errorf("exactly one operation is required, got %d", n)
	}

	switch {
	case st.Update != nil:
		_, err := st.Update.patch()
		return err
	case st.Subview != nil:
		_, err := st.Subview.patch()
		return err
	case st.Remove != nil:
		return requireName("remove", st.Remove.View)
	case st.Confirm != nil:
		return requireName("confirm", st.Confirm.View)
	case st.Register != nil:
		if _, err := st.Register.handler(); err != nil {
			return err
		}
		switch st.Register.Action {
		case "", ActionRecord, ActionRemoveSelf, ActionPanic:
			return nil
		default:
			return fmt.Errorf("register: unknown action %q", st.Register.Action)
		}
	case st.Unregister != nil:
		_, err := st.Unregister.handler()
		return err
	default:
		_, err := st.Event.event()
		return err
	}
}

func requireName(op, name string) error {
	if name == "" {
		return fmt.Errorf("%s: view is required", op)
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertTraceContains:
		if a.Op == "" {
			return fmt.Errorf("assertions[%d]: op is required for trace_contains", index)
		}
	case AssertTraceOrder:
		if len(a.Entries) == 0 {
			return fmt.Errorf("assertions[%d]: entries list is required for trace_order", index)
		}
	case AssertTraceCount:
		if a.Op == "" {
			return fmt.Errorf("assertions[%d]: op is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	case AssertFinalState:
		if a.View == "" {
			return fmt.Errorf("assertions[%d]: view is required for final_state", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
