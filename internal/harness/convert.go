package harness

import (
	"fmt"

	"github.com/roach88/viewbridge/internal/ir"
	"github.com/roach88/viewbridge/internal/wire"
)

// Step operation names, as they appear in the trace.
const (
	OpUpdate     = "update"
	OpSubview    = "subview"
	OpRemove     = "remove"
	OpConfirm    = "confirm"
	OpRegister   = "register"
	OpUnregister = "unregister"
	OpEvent      = "event"
	OpDeliver    = "deliver"
)

func (st *Step) opCount() int {
	n := 0
	for _, set := range []bool{
		st.Update != nil, st.Subview != nil, st.Remove != nil, st.Confirm != nil,
		st.Register != nil, st.Unregister != nil, st.Event != nil,
	} {
		if set {
			n++
		}
	}
	return n
}

// Op returns the name of the step's operation.
func (st *Step) Op() string {
	switch {
	case st.Update != nil:
		return OpUpdate
	case st.Subview != nil:
		return OpSubview
	case st.Remove != nil:
		return OpRemove
	case st.Confirm != nil:
		return OpConfirm
	case st.Register != nil:
		return OpRegister
	case st.Unregister != nil:
		return OpUnregister
	case st.Event != nil:
		return OpEvent
	default:
		return ""
	}
}

// View returns the name of the view the step is addressed to.
func (st *Step) View() string {
	switch {
	case st.Update != nil:
		return st.Update.View
	case st.Subview != nil:
		return st.Subview.Parent
	case st.Remove != nil:
		return st.Remove.View
	case st.Confirm != nil:
		return st.Confirm.View
	case st.Register != nil:
		return st.Register.View
	case st.Unregister != nil:
		return st.Unregister.View
	case st.Event != nil:
		return st.Event.View
	default:
		return ""
	}
}

// Patch returns the step as a patch. ok is false for steps that are not
// patches.
func (st *Step) Patch() (p ir.Patch, ok bool, err error) {
	switch {
	case st.Update != nil:
		p, err = st.Update.patch()
		return p, true, err
	case st.Subview != nil:
		p, err = st.Subview.patch()
		return p, true, err
	case st.Remove != nil:
		return ir.Remove{View: ir.NamedViewID(st.Remove.View)}, true, nil
	default:
		return nil, false, nil
	}
}

func (u *UpdateStep) patch() (ir.Patch, error) {
	if err := requireName("update", u.View); err != nil {
		return nil, err
	}
	if (u.Layer == nil) == (u.Opaque == nil) {
		return nil, fmt.Errorf("update %s: exactly one of layer and opaque is required", u.View)
	}

	id := ir.NamedViewID(u.View)
	if u.Opaque != nil {
		kind, err := ir.ParseNodeKind(u.Opaque.Kind)
		if err != nil {
			return nil, fmt.Errorf("update %s: %w", u.View, err)
		}
		if kind == ir.KindLayer {
			return nil, fmt.Errorf("update %s: opaque properties cannot be a layer", u.View)
		}
		return ir.Update{View: id, Props: ir.OpaqueProps{NodeKind: kind, Data: []byte(u.Opaque.Data)}}, nil
	}

	props, err := u.Layer.props()
	if err != nil {
		return nil, fmt.Errorf("update %s: %w", u.View, err)
	}
	return ir.Update{View: id, Props: props}, nil
}

func (l *LayerSpec) props() (ir.LayerProps, error) {
	p := ir.LayerProps{Transform: ir.Identity3, Opacity: 1}
	if l.Opacity != nil {
		p.Opacity = *l.Opacity
	}
	p.CornerRadius = l.CornerRadius
	p.BorderWidth = l.BorderWidth
	p.ClipContents = l.Clip

	if l.Bounds != nil {
		if len(l.Bounds) != 4 {
			return p, fmt.Errorf("bounds needs 4 values, got %d", len(l.Bounds))
		}
		p.Bounds = ir.Rect{
			Origin: ir.Vector2{X: l.Bounds[0], Y: l.Bounds[1]},
			Size:   ir.Vector2{X: l.Bounds[2], Y: l.Bounds[3]},
		}
	}
	var err error
	if p.Background, err = color("background", l.Background); err != nil {
		return p, err
	}
	if p.BorderColor, err = color("border_color", l.BorderColor); err != nil {
		return p, err
	}
	return p, nil
}

func color(field string, v []float64) (ir.Color, error) {
	if v == nil {
		return ir.Color{}, nil
	}
	if len(v) != 4 {
		return ir.Color{}, fmt.Errorf("%s needs 4 values, got %d", field, len(v))
	}
	return ir.Color{R: v[0], G: v[1], B: v[2], A: v[3]}, nil
}

func (s *SubviewStep) patch() (ir.Patch, error) {
	if s.Parent == "" || s.Child == "" {
		return nil, fmt.Errorf("subview: parent and child are required")
	}
	return ir.Subview{Parent: ir.NamedViewID(s.Parent), Child: ir.NamedViewID(s.Child)}, nil
}

func (h *HandlerRef) handler() (ir.HandlerID, error) {
	return handlerID(h.View, h.Category)
}

func (r *RegisterStep) handler() (ir.HandlerID, error) {
	return handlerID(r.View, r.Category)
}

func handlerID(view, category string) (ir.HandlerID, error) {
	if view == "" {
		return ir.HandlerID{}, fmt.Errorf("handler: view is required")
	}
	c, err := ir.ParseCategory(category)
	if err != nil {
		return ir.HandlerID{}, err
	}
	return ir.HandlerID{View: ir.NamedViewID(view), Category: c}, nil
}

func (e *EventStep) event() (ir.Event, error) {
	if e.View == "" {
		return ir.Event{}, fmt.Errorf("event: view is required")
	}

	n := 0
	for _, set := range []bool{e.Pointer != nil, e.Hover != nil, e.Key != nil, e.Scroll != nil} {
		if set {
			n++
		}
	}
	if n != 1 {
		return ir.Event{}, fmt.Errorf("event %s: exactly one payload is required, got %d", e.View, n)
	}

	var payload ir.Payload
	var err error
	switch {
	case e.Pointer != nil:
		payload, err = e.Pointer.payload()
	case e.Hover != nil:
		payload, err = e.Hover.payload()
	case e.Key != nil:
		payload, err = e.Key.payload()
	default:
		payload = ir.ScrollPayload{
			WindowLocation: ir.Vector2{X: e.Scroll.X, Y: e.Scroll.Y},
			Delta:          ir.Vector2{X: e.Scroll.DX, Y: e.Scroll.DY},
		}
	}
	if err != nil {
		return ir.Event{}, fmt.Errorf("event %s: %w", e.View, err)
	}

	category := payload.Category()
	if e.Category != "" {
		if category, err = ir.ParseCategory(e.Category); err != nil {
			return ir.Event{}, fmt.Errorf("event %s: %w", e.View, err)
		}
	}

	return ir.Event{
		Handler:   ir.HandlerID{View: ir.NamedViewID(e.View), Category: category},
		Timestamp: e.Timestamp,
		Payload:   payload,
	}, nil
}

func (p *PointerSpec) payload() (ir.Payload, error) {
	device, err := parseDevice(p.Device, ir.DeviceTouch)
	if err != nil {
		return nil, err
	}
	phase, err := ir.ParsePointerPhase(p.Phase)
	if err != nil {
		return nil, err
	}
	pressure := 1.0
	if p.Pressure != nil {
		pressure = *p.Pressure
	}
	return ir.PointerPayload{
		Device:         device,
		WindowLocation: ir.Vector2{X: p.X, Y: p.Y},
		Pressure:       pressure,
		Tilt:           ir.DefaultTilt,
		PointerID:      p.ID,
		Phase:          phase,
	}, nil
}

func (h *HoverSpec) payload() (ir.Payload, error) {
	device, err := parseDevice(h.Device, ir.DeviceCursor)
	if err != nil {
		return nil, err
	}
	phase, err := ir.ParseHoverPhase(h.Phase)
	if err != nil {
		return nil, err
	}
	return ir.HoverPayload{
		Device:         device,
		WindowLocation: ir.Vector2{X: h.X, Y: h.Y},
		Tilt:           ir.DefaultTilt,
		PointerID:      h.ID,
		Phase:          phase,
	}, nil
}

func (k *KeySpec) payload() (ir.Payload, error) {
	code, err := ir.ParseKeyCode(k.Code)
	if err != nil {
		return nil, err
	}
	phase, err := ir.ParseKeyPhase(k.Phase)
	if err != nil {
		return nil, err
	}
	return ir.KeyPayload{
		Chars:                 k.Chars,
		CharsWithoutModifiers: k.Chars,
		Code:                  code,
		Phase:                 phase,
		Modifiers: ir.Modifiers{
			Shift:   k.Shift,
			Control: k.Control,
			Option:  k.Option,
			Command: k.Command,
		},
	}, nil
}

func parseDevice(s string, def ir.PointerDevice) (ir.PointerDevice, error) {
	if s == "" {
		return def, nil
	}
	return ir.ParsePointerDevice(s)
}

// Records converts the scenario's patches and events to wire records in
// step order. Confirm, register and unregister steps have no wire form and
// are skipped.
func Records(s *Scenario) ([]wire.Record, error) {
	var out []wire.Record
	for i := range s.Steps {
		st := &s.Steps[i]
		if p, ok, err := st.Patch(); ok {
			if err != nil {
				return nil, fmt.Errorf("steps[%d]: %w", i, err)
			}
			out = append(out, wire.Record{Kind: wire.KindPatch, Patch: p})
			continue
		}
		if st.Event != nil {
			ev, err := st.Event.event()
			if err != nil {
				return nil, fmt.Errorf("steps[%d]: %w", i, err)
			}
			out = append(out, wire.Record{Kind: wire.KindEvent, Event: ev})
		}
	}
	return out, nil
}
