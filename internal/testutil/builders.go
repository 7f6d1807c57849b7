package testutil

import (
	"io"
	"log/slog"

	"github.com/roach88/viewbridge/internal/ir"
)

// DiscardLogger returns a logger that drops everything.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Layer returns layer properties with an identity transform.
func Layer(opacity float64) ir.LayerProps {
	return ir.LayerProps{Transform: ir.Identity3, Opacity: opacity}
}

// Text returns opaque text properties.
func Text(s string) ir.OpaqueProps {
	return ir.OpaqueProps{NodeKind: ir.KindText, Data: []byte(s)}
}

// Update builds an update patch for a named view.
func Update(name string, props ir.Properties) ir.Patch {
	return ir.Update{View: ir.NamedViewID(name), Props: props}
}

// Subview builds a subview patch between named views.
func Subview(parent, child string) ir.Patch {
	return ir.Subview{Parent: ir.NamedViewID(parent), Child: ir.NamedViewID(child)}
}

// Remove builds a remove patch for a named view.
func Remove(name string) ir.Patch {
	return ir.Remove{View: ir.NamedViewID(name)}
}

// Handler returns the handler id for a named view.
func Handler(name string, c ir.Category) ir.HandlerID {
	return ir.HandlerID{View: ir.NamedViewID(name), Category: c}
}

// Pointer builds a touch pointer event.
func Pointer(name string, pointerID uint64, phase ir.PointerPhase) ir.Event {
	return ir.Event{
		Handler: Handler(name, ir.CategoryPointer),
		Payload: ir.PointerPayload{
			Device:    ir.DeviceTouch,
			Pressure:  1,
			Tilt:      ir.DefaultTilt,
			PointerID: pointerID,
			Phase:     phase,
		},
	}
}

// Hover builds a cursor hover event.
func Hover(name string, phase ir.HoverPhase) ir.Event {
	return ir.Event{
		Handler: Handler(name, ir.CategoryHover),
		Payload: ir.HoverPayload{Device: ir.DeviceCursor, Tilt: ir.DefaultTilt, Phase: phase},
	}
}

// Key builds a key event with no modifiers.
func Key(name string, code ir.KeyCode, phase ir.KeyPhase) ir.Event {
	return ir.Event{
		Handler: Handler(name, ir.CategoryKey),
		Payload: ir.KeyPayload{Code: code, Phase: phase},
	}
}

// Scroll builds a scroll event.
func Scroll(name string, dy float64) ir.Event {
	return ir.Event{
		Handler: Handler(name, ir.CategoryScroll),
		Payload: ir.ScrollPayload{Delta: ir.Vector2{Y: dy}},
	}
}
