package wire

import (
	"fmt"
	"unicode/utf8"

	"github.com/roach88/viewbridge/internal/ir"
)

// handlerIDSize is the encoded size of a handler identifier.
const handlerIDSize = 17

// EncodeHandlerID serializes a handler identifier: view then category.
func EncodeHandlerID(hid ir.HandlerID) []byte {
	e := &encoder{buf: make([]byte, 0, handlerIDSize)}
	e.view(hid.View)
	e.u8(uint8(hid.Category))
	return e.buf
}

// DecodeHandlerID parses a handler identifier.
func DecodeHandlerID(b []byte) (ir.HandlerID, error) {
	d := &decoder{b: b}
	hid := decodeHandlerID(d)
	if err := d.finish(); err != nil {
		return ir.HandlerID{}, err
	}
	return hid, nil
}

func decodeHandlerID(d *decoder) ir.HandlerID {
	view := d.view()
	c := ir.Category(d.u8())
	if d.err == nil && !c.Valid() {
		d.fail(ir.ErrCodeUnknownTag, "unknown handler category %d", uint8(c))
	}
	return ir.HandlerID{View: view, Category: c}
}

// EncodeEvent serializes an event record. The handler category must agree
// with the payload.
func EncodeEvent(ev ir.Event) ([]byte, error) {
	if ev.Payload == nil {
		return nil, ir.Errorf(ir.ErrCodeMalformed, ev.Handler.View, "event has no payload")
	}
	cat := ev.Payload.Category()
	if ev.Handler.Category != cat {
		return nil, ir.Errorf(ir.ErrCodeMalformed, ev.Handler.View,
			"handler category %s disagrees with %s payload", ev.Handler.Category, cat)
	}

	if err := validatePayload(ev.Payload); err != nil {
		return nil, ir.Errorf(ir.ErrCodeUnknownTag, ev.Handler.View, "%s", err.Error())
	}
	if k, ok := ev.Payload.(ir.KeyPayload); ok {
		if !utf8.ValidString(k.Chars) || !utf8.ValidString(k.CharsWithoutModifiers) {
			return nil, ir.Errorf(ir.ErrCodeMalformed, ev.Handler.View, "key characters are not valid UTF-8")
		}
	}

	e := &encoder{buf: make([]byte, 0, 128)}
	e.u8(uint8(KindEvent))
	e.u8(Version)
	e.u8(uint8(cat))
	e.view(ev.Handler.View)
	e.u8(uint8(ev.Handler.Category))
	e.f64(ev.Timestamp)

	switch p := ev.Payload.(type) {
	case ir.HoverPayload:
		e.u8(uint8(p.Device))
		e.vec2(p.WindowLocation)
		e.vec3(p.Tilt)
		e.u64(p.PointerID)
		e.u8(uint8(p.Phase))
		e.modifiers(p.Modifiers)
	case ir.PointerPayload:
		e.u8(uint8(p.Device))
		e.vec2(p.WindowLocation)
		e.f64(p.Pressure)
		e.vec3(p.Tilt)
		e.u64(p.PointerID)
		e.u8(uint8(p.Phase))
		e.modifiers(p.Modifiers)
	case ir.KeyPayload:
		e.bytes([]byte(p.Chars))
		e.bytes([]byte(p.CharsWithoutModifiers))
		e.u8(uint8(p.Code))
		e.u8(uint8(p.Phase))
		e.modifiers(p.Modifiers)
	case ir.ScrollPayload:
		e.vec2(p.WindowLocation)
		e.vec2(p.Delta)
	default:
		return nil, ir.Errorf(ir.ErrCodeMalformed, ev.Handler.View, "cannot encode payload %T", p)
	}
	return e.buf, nil
}

// DecodeEvent parses a single event record. The whole slice must be consumed.
func DecodeEvent(b []byte) (ir.Event, error) {
	d := &decoder{b: b}
	d.header(KindEvent)
	ev := decodeEventBody(d)
	if err := d.finish(); err != nil {
		return ir.Event{}, err
	}
	return ev, nil
}

func decodeEventBody(d *decoder) ir.Event {
	cat := ir.Category(d.u8())
	if d.err == nil && !cat.Valid() {
		d.fail(ir.ErrCodeUnknownTag, "unknown event category %d", uint8(cat))
	}
	hid := decodeHandlerID(d)
	ts := d.f64()
	if d.err != nil {
		return ir.Event{}
	}
	if hid.Category != cat {
		d.err = ir.Errorf(ir.ErrCodeMalformed, hid.View,
			"handler category %s disagrees with %s payload", hid.Category, cat)
		return ir.Event{}
	}

	ev := ir.Event{Handler: hid, Timestamp: ts}
	switch cat {
	case ir.CategoryHover:
		var p ir.HoverPayload
		p.Device = decodeDevice(d)
		p.WindowLocation = d.vec2()
		p.Tilt = d.vec3()
		p.PointerID = d.u64()
		p.Phase = ir.HoverPhase(d.u8())
		if d.err == nil && !p.Phase.Valid() {
			d.fail(ir.ErrCodeUnknownTag, "unknown hover phase %d", uint8(p.Phase))
		}
		p.Modifiers = d.modifiers()
		ev.Payload = p
	case ir.CategoryPointer:
		var p ir.PointerPayload
		p.Device = decodeDevice(d)
		p.WindowLocation = d.vec2()
		p.Pressure = d.f64()
		p.Tilt = d.vec3()
		p.PointerID = d.u64()
		p.Phase = ir.PointerPhase(d.u8())
		if d.err == nil && !p.Phase.Valid() {
			d.fail(ir.ErrCodeUnknownTag, "unknown pointer phase %d", uint8(p.Phase))
		}
		p.Modifiers = d.modifiers()
		ev.Payload = p
	case ir.CategoryKey:
		var p ir.KeyPayload
		p.Chars = d.str()
		p.CharsWithoutModifiers = d.str()
		p.Code = ir.KeyCode(d.u8())
		if d.err == nil && !p.Code.Valid() {
			d.fail(ir.ErrCodeUnknownTag, "unknown key code 0x%02x", uint8(p.Code))
		}
		p.Phase = ir.KeyPhase(d.u8())
		if d.err == nil && !p.Phase.Valid() {
			d.fail(ir.ErrCodeUnknownTag, "unknown key phase %d", uint8(p.Phase))
		}
		p.Modifiers = d.modifiers()
		ev.Payload = p
	case ir.CategoryScroll:
		ev.Payload = ir.ScrollPayload{WindowLocation: d.vec2(), Delta: d.vec2()}
	}
	return ev
}

func validatePayload(p ir.Payload) error {
	switch p := p.(type) {
	case ir.HoverPayload:
		if !p.Device.Valid() {
			return fmt.Errorf("unknown pointer device %d", uint8(p.Device))
		}
		if !p.Phase.Valid() {
			return fmt.Errorf("unknown hover phase %d", uint8(p.Phase))
		}
	case ir.PointerPayload:
		if !p.Device.Valid() {
			return fmt.Errorf("unknown pointer device %d", uint8(p.Device))
		}
		if !p.Phase.Valid() {
			return fmt.Errorf("unknown pointer phase %d", uint8(p.Phase))
		}
	case ir.KeyPayload:
		if !p.Code.Valid() {
			return fmt.Errorf("unknown key code 0x%02x", uint8(p.Code))
		}
		if !p.Phase.Valid() {
			return fmt.Errorf("unknown key phase %d", uint8(p.Phase))
		}
	}
	return nil
}

func decodeDevice(d *decoder) ir.PointerDevice {
	dev := ir.PointerDevice(d.u8())
	if d.err == nil && !dev.Valid() {
		d.fail(ir.ErrCodeUnknownTag, "unknown pointer device %d", uint8(dev))
	}
	return dev
}
