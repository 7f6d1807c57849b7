package wire

import (
	"github.com/roach88/viewbridge/internal/ir"
)

// EncodePatch serializes a patch record.
func EncodePatch(p ir.Patch) ([]byte, error) {
	e := &encoder{buf: make([]byte, 0, 256)}
	e.u8(uint8(KindPatch))
	e.u8(Version)

	switch p := p.(type) {
	case ir.Update:
		e.u8(uint8(ir.PatchUpdate))
		e.view(p.View)
		if err := encodeProps(e, p.View, p.Props); err != nil {
			return nil, err
		}
	case ir.Subview:
		e.u8(uint8(ir.PatchSubview))
		e.view(p.Parent)
		e.view(p.Child)
	case ir.Remove:
		e.u8(uint8(ir.PatchRemove))
		e.view(p.View)
	default:
		return nil, ir.Errorf(ir.ErrCodeMalformed, ir.NilViewID, "cannot encode patch %T", p)
	}
	return e.buf, nil
}

func encodeProps(e *encoder, view ir.ViewID, props ir.Properties) error {
	switch p := props.(type) {
	case ir.LayerProps:
		e.u8(uint8(ir.KindLayer))
		e.vec2(p.Bounds.Origin)
		e.vec2(p.Bounds.Size)
		e.color(p.Background)
		e.f64(p.CornerRadius)
		e.f64(p.BorderWidth)
		e.color(p.BorderColor)
		e.flag(p.ClipContents)
		m := p.Transform
		for _, v := range []float64{m.M00, m.M01, m.M02, m.M10, m.M11, m.M12, m.M20, m.M21, m.M22} {
			e.f64(v)
		}
		e.f64(p.Opacity)
	case ir.OpaqueProps:
		if !p.NodeKind.Valid() {
			return ir.Errorf(ir.ErrCodeUnknownTag, view, "unknown node kind %d", uint8(p.NodeKind))
		}
		if p.NodeKind == ir.KindLayer {
			return ir.Errorf(ir.ErrCodeMalformed, view, "layer properties must use LayerProps")
		}
		if len(p.Data) > MaxRecordSize {
			return ir.Errorf(ir.ErrCodeMalformed, view, "opaque payload of %d bytes exceeds limit", len(p.Data))
		}
		e.u8(uint8(p.NodeKind))
		e.bytes(p.Data)
	default:
		return ir.Errorf(ir.ErrCodeMalformed, view, "update has no properties")
	}
	return nil
}

// DecodePatch parses a single patch record. The whole slice must be consumed.
func DecodePatch(b []byte) (ir.Patch, error) {
	d := &decoder{b: b}
	d.header(KindPatch)
	p := decodePatchBody(d)
	if err := d.finish(); err != nil {
		return nil, err
	}
	return p, nil
}

func decodePatchBody(d *decoder) ir.Patch {
	typ := ir.PatchType(d.u8())
	view := d.view()
	if d.err != nil {
		return nil
	}

	switch typ {
	case ir.PatchUpdate:
		props := decodeProps(d, view)
		return ir.Update{View: view, Props: props}
	case ir.PatchSubview:
		return ir.Subview{Parent: view, Child: d.view()}
	case ir.PatchRemove:
		return ir.Remove{View: view}
	default:
		d.fail(ir.ErrCodeUnknownTag, "unknown patch type %d", uint8(typ))
		return nil
	}
}

func decodeProps(d *decoder, view ir.ViewID) ir.Properties {
	kind := ir.NodeKind(d.u8())
	if d.err != nil {
		return nil
	}

	switch {
	case kind == ir.KindLayer:
		var p ir.LayerProps
		p.Bounds = ir.Rect{Origin: d.vec2(), Size: d.vec2()}
		p.Background = d.color()
		p.CornerRadius = d.f64()
		p.BorderWidth = d.f64()
		p.BorderColor = d.color()
		p.ClipContents = d.flag()
		p.Transform = ir.Matrix3{
			M00: d.f64(), M01: d.f64(), M02: d.f64(),
			M10: d.f64(), M11: d.f64(), M12: d.f64(),
			M20: d.f64(), M21: d.f64(), M22: d.f64(),
		}
		p.Opacity = d.f64()
		return p
	case kind.Valid():
		return ir.OpaqueProps{NodeKind: kind, Data: d.bytes()}
	default:
		d.err = ir.Errorf(ir.ErrCodeUnknownTag, view, "unknown node kind %d", uint8(kind))
		return nil
	}
}
