package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/viewbridge/internal/ir"
)

var (
	viewA = ir.NamedViewID("wire-a")
	viewB = ir.NamedViewID("wire-b")
)

func fullLayer() ir.LayerProps {
	return ir.LayerProps{
		Bounds:       ir.Rect{Origin: ir.Vector2{X: 1, Y: 2}, Size: ir.Vector2{X: 3, Y: 4}},
		Background:   ir.Color{R: 0.1, G: 0.2, B: 0.3, A: 0.4},
		CornerRadius: 5,
		BorderWidth:  6,
		BorderColor:  ir.Color{R: 0.5, G: 0.6, B: 0.7, A: 0.8},
		ClipContents: true,
		Transform: ir.Matrix3{
			M00: 9, M01: 10, M02: 11,
			M10: 12, M11: 13, M12: 14,
			M20: 15, M21: 16, M22: 17,
		},
		Opacity: 0.75,
	}
}

func samplePatches() []ir.Patch {
	return []ir.Patch{
		ir.Update{View: viewA, Props: fullLayer()},
		ir.Update{View: viewA, Props: ir.LayerProps{}},
		ir.Update{View: viewB, Props: ir.OpaqueProps{NodeKind: ir.KindText, Data: []byte("hello")}},
		ir.Update{View: viewB, Props: ir.OpaqueProps{NodeKind: ir.KindSurfaceSink}},
		ir.Subview{Parent: viewA, Child: viewB},
		ir.Remove{View: viewB},
	}
}

func sampleEvents() []ir.Event {
	mods := ir.Modifiers{Shift: true, Command: true}
	return []ir.Event{
		{
			Handler:   ir.HandlerID{View: viewA, Category: ir.CategoryHover},
			Timestamp: 1.5,
			Payload: ir.HoverPayload{
				Device:         ir.DeviceCursor,
				WindowLocation: ir.Vector2{X: 10, Y: 20},
				Tilt:           ir.DefaultTilt,
				PointerID:      7,
				Phase:          ir.HoverLeft,
				Modifiers:      mods,
			},
		},
		{
			Handler:   ir.HandlerID{View: viewA, Category: ir.CategoryPointer},
			Timestamp: 2.25,
			Payload: ir.PointerPayload{
				Device:         ir.DevicePen,
				WindowLocation: ir.Vector2{X: -1, Y: 3.5},
				Pressure:       0.8,
				Tilt:           ir.Vector3{X: 0.1, Y: 0.2, Z: 0.3},
				PointerID:      1 << 40,
				Phase:          ir.PointerCanceled,
				Modifiers:      ir.Modifiers{Control: true, Option: true},
			},
		},
		{
			Handler: ir.HandlerID{View: viewB, Category: ir.CategoryKey},
			Payload: ir.KeyPayload{
				Chars:                 "é",
				CharsWithoutModifiers: "e",
				Code:                  ir.KeyE,
				Phase:                 ir.KeyRepeat,
				Modifiers:             mods,
			},
		},
		{
			Handler: ir.HandlerID{View: viewB, Category: ir.CategoryKey},
			Payload: ir.KeyPayload{Code: ir.KeyEscape, Phase: ir.KeyDown},
		},
		{
			Handler:   ir.HandlerID{View: viewB, Category: ir.CategoryScroll},
			Timestamp: 9,
			Payload:   ir.ScrollPayload{WindowLocation: ir.Vector2{X: 4, Y: 5}, Delta: ir.Vector2{X: 0, Y: -12}},
		},
	}
}

// =============================================================================
// Round trip
// =============================================================================

func TestPatch_RoundTrip(t *testing.T) {
	for _, p := range samplePatches() {
		b, err := EncodePatch(p)
		require.NoError(t, err)

		got, err := DecodePatch(b)
		require.NoError(t, err)
		assert.True(t, ir.PatchEqual(p, got), "%#v != %#v", p, got)
	}
}

func TestEvent_RoundTrip(t *testing.T) {
	for _, ev := range sampleEvents() {
		b, err := EncodeEvent(ev)
		require.NoError(t, err)

		got, err := DecodeEvent(b)
		require.NoError(t, err)
		assert.True(t, ir.EventEqual(ev, got), "%#v != %#v", ev, got)
	}
}

func TestHandlerID_RoundTrip(t *testing.T) {
	hid := ir.HandlerID{View: viewA, Category: ir.CategoryScroll}
	b := EncodeHandlerID(hid)
	require.Len(t, b, handlerIDSize)

	got, err := DecodeHandlerID(b)
	require.NoError(t, err)
	assert.Equal(t, hid, got)

	b[16] = 9
	_, err = DecodeHandlerID(b)
	assert.True(t, ir.IsCode(err, ir.ErrCodeUnknownTag))
}

// =============================================================================
// Layout
// =============================================================================

func TestPatch_Layout(t *testing.T) {
	b, err := EncodePatch(ir.Remove{View: viewA})
	require.NoError(t, err)
	require.Len(t, b, 2+1+16)
	assert.Equal(t, []byte{0x01, Version, 0x02}, b[:3])
	id := viewA.Bytes()
	assert.Equal(t, id[:], b[3:19])

	b, err = EncodePatch(ir.Update{View: viewA, Props: fullLayer()})
	require.NoError(t, err)
	// 14 floats before the clip flag, then nine transform floats and opacity.
	assert.Len(t, b, 2+1+16+1+24*8+1)
	// Clip flag sits between the border color and the transform.
	assert.Equal(t, byte(1), b[20+14*8])

	b, err = EncodePatch(ir.Subview{Parent: viewA, Child: viewB})
	require.NoError(t, err)
	assert.Len(t, b, 2+1+16+16)
}

func TestEvent_Layout(t *testing.T) {
	ev := sampleEvents()[2]
	b, err := EncodeEvent(ev)
	require.NoError(t, err)

	assert.Equal(t, []byte{0x02, Version, byte(ir.CategoryKey)}, b[:3])
	assert.Equal(t, byte(ir.CategoryKey), b[19])
	// "é" is two bytes of UTF-8.
	assert.Equal(t, []byte{2, 0, 0, 0}, b[28:32])
}

// =============================================================================
// Unknown tags
// =============================================================================

func mutate(b []byte, i int, v byte) []byte {
	out := append([]byte(nil), b...)
	out[i] = v
	return out
}

func TestDecode_UnknownTags(t *testing.T) {
	remove, err := EncodePatch(ir.Remove{View: viewA})
	require.NoError(t, err)
	opaque, err := EncodePatch(ir.Update{View: viewB, Props: ir.OpaqueProps{NodeKind: ir.KindText}})
	require.NoError(t, err)
	pointer, err := EncodeEvent(sampleEvents()[1])
	require.NoError(t, err)
	key, err := EncodeEvent(ir.Event{
		Handler: ir.HandlerID{View: viewA, Category: ir.CategoryKey},
		Payload: ir.KeyPayload{Chars: "a", CharsWithoutModifiers: "a", Code: ir.KeyA},
	})
	require.NoError(t, err)

	tests := []struct {
		name string
		data []byte
	}{
		{"record kind", mutate(remove, 0, 0x09)},
		{"version", mutate(remove, 1, Version+1)},
		{"patch type", mutate(remove, 2, 7)},
		{"node kind", mutate(opaque, 19, 9)},
		{"event category", mutate(pointer, 2, 9)},
		{"handler category", mutate(pointer, 19, 9)},
		{"pointer device", mutate(pointer, 28, 9)},
		{"pointer phase", mutate(pointer, 28+1+16+8+24+8, 9)},
		{"key code", mutate(key, 38, 0x1B)},
		{"key phase", mutate(key, 39, 3)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.data)
			require.Error(t, err)
			assert.Equal(t, ir.ErrCodeUnknownTag, ir.CodeOf(err), "%v", err)
		})
	}
}

func TestEncode_RejectsUnknownTags(t *testing.T) {
	_, err := EncodeEvent(ir.Event{
		Handler: ir.HandlerID{View: viewA, Category: ir.CategoryPointer},
		Payload: ir.PointerPayload{Phase: 9},
	})
	assert.True(t, ir.IsCode(err, ir.ErrCodeUnknownTag))

	_, err = EncodePatch(ir.Update{View: viewA, Props: ir.OpaqueProps{NodeKind: 9}})
	assert.True(t, ir.IsCode(err, ir.ErrCodeUnknownTag))
}

func TestEncode_RejectsInvalidUTF8(t *testing.T) {
	for _, p := range []ir.KeyPayload{
		{Chars: "\xff", CharsWithoutModifiers: "a", Code: ir.KeyA},
		{Chars: "a", CharsWithoutModifiers: "b\xc3", Code: ir.KeyA},
	} {
		b, err := EncodeEvent(ir.Event{
			Handler: ir.HandlerID{View: viewA, Category: ir.CategoryKey},
			Payload: p,
		})
		assert.Nil(t, b)
		assert.True(t, ir.IsCode(err, ir.ErrCodeMalformed), "%q/%q", p.Chars, p.CharsWithoutModifiers)
	}
}

// =============================================================================
// Malformed input
// =============================================================================

func TestDecode_TruncatedIsMalformed(t *testing.T) {
	var records [][]byte
	for _, p := range samplePatches() {
		b, err := EncodePatch(p)
		require.NoError(t, err)
		records = append(records, b)
	}
	for _, ev := range sampleEvents() {
		b, err := EncodeEvent(ev)
		require.NoError(t, err)
		records = append(records, b)
	}

	for _, rec := range records {
		for n := 1; n < len(rec); n++ {
			_, err := Decode(rec[:n])
			require.Error(t, err, "prefix of %d/%d bytes", n, len(rec))
			assert.Equal(t, ir.ErrCodeMalformed, ir.CodeOf(err), "prefix of %d/%d bytes: %v", n, len(rec), err)
		}
	}

	_, err := Decode(nil)
	assert.True(t, ir.IsCode(err, ir.ErrCodeMalformed))
}

func TestDecode_TrailingBytes(t *testing.T) {
	b, err := EncodePatch(ir.Remove{View: viewA})
	require.NoError(t, err)

	_, err = DecodePatch(append(b, 0))
	assert.True(t, ir.IsCode(err, ir.ErrCodeMalformed))
}

func TestDecode_CategoryDisagreement(t *testing.T) {
	b, err := EncodeEvent(sampleEvents()[4])
	require.NoError(t, err)

	_, err = DecodeEvent(mutate(b, 19, byte(ir.CategoryPointer)))
	assert.True(t, ir.IsCode(err, ir.ErrCodeMalformed))

	_, err = EncodeEvent(ir.Event{
		Handler: ir.HandlerID{View: viewA, Category: ir.CategoryPointer},
		Payload: ir.ScrollPayload{},
	})
	assert.True(t, ir.IsCode(err, ir.ErrCodeMalformed))
}

func TestDecode_BadFlagAndString(t *testing.T) {
	key, err := EncodeEvent(ir.Event{
		Handler: ir.HandlerID{View: viewA, Category: ir.CategoryKey},
		Payload: ir.KeyPayload{Chars: "a", CharsWithoutModifiers: "a", Code: ir.KeyA},
	})
	require.NoError(t, err)

	_, err = DecodeEvent(mutate(key, 40, 2))
	assert.True(t, ir.IsCode(err, ir.ErrCodeMalformed), "modifier byte 2")

	_, err = DecodeEvent(mutate(key, 32, 0xff))
	assert.True(t, ir.IsCode(err, ir.ErrCodeMalformed), "invalid UTF-8")
}

func TestDecode_WrongRecordKind(t *testing.T) {
	b, err := EncodePatch(ir.Remove{View: viewA})
	require.NoError(t, err)

	_, err = DecodeEvent(b)
	assert.True(t, ir.IsCode(err, ir.ErrCodeMalformed))
}
