package wire

import (
	"encoding/binary"
	"math"
	"unicode/utf8"

	"github.com/roach88/viewbridge/internal/ir"
)

// Version is the layout version written into every record header.
// Any change to a layout bumps it.
const Version uint8 = 1

// RecordKind is the first byte of every record.
type RecordKind uint8

const (
	KindPatch RecordKind = 0x01
	KindEvent RecordKind = 0x02
)

func (k RecordKind) String() string {
	switch k {
	case KindPatch:
		return "patch"
	case KindEvent:
		return "event"
	default:
		return "unknown"
	}
}

// MaxRecordSize bounds a single record. Opaque payloads and strings larger
// than this are rejected as malformed.
const MaxRecordSize = 1 << 24

// encoder appends little-endian fields to a byte slice.
type encoder struct {
	buf []byte
}

func (e *encoder) u8(v uint8)   { e.buf = append(e.buf, v) }
func (e *encoder) u32(v uint32) { e.buf = binary.LittleEndian.AppendUint32(e.buf, v) }
func (e *encoder) u64(v uint64) { e.buf = binary.LittleEndian.AppendUint64(e.buf, v) }
func (e *encoder) f64(v float64) {
	e.buf = binary.LittleEndian.AppendUint64(e.buf, math.Float64bits(v))
}

func (e *encoder) flag(v bool) {
	if v {
		e.u8(1)
	} else {
		e.u8(0)
	}
}

func (e *encoder) view(id ir.ViewID) {
	b := id.Bytes()
	e.buf = append(e.buf, b[:]...)
}

func (e *encoder) bytes(b []byte) {
	e.u32(uint32(len(b)))
	e.buf = append(e.buf, b...)
}

func (e *encoder) vec2(v ir.Vector2) {
	e.f64(v.X)
	e.f64(v.Y)
}

func (e *encoder) vec3(v ir.Vector3) {
	e.f64(v.X)
	e.f64(v.Y)
	e.f64(v.Z)
}

func (e *encoder) color(c ir.Color) {
	e.f64(c.R)
	e.f64(c.G)
	e.f64(c.B)
	e.f64(c.A)
}

func (e *encoder) modifiers(m ir.Modifiers) {
	e.flag(m.Shift)
	e.flag(m.Control)
	e.flag(m.Option)
	e.flag(m.Command)
}

// decoder reads fields with a sticky error: after the first failure every
// read returns the zero value and the error is reported once by the caller.
type decoder struct {
	b   []byte
	off int
	err error
}

func (d *decoder) fail(code ir.ErrorCode, format string, args ...any) {
	if d.err == nil {
		d.err = ir.Errorf(code, ir.NilViewID, format, args...)
	}
}

func (d *decoder) take(n int) []byte {
	if d.err != nil {
		return nil
	}
	if n < 0 || len(d.b)-d.off < n {
		d.fail(ir.ErrCodeMalformed, "truncated record: need %d bytes at offset %d, have %d", n, d.off, len(d.b)-d.off)
		return nil
	}
	p := d.b[d.off : d.off+n]
	d.off += n
	return p
}

func (d *decoder) u8() uint8 {
	if p := d.take(1); p != nil {
		return p[0]
	}
	return 0
}

func (d *decoder) u32() uint32 {
	if p := d.take(4); p != nil {
		return binary.LittleEndian.Uint32(p)
	}
	return 0
}

func (d *decoder) u64() uint64 {
	if p := d.take(8); p != nil {
		return binary.LittleEndian.Uint64(p)
	}
	return 0
}

func (d *decoder) f64() float64 { return math.Float64frombits(d.u64()) }

func (d *decoder) flag() bool {
	switch v := d.u8(); v {
	case 0:
		return false
	case 1:
		return true
	default:
		d.fail(ir.ErrCodeMalformed, "flag byte %d at offset %d is not 0 or 1", v, d.off-1)
		return false
	}
}

func (d *decoder) view() ir.ViewID {
	var id ir.ViewID
	if p := d.take(16); p != nil {
		copy(id[:], p)
	}
	return id
}

func (d *decoder) bytes() []byte {
	n := d.u32()
	if d.err != nil {
		return nil
	}
	if n > MaxRecordSize {
		d.fail(ir.ErrCodeMalformed, "length %d exceeds limit %d", n, MaxRecordSize)
		return nil
	}
	p := d.take(int(n))
	if p == nil {
		return nil
	}
	out := make([]byte, len(p))
	copy(out, p)
	return out
}

func (d *decoder) str() string {
	p := d.bytes()
	if d.err == nil && !utf8.Valid(p) {
		d.fail(ir.ErrCodeMalformed, "string at offset %d is not valid UTF-8", d.off-len(p))
	}
	return string(p)
}

func (d *decoder) vec2() ir.Vector2 {
	return ir.Vector2{X: d.f64(), Y: d.f64()}
}

func (d *decoder) vec3() ir.Vector3 {
	return ir.Vector3{X: d.f64(), Y: d.f64(), Z: d.f64()}
}

func (d *decoder) color() ir.Color {
	return ir.Color{R: d.f64(), G: d.f64(), B: d.f64(), A: d.f64()}
}

func (d *decoder) modifiers() ir.Modifiers {
	return ir.Modifiers{Shift: d.flag(), Control: d.flag(), Option: d.flag(), Command: d.flag()}
}

// header checks the record kind and version.
func (d *decoder) header(want RecordKind) {
	kind := RecordKind(d.u8())
	version := d.u8()
	if d.err != nil {
		return
	}
	if kind != KindPatch && kind != KindEvent {
		d.fail(ir.ErrCodeUnknownTag, "unknown record kind 0x%02x", uint8(kind))
		return
	}
	if kind != want {
		d.fail(ir.ErrCodeMalformed, "expected %s record, got %s", want, kind)
		return
	}
	if version != Version {
		d.fail(ir.ErrCodeUnknownTag, "unknown record version %d", version)
	}
}

// finish rejects trailing bytes.
func (d *decoder) finish() error {
	if d.err == nil && d.off != len(d.b) {
		d.fail(ir.ErrCodeMalformed, "%d trailing bytes after record", len(d.b)-d.off)
	}
	return d.err
}
