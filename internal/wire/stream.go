package wire

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/roach88/viewbridge/internal/ir"
)

// Record is one decoded stream entry: either a patch or an event.
type Record struct {
	Kind  RecordKind
	Patch ir.Patch
	Event ir.Event
}

// Decode parses a single record of either kind.
func Decode(b []byte) (Record, error) {
	if len(b) == 0 {
		return Record{}, ir.Errorf(ir.ErrCodeMalformed, ir.NilViewID, "empty record")
	}
	switch RecordKind(b[0]) {
	case KindPatch:
		p, err := DecodePatch(b)
		return Record{Kind: KindPatch, Patch: p}, err
	case KindEvent:
		ev, err := DecodeEvent(b)
		return Record{Kind: KindEvent, Event: ev}, err
	default:
		return Record{}, ir.Errorf(ir.ErrCodeUnknownTag, ir.NilViewID, "unknown record kind 0x%02x", b[0])
	}
}

// DecodeError locates a record that failed to decode within a stream.
type DecodeError struct {
	// Index is the zero-based position of the record in the stream.
	Index int
	// Offset is the byte offset of the record's length prefix.
	Offset int64
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("record %d at offset %d: %v", e.Index, e.Offset, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Writer frames records onto an io.Writer with a u32 length prefix.
type Writer struct {
	w *bufio.Writer
	n int
}

// NewWriter wraps w. Call Flush when done.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// WritePatch encodes and frames a patch.
func (w *Writer) WritePatch(p ir.Patch) error {
	b, err := EncodePatch(p)
	if err != nil {
		return fmt.Errorf("write patch %d: %w", w.n, err)
	}
	return w.WriteRecord(b)
}

// WriteEvent encodes and frames an event.
func (w *Writer) WriteEvent(ev ir.Event) error {
	b, err := EncodeEvent(ev)
	if err != nil {
		return fmt.Errorf("write event %d: %w", w.n, err)
	}
	return w.WriteRecord(b)
}

// WriteRecord frames an already encoded record.
func (w *Writer) WriteRecord(b []byte) error {
	if len(b) > MaxRecordSize {
		return ir.Errorf(ir.ErrCodeMalformed, ir.NilViewID, "record of %d bytes exceeds limit", len(b))
	}
	var prefix [4]byte
	binary.LittleEndian.PutUint32(prefix[:], uint32(len(b)))
	if _, err := w.w.Write(prefix[:]); err != nil {
		return err
	}
	if _, err := w.w.Write(b); err != nil {
		return err
	}
	w.n++
	return nil
}

// Count returns the number of records written.
func (w *Writer) Count() int { return w.n }

// Flush writes buffered data to the underlying writer.
func (w *Writer) Flush() error { return w.w.Flush() }

// Reader reads framed records. A record whose body fails to decode is
// returned as a *DecodeError and the reader moves on to the next record.
// A broken frame (short length prefix, short body, oversized length) ends
// the stream: the error is returned once and then io.EOF.
type Reader struct {
	r      *bufio.Reader
	offset int64
	index  int
	done   bool
}

// NewReader wraps r.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: bufio.NewReader(r)}
}

// Next returns the next record. It returns io.EOF at a clean end of stream.
func (r *Reader) Next() (Record, error) {
	if r.done {
		return Record{}, io.EOF
	}

	start, index := r.offset, r.index
	fail := func(err error) (Record, error) {
		return Record{}, &DecodeError{Index: index, Offset: start, Err: err}
	}

	var prefix [4]byte
	n, err := io.ReadFull(r.r, prefix[:])
	r.offset += int64(n)
	if err != nil {
		r.done = true
		if errors.Is(err, io.EOF) {
			return Record{}, io.EOF
		}
		return fail(ir.Errorf(ir.ErrCodeMalformed, ir.NilViewID, "truncated length prefix"))
	}

	size := binary.LittleEndian.Uint32(prefix[:])
	if size > MaxRecordSize {
		r.done = true
		return fail(ir.Errorf(ir.ErrCodeMalformed, ir.NilViewID, "record length %d exceeds limit", size))
	}

	body := make([]byte, size)
	n, err = io.ReadFull(r.r, body)
	r.offset += int64(n)
	if err != nil {
		r.done = true
		return fail(ir.Errorf(ir.ErrCodeMalformed, ir.NilViewID, "truncated record: want %d bytes, got %d", size, n))
	}
	r.index++

	rec, err := Decode(body)
	if err != nil {
		return fail(err)
	}
	return rec, nil
}

// Offset returns the number of bytes consumed so far.
func (r *Reader) Offset() int64 { return r.offset }
