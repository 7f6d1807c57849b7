package store

import (
	"fmt"

	"github.com/roach88/viewbridge/internal/ir"
	"github.com/roach88/viewbridge/internal/wire"
)

// marshalPatch encodes a patch in the wire format.
func marshalPatch(p ir.Patch) ([]byte, error) {
	b, err := wire.EncodePatch(p)
	if err != nil {
		return nil, fmt.Errorf("marshal patch: %w", err)
	}
	return b, nil
}

// unmarshalPatch decodes a stored patch payload.
func unmarshalPatch(b []byte) (ir.Patch, error) {
	p, err := wire.DecodePatch(b)
	if err != nil {
		return nil, fmt.Errorf("unmarshal patch: %w", err)
	}
	return p, nil
}

// marshalEvent encodes an event in the wire format.
func marshalEvent(ev ir.Event) ([]byte, error) {
	b, err := wire.EncodeEvent(ev)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	return b, nil
}

// unmarshalEvent decodes a stored event payload.
func unmarshalEvent(b []byte) (ir.Event, error) {
	ev, err := wire.DecodeEvent(b)
	if err != nil {
		return ir.Event{}, fmt.Errorf("unmarshal event: %w", err)
	}
	return ev, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
