package store

import "github.com/roach88/viewbridge/internal/ir"

// PatchRecord is one journaled patch.
type PatchRecord struct {
	// Seq is the logical clock stamp; unique across patches and events.
	Seq int64

	// BatchIndex is the patch's position within the Apply call it arrived in.
	BatchIndex int

	Patch ir.Patch

	// ErrorCode is empty when the patch applied cleanly.
	ErrorCode ir.ErrorCode
}

// EventRecord is one journaled event and its outcome.
type EventRecord struct {
	Seq       int64
	Event     ir.Event
	Delivered bool

	// DropReason is empty when the event was delivered.
	DropReason string

	// Violation is the phase-order error code, if any. A violating event may
	// still have been delivered under the permissive policy.
	Violation ir.ErrorCode
}

// ConfirmRecord is one journaled release of a retired view id.
type ConfirmRecord struct {
	Seq  int64
	View ir.ViewID
}
