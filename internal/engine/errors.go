package engine

import (
	"errors"
	"fmt"

	"github.com/roach88/viewbridge/internal/ir"
)

// PatchFailure records why one patch in a batch did not apply.
type PatchFailure struct {
	// Index is the patch's position in the batch.
	Index int

	// Seq is the logical clock stamp the patch was given.
	Seq int64

	Patch ir.Patch
	Err   error
}

// Error implements the error interface.
func (f PatchFailure) Error() string {
	if f.Patch == nil {
		return fmt.Sprintf("patch %d: %v", f.Index, f.Err)
	}
	return fmt.Sprintf("patch %d (%s %s): %v", f.Index, f.Patch.Type(), f.Patch.Target(), f.Err)
}

// Unwrap returns the underlying error.
func (f PatchFailure) Unwrap() error {
	return f.Err
}

// Code returns the taxonomy code of the failure.
func (f PatchFailure) Code() ir.ErrorCode {
	return ir.CodeOf(f.Err)
}

// Report is the result of applying a batch of patches.
//
// A failing patch aborts only itself: Applied counts the patches that took
// effect and Failures lists the rest in batch order.
type Report struct {
	Applied  int
	Failures []PatchFailure

	// Deferred is set when the batch was queued behind the receiver that
	// submitted it. Applied and Failures are then empty: the batch's
	// outcome reaches only the log, the metrics and the journal.
	Deferred bool
}

// OK reports whether every patch applied.
func (r Report) OK() bool {
	return len(r.Failures) == 0
}

// Err joins all failures, or returns nil when there are none.
func (r Report) Err() error {
	if len(r.Failures) == 0 {
		return nil
	}
	errs := make([]error, len(r.Failures))
	for i, f := range r.Failures {
		errs[i] = f
	}
	return errors.Join(errs...)
}

// Codes returns the failure codes in batch order.
func (r Report) Codes() []ir.ErrorCode {
	codes := make([]ir.ErrorCode, len(r.Failures))
	for i, f := range r.Failures {
		codes[i] = f.Code()
	}
	return codes
}

// DropReason says why an event was not delivered.
type DropReason string

const (
	// DropNone means the event was delivered.
	DropNone DropReason = ""

	// DropHandlerAbsent means no receiver was registered for the event's
	// view and category. Counted, never escalated.
	DropHandlerAbsent DropReason = "handler_absent"

	// DropPhaseOrder means the event violated its device's phase order
	// under the strict policy.
	DropPhaseOrder DropReason = "out_of_order_phase"

	// DropMalformed means the event had no payload.
	DropMalformed DropReason = "malformed"
)

// Outcome is the result of dispatching one event.
type Outcome struct {
	Seq       int64
	Delivered bool
	Drop      DropReason

	// Violation is the phase-order error, if any. Under the permissive
	// policy an event can be both delivered and in violation.
	Violation error

	// Deferred is set when the event was queued behind the receiver that
	// submitted it; the real outcome is recorded when it runs.
	Deferred bool
}
