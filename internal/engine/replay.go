package engine

import (
	"context"
	"fmt"
	"slices"

	"github.com/roach88/viewbridge/internal/ir"
	"github.com/roach88/viewbridge/internal/store"
)

// JournalReader is the read side of a journal. *store.Store implements it.
type JournalReader interface {
	ReadPatches(ctx context.Context) ([]store.PatchRecord, error)
	ReadConfirms(ctx context.Context) ([]store.ConfirmRecord, error)
}

var _ JournalReader = (*store.Store)(nil)

// Divergence is a journaled patch whose replayed result differs from the
// recorded one.
type Divergence struct {
	Seq      int64
	Patch    ir.Patch
	Recorded ir.ErrorCode
	Replayed ir.ErrorCode
}

func (d Divergence) String() string {
	return fmt.Sprintf("seq %d (%s %s): recorded %q, replayed %q",
		d.Seq, d.Patch.Type(), d.Patch.Target(), d.Recorded, d.Replayed)
}

// ReplayResult is the outcome of rebuilding a tree from a journal.
type ReplayResult struct {
	// Bridge holds the rebuilt tree. Its clock continues after the last
	// replayed seq.
	Bridge *Bridge

	// Report indexes failures by position in the replayed patch sequence.
	Report Report

	// Divergences lists patches whose error code differs from the journal.
	// Empty when replay reproduced the recorded run.
	Divergences []Divergence
}

// Replay rebuilds a tree by re-applying journaled patches and id releases
// in seq order on a fresh bridge.
//
// Idempotency is structural: the same Applier code path runs as in the
// original run, so the same inputs in the same order give the same tree.
// Events are not replayed; they never change the tree.
//
// The rebuilt bridge does not write to any journal, even if opts contain
// WithJournal.
func Replay(ctx context.Context, src JournalReader, opts ...Option) (ReplayResult, error) {
	patches, err := src.ReadPatches(ctx)
	if err != nil {
		return ReplayResult{}, fmt.Errorf("replay: %w", err)
	}
	confirms, err := src.ReadConfirms(ctx)
	if err != nil {
		return ReplayResult{}, fmt.Errorf("replay: %w", err)
	}

	var last int64
	if n := len(patches); n > 0 {
		last = patches[n-1].Seq
	}
	if n := len(confirms); n > 0 {
		last = max(last, confirms[n-1].Seq)
	}

	b := New(append(slices.Clone(opts), WithJournal(nil), WithClock(NewClock()))...)

	var res ReplayResult
	ci := 0
	for i, rec := range patches {
		for ci < len(confirms) && confirms[ci].Seq < rec.Seq {
			b.tree.Confirm(confirms[ci].View)
			ci++
		}

		r := b.applier.Apply(ctx, []ir.Patch{rec.Patch})
		res.Report.Applied += r.Applied
		var code ir.ErrorCode
		for _, f := range r.Failures {
			f.Index = i
			f.Seq = rec.Seq
			code = f.Code()
			res.Report.Failures = append(res.Report.Failures, f)
		}
		if code != rec.ErrorCode {
			res.Divergences = append(res.Divergences, Divergence{
				Seq:      rec.Seq,
				Patch:    rec.Patch,
				Recorded: rec.ErrorCode,
				Replayed: code,
			})
		}
	}
	for ; ci < len(confirms); ci++ {
		b.tree.Confirm(confirms[ci].View)
	}

	// Continue numbering after the journal.
	b.clock.seq.Store(last)
	res.Bridge = b
	return res, nil
}
