package engine

import (
	"context"
	"errors"
	"log/slog"

	"github.com/roach88/viewbridge/internal/ir"
	"github.com/roach88/viewbridge/internal/registry"
	"github.com/roach88/viewbridge/internal/store"
)

// Applier turns patches into tree mutations.
//
// Patches are applied one at a time in the order given. Each is validated
// before anything is written, so a failing patch leaves the tree exactly as
// it was and the rest of the batch still runs.
type Applier struct {
	tree    *registry.Tree
	clock   *Clock
	logger  *slog.Logger
	metrics *Metrics
	journal Journal
}

// NewApplier creates an applier over tree. clock must not be nil.
func NewApplier(tree *registry.Tree, clock *Clock, opts ...Option) *Applier {
	cfg := newConfig(opts)
	return &Applier{
		tree:    tree,
		clock:   clock,
		logger:  cfg.logger,
		metrics: cfg.metrics,
		journal: cfg.journal,
	}
}

// Apply applies patches in order and reports every failure with its index.
func (a *Applier) Apply(ctx context.Context, patches []ir.Patch) Report {
	var report Report
	for i, p := range patches {
		seq := a.clock.Next()
		err := a.apply(p)

		typ := "unknown"
		if p != nil {
			typ = p.Type().String()
		}

		rec := store.PatchRecord{Seq: seq, BatchIndex: i, Patch: p}
		if err != nil {
			code := ir.CodeOf(err)
			rec.ErrorCode = code
			report.Failures = append(report.Failures, PatchFailure{Index: i, Seq: seq, Patch: p, Err: err})
			a.metrics.patchFailed(typ, string(code))
			a.logger.Warn("patch rejected",
				"seq", seq,
				"index", i,
				"type", typ,
				"error", err,
			)
		} else {
			report.Applied++
			a.metrics.patchApplied(typ)
			a.logger.Debug("patch applied",
				"seq", seq,
				"index", i,
				"type", typ,
				"view", p.Target().String(),
			)
		}

		if p != nil && rec.ErrorCode != ir.ErrCodeMalformed {
			a.record(ctx, rec)
		}
	}
	a.metrics.setViews(a.tree.Len())
	return report
}

func (a *Applier) apply(p ir.Patch) error {
	switch p := p.(type) {
	case ir.Update:
		_, err := a.tree.Upsert(p.View, p.Props)
		return err

	case ir.Subview:
		return subviewError(a.tree.Reparent(p.Child, p.Parent))

	case ir.Remove:
		removed := a.tree.Remove(p.View)
		if len(removed) > 1 {
			a.logger.Debug("subtree removed", "view", p.View.String(), "count", len(removed))
		}
		return nil

	case nil:
		return ir.Errorf(ir.ErrCodeMalformed, ir.NilViewID, "nil patch")

	default:
		return ir.Errorf(ir.ErrCodeMalformed, ir.NilViewID, "unsupported patch %T", p)
	}
}

// subviewError reports a missing parent or child as UNKNOWN_VIEW. The
// existence check happens under the tree lock, so a concurrent Remove
// cannot slip between check and reparent.
func subviewError(err error) error {
	var e *ir.Error
	if errors.As(err, &e) && e.Code == ir.ErrCodeInvalidReference {
		return ir.Errorf(ir.ErrCodeUnknownView, e.View, "subview references a view that does not exist")
	}
	return err
}

// Confirm releases a retired id. Confirmations are stamped and journaled
// like patches so that replay can reproduce id reuse.
func (a *Applier) Confirm(ctx context.Context, id ir.ViewID) bool {
	if !a.tree.Confirm(id) {
		return false
	}
	seq := a.clock.Next()
	a.logger.Debug("view id released", "seq", seq, "view", id.String())
	if a.journal != nil {
		if err := a.journal.WriteConfirm(ctx, store.ConfirmRecord{Seq: seq, View: id}); err != nil {
			a.metrics.journalError()
			a.logger.Error("journal write failed", "seq", seq, "error", err)
		}
	}
	return true
}

func (a *Applier) record(ctx context.Context, rec store.PatchRecord) {
	if a.journal == nil {
		return
	}
	if err := a.journal.WritePatch(ctx, rec); err != nil {
		a.metrics.journalError()
		a.logger.Error("journal write failed", "seq", rec.Seq, "error", err)
	}
}
