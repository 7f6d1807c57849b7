package engine

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync/atomic"

	"github.com/roach88/viewbridge/internal/ir"
	"github.com/roach88/viewbridge/internal/registry"
	"github.com/roach88/viewbridge/internal/store"
)

type dispatchKey struct{}

// dispatchInfo is carried by the context handed to a receiver.
type dispatchInfo struct {
	handler ir.HandlerID
	seq     int64
}

// InDispatch reports whether ctx belongs to a receiver invocation.
func InDispatch(ctx context.Context) bool {
	_, ok := ctx.Value(dispatchKey{}).(dispatchInfo)
	return ok
}

// DispatchHandler returns the handler being invoked, if ctx belongs to a
// receiver invocation.
func DispatchHandler(ctx context.Context) (ir.HandlerID, bool) {
	info, ok := ctx.Value(dispatchKey{}).(dispatchInfo)
	return info.handler, ok
}

// Router validates events and hands them to their receivers.
//
// The route is (event view, payload category). Receivers run with no
// registry lock held, so they may read the tree or register handlers.
type Router struct {
	handlers *registry.Handlers
	tracker  *phaseTracker
	policy   PhasePolicy
	clock    *Clock
	logger   *slog.Logger
	metrics  *Metrics
	journal  Journal

	absent    atomic.Int64
	delivered atomic.Int64
}

// NewRouter creates a router over handlers. clock must not be nil.
func NewRouter(handlers *registry.Handlers, clock *Clock, opts ...Option) *Router {
	cfg := newConfig(opts)
	return &Router{
		handlers: handlers,
		tracker:  newPhaseTracker(),
		policy:   cfg.policy,
		clock:    clock,
		logger:   cfg.logger,
		metrics:  cfg.metrics,
		journal:  cfg.journal,
	}
}

// Dispatch routes one event.
func (r *Router) Dispatch(ctx context.Context, ev ir.Event) Outcome {
	out := Outcome{Seq: r.clock.Next()}

	if ev.Payload == nil {
		out.Drop = DropMalformed
		r.logger.Warn("event dropped", "seq", out.Seq, "reason", string(out.Drop))
		r.metrics.eventDropped("unknown", out.Drop)
		return out
	}

	cat := ev.Category().String()
	route := ev.Route()

	if err := r.tracker.observe(ev, r.policy); err != nil {
		out.Violation = err
		r.metrics.phaseViolation(cat)
		r.logger.Warn("phase order violated",
			"seq", out.Seq,
			"handler", route.String(),
			"policy", r.policy.String(),
			"error", err,
		)
		if r.policy == StrictDrop {
			out.Drop = DropPhaseOrder
			r.finish(ctx, ev, out)
			return out
		}
	}

	receiver, release, ok := r.handlers.Acquire(route)
	if !ok {
		r.absent.Add(1)
		out.Drop = DropHandlerAbsent
		r.finish(ctx, ev, out)
		return out
	}

	r.invoke(ctx, receiver, ev, dispatchInfo{handler: route, seq: out.Seq})
	release()

	r.delivered.Add(1)
	out.Delivered = true
	r.finish(ctx, ev, out)
	return out
}

// invoke runs the receiver and recovers a panic so it cannot take down
// the stream.
func (r *Router) invoke(ctx context.Context, receiver registry.Receiver, ev ir.Event, info dispatchInfo) {
	defer func() {
		if p := recover(); p != nil {
			r.metrics.receiverPanic()
			r.logger.Error("receiver panicked",
				"seq", info.seq,
				"handler", info.handler.String(),
				"panic", fmt.Sprint(p),
				"stack", string(debug.Stack()),
			)
		}
	}()
	receiver(context.WithValue(ctx, dispatchKey{}, info), ev)
}

func (r *Router) finish(ctx context.Context, ev ir.Event, out Outcome) {
	cat := ev.Category().String()
	if out.Delivered {
		r.metrics.eventDelivered(cat)
		r.logger.Debug("event delivered", "seq", out.Seq, "handler", ev.Route().String())
	} else {
		r.metrics.eventDropped(cat, out.Drop)
		r.logger.Debug("event dropped", "seq", out.Seq, "handler", ev.Route().String(), "reason", string(out.Drop))
	}

	if r.journal == nil {
		return
	}
	rec := store.EventRecord{
		Seq:        out.Seq,
		Event:      ev,
		Delivered:  out.Delivered,
		DropReason: string(out.Drop),
		Violation:  ir.CodeOf(out.Violation),
	}
	// The journal keeps the routed category so the record re-encodes cleanly.
	rec.Event.Handler = ev.Route()
	if err := r.journal.WriteEvent(ctx, rec); err != nil {
		r.metrics.journalError()
		r.logger.Error("journal write failed", "seq", out.Seq, "error", err)
	}
}

// Dropped returns the number of events dropped because no handler was
// registered.
func (r *Router) Dropped() int64 {
	return r.absent.Load()
}

// Delivered returns the number of events handed to a receiver.
func (r *Router) Delivered() int64 {
	return r.delivered.Load()
}

// Policy returns the router's phase policy.
func (r *Router) Policy() PhasePolicy {
	return r.policy
}

// ActiveSessions returns the number of devices mid-sequence.
func (r *Router) ActiveSessions() int {
	return r.tracker.sessions()
}
