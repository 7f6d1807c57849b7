package engine

import (
	"context"
	"log/slog"
	"sync"

	"github.com/roach88/viewbridge/internal/ir"
	"github.com/roach88/viewbridge/internal/registry"
)

// Bridge owns a view tree and its handler registry and connects them to
// the host's patch and event streams.
//
// Thread-safety model:
//   - Apply, Dispatch, Register, Unregister, Confirm: safe from any goroutine
//   - SubmitPatches, SubmitEvent: safe from any goroutine
//   - Run: must be called from exactly ONE goroutine
//
// A receiver that calls Apply or Dispatch with the context it was given
// does not run the work inline: it is queued and runs, in arrival order,
// once the receiver has returned. This is what lets a receiver remove its
// own view.
type Bridge struct {
	tree     *registry.Tree
	handlers *registry.Handlers
	clock    *Clock
	applier  *Applier
	router   *Router
	logger   *slog.Logger
	metrics  *Metrics

	maxDeferred int

	patches  *workQueue[[]ir.Patch]
	events   *workQueue[ir.Event]
	deferred *workQueue[func(context.Context)]
}

// New creates a bridge with an empty tree.
//
// Options can be passed to configure the bridge (e.g., WithPhasePolicy).
func New(opts ...Option) *Bridge {
	cfg := newConfig(opts)
	if cfg.clock == nil {
		cfg.clock = NewClock()
	}

	handlers := registry.NewHandlers()
	tree := registry.NewTree(handlers)

	return &Bridge{
		tree:     tree,
		handlers: handlers,
		clock:    cfg.clock,
		applier:  NewApplier(tree, cfg.clock, opts...),
		router:   NewRouter(handlers, cfg.clock, opts...),
		logger:   cfg.logger,
		metrics:  cfg.metrics,

		maxDeferred: cfg.maxDeferred,

		patches:  newWorkQueue[[]ir.Patch](),
		events:   newWorkQueue[ir.Event](),
		deferred: newWorkQueue[func(context.Context)](),
	}
}

// Apply applies a batch of patches and reports every failure.
// Called from a receiver, the batch is deferred and Report.Deferred is set.
func (b *Bridge) Apply(ctx context.Context, patches []ir.Patch) Report {
	if InDispatch(ctx) {
		batch := append([]ir.Patch(nil), patches...)
		b.deferred.Enqueue(func(ctx context.Context) {
			b.applier.Apply(ctx, batch)
		})
		return Report{Deferred: true}
	}
	return b.applier.Apply(ctx, patches)
}

// Dispatch routes one event to its receiver.
// Called from a receiver, the event is deferred and Outcome.Deferred is set.
func (b *Bridge) Dispatch(ctx context.Context, ev ir.Event) Outcome {
	if InDispatch(ctx) {
		b.deferred.Enqueue(func(ctx context.Context) {
			b.router.Dispatch(ctx, ev)
		})
		return Outcome{Deferred: true}
	}
	out := b.router.Dispatch(ctx, ev)
	b.drain(ctx)
	return out
}

// drain runs deferred work until none is left. Work may defer more work;
// past the deferral quota the rest is discarded.
func (b *Bridge) drain(ctx context.Context) {
	quota := newDeferralQuota(b.maxDeferred)
	for {
		work, ok := b.deferred.TryDequeue()
		if !ok {
			return
		}
		if err := quota.check(); err != nil {
			n := 1
			for {
				if _, ok := b.deferred.TryDequeue(); !ok {
					break
				}
				n++
			}
			b.metrics.deferredDiscarded(n)
			b.logger.Error("deferred work discarded", "error", err, "discarded", n)
			return
		}
		work(ctx)
	}
}

// Register binds a receiver to a handler slot. The view must exist.
func (b *Bridge) Register(hid ir.HandlerID, r registry.Receiver) error {
	return b.tree.Register(hid, r)
}

// Unregister removes a handler slot. Returns false if none was bound.
func (b *Bridge) Unregister(hid ir.HandlerID) bool {
	return b.handlers.Unregister(hid)
}

// Confirm releases a removed view id for reuse.
// Returns false if id was not retired.
func (b *Bridge) Confirm(ctx context.Context, id ir.ViewID) bool {
	return b.applier.Confirm(ctx, id)
}

// Tree exposes the view tree for reads.
func (b *Bridge) Tree() *registry.Tree {
	return b.tree
}

// Router exposes dispatch counters.
func (b *Bridge) Router() *Router {
	return b.router
}

// Clock returns the bridge's logical clock.
func (b *Bridge) Clock() *Clock {
	return b.clock
}

// SubmitPatches queues a batch for the Run loop.
// Returns false if the bridge has been stopped.
func (b *Bridge) SubmitPatches(patches []ir.Patch) bool {
	return b.patches.Enqueue(append([]ir.Patch(nil), patches...))
}

// SubmitEvent queues an event for the Run loop.
// Returns false if the bridge has been stopped.
func (b *Bridge) SubmitEvent(ev ir.Event) bool {
	return b.events.Enqueue(ev)
}

// Run consumes the patch and event streams, one goroutine per stream,
// message by message in arrival order. Blocks until ctx is cancelled or
// Stop is called and both streams are drained.
//
// ERROR HANDLING: patch failures and dropped events are logged and the
// stream continues. Nothing that arrives on a stream is fatal to it.
func (b *Bridge) Run(ctx context.Context) error {
	b.logger.Info("bridge starting")

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		consume(ctx, b.patches, func(batch []ir.Patch) {
			b.Apply(ctx, batch)
		})
	}()
	go func() {
		defer wg.Done()
		consume(ctx, b.events, func(ev ir.Event) {
			b.Dispatch(ctx, ev)
		})
	}()
	wg.Wait()

	if err := ctx.Err(); err != nil {
		b.logger.Info("bridge stopping: context cancelled")
		return err
	}
	b.logger.Info("bridge stopping: streams closed")
	return nil
}

// consume is the single-reader loop of one stream.
func consume[T any](ctx context.Context, q *workQueue[T], handle func(T)) {
	for {
		if item, ok := q.TryDequeue(); ok {
			handle(item)
			continue
		}

		select {
		case <-ctx.Done():
			q.Close()
			return

		case <-q.Wait():
			// The signal channel closes when the queue is closed,
			// which will cause this case to fire immediately.
			if q.Closed() && q.Len() == 0 {
				return
			}
		}
	}
}

// Stop closes both streams. Run returns once queued work has been handled.
func (b *Bridge) Stop() {
	b.patches.Close()
	b.events.Close()
}
