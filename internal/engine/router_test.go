package engine

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/viewbridge/internal/ir"
	"github.com/roach88/viewbridge/internal/registry"
	tu "github.com/roach88/viewbridge/internal/testutil"
)

type routerFixture struct {
	router  *Router
	tree    *registry.Tree
	metrics *Metrics
	journal *tu.MemoryJournal
}

func newRouterFixture(t *testing.T, opts ...Option) *routerFixture {
	t.Helper()
	handlers := registry.NewHandlers()
	tree := registry.NewTree(handlers)
	for _, name := range []string{"a", "b"} {
		_, err := tree.Upsert(ir.NamedViewID(name), tu.Layer(1))
		require.NoError(t, err)
	}

	m := NewMetrics(prometheus.NewRegistry())
	j := &tu.MemoryJournal{}
	opts = append([]Option{WithLogger(tu.DiscardLogger()), WithMetrics(m), WithJournal(j)}, opts...)
	return &routerFixture{
		router:  NewRouter(handlers, NewClock(), opts...),
		tree:    tree,
		metrics: m,
		journal: j,
	}
}

func TestRouter_DeliversToRegisteredReceiver(t *testing.T) {
	f := newRouterFixture(t)
	rec := tu.NewRecorder()
	require.NoError(t, f.tree.Register(tu.Handler("a", ir.CategoryPointer), rec.Receiver("a")))

	ev := tu.Pointer("a", 1, ir.PointerBegan)
	out := f.router.Dispatch(context.Background(), ev)

	assert.True(t, out.Delivered)
	assert.Equal(t, DropNone, out.Drop)
	assert.NoError(t, out.Violation)
	require.Equal(t, 1, rec.Len())
	assert.True(t, ir.EventEqual(ev, rec.Events()[0]))
	assert.Equal(t, int64(1), f.router.Delivered())
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.eventsDelivered.WithLabelValues("pointer")))
}

func TestRouter_ReceiverContextIsMarked(t *testing.T) {
	f := newRouterFixture(t)
	var (
		marked bool
		got    ir.HandlerID
	)
	require.NoError(t, f.tree.Register(tu.Handler("a", ir.CategoryKey), func(ctx context.Context, _ ir.Event) {
		marked = InDispatch(ctx)
		got, _ = DispatchHandler(ctx)
	}))

	f.router.Dispatch(context.Background(), tu.Key("a", ir.KeyA, ir.KeyDown))

	assert.True(t, marked)
	assert.Equal(t, tu.Handler("a", ir.CategoryKey), got)
	assert.False(t, InDispatch(context.Background()))
}

func TestRouter_HandlerAbsentIsCounted(t *testing.T) {
	f := newRouterFixture(t)
	rec := tu.NewRecorder()
	require.NoError(t, f.tree.Register(tu.Handler("a", ir.CategoryKey), rec.Receiver("key")))

	// Same view, other category: not routed to the key receiver.
	out := f.router.Dispatch(context.Background(), tu.Pointer("a", 1, ir.PointerBegan))
	assert.False(t, out.Delivered)
	assert.Equal(t, DropHandlerAbsent, out.Drop)

	out = f.router.Dispatch(context.Background(), tu.Scroll("b", 1))
	assert.Equal(t, DropHandlerAbsent, out.Drop)

	assert.Equal(t, 0, rec.Len())
	assert.Equal(t, int64(2), f.router.Dropped())
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.eventsDropped.WithLabelValues("pointer", "handler_absent")))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.eventsDropped.WithLabelValues("scroll", "handler_absent")))
}

func TestRouter_RoutesByPayloadCategory(t *testing.T) {
	f := newRouterFixture(t)
	rec := tu.NewRecorder()
	require.NoError(t, f.tree.Register(tu.Handler("a", ir.CategoryPointer), rec.Receiver("pointer")))

	ev := tu.Pointer("a", 1, ir.PointerBegan)
	ev.Handler.Category = ir.CategoryKey
	out := f.router.Dispatch(context.Background(), ev)

	assert.True(t, out.Delivered)
	assert.Equal(t, []string{"pointer"}, rec.Tags())
	require.Len(t, f.journal.Events, 1)
	assert.Equal(t, ir.CategoryPointer, f.journal.Events[0].Event.Handler.Category)
}

func TestRouter_PermissiveDeliversViolation(t *testing.T) {
	f := newRouterFixture(t)
	rec := tu.NewRecorder()
	require.NoError(t, f.tree.Register(tu.Handler("a", ir.CategoryPointer), rec.Receiver("a")))

	out := f.router.Dispatch(context.Background(), tu.Pointer("a", 1, ir.PointerMoved))

	assert.True(t, out.Delivered)
	assert.True(t, ir.IsCode(out.Violation, ir.ErrCodeOutOfOrderPhase))
	assert.Equal(t, 1, rec.Len())
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.phaseViolations.WithLabelValues("pointer")))
	assert.Equal(t, ir.ErrCodeOutOfOrderPhase, f.journal.Events[0].Violation)
	assert.True(t, f.journal.Events[0].Delivered)
}

func TestRouter_StrictDropsViolation(t *testing.T) {
	f := newRouterFixture(t, WithPhasePolicy(StrictDrop))
	rec := tu.NewRecorder()
	require.NoError(t, f.tree.Register(tu.Handler("a", ir.CategoryPointer), rec.Receiver("a")))
	ctx := context.Background()

	out := f.router.Dispatch(ctx, tu.Pointer("a", 1, ir.PointerMoved))
	assert.False(t, out.Delivered)
	assert.Equal(t, DropPhaseOrder, out.Drop)
	assert.Equal(t, 0, rec.Len())
	assert.Equal(t, int64(0), f.router.Dropped(), "only absent handlers count as dropped")

	out = f.router.Dispatch(ctx, tu.Pointer("a", 1, ir.PointerBegan))
	assert.True(t, out.Delivered, "state was left unchanged by the dropped event")
	assert.Equal(t, StrictDrop, f.router.Policy())
}

func TestRouter_RecoversReceiverPanic(t *testing.T) {
	f := newRouterFixture(t)
	require.NoError(t, f.tree.Register(tu.Handler("a", ir.CategoryPointer), func(context.Context, ir.Event) {
		panic("boom")
	}))
	rec := tu.NewRecorder()
	require.NoError(t, f.tree.Register(tu.Handler("b", ir.CategoryPointer), rec.Receiver("b")))
	ctx := context.Background()

	var out Outcome
	require.NotPanics(t, func() {
		out = f.router.Dispatch(ctx, tu.Pointer("a", 1, ir.PointerBegan))
	})
	assert.True(t, out.Delivered)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.receiverPanics))
	assert.Equal(t, 2, f.tree.Len(), "tree untouched")

	f.router.Dispatch(ctx, tu.Pointer("b", 2, ir.PointerBegan))
	assert.Equal(t, 1, rec.Len())

	// The in-flight mark was released, so removal does not block.
	f.tree.Remove(ir.NamedViewID("a"))
}

func TestRouter_MalformedEvent(t *testing.T) {
	f := newRouterFixture(t)

	out := f.router.Dispatch(context.Background(), ir.Event{Handler: tu.Handler("a", ir.CategoryHover)})
	assert.Equal(t, DropMalformed, out.Drop)
	assert.Empty(t, f.journal.Events)
}

func TestRouter_SeqIsMonotonic(t *testing.T) {
	f := newRouterFixture(t)
	ctx := context.Background()

	var last int64
	for i := 0; i < 5; i++ {
		out := f.router.Dispatch(ctx, tu.Scroll("a", float64(i)))
		assert.Greater(t, out.Seq, last)
		last = out.Seq
	}
}

func TestRouter_ActiveSessions(t *testing.T) {
	f := newRouterFixture(t)
	ctx := context.Background()

	f.router.Dispatch(ctx, tu.Pointer("a", 1, ir.PointerBegan))
	f.router.Dispatch(ctx, tu.Pointer("a", 2, ir.PointerBegan))
	assert.Equal(t, 2, f.router.ActiveSessions())

	f.router.Dispatch(ctx, tu.Pointer("a", 1, ir.PointerEnded))
	assert.Equal(t, 1, f.router.ActiveSessions())
}
