package engine

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/viewbridge/internal/ir"
	tu "github.com/roach88/viewbridge/internal/testutil"
)

func TestDeferralQuota_WithinLimit(t *testing.T) {
	q := newDeferralQuota(3)
	for i := 0; i < 3; i++ {
		require.NoError(t, q.check(), "item %d", i)
	}
}

func TestDeferralQuota_ExceedsLimit(t *testing.T) {
	q := newDeferralQuota(2)
	require.NoError(t, q.check())
	require.NoError(t, q.check())

	err := q.check()
	require.Error(t, err)
	assert.True(t, IsDeferralExceeded(err))
	assert.Equal(t, "deferred work exceeded quota: 2 items ran, limit 2", err.Error())

	var de *DeferralExceededError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, 2, de.Ran)
	assert.Equal(t, 2, de.Limit)
}

func TestIsDeferralExceeded(t *testing.T) {
	assert.False(t, IsDeferralExceeded(nil))
	assert.False(t, IsDeferralExceeded(fmt.Errorf("other")))
	assert.True(t, IsDeferralExceeded(fmt.Errorf("wrapped: %w", &DeferralExceededError{Ran: 1, Limit: 1})))
}

func TestBridge_DefaultMaxDeferred(t *testing.T) {
	assert.Equal(t, DefaultMaxDeferred, newTestBridge(t).maxDeferred)
	assert.Equal(t, DefaultMaxDeferred, newTestBridge(t, WithMaxDeferred(0)).maxDeferred)
	assert.Equal(t, 7, newTestBridge(t, WithMaxDeferred(7)).maxDeferred)
}

func TestBridge_SelfDispatchStopsAtQuota(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	b := newTestBridge(t, WithMaxDeferred(5), WithMetrics(metrics))
	ctx := context.Background()
	require.True(t, b.Apply(ctx, []ir.Patch{tu.Update("loop", tu.Layer(1))}).OK())

	deliveries := 0
	require.NoError(t, b.Register(tu.Handler("loop", ir.CategoryScroll), func(ctx context.Context, ev ir.Event) {
		deliveries++
		b.Dispatch(ctx, tu.Scroll("loop", 1))
	}))

	within(t, time.Second, func() {
		out := b.Dispatch(ctx, tu.Scroll("loop", 1))
		assert.True(t, out.Delivered)
	})

	// The top-level delivery plus five deferred ones; the sixth is discarded.
	assert.Equal(t, 6, deliveries)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.deferredDrops))
	assert.Zero(t, b.deferred.Len())

	// Each top-level dispatch gets a fresh quota.
	within(t, time.Second, func() {
		b.Dispatch(ctx, tu.Scroll("loop", 1))
	})
	assert.Equal(t, 12, deliveries)
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.deferredDrops))
}

func TestBridge_DeferredChainWithinQuota(t *testing.T) {
	b := newTestBridge(t, WithMaxDeferred(10))
	ctx := context.Background()
	require.True(t, b.Apply(ctx, []ir.Patch{tu.Update("chain", tu.Layer(1))}).OK())

	deliveries := 0
	require.NoError(t, b.Register(tu.Handler("chain", ir.CategoryScroll), func(ctx context.Context, ev ir.Event) {
		deliveries++
		if deliveries < 4 {
			b.Dispatch(ctx, tu.Scroll("chain", 1))
		}
	}))

	b.Dispatch(ctx, tu.Scroll("chain", 1))
	assert.Equal(t, 4, deliveries)
}
