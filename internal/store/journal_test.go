package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/viewbridge/internal/ir"
)

func TestWritePatch_ReadBackInSeqOrder(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	recs := []PatchRecord{
		{Seq: 3, BatchIndex: 1, Patch: ir.Remove{View: ir.NamedViewID("b")}},
		{Seq: 1, BatchIndex: 0, Patch: layerUpdate("a", 1)},
		{
			Seq:       2,
			Patch:     ir.Subview{Parent: ir.NamedViewID("a"), Child: ir.NamedViewID("x")},
			ErrorCode: ir.ErrCodeUnknownView,
		},
	}
	for _, rec := range recs {
		require.NoError(t, s.WritePatch(ctx, rec))
	}

	got, err := s.ReadPatches(ctx)
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, []int64{1, 2, 3}, []int64{got[0].Seq, got[1].Seq, got[2].Seq})
	assert.True(t, ir.PatchEqual(recs[1].Patch, got[0].Patch))
	assert.Equal(t, ir.ErrCodeUnknownView, got[1].ErrorCode)
	assert.Equal(t, ir.ErrorCode(""), got[2].ErrorCode)
	assert.Equal(t, 1, got[2].BatchIndex)
}

func TestWritePatch_Idempotent(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	require.NoError(t, s.WritePatch(ctx, PatchRecord{Seq: 1, Patch: layerUpdate("a", 1)}))
	require.NoError(t, s.WritePatch(ctx, PatchRecord{Seq: 1, Patch: layerUpdate("a", 0.5)}))

	got, err := s.ReadPatches(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 1.0, got[0].Patch.(ir.Update).Props.(ir.LayerProps).Opacity, "first write wins")
}

func TestWritePatch_RejectsUnencodable(t *testing.T) {
	s := createTestStore(t)

	err := s.WritePatch(context.Background(), PatchRecord{Seq: 1, Patch: ir.Update{View: ir.NamedViewID("a")}})
	assert.True(t, ir.IsCode(err, ir.ErrCodeMalformed))
}

func TestReadPatchesForView(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	require.NoError(t, s.WritePatch(ctx, PatchRecord{Seq: 1, Patch: layerUpdate("a", 1)}))
	require.NoError(t, s.WritePatch(ctx, PatchRecord{Seq: 2, Patch: layerUpdate("b", 1)}))
	require.NoError(t, s.WritePatch(ctx, PatchRecord{Seq: 3, Patch: ir.Remove{View: ir.NamedViewID("a")}}))

	got, err := s.ReadPatchesForView(ctx, ir.NamedViewID("a"))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(1), got[0].Seq)
	assert.Equal(t, int64(3), got[1].Seq)
}

func TestWriteEvent_ReadBack(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	delivered := EventRecord{Seq: 4, Event: pointerEvent("a", ir.PointerBegan), Delivered: true}
	dropped := EventRecord{
		Seq:        5,
		Event:      pointerEvent("a", ir.PointerEnded),
		DropReason: "handler_absent",
		Violation:  ir.ErrCodeOutOfOrderPhase,
	}
	require.NoError(t, s.WriteEvent(ctx, dropped))
	require.NoError(t, s.WriteEvent(ctx, delivered))

	got, err := s.ReadEvents(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.True(t, ir.EventEqual(delivered.Event, got[0].Event))
	assert.True(t, got[0].Delivered)
	assert.Empty(t, got[0].DropReason)

	assert.False(t, got[1].Delivered)
	assert.Equal(t, "handler_absent", got[1].DropReason)
	assert.Equal(t, ir.ErrCodeOutOfOrderPhase, got[1].Violation)
}

func TestReadEmptyJournal(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	patches, err := s.ReadPatches(ctx)
	require.NoError(t, err)
	assert.NotNil(t, patches)
	assert.Empty(t, patches)

	events, err := s.ReadEvents(ctx)
	require.NoError(t, err)
	assert.NotNil(t, events)

	seq, err := s.LastSeq(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), seq)
}

func TestLastSeqAndStats(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	require.NoError(t, s.WritePatch(ctx, PatchRecord{Seq: 1, Patch: layerUpdate("a", 1)}))
	require.NoError(t, s.WritePatch(ctx, PatchRecord{Seq: 2, Patch: layerUpdate("a", 1), ErrorCode: ir.ErrCodeKindMismatch}))
	require.NoError(t, s.WriteEvent(ctx, EventRecord{Seq: 7, Event: pointerEvent("a", ir.PointerBegan), Delivered: true}))
	require.NoError(t, s.WriteEvent(ctx, EventRecord{
		Seq:       8,
		Event:     pointerEvent("a", ir.PointerBegan),
		Delivered: true,
		Violation: ir.ErrCodeOutOfOrderPhase,
	}))
	require.NoError(t, s.WriteEvent(ctx, EventRecord{Seq: 9, Event: pointerEvent("z", ir.PointerBegan), DropReason: "handler_absent"}))

	seq, err := s.LastSeq(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(9), seq)

	st, err := s.ReadStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, Stats{Patches: 2, FailedPatches: 1, Events: 3, DroppedEvents: 1, PhaseViolations: 1}, st)
}

func TestReopenKeepsJournal(t *testing.T) {
	ctx := context.Background()
	path := t.TempDir() + "/journal.db"

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.WritePatch(ctx, PatchRecord{Seq: 1, Patch: layerUpdate("a", 1)}))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()

	got, err := s.ReadPatches(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestWriteConfirm_ReadBack(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	a := ir.NamedViewID("a")

	require.NoError(t, s.WriteConfirm(ctx, ConfirmRecord{Seq: 12, View: a}))
	require.NoError(t, s.WriteConfirm(ctx, ConfirmRecord{Seq: 12, View: ir.NamedViewID("b")}))

	got, err := s.ReadConfirms(ctx)
	require.NoError(t, err)
	assert.Equal(t, []ConfirmRecord{{Seq: 12, View: a}}, got)

	seq, err := s.LastSeq(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(12), seq)
}
