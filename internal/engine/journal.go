package engine

import (
	"context"

	"github.com/roach88/viewbridge/internal/store"
)

// Journal records what a bridge did. *store.Store implements it.
type Journal interface {
	WritePatch(ctx context.Context, rec store.PatchRecord) error
	WriteEvent(ctx context.Context, rec store.EventRecord) error
	WriteConfirm(ctx context.Context, rec store.ConfirmRecord) error
}

var _ Journal = (*store.Store)(nil)
