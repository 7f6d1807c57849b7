package testutil

import (
	"context"
	"errors"
	"sync"

	"github.com/roach88/viewbridge/internal/store"
)

// ErrJournalDown is returned by a MemoryJournal with Fail set.
var ErrJournalDown = errors.New("journal unavailable")

// MemoryJournal is an in-memory journal with the same read and write
// methods as store.Store.
type MemoryJournal struct {
	mu       sync.Mutex
	Patches  []store.PatchRecord
	Events   []store.EventRecord
	Confirms []store.ConfirmRecord

	// Fail makes every write return ErrJournalDown.
	Fail bool
}

func (j *MemoryJournal) WritePatch(_ context.Context, rec store.PatchRecord) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.Fail {
		return ErrJournalDown
	}
	j.Patches = append(j.Patches, rec)
	return nil
}

func (j *MemoryJournal) WriteEvent(_ context.Context, rec store.EventRecord) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.Fail {
		return ErrJournalDown
	}
	j.Events = append(j.Events, rec)
	return nil
}

func (j *MemoryJournal) WriteConfirm(_ context.Context, rec store.ConfirmRecord) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.Fail {
		return ErrJournalDown
	}
	j.Confirms = append(j.Confirms, rec)
	return nil
}

func (j *MemoryJournal) ReadPatches(context.Context) ([]store.PatchRecord, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]store.PatchRecord{}, j.Patches...), nil
}

func (j *MemoryJournal) ReadConfirms(context.Context) ([]store.ConfirmRecord, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]store.ConfirmRecord{}, j.Confirms...), nil
}
