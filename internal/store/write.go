package store

import (
	"context"
	"fmt"
)

// WritePatch appends a patch record to the journal.
// Uses ON CONFLICT(seq) DO NOTHING for idempotency - a record already
// written under the same seq is silently kept.
func (s *Store) WritePatch(ctx context.Context, rec PatchRecord) error {
	payload, err := marshalPatch(rec.Patch)
	if err != nil {
		return fmt.Errorf("write patch: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO patches
		(seq, batch_index, patch_type, view, payload, error_code)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(seq) DO NOTHING
	`,
		rec.Seq,
		rec.BatchIndex,
		rec.Patch.Type().String(),
		rec.Patch.Target().String(),
		payload,
		string(rec.ErrorCode),
	)
	if err != nil {
		return fmt.Errorf("write patch: %w", err)
	}

	return nil
}

// WriteEvent appends an event record to the journal.
// Uses ON CONFLICT(seq) DO NOTHING for idempotency.
func (s *Store) WriteEvent(ctx context.Context, rec EventRecord) error {
	payload, err := marshalEvent(rec.Event)
	if err != nil {
		return fmt.Errorf("write event: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO events
		(seq, view, category, payload, delivered, drop_reason, violation)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(seq) DO NOTHING
	`,
		rec.Seq,
		rec.Event.Handler.View.String(),
		rec.Event.Category().String(),
		payload,
		boolToInt(rec.Delivered),
		rec.DropReason,
		string(rec.Violation),
	)
	if err != nil {
		return fmt.Errorf("write event: %w", err)
	}

	return nil
}

// WriteConfirm records that a retired view id was released for reuse.
// Uses ON CONFLICT(seq) DO NOTHING for idempotency.
func (s *Store) WriteConfirm(ctx context.Context, rec ConfirmRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO confirms (seq, view)
		VALUES (?, ?)
		ON CONFLICT(seq) DO NOTHING
	`, rec.Seq, rec.View.String())
	if err != nil {
		return fmt.Errorf("write confirm: %w", err)
	}
	return nil
}
