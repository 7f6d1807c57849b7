package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/viewbridge/internal/ir"
)

// ReadPatches returns every journaled patch ordered by seq.
//
// Returns an empty slice (not nil) if the journal has no patches.
func (s *Store) ReadPatches(ctx context.Context) ([]PatchRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, batch_index, payload, error_code
		FROM patches
		ORDER BY seq ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query patches: %w", err)
	}
	defer rows.Close()

	return scanPatches(rows)
}

// ReadPatchesForView returns the patches whose target is view, ordered by seq.
func (s *Store) ReadPatchesForView(ctx context.Context, view ir.ViewID) ([]PatchRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, batch_index, payload, error_code
		FROM patches
		WHERE view = ?
		ORDER BY seq ASC
	`, view.String())
	if err != nil {
		return nil, fmt.Errorf("query patches for view: %w", err)
	}
	defer rows.Close()

	return scanPatches(rows)
}

func scanPatches(rows *sql.Rows) ([]PatchRecord, error) {
	records := []PatchRecord{}
	for rows.Next() {
		var (
			rec     PatchRecord
			payload []byte
			code    string
		)
		if err := rows.Scan(&rec.Seq, &rec.BatchIndex, &payload, &code); err != nil {
			return nil, fmt.Errorf("scan patch: %w", err)
		}
		p, err := unmarshalPatch(payload)
		if err != nil {
			return nil, fmt.Errorf("patch seq=%d: %w", rec.Seq, err)
		}
		rec.Patch = p
		rec.ErrorCode = ir.ErrorCode(code)
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate patches: %w", err)
	}

	return records, nil
}

// ReadEvents returns every journaled event ordered by seq.
//
// Returns an empty slice (not nil) if the journal has no events.
func (s *Store) ReadEvents(ctx context.Context) ([]EventRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, payload, delivered, drop_reason, violation
		FROM events
		ORDER BY seq ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	records := []EventRecord{}
	for rows.Next() {
		var (
			rec       EventRecord
			payload   []byte
			delivered int
			violation string
		)
		if err := rows.Scan(&rec.Seq, &payload, &delivered, &rec.DropReason, &violation); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		ev, err := unmarshalEvent(payload)
		if err != nil {
			return nil, fmt.Errorf("event seq=%d: %w", rec.Seq, err)
		}
		rec.Event = ev
		rec.Delivered = delivered != 0
		rec.Violation = ir.ErrorCode(violation)
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}

	return records, nil
}

// ReadConfirms returns every journaled id release ordered by seq.
func (s *Store) ReadConfirms(ctx context.Context) ([]ConfirmRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, view
		FROM confirms
		ORDER BY seq ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query confirms: %w", err)
	}
	defer rows.Close()

	records := []ConfirmRecord{}
	for rows.Next() {
		var (
			rec  ConfirmRecord
			view string
		)
		if err := rows.Scan(&rec.Seq, &view); err != nil {
			return nil, fmt.Errorf("scan confirm: %w", err)
		}
		id, err := ir.ParseViewID(view)
		if err != nil {
			return nil, fmt.Errorf("confirm seq=%d: %w", rec.Seq, err)
		}
		rec.View = id
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate confirms: %w", err)
	}

	return records, nil
}

// LastSeq returns the highest seq in the journal, or 0 when it is empty.
// A bridge resuming on an existing journal starts its clock here.
func (s *Store) LastSeq(ctx context.Context) (int64, error) {
	var seq int64
	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(seq), 0) FROM (
			SELECT seq FROM patches
			UNION ALL
			SELECT seq FROM events
			UNION ALL
			SELECT seq FROM confirms
		)
	`).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("last seq: %w", err)
	}
	return seq, nil
}

// Stats summarizes a journal.
type Stats struct {
	Patches         int
	FailedPatches   int
	Events          int
	DroppedEvents   int
	PhaseViolations int
}

// ReadStats counts journal rows by outcome.
func (s *Store) ReadStats(ctx context.Context) (Stats, error) {
	var st Stats
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(error_code != ''), 0) FROM patches
	`).Scan(&st.Patches, &st.FailedPatches)
	if err != nil {
		return st, fmt.Errorf("patch stats: %w", err)
	}

	err = s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(delivered = 0), 0), COALESCE(SUM(violation != ''), 0) FROM events
	`).Scan(&st.Events, &st.DroppedEvents, &st.PhaseViolations)
	if err != nil {
		return st, fmt.Errorf("event stats: %w", err)
	}
	return st, nil
}
