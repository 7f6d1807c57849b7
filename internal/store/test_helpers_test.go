package store

import (
	"database/sql"
	"path/filepath"
	"slices"
	"testing"

	"github.com/roach88/viewbridge/internal/ir"
)

// createTestStore creates a new store in a temporary directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func layerUpdate(name string, opacity float64) ir.Patch {
	return ir.Update{
		View:  ir.NamedViewID(name),
		Props: ir.LayerProps{Transform: ir.Identity3, Opacity: opacity},
	}
}

func pointerEvent(name string, phase ir.PointerPhase) ir.Event {
	return ir.Event{
		Handler:   ir.HandlerID{View: ir.NamedViewID(name), Category: ir.CategoryPointer},
		Timestamp: 1.25,
		Payload: ir.PointerPayload{
			Device:    ir.DeviceTouch,
			Tilt:      ir.DefaultTilt,
			PointerID: 1,
			Phase:     phase,
		},
	}
}

// getTableColumns returns the column names of table.
func getTableColumns(t *testing.T, db *sql.DB, table string) []string {
	t.Helper()
	rows, err := db.Query("SELECT name FROM pragma_table_info(?)", table)
	if err != nil {
		t.Fatalf("table_info(%s) failed: %v", table, err)
	}
	defer rows.Close()

	var cols []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			t.Fatalf("scan column: %v", err)
		}
		cols = append(cols, name)
	}
	return cols
}

// getTableIndexes returns the index names of table.
func getTableIndexes(t *testing.T, db *sql.DB, table string) []string {
	t.Helper()
	rows, err := db.Query("SELECT name FROM pragma_index_list(?)", table)
	if err != nil {
		t.Fatalf("index_list(%s) failed: %v", table, err)
	}
	defer rows.Close()

	var idx []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			t.Fatalf("scan index: %v", err)
		}
		idx = append(idx, name)
	}
	return idx
}

func contains(list []string, s string) bool {
	return slices.Contains(list, s)
}
