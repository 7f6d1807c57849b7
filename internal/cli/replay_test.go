package cli

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/viewbridge/internal/ir"
	"github.com/roach88/viewbridge/internal/store"
)

// recordDrag runs the drag scenario into a fresh journal and returns its path.
func recordDrag(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := writeFile(t, dir, "drag.yaml", dragScenario)
	dbPath := filepath.Join(dir, "bridge.db")

	_, _, err := execute(t, context.Background(), "run", "--journal", dbPath, path)
	require.NoError(t, err)
	return dbPath
}

func TestReplayReproducesRun(t *testing.T) {
	dbPath := recordDrag(t)

	stdout, _, err := execute(t, context.Background(), "--format", "json", "replay", "--db", dbPath)
	require.NoError(t, err)

	var resp struct {
		Status string       `json:"status"`
		Data   ReplayOutput `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 4, resp.Data.Patches)
	assert.Equal(t, 3, resp.Data.Events)
	assert.Zero(t, resp.Data.FailedPatches)
	assert.Empty(t, resp.Data.Divergences)

	root := ir.NamedViewID("root").String()
	assert.Equal(t, []ReplayNode{{View: root, Kind: "layer", Children: []string{}}}, resp.Data.Tree)
}

func TestReplayText(t *testing.T) {
	dbPath := recordDrag(t)

	stdout, _, err := execute(t, context.Background(), "replay", "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Journal: 4 patches (0 failed), 3 events (0 dropped, 0 phase violations)")
	assert.Contains(t, stdout, "  "+ir.NamedViewID("root").String()+" (layer)")
	assert.NotContains(t, stdout, "History:")
}

func TestReplayViewHistory(t *testing.T) {
	dbPath := recordDrag(t)
	knob := ir.NamedViewID("knob").String()

	stdout, _, err := execute(t, context.Background(), "replay", "--db", dbPath, "--view", knob)
	require.NoError(t, err)
	assert.Contains(t, stdout, "History:\n  @2 update "+knob+" layer\n  @7 remove "+knob+"\n")
}

func TestReplayDivergence(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "tampered.db")
	st, err := store.Open(dbPath)
	require.NoError(t, err)

	ctx := context.Background()
	root := ir.NamedViewID("root")
	require.NoError(t, st.WritePatch(ctx, store.PatchRecord{
		Seq:   1,
		Patch: ir.Update{View: root, Props: ir.LayerProps{Transform: ir.Identity3, Opacity: 1}},
		// The update succeeds on replay.
		ErrorCode: ir.ErrCodeViewRetired,
	}))
	require.NoError(t, st.Close())

	stdout, _, err := execute(t, context.Background(), "replay", "--db", dbPath)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, stdout, `✗ seq 1 (update `+root.String()+`): recorded "VIEW_RETIRED", replayed ""`)
	assert.Contains(t, stdout, "Error [E004]: replay diverged at 1 patches")
}

func TestReplayMissingJournal(t *testing.T) {
	_, _, err := execute(t, context.Background(), "replay", "--db", filepath.Join(t.TempDir(), "absent.db"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "journal not found")
}

func TestReplayInvalidView(t *testing.T) {
	dbPath := recordDrag(t)

	_, _, err := execute(t, context.Background(), "replay", "--db", dbPath, "--view", "not-a-uuid")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestReplayRequiresDB(t *testing.T) {
	_, _, err := execute(t, context.Background(), "replay")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag")
}
