package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/viewbridge/internal/store"
)

const dragScenario = `name: drag
description: A pointer drag on a registered knob, then the knob is removed.
steps:
  - update: { view: root, layer: { bounds: [0, 0, 200, 200] } }
  - update: { view: knob, layer: { bounds: [10, 10, 20, 20] } }
  - subview: { parent: root, child: knob }
  - register: { view: knob, category: pointer }
  - event: { view: knob, pointer: { id: 1, phase: began, x: 12, y: 12 } }
    expect: delivered
  - event: { view: knob, pointer: { id: 1, phase: moved, x: 30, y: 12 } }
    expect: delivered
  - event: { view: knob, pointer: { id: 1, phase: ended, x: 30, y: 12 } }
    expect: delivered
  - remove: { view: knob }
assertions:
  - type: trace_count
    op: deliver
    view: knob
    count: 3
  - type: final_state
    view: root
    kind: layer
    children: []
`

const unhandledScenario = `name: unhandled
description: An event for a view with no handler is dropped.
steps:
  - update: { view: root, layer: {} }
  - event: { view: root, pointer: { id: 1, phase: began } }
    expect: delivered
`

// writeFile writes content under dir and returns its path.
func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// execute runs the root command with args and returns stdout and stderr.
func execute(t *testing.T, ctx context.Context, args ...string) (string, string, error) {
	t.Helper()
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	return stdout.String(), stderr.String(), err
}

func TestRunPassingScenario(t *testing.T) {
	path := writeFile(t, t.TempDir(), "drag.yaml", dragScenario)

	stdout, _, err := execute(t, context.Background(), "run", path)
	require.NoError(t, err)
	assert.Contains(t, stdout, "PASS drag (3 delivered, 0 dropped)")
	assert.Contains(t, stdout, "[4] event knob/pointer began -> delivered @4")
	assert.Contains(t, stdout, "[7] remove knob -> ok @7")
	assert.Contains(t, stdout, "Tree:\n  root (layer)\n")
}

func TestRunFailingScenario(t *testing.T) {
	path := writeFile(t, t.TempDir(), "unhandled.yaml", unhandledScenario)

	stdout, _, err := execute(t, context.Background(), "run", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, stdout, "FAIL unhandled (0 delivered, 1 dropped)")
	assert.Contains(t, stdout, "expected delivered, got handler_absent")
	assert.Contains(t, stdout, "Error [E002]: scenario unhandled failed")
}

func TestRunJSON(t *testing.T) {
	path := writeFile(t, t.TempDir(), "drag.yaml", dragScenario)

	stdout, _, err := execute(t, context.Background(), "--format", "json", "run", path)
	require.NoError(t, err)

	var resp struct {
		Status string `json:"status"`
		Data   struct {
			Scenario  string `json:"scenario"`
			Pass      bool   `json:"pass"`
			Delivered int64  `json:"delivered"`
			Tree      []struct {
				View string `json:"view"`
			} `json:"tree"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "drag", resp.Data.Scenario)
	assert.True(t, resp.Data.Pass)
	assert.Equal(t, int64(3), resp.Data.Delivered)
	require.Len(t, resp.Data.Tree, 1)
	assert.Equal(t, "root", resp.Data.Tree[0].View)
}

func TestRunMissingScenario(t *testing.T) {
	_, _, err := execute(t, context.Background(), "run", filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "failed to load scenario")
}

func TestRunRecordsJournal(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "drag.yaml", dragScenario)
	dbPath := filepath.Join(dir, "bridge.db")

	_, _, err := execute(t, context.Background(), "run", "--journal", dbPath, path)
	require.NoError(t, err)

	st, err := store.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()

	ctx := context.Background()
	stats, err := st.ReadStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, store.Stats{Patches: 4, Events: 3}, stats)

	last, err := st.LastSeq(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(7), last)
}

func TestRunRefusesNonEmptyJournal(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "drag.yaml", dragScenario)
	dbPath := filepath.Join(dir, "bridge.db")

	_, _, err := execute(t, context.Background(), "run", "--journal", dbPath, path)
	require.NoError(t, err)

	_, _, err = execute(t, context.Background(), "run", "--journal", dbPath, path)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "already holds records up to seq 7")
}

func TestRunWithConfig(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "drag.yaml", dragScenario)
	dbPath := filepath.Join(dir, "from-config.db")
	cfgPath := writeFile(t, dir, "bridge.cue", `policy: "strict"
log_level: "error"
journal: "`+dbPath+`"
`)

	_, _, err := execute(t, context.Background(), "run", "--config", cfgPath, path)
	require.NoError(t, err)

	_, err = os.Stat(dbPath)
	assert.NoError(t, err, "journal path from config should be used")
}

func TestRunInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "drag.yaml", dragScenario)
	cfgPath := writeFile(t, dir, "bridge.cue", `policy: "lenient"`)

	_, _, err := execute(t, context.Background(), "run", "--config", cfgPath, path)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "failed to load config")
}

func TestRunServesMetricsUntilCancelled(t *testing.T) {
	path := writeFile(t, t.TempDir(), "drag.yaml", dragScenario)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	stdout, stderr, err := execute(t, ctx, "-v", "run", "--metrics-addr", "127.0.0.1:0", path)
	require.NoError(t, err)
	assert.Contains(t, stdout, "PASS drag")
	assert.Contains(t, stderr, "metrics endpoint listening")
	assert.Contains(t, stderr, "Serving metrics")
}

func TestRunBadMetricsAddr(t *testing.T) {
	path := writeFile(t, t.TempDir(), "drag.yaml", dragScenario)

	_, _, err := execute(t, context.Background(), "run", "--metrics-addr", "256.0.0.1:99999", path)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "failed to start metrics endpoint")
}
