package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunWithGolden_Scenarios(t *testing.T) {
	paths, err := filepath.Glob(filepath.Join("testdata", "scenarios", "*.yaml"))
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		scenario, err := LoadScenario(path)
		require.NoError(t, err, path)

		t.Run(scenario.Name, func(t *testing.T) {
			result, err := RunWithGolden(t, scenario)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}

func TestMarshalSnapshot_Deterministic(t *testing.T) {
	scenario, err := LoadScenario(filepath.Join("testdata", "scenarios", "remove_own_view.yaml"))
	require.NoError(t, err)

	first, err := Run(scenario)
	require.NoError(t, err)
	second, err := Run(scenario)
	require.NoError(t, err)

	a, err := MarshalSnapshot(scenario.Name, first)
	require.NoError(t, err)
	b, err := MarshalSnapshot(scenario.Name, second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestMarshalSnapshot_OmitsEmptyFields(t *testing.T) {
	result := NewResult()
	result.Trace = append(result.Trace, TraceEntry{Step: 0, Op: OpConfirm, View: "a", Result: ResultNotRetired})
	result.Tree = append(result.Tree, NodeState{View: "b", Kind: "text", Parent: "a", Children: []string{}})

	out, err := MarshalSnapshot("omit", result)
	require.NoError(t, err)
	assert.Equal(t,
		`{"scenario_name":"omit","trace":[{"op":"confirm","result":"not_retired","step":0,"view":"a"}],"tree":[{"children":[],"kind":"text","parent":"a","view":"b"}]}`,
		string(out))
}
