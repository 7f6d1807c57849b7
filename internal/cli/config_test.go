package cli

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/viewbridge/internal/config"
)

func TestConfigDefaults(t *testing.T) {
	stdout, _, err := execute(t, context.Background(), "config")
	require.NoError(t, err)
	assert.Equal(t, "policy:       permissive\n"+
		"log_level:    info\n"+
		"journal:      (none)\n"+
		"metrics_addr: (none)\n", stdout)
}

func TestConfigFileJSON(t *testing.T) {
	path := writeFile(t, t.TempDir(), "bridge.cue", `policy: "strict"
metrics_addr: ":9090"
`)

	stdout, _, err := execute(t, context.Background(), "--format", "json", "config", path)
	require.NoError(t, err)

	var resp struct {
		Status string        `json:"status"`
		Data   config.Config `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, config.Config{Policy: "strict", LogLevel: "info", MetricsAddr: ":9090"}, resp.Data)
}

func TestConfigInvalid(t *testing.T) {
	path := writeFile(t, t.TempDir(), "bridge.cue", `log_level: "trace"`)

	_, _, err := execute(t, context.Background(), "config", path)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	var cfgErr *config.Error
	require.ErrorAs(t, err, &cfgErr)
	assert.Contains(t, err.Error(), "invalid config")
}

func TestConfigMissingFile(t *testing.T) {
	_, _, err := execute(t, context.Background(), "config", filepath.Join(t.TempDir(), "absent.cue"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
