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

	"github.com/roach88/viewbridge/internal/ir"
)

// encodeDrag encodes the drag scenario and returns the stream path.
func encodeDrag(t *testing.T, dir string) string {
	t.Helper()
	path := writeFile(t, dir, "drag.yaml", dragScenario)
	streamPath := filepath.Join(dir, "drag.bin")

	stdout, _, err := execute(t, context.Background(), "encode", path, "-o", streamPath)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Encoded 7 records")
	return streamPath
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	streamPath := encodeDrag(t, t.TempDir())

	stdout, _, err := execute(t, context.Background(), "--format", "json", "decode", streamPath)
	require.NoError(t, err)

	var resp struct {
		Status string       `json:"status"`
		Data   DecodeOutput `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Empty(t, resp.Data.Failures)

	kinds := make([]string, 0, len(resp.Data.Records))
	for _, r := range resp.Data.Records {
		kinds = append(kinds, r.Kind)
	}
	assert.Equal(t, []string{"patch", "patch", "patch", "event", "event", "event", "patch"}, kinds)

	knob := ir.NamedViewID("knob").String()
	assert.Equal(t, "event "+knob+"/pointer began", resp.Data.Records[3].Detail)
	assert.Equal(t, "remove "+knob, resp.Data.Records[6].Detail)

	info, err := os.Stat(streamPath)
	require.NoError(t, err)
	assert.Equal(t, info.Size(), resp.Data.Bytes)
}

func TestDecodeContinuesPastBadRecord(t *testing.T) {
	streamPath := encodeDrag(t, t.TempDir())

	data, err := os.ReadFile(streamPath)
	require.NoError(t, err)
	// Byte 4 is the first record's kind, byte 5 its version.
	data[5] = 0xFF
	require.NoError(t, os.WriteFile(streamPath, data, 0644))

	stdout, _, err := execute(t, context.Background(), "decode", streamPath)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, stdout, "✗ record 0 at offset 0: ")
	assert.Contains(t, stdout, "6 records decoded, 1 failed")
	assert.Contains(t, stdout, "Error [E003]: 1 records failed to decode")
}

func TestDecodeStreamTruncated(t *testing.T) {
	streamPath := encodeDrag(t, t.TempDir())

	data, err := os.ReadFile(streamPath)
	require.NoError(t, err)

	result, err := decodeStream(bytes.NewReader(data[:len(data)-3]))
	require.NoError(t, err)
	assert.Len(t, result.Records, 6)
	require.Len(t, result.Failures, 1)
	assert.Equal(t, 6, result.Failures[0].Index)
	assert.Equal(t, string(ir.ErrCodeMalformed), result.Failures[0].Code)
	assert.Equal(t, int64(len(data)-3), result.Bytes)
}

func TestDecodeStreamUnknownKind(t *testing.T) {
	// One framed record holding a single unknown kind byte.
	stream := []byte{1, 0, 0, 0, 0x7F}

	result, err := decodeStream(bytes.NewReader(stream))
	require.NoError(t, err)
	assert.Empty(t, result.Records)
	require.Len(t, result.Failures, 1)
	assert.Equal(t, string(ir.ErrCodeUnknownTag), result.Failures[0].Code)
	assert.Equal(t, int64(0), result.Failures[0].Offset)
}

func TestEncodeRequiresOutput(t *testing.T) {
	path := writeFile(t, t.TempDir(), "drag.yaml", dragScenario)

	_, _, err := execute(t, context.Background(), "encode", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag")
}

func TestDecodeMissingFile(t *testing.T) {
	_, _, err := execute(t, context.Background(), "decode", filepath.Join(t.TempDir(), "absent.bin"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
