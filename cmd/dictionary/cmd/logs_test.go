package cmd

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/dictionary/internal/config"
)

const sampleLog = `{"time":"2026-01-02T10:00:00Z","level":"INFO","msg":"http_server_started","addr":"0.0.0.0:7878"}
{"time":"2026-01-02T10:00:01Z","level":"WARN","msg":"consumer_apply_failed","topic":"menu"}
{"time":"2026-01-02T10:00:02Z","level":"ERROR","msg":"query_failed","kind":"window"}
{"time":"2026-01-02T10:00:03Z","level":"INFO","msg":"consumer_stopped"}
`

func writeSampleLog(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dictionary.log")
	require.NoError(t, writeFile(path, sampleLog))
	return path
}

func TestLogsCmd_Tail(t *testing.T) {
	// Given: a log file with four entries
	isolateEnv(t, nil)
	path := writeSampleLog(t)

	// When: showing the last two
	stdout, _, err := execute(context.Background(), "logs", "--file", path, "-n", "2")

	// Then: only those two are printed, without colors
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "ERROR query_failed kind=window")
	assert.Contains(t, lines[1], "INFO  consumer_stopped")
}

func TestLogsCmd_LevelAndGrep(t *testing.T) {
	isolateEnv(t, nil)
	path := writeSampleLog(t)

	stdout, _, err := execute(context.Background(), "logs", "--file", path, "--level", "warn", "--grep", "consumer")

	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "consumer_apply_failed")
}

func TestLogsCmd_FileFromEnvironment(t *testing.T) {
	path := writeSampleLog(t)
	isolateEnv(t, map[string]string{config.EnvLogFile: path})

	stdout, _, err := execute(context.Background(), "logs")

	require.NoError(t, err)
	assert.Contains(t, stdout, "http_server_started")
}

func TestLogsCmd_NoFile(t *testing.T) {
	isolateEnv(t, nil)

	_, _, err := execute(context.Background(), "logs")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "LOG_FILE")
}

func TestLogsCmd_InvalidPattern(t *testing.T) {
	isolateEnv(t, nil)
	path := writeSampleLog(t)

	_, _, err := execute(context.Background(), "logs", "--file", path, "--grep", "(")

	require.Error(t, err)
}
