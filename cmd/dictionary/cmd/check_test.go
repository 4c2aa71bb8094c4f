package cmd

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/dictionary/internal/config"
)

func TestCheckCmd_Ready(t *testing.T) {
	// Given: a writable data directory and an in-process queue
	isolateEnv(t, map[string]string{
		config.EnvDataDir:     t.TempDir(),
		config.EnvQueueDriver: "memory",
	})

	// When: running the checks as JSON
	stdout, _, err := execute(context.Background(), "check", "--json")

	// Then: no check fails
	require.NoError(t, err)
	var report struct {
		Status string `json:"status"`
		Checks []struct {
			Name   string `json:"name"`
			Status string `json:"status"`
		} `json:"checks"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &report))
	assert.NotEqual(t, "failed", report.Status)
	require.Len(t, report.Checks, 6)
	assert.Equal(t, "write_permissions", report.Checks[0].Name)
	assert.Equal(t, "PASS", report.Checks[0].Status)
}

func TestCheckCmd_BrokerDownIsNotFatal(t *testing.T) {
	isolateEnv(t, map[string]string{
		config.EnvDataDir:   t.TempDir(),
		config.EnvKafkaHost: "127.0.0.1:1",
	})

	stdout, _, err := execute(context.Background(), "check")

	require.NoError(t, err)
	assert.Contains(t, stdout, "[FAIL] broker: 127.0.0.1:1 unreachable")
}

func TestCheckCmd_TimeoutFlag(t *testing.T) {
	isolateEnv(t, map[string]string{
		config.EnvDataDir:   t.TempDir(),
		config.EnvKafkaHost: "127.0.0.1:1",
	})

	stdout, _, err := execute(context.Background(), "check", "--timeout", "100ms")

	require.NoError(t, err)
	assert.Contains(t, stdout, "[FAIL] broker: 127.0.0.1:1 unreachable")
}
