package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/dictionary/internal/config"
)

// freePort returns a TCP port that was free a moment ago.
func freePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())
	return port
}

// startServe runs "serve" in the background and waits for the API.
func startServe(t *testing.T, env map[string]string) (string, func() error) {
	t.Helper()
	port := freePort(t)
	env[config.EnvPort] = strconv.Itoa(port)
	env[config.EnvDataDir] = t.TempDir()
	isolateEnv(t, env)

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() {
		_, _, err := execute(ctx, "serve")
		errc <- err
	}()

	base := fmt.Sprintf("http://127.0.0.1:%d", port)
	require.Eventually(t, func() bool {
		resp, err := http.Get(base + "/api/")
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	stop := func() error {
		cancel()
		select {
		case err := <-errc:
			return err
		case <-time.After(15 * time.Second):
			return fmt.Errorf("serve did not stop")
		}
	}
	return base, stop
}

func TestServeCmd_QueueDisabled(t *testing.T) {
	// Given: a server with the queue disabled
	base, stop := startServe(t, map[string]string{
		config.EnvKafkaEnabled: "N",
		config.EnvVersion:      "2.1.0",
	})

	// When: reading the info endpoint
	resp, err := http.Get(base + "/api/")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	// Then: it reports the configured version and queue state
	var info map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&info))
	assert.Equal(t, "2.1.0", info["version"])
	assert.Equal(t, false, info["is_kafka_enabled"])
	assert.Equal(t, "menu process browser window form", info["kafka_queues"])

	// And: the server stops cleanly on cancel
	require.NoError(t, stop())
}

func TestServeCmd_WithConsumer(t *testing.T) {
	// Given: a server consuming from the in-process queue
	base, stop := startServe(t, map[string]string{
		config.EnvKafkaEnabled: "Y",
		config.EnvQueueDriver:  "memory",
		config.EnvKafkaQueues:  "menu window",
	})

	// When: listing an empty collection
	resp, err := http.Get(base + "/api/dictionary/windows?language=en")
	require.NoError(t, err)
	_ = resp.Body.Close()

	// Then: the API answers and both activities stop on cancel
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, stop())
}

func TestServeCmd_MetricsEndpoint(t *testing.T) {
	base, stop := startServe(t, map[string]string{config.EnvKafkaEnabled: "N"})

	resp, err := http.Get(base + "/metrics")
	require.NoError(t, err)
	_ = resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, stop())
}

func TestServeCmd_Pprof(t *testing.T) {
	// Given: serve started with --pprof
	port := freePort(t)
	isolateEnv(t, map[string]string{
		config.EnvPort:         strconv.Itoa(port),
		config.EnvDataDir:      t.TempDir(),
		config.EnvKafkaEnabled: "N",
	})

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() {
		_, _, err := execute(ctx, "serve", "--pprof")
		errc <- err
	}()

	// When: requesting the pprof index
	url := fmt.Sprintf("http://127.0.0.1:%d/debug/pprof/", port)
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	// Then: it is served, and serve stops on cancel
	cancel()
	require.NoError(t, <-errc)
}
