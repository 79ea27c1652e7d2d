package integration

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/meganame/megacheck/internal/core"
	"github.com/meganame/megacheck/internal/core/engine"
	"github.com/meganame/megacheck/internal/core/registry"
	"github.com/meganame/megacheck/internal/observability"
	"github.com/meganame/megacheck/internal/server"
	"github.com/meganame/megacheck/internal/server/handlers"
)

// cleanupMetrics tears down global telemetry state so each test starts clean.
func cleanupMetrics(t *testing.T) {
	t.Helper()
	t.Cleanup(func() {
		if observability.PrometheusExporter != nil {
			_ = observability.PrometheusExporter.Stop()
			observability.PrometheusExporter = nil
		}
		observability.TelemetrySystem = nil
	})
}

// isPermissionError normalizes OS-specific permission errors so we can skip
// when loopback sockets are blocked.
func isPermissionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, os.ErrPermission) || errors.Is(err, syscall.EACCES) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, fragment := range []string{"permission denied", "operation not permitted", "not permitted"} {
		if strings.Contains(msg, fragment) {
			return true
		}
	}
	return false
}

func initMetricsOrSkip(t *testing.T) {
	t.Helper()

	if err := observability.InitMetrics(observability.MetricsOptions{Namespace: "megacheck"}); err != nil {
		if isPermissionError(err) {
			t.Skipf("skipping metrics tests due to sandbox permissions: %v", err)
		}
		require.NoError(t, err)
	}
	cleanupMetrics(t)
}

// startServer serves the full router on an IPv4 loopback socket.
func startServer(t *testing.T, reg registry.Registry) (*httptest.Server, *http.Client) {
	t.Helper()

	require.NoError(t, observability.InitServerLogger(observability.ServerLogOptions{
		Service:     "megacheck-test",
		Level:       "info",
		Environment: "test",
		Namespace:   "megacheck",
	}))
	handlers.InitHealthManager("test")

	srv := server.New(server.Options{
		Host: "127.0.0.1",
		Checker: engine.NewChecker(reg, engine.Config{
			Concurrency: 8,
			Timeout:     2 * time.Second,
			Rules:       core.DefaultLabelRules(),
		}),
		Rules:    core.DefaultLabelRules(),
		MaxNames: engine.DefaultMaxBatch,
	})

	listener, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		if isPermissionError(err) {
			t.Skipf("skipping server setup: %v", err)
		}
		require.NoError(t, err)
	}

	ts := &httptest.Server{
		Listener: listener,
		Config:   &http.Server{Handler: srv.Handler()},
	}
	ts.Start()
	t.Cleanup(ts.Close)
	return ts, ts.Client()
}

func postNames(t *testing.T, client *http.Client, url string, names []string) *core.BatchResponse {
	t.Helper()

	resp, err := checkOnce(client, url, names)
	require.NoError(t, err)
	return resp
}

func checkOnce(client *http.Client, url string, names []string) (*core.BatchResponse, error) {
	body, err := json.Marshal(map[string]any{"names": names})
	if err != nil {
		return nil, err
	}
	resp, err := client.Post(url+"/api/check", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close() // nolint:errcheck
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}
	var decoded core.BatchResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, err
	}
	return &decoded, nil
}

func TestCheckEndpointUnderLoad(t *testing.T) {
	initMetricsOrSkip(t)

	ts, client := startServer(t, registry.NewStatic("alice", "bob"))
	batch := []string{"alice", "carol", "bad_name", "bob"}

	const batches = 40
	var g errgroup.Group
	g.SetLimit(8)

	start := time.Now()
	for i := 0; i < batches; i++ {
		g.Go(func() error {
			resp, err := checkOnce(client, ts.URL, batch)
			if err != nil {
				return err
			}
			if len(resp.Results) != len(batch) || resp.Summary.Taken != 2 {
				return fmt.Errorf("unexpected summary %+v", resp.Summary)
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
	elapsed := time.Since(start)

	resp, err := client.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	body, readErr := io.ReadAll(resp.Body)
	require.NoError(t, resp.Body.Close())
	require.NoError(t, readErr)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	scraped := string(body)
	assert.Contains(t, scraped, "megacheck_http_requests_total")
	assert.Contains(t, scraped, "megacheck_lookups_total")
	assert.Less(t, elapsed, 5*time.Second)
	t.Logf("%d batches in %v", batches, elapsed)
}

func TestCheckEndpointWithUnreachableRegistry(t *testing.T) {
	initMetricsOrSkip(t)

	closed := httptest.NewServer(http.NotFoundHandler())
	endpoint := closed.URL
	closed.Close()

	reg, err := registry.Dial(t.Context(), registry.Options{RPCURL: endpoint, Timeout: time.Second})
	require.NoError(t, err)
	t.Cleanup(reg.Close)

	ts, client := startServer(t, reg)

	resp := postNames(t, client, ts.URL, []string{"alpha", "beta", "gamma", "bad!"})
	require.Len(t, resp.Results, 4)
	for _, r := range resp.Results[:3] {
		assert.Equal(t, core.StatusError, r.Status)
		assert.Equal(t, "registry unavailable", r.Detail)
	}
	assert.Equal(t, core.StatusInvalid, resp.Results[3].Status)
	assert.Equal(t, 3, resp.Summary.Error)
}

func TestMetricsEndpointWithTelemetryDisabled(t *testing.T) {
	originalExporter := observability.PrometheusExporter
	originalTelemetry := observability.TelemetrySystem
	observability.PrometheusExporter = nil
	observability.TelemetrySystem = nil
	t.Cleanup(func() {
		observability.PrometheusExporter = originalExporter
		observability.TelemetrySystem = originalTelemetry
	})

	ts, client := startServer(t, registry.NewStatic())

	resp, err := client.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	checked := postNames(t, client, ts.URL, []string{"alpha"})
	assert.Equal(t, 1, checked.Summary.Available)
}
