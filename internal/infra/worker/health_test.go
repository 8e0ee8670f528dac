package worker

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealthServer_Liveness(t *testing.T) {
	server := NewHealthServer(":0", prometheus.NewRegistry(), discardLogger())

	rec := get(t, server.Handler(), "/health")

	assert.Equal(t, http.StatusOK, rec.Code)
	var body healthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Status)
	assert.Nil(t, body.LastRun)
}

func TestHealthServer_LivenessReportsLastRun(t *testing.T) {
	server := NewHealthServer(":0", prometheus.NewRegistry(), discardLogger())
	finished := time.Date(2025, 3, 10, 9, 0, 5, 0, time.UTC)
	server.RecordRun(RunStatus{
		StartedAt:  finished.Add(-5 * time.Second),
		FinishedAt: finished,
		Success:    false,
		Error:      "all sources failed",
	})

	rec := get(t, server.Handler(), "/health")

	var body healthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotNil(t, body.LastRun)
	assert.False(t, body.LastRun.Success)
	assert.Equal(t, "all sources failed", body.LastRun.Error)
	assert.True(t, finished.Equal(body.LastRun.FinishedAt))
}

func TestHealthServer_Readiness(t *testing.T) {
	server := NewHealthServer(":0", prometheus.NewRegistry(), discardLogger())
	h := server.Handler()

	assert.Equal(t, http.StatusServiceUnavailable, get(t, h, "/health/ready").Code)

	server.SetReady(true)
	assert.Equal(t, http.StatusOK, get(t, h, "/health/ready").Code)

	server.SetReady(false)
	assert.Equal(t, http.StatusServiceUnavailable, get(t, h, "/health/ready").Code)
}

func TestHealthServer_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewWorkerMetrics(reg)
	m.RecordSkipped()
	server := NewHealthServer(":0", reg, discardLogger())

	rec := get(t, server.Handler(), "/metrics")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `worker_job_runs_total{status="skipped"} 1`))
}

func TestHealthServer_StartStopsOnCancel(t *testing.T) {
	server := NewHealthServer("127.0.0.1:0", prometheus.NewRegistry(), discardLogger())
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- server.Start(ctx) }()
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, http.ErrServerClosed)
	case <-time.After(6 * time.Second):
		t.Fatal("server did not stop")
	}
}
