package monitoring

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMetricsHandler_ServesPrometheusFormat checks that recorded runs show up
// on the metrics endpoint.
func TestMetricsHandler_ServesPrometheusFormat(t *testing.T) {
	RecordRun("test_strategy", "compounding", 120*time.Millisecond, 104.5)
	RecordError("data")

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	NewMetricsHandler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "backtester_runs_total")
	assert.Contains(t, body, "backtester_run_duration_seconds")
	assert.Contains(t, body, "backtester_final_nav")
	assert.Contains(t, body, "backtester_errors_total")
}

// TestHealthChecker_TracksRuns checks the health payload after a recorded run.
func TestHealthChecker_TracksRuns(t *testing.T) {
	h := NewHealthChecker()
	h.recordRun("momentum", 112.25)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var status HealthStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, "healthy", status.Status)
	assert.Equal(t, 1, status.CompletedRuns)
	assert.Equal(t, "momentum", status.LastStrategy)
	assert.Equal(t, 112.25, status.LastNAV)
}

// TestHealthChecker_UnhealthyOnErrors checks the degraded status code.
func TestHealthChecker_UnhealthyOnErrors(t *testing.T) {
	h := NewHealthChecker()
	h.recordError("run")

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	var status HealthStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, "unhealthy", status.Status)
	assert.Equal(t, []string{"run"}, status.Errors)
}
