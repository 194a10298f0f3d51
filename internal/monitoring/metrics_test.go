package monitoring

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_ObserveRun(t *testing.T) {
	m := NewMetrics(nil)

	m.ObserveRun(true, 3, 2*time.Millisecond)
	m.ObserveRun(true, 5, time.Millisecond)
	m.ObserveRun(false, 11, time.Millisecond)
	m.ObserveRejectedRun()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Runs().WithLabelValues(OutcomeConverged)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Runs().WithLabelValues(OutcomeCapped)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Runs().WithLabelValues(OutcomeRejected)))
}

func TestMetrics_ObserveDataset(t *testing.T) {
	m := NewMetrics(nil)
	m.ObserveDataset()
	m.ObserveDataset()
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Datasets()))
}

func TestMetrics_Handler(t *testing.T) {
	sessions := 4.0
	m := NewMetrics(func() float64 { return sessions })
	m.ObserveRun(true, 3, time.Millisecond)

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	text := string(body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.Contains(text, `kmeans_runs_total{outcome="converged"} 1`), text)
	assert.True(t, strings.Contains(text, "kmeans_active_sessions 4"), text)
	assert.True(t, strings.Contains(text, "kmeans_run_iterations_bucket"), text)
}

func TestNewMetrics_IndependentRegistries(t *testing.T) {
	// Registering twice on a shared registry would panic.
	a := NewMetrics(nil)
	b := NewMetrics(nil)
	a.ObserveDataset()
	assert.Equal(t, 1.0, testutil.ToFloat64(a.Datasets()))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.Datasets()))
}
