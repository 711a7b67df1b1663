package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Record(t *testing.T) {
	m := New()

	m.ObserveRequest("/states", "GET", 200, 5*time.Millisecond)
	m.ObserveRequest("/states", "GET", 200, 7*time.Millisecond)
	m.ObserveRequest("", "GET", 404, time.Millisecond)
	m.AddSkipped("top", 3)
	m.AddSkipped("top", 0)
	m.IncrementReload(false)
	m.ObserveLoad(480, time.Unix(1735689600, 0))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Requests.WithLabelValues("/states", "GET", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Requests.WithLabelValues("unmatched", "GET", "404")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.SkippedRows.WithLabelValues("top")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Reloads.WithLabelValues("failure")))
	assert.Equal(t, 480.0, testutil.ToFloat64(m.DatasetRows))
	assert.Equal(t, 1735689600.0, testutil.ToFloat64(m.DatasetLoadedAt))
}

func TestMetrics_IndependentRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		New()
		New()
	})
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveRequest("/x", "GET", 200, time.Second)
		m.AddSkipped("x", 1)
		m.IncrementReload(true)
		m.ObserveLoad(1, time.Now())
	})
}

func TestHandler_ServesTextFormat(t *testing.T) {
	m := New()
	m.AddSkipped("export", 2)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	require.Equal(t, 200, rec.Code)
	body, _ := io.ReadAll(rec.Body)
	assert.Contains(t, string(body), `districtrisk_engine_skipped_rows_total{operation="export"} 2`)
}
