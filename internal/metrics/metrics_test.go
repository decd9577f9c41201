package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_Counters(t *testing.T) {
	c := New()

	c.Published("icu/spo2")
	c.Published("icu/spo2")
	c.Published("icu/pulse")
	c.PublishError("icu/pulse")
	c.Violation("spo2.schema.json")
	c.Overrun()

	assert.Equal(t, 2.0, testutil.ToFloat64(c.published.WithLabelValues("icu/spo2")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.published.WithLabelValues("icu/pulse")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.publishErrors.WithLabelValues("icu/pulse")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.violations.WithLabelValues("spo2.schema.json")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.overruns))
}

func TestCollector_IndependentRegistries(t *testing.T) {
	a := New()
	b := New()

	a.Overrun()

	assert.Equal(t, 1.0, testutil.ToFloat64(a.overruns))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.overruns))
}

func TestCollector_Handler(t *testing.T) {
	c := New()
	c.Published("icu/bloodPressure")
	c.ObserveTick(120 * time.Millisecond)

	srv := httptest.NewServer(c.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `wisefido_simulator_published_total{channel="icu/bloodPressure"} 1`)
	assert.Contains(t, string(body), "wisefido_simulator_tick_duration_seconds_count 1")
}
