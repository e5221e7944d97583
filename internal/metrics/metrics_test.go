package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveTick(t *testing.T) {
	m := New()
	m.ObserveTick(5*time.Millisecond, false)
	m.ObserveTick(30*time.Millisecond, true)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ticks))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.overruns))
	n, err := testutil.GatherAndCount(m.Registry())
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New()
	m.ObserveTick(time.Millisecond, false)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), "matrix_ticks_total 1"))
	assert.True(t, strings.Contains(string(body), "matrix_tick_duration_seconds_bucket"))
}
