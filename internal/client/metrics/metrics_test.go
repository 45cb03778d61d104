package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_ObserveSync(t *testing.T) {
	c := NewCollector()

	c.ObserveSync(120*time.Millisecond, 3, 2, 0, nil)
	c.ObserveSync(time.Second, 1, 0, 1, errors.New("partial"))
	c.SyncSkipped()

	assert.Equal(t, 1.0, testutil.ToFloat64(c.passes.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.passes.WithLabelValues("error")))
	assert.Equal(t, 4.0, testutil.ToFloat64(c.uploads))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.downloads))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.failures))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.skipped))
	assert.Greater(t, testutil.ToFloat64(c.lastSyncAt), 0.0)
	assert.Equal(t, 1, testutil.CollectAndCount(c.duration))
}

func TestCollectors_AreIndependent(t *testing.T) {
	a, b := NewCollector(), NewCollector()
	a.SyncSkipped()
	assert.Equal(t, 0.0, testutil.ToFloat64(b.skipped))
}

func TestHandler_ExposesMetrics(t *testing.T) {
	c := NewCollector()
	c.ObserveSync(time.Millisecond, 1, 0, 0, nil)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	require.Equal(t, 200, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "promptkeeper_sync_uploaded_records_total 1")
	assert.Contains(t, string(body), `promptkeeper_sync_passes_total{status="success"} 1`)
}
