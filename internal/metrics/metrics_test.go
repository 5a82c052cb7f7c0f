package metrics

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

func TestMetrics_Counters(t *testing.T) {
	t.Parallel()

	m := New()

	m.PageCrawled("https://x.test/", 0, false)
	m.PageCrawled("https://x.test/a", 1, false)
	m.PageCrawled("https://x.test/b", 1, true)
	m.ChunksIndexed(7)
	m.Answered("query", 3)
	m.Answered("chat", 1)
	m.Answered("chat", 0)

	assert.InDelta(t, 2, testutil.ToFloat64(m.pagesCrawled.WithLabelValues(ResultOK)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.pagesCrawled.WithLabelValues(ResultFailed)), 0)
	assert.InDelta(t, 7, testutil.ToFloat64(m.chunksIndexed), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.queries.WithLabelValues("query")), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(m.queries.WithLabelValues("chat")), 0)
}

func TestMetrics_SessionsGauge(t *testing.T) {
	t.Parallel()

	m := New()
	m.SessionsChanged(5)
	m.SessionsChanged(3)

	assert.InDelta(t, 3, testutil.ToFloat64(m.activeSessions), 0)
}

func TestMetrics_Histograms(t *testing.T) {
	t.Parallel()

	m := New()
	m.IngestFinished(2*time.Second, false)
	m.IngestFinished(time.Second, true)
	m.ObserveRequest("/api/query", http.StatusOK, 10*time.Millisecond)

	assert.Equal(t, 2, testutil.CollectAndCount(m.ingestDuration))
	assert.Equal(t, 1, testutil.CollectAndCount(m.requestDuration))
	assert.InDelta(t, 1, testutil.ToFloat64(m.httpRequests.WithLabelValues("/api/query", "200")), 0)
}

func TestMetrics_Handler(t *testing.T) {
	t.Parallel()

	m := New()
	m.ChunksIndexed(1)

	server := httptest.NewServer(m.Handler())
	defer server.Close()

	resp, err := http.Get(server.URL) //nolint:noctx
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	text := string(body)
	assert.True(t, strings.Contains(text, "sitechat_chunks_indexed_total 1"))
	assert.Contains(t, text, "go_goroutines")
}

func TestNew_IndependentRegistries(t *testing.T) {
	t.Parallel()

	a, b := New(), New()
	a.ChunksIndexed(3)

	assert.InDelta(t, 0, testutil.ToFloat64(b.chunksIndexed), 0)
	assert.NotSame(t, a.Registry(), b.Registry())
}
