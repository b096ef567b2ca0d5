package metrics

import (
	"net"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorsRecord(t *testing.T) {
	m := New()
	m.QueriesTotal.WithLabelValues("wand", ResultHit).Inc()
	m.QueriesTotal.WithLabelValues("wand", ResultHit).Inc()
	m.QueriesTotal.WithLabelValues("wand", ResultZeroResult).Inc()
	m.CacheHitsTotal.Inc()

	families, err := m.Registry.Gather()
	require.NoError(t, err)
	values := map[string]float64{}
	for _, mf := range families {
		for _, metric := range mf.GetMetric() {
			name := mf.GetName()
			for _, label := range metric.GetLabel() {
				name += "," + label.GetValue()
			}
			values[name] = metric.GetCounter().GetValue()
		}
	}
	assert.Equal(t, 2.0, values["queries_evaluated_total,wand,hit"])
	assert.Equal(t, 1.0, values["queries_evaluated_total,wand,zero_result"])
	assert.Equal(t, 1.0, values["result_cache_hits_total"])
}

func TestTwoRunsDoNotCollide(t *testing.T) {
	assert.NotPanics(t, func() {
		New()
		New()
	})
}

func TestWriteTextfile(t *testing.T) {
	m := New()
	m.IndexDocuments.Set(42)
	path := filepath.Join(t.TempDir(), "run.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "index_documents 42")
}

func TestHandlerServesRegistry(t *testing.T) {
	m := New()
	m.IndexTerms.Set(7)
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), "index_terms 7")
}

func TestStartServerReportsBusyPort(t *testing.T) {
	ln, err := net.Listen("tcp", ":0")
	require.NoError(t, err)
	defer ln.Close()
	port := ln.Addr().(*net.TCPAddr).Port

	_, err = StartServer(port, New())
	assert.Error(t, err)
}
