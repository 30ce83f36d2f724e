package metrics

import (
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounterInc(t *testing.T) {
	r := NewRegistry()
	c := r.NewCounter("test_total", "A test counter.")
	c.Inc()
	c.Inc()

	samples := c.Collect()
	require.Len(t, samples, 1)
	assert.Equal(t, float64(2), samples[0].Value)
}

func TestCounterLabels(t *testing.T) {
	r := NewRegistry()
	c := r.NewCounter("reqs_total", "Requests.", "method", "status")
	c.IncWith("GET", "200")
	c.IncWith("GET", "200")
	c.IncWith("GET", "404")

	samples := c.Collect()
	assert.Len(t, samples, 2)

	// Wrong label count is dropped, not panicked.
	c.IncWith("GET")
	assert.Len(t, c.Collect(), 2)
}

func TestGaugeSetAndAdd(t *testing.T) {
	r := NewRegistry()
	g := r.NewGauge("rules_loaded", "Rules.", "file")
	g.SetWith(7, "headers")
	g.SetWith(3, "redirects")

	samples := g.Collect()
	assert.Len(t, samples, 2)

	u := r.NewGauge("up_down", "Up and down.")
	u.Add(2)
	u.Add(-1)
	s := u.Collect()
	require.Len(t, s, 1)
	assert.Equal(t, float64(1), s[0].Value)
}

func TestRegistryDuplicatePanics(t *testing.T) {
	r := NewRegistry()
	r.NewCounter("dup_total", "First.")
	assert.Panics(t, func() { r.NewCounter("dup_total", "Second.") })
}

func TestHandlerExposition(t *testing.T) {
	r := NewRegistry()
	c := r.NewCounter("statikd_requests_total", "Total HTTP requests served.", "method", "status")
	c.IncWith("GET", "200")
	c.IncWith("GET", "200")
	c.IncWith("POST", "405")

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	assert.Equal(t, "text/plain; version=0.0.4; charset=utf-8", rec.Header().Get("Content-Type"))
	body := rec.Body.String()
	assert.Contains(t, body, "# HELP statikd_requests_total Total HTTP requests served.")
	assert.Contains(t, body, "# TYPE statikd_requests_total counter")
	assert.Contains(t, body, `statikd_requests_total{method="GET",status="200"} 2`)
	assert.Contains(t, body, `statikd_requests_total{method="POST",status="405"} 1`)
}

func TestHandlerSkipsEmptyMetrics(t *testing.T) {
	r := NewRegistry()
	r.NewCounter("never_used_total", "Unused.", "label")

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	assert.Empty(t, rec.Body.String())
}

func TestCounterConcurrent(t *testing.T) {
	r := NewRegistry()
	c := r.NewCounter("concurrent_total", "Concurrent.")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				c.Inc()
			}
		}()
	}
	wg.Wait()

	samples := c.Collect()
	require.Len(t, samples, 1)
	assert.Equal(t, float64(8000), samples[0].Value)
}

func TestDefaultMetrics(t *testing.T) {
	m := Default()
	m.RequestsTotal.IncWith("GET", "200")
	m.RedirectsTotal.Inc()
	m.RulesLoaded.SetWith(4, "headers")

	rec := httptest.NewRecorder()
	m.Registry.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body := rec.Body.String()
	assert.Contains(t, body, "statikd_requests_total")
	assert.Contains(t, body, "statikd_redirects_total 1")
	assert.Contains(t, body, `statikd_rules_loaded{file="headers"} 4`)
}
