package server

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChecker struct {
	healthy atomic.Bool
	ready   atomic.Bool
}

func (c *fakeChecker) Healthy() bool { return c.healthy.Load() }

func (c *fakeChecker) Ready() bool { return c.ready.Load() }

func TestProbes(t *testing.T) {
	checker := &fakeChecker{}
	s := NewHTTPServer("")
	s.RegisterHandler("/healthz", HealthzHandler(checker))
	s.RegisterHandler("/readyz", ReadyzHandler(checker))

	probe := func(path string) (int, string) {
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		return rec.Code, rec.Body.String()
	}

	code, body := probe("/healthz")
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.JSONEq(t, `{"status":"unavailable"}`, body)

	checker.healthy.Store(true)
	code, body = probe("/healthz")
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"status":"ok"}`, body)

	code, _ = probe("/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, code)
	checker.ready.Store(true)
	code, _ = probe("/readyz")
	assert.Equal(t, http.StatusOK, code)
}

func TestMetricsHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "k8sedit_test_total", Help: "test"})
	reg.MustRegister(counter)
	counter.Inc()

	rec := httptest.NewRecorder()
	MetricsHandler(reg)(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "k8sedit_test_total 1")
}

func TestStartHttpServer(t *testing.T) {
	s := NewHTTPServer("127.0.0.1:0")
	s.RegisterHandler("/healthz", HealthzHandler(&fakeChecker{}))
	require.NoError(t, s.StartHttpServer())
	t.Cleanup(func() { _ = s.Stop(context.Background()) })

	resp, err := http.Get("http://" + s.Addr().String() + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	_, _ = io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	require.NoError(t, s.Stop(context.Background()))
	_, err = http.Get("http://" + s.Addr().String() + "/healthz")
	assert.Error(t, err)
}

func TestStartHttpServerSkipped(t *testing.T) {
	s := NewHTTPServer("")
	require.NoError(t, s.StartHttpServer())
	assert.Nil(t, s.Addr())

	s = NewHTTPServer("127.0.0.1:0")
	require.NoError(t, s.StartHttpServer())
	assert.Nil(t, s.Addr())
	assert.NoError(t, s.Stop(context.Background()))
}
