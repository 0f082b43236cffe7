package metrics

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProviderExposesStandardCollectors(t *testing.T) {
	p := Init(Config{Build: BuildInfo{Version: "test", Revision: "abc"}})

	rr := httptest.NewRecorder()
	p.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	body := rr.Body.String()
	assert.Contains(t, body, "go_goroutines")
	assert.Contains(t, body, `brewmap_build_info{revision="abc",version="test"} 1`)
}

func TestDominanceCollectors(t *testing.T) {
	p := Init(Config{})
	d := NewDominance(p.Registerer())

	d.ObserveComputation(20*time.Millisecond, 120, 7, 40, 1)
	d.ObserveComputation(10*time.Millisecond, 100, 5, 30, 0)
	d.ObserveFailure()
	d.ObserveCache(true)
	d.ObserveCache(false)
	d.ObserveCache(false)

	assert.Equal(t, 2.0, testutil.ToFloat64(d.computations.WithLabelValues(OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(d.computations.WithLabelValues(OutcomeError)))
	assert.Equal(t, 5.0, testutil.ToFloat64(d.regions))
	assert.Equal(t, 30.0, testutil.ToFloat64(d.winningCells))
	assert.Equal(t, 100.0, testutil.ToFloat64(d.votes))
	assert.Equal(t, 1.0, testutil.ToFloat64(d.degenerate))
	assert.Equal(t, 1.0, testutil.ToFloat64(d.cacheLookups.WithLabelValues(CacheHit)))
	assert.Equal(t, 2.0, testutil.ToFloat64(d.cacheLookups.WithLabelValues(CacheMiss)))
	assert.Equal(t, 1, testutil.CollectAndCount(d.duration))

	rr := httptest.NewRecorder()
	p.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, rr.Body.String(), "brewmap_compute_duration_seconds_count 2")
}

func TestNewDominanceWithoutRegistry(t *testing.T) {
	d := NewDominance(nil)
	d.ObserveFailure()
	assert.Equal(t, 1.0, testutil.ToFloat64(d.computations.WithLabelValues(OutcomeError)))
}

func TestRouter(t *testing.T) {
	h := Router(Init(Config{}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, strings.HasPrefix(rr.Header().Get("Content-Type"), "text/plain"))
	assert.Equal(t, "ok", strings.TrimSpace(rr.Body.String()))

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestServeStopsOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Serve(ctx, addr, Init(Config{}), zerolog.Nop()) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/healthz")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}

func TestServeReportsListenError(t *testing.T) {
	err := Serve(context.Background(), "256.0.0.1:bad", Init(Config{}), zerolog.Nop())
	assert.Error(t, err)
}
