package admin

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonasrmichel/solana-cycles/pkg/logging"
	"github.com/jonasrmichel/solana-cycles/pkg/metrics"
)

func get(t *testing.T, url string) (int, string) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestServer_HealthAndReadiness(t *testing.T) {
	s := NewServer(nil, nil, nil, logging.Nop())
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	code, body := get(t, srv.URL+"/healthz")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body)

	code, _ = get(t, srv.URL+"/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, code)

	s.SetReady(true)
	code, body = get(t, srv.URL+"/readyz")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ready", body)

	code, _ = get(t, srv.URL+"/metrics")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestServer_MetricsStatusAndFeed(t *testing.T) {
	metrics.SearchesTotal.Inc()
	feed := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	status := func() any { return map[string]int{"edges": 24} }

	s := NewServer(metrics.NewRegistry(), feed, status, logging.Nop())
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	code, body := get(t, srv.URL+"/metrics")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "cycles_searches_total")
	assert.Contains(t, body, "go_goroutines")

	code, body = get(t, srv.URL+"/status")
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"edges":24}`, body)

	code, _ = get(t, srv.URL+"/feed")
	assert.Equal(t, http.StatusTeapot, code)
}

func TestServer_ListenAndServeStopsOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	s := NewServer(nil, nil, nil, logging.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.ListenAndServe(ctx, addr) }()

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
		t.Fatal("server did not stop")
	}

	_, err = http.Get("http://" + addr + "/healthz")
	assert.Error(t, err)
}
