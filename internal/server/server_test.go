package server

import (
	"bytes"
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/UkralStul/graphql-userlist-service/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load(viper.New(), "")
	require.NoError(t, err)
	return cfg
}

func newTestServer(t *testing.T, cfg *config.Config) *httptest.Server {
	t.Helper()
	s, err := New(cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(s.broker.Shutdown)

	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func TestServer_HealthEndpoints(t *testing.T) {
	ts := newTestServer(t, newTestConfig(t))

	for _, path := range []string{"/alive", "/ready"} {
		resp, err := http.Get(ts.URL + path)
		require.NoError(t, err)
		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		require.NoError(t, err)

		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
		assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
		assert.JSONEq(t, `{"ok":"yes"}`, string(body), path)
	}
}

func TestServer_GraphQLOverHTTP(t *testing.T) {
	ts := newTestServer(t, newTestConfig(t))

	post := func(query string) string {
		resp, err := http.Post(ts.URL+"/graphql", "application/json", bytes.NewBufferString(query))
		require.NoError(t, err)
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		return string(body)
	}

	assert.JSONEq(t, `{"data":{"userCount":2}}`, post(`{"query":"{ userCount }"}`))
	assert.JSONEq(t,
		`{"data":{"addUser":"User: Amy was successfully added."}}`,
		post(`{"query":"mutation { addUser(name: \"Amy\") }"}`),
	)
	assert.JSONEq(t, `{"data":{"userCount":3,"users":["John","Jane","Amy"]}}`, post(`{"query":"{ userCount users }"}`))
}

func TestServer_Metrics(t *testing.T) {
	ts := newTestServer(t, newTestConfig(t))

	resp, err := http.Post(ts.URL+"/graphql", "application/json",
		strings.NewReader(`{"query":"mutation { addUser(name: \"Amy\") }"}`))
	require.NoError(t, err)
	resp.Body.Close()

	resp, err = http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Contains(t, string(body), `userlist_list_appends_total{list="users"} 1`)
	assert.Contains(t, string(body), `userlist_notifications_published_total{topic_kind="broadcast"} 1`)
}

func TestServer_Playground(t *testing.T) {
	cfg := newTestConfig(t)
	ts := newTestServer(t, cfg)

	resp, err := http.Get(ts.URL + "/")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cfg = newTestConfig(t)
	cfg.Playground = false
	ts = newTestServer(t, cfg)

	resp, err = http.Get(ts.URL + "/")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	require.NoError(t, l.Close())
	return port
}

func TestServer_RunAndShutdown(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.Port = freePort(t)

	s, err := New(cfg, zap.NewNop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	require.Eventually(t, func() bool {
		conn, err := net.Dial("tcp", net.JoinHostPort("127.0.0.1", strconv.Itoa(cfg.Port)))
		if err != nil {
			return false
		}
		conn.Close()
		return true
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestServer_RunPortInUse(t *testing.T) {
	l, err := net.Listen("tcp", ":0")
	require.NoError(t, err)
	defer l.Close()

	cfg := newTestConfig(t)
	cfg.Port = l.Addr().(*net.TCPAddr).Port

	s, err := New(cfg, zap.NewNop())
	require.NoError(t, err)

	err = s.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server failed to start")
}
