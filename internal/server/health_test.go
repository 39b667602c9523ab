package server

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// brokenWriter имитирует клиента, закрывшего соединение до ответа.
type brokenWriter struct {
	header http.Header
	status int
}

func (w *brokenWriter) Header() http.Header {
	return w.header
}

func (w *brokenWriter) Write([]byte) (int, error) {
	return 0, errors.New("connection reset by peer")
}

func (w *brokenWriter) WriteHeader(status int) {
	w.status = status
}

func TestHealthHandler_LogsWriteFailure(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	w := &brokenWriter{header: http.Header{}}

	healthHandler(zap.New(core))(w, httptest.NewRequest(http.MethodGet, "/alive", nil))

	assert.Equal(t, http.StatusOK, w.status)
	entries := logs.FilterMessage("failed to write health response").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
	assert.Equal(t, "/alive", entries[0].ContextMap()["path"])
}

func TestHealthHandler_NoLogOnSuccess(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	rec := httptest.NewRecorder()

	healthHandler(zap.New(core))(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok":"yes"}`, rec.Body.String())
	assert.Zero(t, logs.Len())
}
