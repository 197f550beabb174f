package logutil

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/lk2023060901/matprops-go/pkg/log"
)

func newEngine(handler gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(TraceLogger(), AccessLog())
	engine.GET("/ping", handler)
	return engine
}

func TestRequestIDGenerated(t *testing.T) {
	var seen string
	engine := newEngine(func(c *gin.Context) {
		seen = GetRequestID(c)
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))

	got := w.Header().Get(RequestIDHeader)
	require.NotEmpty(t, got)
	_, err := uuid.Parse(got)
	assert.NoError(t, err)
	assert.Equal(t, got, seen)
}

func TestRequestIDEchoed(t *testing.T) {
	engine := newEngine(func(c *gin.Context) { c.Status(http.StatusNoContent) })

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(ClientRequestIDHeader, "client-42")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	assert.Equal(t, "client-42", w.Header().Get(RequestIDHeader))
}

func TestLogLevelHeader(t *testing.T) {
	var warnEnabled bool
	engine := newEngine(func(c *gin.Context) {
		warnEnabled = log.Ctx(c.Request.Context()).Core().Enabled(zapcore.WarnLevel)
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(LogLevelHeader, "error")
	engine.ServeHTTP(httptest.NewRecorder(), req)
	assert.False(t, warnEnabled)
}

func TestTraceParentLogged(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, log.InitGlobal(&log.Config{
		Level:  "debug",
		Format: "json",
		File:   log.FileLogConfig{RootPath: dir, Filename: "access.log"},
	}))
	t.Cleanup(func() { _ = log.InitGlobal(&log.Config{Level: "info", Stdout: true}) })

	engine := newEngine(func(c *gin.Context) { c.Status(http.StatusBadRequest) })
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("traceparent", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01")
	req.Header.Set(ClientRequestUnixmsecHeader, "1700000000000")
	engine.ServeHTTP(httptest.NewRecorder(), req)
	require.NoError(t, log.Sync())

	data, err := os.ReadFile(filepath.Join(dir, "access.log"))
	require.NoError(t, err)
	s := string(data)
	assert.Contains(t, s, `"traceID":"4bf92f3577b34da6a3ce929d0e0e4736"`)
	assert.Contains(t, s, `"clientRequestUnixmsec":1700000000000`)
	assert.Contains(t, s, `"status":400`)
}

func TestTraceLoggerFromBase(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	base := &log.MLogger{Logger: zap.New(core).Named("acceptor")}

	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(TraceLoggerFrom(func() *log.MLogger { return base }), AccessLog())
	engine.GET("/ping", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(RequestIDHeader, "req-7")
	engine.ServeHTTP(httptest.NewRecorder(), req)

	entries := logs.FilterMessage("http request").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "acceptor", entries[0].LoggerName)
	assert.Equal(t, "req-7", entries[0].ContextMap()[log.FieldNameReqID])
	assert.EqualValues(t, http.StatusNotFound, entries[0].ContextMap()["status"])
}

func TestHeaderHelpers(t *testing.T) {
	h := http.Header{}
	_, ok := GetClientReqUnixmsec(h)
	assert.False(t, ok)
	h.Set(ClientRequestUnixmsecHeader, "abc")
	_, ok = GetClientReqUnixmsec(h)
	assert.False(t, ok)
	h.Set(ClientRequestUnixmsecHeader, "12")
	v, ok := GetClientReqUnixmsec(h)
	assert.True(t, ok)
	assert.Equal(t, int64(12), v)

	h.Set(ClientRequestIDHeader, "b")
	assert.Equal(t, "b", GetHeader(h, RequestIDHeader, ClientRequestIDHeader))
	assert.Equal(t, "", GetHeader(h, "X-Missing"))
}
