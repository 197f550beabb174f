package logutil

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/lk2023060901/matprops-go/pkg/log"
)

const (
	LogLevelHeader              = "X-Log-Level"
	RequestIDHeader             = "X-Request-ID"
	ClientRequestIDHeader       = "Client-Request-ID"
	ClientRequestUnixmsecHeader = "Client-Request-Msec"

	requestIDKey = "request_id"
)

// TraceLogger 返回一个 gin 中间件，为每个请求的上下文注入带 Trace 信息的 Logger。
//
// 处理的请求头：
//   - X-Log-Level：按请求覆盖日志级别；
//   - X-Request-ID / Client-Request-ID：请求 ID，缺失时生成一个新的 UUID 并写回响应头；
//   - traceparent：W3C Trace Context，合法时作为 traceID 记录；
//   - Client-Request-Msec：客户端发起请求的时间戳（毫秒）。
func TraceLogger() gin.HandlerFunc {
	return TraceLoggerFrom(nil)
}

// TraceLoggerFrom 与 TraceLogger 相同，但以 base 返回的 Logger 作为请求 Logger 的起点。
// base 为 nil 时使用全局 Logger。X-Log-Level 仍会覆盖 base。
func TraceLoggerFrom(base func() *log.MLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		if base != nil {
			ctx = context.WithValue(ctx, log.CtxLogKey, base())
		}
		ctx, requestID := withLevelAndTrace(ctx, c.Request.Header)
		c.Set(requestIDKey, requestID)
		c.Header(RequestIDHeader, requestID)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// AccessLog 返回一个在请求结束后输出访问日志的 gin 中间件。
// 5xx 以 Error 级别、4xx 以 Warn 级别、其余以 Debug 级别输出。
func AccessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", status),
			zap.Int("size", c.Writer.Size()),
			zap.Duration("latency", time.Since(start)),
			zap.String("clientIP", c.ClientIP()),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		logger := log.Ctx(c.Request.Context())
		switch {
		case status >= http.StatusInternalServerError:
			logger.Error("http request", fields...)
		case status >= http.StatusBadRequest:
			logger.Warn("http request", fields...)
		default:
			logger.Debug("http request", fields...)
		}
	}
}

// GetRequestID 返回 TraceLogger 为当前请求确定的请求 ID。
func GetRequestID(c *gin.Context) string {
	if v, ok := c.Get(requestIDKey); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return c.GetHeader(RequestIDHeader)
}

func withLevelAndTrace(ctx context.Context, header http.Header) (context.Context, string) {
	newctx := ctx
	// 解析客户端传入的日志级别。
	if raw := header.Get(LogLevelHeader); raw != "" {
		level := zapcore.DebugLevel
		if err := level.UnmarshalText([]byte(raw)); err == nil {
			switch level {
			case zapcore.DebugLevel:
				newctx = log.WithDebugLevel(ctx)
			case zapcore.InfoLevel:
				newctx = log.WithInfoLevel(ctx)
			case zapcore.WarnLevel:
				newctx = log.WithWarnLevel(ctx)
			case zapcore.ErrorLevel:
				newctx = log.WithErrorLevel(ctx)
			}
		}
	}

	// 客户端请求 ID。
	requestID := GetHeader(header, RequestIDHeader, ClientRequestIDHeader)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	newctx = log.WithReqID(newctx, requestID)

	// 解析客户端请求的时间戳（毫秒）。
	if requestUnixmsec, ok := GetClientReqUnixmsec(header); ok {
		newctx = log.WithFields(newctx, zap.Int64("clientRequestUnixmsec", requestUnixmsec))
	}

	// traceparent 合法时使用其中的 TraceID，否则尝试把请求 ID 当作 TraceID。
	newctx = propagation.TraceContext{}.Extract(newctx, propagation.HeaderCarrier(header))
	traceID := trace.SpanContextFromContext(newctx).TraceID()
	if !traceID.IsValid() {
		traceID, _ = trace.TraceIDFromHex(requestID)
	}
	if traceID.IsValid() {
		newctx = log.WithTraceID(newctx, traceID.String())
	}
	return newctx, requestID
}

// GetClientReqUnixmsec 解析 Client-Request-Msec 请求头。
func GetClientReqUnixmsec(header http.Header) (int64, bool) {
	raw := header.Get(ClientRequestUnixmsecHeader)
	if raw == "" {
		return -1, false
	}
	requestUnixmsec, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return -1, false
	}
	return requestUnixmsec, true
}

// GetHeader 按顺序返回第一个非空的请求头。
func GetHeader(header http.Header, keys ...string) string {
	for _, key := range keys {
		if v := header.Get(key); v != "" {
			return v
		}
	}
	return ""
}
