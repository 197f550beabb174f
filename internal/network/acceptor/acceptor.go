package acceptor

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/lk2023060901/matprops-go/internal/network/compressor"
	"github.com/lk2023060901/matprops-go/internal/network/serializer"
)

// OverflowPolicy 决定请求体超出记录大小时返回的 HTTP 状态。
type OverflowPolicy string

const (
	// OverflowBadRequest 把溢出视为客户端错误，返回 400（默认）。
	OverflowBadRequest OverflowPolicy = "bad_request"
	// OverflowInternal 把溢出视为服务端错误，返回 500。
	OverflowInternal OverflowPolicy = "internal"
)

// RateLimit 为计算接口的令牌桶限流配置，QPS 为 0 表示不限流。
type RateLimit struct {
	QPS   float64
	Burst int
}

// Config 描述 Acceptor 在 HTTP 层面的配置。
//
// 说明：
//   - ReadTimeout/WriteTimeout 直接作用于 http.Server（为 0 表示不设置）；
//   - ShutdownTimeout 为 ctx 取消后等待在途请求完成的最长时间；
//   - MaxInflight 限制同时处理的计算请求数，为 0 表示不限制；
//   - MetricsPath 为空时不暴露 Prometheus 指标。
type Config struct {
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration

	OverflowPolicy OverflowPolicy
	RateLimit      RateLimit
	MaxInflight    int

	MetricsPath string
	// Gatherer 为 /metrics 的数据来源，为 nil 时使用 prometheus.DefaultGatherer。
	Gatherer prometheus.Gatherer

	// Version 为 /api/version 返回的服务版本号。
	Version string

	// Serializer 用于格式文档与错误体，为 nil 时使用 JSONSerializer。
	Serializer serializer.Serializer

	// Compressor 非 nil 时，客户端 Accept-Encoding 接受其编码且 JSON 响应体
	// 不小于 CompressMinSize 字节时压缩响应；二进制计算响应从不压缩。
	Compressor      compressor.Compressor
	CompressMinSize int
}

// 默认配置。
func defaultConfig() Config {
	return Config{
		ReadTimeout:     10 * time.Second,
		WriteTimeout:    10 * time.Second,
		ShutdownTimeout: 5 * time.Second,
		OverflowPolicy:  OverflowBadRequest,
		MetricsPath:     "/metrics",
		Serializer:      serializer.JSONSerializer{},
		CompressMinSize: 1024,
	}
}

// Acceptor 抽象了服务器侧的 HTTP 接入层。
//
// 职责：
//   - 在指定 listener 上监听 HTTP，把 POST /compute/:name 交给 Router；
//   - 把 Router 返回的错误映射为 HTTP 状态码与 JSON 错误体；
//   - 暴露格式文档、版本、健康检查与指标接口。
type Acceptor interface {
	// Serve 在给定 listener 上启动服务，阻塞直至 ctx 取消或出现致命错误。
	// ctx 取消后会在 ShutdownTimeout 内优雅关闭。
	Serve(ctx context.Context, ln net.Listener) error

	// Close 立即关闭服务器。
	Close() error

	// Handler 返回完整的 http.Handler，便于测试或嵌入其他服务器。
	Handler() http.Handler
}
