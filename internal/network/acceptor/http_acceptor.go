package acceptor

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"runtime"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	network "github.com/lk2023060901/matprops-go/internal/network"
	"github.com/lk2023060901/matprops-go/internal/network/compressor"
	"github.com/lk2023060901/matprops-go/internal/network/framer"
	"github.com/lk2023060901/matprops-go/internal/network/router"
	"github.com/lk2023060901/matprops-go/pkg/log"
	"github.com/lk2023060901/matprops-go/pkg/metrics"
	"github.com/lk2023060901/matprops-go/pkg/util/logutil"
	"github.com/lk2023060901/matprops-go/pkg/util/merr"
)

// VersionInfo 为 /api/version 的响应体。
type VersionInfo struct {
	Version   string   `json:"version"`
	GoVersion string   `json:"goVersion"`
	Messages  []string `json:"messages"`
}

// HealthInfo 为 /healthz 的响应体。
type HealthInfo struct {
	Status string `json:"status"`
}

// HTTPAcceptor 是 Acceptor 接口基于 gin 的实现。
//
// 设计目标：
//   - 对外只暴露 Acceptor 接口，不绑定具体业务逻辑，计算请求全部交给 Router；
//   - 内部负责：路由注册、限流与并发控制、错误到 HTTP 状态的映射、响应写出；
//   - 每个请求由 net/http 的独立 goroutine 处理，请求之间不共享可变状态。
type HTTPAcceptor struct {
	log.Binder

	cfg    Config
	router router.Router
	framer framer.Framer
	engine *gin.Engine
	server *http.Server

	closeOnce sync.Once
}

// 确保 HTTPAcceptor 实现了 Acceptor 接口。
var _ Acceptor = (*HTTPAcceptor)(nil)

// NewHTTPAcceptor 使用给定 Router 创建 HTTP 接入器。
//
// 参数：
//   - r  ：已注册全部路由的 Router；
//   - f  ：用于写出响应 Parcel 的 Framer，可为 nil（使用默认 BodyFramer）；
//   - cfg：HTTP 配置，零值字段使用默认值。
func NewHTTPAcceptor(r router.Router, f framer.Framer, cfg Config) (*HTTPAcceptor, error) {
	if r == nil {
		return nil, errors.New("acceptor: router is nil")
	}
	if f == nil {
		f = framer.NewBodyFramer(0)
	}
	cfg = mergeConfig(cfg)
	switch cfg.OverflowPolicy {
	case OverflowBadRequest, OverflowInternal:
	default:
		return nil, merr.WrapErrParameterInvalidMsg("acceptor: unknown overflow policy %q", cfg.OverflowPolicy)
	}
	if cfg.RateLimit.QPS < 0 || cfg.MaxInflight < 0 {
		return nil, merr.WrapErrParameterInvalidMsg("acceptor: rate limit and max inflight must not be negative")
	}

	a := &HTTPAcceptor{
		cfg:    cfg,
		router: r,
		framer: f,
	}
	a.BindComponent("acceptor")
	a.engine = a.buildEngine()
	a.server = &http.Server{
		Handler:      a.engine,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return a, nil
}

func mergeConfig(cfg Config) Config {
	def := defaultConfig()
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = def.ShutdownTimeout
	}
	if cfg.OverflowPolicy == "" {
		cfg.OverflowPolicy = def.OverflowPolicy
	}
	if cfg.Serializer == nil {
		cfg.Serializer = def.Serializer
	}
	if cfg.Gatherer == nil {
		cfg.Gatherer = prometheus.DefaultGatherer
	}
	if cfg.CompressMinSize <= 0 {
		cfg.CompressMinSize = def.CompressMinSize
	}
	return cfg
}

func (a *HTTPAcceptor) buildEngine() *gin.Engine {
	engine := gin.New()
	engine.Use(logutil.TraceLoggerFrom(a.Logger), logutil.AccessLog(), gin.CustomRecovery(a.recovered))
	engine.NoRoute(func(c *gin.Context) {
		a.writeError(c, merr.WrapErrOperationNotSupported(c.Request.Method+" "+c.Request.URL.Path, "no such endpoint"))
	})

	compute := engine.Group("/compute")
	compute.Use(a.rejectOverLimit()...)
	compute.POST("/:name", a.compute)

	api := engine.Group("/api")
	api.GET("/formats", a.formats)
	api.GET("/formats/:name", a.format)
	api.GET("/version", a.version)

	engine.GET("/healthz", a.healthz)
	if a.cfg.MetricsPath != "" {
		engine.GET(a.cfg.MetricsPath, gin.WrapH(promhttp.HandlerFor(a.cfg.Gatherer, promhttp.HandlerOpts{})))
	}
	return engine
}

// Handler 实现 Acceptor.Handler。
func (a *HTTPAcceptor) Handler() http.Handler {
	return a.engine
}

// Serve 实现 Acceptor.Serve。
func (a *HTTPAcceptor) Serve(ctx context.Context, ln net.Listener) error {
	if ln == nil {
		return errors.New("acceptor: listener is nil")
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- a.server.Serve(ln)
	}()
	a.Logger().Info("acceptor serving", zap.String("address", ln.Addr().String()))

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	// 上层已取消：停止接收新请求，并等待在途请求完成。
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		a.Logger().Warn("acceptor shutdown timed out", zap.Error(err))
		_ = a.server.Close()
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	a.Logger().Info("acceptor stopped")
	return nil
}

// Close 实现 Acceptor.Close。
func (a *HTTPAcceptor) Close() error {
	var err error
	a.closeOnce.Do(func() {
		err = a.server.Close()
	})
	return err
}

// compute 处理 POST /compute/:name。
//
// 流程：
//  1. Router 读取请求体、解码、调用计算内核并构造 Parcel；
//  2. 失败时按错误类型写出 JSON 错误体；
//  3. 成功时由 Framer 以响应内容类型与 DeclaredSize 写出唯一的数据块。
func (a *HTTPAcceptor) compute(c *gin.Context) {
	name := c.Param("name")
	parcel, err := a.router.Handle(c.Request.Context(), name, c.Request.Body)
	if err != nil {
		a.writeError(c, err)
		return
	}

	if _, err := a.framer.WriteParcel(c.Writer, parcel.Descriptor().ContentType(), parcel); err != nil {
		// 状态行已经写出，只能记录错误。
		metrics.ObserveProtocolError(name, string(network.StageSend), merr.Code(err))
		_ = c.Error(network.WrapStage(network.StageSend, err))
		log.Ctx(c.Request.Context()).Warn("failed to send response",
			log.FieldMessage(name),
			log.FieldStage(string(network.StageSend)),
			zap.Error(err))
	}
}

func (a *HTTPAcceptor) formats(c *gin.Context) {
	a.writeJSON(c, http.StatusOK, a.router.Formats())
}

func (a *HTTPAcceptor) format(c *gin.Context) {
	doc, err := a.router.Format(c.Param("name"))
	if err != nil {
		a.writeError(c, err)
		return
	}
	a.writeJSON(c, http.StatusOK, doc)
}

func (a *HTTPAcceptor) version(c *gin.Context) {
	a.writeJSON(c, http.StatusOK, VersionInfo{
		Version:   a.cfg.Version,
		GoVersion: runtime.Version(),
		Messages:  a.router.Names(),
	})
}

func (a *HTTPAcceptor) healthz(c *gin.Context) {
	a.writeJSON(c, http.StatusOK, HealthInfo{Status: "ok"})
}

func (a *HTTPAcceptor) recovered(c *gin.Context, recovered any) {
	a.writeError(c, merr.WrapErrServiceInternal(fmt.Sprint(recovered), "panic recovered"))
	c.Abort()
}

// statusOf 把错误映射为 HTTP 状态码，溢出错误按 OverflowPolicy 处理。
func (a *HTTPAcceptor) statusOf(err error) int {
	if a.cfg.OverflowPolicy == OverflowInternal && errors.Is(err, merr.ErrProtocolOverflow) {
		return http.StatusInternalServerError
	}
	return merr.HTTPStatus(err)
}

func (a *HTTPAcceptor) writeError(c *gin.Context, err error) {
	_ = c.Error(err)
	a.writeJSON(c, a.statusOf(err), merr.NewStatus(err))
}

func (a *HTTPAcceptor) writeJSON(c *gin.Context, status int, v any) {
	body, err := a.cfg.Serializer.Marshal(v)
	if err != nil {
		_ = c.Error(err)
		c.Status(http.StatusInternalServerError)
		return
	}
	if comp := a.cfg.Compressor; comp != nil && len(body) >= a.cfg.CompressMinSize {
		c.Header("Vary", "Accept-Encoding")
		if compressor.Accepts(c.GetHeader("Accept-Encoding"), comp.Encoding()) {
			packed, err := comp.Compress(nil, body)
			if err == nil {
				c.Header("Content-Encoding", comp.Encoding())
				body = packed
			} else {
				a.Logger().Warn("compress response failed", zap.Error(err))
			}
		}
	}
	c.Data(status, a.cfg.Serializer.ContentType(), body)
}
