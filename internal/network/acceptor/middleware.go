package acceptor

import (
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/lk2023060901/matprops-go/pkg/metrics"
	"github.com/lk2023060901/matprops-go/pkg/util/merr"
)

// rejectOverLimit 返回计算接口使用的准入中间件：先做令牌桶限流，再做并发数限制。
// 两者被拒绝时都返回 429，且不会读取请求体。
func (a *HTTPAcceptor) rejectOverLimit() []gin.HandlerFunc {
	var handlers []gin.HandlerFunc
	if a.cfg.RateLimit.QPS > 0 {
		burst := a.cfg.RateLimit.Burst
		if burst <= 0 {
			burst = int(a.cfg.RateLimit.QPS) + 1
		}
		handlers = append(handlers, a.rateLimit(rate.NewLimiter(rate.Limit(a.cfg.RateLimit.QPS), burst)))
	}
	handlers = append(handlers, a.inflight(a.cfg.MaxInflight))
	return handlers
}

func (a *HTTPAcceptor) rateLimit(limiter *rate.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.Allow() {
			a.reject(c, merr.WrapErrHTTPRateLimit(c.Request.URL.Path, float64(limiter.Limit())))
			return
		}
		c.Next()
	}
}

// inflight 统计在途请求数；max 大于 0 时超出上限的请求直接拒绝。
func (a *HTTPAcceptor) inflight(max int) gin.HandlerFunc {
	var sem chan struct{}
	if max > 0 {
		sem = make(chan struct{}, max)
	}
	return func(c *gin.Context) {
		if sem != nil {
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			default:
				a.reject(c, merr.WrapErrTooManyRequests(int32(max)))
				return
			}
		}
		metrics.InflightRequests.Inc()
		defer metrics.InflightRequests.Dec()
		c.Next()
	}
}

func (a *HTTPAcceptor) reject(c *gin.Context, err error) {
	label := "unknown"
	if _, ok := a.router.Lookup(c.Param("name")); ok {
		label = c.Param("name")
	}
	metrics.ComputeRequestsTotal.WithLabelValues(label, metrics.RejectedLabel).Inc()
	a.writeError(c, err)
	c.Abort()
}
