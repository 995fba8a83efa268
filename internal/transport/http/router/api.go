package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"gin-user-service/internal/core/server"
	mdw "gin-user-service/internal/transport/http/middleware"
)

// Pinger /health 用于探测存储连通性
type Pinger interface {
	Ping(ctx context.Context) error
}

type Options struct {
	MaxBodyBytes  int64
	MaxConcurrent int64

	// Registerer/Gatherer 为空时使用 prometheus 默认注册表
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer
}

// NewAPIEngine 公共中间件 + /health + /metrics + 已注册的业务模块
func NewAPIEngine(l *zap.Logger, store Pinger, reg *Registry, o Options) *gin.Engine {
	if o.Registerer == nil {
		o.Registerer = prometheus.DefaultRegisterer
	}
	if o.Gatherer == nil {
		o.Gatherer = prometheus.DefaultGatherer
	}

	r := server.NewRouter(l)
	r.Use(
		mdw.RequestID(),
		mdw.NewHTTPMetrics(o.Registerer).Handler(),
		mdw.AccessLog(l),
		mdw.ErrorHandler(l),
		mdw.ConcurrencyLimit(o.MaxConcurrent),
		mdw.MaxBodyBytes(o.MaxBodyBytes),
	)

	r.GET("/health", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := store.Ping(ctx); err != nil {
			l.Warn("health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{"ok": 0, "store": "down"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": 1, "store": "up"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(o.Gatherer, promhttp.HandlerOpts{})))

	if reg != nil {
		reg.MountAll(r)
	}
	return r
}
