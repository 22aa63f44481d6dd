package metrics

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// ServerOptions 独立的/metrics监听配置（消费者进程没有HTTP路由）
type ServerOptions struct {
	Addr              string
	Path              string        // 默认/metrics
	ShutdownTimeout   time.Duration // 默认5秒
	ReadHeaderTimeout time.Duration // 默认3秒
}

// StartServer 启动指标监听，ctx结束时优雅关闭
// wg在监听goroutine退出时Done
func StartServer(ctx context.Context, wg *sync.WaitGroup, opts ServerOptions, logger *zap.Logger) {
	InitMetrics()

	if opts.Path == "" {
		opts.Path = "/metrics"
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 5 * time.Second
	}
	if opts.ReadHeaderTimeout <= 0 {
		opts.ReadHeaderTimeout = 3 * time.Second
	}

	mux := http.NewServeMux()
	mux.Handle(opts.Path, promhttp.Handler())
	server := &http.Server{
		Addr:              opts.Addr,
		Handler:           mux,
		ReadHeaderTimeout: opts.ReadHeaderTimeout,
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		logger.Info("指标服务启动", zap.String("addr", opts.Addr), zap.String("path", opts.Path))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("指标服务异常退出", zap.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), opts.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Warn("关闭指标服务失败", zap.Error(err))
		}
	}()
}
