package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/xiebiao/bookcatalog/pkg/correlation"
	"github.com/xiebiao/bookcatalog/pkg/logger"
)

// slowRequestThreshold 超过该耗时的请求额外记录一条警告
const slowRequestThreshold = 3 * time.Second

// Logger 请求日志中间件
// 1. 从请求头读取CID，没有则生成根CID，并回写到响应头
// 2. CID写入request context，下游发布命令时在它后面追加后缀
// 3. 请求结束后用zap输出结构化访问日志
//
// 不记录请求体和Authorization头
func Logger(l *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 步骤1: 关联ID
		ctx := c.Request.Context()
		if cid := c.GetHeader(correlation.HeaderName); cid != "" {
			ctx = correlation.WithID(ctx, cid)
		}
		ctx, cid := correlation.EnsureID(ctx)
		c.Request = c.Request.WithContext(ctx)
		c.Header(correlation.HeaderName, cid)

		// 步骤2: 处理请求
		start := time.Now()
		c.Next()
		latency := time.Since(start)

		// 步骤3: 访问日志
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.String("route", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
		}
		if actor := GetActor(c); actor != "" {
			fields = append(fields, zap.String("actor", actor))
		}

		log := logger.WithContext(c.Request.Context(), l)
		status := c.Writer.Status()
		switch {
		case len(c.Errors) > 0 && status >= 500:
			log.Error("http_request", append(fields, zap.String("errors", c.Errors.String()))...)
		case len(c.Errors) > 0:
			log.Warn("http_request", append(fields, zap.String("errors", c.Errors.String()))...)
		default:
			log.Info("http_request", fields...)
		}

		if latency > slowRequestThreshold {
			log.Warn("慢请求", zap.String("path", c.Request.URL.Path), zap.Duration("latency", latency))
		}
	}
}
