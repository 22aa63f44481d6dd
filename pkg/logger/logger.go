// Package logger 基于zap构建结构化日志
package logger

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/xiebiao/bookcatalog/pkg/correlation"
	"github.com/xiebiao/bookcatalog/pkg/tracing"
)

// Config 日志配置
// 与config.LogConfig字段一致，避免pkg依赖internal
type Config struct {
	Level        string // debug | info | warn | error
	Format       string // console | json
	Output       string // stdout | stderr | /path/to/file
	EnableCaller bool
}

// New 创建zap Logger
func New(cfg Config) (*zap.Logger, error) {
	level := zap.NewAtomicLevel()
	if cfg.Level != "" {
		if err := level.UnmarshalText([]byte(strings.ToLower(cfg.Level))); err != nil {
			return nil, fmt.Errorf("无效的日志级别 %q: %w", cfg.Level, err)
		}
	}

	zcfg := zap.NewProductionConfig()
	zcfg.Level = level
	zcfg.EncoderConfig.TimeKey = "@timestamp"
	zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zcfg.DisableCaller = !cfg.EnableCaller

	switch cfg.Format {
	case "", "json":
		zcfg.Encoding = "json"
	case "console":
		zcfg.Encoding = "console"
		zcfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	default:
		return nil, fmt.Errorf("无效的日志格式: %s", cfg.Format)
	}

	output := cfg.Output
	if output == "" {
		output = "stdout"
	}
	zcfg.OutputPaths = []string{output}
	zcfg.ErrorOutputPaths = []string{"stderr"}

	logger, err := zcfg.Build()
	if err != nil {
		return nil, fmt.Errorf("创建日志失败: %w", err)
	}
	return logger, nil
}

// WithContext 附加context中的CID和TraceID
func WithContext(ctx context.Context, l *zap.Logger) *zap.Logger {
	fields := make([]zap.Field, 0, 2)
	if cid := correlation.FromContext(ctx); cid != "" {
		fields = append(fields, zap.String("cid", cid))
	}
	if traceID := tracing.ExtractTraceID(ctx); traceID != "" {
		fields = append(fields, zap.String("trace_id", traceID))
	}
	if len(fields) == 0 {
		return l
	}
	return l.With(fields...)
}
