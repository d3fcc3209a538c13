package logger

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

var base zerolog.Logger

func init() {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	base = zerolog.New(os.Stdout).With().Timestamp().Logger()
}

// Init 在服务启动时设置全局的 service 字段。
func Init(serviceName string) {
	base = base.With().Str("service", serviceName).Logger()
}

// Logger 返回全局 logger，用于没有请求上下文的场景。
func Logger() *zerolog.Logger {
	return &base
}

// Ctx 返回一个带有链路信息的 logger。
// 如果 ctx 中存在有效的 Span，日志会自动附带 trace_id / span_id，
// 便于在 Jaeger 和日志系统之间相互跳转。
func Ctx(ctx context.Context) *zerolog.Logger {
	spanCtx := trace.SpanContextFromContext(ctx)
	if !spanCtx.IsValid() {
		return &base
	}
	l := base.With().
		Str("trace_id", spanCtx.TraceID().String()).
		Str("span_id", spanCtx.SpanID().String()).
		Logger()
	return &l
}
