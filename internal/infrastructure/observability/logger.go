package observability

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/trace"
)

type loggerKey struct{}

type requestIDKey struct{}

// InitLogger installs the global logger for the volunteer service. level
// overrides the per-env default when it parses.
func InitLogger(serviceName, env, level string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(levelFor(env, level))

	var out io.Writer = os.Stdout
	if env == "development" {
		out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}
	log.Logger = NewLogger(out, serviceName, env)

	if level != "" {
		if _, err := zerolog.ParseLevel(strings.ToLower(level)); err != nil {
			log.Warn().Str("log_level", level).Msg("Unknown log level, using env default")
		}
	}
}

// NewLogger builds a logger tagged with the service and deployment env
func NewLogger(w io.Writer, serviceName, env string) zerolog.Logger {
	ctx := zerolog.New(w).With().
		Timestamp().
		Str("service", serviceName).
		Str("env", env)
	if env != "development" {
		ctx = ctx.Caller()
	}
	return ctx.Logger()
}

func levelFor(env, level string) zerolog.Level {
	if level != "" {
		if parsed, err := zerolog.ParseLevel(strings.ToLower(level)); err == nil && parsed != zerolog.NoLevel {
			return parsed
		}
	}
	switch env {
	case "development":
		return zerolog.DebugLevel
	case "test":
		return zerolog.WarnLevel
	default:
		return zerolog.InfoLevel
	}
}

// WithFields returns a context whose logger carries fields on top of any
// already attached
func WithFields(ctx context.Context, fields map[string]interface{}) context.Context {
	logger := contextLogger(ctx).With().Fields(fields).Logger()
	return context.WithValue(ctx, loggerKey{}, &logger)
}

// WithRequestID tags the context with the inbound X-Request-ID. It is logged
// as correlation_id since request_id names a help request.
func WithRequestID(ctx context.Context, id string) context.Context {
	ctx = context.WithValue(ctx, requestIDKey{}, id)
	return WithFields(ctx, map[string]interface{}{"correlation_id": id})
}

// RequestIDFromContext returns the id set by WithRequestID
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// LoggerFromContext returns the context logger with trace ids when a span is
// recording
func LoggerFromContext(ctx context.Context) *zerolog.Logger {
	logger := *contextLogger(ctx)

	span := trace.SpanFromContext(ctx)
	if sc := span.SpanContext(); sc.IsValid() {
		logger = logger.With().
			Str("trace_id", sc.TraceID().String()).
			Str("span_id", sc.SpanID().String()).
			Logger()
	}

	return &logger
}

func contextLogger(ctx context.Context) *zerolog.Logger {
	if logger, ok := ctx.Value(loggerKey{}).(*zerolog.Logger); ok {
		return logger
	}
	return &log.Logger
}
