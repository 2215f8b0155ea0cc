package logger_i

import (
	"context"
	"log/slog"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/akolanti/GoRAG/internal/config"
)

// Logger resolves the process handler on every call, so loggers created
// before Init still follow it.
type Logger struct {
	attrs []any
}

// Init installs the process-wide handler. level overrides the build default
// when it names a slog level.
func Init(level string) {
	options := &slog.HandlerOptions{
		Level:     slog.LevelDebug,
		AddSource: true,
	}

	if config.IS_PROD {
		options.Level = config.LOG_LEVEL_PROD
	}
	if parsed, ok := parseLevel(level); ok {
		options.Level = parsed
	}

	var handler slog.Handler
	if config.IS_PROD {
		handler = slog.NewJSONHandler(os.Stdout, options)
	} else {
		handler = slog.NewTextHandler(os.Stdout, options)
	}
	slog.SetDefault(slog.New(handler))
}

func parseLevel(level string) (slog.Level, bool) {
	if level == "" {
		return 0, false
	}
	var parsed slog.Level
	if err := parsed.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		return 0, false
	}
	return parsed, true
}

func NewLogger(section string) *Logger {
	return &Logger{attrs: []any{"component", section}}
}

func (l *Logger) Info(msg string, args ...any) {
	l.logWithSource(slog.LevelInfo, msg, args...)
}

func (l *Logger) Error(msg string, args ...any) {
	l.logWithSource(slog.LevelError, msg, args...)
}

func (l *Logger) Warn(msg string, args ...any) {
	l.logWithSource(slog.LevelWarn, msg, args...)
}

func (l *Logger) Debug(msg string, args ...any) {
	l.logWithSource(slog.LevelDebug, msg, args...)
}

func (l *Logger) logWithSource(level slog.Level, msg string, args ...any) {
	ctx := context.Background()
	handler := slog.Default().Handler()
	if !handler.Enabled(ctx, level) {
		return
	}
	var pcs [1]uintptr
	// skip runtime.Callers, logWithSource and the level wrapper
	runtime.Callers(3, pcs[:])
	record := slog.NewRecord(time.Now(), level, msg, pcs[0])
	record.Add(l.attrs...)
	record.Add(args...)
	_ = handler.Handle(ctx, record)
}

func (l *Logger) With(args ...any) *Logger {
	attrs := make([]any, 0, len(l.attrs)+len(args))
	attrs = append(attrs, l.attrs...)
	return &Logger{attrs: append(attrs, args...)}
}

// WithContext attaches the request trace id when the context carries one.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	if ctx == nil {
		return l
	}
	if trace, ok := ctx.Value(config.TRACE_ID_KEY).(string); ok && trace != "" {
		return l.With("traceId", trace)
	}
	return l
}

// TraceId returns the trace id stored in ctx, or an empty string.
func TraceId(ctx context.Context) string {
	trace, _ := ctx.Value(config.TRACE_ID_KEY).(string)
	return trace
}
