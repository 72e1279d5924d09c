// Package log provides a unified logging interface for cute.
// It wraps the Kratos logging system and provides convenient methods for different log levels.
package log

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-kratos/kratos/v2/log"
)

// Level represents the logging level.
type Level int32

const (
	// DebugLevel logs are typically voluminous, and are usually disabled in production.
	DebugLevel Level = iota
	// InfoLevel is the default logging priority.
	InfoLevel
	// WarnLevel logs are more important than Info, but don't need individual human review.
	WarnLevel
	// ErrorLevel logs are high-priority.
	ErrorLevel
)

var (
	// helperStore holds the active *log.Helper; nil until Init or SetLogger.
	helperStore atomic.Pointer[log.Helper]
	// loggerStore holds the active log.Logger.
	loggerStore atomic.Value // of loggerBox

	minLevel atomic.Int32
)

type loggerBox struct{ l log.Logger }

// ParseLevel maps a configuration string to a Level. Unknown strings map to InfoLevel.
func ParseLevel(s string) Level {
	switch s {
	case "debug":
		return DebugLevel
	case "warn":
		return WarnLevel
	case "error":
		return ErrorLevel
	default:
		return InfoLevel
	}
}

// SetLevel sets the global minimal level.
func SetLevel(level Level) {
	minLevel.Store(int32(level))
}

// GetLevel returns the global minimal level.
func GetLevel() Level {
	return Level(minLevel.Load())
}

func (l Level) kratos() log.Level {
	switch l {
	case DebugLevel:
		return log.LevelDebug
	case WarnLevel:
		return log.LevelWarn
	case ErrorLevel:
		return log.LevelError
	default:
		return log.LevelInfo
	}
}

// SetLogger installs l as the process logger. Entries below the global level
// are filtered.
func SetLogger(l log.Logger) {
	if l == nil {
		helperStore.Store(nil)
		loggerStore.Store(loggerBox{})
		return
	}
	filtered := log.NewFilter(l, log.FilterFunc(func(level log.Level, _ ...any) bool {
		return level < GetLevel().kratos()
	}))
	loggerStore.Store(loggerBox{l: filtered})
	helperStore.Store(log.NewHelper(filtered))
}

// Logger returns the process logger, or a fallback writing to stderr when
// none was installed.
func Logger() log.Logger {
	if v, ok := loggerStore.Load().(loggerBox); ok && v.l != nil {
		return v.l
	}
	return fallbackKratos
}

// helper returns the installed helper or nil.
func helper() *log.Helper {
	return helperStore.Load()
}

// fallbackLogger writes plain lines when no logger is installed. It is also
// the last resort of the error dispatcher and must never fail.
type fallbackLogger struct {
	mu  sync.Mutex
	out io.Writer
}

var fallback = &fallbackLogger{out: os.Stderr}

var fallbackKratos = log.NewStdLogger(os.Stderr)

func (f *fallbackLogger) logPlain(level, msg string) {
	defer func() { _ = recover() }()
	f.mu.Lock()
	defer f.mu.Unlock()
	timestamp := time.Now().Format("2006-01-02 15:04:05.000")
	_, _ = fmt.Fprintf(f.out, "[%s] [%s] [cute-log-fallback] %s\n", timestamp, level, msg)
}

func (f *fallbackLogger) logFormat(level, format string, args ...any) {
	f.logPlain(level, fmt.Sprintf(format, args...))
}

// SetFallbackOutput redirects the fallback logger, mostly for tests.
func SetFallbackOutput(w io.Writer) {
	fallback.mu.Lock()
	defer fallback.mu.Unlock()
	if w == nil {
		w = os.Stderr
	}
	fallback.out = w
}

// Fallback writes msg through the fallback logger regardless of the installed
// logger. It never panics.
func Fallback(level, msg string) {
	fallback.logPlain(level, msg)
}

func enabled(l Level) bool {
	return l >= GetLevel()
}

// Debugf logs a formatted message at debug level.
func Debugf(format string, a ...any) {
	if h := helper(); h != nil {
		h.Debugf(format, a...)
	} else if enabled(DebugLevel) {
		fallback.logFormat("DEBUG", format, a...)
	}
}

// Debugw logs key-value pairs at debug level.
func Debugw(keyvals ...any) {
	if h := helper(); h != nil {
		h.Debugw(keyvals...)
	}
}

// Info logs at info level.
func Info(a ...any) {
	if h := helper(); h != nil {
		h.Info(a...)
	} else if enabled(InfoLevel) {
		fallback.logPlain("INFO", fmt.Sprint(a...))
	}
}

// Infof logs a formatted message at info level.
func Infof(format string, a ...any) {
	if h := helper(); h != nil {
		h.Infof(format, a...)
	} else if enabled(InfoLevel) {
		fallback.logFormat("INFO", format, a...)
	}
}

// Infow logs key-value pairs at info level.
func Infow(keyvals ...any) {
	if h := helper(); h != nil {
		h.Infow(keyvals...)
	}
}

func Warn(a ...any) {
	if h := helper(); h != nil {
		h.Warn(a...)
	} else if enabled(WarnLevel) {
		fallback.logPlain("WARN", fmt.Sprint(a...))
	}
}

func Warnf(format string, a ...any) {
	if h := helper(); h != nil {
		h.Warnf(format, a...)
	} else if enabled(WarnLevel) {
		fallback.logFormat("WARN", format, a...)
	}
}

func Warnw(keyvals ...any) {
	if h := helper(); h != nil {
		h.Warnw(keyvals...)
	} else if enabled(WarnLevel) {
		fallback.logPlain("WARN", fmt.Sprint(keyvals...))
	}
}

func Error(a ...any) {
	if h := helper(); h != nil {
		h.Error(a...)
	} else {
		fallback.logPlain("ERROR", fmt.Sprint(a...))
	}
}

func Errorf(format string, a ...any) {
	if h := helper(); h != nil {
		h.Errorf(format, a...)
	} else {
		fallback.logFormat("ERROR", format, a...)
	}
}

func Errorw(keyvals ...any) {
	if h := helper(); h != nil {
		h.Errorw(keyvals...)
	} else {
		fallback.logPlain("ERROR", fmt.Sprint(keyvals...))
	}
}

// ErrorwCtx logs key-value pairs at error level with trace context.
func ErrorwCtx(ctx context.Context, keyvals ...any) {
	if h := helper(); h != nil {
		h.WithContext(ctx).Errorw(keyvals...)
	} else {
		fallback.logPlain("ERROR", fmt.Sprint(keyvals...))
	}
}

func init() {
	minLevel.Store(int32(InfoLevel))
	loggerStore.Store(loggerBox{})
}
