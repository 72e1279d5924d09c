package log

import (
	"errors"
	"fmt"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/rs/zerolog"

	"github.com/go-lynx/cute/beans"
)

type zeroLogLogger struct {
	logger zerolog.Logger
	stack  bool
}

// NewZeroLogLogger adapts a zerolog.Logger to the kratos log.Logger interface.
// Lifecycle errors logged under "err" or "error" are expanded into their
// kind, bean, resolver and method fields.
func NewZeroLogLogger(l zerolog.Logger, stack bool) log.Logger {
	return zeroLogLogger{logger: l, stack: stack}
}

func (l zeroLogLogger) event(level log.Level) *zerolog.Event {
	switch level {
	case log.LevelDebug:
		return l.logger.Debug()
	case log.LevelInfo:
		return l.logger.Info()
	case log.LevelWarn:
		return l.logger.Warn()
	case log.LevelError:
		return l.logger.Error()
	case log.LevelFatal:
		// never exit the process from the library
		return l.logger.Error().Bool("fatal", true)
	default:
		return l.logger.Warn().Interface("original_level", level)
	}
}

// Log implements log.Logger.
func (l zeroLogLogger) Log(level log.Level, keyvals ...interface{}) error {
	if len(keyvals)%2 != 0 {
		keyvals = append(keyvals, "BAD_VALUE")
	}

	ev := l.event(level)
	var msg string
	for i := 0; i < len(keyvals); i += 2 {
		key, ok := keyvals[i].(string)
		if !ok {
			key = fmt.Sprintf("BAD_KEY_%d", i)
			ev = ev.Interface("original_key", keyvals[i])
		}
		switch val := keyvals[i+1].(type) {
		case string:
			if key == log.DefaultMessageKey {
				msg = val
				continue
			}
			ev = ev.Str(key, val)
		case error:
			if key == "err" || key == "error" {
				ev = withBeanError(ev.Err(val), val)
				continue
			}
			ev = ev.AnErr(key, val)
		default:
			if key == log.DefaultMessageKey {
				msg = fmt.Sprint(val)
				continue
			}
			ev = ev.Interface(key, val)
		}
	}

	if l.stack && level >= log.LevelError {
		if stack := captureStack(); stack != "" {
			ev = ev.Str("stack", stack)
		}
	}
	ev.Msg(msg)
	return nil
}

func withBeanError(ev *zerolog.Event, err error) *zerolog.Event {
	var be *beans.Error
	if !errors.As(err, &be) {
		return ev
	}
	ev = ev.Str("kind", be.Kind.String())
	if be.Bean != "" {
		ev = ev.Str("bean", be.Bean)
	}
	if be.Resolver != "" {
		ev = ev.Str("resolver", be.Resolver)
	}
	if be.Method != "" {
		ev = ev.Str("method", be.Method)
	}
	return ev
}
