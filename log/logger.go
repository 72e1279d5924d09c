package log

import (
	"io"
	"os"
	"time"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/go-lynx/cute/conf"
)

// Init builds the zerolog backed logger described by cfg and installs it.
// Entries carry the service name and a timestamp.
func Init(name string, cfg conf.Log) {
	InitWithWriter(name, cfg, os.Stdout)
}

// InitWithWriter is Init with an explicit output.
func InitWithWriter(name string, cfg conf.Log, out io.Writer) {
	var w io.Writer = out
	if cfg.Console {
		w = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
			NoColor:    out != os.Stdout,
		}
	}
	if f := cfg.File; f != nil && f.Path != "" {
		// the file always gets JSON lines
		w = zerolog.MultiLevelWriter(w, &lumberjack.Logger{
			Filename:   f.Path,
			MaxSize:    f.MaxSizeMB,
			MaxBackups: f.MaxBackups,
			MaxAge:     f.MaxAgeDays,
			Compress:   f.Compress,
		})
	}
	zl := zerolog.New(w).With().Timestamp().Logger()

	SetLevel(ParseLevel(cfg.Level))
	SetLogger(log.With(NewZeroLogLogger(zl, cfg.Stack), "service", name))
}
