// Package conf loads the bootstrap configuration of a cute application.
//
// Configuration is read through kratos config sources. Everything lives under
// the "cute" key:
//
//	cute:
//	  namespaces: ["example.com/app"]
//	  locale: en
//	  log:
//	    level: info
//	    console: true
//	  events:
//	    workers: 8
//	  plugins: ["metrics"]
//	  tracing:
//	    endpoint: localhost:4317
package conf

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-kratos/kratos/v2/config"
	"github.com/go-kratos/kratos/v2/config/file"
	"github.com/go-playground/validator/v10"
)

// Key is the configuration root scanned into Bootstrap.
const Key = "cute"

// Bootstrap is the root configuration.
type Bootstrap struct {
	// Namespaces restricts component scanning. Empty scans everything registered.
	Namespaces []string `json:"namespaces" validate:"dive,required"`
	// Locale selects the message language, e.g. "en" or "zh".
	Locale string `json:"locale"`
	// Log configures the logger.
	Log Log `json:"log"`
	// Events configures the event bus.
	Events Events `json:"events"`
	// Plugins lists enabled plugin names. Empty enables every known plugin.
	Plugins []string `json:"plugins"`
	// Tracing configures span export.
	Tracing Tracing `json:"tracing"`
	// Messages lists message bundles, {lang: {key: template}}, loaded over the
	// built-in failure messages. Files ending in .toml are read as TOML, the
	// rest as YAML.
	Messages []string `json:"messages" validate:"dive,required"`
	// CloseBanner hides the startup banner of the command line tool.
	CloseBanner bool `json:"close_banner"`
}

// Log configures the log package.
type Log struct {
	// Level is one of debug, info, warn, error.
	Level string `json:"level" validate:"oneof=debug info warn error"`
	// Console selects the human readable writer instead of JSON lines.
	Console bool `json:"console"`
	// Stack attaches stack traces to error level entries.
	Stack bool `json:"stack"`
	// File additionally writes JSON lines to a rotated file.
	File *LogFile `json:"file" validate:"omitempty"`
}

// LogFile configures the rotated log file.
type LogFile struct {
	Path       string `json:"path" validate:"required"`
	MaxSizeMB  int    `json:"max_size_mb" validate:"gte=0"`
	MaxBackups int    `json:"max_backups" validate:"gte=0"`
	MaxAgeDays int    `json:"max_age_days" validate:"gte=0"`
	Compress   bool   `json:"compress"`
}

// Events configures the event bus.
type Events struct {
	// Workers is the size of the pool handing events to asynchronous
	// subscribers. Each bus keeps its hand-off in publish order.
	Workers int `json:"workers" validate:"gte=0"`
	// MaxBlocking bounds the number of publishes waiting for a worker.
	MaxBlocking int `json:"max_blocking" validate:"gte=0"`
}

// Tracing configures the OTLP exporter used by the command line tool.
type Tracing struct {
	// Endpoint is the OTLP gRPC collector address. Empty disables export.
	Endpoint string `json:"endpoint" validate:"omitempty,hostname_port"`
	// Insecure disables TLS towards the collector.
	Insecure bool `json:"insecure"`
}

// Defaults returns the configuration used when nothing is configured.
func Defaults() Bootstrap {
	return Bootstrap{
		Locale: "en",
		Log: Log{
			Level:   "info",
			Console: true,
		},
		Events: Events{
			Workers:     4,
			MaxBlocking: 64,
		},
	}
}

// Load reads the configuration file or directory at path.
// The returned config must be closed by the caller.
func Load(path string) (config.Config, *Bootstrap, error) {
	if path == "" {
		return nil, nil, fmt.Errorf("configuration path is empty")
	}
	c := config.New(config.WithSource(file.NewSource(path)))
	if err := c.Load(); err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration from %s: %w", path, err)
	}
	b, err := Scan(c)
	if err != nil {
		_ = c.Close()
		return nil, nil, err
	}
	return c, b, nil
}

// Scan reads the Bootstrap section of an already loaded config and fills in
// defaults for unset fields. A missing section yields the defaults.
func Scan(c config.Config) (*Bootstrap, error) {
	b := Defaults()
	if c == nil {
		return &b, nil
	}
	v := c.Value(Key)
	if _, err := v.Map(); err != nil {
		// no "cute" section
		return &b, nil
	}
	if err := v.Scan(&b); err != nil {
		return nil, fmt.Errorf("failed to scan %s configuration: %w", Key, err)
	}
	b.applyDefaults()
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return &b, nil
}

func (b *Bootstrap) applyDefaults() {
	d := Defaults()
	if b.Locale == "" {
		b.Locale = d.Locale
	}
	if b.Log.Level == "" {
		b.Log.Level = d.Log.Level
	}
	if b.Events.Workers <= 0 {
		b.Events.Workers = d.Events.Workers
	}
	if b.Events.MaxBlocking <= 0 {
		b.Events.MaxBlocking = d.Events.MaxBlocking
	}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// report fields by their configuration keys
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks field values against their validate tags.
func (b *Bootstrap) Validate() error {
	err := validate.Struct(b)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("invalid %s configuration: %w", Key, err)
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, e := range fieldErrs {
		msgs = append(msgs, formatFieldError(e))
	}
	return fmt.Errorf("invalid %s configuration: %s", Key, strings.Join(msgs, "; "))
}

func formatFieldError(e validator.FieldError) string {
	// drop the root struct name
	field := e.Namespace()
	if i := strings.IndexByte(field, '.'); i >= 0 {
		field = field[i+1:]
	}
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s must not be empty", field)
	case "oneof":
		return fmt.Sprintf("%s %q must be one of: %s", field, fmt.Sprint(e.Value()), e.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", field, e.Param())
	case "hostname_port":
		return fmt.Sprintf("%s %q must be host:port", field, fmt.Sprint(e.Value()))
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
