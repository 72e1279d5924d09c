package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/go-lynx/cute"
	"github.com/go-lynx/cute/conf"
	"github.com/go-lynx/cute/dispatch"
	"github.com/go-lynx/cute/internal/banner"
	"github.com/go-lynx/cute/log"
	"github.com/go-lynx/cute/observability/metrics"
)

var cmdRun = &cobra.Command{
	Use:   "run",
	Short: "Create every registered component and print the bean table",
	RunE:  runCreateAll,
}

func init() {
	cmdRun.Flags().String("metrics-addr", "", "serve prometheus metrics on this address after creation, e.g. :9090")
}

func runCreateAll(cmd *cobra.Command, _ []string) error {
	cfg, closeConf, err := loadBootstrap(cmd)
	if err != nil {
		return err
	}
	defer closeConf()

	if err := banner.Show(cmd.OutOrStdout(), cfg.CloseBanner); err != nil {
		log.Fallback("WARN", err.Error())
	}
	log.Init("cute", cfg.Log)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tp, err := newTracerProvider(ctx, cfg.Tracing)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			log.Warnf("tracer shutdown failed: %v", err)
		}
	}()

	var failures []error
	app, err := cute.New(cfg,
		cute.WithTracer(tp),
		cute.WithDispatchOptions(dispatch.WithObserver(func(err error) {
			failures = append(failures, err)
		})),
	)
	if err != nil {
		return err
	}
	cute.SetDefault(app)
	defer app.Close()

	if err := app.CreateAll(ctx); err != nil {
		return err
	}

	messages := dispatch.NewMessages(app.Catalog(), cfg.Locale)
	printReport(cmd.OutOrStdout(), app.Manager(), failures, messages)

	addr, _ := cmd.Flags().GetString("metrics-addr")
	if addr == "" {
		return nil
	}
	return serveMetrics(ctx, addr)
}

// loadBootstrap reads --conf when given and applies the flag overrides.
func loadBootstrap(cmd *cobra.Command) (*conf.Bootstrap, func(), error) {
	path, _ := cmd.Flags().GetString("conf")
	var (
		cfg     *conf.Bootstrap
		closeFn = func() {}
	)
	if path == "" {
		d := conf.Defaults()
		cfg = &d
	} else {
		c, b, err := conf.Load(path)
		if err != nil {
			return nil, nil, err
		}
		cfg = b
		closeFn = func() { _ = c.Close() }
	}
	if flagLevel != "" {
		cfg.Log.Level = flagLevel
	}
	if lang, _ := cmd.Flags().GetString("lang"); lang != "" {
		cfg.Locale = lang
	}
	if err := cfg.Validate(); err != nil {
		closeFn()
		return nil, nil, err
	}
	return cfg, closeFn, nil
}

func printReport(out io.Writer, m *cute.Manager, failures []error, messages *dispatch.Messages) {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "NAME\tTYPE")
	for _, b := range m.Beans() {
		_, _ = fmt.Fprintf(w, "%s\t%s\n", b.Name, b.TypeID)
	}
	_ = w.Flush()

	summary := fmt.Sprintf("%d beans created, %d failures", m.Len(), len(failures))
	if len(failures) == 0 {
		_, _ = color.New(color.FgGreen).Fprintln(out, summary)
		return
	}
	_, _ = color.New(color.FgYellow).Fprintln(out, summary)
	red := color.New(color.FgRed)
	for _, err := range failures {
		_, _ = red.Fprintf(out, "  - %s\n", messages.Text(err))
	}
}

func serveMetrics(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	log.Infof("serving metrics on %s/metrics", addr)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
