package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/nextgen-sip/console/internal/audit"
	"github.com/nextgen-sip/console/internal/carrier"
	"github.com/nextgen-sip/console/internal/config"
	"github.com/nextgen-sip/console/internal/console"
	"github.com/nextgen-sip/console/internal/poll"
	"github.com/nextgen-sip/console/internal/view"
)

func newServeCmd() *cobra.Command {
	var port int
	var bind string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the console server and poller",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()

			if port != 0 {
				cfg.Server.Port = port
			}
			if bind != "" {
				cfg.Server.Bind = bind
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			logger := newLogger(cfg.Server.LogLevel)

			if cfg.Tracing.Enabled {
				shutdown, err := setupTracing()
				if err != nil {
					return fmt.Errorf("setting up tracing: %w", err)
				}
				defer func() {
					ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					_ = shutdown(ctx)
				}()
			}

			trail, err := audit.NewStore(cfg.Audit.DBPath, logger)
			if err != nil {
				return err
			}
			defer func() { _ = trail.Close() }()

			var sessions console.SessionStore
			if cfg.Sessions.RedisAddr != "" {
				rs := console.NewRedisSessions(cfg.Sessions.RedisAddr, cfg.Sessions.RedisPassword)
				defer func() { _ = rs.Close() }()
				sessions = rs
			}

			client := carrier.NewClient(cfg.Carrier.APIURL, &carrier.Options{Traced: cfg.Tracing.Enabled})
			snaps := view.NewSnapshots()

			// The poller pushes fragments through the server, which in
			// turn refreshes through the poller; bind the callback late.
			var srv *console.Server
			poller := poll.New(client, snaps, cfg.Poll.Interval.Std(), logger, func(r view.Resource) {
				srv.OnSync(r)
			})

			srv = console.NewServer(console.Deps{
				Mutator:      client,
				Refresher:    poller,
				Nav:          view.NewNavigator(),
				Modals:       view.NewModals(),
				Activity:     view.NewActivityLog(),
				Snapshots:    snaps,
				Trail:        trail,
				PollInterval: cfg.Poll.Interval.Std(),
				Traced:       cfg.Tracing.Enabled,
				Logger:       logger,
			}, sessions)

			// Hot reload picks up cadence changes; address changes need
			// a restart.
			if _, statErr := os.Stat(cfgFile); statErr == nil {
				stop, werr := config.Watch(cfgFile, logger, func(next *config.Config) {
					poller.SetInterval(next.Poll.Interval.Std())
				})
				if werr != nil {
					logger.Warn("config watch unavailable", "error", werr)
				} else {
					defer func() { _ = stop() }()
				}
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			go poller.Run(ctx)

			httpSrv := &http.Server{
				Addr:    fmt.Sprintf("%s:%d", cfg.Server.Bind, cfg.Server.Port),
				Handler: srv.Handler(),
			}

			printBanner(cfg, srv.AccessCode())

			errCh := make(chan error, 1)
			go func() {
				if err := httpSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
					return
				}
				errCh <- nil
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				return httpSrv.Shutdown(shutdownCtx)
			}
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "override server port")
	cmd.Flags().StringVar(&bind, "bind", "", "address to bind (default: 127.0.0.1)")
	return cmd
}

func newLogger(level string) *slog.Logger {
	lvl := slog.LevelInfo
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

func setupTracing() (func(context.Context) error, error) {
	exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, err
	}
	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
	otel.SetTracerProvider(tp)
	return tp.Shutdown, nil
}

func printBanner(cfg *config.Config, accessCode string) {
	bindAddr := cfg.Server.Bind
	if bindAddr == "" {
		bindAddr = "127.0.0.1"
	}

	fmt.Println()
	fmt.Println("  sipconsole")
	fmt.Println("  ────────────────────────────────────────")
	fmt.Printf("  Console:    http://%s:%d/console\n", bindAddr, cfg.Server.Port)
	fmt.Printf("  Health:     http://%s:%d/healthz\n", bindAddr, cfg.Server.Port)
	fmt.Printf("  Metrics:    http://%s:%d/metrics\n", bindAddr, cfg.Server.Port)
	fmt.Println("  ────────────────────────────────────────")
	fmt.Printf("  Access code:  %s\n", accessCode)
	fmt.Println("  ────────────────────────────────────────")
	fmt.Printf("  Carrier: %s  |  Poll: %s\n", cfg.Carrier.APIURL, cfg.Poll.Interval)
	fmt.Println()
	fmt.Println("  Enter this code in the browser to access the console.")
	fmt.Println("  Press Ctrl+C to stop.")
	fmt.Println()
}
