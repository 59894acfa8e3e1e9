package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/eb1-screener/internal/document"
	"github.com/spigell/eb1-screener/internal/evaluation"
	"github.com/spigell/eb1-screener/internal/httpserver"
	"github.com/spigell/eb1-screener/internal/observability"
)

const shutdownTimeout = 20 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the evaluation API over HTTP",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return serve(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "listen address (default :8080)")
	viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
}

func serve(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	log, cfg, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting the eb1-screener", zap.String("version", version), zap.String("provider", cfg.Provider))

	shutdownTracing, err := observability.SetupTracing(ctx, cfg.Tracing.Endpoint, app, log)
	if err != nil {
		return fmt.Errorf("setting up tracing: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			log.Warn("tracing shutdown", zap.Error(err))
		}
	}()

	metrics, err := observability.NewMetrics(prometheus.DefaultRegisterer, observability.NewTiktoken("", log))
	if err != nil {
		return err
	}

	registry, err := newRegistry(ctx, cfg, log, metrics)
	if err != nil {
		return fmt.Errorf("building evaluation variants: %w", err)
	}

	server := newHTTPServer(cfg, registry, metrics, prometheus.DefaultGatherer, log)

	ln, err := net.Listen("tcp", server.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", server.Addr, err)
	}
	log.Info("listening", zap.String("addr", ln.Addr().String()), zap.Strings("variants", registry.Names()))

	return runServer(ctx, server, ln, log)
}

// newHTTPServer wires the API handler into an http.Server built from cfg.
func newHTTPServer(cfg *Config, registry *evaluation.Registry, metrics *observability.Metrics, gatherer prometheus.Gatherer, log *zap.Logger) *http.Server {
	srv := httpserver.New(httpserver.Config{
		CORSOrigins:     cfg.Server.CORSOrigins,
		RateLimitPerMin: cfg.Server.RateLimitPerMin,
	}, httpserver.Deps{
		Registry:  registry,
		Documents: document.NewExtractor(cfg.Server.MaxUploadMB<<20, log),
		Metrics:   metrics,
		Gatherer:  gatherer,
		Logger:    log,
	})

	return &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           srv.Handler(),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.Server.WriteTimeout,
	}
}

// runServer serves on ln until ctx is done, then shuts the server down
// gracefully.
func runServer(ctx context.Context, server *http.Server, ln net.Listener, log *zap.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down", zap.Duration("timeout", shutdownTimeout))
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(sctx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}
