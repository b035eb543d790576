package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sitelens/sitelens/internal/api"
	"github.com/sitelens/sitelens/internal/config"
	"github.com/sitelens/sitelens/internal/fetch"
	"github.com/sitelens/sitelens/internal/lighthouse"
	"github.com/sitelens/sitelens/internal/logging"
	"github.com/sitelens/sitelens/internal/metrics"
	"github.com/sitelens/sitelens/internal/mobile"
	"github.com/sitelens/sitelens/internal/pagespeed"
	"github.com/sitelens/sitelens/internal/secheaders"
	"github.com/sitelens/sitelens/internal/techstack"
	"github.com/sitelens/sitelens/internal/webvitals"
)

const shutdownGrace = 10 * time.Second

// newServeCmd creates and configures the 'serve' subcommand, which runs
// the analysis API server until interrupted.
func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Starts the analysis API server",
		Long: `Starts the HTTP server exposing the /api/analyze endpoints. The server
runs until it receives SIGINT or SIGTERM, then drains in-flight requests
before exiting.`,

		RunE: runServeCommand,
	}
	return cmd
}

func runServeCommand(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	metrics.Init()

	analyzers, cleanup, err := buildAnalyzers(cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           api.NewServer(cfg, analyzers, logger).Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server listening",
			zap.Int("port", cfg.Server.Port),
			zap.String("allowed_origin", cfg.CORS.AllowedOrigin),
		)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
	case <-ctx.Done():
		logger.Info("Shutdown signal received, draining requests")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
	}

	logger.Info("Server stopped")
	return nil
}

// buildAnalyzers assembles the analyzer stack behind the API server. The
// returned cleanup releases the headless Chrome allocator when one was
// started.
func buildAnalyzers(cfg config.Config, logger *zap.Logger) (api.Analyzers, func(), error) {
	fetcher := fetch.New(fetch.Config{
		UserAgent: cfg.Fetch.UserAgent,
		Timeout:   cfg.FetchBudget(),
	})

	detector, err := techstack.NewDetector(fetcher)
	if err != nil {
		return api.Analyzers{}, nil, fmt.Errorf("init tech detector: %w", err)
	}

	runner := lighthouse.NewRunner(lighthouse.Config{
		Binary:      cfg.Lighthouse.Binary,
		Timeout:     cfg.LighthouseBudget(),
		ChromeFlags: cfg.Lighthouse.ChromeFlags,
		ChromePath:  cfg.Lighthouse.ChromePath,
	}, logger.Named("lighthouse"))

	cleanup := func() {}
	mobileAnalyzer := mobile.NewAnalyzer(nil, fetcher, logger.Named("mobile"))
	if cfg.Headless.Enabled {
		renderer := mobile.NewRenderer(mobile.RendererConfig{
			NavigationTimeout: time.Duration(cfg.Headless.NavTimeoutSec) * time.Second,
		})
		mobileAnalyzer = mobile.NewAnalyzer(renderer, fetcher, logger.Named("mobile"))
		cleanup = renderer.Close
	}

	analyzers := api.Analyzers{
		Lighthouse: runner,
		Website:    pagespeed.NewClient(cfg.Google.APIKey),
		TechStack:  detector,
		SecHeaders: secheaders.NewAnalyzer(fetcher),
		Mobile:     mobileAnalyzer,
		WebVitals:  webvitals.NewClient(cfg.Google.APIKey),
	}
	return analyzers, cleanup, nil
}
