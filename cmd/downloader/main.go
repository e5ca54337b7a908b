package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/tubevault/tubevault/internal/config"
	"github.com/tubevault/tubevault/internal/download"
	"github.com/tubevault/tubevault/internal/http/rest"
	"github.com/tubevault/tubevault/internal/logctx"
	"github.com/tubevault/tubevault/internal/notifier"
	"github.com/tubevault/tubevault/internal/retry"
	"github.com/tubevault/tubevault/internal/storage/csvstore"
	"github.com/tubevault/tubevault/internal/telemetry"
	"github.com/tubevault/tubevault/internal/ytdlp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("config error", "err", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("downloader starting...", "log_level", cfg.LogLevel, "metadata_path", cfg.MetadataPath)

	if err := run(logctx.WithLogger(ctx, logger), cfg); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("fatal error", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	logger := logctx.LoggerFromContext(ctx)

	// =========================================================================
	// Open Metadata Store
	// Opening also re-normalizes records a crashed run left in_progress.
	store, err := csvstore.Open(cfg.MetadataPath)
	if err != nil {
		return fmt.Errorf("failed to open metadata store: %w", err)
	}

	// =========================================================================
	// Start Telemetry
	tel, err := telemetry.New(telemetry.Config{
		Enabled:     cfg.TelemetryEnabled,
		ServiceName: "tubevault-downloader",
	})
	if err != nil {
		return fmt.Errorf("failed to start telemetry: %w", err)
	}
	defer tel.Shutdown(context.Background())

	// =========================================================================
	// Build Coordinator
	policy := retry.Policy{
		MaxAttempts: uint(cfg.MaxAttempts),
		BaseDelay:   cfg.RetryBaseDelay,
		Factor:      cfg.RetryFactor,
	}

	worker := download.NewWorker(
		ytdlp.NewVideoDownloader(ytdlp.NewExecRunner(), cfg.DownloadFormat),
		cfg.DownloadDir,
		policy,
		cfg.DownloadTimeout,
	)

	coordinator := download.NewCoordinator(store, worker, cfg.MaxParallel, cfg.MaxAttempts, tel)

	// =========================================================================
	// Start Ops Endpoint
	serverErrors := make(chan error, 1)
	server := setupServer(ctx, coordinator, tel, cfg)

	go func() {
		logger.Info("serving ops endpoint", "host", cfg.Web.BindAddress)
		serverErrors <- server.ListenAndServe()
	}()

	// =========================================================================
	// Run Downloads
	logger.Info("processing downloads...",
		"download_dir", cfg.DownloadDir,
		"max_parallel", cfg.MaxParallel,
		"max_attempts", cfg.MaxAttempts,
	)

	summary, runErr := coordinator.Run(ctx)

	notifyRunResult(ctx, cfg, summary, runErr)

	// =========================================================================
	// Shutdown
	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "err", err)
		}
	default:
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Web.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("failed to gracefully shutdown the server", "err", err)

			if err := server.Close(); err != nil {
				return fmt.Errorf("could not stop server gracefully: %w", err)
			}
		}
	}

	return runErr
}

func setupServer(ctx context.Context, coordinator *download.Coordinator, tel *telemetry.Telemetry, cfg *config.Config) *http.Server {
	r := chi.NewRouter()
	r.Mount("/", rest.NewStatusHandler(coordinator, tel.Handler()).Routes())

	return &http.Server{
		Addr:         cfg.Web.BindAddress,
		ReadTimeout:  cfg.Web.ReadTimeout,
		WriteTimeout: cfg.Web.WriteTimeout,
		IdleTimeout:  cfg.Web.IdleTimeout,
		Handler:      otelhttp.NewHandler(r, "ops"),
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}
}

func notifyRunResult(ctx context.Context, cfg *config.Config, summary download.Summary, runErr error) {
	if cfg.DiscordWebhookURL == "" {
		return
	}

	logger := logctx.LoggerFromContext(ctx)

	var notif notifier.Notifier = &notifier.DiscordNotifier{WebhookURL: cfg.DiscordWebhookURL}

	msg := fmt.Sprintf("Download run finished: %d succeeded, %d failed, %d skipped",
		summary.Succeeded, summary.Failed, summary.Skipped)
	if runErr != nil {
		msg += fmt.Sprintf(" (run interrupted: %v)", runErr)
	}

	// Notification uses a fresh context: the run context may already be
	// cancelled when we get here.
	if err := notif.Notify(context.WithoutCancel(ctx), msg); err != nil {
		logger.Error("failed to send notification", "err", err)
	}
}
