package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	openai "github.com/sashabaranov/go-openai"
	"github.com/tubevault/tubevault/internal/config"
	"github.com/tubevault/tubevault/internal/logctx"
	"github.com/tubevault/tubevault/internal/notifier"
	"github.com/tubevault/tubevault/internal/retry"
	"github.com/tubevault/tubevault/internal/scrape"
	"github.com/tubevault/tubevault/internal/storage/csvstore"
	"github.com/tubevault/tubevault/internal/ytdlp"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
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

	slog.Info("scraper starting...", "log_level", cfg.LogLevel, "channel_file", cfg.ChannelFile)

	if err := run(logctx.WithLogger(ctx, logger), cfg); err != nil {
		slog.Error("fatal error", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	logger := logctx.LoggerFromContext(ctx)

	// =========================================================================
	// Open Metadata Store
	store, err := csvstore.Open(cfg.MetadataPath)
	if err != nil {
		return fmt.Errorf("failed to open metadata store: %w", err)
	}

	// =========================================================================
	// Read Inputs
	channels, err := scrape.ReadChannelList(cfg.ChannelFile)
	if err != nil {
		return err
	}

	prompt, err := scrape.ReadPromptTemplate(cfg.PromptFile)
	if err != nil {
		return err
	}

	// =========================================================================
	// Build Collaborators
	svc, err := youtube.NewService(ctx,
		option.WithAPIKey(cfg.YoutubeAPIKey),
		option.WithHTTPClient(&http.Client{Timeout: cfg.HTTPTimeout}),
	)
	if err != nil {
		return fmt.Errorf("failed to create youtube service: %w", err)
	}

	yt := scrape.NewYoutubeClient(svc)

	policy := retry.Policy{
		MaxAttempts: uint(cfg.MaxAttempts),
		BaseDelay:   cfg.RetryBaseDelay,
		Factor:      cfg.RetryFactor,
	}

	summarizer := scrape.NewOpenAISummarizer(
		openai.NewClient(cfg.OpenAIAPIKey),
		cfg.OpenAIModel,
		prompt,
		policy,
	)

	transcripts := scrape.NewSubtitleTranscripts(
		ytdlp.NewSubtitleFetcher(ytdlp.NewExecRunner()),
		cfg.TranscriptLanguage,
		cfg.SubtitleTimeout,
	)

	scraper := scrape.NewScraper(yt, yt, transcripts, summarizer, store, cfg.MaxVideosPerChannel)

	// =========================================================================
	// Run
	logger.Info("scraping channels...",
		"channels", len(channels),
		"max_videos_per_channel", cfg.MaxVideosPerChannel,
		"transcript_language", cfg.TranscriptLanguage,
	)

	summary, runErr := scraper.Run(ctx, channels)

	logger.Info("scraper run finished",
		"channels_resolved", summary.ChannelsResolved,
		"channels_skipped", summary.ChannelsSkipped,
		"videos_listed", summary.VideosListed,
		"transcripts_found", summary.TranscriptsFound,
		"summaries_generated", summary.SummariesGenerated,
	)

	notifyRunResult(ctx, cfg, summary, runErr)

	return runErr
}

func notifyRunResult(ctx context.Context, cfg *config.Config, summary scrape.RunSummary, runErr error) {
	if cfg.DiscordWebhookURL == "" {
		return
	}

	logger := logctx.LoggerFromContext(ctx)

	var notif notifier.Notifier = &notifier.DiscordNotifier{WebhookURL: cfg.DiscordWebhookURL}

	msg := fmt.Sprintf("Scraper run finished: %d channels resolved, %d skipped, %d videos, %d transcripts, %d summaries",
		summary.ChannelsResolved, summary.ChannelsSkipped, summary.VideosListed,
		summary.TranscriptsFound, summary.SummariesGenerated)
	if runErr != nil {
		msg += fmt.Sprintf(" (run aborted: %v)", runErr)
	}

	// The run context may already be cancelled when we get here.
	if err := notif.Notify(context.WithoutCancel(ctx), msg); err != nil {
		logger.Error("failed to send notification", "err", err)
	}
}
