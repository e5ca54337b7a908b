package scrape

import (
	"context"
	"fmt"

	"github.com/tubevault/tubevault/internal/catalog"
	"github.com/tubevault/tubevault/internal/logctx"
)

// ChannelResolver maps a channel name to its stable channel ID.
type ChannelResolver interface {
	Resolve(ctx context.Context, name string) (string, error)
}

// VideoLister returns up to limit videos of a channel, newest first.
type VideoLister interface {
	List(ctx context.Context, channelID string, limit int) ([]*catalog.VideoRecord, error)
}

// TranscriptFetcher returns the transcript for a video, or
// TranscriptUnavailableError when the video has none.
type TranscriptFetcher interface {
	Fetch(ctx context.Context, videoID string) (string, error)
}

// SummaryGenerator derives a summary from a transcript.
type SummaryGenerator interface {
	Summarize(ctx context.Context, videoID, transcript string) (string, error)
}

// RecordStore is the slice of the metadata store the scraper uses.
type RecordStore interface {
	Get(videoID string) (*catalog.VideoRecord, bool)
	CountByChannel(channelID string) int
	Upsert(rec *catalog.VideoRecord) error
}

// RunSummary reports what one scraper run accomplished.
type RunSummary struct {
	ChannelsResolved   int
	ChannelsSkipped    int
	VideosListed       int
	TranscriptsFound   int
	SummariesGenerated int
}

// Scraper drives the metadata acquisition stage: resolve each channel,
// list its newest uploads, enrich them with transcript and summary, and
// upsert everything into the store. Per-channel failures are isolated;
// only a quota-exceeded signal ends the run early.
type Scraper struct {
	resolver    ChannelResolver
	lister      VideoLister
	transcripts TranscriptFetcher
	summaries   SummaryGenerator
	store       RecordStore
	maxVideos   int // per-channel record cap
}

func NewScraper(
	resolver ChannelResolver,
	lister VideoLister,
	transcripts TranscriptFetcher,
	summaries SummaryGenerator,
	store RecordStore,
	maxVideos int,
) *Scraper {
	return &Scraper{
		resolver:    resolver,
		lister:      lister,
		transcripts: transcripts,
		summaries:   summaries,
		store:       store,
		maxVideos:   maxVideos,
	}
}

// Run processes the channel list in order. Already-persisted records are
// not lost on early exit: every upsert is flushed by the store, so a
// quota abort or cancellation between channels leaves a usable checkpoint.
func (s *Scraper) Run(ctx context.Context, channels []string) (RunSummary, error) {
	logger := logctx.LoggerFromContext(ctx)

	var sum RunSummary

	for _, name := range channels {
		if err := ctx.Err(); err != nil {
			return sum, err
		}

		if err := s.scrapeChannel(ctx, name, &sum); err != nil {
			if catalog.IsQuotaExceeded(err) {
				logger.Error("api quota exhausted, stopping run", "channel", name, "err", err)

				return sum, err
			}

			logger.Error("skipping channel", "channel", name, "err", err)
			sum.ChannelsSkipped++
		}
	}

	return sum, nil
}

func (s *Scraper) scrapeChannel(ctx context.Context, name string, sum *RunSummary) error {
	logger := logctx.LoggerFromContext(ctx).With("channel", name)

	channelID, err := s.resolver.Resolve(ctx, name)
	if err != nil {
		return err
	}

	sum.ChannelsResolved++
	logger.Info("channel resolved", "channel_id", channelID)

	// A quota signal mid-pagination still delivers the records collected so
	// far; they are persisted below before the abort propagates.
	records, listErr := s.lister.List(ctx, channelID, s.maxVideos)
	if listErr != nil && !catalog.IsQuotaExceeded(listErr) {
		return fmt.Errorf("failed to list videos: %w", listErr)
	}

	for _, rec := range records {
		existing, known := s.store.Get(rec.VideoID)

		// Cap the store at maxVideos records per channel even across runs.
		if !known && s.store.CountByChannel(channelID) >= s.maxVideos {
			logger.Debug("channel record cap reached", "video_id", rec.VideoID)

			continue
		}

		if known && existing.HasTranscript() {
			// Keep prior enrichment, refresh only the listing fields.
			rec.Transcript = existing.Transcript
			rec.Summary = existing.Summary
		} else {
			s.enrich(ctx, rec, sum)
		}

		if err := s.store.Upsert(rec); err != nil {
			return fmt.Errorf("failed to save record %s: %w", rec.VideoID, err)
		}

		sum.VideosListed++
	}

	logger.Info("channel scraped", "videos", len(records))

	return listErr
}

// enrich attaches transcript and summary to rec. Both stages are
// best-effort: transcript absence or a failed summary downgrades the
// record instead of failing it.
func (s *Scraper) enrich(ctx context.Context, rec *catalog.VideoRecord, sum *RunSummary) {
	logger := logctx.LoggerFromContext(ctx).With("video_id", rec.VideoID)

	transcript, err := s.transcripts.Fetch(ctx, rec.VideoID)
	if err != nil {
		if catalog.IsTranscriptUnavailable(err) {
			logger.Debug("video has no transcript")
		} else {
			logger.Error("transcript fetch failed", "err", err)
		}

		return
	}

	rec.Transcript = transcript
	sum.TranscriptsFound++

	summary, err := s.summaries.Summarize(ctx, rec.VideoID, transcript)
	if err != nil {
		logger.Error("summary generation failed", "err", err)

		return
	}

	rec.Summary = summary
	sum.SummariesGenerated++
}
