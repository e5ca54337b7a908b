package scrape

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tubevault/tubevault/internal/catalog"
	"github.com/tubevault/tubevault/internal/logctx"
	"github.com/tubevault/tubevault/internal/ytdlp"
)

// SubtitleTranscripts fetches transcripts through yt-dlp subtitle tracks.
// The preferred language is tried first, then any auto-generated track.
type SubtitleTranscripts struct {
	fetcher  *ytdlp.SubtitleFetcher
	language string
	timeout  time.Duration // per yt-dlp invocation
}

func NewSubtitleTranscripts(fetcher *ytdlp.SubtitleFetcher, language string, timeout time.Duration) *SubtitleTranscripts {
	return &SubtitleTranscripts{fetcher: fetcher, language: language, timeout: timeout}
}

// Fetch returns the transcript text for videoID. Absence of any transcript
// is reported as TranscriptUnavailableError, never as a hard failure.
func (t *SubtitleTranscripts) Fetch(ctx context.Context, videoID string) (string, error) {
	logger := logctx.LoggerFromContext(ctx)

	if t.timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	text, err := t.fetcher.Fetch(ctx, videoID, t.language)
	if err == nil {
		return text, nil
	}

	if !errors.Is(err, ytdlp.ErrNoSubtitles) {
		return "", fmt.Errorf("failed to fetch %s transcript: %w", t.language, err)
	}

	logger.Debug("no transcript in preferred language, falling back",
		"video_id", videoID, "language", t.language)

	text, err = t.fetcher.Fetch(ctx, videoID, "all")
	if err == nil {
		return text, nil
	}

	if errors.Is(err, ytdlp.ErrNoSubtitles) {
		return "", &catalog.TranscriptUnavailableError{VideoID: videoID, Language: t.language}
	}

	return "", fmt.Errorf("failed to fetch fallback transcript: %w", err)
}
