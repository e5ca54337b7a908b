package download

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/tubevault/tubevault/internal/catalog"
	"github.com/tubevault/tubevault/internal/logctx"
	"github.com/tubevault/tubevault/internal/retry"
	"github.com/tubevault/tubevault/internal/ytdlp"
)

// VideoFetcher grabs one video into a destination directory and returns
// the local path. Satisfied by ytdlp.VideoDownloader.
type VideoFetcher interface {
	Download(ctx context.Context, videoID, destDir string) (string, error)
}

// Result is the outcome of processing one record.
type Result struct {
	LocalPath string
	Attempts  int
	Err       error
}

// Worker downloads a single video with the shared retry policy. Transient
// failures (network, timeout) are retried with backoff; permanent ones
// (removed, private, geo-blocked) abort immediately.
type Worker struct {
	fetcher     VideoFetcher
	downloadDir string
	policy      retry.Policy
	timeout     time.Duration // per download attempt
}

func NewWorker(fetcher VideoFetcher, downloadDir string, policy retry.Policy, timeout time.Duration) *Worker {
	return &Worker{
		fetcher:     fetcher,
		downloadDir: downloadDir,
		policy:      policy,
		timeout:     timeout,
	}
}

// Download fetches the record's video into a per-channel subdirectory.
func (w *Worker) Download(ctx context.Context, rec *catalog.VideoRecord) Result {
	logger := logctx.LoggerFromContext(ctx).With("video_id", rec.VideoID)
	dest := filepath.Join(w.downloadDir, rec.ChannelID)

	attempts := 0

	path, err := retry.Do(ctx, w.policy, func() (string, error) {
		attempts++

		attemptCtx := ctx

		if w.timeout > 0 {
			var cancel context.CancelFunc

			attemptCtx, cancel = context.WithTimeout(ctx, w.timeout)
			defer cancel()
		}

		path, err := w.fetcher.Download(attemptCtx, rec.VideoID, dest)
		if err != nil {
			classified := Classify(rec.VideoID, err)
			if catalog.IsPermanentDownload(classified) {
				return "", retry.Permanent(classified)
			}

			logger.Warn("download attempt failed", "attempt", attempts, "err", classified)

			return "", classified
		}

		return path, nil
	})
	if err != nil {
		return Result{Attempts: attempts, Err: err}
	}

	if info, statErr := os.Stat(path); statErr == nil {
		logger.Info("downloaded video", "target", path, "file_size", humanize.Bytes(uint64(info.Size())))
	}

	return Result{LocalPath: path, Attempts: attempts}
}

// permanentMarkers are yt-dlp stderr fragments that identify failures no
// retry can fix.
var permanentMarkers = []string{
	"private video",
	"video unavailable",
	"this video is not available",
	"has been removed",
	"account associated with this video has been terminated",
	"not available in your country",
	"blocked it in your country",
	"members-only",
	"sign in to confirm your age",
	"copyright",
}

// Classify maps a raw fetch failure onto the download error taxonomy.
func Classify(videoID string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return &catalog.DownloadTransientError{VideoID: videoID, Reason: "timed out", Err: err}
	}

	var runErr *ytdlp.RunError
	if errors.As(err, &runErr) {
		msg := strings.ToLower(runErr.Stderr)
		for _, marker := range permanentMarkers {
			if strings.Contains(msg, marker) {
				return &catalog.DownloadPermanentError{VideoID: videoID, Reason: marker, Err: err}
			}
		}
	}

	return &catalog.DownloadTransientError{
		VideoID: videoID,
		Reason:  fmt.Sprintf("fetch failed: %v", err),
		Err:     err,
	}
}
