package download

import (
	"context"
	"errors"
	"runtime/debug"
	"sync/atomic"

	"github.com/tubevault/tubevault/internal/catalog"
	"github.com/tubevault/tubevault/internal/logctx"
	"github.com/tubevault/tubevault/internal/telemetry"
	"golang.org/x/sync/errgroup"
)

// RecordWorker processes one claimed record. Satisfied by *Worker.
type RecordWorker interface {
	Download(ctx context.Context, rec *catalog.VideoRecord) Result
}

// RecordStore is the slice of the metadata store the coordinator uses.
// The coordinator is the sole status mutator for a record while its
// worker runs; the claim makes that exclusive.
type RecordStore interface {
	Records() []*catalog.VideoRecord
	ClaimDownload(videoID string) (bool, error)
	MarkSuccess(videoID, localPath string) error
	MarkFailed(videoID string, attemptCount int) error
}

// Summary is a live snapshot of a download run.
type Summary struct {
	Eligible  int64 `json:"eligible"`
	Succeeded int64 `json:"succeeded"`
	Failed    int64 `json:"failed"`
	Skipped   int64 `json:"skipped"`
	InFlight  int64 `json:"in_flight"`
}

// Coordinator schedules eligible records onto a bounded worker pool.
// One worker's failure never terminates its siblings, and at most one
// download is in flight per video ID.
type Coordinator struct {
	store       RecordStore
	worker      RecordWorker
	maxParallel int
	maxAttempts int
	metrics     *telemetry.Telemetry

	eligible  atomic.Int64
	succeeded atomic.Int64
	failed    atomic.Int64
	skipped   atomic.Int64
	inFlight  atomic.Int64
}

func NewCoordinator(store RecordStore, worker RecordWorker, maxParallel, maxAttempts int, metrics *telemetry.Telemetry) *Coordinator {
	return &Coordinator{
		store:       store,
		worker:      worker,
		maxParallel: maxParallel,
		maxAttempts: maxAttempts,
		metrics:     metrics,
	}
}

// Progress returns a consistent-enough snapshot for the status endpoint.
func (c *Coordinator) Progress() Summary {
	return Summary{
		Eligible:  c.eligible.Load(),
		Succeeded: c.succeeded.Load(),
		Failed:    c.failed.Load(),
		Skipped:   c.skipped.Load(),
		InFlight:  c.inFlight.Load(),
	}
}

// Run processes every record still eligible for download. A store where
// everything already succeeded performs zero downloads. Cancellation
// between dispatches stops scheduling; records interrupted mid-download
// stay in_progress and are re-normalized to pending on the next open.
func (c *Coordinator) Run(ctx context.Context) (Summary, error) {
	logger := logctx.LoggerFromContext(ctx)

	records := c.store.Records()

	// Workers never return an error, so the derived context only trips on
	// parent cancellation. Wait also cancels it on return, which is why the
	// run verdict below comes from the parent context, not this one.
	wg, gctx := errgroup.WithContext(ctx)
	sem := make(chan struct{}, c.maxParallel)

	for i := range records {
		rec := records[i]

		if !rec.Retryable(c.maxAttempts) {
			c.skipped.Add(1)

			continue
		}

		if ctx.Err() != nil {
			break
		}

		c.eligible.Add(1)
		sem <- struct{}{}

		wg.Go(func() error {
			defer func() { <-sem }()

			c.process(gctx, rec)

			return nil
		})
	}

	_ = wg.Wait()

	summary := c.Progress()
	logger.Info("download run finished",
		"eligible", summary.Eligible,
		"succeeded", summary.Succeeded,
		"failed", summary.Failed,
		"skipped", summary.Skipped,
	)

	return summary, ctx.Err()
}

func (c *Coordinator) process(ctx context.Context, rec *catalog.VideoRecord) {
	logger := logctx.LoggerFromContext(ctx).With("video_id", rec.VideoID)

	defer func() {
		if r := recover(); r != nil {
			logger.Error("download worker panic", "panic", r, "stack", string(debug.Stack()))
			c.failed.Add(1)

			if err := c.store.MarkFailed(rec.VideoID, rec.AttemptCount+1); err != nil {
				logger.Error("failed to record panic outcome", "err", err)
			}
		}
	}()

	claimed, err := c.store.ClaimDownload(rec.VideoID)
	if err != nil {
		logger.Error("failed to claim record", "err", err)

		return
	}

	if !claimed {
		logger.Debug("record already claimed or terminal")

		return
	}

	c.inFlight.Add(1)
	c.metrics.AddDownloadsActive(ctx, 1)

	defer func() {
		c.inFlight.Add(-1)
		c.metrics.AddDownloadsActive(ctx, -1)
	}()

	result := c.worker.Download(ctx, rec)
	if result.Err == nil {
		if err := c.store.MarkSuccess(rec.VideoID, result.LocalPath); err != nil {
			logger.Error("failed to record success", "err", err)

			return
		}

		c.succeeded.Add(1)
		c.metrics.RecordDownload(ctx, "success")

		return
	}

	// An interrupted run leaves the record in_progress on purpose: the
	// attempt did not run to completion, so it must not count.
	if errors.Is(result.Err, context.Canceled) {
		logger.Warn("download interrupted", "err", result.Err)

		return
	}

	attempts := rec.AttemptCount + result.Attempts
	if catalog.IsPermanentDownload(result.Err) && attempts < c.maxAttempts {
		// Saturate so no later run retries a terminal failure.
		attempts = c.maxAttempts
	}

	if err := c.store.MarkFailed(rec.VideoID, attempts); err != nil {
		logger.Error("failed to record failure", "err", err)

		return
	}

	c.failed.Add(1)
	c.metrics.RecordDownload(ctx, "failed")
	logger.Error("download failed", "attempts", attempts, "err", result.Err)
}
