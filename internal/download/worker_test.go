package download

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tubevault/tubevault/internal/catalog"
	"github.com/tubevault/tubevault/internal/retry"
	"github.com/tubevault/tubevault/internal/ytdlp"
)

type fakeFetcher struct {
	errs  []error // consumed one per call, nil means success
	calls int
}

func (f *fakeFetcher) Download(_ context.Context, videoID, destDir string) (string, error) {
	f.calls++

	if f.calls <= len(f.errs) && f.errs[f.calls-1] != nil {
		return "", f.errs[f.calls-1]
	}

	if err := os.MkdirAll(destDir, 0755); err != nil {
		return "", err
	}

	path := filepath.Join(destDir, videoID+".mp4")
	if err := os.WriteFile(path, []byte("video bytes"), 0644); err != nil {
		return "", err
	}

	return path, nil
}

func workerPolicy() retry.Policy {
	return retry.Policy{MaxAttempts: 3, BaseDelay: time.Millisecond, Factor: 1.5}
}

func testRecord() *catalog.VideoRecord {
	return &catalog.VideoRecord{
		VideoID:   "vid1",
		ChannelID: "UC1",
		Status:    catalog.StatusPending,
	}
}

func TestWorker_Download(t *testing.T) {
	dir := t.TempDir()
	fetcher := &fakeFetcher{}
	w := NewWorker(fetcher, dir, workerPolicy(), time.Minute)

	result := w.Download(context.Background(), testRecord())
	require.NoError(t, result.Err)
	assert.Equal(t, 1, result.Attempts)

	// per-channel subdirectory
	assert.Equal(t, filepath.Join(dir, "UC1", "vid1.mp4"), result.LocalPath)
	assert.FileExists(t, result.LocalPath)
}

func TestWorker_RetriesTransient(t *testing.T) {
	transient := errors.New("connection reset")
	fetcher := &fakeFetcher{errs: []error{transient, transient, nil}}
	w := NewWorker(fetcher, t.TempDir(), workerPolicy(), time.Minute)

	result := w.Download(context.Background(), testRecord())
	require.NoError(t, result.Err)
	assert.Equal(t, 3, result.Attempts)
}

func TestWorker_TransientExhaustsAttempts(t *testing.T) {
	fetcher := &fakeFetcher{errs: []error{
		errors.New("timeout"), errors.New("timeout"), errors.New("timeout"),
	}}
	w := NewWorker(fetcher, t.TempDir(), workerPolicy(), time.Minute)

	result := w.Download(context.Background(), testRecord())
	require.Error(t, result.Err)
	assert.Equal(t, 3, result.Attempts)
	assert.False(t, catalog.IsPermanentDownload(result.Err))
}

func TestWorker_PermanentStopsImmediately(t *testing.T) {
	fetcher := &fakeFetcher{errs: []error{
		&ytdlp.RunError{Stderr: "ERROR: Private video", Err: errors.New("exit status 1")},
	}}
	w := NewWorker(fetcher, t.TempDir(), workerPolicy(), time.Minute)

	result := w.Download(context.Background(), testRecord())
	require.Error(t, result.Err)
	assert.Equal(t, 1, result.Attempts, "permanent failures must not be retried")
	assert.True(t, catalog.IsPermanentDownload(result.Err))
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		permanent bool
	}{
		{"context canceled", context.Canceled, false},
		{"deadline exceeded", context.DeadlineExceeded, false},
		{"plain network error", errors.New("connection refused"), false},
		{"private video", &ytdlp.RunError{Stderr: "ERROR: Private video", Err: errors.New("exit 1")}, true},
		{"removed video", &ytdlp.RunError{Stderr: "ERROR: This video has been removed", Err: errors.New("exit 1")}, true},
		{"geo blocked", &ytdlp.RunError{Stderr: "The uploader has not made this video available in your country", Err: errors.New("exit 1")}, true},
		{"members only", &ytdlp.RunError{Stderr: "ERROR: Join this channel to get access to members-only content", Err: errors.New("exit 1")}, true},
		{"age gated", &ytdlp.RunError{Stderr: "ERROR: Sign in to confirm your age", Err: errors.New("exit 1")}, true},
		{"throttled", &ytdlp.RunError{Stderr: "HTTP Error 429: Too Many Requests", Err: errors.New("exit 1")}, false},
		{"unreadable stderr", &ytdlp.RunError{Stderr: "", Err: errors.New("exit 1")}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			classified := Classify("vid1", tt.err)
			assert.Equal(t, tt.permanent, catalog.IsPermanentDownload(classified))

			if !tt.permanent {
				var transient *catalog.DownloadTransientError
				assert.ErrorAs(t, classified, &transient)
			}
		})
	}
}
