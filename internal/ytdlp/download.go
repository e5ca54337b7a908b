package ytdlp

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const dirPerm = 0755

// RunError carries yt-dlp's stderr so callers can classify the failure.
type RunError struct {
	Stderr string
	Err    error
}

func (e *RunError) Error() string {
	msg := strings.TrimSpace(e.Stderr)
	if msg == "" {
		return e.Err.Error()
	}

	return fmt.Sprintf("%v: %s", e.Err, msg)
}

func (e *RunError) Unwrap() error {
	return e.Err
}

// VideoDownloader fetches one video file into a destination directory.
type VideoDownloader struct {
	runner Runner
	format string // yt-dlp format/quality selector
}

func NewVideoDownloader(runner Runner, format string) *VideoDownloader {
	return &VideoDownloader{runner: runner, format: format}
}

// Download fetches videoID into destDir using the template
// <video_id>.<ext> and returns the path of the file that was written.
func (d *VideoDownloader) Download(ctx context.Context, videoID, destDir string) (string, error) {
	if err := os.MkdirAll(destDir, dirPerm); err != nil {
		return "", fmt.Errorf("failed to create download directory: %w", err)
	}

	_, stderr, err := d.runner.Run(ctx,
		"--format", d.format,
		"--output", filepath.Join(destDir, "%(id)s.%(ext)s"),
		"--no-progress",
		"--no-warnings",
		"https://www.youtube.com/watch?v="+videoID,
	)
	if err != nil {
		return "", &RunError{Stderr: stderr, Err: err}
	}

	matches, err := filepath.Glob(filepath.Join(destDir, videoID+".*"))
	if err != nil || len(matches) == 0 {
		return "", &RunError{Stderr: stderr, Err: fmt.Errorf("no output file for video %s", videoID)}
	}

	return matches[0], nil
}
