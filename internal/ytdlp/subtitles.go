package ytdlp

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// ErrNoSubtitles means yt-dlp produced no subtitle track for the video.
var ErrNoSubtitles = fmt.Errorf("no subtitles written")

var inlineTags = regexp.MustCompile(`<[^>]*>`)

// SubtitleFetcher downloads subtitle tracks without fetching the video.
type SubtitleFetcher struct {
	runner Runner
}

func NewSubtitleFetcher(runner Runner) *SubtitleFetcher {
	return &SubtitleFetcher{runner: runner}
}

// Fetch grabs the subtitle track for videoID in the given language selector
// ("en-US", or "all" for any available track) and returns it as plain text.
// Both uploaded and auto-generated tracks are accepted.
func (f *SubtitleFetcher) Fetch(ctx context.Context, videoID, langs string) (string, error) {
	dir, err := os.MkdirTemp("", "tubevault-subs-")
	if err != nil {
		return "", fmt.Errorf("failed to create subtitle dir: %w", err)
	}
	defer os.RemoveAll(dir)

	_, stderr, err := f.runner.Run(ctx,
		"--skip-download",
		"--write-subs",
		"--write-auto-subs",
		"--sub-langs", langs,
		"--sub-format", "vtt",
		"--output", filepath.Join(dir, "%(id)s.%(ext)s"),
		"https://www.youtube.com/watch?v="+videoID,
	)
	if err != nil {
		return "", fmt.Errorf("subtitle fetch failed: %w (%s)", err, strings.TrimSpace(stderr))
	}

	matches, err := filepath.Glob(filepath.Join(dir, videoID+"*.vtt"))
	if err != nil {
		return "", fmt.Errorf("failed to locate subtitle file: %w", err)
	}

	if len(matches) == 0 {
		return "", ErrNoSubtitles
	}

	raw, err := os.ReadFile(matches[0])
	if err != nil {
		return "", fmt.Errorf("failed to read subtitle file: %w", err)
	}

	text := StripVTT(string(raw))
	if text == "" {
		return "", ErrNoSubtitles
	}

	return text, nil
}

// StripVTT reduces a WEBVTT document to its cue text. Timestamps, cue
// settings, inline tags and the repeated lines of auto-generated tracks
// are dropped.
func StripVTT(vtt string) string {
	var out []string

	last := ""

	for _, line := range strings.Split(vtt, "\n") {
		line = strings.TrimSpace(line)

		switch {
		case line == "":
			continue
		case strings.HasPrefix(line, "WEBVTT"),
			strings.HasPrefix(line, "Kind:"),
			strings.HasPrefix(line, "Language:"),
			strings.HasPrefix(line, "NOTE"),
			strings.HasPrefix(line, "STYLE"),
			strings.Contains(line, "-->"):
			continue
		}

		line = strings.TrimSpace(inlineTags.ReplaceAllString(line, ""))
		if line == "" || line == last {
			continue
		}

		out = append(out, line)
		last = line
	}

	return strings.Join(out, " ")
}
