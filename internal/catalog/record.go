package catalog

import "time"

// DownloadStatus tracks a video through the download stage.
// Valid transitions: pending -> in_progress -> success | failed.
// A failed record may be claimed back to in_progress, never to pending.
type DownloadStatus string

const (
	StatusPending    DownloadStatus = "pending"
	StatusInProgress DownloadStatus = "in_progress"
	StatusSuccess    DownloadStatus = "success"
	StatusFailed     DownloadStatus = "failed"
)

// Channel is a publisher from the input list. ID stays empty until resolved.
type Channel struct {
	Name string
	ID   string
}

// VideoRecord is one row of the metadata store. Created by the scraper,
// mutated in place by the downloader, never deleted.
type VideoRecord struct {
	VideoID      string
	ChannelID    string
	Title        string
	PublishedAt  time.Time
	Transcript   string // empty means no transcript available
	Summary      string // empty means no summary generated
	Status       DownloadStatus
	AttemptCount int
	LocalPath    string
}

// WatchURL returns the public watch URL for the record's video.
func (r *VideoRecord) WatchURL() string {
	return "https://www.youtube.com/watch?v=" + r.VideoID
}

// Retryable reports whether the download stage may claim this record.
// Success records are final; failed records stay eligible until the
// attempt ceiling is exhausted.
func (r *VideoRecord) Retryable(maxAttempts int) bool {
	switch r.Status {
	case StatusPending:
		return true
	case StatusFailed:
		return r.AttemptCount < maxAttempts
	default:
		return false
	}
}

// HasTranscript reports whether the scraper already enriched this record.
// Records holding a transcript are not re-enriched on a later run.
func (r *VideoRecord) HasTranscript() bool {
	return r.Transcript != ""
}
