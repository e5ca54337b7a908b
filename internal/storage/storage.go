package storage

import (
	"errors"

	"github.com/tubevault/tubevault/internal/catalog"
)

// ErrNotFound is returned when a video ID has no record in the store.
var ErrNotFound = errors.New("record not found")

// RecordReadRepository reads video records from the metadata store.
type RecordReadRepository interface {
	Records() []*catalog.VideoRecord
	Get(videoID string) (*catalog.VideoRecord, bool)
	CountByChannel(channelID string) int
}

// RecordWriteRepository mutates the metadata store. Every mutation is
// durable before the call returns, so an interrupted run never loses
// committed state.
type RecordWriteRepository interface {
	Upsert(rec *catalog.VideoRecord) error
	ClaimDownload(videoID string) (bool, error) // atomically move pending/failed -> in_progress
	MarkSuccess(videoID, localPath string) error
	MarkFailed(videoID string, attemptCount int) error
}
