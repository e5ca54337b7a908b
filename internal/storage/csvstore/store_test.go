package csvstore_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tubevault/tubevault/internal/catalog"
	"github.com/tubevault/tubevault/internal/storage/csvstore"
)

func newRecord(videoID string) *catalog.VideoRecord {
	return &catalog.VideoRecord{
		VideoID:     videoID,
		ChannelID:   "UCchannel",
		Title:       "a title, with commas\nand a newline",
		PublishedAt: time.Date(2024, 6, 1, 12, 30, 0, 0, time.UTC),
		Transcript:  "hello world",
		Summary:     "a summary",
		Status:      catalog.StatusPending,
	}
}

func TestRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metadata.csv")

	store, err := csvstore.Open(path)
	require.NoError(t, err)

	rec := newRecord("vid1")
	require.NoError(t, store.Upsert(rec))

	empty := newRecord("vid2")
	empty.Transcript = ""
	empty.Summary = ""
	require.NoError(t, store.Upsert(empty))

	reopened, err := csvstore.Open(path)
	require.NoError(t, err)

	records := reopened.Records()
	require.Len(t, records, 2)

	assert.Equal(t, rec.VideoID, records[0].VideoID)
	assert.Equal(t, rec.ChannelID, records[0].ChannelID)
	assert.Equal(t, rec.Title, records[0].Title)
	assert.True(t, rec.PublishedAt.Equal(records[0].PublishedAt))
	assert.Equal(t, rec.Transcript, records[0].Transcript)
	assert.Equal(t, rec.Summary, records[0].Summary)
	assert.Equal(t, catalog.StatusPending, records[0].Status)
	assert.Equal(t, 0, records[0].AttemptCount)
	assert.Equal(t, "", records[0].LocalPath)

	// absence markers survive the round trip
	assert.Equal(t, "", records[1].Transcript)
	assert.Equal(t, "", records[1].Summary)
}

func TestOpen_MissingFile(t *testing.T) {
	store, err := csvstore.Open(filepath.Join(t.TempDir(), "missing.csv"))
	require.NoError(t, err)
	assert.Empty(t, store.Records())
}

func TestOpen_NormalizesInProgress(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metadata.csv")

	store, err := csvstore.Open(path)
	require.NoError(t, err)
	require.NoError(t, store.Upsert(newRecord("vid1")))

	claimed, err := store.ClaimDownload("vid1")
	require.NoError(t, err)
	require.True(t, claimed)

	// Simulates a crashed run: the claim was flushed, the outcome never was.
	reopened, err := csvstore.Open(path)
	require.NoError(t, err)

	rec, ok := reopened.Get("vid1")
	require.True(t, ok)
	assert.Equal(t, catalog.StatusPending, rec.Status)
}

func TestClaimDownload(t *testing.T) {
	store, err := csvstore.Open(filepath.Join(t.TempDir(), "metadata.csv"))
	require.NoError(t, err)
	require.NoError(t, store.Upsert(newRecord("vid1")))

	claimed, err := store.ClaimDownload("vid1")
	require.NoError(t, err)
	assert.True(t, claimed)

	// second claim must lose while the record is in flight
	claimed, err = store.ClaimDownload("vid1")
	require.NoError(t, err)
	assert.False(t, claimed)

	require.NoError(t, store.MarkSuccess("vid1", "/videos/vid1.mp4"))

	// terminal success is never claimable again
	claimed, err = store.ClaimDownload("vid1")
	require.NoError(t, err)
	assert.False(t, claimed)

	rec, ok := store.Get("vid1")
	require.True(t, ok)
	assert.Equal(t, catalog.StatusSuccess, rec.Status)
	assert.Equal(t, "/videos/vid1.mp4", rec.LocalPath)
}

func TestClaimDownload_FailedIsRetryable(t *testing.T) {
	store, err := csvstore.Open(filepath.Join(t.TempDir(), "metadata.csv"))
	require.NoError(t, err)
	require.NoError(t, store.Upsert(newRecord("vid1")))

	claimed, err := store.ClaimDownload("vid1")
	require.NoError(t, err)
	require.True(t, claimed)

	require.NoError(t, store.MarkFailed("vid1", 2))

	rec, _ := store.Get("vid1")
	assert.Equal(t, catalog.StatusFailed, rec.Status)
	assert.Equal(t, 2, rec.AttemptCount)

	claimed, err = store.ClaimDownload("vid1")
	require.NoError(t, err)
	assert.True(t, claimed, "failed records stay claimable")
}

func TestClaimDownload_UnknownVideo(t *testing.T) {
	store, err := csvstore.Open(filepath.Join(t.TempDir(), "metadata.csv"))
	require.NoError(t, err)

	_, err = store.ClaimDownload("nope")
	assert.Error(t, err)
}

func TestUpsert_PreservesDownloadState(t *testing.T) {
	store, err := csvstore.Open(filepath.Join(t.TempDir(), "metadata.csv"))
	require.NoError(t, err)
	require.NoError(t, store.Upsert(newRecord("vid1")))

	claimed, err := store.ClaimDownload("vid1")
	require.NoError(t, err)
	require.True(t, claimed)
	require.NoError(t, store.MarkSuccess("vid1", "/videos/vid1.mp4"))

	// a re-scrape refreshes listing fields only
	refreshed := newRecord("vid1")
	refreshed.Title = "renamed upstream"
	require.NoError(t, store.Upsert(refreshed))

	rec, ok := store.Get("vid1")
	require.True(t, ok)
	assert.Equal(t, "renamed upstream", rec.Title)
	assert.Equal(t, catalog.StatusSuccess, rec.Status)
	assert.Equal(t, "/videos/vid1.mp4", rec.LocalPath)
}

func TestCountByChannel(t *testing.T) {
	store, err := csvstore.Open(filepath.Join(t.TempDir(), "metadata.csv"))
	require.NoError(t, err)

	for _, id := range []string{"a", "b", "c"} {
		rec := newRecord(id)
		require.NoError(t, store.Upsert(rec))
	}

	other := newRecord("d")
	other.ChannelID = "UCother"
	require.NoError(t, store.Upsert(other))

	assert.Equal(t, 3, store.CountByChannel("UCchannel"))
	assert.Equal(t, 1, store.CountByChannel("UCother"))
	assert.Equal(t, 0, store.CountByChannel("UCnone"))
}
