// Package csvstore persists the metadata store as a header-row CSV file.
// The file is the durable handoff between the scraper and downloader runs:
// every mutation rewrites it atomically (temp file + rename) so a crashed
// run can never corrupt records that were already flushed.
package csvstore

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/tubevault/tubevault/internal/catalog"
	"github.com/tubevault/tubevault/internal/storage"
)

var header = []string{
	"video_id", "channel_id", "title", "published_at",
	"transcript", "summary", "download_status", "attempt_count", "local_path",
}

const filePerm = 0644

// Store is an in-memory, insertion-ordered record table backed by a CSV
// file. All access is serialized by a single mutex; per-record claim
// semantics guarantee at most one in-flight download per video ID.
type Store struct {
	path string

	mu      sync.Mutex
	records []*catalog.VideoRecord
	index   map[string]int // video_id -> position in records
}

// Open loads the store from path, creating an empty store when the file
// does not exist yet. Records left in_progress by an interrupted run are
// re-normalized to pending.
func Open(path string) (*Store, error) {
	s := &Store{
		path:  path,
		index: make(map[string]int),
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}

		return nil, fmt.Errorf("failed to open metadata file: %w", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata file: %w", err)
	}

	normalized := false

	for i, row := range rows {
		if i == 0 {
			continue // header
		}

		rec, err := decodeRow(row)
		if err != nil {
			return nil, fmt.Errorf("failed to decode row %d: %w", i, err)
		}

		if rec.Status == catalog.StatusInProgress {
			rec.Status = catalog.StatusPending
			normalized = true
		}

		s.index[rec.VideoID] = len(s.records)
		s.records = append(s.records, rec)
	}

	if normalized {
		if err := s.flushLocked(); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Records returns a snapshot copy of all records in insertion order.
func (s *Store) Records() []*catalog.VideoRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*catalog.VideoRecord, len(s.records))
	for i, rec := range s.records {
		cp := *rec
		out[i] = &cp
	}

	return out
}

// Get returns a copy of the record for videoID, if present.
func (s *Store) Get(videoID string) (*catalog.VideoRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[videoID]
	if !ok {
		return nil, false
	}

	cp := *s.records[i]

	return &cp, true
}

// CountByChannel returns how many records exist for a channel.
func (s *Store) CountByChannel(channelID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0

	for _, rec := range s.records {
		if rec.ChannelID == channelID {
			n++
		}
	}

	return n
}

// Upsert inserts a new record or refreshes an existing one by video ID.
// Download bookkeeping (status, attempt count, local path) of an existing
// record is preserved so a re-scrape never resets downloader state.
func (s *Store) Upsert(rec *catalog.VideoRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *rec

	if i, ok := s.index[cp.VideoID]; ok {
		existing := s.records[i]
		cp.Status = existing.Status
		cp.AttemptCount = existing.AttemptCount
		cp.LocalPath = existing.LocalPath
		s.records[i] = &cp
	} else {
		if cp.Status == "" {
			cp.Status = catalog.StatusPending
		}

		s.index[cp.VideoID] = len(s.records)
		s.records = append(s.records, &cp)
	}

	return s.flushLocked()
}

// ClaimDownload atomically moves a pending or failed record to in_progress.
// Returns false when the record is already claimed or in a terminal state,
// so two workers can never download the same video concurrently.
func (s *Store) ClaimDownload(videoID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[videoID]
	if !ok {
		return false, storage.ErrNotFound
	}

	rec := s.records[i]
	if rec.Status != catalog.StatusPending && rec.Status != catalog.StatusFailed {
		return false, nil
	}

	rec.Status = catalog.StatusInProgress

	if err := s.flushLocked(); err != nil {
		return false, err
	}

	return true, nil
}

// MarkSuccess records a completed download and its local path.
func (s *Store) MarkSuccess(videoID, localPath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[videoID]
	if !ok {
		return storage.ErrNotFound
	}

	s.records[i].Status = catalog.StatusSuccess
	s.records[i].LocalPath = localPath

	return s.flushLocked()
}

// MarkFailed records a failed download with the new absolute attempt count.
// The caller decides the count; saturating it to the attempt ceiling makes
// a permanent failure ineligible for any later run.
func (s *Store) MarkFailed(videoID string, attemptCount int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[videoID]
	if !ok {
		return storage.ErrNotFound
	}

	s.records[i].Status = catalog.StatusFailed
	s.records[i].AttemptCount = attemptCount

	return s.flushLocked()
}

func (s *Store) flushLocked() error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create metadata directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".metadata-*.csv")
	if err != nil {
		return fmt.Errorf("failed to create temp metadata file: %w", err)
	}

	w := csv.NewWriter(tmp)

	if err := w.Write(header); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())

		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, rec := range s.records {
		if err := w.Write(encodeRow(rec)); err != nil {
			tmp.Close()
			os.Remove(tmp.Name())

			return fmt.Errorf("failed to write record %s: %w", rec.VideoID, err)
		}
	}

	w.Flush()

	if err := w.Error(); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())

		return fmt.Errorf("failed to flush metadata file: %w", err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())

		return fmt.Errorf("failed to close temp metadata file: %w", err)
	}

	if err := os.Chmod(tmp.Name(), filePerm); err != nil {
		os.Remove(tmp.Name())

		return fmt.Errorf("failed to chmod metadata file: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())

		return fmt.Errorf("failed to replace metadata file: %w", err)
	}

	return nil
}

var (
	_ storage.RecordReadRepository  = (*Store)(nil)
	_ storage.RecordWriteRepository = (*Store)(nil)
)

func encodeRow(rec *catalog.VideoRecord) []string {
	return []string{
		rec.VideoID,
		rec.ChannelID,
		rec.Title,
		rec.PublishedAt.UTC().Format(time.RFC3339),
		rec.Transcript,
		rec.Summary,
		string(rec.Status),
		strconv.Itoa(rec.AttemptCount),
		rec.LocalPath,
	}
}

func decodeRow(row []string) (*catalog.VideoRecord, error) {
	if len(row) != len(header) {
		return nil, fmt.Errorf("expected %d columns, got %d", len(header), len(row))
	}

	publishedAt, err := time.Parse(time.RFC3339, row[3])
	if err != nil {
		return nil, fmt.Errorf("bad published_at %q: %w", row[3], err)
	}

	attempts, err := strconv.Atoi(row[7])
	if err != nil {
		return nil, fmt.Errorf("bad attempt_count %q: %w", row[7], err)
	}

	return &catalog.VideoRecord{
		VideoID:      row[0],
		ChannelID:    row[1],
		Title:        row[2],
		PublishedAt:  publishedAt,
		Transcript:   row[4],
		Summary:      row[5],
		Status:       catalog.DownloadStatus(row[6]),
		AttemptCount: attempts,
		LocalPath:    row[8],
	}, nil
}
