package catalog

import (
	"errors"
	"fmt"
)

// ResolutionError means a channel name could not be mapped to a channel ID,
// either because no such channel exists or because the API denied access.
// The caller skips the channel and continues with the rest of the list.
type ResolutionError struct {
	Channel string // channel name or handle from the input list
	Reason  string // human-readable explanation
	Err     error  // underlying error, if any
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("cannot resolve channel %q: %s", e.Channel, e.Reason)
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}

// QuotaExceededError means the metadata API refused further calls for the
// current quota window. Fatal for the run: already-collected records are
// flushed and no further API-consuming calls may be issued.
type QuotaExceededError struct {
	Operation string // the API operation that hit the quota
	Err       error  // underlying error, if any
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("api quota exceeded during %s", e.Operation)
}

func (e *QuotaExceededError) Unwrap() error {
	return e.Err
}

// TranscriptUnavailableError means no transcript exists for a video in any
// language. Non-fatal: the record is kept with an empty transcript and
// summary generation is suppressed.
type TranscriptUnavailableError struct {
	VideoID  string
	Language string // preferred language that was requested
}

func (e *TranscriptUnavailableError) Error() string {
	return fmt.Sprintf("no transcript available for video %s (preferred language %s)", e.VideoID, e.Language)
}

// SummaryGenerationError means the generative backend could not produce a
// summary after retries were exhausted or the request was rejected outright.
// Non-fatal: the record is kept with an empty summary.
type SummaryGenerationError struct {
	VideoID string
	Reason  string
	Err     error
}

func (e *SummaryGenerationError) Error() string {
	return fmt.Sprintf("summary generation failed for video %s: %s", e.VideoID, e.Reason)
}

func (e *SummaryGenerationError) Unwrap() error {
	return e.Err
}

// DownloadTransientError is a retryable download failure (network, timeout).
type DownloadTransientError struct {
	VideoID string
	Reason  string
	Err     error
}

func (e *DownloadTransientError) Error() string {
	return fmt.Sprintf("transient download failure for video %s: %s", e.VideoID, e.Reason)
}

func (e *DownloadTransientError) Unwrap() error {
	return e.Err
}

// DownloadPermanentError is a terminal download failure for one record
// (video removed, private, geo-blocked). Never retried.
type DownloadPermanentError struct {
	VideoID string
	Reason  string
	Err     error
}

func (e *DownloadPermanentError) Error() string {
	return fmt.Sprintf("permanent download failure for video %s: %s", e.VideoID, e.Reason)
}

func (e *DownloadPermanentError) Unwrap() error {
	return e.Err
}

// IsQuotaExceeded reports whether err carries a QuotaExceededError anywhere
// in its chain.
func IsQuotaExceeded(err error) bool {
	var qe *QuotaExceededError
	return errors.As(err, &qe)
}

// IsTranscriptUnavailable reports whether err marks transcript absence.
func IsTranscriptUnavailable(err error) bool {
	var te *TranscriptUnavailableError
	return errors.As(err, &te)
}

// IsPermanentDownload reports whether err is terminal for the record.
func IsPermanentDownload(err error) bool {
	var pe *DownloadPermanentError
	return errors.As(err, &pe)
}
