package catalog

import "testing"

func TestVideoRecord_Retryable(t *testing.T) {
	tests := []struct {
		name     string
		status   DownloadStatus
		attempts int
		want     bool
	}{
		{"pending", StatusPending, 0, true},
		{"in progress", StatusInProgress, 0, false},
		{"success", StatusSuccess, 1, false},
		{"failed below ceiling", StatusFailed, 2, true},
		{"failed at ceiling", StatusFailed, 5, false},
		{"failed above ceiling", StatusFailed, 7, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &VideoRecord{Status: tt.status, AttemptCount: tt.attempts}
			if got := rec.Retryable(5); got != tt.want {
				t.Errorf("Retryable(5) = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestVideoRecord_WatchURL(t *testing.T) {
	rec := &VideoRecord{VideoID: "dQw4w9WgXcQ"}

	want := "https://www.youtube.com/watch?v=dQw4w9WgXcQ"
	if got := rec.WatchURL(); got != want {
		t.Errorf("WatchURL() = %q, want %q", got, want)
	}
}

func TestVideoRecord_HasTranscript(t *testing.T) {
	if (&VideoRecord{}).HasTranscript() {
		t.Error("empty transcript should read as absent")
	}

	if !(&VideoRecord{Transcript: "hello"}).HasTranscript() {
		t.Error("non-empty transcript should read as present")
	}
}
