package notifier

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscordNotifier_Notify(t *testing.T) {
	var payload map[string]string

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, &payload))

		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(ts.Close)

	n := &DiscordNotifier{WebhookURL: ts.URL}

	err := n.Notify(context.Background(), "scrape finished: 12 videos")
	require.NoError(t, err)
	assert.Equal(t, "scrape finished: 12 videos", payload["content"])
}

func TestDiscordNotifier_RejectedWebhook(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	t.Cleanup(ts.Close)

	n := &DiscordNotifier{WebhookURL: ts.URL}

	err := n.Notify(context.Background(), "hello")
	assert.Error(t, err)
}

func TestDiscordNotifier_MissingURL(t *testing.T) {
	n := &DiscordNotifier{}

	err := n.Notify(context.Background(), "hello")
	assert.Error(t, err)
}
