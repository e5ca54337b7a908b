package scrape

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/tubevault/tubevault/internal/catalog"
	"github.com/tubevault/tubevault/internal/logctx"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/youtube/v3"
)

const pageSize = 50 // YouTube Data API maximum for playlistItems.list

// YoutubeClient resolves channels and lists their uploads through the
// YouTube Data API.
type YoutubeClient struct {
	svc *youtube.Service
}

func NewYoutubeClient(svc *youtube.Service) *YoutubeClient {
	return &YoutubeClient{svc: svc}
}

// Resolve maps a channel name or handle to its stable channel ID.
// Transient network failures get a single re-query; API denials and
// unknown channels become ResolutionError for the caller to skip past.
func (c *YoutubeClient) Resolve(ctx context.Context, name string) (string, error) {
	id, err := c.searchChannel(ctx, name)
	if err == nil {
		return id, nil
	}

	if classified := classifyResolveError(name, err); classified != nil {
		return "", classified
	}

	logctx.LoggerFromContext(ctx).Debug("retrying channel search after network error", "channel", name, "err", err)

	id, err = c.searchChannel(ctx, name)
	if err != nil {
		if classified := classifyResolveError(name, err); classified != nil {
			return "", classified
		}

		return "", &catalog.ResolutionError{Channel: name, Reason: "network failure", Err: err}
	}

	return id, nil
}

func classifyResolveError(name string, err error) error {
	if qe := quotaError("channel search", err); qe != nil {
		return qe
	}

	var re *catalog.ResolutionError
	if errors.As(err, &re) {
		return err
	}

	var gerr *googleapi.Error
	if errors.As(err, &gerr) && gerr.Code < 500 {
		return &catalog.ResolutionError{Channel: name, Reason: gerr.Message, Err: err}
	}

	// Server errors and network failures are transient, caller may re-query.
	return nil
}

func (c *YoutubeClient) searchChannel(ctx context.Context, name string) (string, error) {
	resp, err := c.svc.Search.List([]string{"id"}).
		Q(name).
		Type("channel").
		MaxResults(1).
		Context(ctx).
		Do()
	if err != nil {
		return "", err
	}

	if len(resp.Items) == 0 {
		return "", &catalog.ResolutionError{Channel: name, Reason: "channel not found"}
	}

	return resp.Items[0].Id.ChannelId, nil
}

// List walks the channel's uploads playlist newest-first and returns up to
// limit records. Pagination tokens are followed transparently. A
// quota-exceeded signal mid-pagination returns the records collected so far
// together with a QuotaExceededError so the caller can persist them before
// it stops issuing API calls for the rest of the run.
func (c *YoutubeClient) List(ctx context.Context, channelID string, limit int) ([]*catalog.VideoRecord, error) {
	uploads, err := c.uploadsPlaylist(ctx, channelID)
	if err != nil {
		return nil, err
	}

	var records []*catalog.VideoRecord

	token := ""

	for len(records) < limit {
		call := c.svc.PlaylistItems.List([]string{"snippet"}).
			PlaylistId(uploads).
			MaxResults(pageSize).
			Context(ctx)
		if token != "" {
			call = call.PageToken(token)
		}

		resp, err := call.Do()
		if err != nil {
			if qe := quotaError("playlist items", err); qe != nil {
				sortByPublishDate(records)

				return records, qe
			}

			return nil, fmt.Errorf("failed to list playlist items: %w", err)
		}

		for _, item := range resp.Items {
			if len(records) >= limit {
				break
			}

			publishedAt, err := time.Parse(time.RFC3339, item.Snippet.PublishedAt)
			if err != nil {
				logctx.LoggerFromContext(ctx).Warn("skipping item with bad publish date",
					"video_id", item.Snippet.ResourceId.VideoId, "published_at", item.Snippet.PublishedAt)

				continue
			}

			records = append(records, &catalog.VideoRecord{
				VideoID:     item.Snippet.ResourceId.VideoId,
				ChannelID:   channelID,
				Title:       item.Snippet.Title,
				PublishedAt: publishedAt,
				Status:      catalog.StatusPending,
			})
		}

		token = resp.NextPageToken
		if token == "" {
			break
		}
	}

	sortByPublishDate(records)

	return records, nil
}

// The uploads playlist is newest-first already, but that is observed API
// behavior, not a documented guarantee.
func sortByPublishDate(records []*catalog.VideoRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].PublishedAt.After(records[j].PublishedAt)
	})
}

func (c *YoutubeClient) uploadsPlaylist(ctx context.Context, channelID string) (string, error) {
	resp, err := c.svc.Channels.List([]string{"contentDetails"}).
		Id(channelID).
		Context(ctx).
		Do()
	if err != nil {
		if qe := quotaError("channel lookup", err); qe != nil {
			return "", qe
		}

		return "", fmt.Errorf("failed to look up channel %s: %w", channelID, err)
	}

	if len(resp.Items) == 0 {
		return "", &catalog.ResolutionError{Channel: channelID, Reason: "channel has no uploads playlist"}
	}

	return resp.Items[0].ContentDetails.RelatedPlaylists.Uploads, nil
}

// quotaError returns a QuotaExceededError when the API signals that the
// quota window is spent, nil otherwise.
func quotaError(operation string, err error) error {
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return nil
	}

	for _, item := range gerr.Errors {
		switch item.Reason {
		case "quotaExceeded", "dailyLimitExceeded", "rateLimitExceeded":
			return &catalog.QuotaExceededError{Operation: operation, Err: err}
		}
	}

	return nil
}
