package scrape

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
	"github.com/tubevault/tubevault/internal/catalog"
	"github.com/tubevault/tubevault/internal/retry"
)

// chatCompleter is the slice of the OpenAI client the summarizer needs.
type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAISummarizer turns a transcript into a summary with a generative
// backend. Best-effort: rate limits are retried under the policy, rejected
// or quota-exhausted requests surface as SummaryGenerationError and the
// record is kept without a summary.
type OpenAISummarizer struct {
	client chatCompleter
	model  string
	prompt string // template file content, sent verbatim as the system message
	policy retry.Policy
}

func NewOpenAISummarizer(client chatCompleter, model, prompt string, policy retry.Policy) *OpenAISummarizer {
	return &OpenAISummarizer{
		client: client,
		model:  model,
		prompt: prompt,
		policy: policy,
	}
}

func (s *OpenAISummarizer) Summarize(ctx context.Context, videoID, transcript string) (string, error) {
	summary, err := retry.Do(ctx, s.policy, func() (string, error) {
		resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model: s.model,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: s.prompt},
				{Role: openai.ChatMessageRoleUser, Content: transcript},
			},
		})
		if err != nil {
			if transientAIError(err) {
				return "", err
			}

			return "", retry.Permanent(err)
		}

		if len(resp.Choices) == 0 {
			return "", retry.Permanent(fmt.Errorf("empty response"))
		}

		return resp.Choices[len(resp.Choices)-1].Message.Content, nil
	})
	if err != nil {
		return "", &catalog.SummaryGenerationError{VideoID: videoID, Reason: "backend request failed", Err: err}
	}

	return summary, nil
}

// transientAIError reports whether the backend failure is worth retrying.
// Rate limits and server errors are; content rejections and exhausted
// billing quota are not.
func transientAIError(err error) bool {
	var apiErr *openai.APIError
	if !errors.As(err, &apiErr) {
		return true // network-level failure
	}

	if apiErr.HTTPStatusCode == 429 {
		return fmt.Sprint(apiErr.Code) != "insufficient_quota"
	}

	return apiErr.HTTPStatusCode >= 500
}
