package openai

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/bryanwahyu/medscan/internal/domain/ai"
	"github.com/bryanwahyu/medscan/internal/infra/ai/prompt"
)

const (
	maxTokens    = 512
	defaultModel = "gpt-4o-mini"
)

type Client struct {
	*openai.Client
	Model string
}

func NewClient(apiKey, model string) *Client {
	return &Client{Client: openai.NewClient(apiKey), Model: model}
}

// NewClientWithBaseURL targets an OpenAI-compatible endpoint (Azure proxy, vLLM, tests).
func NewClientWithBaseURL(apiKey, baseURL, model string) *Client {
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = baseURL
	return &Client{Client: openai.NewClientWithConfig(cfg), Model: model}
}

// reasoningPrefixes name models that only accept max_completion_tokens.
var reasoningPrefixes = []string{"o1", "o3", "o4", "gpt-5"}

func capTokens(req *openai.ChatCompletionRequest) {
	for _, p := range reasoningPrefixes {
		if strings.HasPrefix(req.Model, p) {
			req.MaxCompletionTokens = maxTokens
			return
		}
	}
	req.MaxTokens = maxTokens
}

// Ask sends one system+user exchange and returns the cleaned reply. A 429
// from the provider is reported as ai.ErrQuotaExceeded.
func (c *Client) Ask(ctx context.Context, question string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: cmp.Or(c.Model, defaultModel),
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: prompt.GetSystemPrompt()},
			{Role: openai.ChatMessageRoleUser, Content: prompt.GetUserPrompt(question)},
		},
	}
	capTokens(&req)

	resp, err := c.CreateChatCompletion(ctx, req)
	var apiErr *openai.APIError
	switch {
	case errors.As(err, &apiErr) && apiErr.HTTPStatusCode == http.StatusTooManyRequests:
		return "", fmt.Errorf("%w: %s", ai.ErrQuotaExceeded, apiErr.Message)
	case err != nil:
		return "", fmt.Errorf("chat completion (%s): %w", req.Model, err)
	case len(resp.Choices) == 0:
		return "", errors.New("chat completion returned no choices")
	}
	return prompt.CleanReply(resp.Choices[0].Message.Content), nil
}
