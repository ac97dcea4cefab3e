package ollama

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/JexSrs/go-ollama"
	"github.com/sirupsen/logrus"

	"github.com/bryanwahyu/medscan/internal/infra/ai/prompt"
)

// Client answers questions with a local Ollama model.
type Client struct {
	client *ollama.Ollama
	model  string
}

func NewClient(host, model string) (*Client, error) {
	u, err := url.Parse(host)
	if err != nil {
		return nil, fmt.Errorf("invalid ollama url: %w", err)
	}
	logrus.WithFields(logrus.Fields{"host": host, "model": model}).Info("using ollama assistant")
	return &Client{client: ollama.New(*u), model: model}, nil
}

type reply struct {
	text string
	err  error
}

// Ask implements ai.Client. The Ollama SDK takes no context, so the call is
// abandoned (not aborted) when ctx ends.
func (c *Client) Ask(ctx context.Context, question string) (string, error) {
	done := make(chan reply, 1)
	go func() {
		text, err := c.generate(question)
		done <- reply{text, err}
	}()

	select {
	case r := <-done:
		return r.text, r.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (c *Client) generate(question string) (string, error) {
	res, err := c.client.Generate(
		c.client.Generate.WithModel(c.model),
		c.client.Generate.WithSystem(prompt.GetSystemPrompt()),
		c.client.Generate.WithPrompt(prompt.GetUserPrompt(question)),
	)
	if err != nil {
		return "", fmt.Errorf("ollama generate: %w", err)
	}
	if !res.Done {
		return "", errors.New("ollama response not finished")
	}
	answer := prompt.CleanReply(res.Response)
	if answer == "" {
		return "", errors.New("ollama returned an empty response")
	}
	return answer, nil
}
