package ai

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bryanwahyu/medscan/internal/config"
	"github.com/bryanwahyu/medscan/internal/infra/ai/openai"
)

func TestNew(t *testing.T) {
	c, err := New(config.AssistantConfig{Provider: "none"})
	if err != nil || c != nil {
		t.Errorf("none: got (%v, %v), want (nil, nil)", c, err)
	}

	if _, err := New(config.AssistantConfig{Provider: "openai"}); err == nil {
		t.Error("openai without key: want error")
	}
	if _, err := New(config.AssistantConfig{Provider: "bard"}); err == nil {
		t.Error("unknown provider: want error")
	}

	c, err = New(config.AssistantConfig{Provider: "openai", APIKey: "k", BaseURL: "http://localhost:1/v1"})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := c.(*openai.Client); !ok {
		t.Errorf("no timeout: got %T, want *openai.Client", c)
	}

	c, err = New(config.AssistantConfig{Provider: "ollama", Host: "http://localhost:11434", Timeout: time.Second})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := c.(*timeoutClient); !ok {
		t.Errorf("with timeout: got %T, want *timeoutClient", c)
	}
}

type blockingClient struct{}

func (blockingClient) Ask(ctx context.Context, _ string) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func TestWithTimeout(t *testing.T) {
	c := WithTimeout(blockingClient{}, 10*time.Millisecond)
	_, err := c.Ask(context.Background(), "q")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v, want deadline exceeded", err)
	}
}
