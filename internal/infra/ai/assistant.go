package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/bryanwahyu/medscan/internal/config"
	domainai "github.com/bryanwahyu/medscan/internal/domain/ai"
	"github.com/bryanwahyu/medscan/internal/infra/ai/ollama"
	"github.com/bryanwahyu/medscan/internal/infra/ai/openai"
)

// New builds the assistant named by cfg.Provider. Provider "none" returns a
// nil client: general questions then get the rule engine's fallback.
func New(cfg config.AssistantConfig) (domainai.Client, error) {
	var c domainai.Client
	switch cfg.Provider {
	case "", "none":
		return nil, nil
	case "openai":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("assistant: openai requires apiKey")
		}
		if cfg.BaseURL != "" {
			c = openai.NewClientWithBaseURL(cfg.APIKey, cfg.BaseURL, cfg.Model)
		} else {
			c = openai.NewClient(cfg.APIKey, cfg.Model)
		}
	case "ollama":
		model := cfg.Model
		if model == "" {
			model = "llama3"
		}
		oc, err := ollama.NewClient(cfg.Host, model)
		if err != nil {
			return nil, err
		}
		c = oc
	default:
		return nil, fmt.Errorf("assistant: unknown provider %q", cfg.Provider)
	}
	return WithTimeout(c, cfg.Timeout), nil
}

type timeoutClient struct {
	next    domainai.Client
	timeout time.Duration
}

// WithTimeout bounds every Ask call; d <= 0 returns c unchanged.
func WithTimeout(c domainai.Client, d time.Duration) domainai.Client {
	if d <= 0 {
		return c
	}
	return &timeoutClient{next: c, timeout: d}
}

func (t *timeoutClient) Ask(ctx context.Context, question string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.next.Ask(ctx, question)
}
