package ai

import "context"

// Client answers a general medical-imaging question in free text.
type Client interface {
	Ask(ctx context.Context, question string) (string, error)
}
