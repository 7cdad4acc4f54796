package llm

import "context"

// Client sends one system+user exchange and returns the raw reply text.
type Client interface {
	Complete(ctx context.Context, system, user string) (string, error)
	Model() string
}
