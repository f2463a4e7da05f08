package port

import "context"

// ChatModel represents a language model for answer generation. The model
// identifier is passed per call because candidates are tried in fallback
// order.
type ChatModel interface {
	Complete(ctx context.Context, model, systemPrompt, userPrompt string) (string, error)
}
