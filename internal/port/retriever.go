package port

import (
	"context"

	"hrassist/internal/domain"
)

// Retriever embeds a question and returns the top-k most similar chunks,
// ordered by descending similarity.
type Retriever interface {
	Search(ctx context.Context, question string, k int) ([]domain.ScoredChunk, error)
}
