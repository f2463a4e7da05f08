package retriever

import (
	"context"
	"fmt"

	"hrassist/internal/adapter/store"
	"hrassist/internal/domain"
	"hrassist/internal/port"
)

// Semantic embeds the question with the same embedder the index was built
// with and ranks chunks by cosine similarity.
type Semantic struct {
	embedder port.Embedder
	index    *store.BoltIndex
}

func NewSemantic(embedder port.Embedder, index *store.BoltIndex) *Semantic {
	return &Semantic{
		embedder: embedder,
		index:    index,
	}
}

func (r *Semantic) Search(ctx context.Context, question string, k int) ([]domain.ScoredChunk, error) {
	embeddings, err := r.embedder.Embed(ctx, []string{question})
	if err != nil {
		return nil, fmt.Errorf("failed to embed question: %w", err)
	}
	if len(embeddings) == 0 {
		return nil, fmt.Errorf("embedding returned empty result")
	}

	results, err := r.index.Search(embeddings[0], k)
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}

	return results, nil
}
