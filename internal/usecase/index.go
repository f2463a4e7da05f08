package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"hrassist/internal/adapter/store"
	"hrassist/internal/domain"
	"hrassist/internal/port"
)

// IndexUseCase builds the chunk+vector index or loads a previously persisted
// one. A valid index on disk is authoritative: documents are not re-read and
// nothing is re-embedded unless verifyCorpus detects a changed document set.
type IndexUseCase struct {
	source       port.DocumentSource
	chunker      port.Chunker
	embedder     port.Embedder
	indexPath    string
	batchSize    int
	verifyCorpus bool
}

func NewIndexUseCase(
	source port.DocumentSource,
	chunker port.Chunker,
	embedder port.Embedder,
	indexPath string,
	batchSize int,
	verifyCorpus bool,
) *IndexUseCase {
	if batchSize <= 0 {
		batchSize = 100
	}
	return &IndexUseCase{
		source:       source,
		chunker:      chunker,
		embedder:     embedder,
		indexPath:    indexPath,
		batchSize:    batchSize,
		verifyCorpus: verifyCorpus,
	}
}

// BuildResult describes what BuildOrLoad did.
type BuildResult struct {
	Rebuilt bool
	Docs    int
	Chunks  int
	Stats   domain.Stats
}

// BuildOrLoad returns a ready-to-search index. The progress callback, if
// non-nil, is invoked with (embedded, total) chunk counts during a build.
func (u *IndexUseCase) BuildOrLoad(ctx context.Context, progress func(done, total int)) (*store.BoltIndex, *BuildResult, error) {
	if store.Exists(u.indexPath) {
		idx, err := store.Open(u.indexPath, u.embedder.ModelName(), u.embedder.Dimension())
		switch {
		case err == nil:
			if u.verifyCorpus {
				return u.verifyOrRebuild(ctx, idx, progress)
			}
			stats := idx.Stats()
			return idx, &BuildResult{
				Rebuilt: false,
				Docs:    stats.TotalDocs,
				Chunks:  idx.Count(),
				Stats:   stats,
			}, nil
		case errors.Is(err, store.ErrModelMismatch):
			// Silently rebuilding would mask a configuration change, so
			// surface it and let the operator delete the index explicitly.
			return nil, nil, err
		case errors.Is(err, store.ErrCorrupt), errors.Is(err, store.ErrIncomplete):
			if err := store.Delete(u.indexPath); err != nil {
				return nil, nil, fmt.Errorf("failed to remove unusable index: %w", err)
			}
		default:
			return nil, nil, err
		}
	}

	return u.build(ctx, progress)
}

func (u *IndexUseCase) verifyOrRebuild(ctx context.Context, idx *store.BoltIndex, progress func(done, total int)) (*store.BoltIndex, *BuildResult, error) {
	docs, err := u.source.Load()
	if err != nil {
		idx.Close()
		return nil, nil, fmt.Errorf("failed to load documents: %w", err)
	}

	if corpusHash(docs) == idx.CorpusHash() {
		stats := idx.Stats()
		return idx, &BuildResult{
			Rebuilt: false,
			Docs:    stats.TotalDocs,
			Chunks:  idx.Count(),
			Stats:   stats,
		}, nil
	}

	idx.Close()
	if err := store.Delete(u.indexPath); err != nil {
		return nil, nil, fmt.Errorf("failed to remove stale index: %w", err)
	}
	return u.buildFrom(ctx, docs, progress)
}

func (u *IndexUseCase) build(ctx context.Context, progress func(done, total int)) (*store.BoltIndex, *BuildResult, error) {
	docs, err := u.source.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load documents: %w", err)
	}
	return u.buildFrom(ctx, docs, progress)
}

func (u *IndexUseCase) buildFrom(ctx context.Context, docs []domain.Document, progress func(done, total int)) (*store.BoltIndex, *BuildResult, error) {
	var chunks []domain.Chunk
	for _, doc := range docs {
		docChunks, err := u.chunker.Chunk(doc)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to chunk %s: %w", doc.Name, err)
		}
		chunks = append(chunks, docChunks...)
	}

	vectors := make([][]float32, 0, len(chunks))
	for i := 0; i < len(chunks); i += u.batchSize {
		end := i + u.batchSize
		if end > len(chunks) {
			end = len(chunks)
		}

		texts := make([]string, 0, end-i)
		for _, chunk := range chunks[i:end] {
			texts = append(texts, chunk.Text)
		}

		batch, err := u.embedder.Embed(ctx, texts)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to embed chunks: %w", err)
		}
		vectors = append(vectors, batch...)

		if progress != nil {
			progress(end, len(chunks))
		}
	}

	idx, err := store.Write(u.indexPath, u.embedder.ModelName(), u.embedder.Dimension(), corpusHash(docs), chunks, vectors)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to persist index: %w", err)
	}

	return idx, &BuildResult{
		Rebuilt: true,
		Docs:    len(docs),
		Chunks:  len(chunks),
		Stats:   idx.Stats(),
	}, nil
}

// corpusHash fingerprints the document set. Documents arrive sorted by name,
// so the hash is stable across runs.
func corpusHash(docs []domain.Document) string {
	h := sha256.New()
	for _, doc := range docs {
		h.Write([]byte(doc.Name))
		h.Write([]byte{0})
		h.Write([]byte(doc.Text))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}
