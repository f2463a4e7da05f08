package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/schollz/progressbar/v3"

	"hrassist/config"
	"hrassist/internal/adapter/chunker"
	"hrassist/internal/adapter/embedding"
	"hrassist/internal/adapter/fs"
	"hrassist/internal/adapter/llm"
	"hrassist/internal/adapter/retriever"
	"hrassist/internal/adapter/store"
	"hrassist/internal/port"
	"hrassist/internal/usecase"
)

func resolvePath(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(GetRootDir(), path)
}

func newEmbedder(cfg *config.Config) (port.Embedder, error) {
	switch cfg.Embedding.Provider {
	case "openai":
		return embedding.NewOpenAIEmbedder(
			cfg.Embedding.APIKeyEnv,
			cfg.Embedding.Model,
			cfg.Embedding.BaseURL,
			cfg.Embedding.Dimension,
			cfg.Embedding.BatchSize,
			cfg.Embedding.TimeoutSecs,
		)
	case "mock":
		dimension := cfg.Embedding.Dimension
		if dimension <= 0 {
			dimension = 64
		}
		return embedding.NewMockEmbedder(dimension), nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.Embedding.Provider)
	}
}

// openIndex builds the index if needed or loads the persisted one. With
// showProgress a progress bar tracks embedding during a build.
func openIndex(ctx context.Context, cfg *config.Config, embedder port.Embedder, showProgress bool) (*store.BoltIndex, *usecase.BuildResult, error) {
	indexPath := resolvePath(cfg.Index.Path)
	if err := config.EnsureIndexDir(indexPath); err != nil {
		return nil, nil, fmt.Errorf("failed to create index directory: %w", err)
	}

	chk, err := chunker.NewWindowChunker(cfg.Chunking.Size, cfg.Chunking.Overlap)
	if err != nil {
		return nil, nil, err
	}

	loader := fs.NewLoader(resolvePath(cfg.Docs.Dir), cfg.Docs.Includes, cfg.Docs.Excludes)

	indexUC := usecase.NewIndexUseCase(
		loader,
		chk,
		embedder,
		indexPath,
		cfg.Embedding.BatchSize,
		cfg.Index.VerifyCorpus,
	)

	var progress func(done, total int)
	if showProgress {
		var bar *progressbar.ProgressBar
		progress = func(done, total int) {
			if bar == nil {
				bar = progressbar.NewOptions(total,
					progressbar.OptionEnableColorCodes(true),
					progressbar.OptionShowBytes(false),
					progressbar.OptionSetWidth(40),
					progressbar.OptionShowCount(),
					progressbar.OptionSetDescription("[cyan]Embedding[reset]"),
					progressbar.OptionOnCompletion(func() {
						fmt.Println()
					}),
				)
			}
			bar.Set(done)
		}
	}

	return indexUC.BuildOrLoad(ctx, progress)
}

func newAsker(cfg *config.Config, embedder port.Embedder, idx *store.BoltIndex) (*usecase.AskUseCase, error) {
	chat, err := llm.NewOpenAIChat(
		cfg.Chat.APIKeyEnv,
		cfg.Chat.BaseURL,
		cfg.Chat.Temperature,
		cfg.Chat.TimeoutSecs,
	)
	if err != nil {
		return nil, err
	}

	return usecase.NewAskUseCase(
		retriever.NewSemantic(embedder, idx),
		chat,
		cfg.Chat.Candidates,
		cfg.Retrieve.TopK,
		cfg.Retrieve.Threshold,
	), nil
}
