package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"hrassist/internal/httpapi"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the assistant over HTTP",
	Long: `Start an HTTP server exposing the assistant. Builds or loads the index at
startup, then answers POST /ask requests with a JSON body:

  {"question": "How many vacation days do I have?"}

GET /healthz reports liveness.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	logger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Sync()

	embedder, err := newEmbedder(cfg)
	if err != nil {
		return fmt.Errorf("failed to create embedder: %w", err)
	}

	idx, result, err := openIndex(cmd.Context(), cfg, embedder, true)
	if err != nil {
		return fmt.Errorf("failed to prepare index: %w", err)
	}
	defer idx.Close()

	logger.Info("index ready",
		zap.Bool("rebuilt", result.Rebuilt),
		zap.Int("docs", result.Docs),
		zap.Int("chunks", result.Chunks),
		zap.String("model", embedder.ModelName()),
	)

	asker, err := newAsker(cfg, embedder, idx)
	if err != nil {
		return fmt.Errorf("failed to create answer pipeline: %w", err)
	}

	addr := serveAddr
	if addr == "" {
		addr = cfg.Server.Addr
	}

	server := httpapi.NewServer(asker, logger)
	return server.Listen(addr)
}
