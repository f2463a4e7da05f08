package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Build or load the policy document index",
	Long: `Build the embedding index from the configured documents directory, or load
the persisted index if one already exists. An existing index is reused as-is;
delete the index file to force a rebuild after changing documents.

Examples:
  hrassist index                 # Build or load the index
  hrassist index -d /path/to/hr  # Index documents under another root`,
	Args: cobra.NoArgs,
	RunE: runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	embedder, err := newEmbedder(cfg)
	if err != nil {
		return fmt.Errorf("failed to create embedder: %w", err)
	}

	fmt.Printf("Scanning %s...\n", resolvePath(cfg.Docs.Dir))

	idx, result, err := openIndex(cmd.Context(), cfg, embedder, true)
	if err != nil {
		return fmt.Errorf("indexing failed: %w", err)
	}
	defer idx.Close()

	if result.Rebuilt {
		fmt.Printf("\nIndex built:\n")
	} else {
		fmt.Printf("\nIndex loaded:\n")
	}
	fmt.Printf("  Documents: %d\n", result.Docs)
	fmt.Printf("  Chunks:    %d\n", result.Chunks)
	if result.Stats.AvgChunkLen > 0 {
		fmt.Printf("  Avg chunk: %.0f chars\n", result.Stats.AvgChunkLen)
	}
	fmt.Printf("  Model:     %s\n", embedder.ModelName())

	fmt.Printf("\nIndex stored at: %s\n", resolvePath(cfg.Index.Path))
	return nil
}
