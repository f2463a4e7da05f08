package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question about the policy documents",
	Long: `Answer a question from the indexed policy documents. Builds the index first
if none is persisted yet.

Examples:
  hrassist ask "How many vacation days do I have?"
  hrassist ask "How do I set up the VPN?"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	question := strings.Join(args, " ")

	embedder, err := newEmbedder(cfg)
	if err != nil {
		return fmt.Errorf("failed to create embedder: %w", err)
	}

	idx, _, err := openIndex(cmd.Context(), cfg, embedder, true)
	if err != nil {
		return fmt.Errorf("failed to prepare index: %w", err)
	}
	defer idx.Close()

	asker, err := newAsker(cfg, embedder, idx)
	if err != nil {
		return fmt.Errorf("failed to create answer pipeline: %w", err)
	}

	answer := asker.Ask(cmd.Context(), question)

	fmt.Println(answer.Text)
	if !answer.Fallback {
		fmt.Printf("\n(model: %s, sources: %s)\n", answer.Model, strings.Join(answer.Sources, ", "))
	}
	return nil
}
