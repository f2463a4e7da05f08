package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"hrassist/config"
)

var (
	cfgFile string
	cfg     *config.Config
	rootDir string
)

var rootCmd = &cobra.Command{
	Use:   "hrassist",
	Short: "HR policy assistant - answer employee questions from policy documents",
	Long: `hrassist indexes a directory of HR and IT policy documents, retrieves the
passages most relevant to a question, and generates a grounded answer with an
OpenAI-compatible model. Questions the documents cannot answer get a fixed
HR-contact response instead of a guess.

Example usage:
  hrassist index                              # Build or load the policy index
  hrassist ask "How many vacation days do I have?"
  hrassist serve                              # Expose POST /ask over HTTP`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error

		if rootDir == "" {
			rootDir, err = os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to get working directory: %w", err)
			}
		}

		if cfgFile != "" {
			cfg, err = config.Load(cfgFile)
		} else {
			cfg, err = config.LoadFromDir(rootDir)
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./hrassist.yaml)")
	rootCmd.PersistentFlags().StringVarP(&rootDir, "dir", "d", "", "root directory (default is current directory)")
}

func GetConfig() *config.Config {
	return cfg
}

func GetRootDir() string {
	return rootDir
}
