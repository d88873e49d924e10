package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/insightdelivered/card-statement-categorizer/internal/buildinfo"
)

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "statement-categorizer",
		Short: "Credit card statement PDF parser and categorizer",
		Long: `Extracts transactions from Chase, Apple Card, Capital One and
American Express statement PDFs and categorizes them.`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", buildinfo.Version, buildinfo.Commit, buildinfo.Date),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file")

	rootCmd.AddCommand(newServeCommand(&configPath))
	rootCmd.AddCommand(newParseCommand(&configPath))

	return rootCmd
}
