package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/noeta/NAR/cmd/nar/commands"
	"github.com/noeta/NAR/logger"
)

var rootCmd = &cobra.Command{
	Use:   "nar",
	Short: "NAR - Non-axiomatic reasoner",
	Long: `NAR - A bounded-rational inference engine over Narsese statements.

NAR parses Narsese judgments, questions, and goals, derives new statements
through a fixed inference-rule catalogue, and manages a finite concept
memory under insufficient knowledge and resources.

Examples:
  nar run facts.nal              # Feed statements, run cycles, print beliefs
  nar run facts.nal --cycles 50  # Run a fixed number of cycles
  nar run facts.nal --db nar.db  # Persist the belief snapshot
  nar version                    # Show build information`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		verbosity, _ := cmd.Flags().GetCount("verbose")
		level := logger.VerbosityToLevel(verbosity)
		if err := logger.InitializeWithLevel(false, level); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().CountP("verbose", "v",
		"Increase output verbosity (repeat for more detail: -v, -vv)")

	rootCmd.AddCommand(commands.RunCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	defer logger.Cleanup()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
