package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/typebridge/typebridge/cmd/typebridge/commands"
	"github.com/typebridge/typebridge/logger"
)

var rootCmd = &cobra.Command{
	Use:   "typebridge",
	Short: "typebridge - cross-language type generation from an IR snapshot",
	Long: `typebridge - generate TypeScript, Swift, Go, and Java type declarations.

typebridge consumes a language-agnostic IR snapshot produced by a source
front end and emits equivalent type declarations plus serialization glue
for each configured target language.

Available commands:
  generate - Run one generation pass over a snapshot
  watch    - Regenerate whenever the snapshot file changes
  version  - Print the typebridge version

Examples:
  typebridge generate -s types.json -o web/types/
  typebridge generate -s types.json -c typebridge.toml -l swift
  typebridge watch -s types.json -o web/types/`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		jsonLogs, _ := cmd.Flags().GetBool("log-json")
		if err := logger.Initialize(jsonLogs); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().Bool("log-json", false, "Emit structured JSON logs instead of console output")

	rootCmd.AddCommand(commands.GenerateCmd)
	rootCmd.AddCommand(commands.WatchCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	defer logger.Cleanup()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
