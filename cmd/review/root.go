// review runs the contract review pipeline against local files.
//
// Usage:
//
//	review analyze <file> [--email <addr>] [--draft] [--create-task] [--json]
//	review parse <file> [--json]
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags.
var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "review",
	Short: "Flag risky clauses in a contract",
	Long:  "Review sends a plain-text contract to the configured language model,\nlists risky clauses with suggestions, and can draft a renegotiation email\nand open a follow-up task.",
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(parseCmd)
	rootCmd.Version = version
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
