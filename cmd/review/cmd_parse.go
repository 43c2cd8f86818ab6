package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"clausewise.app/review/internal/parser"
)

var parseFlags struct {
	jsonOut bool
}

var parseCmd = &cobra.Command{
	Use:   "parse <file>",
	Short: "Parse a saved model reply into findings",
	Long:  "Parse runs only the reply parser, which is useful for replaying raw\nreplies captured in logs.",
	Args:  cobra.ExactArgs(1),
	RunE:  runParse,
}

func init() {
	parseCmd.Flags().BoolVar(&parseFlags.jsonOut, "json", false, "Print findings as JSON")
}

func runParse(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read reply: %w", err)
	}

	report := parser.Analyze(string(data))
	out := cmd.OutOrStdout()
	if parseFlags.jsonOut {
		return writeJSON(out, report.Findings)
	}

	fmt.Fprintf(out, "strategy: %s\n", report.Strategy)
	if report.Failure != "" {
		fmt.Fprintf(out, "failure:  %s\n", report.Failure)
	}
	fmt.Fprintln(out)
	writeFindings(out, report.Findings)
	return nil
}
