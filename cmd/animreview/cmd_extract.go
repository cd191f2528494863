package main

import (
	"fmt"

	"animreview/internal/report"
	"animreview/internal/script"
	"animreview/internal/source"

	"github.com/spf13/cobra"
)

// extractCmd dumps the fields pulled out of one script
var extractCmd = &cobra.Command{
	Use:   "extract <file>",
	Short: "Print the extracted fields of a script as JSON",
	Long: `Runs extraction only: id, timings, color arrays, function bodies and synth
references. Useful when a submission scores lower than expected.`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func runExtract(cmd *cobra.Command, args []string) error {
	c := activeConfig()

	doc := source.Read(args[0])
	if doc.Failed() {
		return fmt.Errorf("failed to read script: %w", doc.Err)
	}

	fields := script.NewExtractor(c.Vocabulary, logger).Extract(doc.Text)
	return report.WriteJSON(cmd.OutOrStdout(), fields)
}
