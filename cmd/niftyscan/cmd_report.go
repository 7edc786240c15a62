package main

import (
	"os"

	"github.com/spf13/cobra"

	"niftyscan/internal/scanner"
)

// reportCmd re-renders a previously saved results file.
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Re-render the last saved momentum report",
	Long: `Load the results file written by a previous 'niftyscan monitor' run
and print the ranked shift tables again.

Example usage:
  niftyscan report
  niftyscan report --file momentum_analysis_results.json`,
	RunE: runReport,
}

var reportFile string

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.Flags().StringVar(&reportFile, "file", "", "Results file to render (default from config)")
}

func runReport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	path := reportFile
	if path == "" {
		path = cfg.Paths.ResultsJSON
	}

	report, err := scanner.LoadReport(path)
	if err != nil {
		return err
	}

	scanner.PrintReport(os.Stdout, report)
	return nil
}
