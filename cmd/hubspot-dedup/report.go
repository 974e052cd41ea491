package main

import (
	"fmt"
	"os"

	"github.com/scottbrown/hubspot-contact-dedup/hubspotdedup"
	"github.com/spf13/cobra"
)

var (
	reportInput          string
	reportListID         string
	reportOutput         string
	reportIncludeDetails bool
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Render a saved list result as markdown",
	Long: `Render the JSON written by "list --format json" as a markdown contact table,
without calling HubSpot again.`,
	RunE: runReport,
}

func init() {
	reportCmd.Flags().StringVarP(&reportInput, "input", "i", "", "Input list result JSON file (required)")
	reportCmd.Flags().StringVarP(&reportListID, "list-id", "l", "", "List ID shown in the report heading")
	reportCmd.Flags().StringVarP(&reportOutput, "output", "o", "", "Output file path (default: stdout)")
	reportCmd.Flags().BoolVar(&reportIncludeDetails, "include-details", false, "Include every property in the report")

	_ = reportCmd.MarkFlagRequired("input")
}

func runReport(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(reportInput)
	if err != nil {
		return fmt.Errorf("failed to read input file: %w", err)
	}

	result, err := hubspotdedup.LoadListResultFromJSON(data)
	if err != nil {
		return fmt.Errorf("failed to parse list JSON: %w", err)
	}

	rg := hubspotdedup.NewListReport(hubspotdedup.ListID(reportListID), result)
	rg.IncludeDetails = reportIncludeDetails

	out := reportOutput
	if out == "" {
		out = "-"
	}
	return writeReport(cmd, rg, out)
}
