package main

import (
	"fmt"
	"strings"

	"github.com/scottbrown/hubspot-contact-dedup/hubspotdedup"
	"github.com/spf13/cobra"
)

var (
	dedupContactID      string
	dedupOutput         string
	dedupReport         string
	dedupIncludeDetails bool
)

var dedupCmd = &cobra.Command{
	Use:   "dedup",
	Short: "Merge duplicates of a contact into it",
	Long: `Fetch a contact, search for other contacts with the same first and last
name whose phone number (raw and normalized forms) or job title matches, and
merge every match into the given contact.

Prints the workflow output fields as JSON.`,
	RunE: runDedup,
}

func init() {
	dedupCmd.Flags().StringVarP(&dedupContactID, "contact-id", "c", "", "ID of the triggering contact (required)")
	dedupCmd.Flags().StringVarP(&dedupOutput, "output", "o", "", "Output file path for the result JSON (default: stdout)")
	dedupCmd.Flags().StringVar(&dedupReport, "report", "", "Path for a markdown report (use '-' for stdout)")
	dedupCmd.Flags().BoolVar(&dedupIncludeDetails, "include-details", false, "Include merge failure details in report")
}

func runDedup(cmd *cobra.Command, args []string) error {
	if dedupContactID == "" {
		return fmt.Errorf("--contact-id is required")
	}
	contactID := hubspotdedup.ContactID(strings.TrimSpace(dedupContactID))
	if !contactID.IsValid() {
		return fmt.Errorf("invalid contact id: %s", contactID)
	}
	if (dedupOutput == "" || dedupOutput == "-") && dedupReport == "-" {
		return fmt.Errorf("cannot write both JSON and report to stdout; specify --output <file> or --report <file>")
	}

	ctx := cmd.Context()
	client, err := newClient(ctx)
	if err != nil {
		return err
	}

	dedup := hubspotdedup.NewDeduplicator(client)
	dedup.Policy = retryPolicy()
	dedup.Logger = logger.Sugar().Debugf

	fmt.Fprintf(cmd.ErrOrStderr(), "Deduplicating contact %s...\n", contactID)
	result := dedup.Run(ctx, contactID)

	if result.MergeFailures.Len() > 0 {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %d merge(s) failed:\n", result.MergeFailures.Len())
		for _, me := range result.MergeFailures.Errors {
			fmt.Fprintf(cmd.ErrOrStderr(), "  [%s] %v\n", me.ContactID, me.Err)
		}
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Merged %d contact(s)\n", len(result.Merged))

	data, err := result.ToJSON()
	if err != nil {
		return fmt.Errorf("failed to serialize JSON: %w", err)
	}
	if err := writeOutput(cmd, data, dedupOutput); err != nil {
		return err
	}

	if dedupReport != "" {
		rg := hubspotdedup.NewDedupReport(result)
		rg.IncludeDetails = dedupIncludeDetails
		if err := writeReport(cmd, rg, dedupReport); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
	}

	if result.ExecutionState == hubspotdedup.StateError {
		return fmt.Errorf("dedup failed: %s", result.Error)
	}
	return nil
}
