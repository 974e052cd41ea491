package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var scopesCmd = &cobra.Command{
	Use:   "scopes",
	Short: "Print required HubSpot private app scopes",
	Long:  `Display the HubSpot private app scopes the access token needs for the dedup and list actions.`,
	Run: func(cmd *cobra.Command, args []string) {
		for _, scope := range requiredScopes() {
			fmt.Fprintln(cmd.OutOrStdout(), scope)
		}
	},
}

func requiredScopes() []string {
	return []string{
		"crm.objects.contacts.read",
		"crm.objects.contacts.write",
		"crm.lists.read",
	}
}
