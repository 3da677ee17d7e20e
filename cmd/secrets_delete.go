package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/workdaydebrief/debrief/internal/ui"
	"github.com/workdaydebrief/debrief/internal/workflows"
)

var deleteCmd = &cobra.Command{
	Use:     "delete <name>",
	Aliases: []string{"rm"},
	Short:   "Remove a secret",
	Long: `Removes a secret from the vault. Removing a name that is not set is not
an error.

Examples:
  debrief secrets delete slack_webhook_url`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting delete command")
		name := args[0]

		spinner, cleanup := startSpinner("Updating vault...", verbose)
		defer cleanup()

		result, err := workflows.Delete(context.Background(), vaultEnv, name)
		if err != nil {
			Logger.Errorf("Delete failed: %v", err)
			return commandFailed(cmd, spinner, "Failed to delete "+ui.Highlight.Sprint(name), err)
		}

		if !result.Existed {
			spinner.FinalMSG = ui.WarningIcon() + " " + ui.Highlight.Sprint(name) + " was not set"
			return nil
		}

		spinner.FinalMSG = ui.SuccessIcon() + " Deleted " + ui.Highlight.Sprint(name)
		return nil
	},
}
