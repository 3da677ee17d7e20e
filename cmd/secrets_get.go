package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/workdaydebrief/debrief/internal/ui"
	"github.com/workdaydebrief/debrief/internal/workflows"
)

var getMasked bool

func init() {
	getCmd.Flags().BoolVar(&getMasked, "masked", false, "show only the last characters of the value")
}

func resetGetCommandState() {
	getMasked = false
}

var getCmd = &cobra.Command{
	Use:   "get <name>",
	Short: "Print a secret",
	Long: `Prints the value of a secret to stdout with no trailing decoration, so it
can be used in scripts. Exits non-zero if the secret is not set.

Examples:
  # Use a token in a script
  curl -H "Authorization: Bearer $(debrief secrets get toggl_api_token)" ...

  # Check which key is configured without revealing it
  debrief secrets get jira_api_token --masked`,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting get command")

		result, err := workflows.Get(context.Background(), vaultEnv, args[0])
		if err != nil {
			Logger.Errorf("Get failed: %v", err)
			msg, hint := describeError(err)
			if hint != "" {
				msg += "\n" + ui.HintIcon() + " " + hint
			}
			return errors.New(msg)
		}

		value := result.Value
		if getMasked {
			value = ui.Mask(value)
		}
		fmt.Fprintln(cmd.OutOrStdout(), value)
		return nil
	},
}
