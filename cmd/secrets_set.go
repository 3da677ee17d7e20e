package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/workdaydebrief/debrief/internal/ui"
	"github.com/workdaydebrief/debrief/internal/utils"
	"github.com/workdaydebrief/debrief/internal/workflows"
)

var (
	setFromStdin bool

	// readHidden and readStdin are replaced in tests.
	readHidden = utils.ReadHidden
	readStdin  = utils.ReadStdin
	isTerminal = utils.IsTerminal
)

func init() {
	setCmd.Flags().BoolVar(&setFromStdin, "stdin", false, "read the value from stdin even when it is a terminal")
}

func resetSetCommandState() {
	setFromStdin = false
	readHidden = utils.ReadHidden
	readStdin = utils.ReadStdin
	isTerminal = utils.IsTerminal
}

var setCmd = &cobra.Command{
	Use:   "set <name> [value]",
	Short: "Store a secret",
	Long: `Stores a secret in the vault, replacing any existing value.

When the value is omitted it is prompted for without echo, or read from
stdin when stdin is not a terminal. Passing the value as an argument leaves
it in your shell history.

Examples:
  # Prompt for the value
  debrief secrets set jira_api_token

  # Pipe the value in
  echo "$TOKEN" | debrief secrets set toggl_api_token`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting set command")
		name := args[0]

		value, err := resolveValue(name, args)
		if err != nil {
			return Logger.ErrorfAndReturn("Failed to read value: %v", err)
		}

		spinner, cleanup := startSpinner("Encrypting vault...", verbose)
		defer cleanup()

		result, err := workflows.Set(context.Background(), vaultEnv, workflows.SetOptions{Name: name, Value: value})
		if err != nil {
			Logger.Errorf("Set failed: %v", err)
			return commandFailed(cmd, spinner, "Failed to store "+ui.Highlight.Sprint(name), err)
		}

		spinner.FinalMSG = fmt.Sprintf("%s Stored %s in %s",
			ui.SuccessIcon(), ui.Highlight.Sprint(result.Name), ui.Path.Sprint(result.SecretsPath))
		return nil
	},
}

func resolveValue(name string, args []string) (string, error) {
	if len(args) == 2 {
		Logger.Warnf("Secret value passed as an argument may be saved in shell history")
		return args[1], nil
	}

	if !setFromStdin && isTerminal() {
		Logger.Debugf("Prompting for value of %s", name)
		value, err := readHidden(fmt.Sprintf("Value for %s: ", name))
		if err != nil {
			return "", err
		}
		return string(value), nil
	}

	Logger.Debugf("Reading value of %s from stdin", name)
	value, err := readStdin()
	if err != nil {
		return "", err
	}
	return string(value), nil
}
