package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/workdaydebrief/debrief/internal/ui"
	"github.com/workdaydebrief/debrief/internal/workflows"
)

var (
	listMatch string
	listJSON  bool
)

func init() {
	listCmd.Flags().StringVarP(&listMatch, "match", "m", "", "only show names matching a glob, e.g. 'jira_*'")
	listCmd.Flags().BoolVar(&listJSON, "json", false, "output in JSON format")
}

func resetListCommandState() {
	listMatch = ""
	listJSON = false
}

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List stored secret names",
	Long: `Lists the names stored in the vault. Values are never shown.

Well-known names used by debrief that are not yet set are listed too.

Examples:
  debrief secrets list
  debrief secrets list --match 'delivery_*'`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting list command")
		Logger.Debugf("Flags: match=%q, json=%t", listMatch, listJSON)

		spinner, cleanup := startSpinner("Reading vault...", verbose)
		defer cleanup()

		result, err := workflows.List(context.Background(), vaultEnv, workflows.ListOptions{Match: listMatch})
		if err != nil {
			Logger.Errorf("List failed: %v", err)
			return commandFailed(cmd, spinner, "Failed to list secrets", err)
		}

		if listJSON {
			data, err := json.MarshalIndent(struct {
				Names []string `json:"names"`
				Unset []string `json:"unset"`
			}{nonNil(result.Names), nonNil(result.Unset)}, "", "  ")
			if err != nil {
				return Logger.ErrorfAndReturn("Failed to marshal JSON: %v", err)
			}
			spinner.FinalMSG = string(data)
			return nil
		}

		spinner.FinalMSG = formatList(result)
		return nil
	},
}

func formatList(result *workflows.ListResult) string {
	var b strings.Builder

	if len(result.Names) == 0 {
		b.WriteString(ui.WarningIcon() + " No secrets stored")
	} else {
		fmt.Fprintf(&b, "%s %d secret(s) stored:", ui.SuccessIcon(), len(result.Names))
		for _, name := range result.Names {
			b.WriteString("\n  " + ui.Highlight.Sprint(name))
		}
	}

	if len(result.Unset) > 0 {
		b.WriteString("\n\nNot set " + ui.Muted.Sprint("used by debrief") + ":")
		for _, name := range result.Unset {
			b.WriteString("\n  " + name)
		}
		b.WriteString("\n\n" + ui.HintIcon() + " Run " + ui.Code.Sprint("debrief secrets set <name>") + " to add one")
	}

	return b.String()
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
