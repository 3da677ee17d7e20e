package main

import (
	"fmt"
	"os"

	"github.com/common-nighthawk/go-figure"
	"github.com/spf13/cobra"

	"github.com/workdaydebrief/debrief/cmd"
)

var rootCmd = &cobra.Command{
	Use:   "debrief",
	Short: "Workday Debrief - end-of-day summaries from your tools, with a local secret vault.",
	Long: `Workday Debrief collects what you did today from Jira, Toggl and Google
and delivers a summary by email or Slack.

The credentials it needs are kept in a local encrypted vault.

Usage:
  debrief <command> [flags]

Available Commands:
  secrets    Manage credentials in the encrypted vault
  config     Manage debrief configuration

Run 'debrief help <command>' for more details on a specific command.
`,
	Run: func(c *cobra.Command, args []string) {
		figure.NewFigure("debrief", "small", true).Print()
		fmt.Println()
		fmt.Println("Run 'debrief --help' to see available commands.")
	},
}

func init() {
	rootCmd.AddCommand(cmd.SecretsCmd)
	rootCmd.AddCommand(cmd.ConfigCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
