package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/workdaydebrief/debrief/internal/configs"
	"github.com/workdaydebrief/debrief/internal/ui"
	"github.com/workdaydebrief/debrief/internal/workflows"
)

var exportForce bool

func init() {
	exportCmd.Flags().BoolVarP(&exportForce, "force", "f", false, "overwrite an existing file")
}

func resetExportCommandState() {
	exportForce = false
}

var exportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Write an encrypted backup of the vault",
	Long: `Writes an ASCII-armored copy of the vault. The backup stays encrypted
with your master key: keep the key (or ` + configs.MasterKeyEnvVar + `) with it,
or the backup cannot be restored.

If no file is given, debrief-secrets-YYYY-MM-DD.age is written to the
current directory.

Examples:
  debrief secrets export
  debrief secrets export ~/backups/debrief.age --force`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting export command")

		opts := workflows.ExportOptions{Force: exportForce}
		if len(args) == 1 {
			opts.OutputPath = args[0]
		}

		spinner, cleanup := startSpinner("Exporting vault...", verbose)
		defer cleanup()

		result, err := workflows.Export(context.Background(), vaultEnv, opts)
		if err != nil {
			Logger.Errorf("Export failed: %v", err)
			return commandFailed(cmd, spinner, "Failed to export vault", err)
		}

		spinner.FinalMSG = ui.SuccessIcon() + " Exported vault to " + ui.Path.Sprint(result.OutputPath)
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Restore the vault from a backup",
	Long: `Replaces the vault contents with a backup written by ` + "`debrief secrets export`" + `.
The backup must open with the current master key; the vault is left
untouched otherwise.

Examples:
  debrief secrets import ~/backups/debrief.age`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting import command")

		spinner, cleanup := startSpinner("Importing vault...", verbose)
		defer cleanup()

		result, err := workflows.Import(context.Background(), vaultEnv, workflows.ImportOptions{InputPath: args[0]})
		if err != nil {
			Logger.Errorf("Import failed: %v", err)
			return commandFailed(cmd, spinner, "Failed to import "+ui.Path.Sprint(args[0]), err)
		}

		spinner.FinalMSG = ui.SuccessIcon() + " Imported " + ui.Highlight.Sprintf("%d", result.Count) + " secret(s)"
		return nil
	},
}
