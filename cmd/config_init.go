package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/workdaydebrief/debrief/internal/configs"
	"github.com/workdaydebrief/debrief/internal/ui"
)

var (
	configInitDataDir    string
	configInitWorkFactor int
	configInitNoLegacy   bool
	configInitNoAudit    bool
	configInitForce      bool
)

func init() {
	configInitCmd.Flags().StringVar(&configInitDataDir, "data-dir", "", "store secrets.enc and audit.jsonl in this directory")
	configInitCmd.Flags().IntVar(&configInitWorkFactor, "scrypt-work-factor", 0, "log2 scrypt cost for new encryptions (0 keeps the default)")
	configInitCmd.Flags().BoolVar(&configInitNoLegacy, "no-legacy-migration", false, "do not try the legacy machine-derived key")
	configInitCmd.Flags().BoolVar(&configInitNoAudit, "no-audit", false, "disable the audit log")
	configInitCmd.Flags().BoolVarP(&configInitForce, "force", "f", false, "overwrite an existing config.toml")
	ConfigCmd.AddCommand(configInitCmd)
}

// resetConfigInitState resets the config init command's global state for testing.
func resetConfigInitState() {
	configInitDataDir = ""
	configInitWorkFactor = 0
	configInitNoLegacy = false
	configInitNoAudit = false
	configInitForce = false
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create config.toml",
	Long: `Writes config.toml in the debrief config directory.

Examples:
  # Write the defaults
  debrief config init

  # Keep the vault on an encrypted volume
  debrief config init --data-dir /Volumes/Secure/debrief`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ConfigLogger.Infof("Starting config init command")

		settings, err := resolveSettings()
		if err != nil {
			return ConfigLogger.ErrorfAndReturn("Failed to resolve directories: %v", err)
		}

		path := settings.ConfigFilePath()
		if _, err := os.Stat(path); err == nil && !configInitForce {
			fmt.Println(ui.WarningIcon() + " " + ui.Path.Sprint(path) + " already exists")
			fmt.Println(ui.HintIcon() + " Run " + ui.Code.Sprint("debrief config show") + " to view it, or pass " + ui.Flag.Sprint("--force"))
			return nil
		}

		cfg := &configs.Config{Vault: configs.VaultConfig{
			DataDir:          configInitDataDir,
			ScryptWorkFactor: configInitWorkFactor,
		}}
		legacy := !configInitNoLegacy
		audit := !configInitNoAudit
		cfg.Vault.LegacyMigration = &legacy
		cfg.Vault.Audit = &audit

		if err := configs.ValidateConfig(cfg); err != nil {
			return ConfigLogger.ErrorfAndReturn("Invalid configuration: %v", err)
		}

		ConfigLogger.Debugf("Writing %s", path)
		if err := configs.SaveConfig(settings, cfg); err != nil {
			return ConfigLogger.ErrorfAndReturn("Failed to write config: %v", err)
		}

		fmt.Println(ui.SuccessIcon() + " Wrote " + ui.Path.Sprint(path))
		return nil
	},
}

// resolveSettings returns the test override when set, else the platform directories.
func resolveSettings() (*configs.Settings, error) {
	if configs.DebriefSettings.ConfigDir != "" {
		return configs.DebriefSettings, nil
	}
	return configs.DefaultSettings()
}
