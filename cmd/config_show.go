package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/workdaydebrief/debrief/internal/configs"
	"github.com/workdaydebrief/debrief/internal/ui"
)

var configShowJSON bool

func init() {
	configShowCmd.Flags().BoolVar(&configShowJSON, "json", false, "output in JSON format")
	ConfigCmd.AddCommand(configShowCmd)
}

// resetConfigShowState resets the config show command's global state for testing.
func resetConfigShowState() {
	configShowJSON = false
}

// effectiveConfig is what `config show` reports: resolved paths plus vault settings.
type effectiveConfig struct {
	ConfigDir        string `json:"config_dir"`
	DataDir          string `json:"data_dir"`
	MasterKeyPath    string `json:"master_key_path"`
	SecretsPath      string `json:"secrets_path"`
	AuditLogPath     string `json:"audit_log_path"`
	KeyOverride      bool   `json:"key_override"`
	ScryptWorkFactor int    `json:"scrypt_work_factor"`
	LegacyMigration  bool   `json:"legacy_migration"`
	Audit            bool   `json:"audit"`
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Display current configuration",
	Long: `Displays the directories debrief uses and the effective vault settings.

Examples:
  debrief config show
  debrief config show --json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ConfigLogger.Infof("Starting config show command")

		settings, err := resolveSettings()
		if err != nil {
			return ConfigLogger.ErrorfAndReturn("Failed to resolve directories: %v", err)
		}

		cfg, err := configs.LoadConfig(settings)
		if err != nil {
			return ConfigLogger.ErrorfAndReturn("Failed to load config: %v", err)
		}

		effective := settings
		if cfg.Vault.DataDir != "" {
			effective = &configs.Settings{ConfigDir: settings.ConfigDir, DataDir: cfg.Vault.DataDir}
		}

		shown := effectiveConfig{
			ConfigDir:        effective.ConfigDir,
			DataDir:          effective.DataDir,
			MasterKeyPath:    effective.MasterKeyPath(),
			SecretsPath:      effective.SecretsPath(),
			AuditLogPath:     effective.AuditLogPath(),
			KeyOverride:      configs.KeySourceFromEnv(getenv).HasOverride(),
			ScryptWorkFactor: cfg.Vault.ScryptWorkFactor,
			LegacyMigration:  cfg.Vault.LegacyMigrationEnabled(),
			Audit:            cfg.Vault.AuditEnabled(),
		}

		if configShowJSON {
			output, err := json.MarshalIndent(shown, "", "  ")
			if err != nil {
				return ConfigLogger.ErrorfAndReturn("Failed to marshal config to JSON: %v", err)
			}
			fmt.Println(string(output))
			return nil
		}

		printConfig(shown, settings.ConfigFilePath())
		return nil
	},
}

func printConfig(c effectiveConfig, configPath string) {
	source := ui.Muted.Sprint("defaults")
	if _, err := os.Stat(configPath); err == nil {
		source = ui.Path.Sprint(configPath)
	}
	fmt.Println(ui.Info.Sprint("Vault Configuration") + " " + source + ":")
	fmt.Println()

	workFactor := "default"
	if c.ScryptWorkFactor > 0 {
		workFactor = strconv.Itoa(c.ScryptWorkFactor)
	}
	keySource := ui.Path.Sprint(c.MasterKeyPath)
	if c.KeyOverride {
		keySource = ui.Code.Sprint(configs.MasterKeyEnvVar)
	}

	fmt.Printf("  %-18s %s\n", "Config dir:", ui.Path.Sprint(c.ConfigDir))
	fmt.Printf("  %-18s %s\n", "Data dir:", ui.Path.Sprint(c.DataDir))
	fmt.Printf("  %-18s %s\n", "Master key:", keySource)
	fmt.Printf("  %-18s %s\n", "Vault file:", ui.Path.Sprint(c.SecretsPath))
	fmt.Printf("  %-18s %s\n", "Scrypt work factor:", workFactor)
	fmt.Printf("  %-18s %t\n", "Legacy migration:", c.LegacyMigration)
	fmt.Printf("  %-18s %t\n", "Audit log:", c.Audit)
}
