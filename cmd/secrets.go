package cmd

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/workdaydebrief/debrief/internal/configs"
	logger "github.com/workdaydebrief/debrief/internal/logging"
	"github.com/workdaydebrief/debrief/internal/workflows"
)

var (
	verbose bool
	debug   bool
	Logger  logger.Logger

	// getenv is read once per invocation to build the master key source.
	// Tests replace it to avoid touching the real environment.
	getenv = os.Getenv

	// vaultEnv is built by the secrets command's PersistentPreRunE.
	vaultEnv workflows.Env

	SecretsCmd = &cobra.Command{
		Use:   "secrets",
		Short: "Manage secrets stored in the local encrypted vault",
		Long: `Stores credentials used by debrief (SMTP, Slack, Jira, Google, Toggl)
in an encrypted file under your data directory.

The vault is encrypted with a random master key kept in your config
directory. Set ` + configs.MasterKeyEnvVar + ` to supply the key yourself,
for example in CI.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			Logger = logger.Logger{
				Verbose: verbose,
				Debug:   debug,
			}
			Logger.Debugf("Initializing secrets command with verbose=%t, debug=%t", verbose, debug)

			env, err := buildEnv(Logger)
			if err != nil {
				return err
			}
			vaultEnv = env
			return nil
		},
	}
)

func init() {
	SecretsCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	SecretsCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug output")

	SecretsCmd.AddCommand(setCmd)
	SecretsCmd.AddCommand(getCmd)
	SecretsCmd.AddCommand(deleteCmd)
	SecretsCmd.AddCommand(listCmd)
	SecretsCmd.AddCommand(exportCmd)
	SecretsCmd.AddCommand(importCmd)
	SecretsCmd.AddCommand(doctorCmd)
}

// buildEnv resolves settings, config.toml and the key override.
func buildEnv(log logger.Logger) (workflows.Env, error) {
	if configs.DebriefSettings.ConfigDir == "" {
		if err := configs.InitSettings(); err != nil {
			return workflows.Env{}, log.ErrorfAndReturn("Failed to resolve directories: %v", err)
		}
	}
	settings := configs.DebriefSettings

	cfg, err := configs.LoadConfig(settings)
	if err != nil {
		return workflows.Env{}, err
	}

	keySource := configs.KeySourceFromEnv(getenv)
	if keySource.HasOverride() {
		log.Debugf("Using master key from %s", configs.MasterKeyEnvVar)
	}

	log.Debugf("Config dir: %s, data dir: %s", settings.ConfigDir, settings.DataDir)
	return workflows.Env{
		Settings:  settings,
		Config:    cfg.Vault,
		KeySource: keySource,
		Logger:    log,
	}, nil
}

// GetSecretsCmd returns the SecretsCmd for testing.
func GetSecretsCmd() *cobra.Command {
	return SecretsCmd
}

// ResetGlobalState resets all global variables to their default values for testing.
func ResetGlobalState() {
	verbose = false
	debug = false
	getenv = os.Getenv
	vaultEnv = workflows.Env{}
	resetSetCommandState()
	resetGetCommandState()
	resetListCommandState()
	resetExportCommandState()
	resetDoctorCommandState()
	resetSecretsCobraFlagState()
}

// SetGetenv replaces the environment lookup for testing.
func SetGetenv(f func(string) string) {
	getenv = f
}

// resetSecretsCobraFlagState resets the flag state for all secrets commands to prevent test pollution.
func resetSecretsCobraFlagState() {
	for _, c := range append([]*cobra.Command{SecretsCmd}, SecretsCmd.Commands()...) {
		c.SilenceErrors = false
		c.Flags().VisitAll(func(flag *pflag.Flag) {
			flag.Changed = false
		})
	}
}
