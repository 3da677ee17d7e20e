package cmd

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/require"

	"github.com/workdaydebrief/debrief/internal/configs"
)

const testMasterKey = "dGVzdC1tYXN0ZXIta2V5LWZvci1jbWQtdGVzdHM="

// setupTestEnvironment points debrief at temp directories with a fast scrypt
// work factor and returns the settings. keyOverride, when non-empty, is
// served as the master key environment variable.
func setupTestEnvironment(t *testing.T, keyOverride string) *configs.Settings {
	t.Helper()

	root := t.TempDir()
	settings := &configs.Settings{
		ConfigDir: filepath.Join(root, "config"),
		DataDir:   filepath.Join(root, "data"),
	}
	require.NoError(t, configs.SaveConfig(settings, &configs.Config{
		Vault: configs.VaultConfig{ScryptWorkFactor: 10},
	}))

	originalSettings := configs.DebriefSettings
	originalNoColor := color.NoColor
	configs.DebriefSettings = settings
	color.NoColor = true

	ResetGlobalState()
	ResetConfigState()
	SetGetenv(func(key string) string {
		if key == configs.MasterKeyEnvVar {
			return keyOverride
		}
		return ""
	})
	SetDoctorExitFunc(func(int) {})

	t.Cleanup(func() {
		configs.DebriefSettings = originalSettings
		color.NoColor = originalNoColor
		ResetGlobalState()
		ResetConfigState()
	})

	return settings
}

// runSecrets executes `debrief secrets <args>` and returns captured stdout.
func runSecrets(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetSecretsFlagValues()
	return captureOutput(func() error {
		SecretsCmd.SetArgs(args)
		return SecretsCmd.Execute()
	})
}

// resetSecretsFlagValues clears flag values left over from a previous
// Execute, which pflag does not reset on its own.
func resetSecretsFlagValues() {
	verbose = false
	debug = false
	setFromStdin = false
	doctorJSONOutput = false
	resetGetCommandState()
	resetListCommandState()
	resetExportCommandState()
	resetSecretsCobraFlagState()
}

// runConfig executes `debrief config <args>` and returns captured stdout.
func runConfig(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetConfigShowState()
	resetConfigInitState()
	resetConfigCobraFlagState()
	return captureOutput(func() error {
		ConfigCmd.SetArgs(args)
		return ConfigCmd.Execute()
	})
}

// captureOutput captures stdout during function execution. Stderr is
// discarded so spinner and log noise does not leak into test output.
func captureOutput(fn func() error) (string, error) {
	originalStdout := os.Stdout
	originalStderr := os.Stderr

	stdoutReader, stdoutWriter, err := os.Pipe()
	if err != nil {
		return "", err
	}
	devNull, err := os.OpenFile(os.DevNull, os.O_WRONLY, 0)
	if err != nil {
		return "", err
	}
	defer devNull.Close()

	os.Stdout = stdoutWriter
	os.Stderr = devNull
	SecretsCmd.SetOut(stdoutWriter)
	SecretsCmd.SetErr(devNull)
	ConfigCmd.SetOut(stdoutWriter)
	ConfigCmd.SetErr(devNull)

	outputChan := make(chan string)
	go func() {
		var buf bytes.Buffer
		_, _ = io.Copy(&buf, stdoutReader)
		outputChan <- buf.String()
	}()

	runErr := fn()

	stdoutWriter.Close()
	os.Stdout = originalStdout
	os.Stderr = originalStderr
	SecretsCmd.SetOut(nil)
	SecretsCmd.SetErr(nil)
	ConfigCmd.SetOut(nil)
	ConfigCmd.SetErr(nil)

	return <-outputChan, runErr
}
