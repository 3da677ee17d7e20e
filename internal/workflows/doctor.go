package workflows

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"runtime"

	"github.com/workdaydebrief/debrief/internal/configs"
	kerrors "github.com/workdaydebrief/debrief/internal/errors"
	"github.com/workdaydebrief/debrief/internal/secrets"
)

// CheckStatus represents the result status of a health check.
type CheckStatus int

const (
	// CheckPass means the check passed.
	CheckPass CheckStatus = iota
	// CheckWarning means the check found a non-critical issue.
	CheckWarning
	// CheckError means the check found a critical issue.
	CheckError
)

// String returns a string representation of CheckStatus.
func (s CheckStatus) String() string {
	switch s {
	case CheckPass:
		return "pass"
	case CheckWarning:
		return "warning"
	case CheckError:
		return "error"
	default:
		return "unknown"
	}
}

// MarshalJSON implements json.Marshaler for CheckStatus.
func (s CheckStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// CheckResult holds the result of a single health check.
type CheckResult struct {
	Name       string      `json:"name"`
	Status     CheckStatus `json:"status"`
	Message    string      `json:"message"`
	Suggestion string      `json:"suggestion,omitempty"`
}

// DoctorResult holds the complete result of the doctor workflow.
type DoctorResult struct {
	Checks      []CheckResult `json:"checks"`
	Summary     DoctorSummary `json:"summary"`
	Suggestions []string      `json:"suggestions,omitempty"`
}

// DoctorSummary holds counts of checks by status.
type DoctorSummary struct {
	Passed   int `json:"passed"`
	Warnings int `json:"warnings"`
	Errors   int `json:"errors"`
}

// Doctor runs health checks on the local vault.
//
// The doctor workflow checks:
//   - config.toml validity
//   - Where the master key comes from
//   - Master key file and vault file permissions
//   - Whether the vault opens with the current key
//
// Opening the vault may migrate a legacy-encrypted file, exactly as any
// other read would.
func Doctor(ctx context.Context, env Env) (*DoctorResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	checks := []func(Env) CheckResult{
		checkConfigFile,
		checkKeySource,
		checkMasterKeyPermissions,
		checkSecretsFilePermissions,
		checkVaultOpens,
	}

	var results []CheckResult
	for _, check := range checks {
		results = append(results, check(env))
	}

	var suggestions []string
	seen := make(map[string]bool)
	for _, result := range results {
		if result.Suggestion != "" && result.Status != CheckPass && !seen[result.Suggestion] {
			suggestions = append(suggestions, result.Suggestion)
			seen[result.Suggestion] = true
		}
	}

	return &DoctorResult{
		Checks:      results,
		Summary:     calculateDoctorSummary(results),
		Suggestions: suggestions,
	}, nil
}

func calculateDoctorSummary(results []CheckResult) DoctorSummary {
	var summary DoctorSummary
	for _, result := range results {
		switch result.Status {
		case CheckPass:
			summary.Passed++
		case CheckWarning:
			summary.Warnings++
		case CheckError:
			summary.Errors++
		}
	}
	return summary
}

func checkConfigFile(env Env) CheckResult {
	result := CheckResult{Name: "Config file"}

	path := env.Settings.ConfigFilePath()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		result.Status = CheckPass
		result.Message = "No config.toml, using defaults"
		return result
	}

	if _, err := configs.LoadConfig(env.Settings); err != nil {
		result.Status = CheckError
		result.Message = err.Error()
		result.Suggestion = "Fix or remove " + path
		return result
	}

	result.Status = CheckPass
	result.Message = "config.toml is valid"
	return result
}

func checkKeySource(env Env) CheckResult {
	result := CheckResult{Name: "Master key source"}

	if env.KeySource.HasOverride() {
		result.Status = CheckPass
		result.Message = fmt.Sprintf("Using %s (key file ignored)", configs.MasterKeyEnvVar)
		return result
	}

	path := env.Settings.MasterKeyPath()
	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		result.Status = CheckPass
		result.Message = "No master key yet, one will be created on first write"
	case err != nil:
		result.Status = CheckError
		result.Message = fmt.Sprintf("Cannot read %s: %v", path, err)
	case len(bytes.TrimSpace(data)) == 0:
		result.Status = CheckError
		result.Message = kerrors.ErrEmptyMasterKey.Error()
		result.Suggestion = "Remove " + path + " only if the vault is empty or can be re-created"
	default:
		result.Status = CheckPass
		result.Message = "Using master key file " + path
	}
	return result
}

func checkMasterKeyPermissions(env Env) CheckResult {
	return checkFileMode("Master key permissions", env.Settings.MasterKeyPath())
}

func checkSecretsFilePermissions(env Env) CheckResult {
	return checkFileMode("Vault permissions", env.Settings.SecretsPath())
}

func checkFileMode(name, path string) CheckResult {
	result := CheckResult{Name: name}

	if runtime.GOOS == "windows" {
		result.Status = CheckPass
		result.Message = "Not applicable on Windows"
		return result
	}

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		result.Status = CheckPass
		result.Message = "File does not exist yet"
		return result
	}
	if err != nil {
		result.Status = CheckError
		result.Message = fmt.Sprintf("Cannot stat %s: %v", path, err)
		return result
	}

	if mode := info.Mode().Perm(); mode != secrets.FileMode {
		result.Status = CheckWarning
		result.Message = fmt.Sprintf("%s has permissions %04o, expected %04o", path, mode, secrets.FileMode)
		result.Suggestion = fmt.Sprintf("Run: chmod 600 %s", path)
		return result
	}

	result.Status = CheckPass
	result.Message = fmt.Sprintf("%s is owner-only", path)
	return result
}

func checkVaultOpens(env Env) CheckResult {
	result := CheckResult{Name: "Vault decryption"}

	if _, err := os.Stat(env.Settings.SecretsPath()); os.IsNotExist(err) {
		result.Status = CheckPass
		result.Message = "No vault yet"
		return result
	}

	inspection, err := env.InspectVault().Inspect()
	switch {
	case err == nil && inspection.OpenedWith != "":
		result.Status = CheckWarning
		result.Message = fmt.Sprintf("Vault opens with the %s, %d secret(s) stored", inspection.OpenedWith, len(inspection.Names))
		result.Suggestion = "Run `debrief secrets list` to re-encrypt it with the master key"
	case err == nil:
		result.Status = CheckPass
		result.Message = fmt.Sprintf("Vault opens, %d secret(s) stored", len(inspection.Names))
	case errors.Is(err, fs.ErrNotExist):
		result.Status = CheckError
		result.Message = "Vault exists but the master key file is missing"
		result.Suggestion = "Restore the master key file or set " + configs.MasterKeyEnvVar
	case errors.Is(err, kerrors.ErrDecryption):
		result.Status = CheckError
		result.Message = err.Error()
		if env.KeySource.HasOverride() {
			result.Suggestion = fmt.Sprintf("Check that %s matches the key the vault was written with", configs.MasterKeyEnvVar)
		} else {
			result.Suggestion = "Restore the master key file the vault was written with"
		}
	default:
		result.Status = CheckError
		result.Message = err.Error()
	}
	return result
}
