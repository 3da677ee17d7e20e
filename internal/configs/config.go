package configs

import (
	"fmt"
	"os"
	"strings"

	kerrors "github.com/workdaydebrief/debrief/internal/errors"
)

// MasterKeyEnvVar overrides the persisted master key for the lifetime of a process.
const MasterKeyEnvVar = "WORKDAY_DEBRIEF_MASTER_KEY"

// MaxScryptWorkFactor is the highest scrypt cost accepted for new encryptions.
// It matches age's default decryption ceiling.
const MaxScryptWorkFactor = 22

type Config struct {
	Vault VaultConfig `toml:"vault"`
}

type VaultConfig struct {
	// DataDir relocates secrets.enc and audit.jsonl.
	DataDir string `toml:"data_dir,omitempty"`

	// ScryptWorkFactor is the log2 scrypt cost used for new encryptions.
	// Zero keeps the cipher default.
	ScryptWorkFactor int `toml:"scrypt_work_factor,omitempty"`

	// LegacyMigration enables the machine-derived passphrase fallback.
	LegacyMigration *bool `toml:"legacy_migration,omitempty"`

	// Audit enables the audit.jsonl trail.
	Audit *bool `toml:"audit,omitempty"`
}

// LegacyMigrationEnabled reports whether the legacy fallback is on (default true).
func (v VaultConfig) LegacyMigrationEnabled() bool {
	return v.LegacyMigration == nil || *v.LegacyMigration
}

// AuditEnabled reports whether audit logging is on (default true).
func (v VaultConfig) AuditEnabled() bool {
	return v.Audit == nil || *v.Audit
}

// LoadConfig reads config.toml from the settings' config directory.
// A missing file yields the defaults.
func LoadConfig(settings *Settings) (*Config, error) {
	config := &Config{}
	configPath := settings.ConfigFilePath()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return config, nil
	}

	if err := LoadTOML(configPath, config); err != nil {
		return nil, fmt.Errorf("%w: failed to load %s: %w", kerrors.ErrConfig, configPath, err)
	}

	if err := ValidateConfig(config); err != nil {
		return nil, err
	}

	return config, nil
}

// ValidateConfig checks value ranges that TOML decoding cannot.
func ValidateConfig(config *Config) error {
	if config.Vault.ScryptWorkFactor < 0 || config.Vault.ScryptWorkFactor > MaxScryptWorkFactor {
		return fmt.Errorf("%w: scrypt_work_factor must be between 0 and %d, got %d",
			kerrors.ErrConfig, MaxScryptWorkFactor, config.Vault.ScryptWorkFactor)
	}
	return nil
}

// SaveConfig writes config.toml to the settings' config directory.
func SaveConfig(settings *Settings, config *Config) error {
	if err := SaveTOML(settings.ConfigFilePath(), config); err != nil {
		return fmt.Errorf("%w: failed to save config: %w", kerrors.ErrConfig, err)
	}
	return nil
}

// KeySource carries the externally supplied master key override. It is built
// once at process start so the vault never consults the environment itself.
type KeySource struct {
	Override string
}

// KeySourceFromEnv builds a KeySource from MasterKeyEnvVar using getenv.
func KeySourceFromEnv(getenv func(string) string) KeySource {
	return KeySource{Override: strings.TrimSpace(getenv(MasterKeyEnvVar))}
}

// HasOverride reports whether a non-blank override is present.
func (k KeySource) HasOverride() bool {
	return strings.TrimSpace(k.Override) != ""
}
