package configs

import (
	"fmt"
	"os"
	"path/filepath"

	kerrors "github.com/workdaydebrief/debrief/internal/errors"
)

// AppDirName is the directory name used under the platform config and data roots.
const AppDirName = "workday-debrief"

// Vault file names.
const (
	MasterKeyFileName = "master.key"
	SecretsFileName   = "secrets.enc"
	ConfigFileName    = "config.toml"
	AuditFileName     = "audit.jsonl"
)

type Settings struct {
	// ConfigDir holds the master key file and config.toml.
	ConfigDir string
	// DataDir holds the encrypted secrets file and the audit log.
	DataDir string
}

// DebriefSettings is populated by InitSettings. Tests may replace it.
var DebriefSettings = &Settings{}

// InitSettings resolves the platform directories and applies any data_dir
// override from config.toml.
func InitSettings() error {
	settings, err := DefaultSettings()
	if err != nil {
		return err
	}

	cfg, err := LoadConfig(settings)
	if err != nil {
		return err
	}
	if cfg.Vault.DataDir != "" {
		settings.DataDir = cfg.Vault.DataDir
	}

	DebriefSettings = settings
	return nil
}

// DefaultSettings returns the platform directories without reading config.toml.
func DefaultSettings() (*Settings, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return nil, fmt.Errorf("%w: cannot get config dir: %w", kerrors.ErrConfig, err)
	}

	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("%w: cannot get app data dir: %w", kerrors.ErrConfig, err)
		}
		dataDir = filepath.Join(homeDir, ".local", "share")
	}

	return &Settings{
		ConfigDir: filepath.Join(configDir, AppDirName),
		DataDir:   filepath.Join(dataDir, AppDirName),
	}, nil
}

func (s *Settings) MasterKeyPath() string {
	return filepath.Join(s.ConfigDir, MasterKeyFileName)
}

func (s *Settings) SecretsPath() string {
	return filepath.Join(s.DataDir, SecretsFileName)
}

func (s *Settings) ConfigFilePath() string {
	return filepath.Join(s.ConfigDir, ConfigFileName)
}

func (s *Settings) AuditLogPath() string {
	return filepath.Join(s.DataDir, AuditFileName)
}
