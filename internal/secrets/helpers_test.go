package secrets

import (
	"io"
	"path/filepath"
	"testing"

	"github.com/workdaydebrief/debrief/internal/configs"
	logger "github.com/workdaydebrief/debrief/internal/logging"
)

// testWorkFactor keeps scrypt fast enough for unit tests.
const testWorkFactor = 10

const testHostname = "test-host"

type testVault struct {
	configDir string
	dataDir   string
	keyPath   string
	path      string
}

func newTestVault(t *testing.T) testVault {
	t.Helper()
	root := t.TempDir()
	configDir := filepath.Join(root, "config", configs.AppDirName)
	dataDir := filepath.Join(root, "data", configs.AppDirName)
	return testVault{
		configDir: configDir,
		dataDir:   dataDir,
		keyPath:   filepath.Join(configDir, configs.MasterKeyFileName),
		path:      filepath.Join(dataDir, configs.SecretsFileName),
	}
}

func (v testVault) legacy() *LegacyDeriver {
	return &LegacyDeriver{
		ConfigDir: v.configDir,
		Hostname:  func() (string, error) { return testHostname, nil },
	}
}

// store opens the vault with an optional key override and, when withLegacy
// is set, the legacy fallback.
func (v testVault) store(override string, withLegacy bool) *Store {
	opts := Options{
		SecretsPath: v.path,
		Primary:     NewMasterKeyManager(v.keyPath, configs.KeySource{Override: override}, testLogger()),
		Cipher:      NewCipher(testWorkFactor),
		Logger:      testLogger(),
	}
	if withLegacy {
		opts.Fallbacks = []PassphraseProvider{v.legacy()}
	}
	return NewStore(opts)
}

type staticPassphrase struct {
	name       string
	passphrase string
	err        error
}

func (s staticPassphrase) Name() string {
	return s.name
}

func (s staticPassphrase) Passphrase() (string, error) {
	return s.passphrase, s.err
}

func testLogger() logger.Logger {
	return logger.Logger{Out: io.Discard, Err: io.Discard}
}
