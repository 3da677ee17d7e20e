package secrets

import (
	"fmt"

	kerrors "github.com/workdaydebrief/debrief/internal/errors"
	"github.com/workdaydebrief/debrief/internal/utils"
)

// LegacyAppName prefixes passphrases derived by releases that predate the
// random master key.
const LegacyAppName = "WorkdayDebrief"

// LegacyDeriver reproduces the old machine-derived passphrase. It is only
// ever offered as a decryption candidate.
type LegacyDeriver struct {
	ConfigDir string
	Hostname  func() (string, error)
}

// NewLegacyDeriver returns a deriver bound to configDir and the real hostname.
func NewLegacyDeriver(configDir string) *LegacyDeriver {
	return &LegacyDeriver{
		ConfigDir: configDir,
		Hostname:  utils.GetHostname,
	}
}

func (d *LegacyDeriver) Name() string {
	return "legacy passphrase"
}

// Passphrase implements PassphraseProvider.
func (d *LegacyDeriver) Passphrase() (string, error) {
	return d.Derive()
}

// Derive returns "<app>-<hostname>-<config dir>".
func (d *LegacyDeriver) Derive() (string, error) {
	hostname, err := d.Hostname()
	if err != nil {
		return "", fmt.Errorf("%w: cannot get hostname: %w", kerrors.ErrConfig, err)
	}
	if d.ConfigDir == "" {
		return "", fmt.Errorf("%w: cannot get config dir", kerrors.ErrConfig)
	}

	return fmt.Sprintf("%s-%s-%s", LegacyAppName, hostname, d.ConfigDir), nil
}
