package workflows

import (
	"errors"
	"fmt"
	"strings"

	"github.com/workdaydebrief/debrief/internal/audit"
	"github.com/workdaydebrief/debrief/internal/configs"
	kerrors "github.com/workdaydebrief/debrief/internal/errors"
	logger "github.com/workdaydebrief/debrief/internal/logging"
	"github.com/workdaydebrief/debrief/internal/secrets"
)

// Env carries everything a workflow needs to open the vault. The CLI builds
// one per invocation; tests build one over temp directories.
type Env struct {
	Settings  *configs.Settings
	Config    configs.VaultConfig
	KeySource configs.KeySource
	Logger    logger.Logger
}

// OpenVault wires the master key, the optional legacy fallback and the
// configured cipher into a Store.
func (e Env) OpenVault() *secrets.Store {
	return e.newStore(e.MasterKey())
}

// InspectVault is OpenVault with a master key that is never created, for
// diagnostics that must not change anything on disk.
func (e Env) InspectVault() *secrets.Store {
	return e.newStore(e.MasterKey().ReadOnly())
}

func (e Env) newStore(primary secrets.PassphraseProvider) *secrets.Store {
	opts := secrets.Options{
		SecretsPath: e.Settings.SecretsPath(),
		Primary:     primary,
		Cipher:      secrets.NewCipher(e.Config.ScryptWorkFactor),
		Logger:      e.Logger,
	}
	if e.Config.LegacyMigrationEnabled() {
		opts.Fallbacks = []secrets.PassphraseProvider{
			secrets.NewLegacyDeriver(e.Settings.ConfigDir),
		}
	}
	return secrets.NewStore(opts)
}

// MasterKey returns the master key manager for this environment.
func (e Env) MasterKey() *secrets.MasterKeyManager {
	return secrets.NewMasterKeyManager(e.Settings.MasterKeyPath(), e.KeySource, e.Logger)
}

// record appends entry to the audit log when auditing is enabled. Only the
// error category is recorded, never the wrapped cause.
func (e Env) record(entry audit.Entry, err error) {
	if !e.Config.AuditEnabled() {
		return
	}
	if err != nil {
		entry.Outcome = audit.OutcomeFailed
		entry.Error = errorCategory(err)
	}
	audit.Log(e.Settings.AuditLogPath(), entry)
}

func errorCategory(err error) string {
	for _, category := range []error{
		kerrors.ErrInvalidSecretName,
		kerrors.ErrSecretNotFound,
		kerrors.ErrConfig,
		kerrors.ErrDecryption,
		kerrors.ErrSerialization,
		kerrors.ErrIO,
	} {
		if errors.Is(err, category) {
			return category.Error()
		}
	}
	return "error"
}

// validateName rejects names that cannot be typed back on a command line.
func validateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: name must not be empty", kerrors.ErrInvalidSecretName)
	}
	if strings.TrimSpace(name) != name {
		return fmt.Errorf("%w: %q has leading or trailing whitespace", kerrors.ErrInvalidSecretName, name)
	}
	return nil
}
