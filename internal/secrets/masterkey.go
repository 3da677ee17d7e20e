package secrets

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/workdaydebrief/debrief/internal/configs"
	kerrors "github.com/workdaydebrief/debrief/internal/errors"
	logger "github.com/workdaydebrief/debrief/internal/logging"
)

const (
	masterKeySize = 32

	// A process that lost the creation race may read the key file between the
	// winner's exclusive create and its write. Re-read a few times before
	// declaring the file empty.
	readBackAttempts = 5
	readBackDelay    = 10 * time.Millisecond
)

// MasterKeyManager resolves the vault passphrase: an explicit override first,
// then the persisted key file, creating the file on first use.
type MasterKeyManager struct {
	Path     string
	Override string
	Logger   logger.Logger
}

// NewMasterKeyManager returns a manager for the key file at path.
func NewMasterKeyManager(path string, source configs.KeySource, log logger.Logger) *MasterKeyManager {
	return &MasterKeyManager{
		Path:     path,
		Override: source.Override,
		Logger:   log,
	}
}

func (m *MasterKeyManager) Name() string {
	return "master key"
}

// Passphrase implements PassphraseProvider.
func (m *MasterKeyManager) Passphrase() (string, error) {
	return m.ResolveOrCreate()
}

// Resolve returns the override or the persisted key without creating
// anything. A missing key file is reported as ErrConfig wrapping
// fs.ErrNotExist.
func (m *MasterKeyManager) Resolve() (string, error) {
	if override := strings.TrimSpace(m.Override); override != "" {
		return override, nil
	}

	existing, err := readMasterKey(m.Path)
	if err != nil {
		return "", fmt.Errorf("%w: cannot read master key: %w", kerrors.ErrConfig, err)
	}
	if existing == "" {
		return "", fmt.Errorf("%w: %w", kerrors.ErrConfig, kerrors.ErrEmptyMasterKey)
	}
	return existing, nil
}

// ReadOnly returns a provider backed by Resolve, for callers that must not
// create a key file.
func (m *MasterKeyManager) ReadOnly() PassphraseProvider {
	return readOnlyMasterKey{m}
}

type readOnlyMasterKey struct {
	m *MasterKeyManager
}

func (r readOnlyMasterKey) Name() string {
	return r.m.Name()
}

func (r readOnlyMasterKey) Passphrase() (string, error) {
	return r.m.Resolve()
}

// ResolveOrCreate returns the master key, generating and persisting a new one
// if none exists. Concurrent first-run callers, in this process or others,
// all return the key of whichever caller created the file.
func (m *MasterKeyManager) ResolveOrCreate() (string, error) {
	if override := strings.TrimSpace(m.Override); override != "" {
		return override, nil
	}

	existing, err := readMasterKey(m.Path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("%w: cannot read master key: %w", kerrors.ErrConfig, err)
	}
	if existing != "" {
		return existing, nil
	}

	dir := filepath.Dir(m.Path)
	if err := os.MkdirAll(dir, DirMode); err != nil {
		return "", fmt.Errorf("%w: cannot create config dir: %w", kerrors.ErrConfig, err)
	}
	if err := Restrict(dir, DirMode); err != nil {
		m.Logger.Warnf("%v", err)
	}

	masterKey, err := generateMasterKey()
	if err != nil {
		return "", err
	}

	file, err := os.OpenFile(m.Path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, FileMode)
	switch {
	case err == nil:
		return m.persist(file, masterKey)
	case errors.Is(err, fs.ErrExist):
		m.Logger.Debugf("Master key file already exists at %s, reading it back", m.Path)
		return m.readBack()
	default:
		return "", fmt.Errorf("%w: cannot create master key file: %w", kerrors.ErrConfig, err)
	}
}

func (m *MasterKeyManager) persist(file *os.File, masterKey string) (string, error) {
	_, writeErr := file.WriteString(masterKey)
	if writeErr == nil {
		writeErr = file.Sync()
	}
	closeErr := file.Close()
	if writeErr == nil {
		writeErr = closeErr
	}
	if writeErr != nil {
		// Leave no empty key file behind to wedge later runs.
		_ = os.Remove(m.Path)
		return "", fmt.Errorf("%w: cannot write master key: %w", kerrors.ErrConfig, writeErr)
	}

	if err := Restrict(m.Path, FileMode); err != nil {
		return "", err
	}

	m.Logger.Infof("Created new master key at %s", m.Path)
	return masterKey, nil
}

func (m *MasterKeyManager) readBack() (string, error) {
	for attempt := 0; attempt < readBackAttempts; attempt++ {
		if attempt > 0 {
			time.Sleep(readBackDelay)
		}
		existing, err := readMasterKey(m.Path)
		if err != nil {
			return "", fmt.Errorf("%w: cannot read existing master key: %w", kerrors.ErrConfig, err)
		}
		if existing != "" {
			return existing, nil
		}
	}
	return "", fmt.Errorf("%w: %w", kerrors.ErrConfig, kerrors.ErrEmptyMasterKey)
}

func readMasterKey(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

func generateMasterKey() (string, error) {
	keyBytes := make([]byte, masterKeySize)
	if _, err := rand.Read(keyBytes); err != nil {
		return "", fmt.Errorf("%w: cannot generate master key: %w", kerrors.ErrConfig, err)
	}
	return base64.StdEncoding.EncodeToString(keyBytes), nil
}
