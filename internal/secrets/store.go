package secrets

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"unicode/utf8"

	kerrors "github.com/workdaydebrief/debrief/internal/errors"
	logger "github.com/workdaydebrief/debrief/internal/logging"
)

// PassphraseProvider supplies one candidate passphrase for the secrets file.
type PassphraseProvider interface {
	Name() string
	Passphrase() (string, error)
}

// Options configures a Store.
type Options struct {
	// SecretsPath is the encrypted secrets file.
	SecretsPath string

	// Primary encrypts every write and is tried first on every read.
	Primary PassphraseProvider

	// Fallbacks are tried in order when Primary cannot open the file. A
	// fallback that succeeds causes the file to be re-encrypted under Primary
	// before the read returns.
	Fallbacks []PassphraseProvider

	// Cipher defaults to NewCipher(0).
	Cipher *Cipher

	Logger logger.Logger
}

// Store is the encrypted name -> value vault. It keeps nothing in memory:
// each call loads, decrypts, optionally mutates and rewrites the whole file.
//
// Calls on one Store are serialized, and on POSIX systems an advisory lock on
// <secrets file>.lock serializes load-modify-save across Stores and processes.
type Store struct {
	path      string
	lockPath  string
	cipher    *Cipher
	primary   PassphraseProvider
	fallbacks []PassphraseProvider
	log       logger.Logger

	mu sync.Mutex
}

// NewStore returns a Store for opts.
func NewStore(opts Options) *Store {
	c := opts.Cipher
	if c == nil {
		c = NewCipher(0)
	}
	return &Store{
		path:      opts.SecretsPath,
		lockPath:  opts.SecretsPath + ".lock",
		cipher:    c,
		primary:   opts.Primary,
		fallbacks: opts.Fallbacks,
		log:       opts.Logger,
	}
}

// Path returns the secrets file path.
func (s *Store) Path() string {
	return s.path
}

// Get returns the value stored under name and whether it was present.
// Reading never creates the secrets file.
func (s *Store) Get(name string) (string, bool, error) {
	var (
		value string
		ok    bool
	)
	err := s.read(func(secrets map[string]string) {
		value, ok = secrets[name]
	})
	return value, ok, err
}

// List returns the stored names in sorted order. Values are never returned.
func (s *Store) List() ([]string, error) {
	var names []string
	err := s.read(func(secrets map[string]string) {
		names = make([]string, 0, len(secrets))
		for name := range secrets {
			names = append(names, name)
		}
	})
	sort.Strings(names)
	return names, err
}

// Store inserts or overwrites name.
func (s *Store) Store(name, value string) error {
	return s.update(func(secrets map[string]string) {
		secrets[name] = value
	})
}

// Delete removes name. Deleting an absent name still rewrites the file.
func (s *Store) Delete(name string) error {
	return s.update(func(secrets map[string]string) {
		delete(secrets, name)
	})
}

// Export writes the secrets file in ASCII-armored form. The export stays
// encrypted under the current master key.
func (s *Store) Export(w io.Writer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := os.Stat(s.path); errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: vault is empty, nothing to export", kerrors.ErrIO)
	}

	unlock, err := lockFile(s.lockPath)
	if err != nil {
		return err
	}
	defer unlock()

	// Loading first guarantees a legacy vault is migrated before it leaves.
	if _, err := s.load(); err != nil {
		return err
	}

	raw, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("%w: cannot read secrets file: %w", kerrors.ErrIO, err)
	}
	armored, err := Armor(raw)
	if err != nil {
		return err
	}
	if _, err := w.Write(armored); err != nil {
		return fmt.Errorf("%w: cannot write export: %w", kerrors.ErrIO, err)
	}
	return nil
}

// Import replaces the vault contents with a blob produced by Export (armored
// or binary). The blob must open under the current master key; nothing is
// written otherwise.
func (s *Store) Import(r io.Reader) (int, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return 0, fmt.Errorf("%w: cannot read import: %w", kerrors.ErrIO, err)
	}

	passphrase, err := s.primary.Passphrase()
	if err != nil {
		return 0, err
	}
	plaintext, err := s.cipher.Decrypt(raw, passphrase)
	if err != nil {
		return 0, err
	}
	secrets, err := decodeSecrets(plaintext)
	if err != nil {
		return 0, err
	}

	err = s.update(func(current map[string]string) {
		clear(current)
		for name, value := range secrets {
			current[name] = value
		}
	})
	return len(secrets), err
}

// Inspection describes the vault as it is on disk.
type Inspection struct {
	// Exists is false when there is no secrets file yet.
	Exists bool

	// Names are the stored names in sorted order.
	Names []string

	// OpenedWith names the fallback that decrypted the file, or is empty when
	// the primary did. A non-empty value means the next load will migrate.
	OpenedWith string
}

// Inspect decrypts the vault without writing anything: no migration, no lock
// file and no directories are created. Whether the primary creates a key is
// up to the provider; a primary reporting fs.ErrNotExist is treated as unable
// to decrypt, so fallbacks are still tried.
func (s *Store) Inspect() (*Inspection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &Inspection{}, nil
		}
		return nil, fmt.Errorf("%w: cannot read secrets file: %w", kerrors.ErrIO, err)
	}

	secrets, opener, err := s.open(raw, true)
	if err != nil {
		return nil, err
	}

	inspection := &Inspection{Exists: true, Names: make([]string, 0, len(secrets))}
	for name := range secrets {
		inspection.Names = append(inspection.Names, name)
	}
	sort.Strings(inspection.Names)
	if opener != nil {
		inspection.OpenedWith = opener.Name()
	}
	return inspection, nil
}

// read runs fn against the current mapping without writing, except for a
// legacy migration triggered by load.
func (s *Store) read(fn func(map[string]string)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := os.Stat(s.path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			fn(map[string]string{})
			return nil
		}
		return fmt.Errorf("%w: cannot stat secrets file: %w", kerrors.ErrIO, err)
	}

	unlock, err := lockFile(s.lockPath)
	if err != nil {
		return err
	}
	defer unlock()

	secrets, err := s.load()
	if err != nil {
		return err
	}
	fn(secrets)
	return nil
}

// update runs fn against the current mapping and persists the result.
func (s *Store) update(fn func(map[string]string)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureDir(); err != nil {
		return err
	}

	unlock, err := lockFile(s.lockPath)
	if err != nil {
		return err
	}
	defer unlock()

	secrets, err := s.load()
	if err != nil {
		return err
	}
	fn(secrets)
	return s.save(secrets)
}

// load reads and decrypts the secrets file. A file opened by a fallback is
// re-encrypted under the primary before load returns.
func (s *Store) load() (map[string]string, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("%w: cannot read secrets file: %w", kerrors.ErrIO, err)
	}

	secrets, opener, err := s.open(raw, false)
	if err != nil {
		return nil, err
	}
	if opener == nil {
		return secrets, nil
	}

	if err := s.save(secrets); err != nil {
		return nil, err
	}
	s.log.WarnfAlways("Secrets file was encrypted with the %s and has been re-encrypted with the %s",
		opener.Name(), s.primary.Name())
	return secrets, nil
}

// open decrypts raw with the primary passphrase, then with each fallback in
// turn. opener is the fallback that succeeded, or nil for the primary. When
// no candidate decrypts raw the primary's error is returned; a fallback whose
// passphrase cannot be derived fails the whole call.
//
// With missingPrimaryOK, a primary that reports fs.ErrNotExist counts as a
// failed decryption: a key that does not exist yet cannot open the file.
func (s *Store) open(raw []byte, missingPrimaryOK bool) (map[string]string, PassphraseProvider, error) {
	var primaryErr error
	primary, err := s.primary.Passphrase()
	switch {
	case err == nil:
		var plaintext []byte
		plaintext, primaryErr = s.cipher.Decrypt(raw, primary)
		if primaryErr == nil {
			secrets, err := decodeSecrets(plaintext)
			return secrets, nil, err
		}
	case missingPrimaryOK && errors.Is(err, fs.ErrNotExist):
		primaryErr = err
	default:
		return nil, nil, err
	}
	s.log.Debugf("%s could not open %s: %v", s.primary.Name(), s.path, primaryErr)

	for _, candidate := range s.fallbacks {
		passphrase, err := candidate.Passphrase()
		if err != nil {
			if errors.Is(err, kerrors.ErrConfig) {
				return nil, nil, err
			}
			return nil, nil, fmt.Errorf("%w: cannot derive %s: %w", kerrors.ErrConfig, candidate.Name(), err)
		}

		plaintext, err := s.cipher.Decrypt(raw, passphrase)
		if err != nil {
			s.log.Debugf("%s could not open %s: %v", candidate.Name(), s.path, err)
			continue
		}

		secrets, err := decodeSecrets(plaintext)
		if err != nil {
			return nil, nil, err
		}
		return secrets, candidate, nil
	}

	return nil, nil, primaryErr
}

func (s *Store) save(secrets map[string]string) error {
	passphrase, err := s.primary.Passphrase()
	if err != nil {
		return err
	}
	return s.write(secrets, passphrase)
}

func (s *Store) write(secrets map[string]string, passphrase string) error {
	data, err := json.Marshal(secrets)
	if err != nil {
		return fmt.Errorf("%w: cannot serialize secrets: %w", kerrors.ErrSerialization, err)
	}

	ciphertext, err := s.cipher.Encrypt(data, passphrase)
	if err != nil {
		return err
	}

	if err := s.ensureDir(); err != nil {
		return err
	}
	if err := writeFileAtomic(s.path, ciphertext); err != nil {
		return err
	}
	return Restrict(s.path, FileMode)
}

func (s *Store) ensureDir() error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, DirMode); err != nil {
		return fmt.Errorf("%w: cannot create secrets dir: %w", kerrors.ErrConfig, err)
	}
	if err := Restrict(dir, DirMode); err != nil {
		s.log.Warnf("%v", err)
	}
	return nil
}

func decodeSecrets(plaintext []byte) (map[string]string, error) {
	if !utf8.Valid(plaintext) {
		return nil, fmt.Errorf("%w: invalid UTF-8 in secrets", kerrors.ErrSerialization)
	}

	var secrets map[string]string
	if err := json.Unmarshal(plaintext, &secrets); err != nil {
		return nil, fmt.Errorf("%w: cannot parse secrets JSON: %w", kerrors.ErrSerialization, err)
	}
	if secrets == nil {
		secrets = map[string]string{}
	}
	return secrets, nil
}
