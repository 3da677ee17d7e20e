package secrets

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"sync"
	"testing"

	"filippo.io/age/armor"
	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/workdaydebrief/debrief/internal/configs"
	kerrors "github.com/workdaydebrief/debrief/internal/errors"
	logger "github.com/workdaydebrief/debrief/internal/logging"
)

// writeVault seals secrets under passphrase directly into the vault file.
func writeVault(t *testing.T, v testVault, passphrase string, plaintext []byte) {
	t.Helper()
	ciphertext, err := NewCipher(testWorkFactor).Encrypt(plaintext, passphrase)
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(v.dataDir, 0700))
	require.NoError(t, os.WriteFile(v.path, ciphertext, 0600))
}

// openVault decrypts the vault file with passphrase and decodes it.
func openVault(t *testing.T, v testVault, passphrase string) map[string]string {
	t.Helper()
	raw, err := os.ReadFile(v.path)
	require.NoError(t, err)
	plaintext, err := NewCipher(testWorkFactor).Decrypt(raw, passphrase)
	require.NoError(t, err)
	secrets, err := decodeSecrets(plaintext)
	require.NoError(t, err)
	return secrets
}

func TestStoreRoundTrip(t *testing.T) {
	v := newTestVault(t)
	s := v.store("", true)

	require.NoError(t, s.Store(JiraAPIToken, "abc123"))

	value, ok, err := s.Get(JiraAPIToken)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "abc123", value)

	// A fresh Store, as a restarted process would build.
	value, ok, err = v.store("", true).Get(JiraAPIToken)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "abc123", value)

	raw, err := os.ReadFile(v.path)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "abc123")
	assert.NotContains(t, string(raw), JiraAPIToken)
}

func TestStoreOverwriteAndDelete(t *testing.T) {
	v := newTestVault(t)
	s := v.store("", false)

	require.NoError(t, s.Store(SlackWebhookURL, "https://hooks/one"))
	require.NoError(t, s.Store(SMTPPassword, "hunter2"))
	require.NoError(t, s.Store(SlackWebhookURL, "https://hooks/two"))

	value, _, err := s.Get(SlackWebhookURL)
	require.NoError(t, err)
	assert.Equal(t, "https://hooks/two", value)

	require.NoError(t, s.Delete(SlackWebhookURL))

	_, ok, err := s.Get(SlackWebhookURL)
	require.NoError(t, err)
	assert.False(t, ok)

	value, ok, err = s.Get(SMTPPassword)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "hunter2", value)
}

func TestStoreEmptyValue(t *testing.T) {
	v := newTestVault(t)
	s := v.store("key", false)

	require.NoError(t, s.Store(JiraEmail, ""))

	value, ok, err := s.Get(JiraEmail)
	require.NoError(t, err)
	assert.True(t, ok, "an empty value is still present")
	assert.Empty(t, value)
}

func TestGetOnAbsentVaultHasNoSideEffects(t *testing.T) {
	v := newTestVault(t)
	s := v.store("", true)

	value, ok, err := s.Get(JiraAPIToken)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, value)

	names, err := s.List()
	require.NoError(t, err)
	assert.Empty(t, names)

	for _, path := range []string{v.keyPath, v.path, v.path + ".lock", v.dataDir, v.configDir} {
		_, err := os.Stat(path)
		assert.True(t, os.IsNotExist(err), "%s should not exist", path)
	}
}

func TestDeleteOnAbsentVaultCreatesFile(t *testing.T) {
	v := newTestVault(t)
	s := v.store("", false)

	require.NoError(t, s.Delete(JiraAPIToken))

	require.FileExists(t, v.path)
	require.FileExists(t, v.keyPath)

	key, err := os.ReadFile(v.keyPath)
	require.NoError(t, err)
	assert.Empty(t, openVault(t, v, string(key)))
}

func TestList(t *testing.T) {
	v := newTestVault(t)
	s := v.store("key", false)

	for _, name := range []string{TogglAPIToken, JiraEmail, SMTPPassword} {
		require.NoError(t, s.Store(name, "v"))
	}

	names, err := s.List()
	require.NoError(t, err)
	assert.Equal(t, []string{JiraEmail, SMTPPassword, TogglAPIToken}, names)
}

func TestLegacyMigration(t *testing.T) {
	color.NoColor = true
	v := newTestVault(t)

	legacyPassphrase, err := v.legacy().Derive()
	require.NoError(t, err)
	writeVault(t, v, legacyPassphrase, []byte(`{"smtp_password":"old-secret"}`))

	var warnings bytes.Buffer
	s := v.store("", true)
	s.log = logger.Logger{Out: &bytes.Buffer{}, Err: &warnings}

	value, ok, err := s.Get(SMTPPassword)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "old-secret", value)
	assert.Contains(t, warnings.String(), "re-encrypted")

	// The read migrated the file to the new master key.
	require.FileExists(t, v.keyPath)
	key, err := os.ReadFile(v.keyPath)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{SMTPPassword: "old-secret"}, openVault(t, v, string(key)))

	value, ok, err = v.store("", false).Get(SMTPPassword)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "old-secret", value)
}

func TestLegacyMigrationOnWrite(t *testing.T) {
	v := newTestVault(t)
	legacyPassphrase, err := v.legacy().Derive()
	require.NoError(t, err)
	writeVault(t, v, legacyPassphrase, []byte(`{"jira_email":"a@b.c"}`))

	require.NoError(t, v.store("override", true).Store(JiraAPIToken, "tok"))

	assert.Equal(t, map[string]string{
		JiraEmail:    "a@b.c",
		JiraAPIToken: "tok",
	}, openVault(t, v, "override"))
}

func TestLegacyFileWithoutFallback(t *testing.T) {
	v := newTestVault(t)
	legacyPassphrase, err := v.legacy().Derive()
	require.NoError(t, err)
	writeVault(t, v, legacyPassphrase, []byte(`{}`))

	_, _, err = v.store("", false).Get(SMTPPassword)
	require.Error(t, err)
	assert.ErrorIs(t, err, kerrors.ErrDecryption)
}

func TestAllCandidatesFailReturnsPrimaryError(t *testing.T) {
	v := newTestVault(t)
	writeVault(t, v, "someone-else", []byte(`{}`))

	s := NewStore(Options{
		SecretsPath: v.path,
		Primary:     staticPassphrase{name: "primary", passphrase: "primary"},
		Fallbacks: []PassphraseProvider{
			staticPassphrase{name: "wrong", passphrase: "wrong"},
			staticPassphrase{name: "also-wrong", passphrase: "also-wrong"},
		},
		Cipher: NewCipher(testWorkFactor),
		Logger: testLogger(),
	})

	_, _, err := s.Get(JiraAPIToken)
	require.Error(t, err)
	assert.ErrorIs(t, err, kerrors.ErrDecryption)
}

func TestFallbackDerivationFailureIsReturned(t *testing.T) {
	v := newTestVault(t)
	writeVault(t, v, "someone-else", []byte(`{}`))
	before, err := os.ReadFile(v.path)
	require.NoError(t, err)

	legacy := v.legacy()
	legacy.Hostname = func() (string, error) { return "", errors.New("no hostname") }
	s := NewStore(Options{
		SecretsPath: v.path,
		Primary:     NewMasterKeyManager(v.keyPath, configs.KeySource{Override: "override"}, testLogger()),
		Fallbacks:   []PassphraseProvider{legacy},
		Cipher:      NewCipher(testWorkFactor),
		Logger:      testLogger(),
	})

	_, _, err = s.Get(SMTPPassword)
	require.Error(t, err)
	assert.ErrorIs(t, err, kerrors.ErrConfig)
	assert.NotErrorIs(t, err, kerrors.ErrDecryption)
	assert.Contains(t, err.Error(), "no hostname")

	err = s.Store(SMTPPassword, "value")
	assert.ErrorIs(t, err, kerrors.ErrConfig)

	after, err := os.ReadFile(v.path)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestFallbackErrorWithoutCategoryIsWrapped(t *testing.T) {
	v := newTestVault(t)
	writeVault(t, v, "someone-else", []byte(`{}`))

	s := NewStore(Options{
		SecretsPath: v.path,
		Primary:     staticPassphrase{name: "primary", passphrase: "primary"},
		Fallbacks: []PassphraseProvider{
			staticPassphrase{name: "broken", err: errors.New("keyring unavailable")},
			staticPassphrase{name: "someone-else", passphrase: "someone-else"},
		},
		Cipher: NewCipher(testWorkFactor),
		Logger: testLogger(),
	})

	_, _, err := s.Get(JiraAPIToken)
	require.Error(t, err)
	assert.ErrorIs(t, err, kerrors.ErrConfig)
	assert.Contains(t, err.Error(), "broken")
	assert.Contains(t, err.Error(), "keyring unavailable")
}

func TestInspectDoesNotMigrate(t *testing.T) {
	v := newTestVault(t)
	legacyPassphrase, err := v.legacy().Derive()
	require.NoError(t, err)
	writeVault(t, v, legacyPassphrase, []byte(`{"smtp_password":"old","jira_email":"a@b.c"}`))
	before, err := os.ReadFile(v.path)
	require.NoError(t, err)

	manager := NewMasterKeyManager(v.keyPath, configs.KeySource{}, testLogger())
	s := NewStore(Options{
		SecretsPath: v.path,
		Primary:     manager.ReadOnly(),
		Fallbacks:   []PassphraseProvider{v.legacy()},
		Cipher:      NewCipher(testWorkFactor),
		Logger:      testLogger(),
	})

	inspection, err := s.Inspect()
	require.NoError(t, err)
	assert.True(t, inspection.Exists)
	assert.Equal(t, []string{JiraEmail, SMTPPassword}, inspection.Names)
	assert.Equal(t, v.legacy().Name(), inspection.OpenedWith)

	after, err := os.ReadFile(v.path)
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.NoFileExists(t, v.keyPath)
	assert.NoFileExists(t, v.path+".lock")
}

func TestInspect(t *testing.T) {
	t.Run("AbsentVault", func(t *testing.T) {
		v := newTestVault(t)
		inspection, err := v.store("", true).Inspect()
		require.NoError(t, err)
		assert.False(t, inspection.Exists)
		assert.Empty(t, inspection.Names)
		assert.NoDirExists(t, v.dataDir)
		assert.NoDirExists(t, v.configDir)
	})

	t.Run("PrimaryOpens", func(t *testing.T) {
		v := newTestVault(t)
		require.NoError(t, v.store("key", false).Store(JiraAPIToken, "tok"))

		inspection, err := v.store("key", true).Inspect()
		require.NoError(t, err)
		assert.True(t, inspection.Exists)
		assert.Equal(t, []string{JiraAPIToken}, inspection.Names)
		assert.Empty(t, inspection.OpenedWith)
	})

	t.Run("MissingKeyFile", func(t *testing.T) {
		v := newTestVault(t)
		writeVault(t, v, "lost-key", []byte(`{}`))

		manager := NewMasterKeyManager(v.keyPath, configs.KeySource{}, testLogger())
		s := NewStore(Options{
			SecretsPath: v.path,
			Primary:     manager.ReadOnly(),
			Cipher:      NewCipher(testWorkFactor),
			Logger:      testLogger(),
		})

		_, err := s.Inspect()
		require.Error(t, err)
		assert.ErrorIs(t, err, kerrors.ErrConfig)
		assert.ErrorIs(t, err, fs.ErrNotExist)
		assert.NoFileExists(t, v.keyPath)
	})
}

func TestFallbacksTriedInOrder(t *testing.T) {
	v := newTestVault(t)
	writeVault(t, v, "second", []byte(`{"k":"v"}`))

	s := NewStore(Options{
		SecretsPath: v.path,
		Primary:     staticPassphrase{name: "primary", passphrase: "primary"},
		Fallbacks: []PassphraseProvider{
			staticPassphrase{name: "first", passphrase: "first"},
			staticPassphrase{name: "second", passphrase: "second"},
		},
		Cipher: NewCipher(testWorkFactor),
		Logger: testLogger(),
	})

	value, ok, err := s.Get("k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", value)
	assert.Equal(t, map[string]string{"k": "v"}, openVault(t, v, "primary"))
}

func TestPrimaryDerivationFailure(t *testing.T) {
	v := newTestVault(t)
	writeVault(t, v, "anything", []byte(`{}`))

	wantErr := fmt.Errorf("%w: no key", kerrors.ErrConfig)
	s := NewStore(Options{
		SecretsPath: v.path,
		Primary:     staticPassphrase{name: "primary", err: wantErr},
		Cipher:      NewCipher(testWorkFactor),
		Logger:      testLogger(),
	})

	_, _, err := s.Get("k")
	assert.ErrorIs(t, err, kerrors.ErrConfig)
}

func TestTamperedVault(t *testing.T) {
	v := newTestVault(t)
	require.NoError(t, v.store("key", true).Store(JiraAPIToken, "abc123"))

	original, err := os.ReadFile(v.path)
	require.NoError(t, err)

	positions := []int{0, 30, len(original) / 2, len(original) - 1}
	for _, pos := range positions {
		t.Run(fmt.Sprintf("Byte%d", pos), func(t *testing.T) {
			tampered := bytes.Clone(original)
			tampered[pos] ^= 0xff
			require.NoError(t, os.WriteFile(v.path, tampered, 0600))

			s := v.store("key", true)

			_, _, err := s.Get(JiraAPIToken)
			assert.ErrorIs(t, err, kerrors.ErrDecryption)

			err = s.Store(JiraEmail, "a@b.c")
			assert.ErrorIs(t, err, kerrors.ErrDecryption)

			err = s.Delete(JiraAPIToken)
			assert.ErrorIs(t, err, kerrors.ErrDecryption)

			after, err := os.ReadFile(v.path)
			require.NoError(t, err)
			assert.Equal(t, tampered, after, "failed writes must leave the file untouched")
		})
	}
}

func TestOverrideIsIndependentOfKeyFile(t *testing.T) {
	t.Run("OverrideThenFile", func(t *testing.T) {
		v := newTestVault(t)
		require.NoError(t, v.store("env-key", false).Store(TogglAPIToken, "t"))

		_, err := os.Stat(v.keyPath)
		assert.True(t, os.IsNotExist(err))

		_, _, err = v.store("", false).Get(TogglAPIToken)
		assert.ErrorIs(t, err, kerrors.ErrDecryption)
	})

	t.Run("FileThenOverride", func(t *testing.T) {
		v := newTestVault(t)
		require.NoError(t, v.store("", false).Store(TogglAPIToken, "t"))

		key, err := os.ReadFile(v.keyPath)
		require.NoError(t, err)

		_, _, err = v.store("env-key", false).Get(TogglAPIToken)
		assert.ErrorIs(t, err, kerrors.ErrDecryption)

		after, err := os.ReadFile(v.keyPath)
		require.NoError(t, err)
		assert.Equal(t, key, after)
	})
}

func TestSerializationErrors(t *testing.T) {
	tests := []struct {
		name      string
		plaintext []byte
	}{
		{"NotJSON", []byte("not json")},
		{"Array", []byte(`["a","b"]`)},
		{"NonStringValue", []byte(`{"a":1}`)},
		{"InvalidUTF8", []byte{'{', '"', 0xff, 0xfe, '"', ':', '"', 'x', '"', '}'}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			v := newTestVault(t)
			writeVault(t, v, "key", tc.plaintext)

			_, _, err := v.store("key", false).Get(JiraAPIToken)
			require.Error(t, err)
			assert.ErrorIs(t, err, kerrors.ErrSerialization)
		})
	}
}

func TestNullPayloadIsEmptyVault(t *testing.T) {
	v := newTestVault(t)
	writeVault(t, v, "key", []byte("null"))

	s := v.store("key", false)
	_, ok, err := s.Get(JiraAPIToken)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Store(JiraAPIToken, "x"))
	assert.Equal(t, map[string]string{JiraAPIToken: "x"}, openVault(t, v, "key"))
}

func TestConcurrentWritesSingleStore(t *testing.T) {
	v := newTestVault(t)
	s := v.store("", false)

	const writers = 20
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs <- s.Store(fmt.Sprintf("name_%02d", i), fmt.Sprintf("value_%02d", i))
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	names, err := s.List()
	require.NoError(t, err)
	assert.Len(t, names, writers)
}

func TestExportImport(t *testing.T) {
	v := newTestVault(t)
	source := v.store("shared", false)
	require.NoError(t, source.Store(JiraAPIToken, "abc123"))
	require.NoError(t, source.Store(JiraEmail, "a@b.c"))

	var exported bytes.Buffer
	require.NoError(t, source.Export(&exported))
	assert.True(t, strings.HasPrefix(exported.String(), armor.Header))
	assert.NotContains(t, exported.String(), "abc123")

	target := newTestVault(t)
	ts := target.store("shared", false)
	require.NoError(t, ts.Store(TogglAPIToken, "replaced"))

	count, err := ts.Import(&exported)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	assert.Equal(t, map[string]string{
		JiraAPIToken: "abc123",
		JiraEmail:    "a@b.c",
	}, openVault(t, target, "shared"))
}

func TestImportWrongKeyLeavesVaultUntouched(t *testing.T) {
	v := newTestVault(t)
	var exported bytes.Buffer
	src := v.store("one", false)
	require.NoError(t, src.Store(JiraAPIToken, "abc123"))
	require.NoError(t, src.Export(&exported))

	target := newTestVault(t)
	ts := target.store("two", false)
	require.NoError(t, ts.Store(SMTPPassword, "keep"))
	before, err := os.ReadFile(target.path)
	require.NoError(t, err)

	_, err = ts.Import(&exported)
	assert.ErrorIs(t, err, kerrors.ErrDecryption)

	after, err := os.ReadFile(target.path)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestExportAbsentVault(t *testing.T) {
	v := newTestVault(t)

	err := v.store("key", false).Export(&bytes.Buffer{})
	assert.ErrorIs(t, err, kerrors.ErrIO)
}

func TestStoredJSONShape(t *testing.T) {
	v := newTestVault(t)
	require.NoError(t, v.store("key", false).Store(JiraAPIToken, "abc123"))

	raw, err := os.ReadFile(v.path)
	require.NoError(t, err)
	plaintext, err := NewCipher(testWorkFactor).Decrypt(raw, "key")
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(plaintext, &decoded))
	assert.Equal(t, map[string]any{JiraAPIToken: "abc123"}, decoded)
}

func TestNewStoreDefaults(t *testing.T) {
	s := NewStore(Options{
		SecretsPath: "/tmp/x/" + configs.SecretsFileName,
		Primary:     staticPassphrase{name: "p", passphrase: "p"},
	})

	assert.Equal(t, "/tmp/x/secrets.enc", s.Path())
	assert.NotNil(t, s.cipher)
	assert.Equal(t, "/tmp/x/secrets.enc.lock", s.lockPath)
}
