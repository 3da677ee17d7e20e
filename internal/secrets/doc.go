// Package secrets provides the encrypted local vault for debrief.
//
// The vault is a single file, secrets.enc, holding a JSON object of
// name -> value pairs encrypted with an age scrypt (passphrase) recipient.
//
// # Master Key
//
// The passphrase is a random 32-byte key, base64 encoded, stored in
// master.key under the config directory with 0600 permissions. It is created
// on first use with an exclusive create, so concurrent first runs agree on a
// single key. An override supplied through configs.KeySource replaces the
// file entirely for the lifetime of the process.
//
// # Legacy Migration
//
// Older releases encrypted the vault with a passphrase derived from the app
// name, hostname and config directory. The Store accepts an ordered list of
// fallback PassphraseProviders; when one of them opens the file, the vault
// is immediately re-encrypted under the master key. Store.Inspect reports
// which provider would open the file without migrating it.
//
// # Concurrency
//
// Every operation loads, decrypts, mutates and rewrites the whole file.
// Writes go through a temp file and rename. Load-modify-save runs under a
// per-Store mutex and, on POSIX systems, an advisory flock on
// secrets.enc.lock, so concurrent writers never lose each other's updates.
//
// # Usage
//
//	store := secrets.NewStore(secrets.Options{
//	    SecretsPath: settings.SecretsPath(),
//	    Primary:     secrets.NewMasterKeyManager(settings.MasterKeyPath(), keySource, log),
//	    Fallbacks:   []secrets.PassphraseProvider{secrets.NewLegacyDeriver(settings.ConfigDir)},
//	    Logger:      log,
//	})
//	if err := store.Store(secrets.JiraAPIToken, token); err != nil {
//	    return err
//	}
package secrets
