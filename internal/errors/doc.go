// Package errors provides typed error values for the debrief vault.
//
// Every vault operation returns one of four category errors, wrapped together
// with the underlying cause:
//
//   - ErrConfig: directories, master key file, permissions
//   - ErrDecryption: ciphertext did not open under any candidate passphrase
//   - ErrSerialization: decrypted payload is not a JSON string map
//   - ErrIO: everything else the filesystem can throw at us
//
// # Usage
//
// Wrap with the category first so errors.Is works for both levels:
//
//	return fmt.Errorf("%w: reading master key: %w", kerrors.ErrConfig, err)
//
// Handle errors in the CLI layer:
//
//	value, err := workflows.Get(ctx, env, name)
//	if errors.Is(err, kerrors.ErrDecryption) {
//	    // The vault exists but cannot be opened with this key.
//	}
package errors
