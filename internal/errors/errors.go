package errors

import "errors"

// Category errors classify every failure the vault can report. Callers match
// them with errors.Is; the concrete cause is wrapped alongside.
var (
	// ErrConfig indicates a required directory, path or master key could not
	// be resolved, created or read, or permissions could not be applied.
	ErrConfig = errors.New("vault configuration error")

	// ErrDecryption indicates the secrets file could not be decrypted with any
	// available passphrase, or is not in a recognised container format.
	ErrDecryption = errors.New("failed to decrypt secrets")

	// ErrSerialization indicates decrypted bytes are not valid UTF-8 JSON of
	// the expected shape, or the mapping could not be encoded.
	ErrSerialization = errors.New("invalid secrets encoding")

	// ErrIO indicates a read or write failure not covered by the other categories.
	ErrIO = errors.New("vault i/o error")
)

// Specific conditions, each also wrapped together with its category.
var (
	// ErrUnexpectedMethod indicates the secrets file is encrypted with
	// something other than a single passphrase recipient.
	ErrUnexpectedMethod = errors.New("secrets file is encrypted with unexpected method")

	// ErrEmptyMasterKey indicates the master key file exists but holds no key.
	ErrEmptyMasterKey = errors.New("master key file exists but is empty")

	// ErrInvalidSecretName indicates a secret name is empty or contains whitespace only.
	ErrInvalidSecretName = errors.New("invalid secret name")

	// ErrSecretNotFound indicates the requested secret is not stored in the vault.
	ErrSecretNotFound = errors.New("secret not found")

	// ErrInvalidPattern indicates a --match glob could not be parsed.
	ErrInvalidPattern = errors.New("invalid match pattern")

	// ErrFileExists indicates an export target already exists and --force was not given.
	ErrFileExists = errors.New("file already exists")
)
