package secrets

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"filippo.io/age"
	"filippo.io/age/armor"

	"github.com/workdaydebrief/debrief/internal/configs"
	kerrors "github.com/workdaydebrief/debrief/internal/errors"
)

const (
	ageVersionLine = "age-encryption.org/v1\n"
	scryptStanza   = "scrypt"

	// maxWorkFactor is the decryption ceiling. It does not follow the
	// configured work factor, so any vault opens without outside parameters.
	maxWorkFactor = configs.MaxScryptWorkFactor
)

// Cipher encrypts blobs under a passphrase using age's scrypt recipient.
// The output embeds its salt and work factor, so nothing else needs storing.
type Cipher struct {
	// WorkFactor is the log2 scrypt cost used by Encrypt. Zero keeps age's default.
	WorkFactor int
}

// NewCipher returns a Cipher using the given scrypt work factor.
func NewCipher(workFactor int) *Cipher {
	return &Cipher{WorkFactor: workFactor}
}

// Encrypt seals plaintext for the passphrase in the binary age format.
func (c *Cipher) Encrypt(plaintext []byte, passphrase string) ([]byte, error) {
	if c.WorkFactor < 0 || c.WorkFactor > maxWorkFactor {
		return nil, fmt.Errorf("%w: scrypt work factor %d is outside 0..%d", kerrors.ErrConfig, c.WorkFactor, maxWorkFactor)
	}

	recipient, err := age.NewScryptRecipient(passphrase)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot create encryptor: %w", kerrors.ErrConfig, err)
	}
	if c.WorkFactor > 0 {
		recipient.SetWorkFactor(c.WorkFactor)
	}

	var buf bytes.Buffer
	w, err := age.Encrypt(&buf, recipient)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot create encryptor: %w", kerrors.ErrIO, err)
	}
	if _, err := w.Write(plaintext); err != nil {
		return nil, fmt.Errorf("%w: cannot write encrypted data: %w", kerrors.ErrIO, err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("%w: cannot finalize encryption: %w", kerrors.ErrIO, err)
	}

	return buf.Bytes(), nil
}

// Decrypt opens a blob produced by Encrypt. ASCII-armored input is accepted
// as well. Every failure is reported as ErrDecryption, including files sealed
// to anything other than a single passphrase.
func (c *Cipher) Decrypt(ciphertext []byte, passphrase string) ([]byte, error) {
	data, err := Dearmor(ciphertext)
	if err != nil {
		return nil, err
	}

	method, err := recipientType(data)
	if err != nil {
		return nil, err
	}
	if method != scryptStanza {
		return nil, fmt.Errorf("%w: %w (%s)", kerrors.ErrDecryption, kerrors.ErrUnexpectedMethod, method)
	}

	identity, err := age.NewScryptIdentity(passphrase)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot create decryptor: %w", kerrors.ErrDecryption, err)
	}
	identity.SetMaxWorkFactor(maxWorkFactor)

	r, err := age.Decrypt(bytes.NewReader(data), identity)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot decrypt secrets: %w", kerrors.ErrDecryption, err)
	}

	plaintext, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot read decrypted data: %w", kerrors.ErrDecryption, err)
	}

	return plaintext, nil
}

// Armor wraps a binary age blob in the PEM-style ASCII armor.
func Armor(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := armor.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		return nil, fmt.Errorf("%w: cannot armor secrets: %w", kerrors.ErrIO, err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("%w: cannot armor secrets: %w", kerrors.ErrIO, err)
	}
	return buf.Bytes(), nil
}

// Dearmor returns data unchanged unless it starts with the armor header,
// in which case the decoded binary blob is returned.
func Dearmor(data []byte) ([]byte, error) {
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if !bytes.HasPrefix(trimmed, []byte(armor.Header)) {
		return data, nil
	}

	decoded, err := io.ReadAll(armor.NewReader(bytes.NewReader(trimmed)))
	if err != nil {
		return nil, fmt.Errorf("%w: invalid armored secrets: %w", kerrors.ErrDecryption, err)
	}
	return decoded, nil
}

// recipientType returns the type of the first recipient stanza in an age
// header, e.g. "scrypt" or "X25519".
func recipientType(data []byte) (string, error) {
	if !bytes.HasPrefix(data, []byte(ageVersionLine)) {
		return "", fmt.Errorf("%w: secrets file is not in a recognised format", kerrors.ErrDecryption)
	}

	line, _, _ := bytes.Cut(data[len(ageVersionLine):], []byte("\n"))
	fields := strings.Fields(string(line))
	if len(fields) < 2 || fields[0] != "->" {
		return "", fmt.Errorf("%w: malformed secrets header", kerrors.ErrDecryption)
	}

	return fields[1], nil
}
