//go:build !unix

package secrets

import "os"

// Restrict is a no-op on platforms without POSIX permission bits.
func Restrict(path string, mode os.FileMode) error {
	return nil
}
