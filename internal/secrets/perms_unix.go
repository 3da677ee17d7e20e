//go:build unix

package secrets

import (
	"fmt"
	"os"

	kerrors "github.com/workdaydebrief/debrief/internal/errors"
)

// Restrict sets path to mode. Data already written stays valid if this fails.
func Restrict(path string, mode os.FileMode) error {
	if err := os.Chmod(path, mode); err != nil {
		return fmt.Errorf("%w: cannot set secure permissions on %s: %w", kerrors.ErrConfig, path, err)
	}
	return nil
}
