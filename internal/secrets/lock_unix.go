//go:build unix

package secrets

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	kerrors "github.com/workdaydebrief/debrief/internal/errors"
)

// lockFile takes an exclusive advisory lock on path, creating it if needed.
// The returned func releases the lock.
func lockFile(path string) (func(), error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, FileMode)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot open lock file: %w", kerrors.ErrIO, err)
	}

	for {
		err = unix.Flock(int(file.Fd()), unix.LOCK_EX)
		if !errors.Is(err, unix.EINTR) {
			break
		}
	}
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("%w: cannot lock %s: %w", kerrors.ErrIO, path, err)
	}

	return func() {
		_ = unix.Flock(int(file.Fd()), unix.LOCK_UN)
		_ = file.Close()
	}, nil
}
