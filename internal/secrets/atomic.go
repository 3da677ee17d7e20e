package secrets

import (
	"fmt"
	"os"
	"path/filepath"

	kerrors "github.com/workdaydebrief/debrief/internal/errors"
)

// writeFileAtomic replaces path with data via a synced temp file and rename,
// so a crash leaves either the old or the new contents, never a mix.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".secrets-*.tmp")
	if err != nil {
		return fmt.Errorf("%w: cannot create temp file: %w", kerrors.ErrIO, err)
	}
	tmpName := tmp.Name()

	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	if err := Restrict(tmpName, FileMode); err != nil {
		tmp.Close()
		return err
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: cannot write secrets file: %w", kerrors.ErrIO, err)
	}

	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: cannot sync secrets file: %w", kerrors.ErrIO, err)
	}

	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: cannot close secrets file: %w", kerrors.ErrIO, err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("%w: cannot replace secrets file: %w", kerrors.ErrIO, err)
	}

	committed = true
	return nil
}
