package workflows

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/workdaydebrief/debrief/internal/audit"
	kerrors "github.com/workdaydebrief/debrief/internal/errors"
	"github.com/workdaydebrief/debrief/internal/secrets"
)

// ExportOptions configures the export workflow.
type ExportOptions struct {
	// OutputPath is the path for the armored backup.
	// If empty, defaults to debrief-secrets-YYYY-MM-DD.age.
	OutputPath string

	// Force overwrites an existing file at OutputPath.
	Force bool
}

// ExportResult contains the outcome of an export operation.
type ExportResult struct {
	OutputPath string
}

// Export writes an ASCII-armored copy of the vault. The backup is still
// encrypted under the current master key and can only be imported by a
// vault using the same key.
//
// Returns ErrFileExists if OutputPath exists and Force is not set.
// Returns ErrIO if the vault has never been written.
func Export(ctx context.Context, env Env, opts ExportOptions) (*ExportResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	outputPath := opts.OutputPath
	if outputPath == "" {
		outputPath = fmt.Sprintf("debrief-secrets-%s.age", time.Now().Format("2006-01-02"))
	}

	err := exportTo(env.OpenVault(), outputPath, opts.Force)

	entry := audit.NewEntry("export")
	entry.Path = outputPath
	env.record(entry, err)

	if err != nil {
		return nil, err
	}
	return &ExportResult{OutputPath: outputPath}, nil
}

func exportTo(store *secrets.Store, outputPath string, force bool) error {
	flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	if !force {
		flags |= os.O_EXCL
	}

	f, err := os.OpenFile(outputPath, flags, secrets.FileMode)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("%w: %s (use --force to overwrite)", kerrors.ErrFileExists, outputPath)
		}
		return fmt.Errorf("%w: cannot create %s: %w", kerrors.ErrIO, outputPath, err)
	}

	if err := store.Export(f); err != nil {
		f.Close()
		_ = os.Remove(outputPath)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(outputPath)
		return fmt.Errorf("%w: cannot write %s: %w", kerrors.ErrIO, outputPath, err)
	}
	return nil
}

// ImportOptions configures the import workflow.
type ImportOptions struct {
	// InputPath is an armored or binary backup produced by Export.
	InputPath string
}

// ImportResult contains the outcome of an import operation.
type ImportResult struct {
	// Count is the number of secrets now in the vault.
	Count int
}

// Import replaces the vault contents with a backup. The current vault is
// left untouched if the backup cannot be opened with the current master key.
func Import(ctx context.Context, env Env, opts ImportOptions) (*ImportResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	count, err := importFrom(env.OpenVault(), opts.InputPath)

	entry := audit.NewEntry("import")
	entry.Path = opts.InputPath
	entry.Count = count
	env.record(entry, err)

	if err != nil {
		return nil, err
	}
	return &ImportResult{Count: count}, nil
}

func importFrom(store *secrets.Store, inputPath string) (int, error) {
	f, err := os.Open(inputPath)
	if err != nil {
		return 0, fmt.Errorf("%w: cannot open %s: %w", kerrors.ErrIO, inputPath, err)
	}
	defer f.Close()

	return store.Import(f)
}
