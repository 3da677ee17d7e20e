package workflows

import (
	"context"
	"fmt"
	"slices"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/workdaydebrief/debrief/internal/audit"
	kerrors "github.com/workdaydebrief/debrief/internal/errors"
	"github.com/workdaydebrief/debrief/internal/secrets"
)

// SetOptions configures the set workflow.
type SetOptions struct {
	Name  string
	Value string
}

// SetResult contains the outcome of a set operation.
type SetResult struct {
	Name string

	// SecretsPath is the vault file that was written.
	SecretsPath string
}

// Set stores a secret, replacing any existing value under the same name.
//
// Returns ErrInvalidSecretName if the name is blank.
// Returns ErrDecryption if the existing vault cannot be opened with the
// current master key.
func Set(ctx context.Context, env Env, opts SetOptions) (*SetResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := validateName(opts.Name); err != nil {
		return nil, err
	}

	store := env.OpenVault()
	err := store.Store(opts.Name, opts.Value)

	entry := audit.NewEntry("set")
	entry.Name = opts.Name
	env.record(entry, err)

	if err != nil {
		return nil, err
	}

	env.Logger.Infof("Stored %s in %s", opts.Name, store.Path())
	return &SetResult{Name: opts.Name, SecretsPath: store.Path()}, nil
}

// GetResult contains the outcome of a get operation.
type GetResult struct {
	Name  string
	Value string
}

// Get returns the value stored under name.
//
// Returns ErrSecretNotFound if the name is not present.
func Get(ctx context.Context, env Env, name string) (*GetResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := validateName(name); err != nil {
		return nil, err
	}

	value, ok, err := env.OpenVault().Get(name)
	if err == nil && !ok {
		err = fmt.Errorf("%w: %s", kerrors.ErrSecretNotFound, name)
	}

	entry := audit.NewEntry("get")
	entry.Name = name
	env.record(entry, err)

	if err != nil {
		return nil, err
	}
	return &GetResult{Name: name, Value: value}, nil
}

// DeleteResult contains the outcome of a delete operation.
type DeleteResult struct {
	Name string

	// Existed reports whether the name was present before the delete.
	Existed bool
}

// Delete removes name from the vault. Deleting a name that is not present is
// not an error; the vault file is still rewritten.
func Delete(ctx context.Context, env Env, name string) (*DeleteResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := validateName(name); err != nil {
		return nil, err
	}

	store := env.OpenVault()
	_, existed, err := store.Get(name)
	if err == nil {
		err = store.Delete(name)
	}

	entry := audit.NewEntry("delete")
	entry.Name = name
	env.record(entry, err)

	if err != nil {
		return nil, err
	}
	return &DeleteResult{Name: name, Existed: existed}, nil
}

// ListOptions configures the list workflow.
type ListOptions struct {
	// Match filters names with a doublestar glob, e.g. "jira_*".
	Match string
}

// ListResult contains the outcome of a list operation.
type ListResult struct {
	// Names lists stored names in sorted order.
	Names []string

	// Unset lists well-known names that match but are not stored.
	Unset []string
}

// List returns the names stored in the vault. Values are never returned.
//
// Returns ErrInvalidPattern if Match is not a valid glob.
func List(ctx context.Context, env Env, opts ListOptions) (*ListResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if opts.Match != "" && !doublestar.ValidatePattern(opts.Match) {
		return nil, fmt.Errorf("%w: %q", kerrors.ErrInvalidPattern, opts.Match)
	}

	names, err := env.OpenVault().List()

	entry := audit.NewEntry("list")
	entry.Count = len(names)
	env.record(entry, err)

	if err != nil {
		return nil, err
	}

	result := &ListResult{Names: filterNames(names, opts.Match)}
	for _, known := range filterNames(secrets.KnownNames, opts.Match) {
		if !slices.Contains(names, known) {
			result.Unset = append(result.Unset, known)
		}
	}
	return result, nil
}

func filterNames(names []string, pattern string) []string {
	if pattern == "" {
		return slices.Clone(names)
	}

	var matched []string
	for _, name := range names {
		if ok, _ := doublestar.Match(pattern, name); ok {
			matched = append(matched, name)
		}
	}
	return matched
}
