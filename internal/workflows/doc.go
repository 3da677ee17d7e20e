// Package workflows provides high-level orchestration for debrief commands.
//
// Workflows coordinate multiple operations across packages (configs, secrets,
// audit) to implement complete user-facing features. Each workflow handles
// a single command's business logic, independent of CLI concerns like flag
// parsing, spinners, and output formatting.
//
// # Design Philosophy
//
// The cmd/ package should be a thin layer that:
//   - Parses command-line flags and arguments
//   - Builds an Env from settings, config.toml and the key override
//   - Calls the appropriate workflow function
//   - Formats the result for display
//
// Workflows handle everything else:
//   - Validating secret names and patterns
//   - Opening the vault with the right key and fallbacks
//   - Performing the core operation
//   - Recording audit trail entries
//
// # Available Workflows
//
//   - Set, Get, Delete: Single-secret operations
//   - List: Stored names, optionally filtered by a glob
//   - Export, Import: Armored backups of the encrypted vault
//   - Doctor: Health checks on keys, permissions and decryptability
//
// # Error Handling
//
// Workflows return typed errors from the internal/errors package. Use
// errors.Is() to check for specific error conditions:
//
//	result, err := workflows.Get(ctx, env, name)
//	if errors.Is(err, kerrors.ErrSecretNotFound) {
//	    // Suggest `debrief secrets set`
//	}
//
// # Context Usage
//
// All workflow functions accept a context.Context as their first parameter
// and return early if it is already cancelled.
package workflows
