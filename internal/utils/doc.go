// Package utils provides small operating-system helpers for debrief.
//
// # System Utilities
//
//   - GetUsername: returns the current system username
//   - GetHostname: returns the system hostname (feeds the legacy passphrase)
//
// # I/O Utilities
//
//   - ReadStdin: reads a piped secret value from standard input
//   - ReadValue: reads a value from any reader, trimming one trailing newline
//
// # Terminal Utilities
//
//   - ReadHidden: prompts for a value without echoing it
//   - IsTerminal: checks if stdin is a terminal
package utils
