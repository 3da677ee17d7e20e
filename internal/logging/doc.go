// Package logger provides leveled logging for debrief commands and the vault.
//
// Verbosity is controlled by two flags:
//
//   - --verbose: Shows info and warning messages
//   - --debug: Shows all messages including debug details and errors
//
// Without flags only WarnfAlways output is shown.
//
// # Usage
//
//	log := Logger{Verbose: verbose, Debug: debug}
//	log.Infof("Loaded %d secrets", n)
//
// The zero Logger is silent apart from WarnfAlways, so library code can hold
// one without requiring callers to configure it. Secret values must never be
// passed to any log method.
package logger
