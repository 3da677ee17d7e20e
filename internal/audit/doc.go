// Package audit provides an audit trail for vault operations.
//
// Every vault operation (set, get, delete, list, export, import) is recorded
// in audit.jsonl next to the encrypted secrets file, unless disabled with
// `audit = false` in the [vault] section of config.toml.
//
// # Log Format
//
// The audit log is JSON Lines (one JSON object per line). Each entry contains:
//   - A random UUID
//   - Timestamp (RFC3339 with microseconds, UTC)
//   - Local username
//   - Operation name and outcome
//   - The secret name, count or path involved
//
// Secret values are never written to the audit log.
//
// # Usage
//
//	entry := audit.NewEntry("set")
//	entry.Name = name
//	audit.Log(settings.AuditLogPath(), entry)
//
// # Failure Handling
//
// Audit logging is best-effort. If logging fails (permissions, disk full,
// etc.), the operation continues without error.
//
// # Reading Logs
//
// Use ReadEntries() to parse the audit log for display or analysis.
// Malformed entries are silently skipped to handle partial writes.
package audit
