package audit

import (
	"encoding/json"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/workdaydebrief/debrief/internal/utils"
)

// Outcomes recorded for every operation.
const (
	OutcomeOK     = "ok"
	OutcomeFailed = "failed"
)

// Entry represents a single audit log entry. Secret values are never recorded.
type Entry struct {
	ID        string `json:"id"`   // Random UUID identifying the entry.
	Timestamp string `json:"ts"`   // RFC3339 with microseconds.
	User      string `json:"user"` // Local username performing the action.
	Operation string `json:"op"`   // Operation name.
	Outcome   string `json:"outcome"`

	// Optional fields depending on operation.
	Name  string `json:"name,omitempty"`  // For set/get/delete.
	Count int    `json:"count,omitempty"` // For list/import.
	Path  string `json:"path,omitempty"`  // For export/import.
	Error string `json:"error,omitempty"` // Error category on failure.
}

// Log appends an entry to the audit log at path.
// Failures are swallowed: operations should not fail just because audit
// logging failed. The log's directory is never created here, so reads on a
// fresh install leave nothing behind; it exists once the vault is written.
func Log(path string, entry Entry) {
	if path == "" {
		return
	}

	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Timestamp == "" {
		entry.Timestamp = time.Now().UTC().Format("2006-01-02T15:04:05.000000Z")
	}
	if entry.Outcome == "" {
		entry.Outcome = OutcomeOK
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return
	}
	defer f.Close()

	data, err := json.Marshal(entry)
	if err != nil {
		return
	}

	_, _ = f.Write(append(data, '\n'))
}

// NewEntry returns an entry for op with the current user populated.
func NewEntry(op string) Entry {
	entry := Entry{Operation: op}

	if username, err := utils.GetUsername(); err == nil {
		entry.User = username
	}

	return entry
}

// ReadEntries reads all entries from the audit log at path.
// Returns an empty slice if the log doesn't exist.
func ReadEntries(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return ParseEntries(data)
}

// ParseEntries parses JSON Lines data into audit entries.
// Malformed lines are silently skipped.
func ParseEntries(data []byte) ([]Entry, error) {
	if len(data) == 0 {
		return nil, nil
	}

	var entries []Entry
	start := 0

	for i := 0; i <= len(data); i++ {
		if i == len(data) || data[i] == '\n' {
			line := data[start:i]
			start = i + 1

			if len(line) == 0 {
				continue
			}

			var entry Entry
			if err := json.Unmarshal(line, &entry); err != nil {
				// Skip malformed entries.
				continue
			}
			entries = append(entries, entry)
		}
	}

	return entries, nil
}
