package secrets

import "os"

// Owner-only modes applied to vault directories and files.
const (
	DirMode  os.FileMode = 0700
	FileMode os.FileMode = 0600
)
