//go:build !unix

package secrets

// lockFile is a no-op where flock is unavailable; callers still hold the
// per-Store mutex.
func lockFile(path string) (func(), error) {
	return func() {}, nil
}
