// Package artifacts removes the output of a previous run before a new one
// starts, so stale results can never be mistaken for fresh ones.
package artifacts

import (
	"errors"
	"fmt"
	"os"
)

// CleanupError reports a path that exists but could not be removed.
type CleanupError struct {
	Path string
	Err  error
}

func (e *CleanupError) Error() string {
	return fmt.Sprintf("failed to remove '%s': %v", e.Path, e.Err)
}

func (e *CleanupError) Unwrap() error {
	return e.Err
}

// Removed describes what Clean did with one path.
type Removed struct {
	Path string
	Dir  bool
}

// Clean deletes each path that exists: directories recursively, anything
// else as a single file. Absent paths are skipped. Clean stops at the first
// path that exists but cannot be removed and returns a *CleanupError.
func Clean(paths ...string) ([]Removed, error) {
	var removed []Removed

	for _, path := range paths {
		if path == "" {
			continue
		}

		info, err := os.Lstat(path)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return removed, &CleanupError{Path: path, Err: err}
		}

		if info.IsDir() {
			err = os.RemoveAll(path)
		} else {
			err = os.Remove(path)
		}
		if err != nil {
			return removed, &CleanupError{Path: path, Err: err}
		}

		removed = append(removed, Removed{Path: path, Dir: info.IsDir()})
	}

	return removed, nil
}
