package filesystem

import (
	"os"
	"time"
)

// CreateExclusive creates path for writing and fails if it already exists.
func CreateExclusive(path string, perm os.FileMode) (*os.File, error) {
	start := time.Now()
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm)
	observe().ObserveOperation(defaultResolver.Resolve(path), "create", time.Since(start).Seconds(), err)
	return f, err
}

// Rename moves oldPath to newPath. Both must be on the same volume.
func Rename(oldPath, newPath string) error {
	start := time.Now()
	err := os.Rename(oldPath, newPath)
	observe().ObserveOperation(defaultResolver.Resolve(newPath), "rename", time.Since(start).Seconds(), err)
	return err
}

// Remove deletes path. A path that is already gone is not an error.
func Remove(path string) error {
	start := time.Now()
	err := os.Remove(path)
	if os.IsNotExist(err) {
		err = nil
	}
	observe().ObserveOperation(defaultResolver.Resolve(path), "remove", time.Since(start).Seconds(), err)
	return err
}
