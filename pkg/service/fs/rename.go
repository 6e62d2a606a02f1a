package fs

import (
	"errors"
	iofs "io/fs"
	"os"
)

// renameIfAbsent checks the destination and then renames. Another process
// can still create the destination in between.
func renameIfAbsent(from, to string) error {
	if _, err := os.Lstat(to); err == nil {
		return &os.LinkError{Op: "rename", Old: from, New: to, Err: iofs.ErrExist}
	} else if !errors.Is(err, iofs.ErrNotExist) {
		return err
	}
	return os.Rename(from, to)
}
