package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// ErrAlreadyRunning is returned when another process holds the instance lock.
var ErrAlreadyRunning = errors.New("another filebrowser instance is running")

// AcquireInstanceLock takes an exclusive lock on ~/.filebrowser/instance.lock
// so only one process uses the config dir and bookmark database.
// Call Unlock on the result at shutdown.
func AcquireInstanceLock() (*flock.Flock, error) {
	configDir, _, err := DefaultPaths()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(configDir, 0o700); err != nil {
		return nil, fmt.Errorf("create config dir %s: %w", configDir, err)
	}
	lock := flock.New(filepath.Join(configDir, "instance.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock %s: %w", lock.Path(), err)
	}
	if !locked {
		return nil, ErrAlreadyRunning
	}
	return lock, nil
}
