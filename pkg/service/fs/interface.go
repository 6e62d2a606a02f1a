package fs

import (
	"context"
	"io"
	"time"
)

// FileEntry describes one file or directory.
//
// Path semantics:
//   - Paths use forward slashes (POSIX-style).
//   - All paths are absolute: "/" based, or "C:/" based for unrooted local
//     filesystems on Windows.
type FileEntry struct {
	Name    string
	Path    string
	IsDir   bool
	Size    int64
	ModTime time.Time
}

// FileSystem abstracts the calls a browsing session makes against a backend.
//
// All methods accept absolute slash paths. Errors keep the fs.ErrNotExist,
// fs.ErrPermission and fs.ErrExist identities of the underlying failure.
type FileSystem interface {
	// Root is the top of the tree, where a new session starts.
	Root() string
	// ReadDirNames enumerates the children of a directory in backend order.
	ReadDirNames(ctx context.Context, path string) ([]string, error)
	// Stat follows symlinks.
	Stat(ctx context.Context, path string) (*FileEntry, error)
	// Lstat does not follow symlinks.
	Lstat(ctx context.Context, path string) (*FileEntry, error)
	// RenameNoReplace fails with an fs.ErrExist error if to is occupied.
	RenameNoReplace(ctx context.Context, from string, to string) error
	// Remove deletes a file, symlink or empty directory.
	Remove(ctx context.Context, path string) error
	// RemoveAll deletes path and all descendants. Missing entries are not an error.
	RemoveAll(ctx context.Context, path string) error
	OpenRead(ctx context.Context, path string) (io.ReadCloser, error)
}

// HostPathMapper is implemented by backends whose paths map onto the host
// filesystem, so files can be handed to desktop applications.
type HostPathMapper interface {
	HostPath(path string) (string, error)
}
