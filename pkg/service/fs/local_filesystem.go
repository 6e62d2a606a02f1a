package fs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"strings"
)

// LocalFileSystem implements FileSystem for the host filesystem.
//
// A rooted instance maps "/" onto a host directory and never resolves a path
// outside of it; an unrooted one addresses the whole host.
type LocalFileSystem struct {
	root string // host directory mounted at "/", empty for the whole host
}

func NewLocalFileSystem() *LocalFileSystem { return &LocalFileSystem{} }

// NewRootedLocalFileSystem exposes dir as the filesystem root.
func NewRootedLocalFileSystem(dir string) (*LocalFileSystem, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	fi, err := os.Stat(abs)
	if err != nil {
		return nil, err
	}
	if !fi.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", abs)
	}
	return &LocalFileSystem{root: abs}, nil
}

func (l *LocalFileSystem) Root() string {
	if l.root == "" && runtime.GOOS == "windows" {
		if wd, err := os.Getwd(); err == nil {
			if vol := filepath.VolumeName(wd); vol != "" {
				return filepath.ToSlash(vol) + "/"
			}
		}
		return "C:/"
	}
	return "/"
}

func (l *LocalFileSystem) ReadDirNames(ctx context.Context, p string) ([]string, error) {
	_ = ctx
	host, err := l.HostPath(p)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(host)
	if err != nil {
		return nil, l.virtualize(err)
	}
	defer f.Close()
	// Readdirnames keeps the order the OS returns entries in.
	names, err := f.Readdirnames(-1)
	if err != nil {
		return nil, l.virtualize(err)
	}
	return names, nil
}

func (l *LocalFileSystem) Stat(ctx context.Context, p string) (*FileEntry, error) {
	_ = ctx
	host, err := l.HostPath(p)
	if err != nil {
		return nil, err
	}
	fi, err := os.Stat(host)
	if err != nil {
		return nil, l.virtualize(err)
	}
	return toFileEntry(p, fi), nil
}

func (l *LocalFileSystem) Lstat(ctx context.Context, p string) (*FileEntry, error) {
	_ = ctx
	host, err := l.HostPath(p)
	if err != nil {
		return nil, err
	}
	fi, err := os.Lstat(host)
	if err != nil {
		return nil, l.virtualize(err)
	}
	return toFileEntry(p, fi), nil
}

func (l *LocalFileSystem) RenameNoReplace(ctx context.Context, from string, to string) error {
	_ = ctx
	fromHost, err := l.HostPath(from)
	if err != nil {
		return err
	}
	toHost, err := l.HostPath(to)
	if err != nil {
		return err
	}
	return l.virtualize(renameNoReplace(fromHost, toHost))
}

func (l *LocalFileSystem) Remove(ctx context.Context, p string) error {
	_ = ctx
	host, err := l.HostPath(p)
	if err != nil {
		return err
	}
	if host == l.hostRoot() {
		return &os.PathError{Op: "remove", Path: p, Err: os.ErrPermission}
	}
	return l.virtualize(os.Remove(host))
}

func (l *LocalFileSystem) RemoveAll(ctx context.Context, p string) error {
	_ = ctx
	host, err := l.HostPath(p)
	if err != nil {
		return err
	}
	if host == l.hostRoot() {
		return &os.PathError{Op: "removeall", Path: p, Err: os.ErrPermission}
	}
	return l.virtualize(os.RemoveAll(host))
}

func (l *LocalFileSystem) OpenRead(ctx context.Context, p string) (io.ReadCloser, error) {
	_ = ctx
	host, err := l.HostPath(p)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(host)
	if err != nil {
		return nil, l.virtualize(err)
	}
	return f, nil
}

// HostPath maps an absolute slash path onto the host filesystem.
func (l *LocalFileSystem) HostPath(p string) (string, error) {
	p = strings.TrimSpace(p)
	if p == "" {
		return "", fmt.Errorf("path is empty")
	}
	p = filepath.ToSlash(p)
	if l.root != "" {
		if !strings.HasPrefix(p, "/") {
			return "", fmt.Errorf("path must be absolute: %s", p)
		}
		// Cleaning an absolute path drops every "..", so the result stays under root.
		return filepath.Join(l.root, filepath.FromSlash(path.Clean(p))), nil
	}
	host := filepath.Clean(filepath.FromSlash(p))
	if !filepath.IsAbs(host) {
		return "", fmt.Errorf("path must be absolute: %s", p)
	}
	return host, nil
}

func (l *LocalFileSystem) hostRoot() string {
	if l.root != "" {
		return l.root
	}
	return filepath.Clean(filepath.FromSlash(l.Root()))
}

// virtualPath is the inverse of HostPath for paths under the root.
func (l *LocalFileSystem) virtualPath(host string) string {
	if l.root == "" {
		return filepath.ToSlash(host)
	}
	rel, err := filepath.Rel(l.root, host)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return filepath.ToSlash(host)
	}
	return path.Join("/", filepath.ToSlash(rel))
}

// virtualize rewrites host paths in OS errors so messages show the paths the
// caller used.
func (l *LocalFileSystem) virtualize(err error) error {
	if err == nil || l.root == "" {
		return err
	}
	var pe *os.PathError
	if errors.As(err, &pe) {
		return &os.PathError{Op: pe.Op, Path: l.virtualPath(pe.Path), Err: pe.Err}
	}
	var le *os.LinkError
	if errors.As(err, &le) {
		return &os.LinkError{Op: le.Op, Old: l.virtualPath(le.Old), New: l.virtualPath(le.New), Err: le.Err}
	}
	return err
}

func toFileEntry(p string, fi os.FileInfo) *FileEntry {
	p = filepath.ToSlash(p)
	name := path.Base(p)
	if p == "/" || strings.HasSuffix(p, ":/") {
		name = p
	}
	return &FileEntry{
		Name:    name,
		Path:    p,
		IsDir:   fi.IsDir(),
		Size:    fi.Size(),
		ModTime: fi.ModTime(),
	}
}

var _ FileSystem = (*LocalFileSystem)(nil)
var _ HostPathMapper = (*LocalFileSystem)(nil)
