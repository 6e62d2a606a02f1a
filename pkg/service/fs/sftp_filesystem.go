package fs

import (
	"context"
	"errors"
	"fmt"
	"io"
	iofs "io/fs"
	"os"
	"path"
	"strings"

	"github.com/pkg/sftp"
)

// SFTPFileSystem implements FileSystem using an existing *sftp.Client.
//
// The client provisioning (SSH auth, pooling, etc.) lives in SFTPPool.
type SFTPFileSystem struct {
	client *sftp.Client
}

func NewSFTPFileSystem(client *sftp.Client) (*SFTPFileSystem, error) {
	if client == nil {
		return nil, fmt.Errorf("sftp client is nil")
	}
	return &SFTPFileSystem{client: client}, nil
}

func (s *SFTPFileSystem) Root() string { return "/" }

func (s *SFTPFileSystem) ReadDirNames(ctx context.Context, p string) ([]string, error) {
	_ = ctx
	remotePath, err := normalizeRemotePath(p)
	if err != nil {
		return nil, err
	}
	infos, err := s.client.ReadDir(remotePath)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(infos))
	for _, fi := range infos {
		if name := fi.Name(); name != "." && name != ".." {
			names = append(names, name)
		}
	}
	return names, nil
}

func (s *SFTPFileSystem) Stat(ctx context.Context, p string) (*FileEntry, error) {
	_ = ctx
	remotePath, err := normalizeRemotePath(p)
	if err != nil {
		return nil, err
	}
	fi, err := s.client.Stat(remotePath)
	if err != nil {
		return nil, err
	}
	return toFileEntry(remotePath, fi), nil
}

func (s *SFTPFileSystem) Lstat(ctx context.Context, p string) (*FileEntry, error) {
	_ = ctx
	remotePath, err := normalizeRemotePath(p)
	if err != nil {
		return nil, err
	}
	fi, err := s.client.Lstat(remotePath)
	if err != nil {
		return nil, err
	}
	return toFileEntry(remotePath, fi), nil
}

// RenameNoReplace checks the destination before renaming; SFTPv3 has no
// exclusive rename.
func (s *SFTPFileSystem) RenameNoReplace(ctx context.Context, from string, to string) error {
	_ = ctx
	fromP, err := normalizeRemotePath(from)
	if err != nil {
		return err
	}
	toP, err := normalizeRemotePath(to)
	if err != nil {
		return err
	}
	if _, err := s.client.Lstat(toP); err == nil {
		return &os.LinkError{Op: "rename", Old: fromP, New: toP, Err: iofs.ErrExist}
	} else if !errors.Is(err, iofs.ErrNotExist) {
		return err
	}
	return s.client.Rename(fromP, toP)
}

func (s *SFTPFileSystem) Remove(ctx context.Context, p string) error {
	_ = ctx
	remotePath, err := normalizeRemotePath(p)
	if err != nil {
		return err
	}
	fi, err := s.client.Lstat(remotePath)
	if err != nil {
		return err
	}
	if fi.IsDir() {
		return s.client.RemoveDirectory(remotePath)
	}
	return s.client.Remove(remotePath)
}

func (s *SFTPFileSystem) RemoveAll(ctx context.Context, p string) error {
	remotePath, err := normalizeRemotePath(p)
	if err != nil {
		return err
	}
	if remotePath == "/" {
		return &os.PathError{Op: "removeall", Path: remotePath, Err: iofs.ErrPermission}
	}
	return s.removeAll(ctx, remotePath)
}

func (s *SFTPFileSystem) removeAll(ctx context.Context, remotePath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	fi, err := s.client.Lstat(remotePath)
	if err != nil {
		if errors.Is(err, iofs.ErrNotExist) {
			return nil
		}
		return err
	}
	if !fi.IsDir() {
		return ignoreNotExist(s.client.Remove(remotePath))
	}
	children, err := s.client.ReadDir(remotePath)
	if err != nil && !errors.Is(err, iofs.ErrNotExist) {
		return err
	}
	for _, child := range children {
		if name := child.Name(); name != "." && name != ".." {
			if err := s.removeAll(ctx, joinRemote(remotePath, name)); err != nil {
				return err
			}
		}
	}
	return ignoreNotExist(s.client.RemoveDirectory(remotePath))
}

func (s *SFTPFileSystem) OpenRead(ctx context.Context, p string) (io.ReadCloser, error) {
	_ = ctx
	remotePath, err := normalizeRemotePath(p)
	if err != nil {
		return nil, err
	}
	return s.client.Open(remotePath)
}

var _ FileSystem = (*SFTPFileSystem)(nil)

// SFTPEndpointFileSystem resolves a pooled client for a named endpoint on
// every call, so a dropped connection is re-dialed transparently.
type SFTPEndpointFileSystem struct {
	pool     *SFTPPool
	endpoint string
}

func NewSFTPEndpointFileSystem(pool *SFTPPool, endpoint string) (*SFTPEndpointFileSystem, error) {
	if pool == nil {
		return nil, fmt.Errorf("sftp pool is nil")
	}
	if strings.TrimSpace(endpoint) == "" {
		return nil, fmt.Errorf("endpoint name is empty")
	}
	return &SFTPEndpointFileSystem{pool: pool, endpoint: endpoint}, nil
}

// do runs fn on the pooled client and drops that client when fn reports a
// lost connection.
func (e *SFTPEndpointFileSystem) do(ctx context.Context, fn func(*SFTPFileSystem) error) error {
	cli, err := e.pool.GetClient(ctx, e.endpoint)
	if err != nil {
		return err
	}
	sfs, err := NewSFTPFileSystem(cli)
	if err != nil {
		return err
	}
	if err := fn(sfs); err != nil {
		if isConnectionLost(err) {
			e.pool.Invalidate(e.endpoint, cli)
		}
		return err
	}
	return nil
}

func (e *SFTPEndpointFileSystem) Root() string { return "/" }

func (e *SFTPEndpointFileSystem) ReadDirNames(ctx context.Context, p string) (names []string, err error) {
	err = e.do(ctx, func(s *SFTPFileSystem) error {
		names, err = s.ReadDirNames(ctx, p)
		return err
	})
	return names, err
}

func (e *SFTPEndpointFileSystem) Stat(ctx context.Context, p string) (fe *FileEntry, err error) {
	err = e.do(ctx, func(s *SFTPFileSystem) error {
		fe, err = s.Stat(ctx, p)
		return err
	})
	return fe, err
}

func (e *SFTPEndpointFileSystem) Lstat(ctx context.Context, p string) (fe *FileEntry, err error) {
	err = e.do(ctx, func(s *SFTPFileSystem) error {
		fe, err = s.Lstat(ctx, p)
		return err
	})
	return fe, err
}

func (e *SFTPEndpointFileSystem) RenameNoReplace(ctx context.Context, from string, to string) error {
	return e.do(ctx, func(s *SFTPFileSystem) error {
		return s.RenameNoReplace(ctx, from, to)
	})
}

func (e *SFTPEndpointFileSystem) Remove(ctx context.Context, p string) error {
	return e.do(ctx, func(s *SFTPFileSystem) error {
		return s.Remove(ctx, p)
	})
}

func (e *SFTPEndpointFileSystem) RemoveAll(ctx context.Context, p string) error {
	return e.do(ctx, func(s *SFTPFileSystem) error {
		return s.RemoveAll(ctx, p)
	})
}

func (e *SFTPEndpointFileSystem) OpenRead(ctx context.Context, p string) (rc io.ReadCloser, err error) {
	err = e.do(ctx, func(s *SFTPFileSystem) error {
		rc, err = s.OpenRead(ctx, p)
		return err
	})
	return rc, err
}

var _ FileSystem = (*SFTPEndpointFileSystem)(nil)

// joinRemote joins a directory and a base path, ensuring a single '/' separator.
func joinRemote(dir string, base string) string {
	if dir == "" {
		return "/" + strings.TrimPrefix(base, "/")
	}
	if base == "" {
		return dir
	}
	if strings.HasSuffix(dir, "/") {
		return dir + strings.TrimPrefix(base, "/")
	}
	return dir + "/" + strings.TrimPrefix(base, "/")
}

// normalizeRemotePath cleans an absolute remote path.
func normalizeRemotePath(p string) (string, error) {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/", nil
	}
	p = strings.ReplaceAll(p, "\\", "/")
	if !strings.HasPrefix(p, "/") {
		return "", fmt.Errorf("path must be absolute")
	}
	return path.Clean(p), nil
}

func ignoreNotExist(err error) error {
	if errors.Is(err, iofs.ErrNotExist) {
		return nil
	}
	return err
}
