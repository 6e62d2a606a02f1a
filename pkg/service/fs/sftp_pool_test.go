package fs

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sync/atomic"
	"testing"
	"time"

	"github.com/choraleia/filebrowser/pkg/config"
	"github.com/pkg/sftp"
)

type staticEndpoints map[string]*config.EndpointConfig

func (s staticEndpoints) Endpoint(name string) (*config.EndpointConfig, bool) {
	ep, ok := s[name]
	return ep, ok
}

type pipeRWC struct {
	io.Reader
	io.WriteCloser
}

// pipeSFTP connects an sftp client to an in-process server over pipes.
func pipeSFTP(t *testing.T) *sftpClient {
	t.Helper()
	c2sR, c2sW := io.Pipe()
	s2cR, s2cW := io.Pipe()

	srv, err := sftp.NewServer(pipeRWC{Reader: c2sR, WriteCloser: s2cW})
	if err != nil {
		t.Fatalf("sftp.NewServer() error = %v", err)
	}
	go func() {
		_ = srv.Serve()
		_ = s2cW.Close()
	}()

	cli, err := sftp.NewClientPipe(s2cR, c2sW)
	if err != nil {
		t.Fatalf("sftp.NewClientPipe() error = %v", err)
	}
	t.Cleanup(func() { _ = cli.Close() })
	return &sftpClient{sftp: cli}
}

func newPipePool(t *testing.T) (*SFTPPool, *atomic.Int32) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("in-process sftp server needs slash-rooted temp paths")
	}
	var dials atomic.Int32
	pool := NewSFTPPool(staticEndpoints{"box": {Name: "box", Host: "box.invalid"}})
	pool.dial = func(ctx context.Context, ep *config.EndpointConfig) (*sftpClient, error) {
		dials.Add(1)
		return pipeSFTP(t), nil
	}
	t.Cleanup(pool.CloseAll)
	return pool, &dials
}

func TestSFTPPool_ReusesClient(t *testing.T) {
	pool, dials := newPipePool(t)
	ctx := context.Background()

	first, err := pool.GetClient(ctx, "box")
	if err != nil {
		t.Fatalf("GetClient() error = %v", err)
	}
	second, err := pool.GetClient(ctx, "box")
	if err != nil {
		t.Fatalf("GetClient() error = %v", err)
	}
	if first != second {
		t.Fatalf("GetClient() returned a new client for a live connection")
	}
	if n := dials.Load(); n != 1 {
		t.Fatalf("dials = %d, want 1", n)
	}
}

func TestSFTPPool_UnknownEndpoint(t *testing.T) {
	pool, dials := newPipePool(t)
	if _, err := pool.GetClient(context.Background(), "nope"); err == nil {
		t.Fatalf("GetClient(nope) error = nil, want failure")
	}
	if n := dials.Load(); n != 0 {
		t.Fatalf("dials = %d, want 0", n)
	}
}

func TestSFTPPool_SlowDialDoesNotBlockOtherEndpoints(t *testing.T) {
	release := make(chan struct{})
	pool := NewSFTPPool(staticEndpoints{
		"slow": {Name: "slow"},
		"fast": {Name: "fast"},
	})
	pool.dial = func(ctx context.Context, ep *config.EndpointConfig) (*sftpClient, error) {
		if ep.Name == "slow" {
			<-release
			return nil, errors.New("slow endpoint gave up")
		}
		return pipeSFTP(t), nil
	}
	t.Cleanup(pool.CloseAll)

	slowDone := make(chan struct{})
	go func() {
		defer close(slowDone)
		_, _ = pool.GetClient(context.Background(), "slow")
	}()

	fastDone := make(chan error, 1)
	go func() {
		cli, err := pool.GetClient(context.Background(), "fast")
		if err == nil {
			_, err = cli.Getwd()
		}
		fastDone <- err
	}()

	select {
	case err := <-fastDone:
		if err != nil {
			t.Fatalf("fast endpoint error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("fast endpoint blocked behind a stalled dial")
	}
	close(release)
	<-slowDone
}

func TestSFTPEndpointFileSystem_RedialsAfterLostConnection(t *testing.T) {
	pool, dials := newPipePool(t)
	efs, err := NewSFTPEndpointFileSystem(pool, "box")
	if err != nil {
		t.Fatalf("NewSFTPEndpointFileSystem() error = %v", err)
	}
	ctx := context.Background()

	dir := t.TempDir()
	file := filepath.ToSlash(filepath.Join(dir, "a.txt"))
	if err := os.WriteFile(file, []byte("hello"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	fe, err := efs.Stat(ctx, file)
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if fe.Size != 5 || fe.IsDir {
		t.Fatalf("Stat() = %+v, want 5-byte file", fe)
	}

	// Drop the pooled connection underneath the filesystem.
	cli, err := pool.GetClient(ctx, "box")
	if err != nil {
		t.Fatalf("GetClient() error = %v", err)
	}
	_ = cli.Close()

	if _, err := efs.Stat(ctx, file); !isConnectionLost(err) {
		t.Fatalf("Stat() on dropped connection error = %v, want connection lost", err)
	}
	if _, err := efs.Stat(ctx, file); err != nil {
		t.Fatalf("Stat() after redial error = %v", err)
	}
	if n := dials.Load(); n != 2 {
		t.Fatalf("dials = %d, want 2", n)
	}
}

func TestSFTPEndpointFileSystem_KeepsClientOnOrdinaryErrors(t *testing.T) {
	pool, dials := newPipePool(t)
	efs, err := NewSFTPEndpointFileSystem(pool, "box")
	if err != nil {
		t.Fatalf("NewSFTPEndpointFileSystem() error = %v", err)
	}
	ctx := context.Background()
	missing := filepath.ToSlash(filepath.Join(t.TempDir(), "missing"))

	for i := 0; i < 3; i++ {
		if _, err := efs.Stat(ctx, missing); !errors.Is(err, os.ErrNotExist) {
			t.Fatalf("Stat(missing) error = %v, want ErrNotExist", err)
		}
	}
	if n := dials.Load(); n != 1 {
		t.Fatalf("dials = %d, want 1", n)
	}
}
