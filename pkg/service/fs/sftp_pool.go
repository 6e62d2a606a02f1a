package fs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/choraleia/filebrowser/pkg/config"
	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
)

// EndpointResolver looks up SFTP endpoint settings by name.
// *config.AppConfig implements it.
type EndpointResolver interface {
	Endpoint(name string) (*config.EndpointConfig, bool)
}

// SFTPPool keeps one SSH+SFTP connection per endpoint.
//
// The pool lock only guards the client map; no network call runs under it.
// A connection is replaced after a call on it reports the link as lost.
type SFTPPool struct {
	endpoints EndpointResolver
	dial      func(ctx context.Context, ep *config.EndpointConfig) (*sftpClient, error)

	mu      sync.Mutex
	clients map[string]*sftpClient
}

type sftpClient struct {
	ssh  *ssh.Client
	sftp *sftp.Client
}

func (c *sftpClient) close() {
	_ = c.sftp.Close()
	if c.ssh != nil {
		_ = c.ssh.Close()
	}
}

func NewSFTPPool(endpoints EndpointResolver) *SFTPPool {
	return &SFTPPool{endpoints: endpoints, dial: dialSFTP, clients: make(map[string]*sftpClient)}
}

func (p *SFTPPool) CloseAll() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for k, c := range p.clients {
		c.close()
		delete(p.clients, k)
	}
}

// GetClient returns the pooled client for endpoint, dialing on first use or
// after the previous connection was invalidated.
func (p *SFTPPool) GetClient(ctx context.Context, endpoint string) (*sftp.Client, error) {
	p.mu.Lock()
	cached, ok := p.clients[endpoint]
	p.mu.Unlock()
	if ok {
		return cached.sftp, nil
	}

	ep, ok := p.endpoints.Endpoint(endpoint)
	if !ok {
		return nil, fmt.Errorf("unknown sftp endpoint %q", endpoint)
	}

	fresh, err := p.dial(ctx, ep)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	// Another caller may have connected while we were dialing.
	if existing, ok := p.clients[endpoint]; ok {
		fresh.close()
		return existing.sftp, nil
	}
	p.clients[endpoint] = fresh
	return fresh.sftp, nil
}

// Invalidate drops cli from the pool if it is still the client for endpoint,
// so the next GetClient dials again.
func (p *SFTPPool) Invalidate(endpoint string, cli *sftp.Client) {
	p.mu.Lock()
	cached, ok := p.clients[endpoint]
	if !ok || cached.sftp != cli {
		p.mu.Unlock()
		return
	}
	delete(p.clients, endpoint)
	p.mu.Unlock()
	cached.close()
}

func isConnectionLost(err error) bool {
	return errors.Is(err, sftp.ErrSSHFxConnectionLost) ||
		errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, io.ErrClosedPipe) ||
		errors.Is(err, net.ErrClosed)
}

func dialSFTP(ctx context.Context, ep *config.EndpointConfig) (*sftpClient, error) {
	sshClient, err := dialSSH(ctx, ep)
	if err != nil {
		return nil, err
	}
	sftpCli, err := sftp.NewClient(sshClient)
	if err != nil {
		_ = sshClient.Close()
		return nil, fmt.Errorf("create sftp client: %w", err)
	}
	return &sftpClient{ssh: sshClient, sftp: sftpCli}, nil
}

func dialSSH(ctx context.Context, ep *config.EndpointConfig) (*ssh.Client, error) {
	auth, err := sshAuthMethods(ep)
	if err != nil {
		return nil, err
	}

	sshConfig := &ssh.ClientConfig{
		User:            ep.Username,
		Auth:            auth,
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         ep.Timeout(),
	}

	port := ep.Port
	if port == 0 {
		port = 22
	}
	addr := net.JoinHostPort(ep.Host, strconv.Itoa(port))
	dialer := &net.Dialer{Timeout: sshConfig.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial ssh tcp: %w", err)
	}

	c, chans, reqs, err := ssh.NewClientConn(conn, addr, sshConfig)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ssh handshake: %w", err)
	}
	return ssh.NewClient(c, chans, reqs), nil
}

func sshAuthMethods(ep *config.EndpointConfig) ([]ssh.AuthMethod, error) {
	var auth []ssh.AuthMethod
	if ep.PrivateKeyPath != "" {
		signer, err := loadPrivateKeyFromFile(expandHome(ep.PrivateKeyPath), ep.Passphrase)
		if err != nil {
			return nil, fmt.Errorf("load private key %s: %w", ep.PrivateKeyPath, err)
		}
		auth = append(auth, ssh.PublicKeys(signer))
	}
	if ep.Password != "" {
		auth = append(auth, ssh.Password(ep.Password))
	}
	if len(auth) == 0 {
		auth = append(auth, ssh.Password(""))
	}
	return auth, nil
}

func loadPrivateKeyFromFile(path string, passphrase string) (ssh.Signer, error) {
	key, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return parsePrivateKey(key, passphrase)
}

func parsePrivateKey(keyData []byte, passphrase string) (ssh.Signer, error) {
	signer, err := ssh.ParsePrivateKey(keyData)
	if err == nil {
		return signer, nil
	}
	if passphrase == "" {
		return nil, err
	}
	return ssh.ParsePrivateKeyWithPassphrase(keyData, []byte(passphrase))
}

func expandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}
