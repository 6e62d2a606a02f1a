package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/choraleia/filebrowser/pkg/config"
	fsimpl "github.com/choraleia/filebrowser/pkg/service/fs"
)

// FSRegistry builds FileSystem instances for endpoints.
//
// "local" maps to the host filesystem; every other name must be an SFTP
// endpoint from the config. SFTP connections are shared through one pool.
type FSRegistry struct {
	local    fsimpl.FileSystem
	sftpPool *fsimpl.SFTPPool
	cfg      *config.AppConfig
}

func NewFSRegistry(cfg *config.AppConfig) *FSRegistry {
	return NewFSRegistryWithLocal(cfg, fsimpl.NewLocalFileSystem())
}

// NewFSRegistryWithLocal uses local as the "local" endpoint.
func NewFSRegistryWithLocal(cfg *config.AppConfig, local fsimpl.FileSystem) *FSRegistry {
	if cfg == nil {
		cfg = &config.AppConfig{}
	}
	return &FSRegistry{
		local:    local,
		sftpPool: fsimpl.NewSFTPPool(cfg),
		cfg:      cfg,
	}
}

// ResolveEndpoint normalizes an endpoint name; empty means local.
func (r *FSRegistry) ResolveEndpoint(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || name == config.LocalEndpoint {
		return config.LocalEndpoint, nil
	}
	if _, ok := r.cfg.Endpoint(name); !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownEndpoint, name)
	}
	return name, nil
}

func (r *FSRegistry) Open(ctx context.Context, endpoint string) (fsimpl.FileSystem, error) {
	_ = ctx
	name, err := r.ResolveEndpoint(endpoint)
	if err != nil {
		return nil, err
	}
	if name == config.LocalEndpoint {
		return r.local, nil
	}
	return fsimpl.NewSFTPEndpointFileSystem(r.sftpPool, name)
}

// Endpoints lists "local" followed by the configured SFTP endpoints.
func (r *FSRegistry) Endpoints() []string {
	out := []string{config.LocalEndpoint}
	for _, ep := range r.cfg.Endpoints {
		out = append(out, ep.Name)
	}
	return out
}

func (r *FSRegistry) Close() {
	r.sftpPool.CloseAll()
}
