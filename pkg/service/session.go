package service

import (
	"context"
	"errors"
	iofs "io/fs"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/choraleia/filebrowser/pkg/config"
	"github.com/choraleia/filebrowser/pkg/event"
	"github.com/choraleia/filebrowser/pkg/models"
	fsimpl "github.com/choraleia/filebrowser/pkg/service/fs"
	"github.com/choraleia/filebrowser/pkg/utils"
)

// Session is one browsing cursor over a filesystem backend.
//
// currentPath starts at the backend root and only changes through List,
// OpenDirectory and NavigateUp. The session lock guards currentPath alone;
// backend calls run on a snapshot of it. OpenDirectory commits only if the
// directory it resolved the name against is still current.
type Session struct {
	id        string
	endpoint  string
	fs        fsimpl.FileSystem
	statLimit int
	emitter   *event.Emitter
	logger    *slog.Logger
	createdAt time.Time

	mu          sync.Mutex
	currentPath string
}

// SessionOptions tune a new Session. Zero values fall back to defaults.
type SessionOptions struct {
	ID              string
	Endpoint        string
	StatConcurrency int
	Emitter         *event.Emitter
}

func NewSession(fs fsimpl.FileSystem, opts SessionOptions) *Session {
	if opts.StatConcurrency < 1 {
		opts.StatConcurrency = config.DefaultStatConcurrency
	}
	if opts.Endpoint == "" {
		opts.Endpoint = config.LocalEndpoint
	}
	if opts.Emitter == nil {
		opts.Emitter = event.Global()
	}
	return &Session{
		id:          opts.ID,
		endpoint:    opts.Endpoint,
		fs:          fs,
		statLimit:   opts.StatConcurrency,
		emitter:     opts.Emitter,
		logger:      utils.GetLogger().With("session", opts.ID, "endpoint", opts.Endpoint),
		createdAt:   time.Now(),
		currentPath: cleanPath("/", fs.Root()),
	}
}

func (s *Session) ID() string { return s.id }

func (s *Session) Endpoint() string { return s.endpoint }

func (s *Session) FileSystem() fsimpl.FileSystem { return s.fs }

func (s *Session) CurrentPath() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentPath
}

func (s *Session) Info() models.SessionInfo {
	return models.SessionInfo{
		ID:        s.id,
		Endpoint:  s.endpoint,
		Path:      s.CurrentPath(),
		CreatedAt: s.createdAt,
	}
}

// List returns the listing of the current directory. A non-empty path first
// becomes the current directory; relative paths are taken from the current one.
// The new path is kept even when it cannot be read.
func (s *Session) List(ctx context.Context, path string) *models.Listing {
	s.mu.Lock()
	if path != "" {
		s.currentPath = cleanPath(s.currentPath, path)
	}
	dir := s.currentPath
	s.mu.Unlock()
	return s.listDir(ctx, dir)
}

// OpenDirectory enters the named child of the current directory.
func (s *Session) OpenDirectory(ctx context.Context, name string) (*models.Listing, error) {
	if err := validateName(name); err != nil {
		return nil, newOpError("open", name, err)
	}
	for {
		base := s.CurrentPath()
		target := joinChild(base, name)
		fe, err := s.fs.Stat(ctx, target)
		if err != nil {
			return nil, newOpError("open", name, err)
		}
		if !fe.IsDir {
			return nil, newOpError("open", name, ErrNotADirectory)
		}
		if s.swapPath(base, target) {
			return s.listDir(ctx, target), nil
		}
		// Another call moved the session; resolve name against the new directory.
	}
}

// NavigateUp moves to the parent directory. At the root it only re-lists.
func (s *Session) NavigateUp(ctx context.Context) *models.Listing {
	s.mu.Lock()
	s.currentPath = parentOf(s.currentPath)
	dir := s.currentPath
	s.mu.Unlock()
	return s.listDir(ctx, dir)
}

// Rename renames a child of the current directory without replacing an
// existing entry, and returns the renamed entry.
func (s *Session) Rename(ctx context.Context, oldName, newName string) (*models.Entry, error) {
	for _, n := range []string{oldName, newName} {
		if err := validateName(n); err != nil {
			return nil, newOpError("rename", n, err)
		}
	}
	dir := s.CurrentPath()
	from := joinChild(dir, oldName)
	to := joinChild(dir, newName)

	if err := s.fs.RenameNoReplace(ctx, from, to); err != nil {
		if errors.Is(err, iofs.ErrExist) || errors.Is(err, ErrConflict) {
			return nil, &OpError{Op: "rename", Name: newName, Kind: KindConflict, Err: ErrConflict}
		}
		s.logger.Warn("rename failed", "from", from, "to", to, "error", err)
		return nil, newOpError("rename", oldName, err)
	}

	entry := models.UnreadableEntry(newName)
	if fe, err := s.fs.Stat(ctx, to); err == nil {
		entry = toEntry(newName, fe)
	} else {
		s.logger.Warn("stat after rename failed", "path", to, "error", err)
	}
	s.emitter.Emit(event.FSRenamedEvent{SessionID: s.id, OldPath: from, NewPath: to})
	return &entry, nil
}

// DeleteEntry permanently removes a child of the current directory.
// Directories are removed with their contents; symlinks are removed, not followed.
func (s *Session) DeleteEntry(ctx context.Context, name string) error {
	if err := validateName(name); err != nil {
		return newOpError("delete", name, err)
	}
	target := joinChild(s.CurrentPath(), name)
	fe, err := s.fs.Lstat(ctx, target)
	if err != nil {
		return newOpError("delete", name, err)
	}
	if fe.IsDir {
		err = s.fs.RemoveAll(ctx, target)
	} else {
		err = s.fs.Remove(ctx, target)
	}
	if err != nil {
		s.logger.Warn("delete failed", "path", target, "error", err)
		return newOpError("delete", name, err)
	}
	s.emitter.Emit(event.FSDeletedEvent{SessionID: s.id, Path: target, IsDir: fe.IsDir})
	return nil
}

// StatChild returns the metadata and absolute path of a child of the
// current directory, following symlinks.
func (s *Session) StatChild(ctx context.Context, name string) (*fsimpl.FileEntry, error) {
	if err := validateName(name); err != nil {
		return nil, newOpError("stat", name, err)
	}
	fe, err := s.fs.Stat(ctx, joinChild(s.CurrentPath(), name))
	if err != nil {
		return nil, newOpError("stat", name, err)
	}
	return fe, nil
}

func (s *Session) swapPath(old, next string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.currentPath != old {
		return false
	}
	s.currentPath = next
	return true
}

func (s *Session) listDir(ctx context.Context, dir string) *models.Listing {
	names, err := s.fs.ReadDirNames(ctx, dir)
	if err != nil {
		s.logger.Debug("read dir failed", "path", dir, "error", err)
		return &models.Listing{Path: dir, Files: []models.Entry{}, Error: err.Error()}
	}

	files := make([]models.Entry, len(names))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.statLimit)
	for i, name := range names {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			fe, err := s.fs.Stat(gctx, joinChild(dir, name))
			if err != nil {
				if isCanceled(err) {
					return err
				}
				files[i] = models.UnreadableEntry(name)
				return nil
			}
			files[i] = toEntry(name, fe)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return &models.Listing{Path: dir, Files: []models.Entry{}, Error: err.Error()}
	}
	return &models.Listing{Path: dir, Files: files}
}

func toEntry(name string, fe *fsimpl.FileEntry) models.Entry {
	return models.OkEntry(name, models.EntryInfo{
		IsDir:    fe.IsDir,
		Size:     fe.Size,
		Modified: fe.ModTime,
	})
}
