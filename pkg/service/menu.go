package service

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/pkg/browser"

	"github.com/choraleia/filebrowser/pkg/config"
	"github.com/choraleia/filebrowser/pkg/event"
	"github.com/choraleia/filebrowser/pkg/models"
	fsimpl "github.com/choraleia/filebrowser/pkg/service/fs"
	"github.com/choraleia/filebrowser/pkg/utils"
)

// MenuAction is a context-menu command on one entry.
type MenuAction string

const (
	MenuOpen   MenuAction = "open"
	MenuRename MenuAction = "rename"
	MenuDelete MenuAction = "delete"
)

const (
	TargetNavigate = "navigate"
	TargetViewer   = "viewer"
	TargetExternal = "external"
	TargetPrompt   = "prompt"
)

const (
	ViewImage = "image"
	ViewText  = "text"
	ViewPDF   = "pdf"
	ViewError = "error"
)

// Opener hands a host file to the desktop's default application.
type Opener interface {
	Open(ctx context.Context, hostPath string) error
}

// SystemOpener opens files with xdg-open, open or the Windows shell.
type SystemOpener struct{}

func (SystemOpener) Open(ctx context.Context, hostPath string) error {
	_ = ctx
	return browser.OpenFile(hostPath)
}

// MenuService turns context-menu commands into notifications, and builds
// internal viewer payloads.
type MenuService struct {
	viewerKinds     map[string]string
	previewMaxBytes int64
	opener          Opener
	emitter         *event.Emitter
}

func NewMenuService(cfg *config.AppConfig, opener Opener, emitter *event.Emitter) *MenuService {
	if opener == nil {
		opener = SystemOpener{}
	}
	if emitter == nil {
		emitter = event.Global()
	}
	return &MenuService{
		viewerKinds:     cfg.ViewerKinds(),
		previewMaxBytes: cfg.PreviewMaxBytes(),
		opener:          opener,
		emitter:         emitter,
	}
}

// ViewerKind returns the internal viewer for name, or "" for external files.
func (m *MenuService) ViewerKind(name string) string {
	return m.viewerKinds[strings.ToLower(path.Ext(name))]
}

// Dispatch runs action on the named child of the session's current directory.
func (m *MenuService) Dispatch(ctx context.Context, sess *Session, action MenuAction, name string) (*models.MenuResult, error) {
	switch action {
	case MenuOpen:
		return m.open(ctx, sess, name)
	case MenuRename:
		if err := validateName(name); err != nil {
			return nil, newOpError("menu", name, err)
		}
		m.emitter.Emit(event.MenuRenameEvent{SessionID: sess.ID(), Name: name})
		return &models.MenuResult{Action: string(action), Target: TargetPrompt}, nil
	case MenuDelete:
		if err := validateName(name); err != nil {
			return nil, newOpError("menu", name, err)
		}
		m.emitter.Emit(event.MenuDeleteEvent{SessionID: sess.ID(), Name: name})
		return &models.MenuResult{Action: string(action), Target: TargetPrompt}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}
}

func (m *MenuService) open(ctx context.Context, sess *Session, name string) (*models.MenuResult, error) {
	fe, err := sess.StatChild(ctx, name)
	if err != nil {
		return nil, err
	}
	result := &models.MenuResult{Action: string(MenuOpen)}

	if fe.IsDir {
		m.emitter.Emit(event.MenuNavigateEvent{SessionID: sess.ID(), Name: name})
		result.Target = TargetNavigate
		return result, nil
	}

	if kind := m.ViewerKind(name); kind != "" {
		m.emitter.Emit(event.MenuViewFileEvent{SessionID: sess.ID(), Name: name, Kind: kind})
		result.Target = TargetViewer
		result.Kind = kind
		return result, nil
	}

	mapper, ok := sess.FileSystem().(fsimpl.HostPathMapper)
	if !ok {
		return nil, newOpError("open", name, ErrNoOpener)
	}
	hostPath, err := mapper.HostPath(fe.Path)
	if err != nil {
		return nil, newOpError("open", name, err)
	}
	if err := m.opener.Open(ctx, hostPath); err != nil {
		utils.GetLogger().Error("failed to open file", "path", hostPath, "error", err)
		return nil, newOpError("open", name, err)
	}
	result.Target = TargetExternal
	return result, nil
}

// Preview reads the named file for the internal viewer. Failures are
// reported in the payload with type "error".
func (m *MenuService) Preview(ctx context.Context, sess *Session, name string) *models.ViewPayload {
	fe, err := sess.StatChild(ctx, name)
	if err != nil {
		return &models.ViewPayload{Type: ViewError, Name: name, Error: err.Error()}
	}
	ext := strings.ToLower(path.Ext(name))
	payload := &models.ViewPayload{Name: name, Path: fe.Path, Extension: strings.TrimPrefix(ext, ".")}

	kind := m.ViewerKind(name)
	switch {
	case fe.IsDir:
		return previewError(payload, "%s is a directory", name)
	case kind == "":
		return previewError(payload, "no internal viewer for %q files", ext)
	case kind != ViewText && fe.Size > m.previewMaxBytes:
		return previewError(payload, "file is too large to preview (%d bytes)", fe.Size)
	}

	rc, err := sess.FileSystem().OpenRead(ctx, fe.Path)
	if err != nil {
		return previewError(payload, "%s", err.Error())
	}
	defer func() { _ = rc.Close() }()

	// One extra byte tells whether the file was cut.
	data, err := io.ReadAll(io.LimitReader(rc, m.previewMaxBytes+1))
	if err != nil {
		return previewError(payload, "%s", err.Error())
	}
	if int64(len(data)) > m.previewMaxBytes {
		data = data[:m.previewMaxBytes]
		payload.Truncated = true
	}

	payload.Type = kind
	if kind == ViewText {
		payload.Content = string(data)
	} else {
		payload.Content = base64.StdEncoding.EncodeToString(data)
	}
	return payload
}

func previewError(p *models.ViewPayload, format string, args ...any) *models.ViewPayload {
	p.Type = ViewError
	p.Error = fmt.Sprintf(format, args...)
	return p
}
