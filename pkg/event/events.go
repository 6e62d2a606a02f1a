package event

const (
	SessionCreated   = "session.created"
	SessionClosed    = "session.closed"
	FSRenamed        = "fs.renamed"
	FSDeleted        = "fs.deleted"
	MenuNavigate     = "menu.navigate"
	MenuRename       = "menu.rename"
	MenuDelete       = "menu.delete"
	MenuViewFile     = "menu.viewFile"
	BookmarksChanged = "bookmarks.changed"
)

// SessionCreatedEvent is emitted when a browsing session is opened.
type SessionCreatedEvent struct {
	SessionID string `json:"session_id"`
	Endpoint  string `json:"endpoint"`
}

func (e SessionCreatedEvent) EventName() string { return SessionCreated }

type SessionClosedEvent struct {
	SessionID string `json:"session_id"`
}

func (e SessionClosedEvent) EventName() string { return SessionClosed }

// FSRenamedEvent is emitted after a successful rename inside a session.
type FSRenamedEvent struct {
	SessionID string `json:"session_id"`
	OldPath   string `json:"old_path"`
	NewPath   string `json:"new_path"`
}

func (e FSRenamedEvent) EventName() string { return FSRenamed }

// FSDeletedEvent is emitted after an entry was removed.
type FSDeletedEvent struct {
	SessionID string `json:"session_id"`
	Path      string `json:"path"`
	IsDir     bool   `json:"is_dir"`
}

func (e FSDeletedEvent) EventName() string { return FSDeleted }

// MenuNavigateEvent asks the view to open the named directory.
type MenuNavigateEvent struct {
	SessionID string `json:"session_id"`
	Name      string `json:"name"`
}

func (e MenuNavigateEvent) EventName() string { return MenuNavigate }

// MenuRenameEvent asks the view to prompt for a new name.
type MenuRenameEvent struct {
	SessionID string `json:"session_id"`
	Name      string `json:"name"`
}

func (e MenuRenameEvent) EventName() string { return MenuRename }

// MenuDeleteEvent asks the view to confirm and delete the entry.
type MenuDeleteEvent struct {
	SessionID string `json:"session_id"`
	Name      string `json:"name"`
}

func (e MenuDeleteEvent) EventName() string { return MenuDelete }

// MenuViewFileEvent asks the view to open the entry in the internal viewer.
type MenuViewFileEvent struct {
	SessionID string `json:"session_id"`
	Name      string `json:"name"`
	Kind      string `json:"kind"` // "image", "text", "pdf"
}

func (e MenuViewFileEvent) EventName() string { return MenuViewFile }

type BookmarksChangedEvent struct{}

func (e BookmarksChangedEvent) EventName() string { return BookmarksChanged }
