package models

import "time"

// SessionInfo summarizes an open browsing session.
type SessionInfo struct {
	ID        string    `json:"id"`
	Endpoint  string    `json:"endpoint"`
	Path      string    `json:"path"`
	CreatedAt time.Time `json:"created_at"`
}

type CreateSessionRequest struct {
	Endpoint string `json:"endpoint"` // empty means "local"
}

type OpenDirectoryRequest struct {
	Name string `json:"name"`
}

type RenameRequest struct {
	OldName string `json:"old_name"`
	NewName string `json:"new_name"`
}

type DeleteRequest struct {
	Name string `json:"name"`
}

// MenuRequest is a context-menu action on one entry of the current directory.
type MenuRequest struct {
	Action string `json:"action" binding:"required"` // open, rename, delete
	Name   string `json:"name"`
}

// MenuResult tells the caller what the menu action resolved to.
type MenuResult struct {
	Action string `json:"action"`
	Target string `json:"target"` // navigate, viewer, external, prompt
	Kind   string `json:"kind,omitempty"`
}

// ViewPayload feeds the internal file viewer.
type ViewPayload struct {
	Type      string `json:"type"` // image, text, pdf, error
	Name      string `json:"name,omitempty"`
	Path      string `json:"path,omitempty"`
	Content   string `json:"content,omitempty"`
	Extension string `json:"extension,omitempty"`
	Truncated bool   `json:"truncated,omitempty"`
	Error     string `json:"error,omitempty"`
}
