package models

import (
	"encoding/json"
	"time"
)

// EntryInfo is the metadata of a readable directory entry.
type EntryInfo struct {
	IsDir    bool
	Size     int64
	Modified time.Time
}

// Entry is one child of a listed directory. Info is nil when the entry's
// metadata could not be read; such entries still carry their name.
type Entry struct {
	Name string
	Info *EntryInfo
}

func OkEntry(name string, info EntryInfo) Entry {
	return Entry{Name: name, Info: &info}
}

func UnreadableEntry(name string) Entry {
	return Entry{Name: name}
}

func (e Entry) Unreadable() bool { return e.Info == nil }

func (e Entry) IsDir() bool { return e.Info != nil && e.Info.IsDir }

type wireEntry struct {
	Name        string     `json:"name"`
	IsDirectory bool       `json:"isDirectory"`
	Size        *int64     `json:"size,omitempty"`
	Modified    *time.Time `json:"modified,omitempty"`
	Error       bool       `json:"error,omitempty"`
}

// MarshalJSON writes unreadable entries as {name, isDirectory:false, error:true}.
func (e Entry) MarshalJSON() ([]byte, error) {
	w := wireEntry{Name: e.Name}
	if e.Info == nil {
		w.Error = true
	} else {
		size, mod := e.Info.Size, e.Info.Modified
		w.IsDirectory = e.Info.IsDir
		w.Size = &size
		w.Modified = &mod
	}
	return json.Marshal(w)
}

func (e *Entry) UnmarshalJSON(b []byte) error {
	var w wireEntry
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	e.Name = w.Name
	e.Info = nil
	if w.Error {
		return nil
	}
	info := EntryInfo{IsDir: w.IsDirectory}
	if w.Size != nil {
		info.Size = *w.Size
	}
	if w.Modified != nil {
		info.Modified = *w.Modified
	}
	e.Info = &info
	return nil
}

// Listing is the result of every navigation call. Files keeps the
// enumeration order of the backend. Error reports a directory-level failure.
type Listing struct {
	Path  string  `json:"path"`
	Files []Entry `json:"files"`
	Error string  `json:"error,omitempty"`
}

// Names returns the entry names in listing order.
func (l *Listing) Names() []string {
	names := make([]string, 0, len(l.Files))
	for _, f := range l.Files {
		names = append(names, f.Name)
	}
	return names
}

// Find returns the entry with the given name.
func (l *Listing) Find(name string) (Entry, bool) {
	for _, f := range l.Files {
		if f.Name == name {
			return f, true
		}
	}
	return Entry{}, false
}

// ErrorResult is returned in place of a listing when an operation fails.
type ErrorResult struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

type RenameResult struct {
	Success bool   `json:"success"`
	File    *Entry `json:"file,omitempty"`
	Error   string `json:"error,omitempty"`
	Kind    string `json:"kind,omitempty"`
}

type DeleteResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Kind    string `json:"kind,omitempty"`
}
