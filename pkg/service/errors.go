package service

import (
	"context"
	"errors"
	"io/fs"
)

// ErrorKind classifies a failed session operation.
type ErrorKind string

const (
	KindNotFound         ErrorKind = "NotFound"
	KindPermissionDenied ErrorKind = "PermissionDenied"
	KindIOError          ErrorKind = "IOError"
	KindNotADirectory    ErrorKind = "NotADirectory"
	KindConflict         ErrorKind = "Conflict"
	KindInvalidName      ErrorKind = "InvalidName"
)

var (
	ErrNotADirectory   = errors.New("Not a directory")
	ErrConflict        = errors.New("A file or directory with that name already exists")
	ErrInvalidName     = errors.New("invalid name")
	ErrSessionNotFound = errors.New("session not found")
	ErrUnknownEndpoint = errors.New("unknown endpoint")
	ErrUnknownAction   = errors.New("unknown menu action")
	ErrNoOpener        = errors.New("external open is only available for local endpoints")
)

// OpError is the error returned by session operations. Its message is the
// underlying message, unchanged.
type OpError struct {
	Op   string
	Name string
	Kind ErrorKind
	Err  error
}

func (e *OpError) Error() string { return e.Err.Error() }

func (e *OpError) Unwrap() error { return e.Err }

func newOpError(op, name string, err error) *OpError {
	return &OpError{Op: op, Name: name, Kind: classify(err), Err: err}
}

// classify maps err to a kind. fs.ErrExist is left to the caller: it also
// matches ENOTEMPTY, which is only a conflict for rename.
func classify(err error) ErrorKind {
	switch {
	case errors.Is(err, ErrInvalidName):
		return KindInvalidName
	case errors.Is(err, ErrNotADirectory):
		return KindNotADirectory
	case errors.Is(err, ErrConflict):
		return KindConflict
	case errors.Is(err, fs.ErrNotExist):
		return KindNotFound
	case errors.Is(err, fs.ErrPermission):
		return KindPermissionDenied
	default:
		return KindIOError
	}
}

// KindOf returns the ErrorKind carried by err, classifying plain errors.
func KindOf(err error) ErrorKind {
	var oe *OpError
	if errors.As(err, &oe) {
		return oe.Kind
	}
	return classify(err)
}

func isCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
