package service

import (
	"fmt"
	"path"
	"strings"
)

// cleanPath normalizes an absolute slash path. Relative paths are resolved
// against base.
func cleanPath(base, p string) string {
	p = strings.ReplaceAll(strings.TrimSpace(p), "\\", "/")
	if !isAbs(p) {
		p = joinChild(base, p)
	}
	vol, rest := splitVolume(p)
	cleaned := path.Clean("/" + strings.TrimPrefix(rest, "/"))
	return vol + cleaned
}

// joinChild appends name to dir with a single separator.
func joinChild(dir, name string) string {
	if strings.HasSuffix(dir, "/") {
		return dir + name
	}
	return dir + "/" + name
}

// parentOf returns the parent directory; the root is its own parent.
func parentOf(p string) string {
	vol, rest := splitVolume(p)
	if rest == "" {
		rest = "/"
	}
	return vol + path.Dir(rest)
}

func isAbs(p string) bool {
	if strings.HasPrefix(p, "/") {
		return true
	}
	vol, rest := splitVolume(p)
	return vol != "" && strings.HasPrefix(rest, "/")
}

// splitVolume separates a Windows drive prefix ("C:") from the rest.
func splitVolume(p string) (string, string) {
	if len(p) >= 2 && p[1] == ':' && isLetter(p[0]) {
		return p[:2], p[2:]
	}
	return "", p
}

func isLetter(c byte) bool {
	return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

// validateName accepts a single path component.
func validateName(name string) error {
	switch {
	case name == "":
		return fmt.Errorf("%w: name is empty", ErrInvalidName)
	case name == "." || name == "..":
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	case strings.ContainsAny(name, "/\\"):
		return fmt.Errorf("%w: %q contains a path separator", ErrInvalidName, name)
	case strings.ContainsRune(name, 0):
		return fmt.Errorf("%w: %q contains a NUL byte", ErrInvalidName, name)
	}
	return nil
}
