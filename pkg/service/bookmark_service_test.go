package service

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/choraleia/filebrowser/pkg/config"
	"github.com/choraleia/filebrowser/pkg/db"
	"github.com/choraleia/filebrowser/pkg/event"
	"github.com/choraleia/filebrowser/pkg/models"
)

func newTestBookmarks(t *testing.T) *BookmarkService {
	t.Helper()
	gdb, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("db.Open() error = %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	cfg := &config.AppConfig{Endpoints: []config.EndpointConfig{{Name: "nas", Host: "h", Username: "u"}}}
	reg := NewFSRegistry(cfg)
	t.Cleanup(reg.Close)
	return NewBookmarkService(gdb, reg, event.NewEmitter())
}

func bookmarkNames(list []db.Bookmark) string {
	names := make([]string, 0, len(list))
	for _, b := range list {
		names = append(names, b.Name)
	}
	return strings.Join(names, ",")
}

func TestBookmarkService_CreateAndList(t *testing.T) {
	svc := newTestBookmarks(t)

	a, err := svc.Create(&models.CreateBookmarkRequest{Path: "/home/user/docs/"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if a.Name != "docs" || a.Path != "/home/user/docs" || a.Endpoint != "local" || a.Order != 0 {
		t.Fatalf("Create() = %+v", a)
	}
	b, err := svc.Create(&models.CreateBookmarkRequest{Endpoint: "nas", Path: "/", Name: "NAS root"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if b.Order != 1 || b.Endpoint != "nas" {
		t.Fatalf("Create() = %+v", b)
	}

	list, err := svc.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if got := bookmarkNames(list); got != "docs,NAS root" {
		t.Fatalf("List() = %s", got)
	}
}

func TestBookmarkService_CreateRejects(t *testing.T) {
	svc := newTestBookmarks(t)

	for _, req := range []models.CreateBookmarkRequest{
		{Path: "relative/dir"},
		{Path: ""},
		{Path: "/x", Endpoint: "unknown"},
	} {
		if _, err := svc.Create(&req); !errors.Is(err, ErrInvalidBookmark) {
			t.Fatalf("Create(%+v) error = %v, want ErrInvalidBookmark", req, err)
		}
	}
}

func TestBookmarkService_Delete(t *testing.T) {
	svc := newTestBookmarks(t)
	b, err := svc.Create(&models.CreateBookmarkRequest{Path: "/tmp"})
	if err != nil {
		t.Fatal(err)
	}
	if err := svc.Delete(b.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := svc.Delete(b.ID); !errors.Is(err, ErrBookmarkNotFound) {
		t.Fatalf("Delete() twice error = %v", err)
	}
}

func TestBookmarkService_Reorder(t *testing.T) {
	svc := newTestBookmarks(t)
	ids := map[string]string{}
	for _, p := range []string{"/a", "/b", "/c", "/d"} {
		b, err := svc.Create(&models.CreateBookmarkRequest{Path: p})
		if err != nil {
			t.Fatal(err)
		}
		ids[b.Name] = b.ID
	}

	list, err := svc.Reorder([]string{ids["c"], ids["a"]})
	if err != nil {
		t.Fatalf("Reorder() error = %v", err)
	}
	// Unlisted bookmarks keep their relative order after the listed ones.
	if got := bookmarkNames(list); got != "c,a,b,d" {
		t.Fatalf("Reorder() = %s, want c,a,b,d", got)
	}

	if _, err := svc.Reorder([]string{ids["d"], "nope"}); !errors.Is(err, ErrBookmarkNotFound) {
		t.Fatalf("Reorder(unknown) error = %v", err)
	}
	if _, err := svc.Reorder([]string{ids["d"], ids["d"]}); !errors.Is(err, ErrInvalidBookmark) {
		t.Fatalf("Reorder(duplicate) error = %v", err)
	}
	list, err = svc.List()
	if err != nil {
		t.Fatal(err)
	}
	if got := bookmarkNames(list); got != "c,a,b,d" {
		t.Fatalf("failed Reorder() changed order: %s", got)
	}

	// Appending after a reorder goes to the end.
	if _, err := svc.Create(&models.CreateBookmarkRequest{Path: "/e"}); err != nil {
		t.Fatal(err)
	}
	list, _ = svc.List()
	if got := bookmarkNames(list); got != "c,a,b,d,e" {
		t.Fatalf("List() = %s", got)
	}
}
