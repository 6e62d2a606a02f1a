package service

import (
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/choraleia/filebrowser/pkg/db"
	"github.com/choraleia/filebrowser/pkg/event"
	"github.com/choraleia/filebrowser/pkg/models"
)

var (
	ErrBookmarkNotFound = errors.New("bookmark not found")
	ErrInvalidBookmark  = errors.New("invalid bookmark")
)

// BookmarkService stores favourite directories.
type BookmarkService struct {
	db       *gorm.DB
	registry *FSRegistry
	emitter  *event.Emitter
}

func NewBookmarkService(gdb *gorm.DB, registry *FSRegistry, emitter *event.Emitter) *BookmarkService {
	if emitter == nil {
		emitter = event.Global()
	}
	return &BookmarkService{db: gdb, registry: registry, emitter: emitter}
}

// List returns all bookmarks in display order.
func (s *BookmarkService) List() ([]db.Bookmark, error) {
	var out []db.Bookmark
	if err := s.db.Order("sort_order ASC").Order("created_at ASC").Find(&out).Error; err != nil {
		return nil, errors.Wrap(err, "list bookmarks")
	}
	return out, nil
}

// Create appends a bookmark for an absolute path. The name defaults to the
// last path element.
func (s *BookmarkService) Create(req *models.CreateBookmarkRequest) (*db.Bookmark, error) {
	endpoint, err := s.registry.ResolveEndpoint(req.Endpoint)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidBookmark, err.Error())
	}
	raw := strings.TrimSpace(req.Path)
	if !isAbs(strings.ReplaceAll(raw, "\\", "/")) {
		return nil, errors.Wrapf(ErrInvalidBookmark, "path must be absolute: %q", req.Path)
	}
	p := cleanPath("/", raw)

	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = p
		if i := strings.LastIndex(p, "/"); i >= 0 && i < len(p)-1 {
			name = p[i+1:]
		}
	}

	var maxOrder struct{ Max *int }
	if err := s.db.Model(&db.Bookmark{}).Select("MAX(sort_order) AS max").Scan(&maxOrder).Error; err != nil {
		return nil, errors.Wrap(err, "read bookmark order")
	}
	order := 0
	if maxOrder.Max != nil {
		order = *maxOrder.Max + 1
	}

	b := &db.Bookmark{
		ID:       uuid.New().String(),
		Endpoint: endpoint,
		Path:     p,
		Name:     name,
		Order:    order,
	}
	if err := s.db.Create(b).Error; err != nil {
		return nil, errors.Wrap(err, "create bookmark")
	}
	s.emitter.Emit(event.BookmarksChangedEvent{})
	return b, nil
}

func (s *BookmarkService) Delete(id string) error {
	res := s.db.Delete(&db.Bookmark{}, "id = ?", id)
	if res.Error != nil {
		return errors.Wrapf(res.Error, "delete bookmark %s", id)
	}
	if res.RowsAffected == 0 {
		return errors.Wrapf(ErrBookmarkNotFound, "id %s", id)
	}
	s.emitter.Emit(event.BookmarksChangedEvent{})
	return nil
}

// Reorder puts ids first, in the given order. Bookmarks not named keep their
// relative order after them. Unknown or repeated ids fail without changes.
func (s *BookmarkService) Reorder(ids []string) ([]db.Bookmark, error) {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var all []db.Bookmark
		if err := tx.Order("sort_order ASC").Order("created_at ASC").Find(&all).Error; err != nil {
			return errors.Wrap(err, "load bookmarks")
		}
		byID := make(map[string]db.Bookmark, len(all))
		for _, b := range all {
			byID[b.ID] = b
		}

		placed := make(map[string]bool, len(ids))
		ordered := make([]string, 0, len(all))
		for _, id := range ids {
			if _, ok := byID[id]; !ok {
				return errors.Wrapf(ErrBookmarkNotFound, "id %s", id)
			}
			if placed[id] {
				return errors.Wrapf(ErrInvalidBookmark, "id %s listed twice", id)
			}
			placed[id] = true
			ordered = append(ordered, id)
		}
		for _, b := range all {
			if !placed[b.ID] {
				ordered = append(ordered, b.ID)
			}
		}

		for i, id := range ordered {
			if byID[id].Order == i {
				continue
			}
			if err := tx.Model(&db.Bookmark{}).Where("id = ?", id).Update("sort_order", i).Error; err != nil {
				return errors.Wrapf(err, "update bookmark %s", id)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.emitter.Emit(event.BookmarksChangedEvent{})
	return s.List()
}
