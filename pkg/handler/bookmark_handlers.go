package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/choraleia/filebrowser/pkg/models"
	"github.com/choraleia/filebrowser/pkg/service"
)

// BookmarkHandler provides HTTP handlers for saved directories
type BookmarkHandler struct {
	Svc    *service.BookmarkService
	Logger *slog.Logger
}

func NewBookmarkHandler(svc *service.BookmarkService, logger *slog.Logger) *BookmarkHandler {
	return &BookmarkHandler{Svc: svc, Logger: logger}
}

func (h *BookmarkHandler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrBookmarkNotFound):
		fail(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrInvalidBookmark):
		fail(c, http.StatusBadRequest, err.Error())
	default:
		h.Logger.Error("Bookmark operation failed", "error", err)
		fail(c, http.StatusInternalServerError, err.Error())
	}
}

// List handles GET /api/bookmarks
func (h *BookmarkHandler) List(c *gin.Context) {
	list, err := h.Svc.List()
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, list)
}

// Create handles POST /api/bookmarks
func (h *BookmarkHandler) Create(c *gin.Context) {
	var req models.CreateBookmarkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}
	b, err := h.Svc.Create(&req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, models.Response{Code: 0, Message: "created", Data: b})
}

// Delete handles DELETE /api/bookmarks/:id
func (h *BookmarkHandler) Delete(c *gin.Context) {
	if err := h.Svc.Delete(c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	ok(c, nil)
}

// Reorder handles PUT /api/bookmarks/reorder
func (h *BookmarkHandler) Reorder(c *gin.Context) {
	var req models.ReorderBookmarksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}
	list, err := h.Svc.Reorder(req.IDs)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, list)
}
