package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/choraleia/filebrowser/pkg/models"
	"github.com/choraleia/filebrowser/pkg/service"
)

// SessionHandler exposes browsing sessions over HTTP.
//
// Results of filesystem operations, failed ones included, are answered with
// 200 and the result in data. Only malformed requests and unknown sessions
// get an error status.
type SessionHandler struct {
	Sessions *service.SessionManager
	MenuSvc  *service.MenuService
	Logger   *slog.Logger
}

func NewSessionHandler(sessions *service.SessionManager, menu *service.MenuService, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{Sessions: sessions, MenuSvc: menu, Logger: logger}
}

func ok(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, models.Response{Code: 0, Message: "ok", Data: data})
}

func fail(c *gin.Context, status int, msg string) {
	c.JSON(status, models.Response{Code: status, Message: msg})
}

func errorResult(err error) models.ErrorResult {
	return models.ErrorResult{Error: err.Error(), Kind: string(service.KindOf(err))}
}

// session resolves :id, writing a 404 when it is unknown.
func (h *SessionHandler) session(c *gin.Context) (*service.Session, bool) {
	sess, err := h.Sessions.Get(c.Param("id"))
	if err != nil {
		fail(c, http.StatusNotFound, err.Error())
		return nil, false
	}
	return sess, true
}

// Create handles POST /api/sessions
func (h *SessionHandler) Create(c *gin.Context) {
	var req models.CreateSessionRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, http.StatusBadRequest, "Invalid request: "+err.Error())
			return
		}
	}
	sess, err := h.Sessions.Create(c.Request.Context(), req.Endpoint)
	if err != nil {
		if errors.Is(err, service.ErrUnknownEndpoint) {
			fail(c, http.StatusBadRequest, err.Error())
			return
		}
		h.Logger.Error("Failed to create session", "error", err)
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.JSON(http.StatusCreated, models.Response{Code: 0, Message: "created", Data: sess.Info()})
}

// List handles GET /api/sessions
func (h *SessionHandler) List(c *gin.Context) {
	ok(c, h.Sessions.List())
}

// Close handles DELETE /api/sessions/:id
func (h *SessionHandler) Close(c *gin.Context) {
	if err := h.Sessions.Close(c.Param("id")); err != nil {
		fail(c, http.StatusNotFound, err.Error())
		return
	}
	ok(c, nil)
}

// Files handles GET /api/sessions/:id/files?path=
func (h *SessionHandler) Files(c *gin.Context) {
	sess, found := h.session(c)
	if !found {
		return
	}
	ok(c, sess.List(c.Request.Context(), c.Query("path")))
}

// Open handles POST /api/sessions/:id/open
func (h *SessionHandler) Open(c *gin.Context) {
	sess, found := h.session(c)
	if !found {
		return
	}
	var req models.OpenDirectoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}
	listing, err := sess.OpenDirectory(c.Request.Context(), req.Name)
	if err != nil {
		ok(c, errorResult(err))
		return
	}
	ok(c, listing)
}

// Up handles POST /api/sessions/:id/up
func (h *SessionHandler) Up(c *gin.Context) {
	sess, found := h.session(c)
	if !found {
		return
	}
	ok(c, sess.NavigateUp(c.Request.Context()))
}

// Rename handles POST /api/sessions/:id/rename
func (h *SessionHandler) Rename(c *gin.Context) {
	sess, found := h.session(c)
	if !found {
		return
	}
	var req models.RenameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}
	entry, err := sess.Rename(c.Request.Context(), req.OldName, req.NewName)
	if err != nil {
		ok(c, models.RenameResult{Error: err.Error(), Kind: string(service.KindOf(err))})
		return
	}
	ok(c, models.RenameResult{Success: true, File: entry})
}

// Delete handles POST /api/sessions/:id/delete
func (h *SessionHandler) Delete(c *gin.Context) {
	sess, found := h.session(c)
	if !found {
		return
	}
	var req models.DeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}
	if err := sess.DeleteEntry(c.Request.Context(), req.Name); err != nil {
		ok(c, models.DeleteResult{Error: err.Error(), Kind: string(service.KindOf(err))})
		return
	}
	ok(c, models.DeleteResult{Success: true})
}

// Menu handles POST /api/sessions/:id/menu
func (h *SessionHandler) Menu(c *gin.Context) {
	sess, found := h.session(c)
	if !found {
		return
	}
	var req models.MenuRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}
	result, err := h.MenuSvc.Dispatch(c.Request.Context(), sess, service.MenuAction(req.Action), req.Name)
	if err != nil {
		if errors.Is(err, service.ErrUnknownAction) {
			fail(c, http.StatusBadRequest, err.Error())
			return
		}
		ok(c, errorResult(err))
		return
	}
	ok(c, result)
}

// Preview handles GET /api/sessions/:id/preview?name=
func (h *SessionHandler) Preview(c *gin.Context) {
	sess, found := h.session(c)
	if !found {
		return
	}
	name := c.Query("name")
	if name == "" {
		fail(c, http.StatusBadRequest, "name is required")
		return
	}
	ok(c, h.MenuSvc.Preview(c.Request.Context(), sess, name))
}
