package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/choraleia/filebrowser/pkg/config"
	"github.com/choraleia/filebrowser/pkg/db"
	"github.com/choraleia/filebrowser/pkg/event"
	"github.com/choraleia/filebrowser/pkg/handler"
	"github.com/choraleia/filebrowser/pkg/models"
	"github.com/choraleia/filebrowser/pkg/service"
	"github.com/choraleia/filebrowser/pkg/utils"
)

type Server struct {
	ginEngine *gin.Engine
	cfg       *config.AppConfig
	logger    *slog.Logger
	port      int

	db       *gorm.DB
	registry *service.FSRegistry
	sessions *service.SessionManager
	stopped  chan struct{}
}

func NewServer(cfg *config.AppConfig) (*Server, error) {
	ginEngine := gin.New()
	ginEngine.Use(gin.Recovery())

	// CORS middleware: allow Wails origins (wails://localhost:*) and common localhost origins.
	ginEngine.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")

		// If there's no Origin header, it's not a browser CORS request.
		if origin != "" {
			if !allowedOrigin(origin) {
				c.AbortWithStatus(http.StatusForbidden)
				return
			}
			// Must echo the Origin when Origin is a custom scheme (like wails://) to satisfy browsers.
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Vary", "Origin")
			c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept")
		}

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	attachStatic(ginEngine)

	dbPath, err := config.DatabasePath()
	if err != nil {
		return nil, err
	}
	gdb, err := db.Open(dbPath)
	if err != nil {
		return nil, err
	}

	server := &Server{
		ginEngine: ginEngine,
		cfg:       cfg,
		logger:    utils.GetLogger(),
		port:      cfg.Port(),
		db:        gdb,
		registry:  service.NewFSRegistry(cfg),
		stopped:   make(chan struct{}),
	}
	server.SetupRoutes()
	return server, nil
}

func allowedOrigin(origin string) bool {
	for _, prefix := range []string{
		"wails://localhost", "wails://127.0.0.1",
		"http://localhost", "http://127.0.0.1", "http://wails.localhost",
		"https://localhost", "https://127.0.0.1",
	} {
		if strings.HasPrefix(origin, prefix) {
			return true
		}
	}
	return false
}

// Start listens on the configured address and serves until ctx is done.
// FILEBROWSER_PORT overrides the configured port.
func (s *Server) Start(ctx context.Context) error {
	port := s.cfg.Port()
	if v := os.Getenv("FILEBROWSER_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil && p > 0 && p <= 65535 {
			port = p
		} else {
			s.logger.Warn("Invalid FILEBROWSER_PORT value, falling back to config", "value", v)
		}
	}

	addr := net.JoinHostPort(s.cfg.Host(), strconv.Itoa(port))
	srv := &http.Server{Addr: addr, Handler: s.ginEngine}

	// Attempt to listen on port first; if occupied return error immediately
	ln, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		return err
	}

	// Record the actual port (useful with port 0).
	if tcpAddr, ok := ln.Addr().(*net.TCPAddr); ok {
		s.port = tcpAddr.Port
	} else {
		s.port = port
	}
	s.logger.Info("HTTP server listening", "addr", ln.Addr().String())

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Serve(ln)
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		s.Close()
		close(s.stopped)
	}()

	// Non-blocking: if startup fails immediately return error; otherwise return nil to let main continue
	select {
	case err := <-errChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	default:
	}
	return nil
}

// URL is the base address clients reach the server on.
func (s *Server) URL() string {
	return fmt.Sprintf("http://%s", net.JoinHostPort(s.cfg.Host(), strconv.Itoa(s.port)))
}

// Done is closed once the server has shut down after its context ended.
func (s *Server) Done() <-chan struct{} { return s.stopped }

// Close releases remote connections and the database.
func (s *Server) Close() {
	s.registry.Close()
	if sqlDB, err := s.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

func (s *Server) SetupRoutes() {
	emitter := event.Global()

	s.sessions = service.NewSessionManager(s.cfg, s.registry, emitter)
	menuService := service.NewMenuService(s.cfg, service.SystemOpener{}, emitter)
	bookmarkService := service.NewBookmarkService(s.db, s.registry, emitter)

	sessionHandler := handler.NewSessionHandler(s.sessions, menuService, s.logger)
	bookmarkHandler := handler.NewBookmarkHandler(bookmarkService, s.logger)
	wsHandler := event.NewWSHandler(emitter)

	// API group
	// /api
	apiGroup := s.ginEngine.Group("/api")

	// Runtime info (for GUI/wails:// and headless clients to discover correct base URLs)
	apiGroup.GET("/runtime", func(c *gin.Context) {
		host := s.cfg.Host()
		if host == "0.0.0.0" || host == "::" {
			host = "127.0.0.1"
		}
		hostPort := net.JoinHostPort(host, strconv.Itoa(s.port))
		c.JSON(http.StatusOK, models.Response{Code: 0, Message: "ok", Data: models.RuntimeInfo{
			HTTPBaseURL: "http://" + hostPort,
			WSBaseURL:   "ws://" + hostPort,
			Port:        s.port,
			Endpoints:   s.sessions.Endpoints(),
		}})
	})

	// Browsing sessions
	// /api/sessions
	sessionsGroup := apiGroup.Group("/sessions")
	{
		sessionsGroup.POST("", sessionHandler.Create)
		sessionsGroup.GET("", sessionHandler.List)
		sessionsGroup.DELETE(":id", sessionHandler.Close)
		sessionsGroup.GET(":id/files", sessionHandler.Files)
		sessionsGroup.POST(":id/open", sessionHandler.Open)
		sessionsGroup.POST(":id/up", sessionHandler.Up)
		sessionsGroup.POST(":id/rename", sessionHandler.Rename)
		sessionsGroup.POST(":id/delete", sessionHandler.Delete)
		sessionsGroup.POST(":id/menu", sessionHandler.Menu)
		sessionsGroup.GET(":id/preview", sessionHandler.Preview)
	}

	// Bookmarks
	// /api/bookmarks
	bookmarksGroup := apiGroup.Group("/bookmarks")
	{
		bookmarksGroup.GET("", bookmarkHandler.List)
		bookmarksGroup.POST("", bookmarkHandler.Create)
		bookmarksGroup.DELETE(":id", bookmarkHandler.Delete)
		bookmarksGroup.PUT("reorder", bookmarkHandler.Reorder)
	}

	// Notifications
	// /api/events/ws
	apiGroup.GET("/events/ws", wsHandler.Handle)
}
