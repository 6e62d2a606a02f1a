package main

import (
	"bytes"
	"crypto/sha256"
	"embed"
	"encoding/hex"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// Embed built frontend distribution.
//
//go:embed all:frontend/dist
var staticAssets embed.FS

// attachStatic registers the frontend middleware:
//  1. Intercepts GET/HEAD requests not under /api
//  2. If a static file matches, serve it directly and Abort
//  3. If no match and the path has no '.' and Accept includes text/html, serve index.html
//  4. otherwise pass through
func attachStatic(engine *gin.Engine) {
	distFS := resolveFrontendFS()
	if distFS == nil {
		return
	}

	indexBytes, err := fs.ReadFile(distFS, "index.html")
	if err != nil {
		return
	}
	indexModTime := time.Now()
	if fi, statErr := fs.Stat(distFS, "index.html"); statErr == nil && !fi.ModTime().IsZero() {
		indexModTime = fi.ModTime()
	}
	sum := sha256.Sum256(indexBytes)
	indexETag := `W/"` + hex.EncodeToString(sum[:8]) + `"`

	serveIndex := func(c *gin.Context) {
		if c.Request.Header.Get("If-None-Match") == indexETag {
			c.Status(http.StatusNotModified)
			c.Abort()
			return
		}
		c.Header("ETag", indexETag)
		c.Header("Cache-Control", "no-cache")
		c.Header("Content-Type", "text/html; charset=utf-8")
		http.ServeContent(c.Writer, c.Request, "index.html", indexModTime, bytes.NewReader(indexBytes))
		c.Abort()
	}

	fileServer := http.FileServer(http.FS(distFS))

	engine.Use(func(c *gin.Context) {
		if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
			return
		}
		p := c.Request.URL.Path
		// Let API + websocket routes fall through.
		if strings.HasPrefix(p, "/api") {
			return
		}
		trimmed := strings.TrimPrefix(p, "/")
		if trimmed == "" || trimmed == "index.html" {
			serveIndex(c)
			return
		}
		if fi, err := fs.Stat(distFS, trimmed); err == nil {
			if fi.IsDir() {
				serveIndex(c)
				return
			}
			fileServer.ServeHTTP(c.Writer, c.Request)
			c.Abort()
			return
		}

		// SPA fallback: serve index.html for client-side routes.
		if !strings.Contains(trimmed, ".") && acceptHTML(c.Request.Header.Get("Accept")) {
			serveIndex(c)
		}
	})
}

func resolveFrontendFS() fs.FS {
	// Preferred: embedded dist.
	if sub, err := fs.Sub(staticAssets, "frontend/dist"); err == nil {
		if _, err := fs.Stat(sub, "index.html"); err == nil {
			return sub
		}
	}

	// Dev fallback: dist on disk.
	wd, err := os.Getwd()
	if err != nil {
		return nil
	}
	dir := filepath.Join(wd, "frontend", "dist")
	if st, err := os.Stat(dir); err == nil && st.IsDir() {
		dfs := os.DirFS(dir)
		if _, err := fs.Stat(dfs, "index.html"); err == nil {
			return dfs
		}
	}
	return nil
}

// acceptHTML determines if the given accept header string indicates
// that the client accepts HTML content.
func acceptHTML(accept string) bool {
	// Treat missing Accept as HTML navigation (common in some embedded/webview cases).
	if accept == "" {
		return true
	}
	for _, part := range strings.Split(accept, ",") {
		p := strings.TrimSpace(strings.ToLower(part))
		if strings.HasPrefix(p, "text/html") || strings.HasPrefix(p, "application/xhtml+xml") {
			return true
		}
	}
	return false
}
