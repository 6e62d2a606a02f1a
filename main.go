//go:build !headless

package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/wailsapp/wails/v3/pkg/application"
)

// resolveFrontendURL decides what URL the webview should load.
//
// In Wails dev mode a Vite dev server serves the frontend with hot reload, so
// the webview must load that URL instead of the Go backend.
func resolveFrontendURL(serverURL string) string {
	for _, k := range []string{"FILEBROWSER_DEV_SERVER_URL", "WAILS_DEV_SERVER_URL", "WAILS_FRONTEND_URL"} {
		if v := strings.TrimSpace(os.Getenv(k)); v != "" {
			return v
		}
	}
	if p := strings.TrimSpace(os.Getenv("WAILS_VITE_PORT")); p != "" {
		return fmt.Sprintf("http://localhost:%s", p)
	}
	return serverURL
}

func main() {
	cfg, logger, lock, err := bootstrap()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() { _ = lock.Unlock() }()

	server, err := NewServer(cfg)
	if err != nil {
		logger.Error("Failed to create server", "error", err)
		os.Exit(1)
	}

	app := application.New(application.Options{
		Name:        "filebrowser",
		Description: "A desktop file browser",
		LogLevel:    slog.LevelInfo,
		Services:    []application.Service{},
		Mac: application.MacOptions{
			ApplicationShouldTerminateAfterLastWindowClosed: true,
		},
	})

	// Start the http server (API + WebSocket) before opening the window.
	if err := server.Start(app.Context()); err != nil {
		logger.Error("Failed to start server", "error", err)
		os.Exit(1)
	}

	app.Window.NewWithOptions(application.WebviewWindowOptions{
		Title:  "File Browser",
		Width:  800,
		Height: 600,
		URL:    resolveFrontendURL(server.URL()),
	})

	// Run the application. This blocks until the application has been exited.
	if err := app.Run(); err != nil {
		logger.Error("Failed to run application", "error", err)
		os.Exit(1)
	}
}
