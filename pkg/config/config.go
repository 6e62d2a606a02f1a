package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// AppConfig is read from a YAML file under the user's home directory.
// All fields are optional; defaults are applied by the accessor methods.
//
// Example (~/.filebrowser/config.yaml):
//
//	server:
//	  host: 127.0.0.1
//	  port: 8089
//	log:
//	  level: info
//	browser:
//	  stat_concurrency: 16
//	  preview_max_bytes: 1048576
//	endpoints:
//	  - name: nas
//	    host: 192.168.1.20
//	    username: admin
//	    private_key_path: ~/.ssh/id_ed25519
//
// Notes:
// - If the config file does not exist, Load returns defaults without error.
// - If the config file exists but cannot be parsed, Load returns an error.
type AppConfig struct {
	Server    ServerConfig     `yaml:"server"`
	Log       LogConfig        `yaml:"log"`
	Browser   BrowserConfig    `yaml:"browser"`
	Endpoints []EndpointConfig `yaml:"endpoints"`
}

type ServerConfig struct {
	Host *string `yaml:"host"`
	Port *int    `yaml:"port"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

type BrowserConfig struct {
	StatConcurrency *int   `yaml:"stat_concurrency"`
	PreviewMaxBytes *int64 `yaml:"preview_max_bytes"`

	// ViewerExtensions maps a viewer kind (image, text, pdf) to the file
	// extensions opened in the internal viewer. Unlisted kinds keep defaults.
	ViewerExtensions map[string][]string `yaml:"viewer_extensions"`
}

// EndpointConfig describes a remote SFTP endpoint a session can browse.
type EndpointConfig struct {
	Name           string `yaml:"name"`
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	Username       string `yaml:"username"`
	Password       string `yaml:"password"`
	PrivateKeyPath string `yaml:"private_key_path"`
	Passphrase     string `yaml:"passphrase"`
	TimeoutSeconds int    `yaml:"timeout"`
}

const (
	DefaultHost            = "127.0.0.1"
	DefaultPort            = 8089
	DefaultStatConcurrency = 16
	DefaultPreviewMaxBytes = int64(1 << 20)
	DefaultSSHTimeout      = 30 * time.Second

	// LocalEndpoint is the reserved endpoint name for the host filesystem.
	LocalEndpoint = "local"
)

// DefaultViewerExtensions lists the extensions opened in the internal viewer.
var DefaultViewerExtensions = map[string][]string{
	"image": {".jpg", ".jpeg", ".png", ".gif", ".bmp", ".webp"},
	"text":  {".txt", ".md", ".json", ".js", ".html", ".css"},
	"pdf":   {".pdf"},
}

// DefaultPaths returns the config dir and config file path.
func DefaultPaths() (configDir string, configFile string, err error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", "", fmt.Errorf("get user home dir: %w", err)
	}
	configDir = filepath.Join(home, ".filebrowser")
	configFile = filepath.Join(configDir, "config.yaml")
	return configDir, configFile, nil
}

// DatabasePath returns the sqlite file used for bookmarks.
func DatabasePath() (string, error) {
	configDir, _, err := DefaultPaths()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "filebrowser.db"), nil
}

// Load reads ~/.filebrowser/config.yaml.
// If the file doesn't exist, it returns a default config and nil error.
func Load() (*AppConfig, string, error) {
	_, configFile, err := DefaultPaths()
	if err != nil {
		return nil, "", err
	}

	cfg := &AppConfig{}

	b, err := os.ReadFile(configFile)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, configFile, nil
		}
		return nil, "", fmt.Errorf("read config file %s: %w", configFile, err)
	}

	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, "", fmt.Errorf("parse yaml config %s: %w", configFile, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", fmt.Errorf("%w in %s", err, configFile)
	}

	return cfg, configFile, nil
}

// Validate checks values that have no sensible fallback.
func (c *AppConfig) Validate() error {
	if strings.TrimSpace(c.Host()) == "" {
		return fmt.Errorf("invalid server.host (empty)")
	}
	if port := c.Port(); port < 1 || port > 65535 {
		return fmt.Errorf("invalid server.port %d", port)
	}
	if c.Browser.StatConcurrency != nil && *c.Browser.StatConcurrency < 1 {
		return fmt.Errorf("invalid browser.stat_concurrency %d", *c.Browser.StatConcurrency)
	}

	seen := map[string]bool{}
	for i, ep := range c.Endpoints {
		name := strings.TrimSpace(ep.Name)
		if name == "" {
			return fmt.Errorf("endpoints[%d]: name is required", i)
		}
		if name == LocalEndpoint {
			return fmt.Errorf("endpoints[%d]: name %q is reserved", i, LocalEndpoint)
		}
		if seen[name] {
			return fmt.Errorf("endpoints[%d]: duplicate name %q", i, name)
		}
		seen[name] = true
		if strings.TrimSpace(ep.Host) == "" {
			return fmt.Errorf("endpoints[%d]: host is required", i)
		}
		if strings.TrimSpace(ep.Username) == "" {
			return fmt.Errorf("endpoints[%d]: username is required", i)
		}
	}
	return nil
}

// EnsureDefaultConfig writes a default config file if it doesn't already exist.
// It is safe to call on startup.
func EnsureDefaultConfig() (string, error) {
	configDir, configFile, err := DefaultPaths()
	if err != nil {
		return "", err
	}

	if _, err := os.Stat(configFile); err == nil {
		return configFile, nil
	}

	if err := os.MkdirAll(configDir, 0o700); err != nil {
		return "", fmt.Errorf("create config dir %s: %w", configDir, err)
	}

	defaultCfg := AppConfig{
		Server:  ServerConfig{Host: ptr(DefaultHost), Port: ptr(DefaultPort)},
		Log:     LogConfig{Level: "info"},
		Browser: BrowserConfig{StatConcurrency: ptr(DefaultStatConcurrency), PreviewMaxBytes: ptr(DefaultPreviewMaxBytes)},
	}
	b, err := yaml.Marshal(&defaultCfg)
	if err != nil {
		return "", fmt.Errorf("marshal default config: %w", err)
	}

	if err := os.WriteFile(configFile, b, 0o600); err != nil {
		return "", fmt.Errorf("write default config file %s: %w", configFile, err)
	}

	return configFile, nil
}

func (c *AppConfig) Host() string {
	if c == nil || c.Server.Host == nil {
		return DefaultHost
	}
	v := strings.TrimSpace(*c.Server.Host)
	if v == "" {
		return DefaultHost
	}
	return v
}

func (c *AppConfig) Port() int {
	if c == nil || c.Server.Port == nil {
		return DefaultPort
	}
	return *c.Server.Port
}

func (c *AppConfig) LogLevel() string {
	if c == nil || strings.TrimSpace(c.Log.Level) == "" {
		return "info"
	}
	return c.Log.Level
}

func (c *AppConfig) StatConcurrency() int {
	if c == nil || c.Browser.StatConcurrency == nil || *c.Browser.StatConcurrency < 1 {
		return DefaultStatConcurrency
	}
	return *c.Browser.StatConcurrency
}

func (c *AppConfig) PreviewMaxBytes() int64 {
	if c == nil || c.Browser.PreviewMaxBytes == nil || *c.Browser.PreviewMaxBytes <= 0 {
		return DefaultPreviewMaxBytes
	}
	return *c.Browser.PreviewMaxBytes
}

// ViewerKinds returns a lower-cased extension -> viewer kind lookup.
func (c *AppConfig) ViewerKinds() map[string]string {
	merged := map[string][]string{}
	for kind, exts := range DefaultViewerExtensions {
		merged[kind] = exts
	}
	if c != nil {
		for kind, exts := range c.Browser.ViewerExtensions {
			merged[strings.ToLower(strings.TrimSpace(kind))] = exts
		}
	}

	out := map[string]string{}
	for kind, exts := range merged {
		for _, ext := range exts {
			ext = strings.ToLower(strings.TrimSpace(ext))
			if ext == "" {
				continue
			}
			if !strings.HasPrefix(ext, ".") {
				ext = "." + ext
			}
			out[ext] = kind
		}
	}
	return out
}

// Endpoint looks up a configured SFTP endpoint by name.
func (c *AppConfig) Endpoint(name string) (*EndpointConfig, bool) {
	if c == nil {
		return nil, false
	}
	for i := range c.Endpoints {
		if c.Endpoints[i].Name == name {
			return &c.Endpoints[i], true
		}
	}
	return nil, false
}

func (e *EndpointConfig) Timeout() time.Duration {
	if e.TimeoutSeconds <= 0 {
		return DefaultSSHTimeout
	}
	return time.Duration(e.TimeoutSeconds) * time.Second
}

func ptr[T any](v T) *T { return &v }
