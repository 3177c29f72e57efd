package domain

import (
	"bytes"
	_ "embed"
	"fmt"
	"path/filepath"
	"text/template"
	"time"
)

//go:embed config_template.toml
var configTemplateContent string

// Config represents the application configuration.
// Fields are ordered to minimize memory padding.
type Config struct {
	Warnings []string     `toml:"-"`
	Server   ServerConfig `toml:"server"`
	Store    StoreConfig  `toml:"store"`
	Log      LogConfig    `toml:"log"`
	Client   ClientConfig `toml:"client"`
}

// ServerConfig holds settings from the [server] section.
type ServerConfig struct {
	Listen       string `toml:"listen,omitempty"`        // Address the board server binds to
	URL          string `toml:"url,omitempty"`           // Websocket URL clients dial
	RedisAddr    string `toml:"redis_addr,omitempty"`    // Optional Redis for cross-instance notifications
	RedisChannel string `toml:"redis_channel,omitempty"` // Pub/sub channel name
}

// StoreType selects the persistence backend.
type StoreType string

// Store backends.
const (
	StoreJSON   StoreType = "json"
	StoreGit    StoreType = "git"
	StoreSQLite StoreType = "sqlite"
)

// IsValid reports whether the store type is known.
func (t StoreType) IsValid() bool {
	switch t {
	case StoreJSON, StoreGit, StoreSQLite:
		return true
	}
	return false
}

// StoreConfig holds settings from the [store] section.
type StoreConfig struct {
	Type          StoreType `toml:"type,omitempty"`           // json (default), git or sqlite
	Path          string    `toml:"path,omitempty"`           // File or repository path; defaults under the board dir
	Namespace     string    `toml:"namespace,omitempty"`      // Git ref namespace (default: "kanban")
	EncryptionKey string    `toml:"encryption_key,omitempty"` // Passphrase for encrypted git blobs
}

// ClientConfig holds settings from the [client] section.
type ClientConfig struct {
	ReconnectMin time.Duration `toml:"-"` // Parsed from reconnect_min
	ReconnectMax time.Duration `toml:"-"` // Parsed from reconnect_max
	UserID       UserID        `toml:"user_id,omitempty"`
}

// LogConfig holds logging settings from [log] section.
type LogConfig struct {
	Level string `toml:"level,omitempty"` // Log level: debug, info, warn, error
}

// Default configuration values.
const (
	DefaultLogLevel     = "info"
	DefaultListen       = "127.0.0.1:7420"
	DefaultServerURL    = "ws://127.0.0.1:7420/ws"
	DefaultRedisChannel = "kanban:changes"
	DefaultNamespace    = "kanban"
	DefaultReconnectMin = 500 * time.Millisecond
	DefaultReconnectMax = 30 * time.Second
)

// Directory and file names for kanban.
const (
	BoardDirName   = ".kanban"     // Directory holding board data in the working directory
	AppDirName     = "kanban"      // Directory name under the user config home
	ConfigFileName = "config.toml" // Config file name
)

// BoardDir returns the board directory for a working directory.
func BoardDir(root string) string {
	return filepath.Join(root, BoardDirName)
}

// BoardConfigPath returns the board config path.
func BoardConfigPath(root string) string {
	return filepath.Join(BoardDir(root), ConfigFileName)
}

// GlobalDir returns the global kanban directory path.
// configHome is typically XDG_CONFIG_HOME or ~/.config (resolved by caller).
func GlobalDir(configHome string) string {
	return filepath.Join(configHome, AppDirName)
}

// GlobalConfigPath returns the global config path.
func GlobalConfigPath(configHome string) string {
	return filepath.Join(GlobalDir(configHome), ConfigFileName)
}

// NewDefaultConfig returns a Config with default values.
func NewDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Listen:       DefaultListen,
			URL:          DefaultServerURL,
			RedisChannel: DefaultRedisChannel,
		},
		Store: StoreConfig{
			Type:      StoreJSON,
			Namespace: DefaultNamespace,
		},
		Client: ClientConfig{
			ReconnectMin: DefaultReconnectMin,
			ReconnectMax: DefaultReconnectMax,
		},
		Log: LogConfig{
			Level: DefaultLogLevel,
		},
	}
}

// StorePath returns the configured store path, or the default for the store
// type inside boardDir.
func (c *Config) StorePath(boardDir string) string {
	if c.Store.Path != "" {
		return c.Store.Path
	}
	switch c.Store.Type {
	case StoreGit:
		return filepath.Dir(boardDir)
	case StoreSQLite:
		return filepath.Join(boardDir, "board.db")
	}
	return filepath.Join(boardDir, "board.json")
}

// templateData holds all data for rendering the config template.
type templateData struct {
	Listen       string
	URL          string
	RedisChannel string
	StoreType    StoreType
	Namespace    string
	ReconnectMin string
	ReconnectMax string
	LogLevel     string
}

// RenderConfigTemplate renders the commented config template using the values
// of cfg as the documented defaults.
func RenderConfigTemplate(cfg *Config) string {
	data := templateData{
		Listen:       cfg.Server.Listen,
		URL:          cfg.Server.URL,
		RedisChannel: cfg.Server.RedisChannel,
		StoreType:    cfg.Store.Type,
		Namespace:    cfg.Store.Namespace,
		ReconnectMin: cfg.Client.ReconnectMin.String(),
		ReconnectMax: cfg.Client.ReconnectMax.String(),
		LogLevel:     cfg.Log.Level,
	}

	tmpl, err := template.New("config").Delims("<<", ">>").Parse(configTemplateContent)
	if err != nil {
		// Should never happen with embedded template
		panic(fmt.Sprintf("failed to parse config template: %v", err))
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		panic(fmt.Sprintf("failed to execute config template: %v", err))
	}
	return buf.String()
}
