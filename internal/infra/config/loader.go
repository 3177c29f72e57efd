// Package config loads and initializes TOML configuration files.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/runoshun/kanban-sync/internal/domain"
)

// Ensure Loader implements domain.ConfigLoader.
var _ domain.ConfigLoader = (*Loader)(nil)

// Loader loads configuration from TOML files.
type Loader struct {
	boardDir      string // Path to the .kanban directory
	globalConfDir string // Path to global config directory (e.g., ~/.config/kanban)
}

// NewLoader creates a new Loader.
func NewLoader(boardDir string) *Loader {
	return &Loader{
		boardDir:      boardDir,
		globalConfDir: DefaultGlobalConfigDir(),
	}
}

// NewLoaderWithGlobalDir creates a new Loader with a custom global config directory.
// This is useful for testing.
func NewLoaderWithGlobalDir(boardDir, globalConfDir string) *Loader {
	return &Loader{
		boardDir:      boardDir,
		globalConfDir: globalConfDir,
	}
}

// DefaultGlobalConfigDir returns $XDG_CONFIG_HOME/kanban, falling back to
// ~/.config/kanban. It returns "" when no home directory is known.
func DefaultGlobalConfigDir() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return domain.GlobalDir(configHome)
}

// Load returns the merged configuration: default <- global <- board.
func (l *Loader) Load() (*domain.Config, error) {
	global, err := l.LoadGlobal()
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	board, err := l.LoadBoard()
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	base := domain.NewDefaultConfig()
	if global != nil {
		base = mergeConfigs(base, global)
	}
	if board != nil {
		base = mergeConfigs(base, board)
	}
	return base, nil
}

// LoadGlobal returns only the global configuration.
func (l *Loader) LoadGlobal() (*domain.Config, error) {
	if l.globalConfDir == "" {
		return nil, os.ErrNotExist
	}
	return l.loadFile(filepath.Join(l.globalConfDir, domain.ConfigFileName))
}

// LoadBoard returns only the board configuration.
func (l *Loader) LoadBoard() (*domain.Config, error) {
	return l.loadFile(filepath.Join(l.boardDir, domain.ConfigFileName))
}

func (l *Loader) loadFile(path string) (*domain.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	return convertRawToDomainConfig(raw), nil
}

// convertRawToDomainConfig converts the raw map to domain config and collects warnings.
func convertRawToDomainConfig(raw map[string]any) *domain.Config {
	res := &domain.Config{}
	var warnings []string

	unknown := func(section, key string) {
		warnings = append(warnings, fmt.Sprintf("unknown key in [%s]: %s", section, key))
	}
	invalid := func(section, key string, v any) {
		warnings = append(warnings, fmt.Sprintf("invalid value for %s.%s: %v", section, key, v))
	}

	for section, value := range raw {
		m, ok := value.(map[string]any)
		if !ok {
			warnings = append(warnings, fmt.Sprintf("unknown section: %s", section))
			continue
		}

		switch section {
		case "server":
			for k, v := range m {
				s, isStr := v.(string)
				switch k {
				case "listen":
					res.Server.Listen = s
				case "url":
					res.Server.URL = s
				case "redis_addr":
					res.Server.RedisAddr = s
				case "redis_channel":
					res.Server.RedisChannel = s
				default:
					unknown(section, k)
					continue
				}
				if !isStr {
					invalid(section, k, v)
				}
			}
		case "client":
			for k, v := range m {
				switch k {
				case "reconnect_min", "reconnect_max":
					d, ok := parseDuration(v)
					if !ok {
						invalid(section, k, v)
						continue
					}
					if k == "reconnect_min" {
						res.Client.ReconnectMin = d
					} else {
						res.Client.ReconnectMax = d
					}
				case "user_id":
					if n, ok := v.(int64); ok {
						res.Client.UserID = domain.UserID(n)
					} else {
						invalid(section, k, v)
					}
				default:
					unknown(section, k)
				}
			}
		case "store":
			for k, v := range m {
				s, isStr := v.(string)
				switch k {
				case "type":
					if t := domain.StoreType(s); t.IsValid() {
						res.Store.Type = t
					} else {
						invalid(section, k, v)
					}
					continue
				case "path":
					res.Store.Path = s
				case "namespace":
					res.Store.Namespace = s
				case "encryption_key":
					res.Store.EncryptionKey = s
				default:
					unknown(section, k)
					continue
				}
				if !isStr {
					invalid(section, k, v)
				}
			}
		case "log":
			for k, v := range m {
				switch k {
				case "level":
					if s, ok := v.(string); ok {
						res.Log.Level = s
					} else {
						invalid(section, k, v)
					}
				default:
					unknown(section, k)
				}
			}
		default:
			warnings = append(warnings, fmt.Sprintf("unknown section: %s", section))
		}
	}

	sort.Strings(warnings)
	res.Warnings = warnings
	return res
}

// parseDuration accepts "750ms"-style strings and plain integers as milliseconds.
func parseDuration(v any) (time.Duration, bool) {
	switch t := v.(type) {
	case string:
		d, err := time.ParseDuration(t)
		if err != nil || d <= 0 {
			return 0, false
		}
		return d, true
	case int64:
		if t <= 0 {
			return 0, false
		}
		return time.Duration(t) * time.Millisecond, true
	}
	return 0, false
}

// mergeConfigs merges two configs, with override taking precedence.
func mergeConfigs(base, override *domain.Config) *domain.Config {
	result := *base
	result.Warnings = append(append([]string{}, base.Warnings...), override.Warnings...)

	setString(&result.Server.Listen, override.Server.Listen)
	setString(&result.Server.URL, override.Server.URL)
	setString(&result.Server.RedisAddr, override.Server.RedisAddr)
	setString(&result.Server.RedisChannel, override.Server.RedisChannel)

	if override.Client.ReconnectMin != 0 {
		result.Client.ReconnectMin = override.Client.ReconnectMin
	}
	if override.Client.ReconnectMax != 0 {
		result.Client.ReconnectMax = override.Client.ReconnectMax
	}
	if override.Client.UserID != 0 {
		result.Client.UserID = override.Client.UserID
	}

	if override.Store.Type != "" {
		result.Store.Type = override.Store.Type
	}
	setString(&result.Store.Path, override.Store.Path)
	setString(&result.Store.Namespace, override.Store.Namespace)
	setString(&result.Store.EncryptionKey, override.Store.EncryptionKey)

	setString(&result.Log.Level, override.Log.Level)

	return &result
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
