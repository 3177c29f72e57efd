package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/runoshun/kanban-sync/internal/domain"
)

// Ensure Manager implements domain.ConfigManager.
var _ domain.ConfigManager = (*Manager)(nil)

// Manager manages configuration files.
type Manager struct {
	boardDir      string // Path to the .kanban directory
	globalConfDir string // Path to global config directory (e.g., ~/.config/kanban)
}

// NewManager creates a new Manager.
func NewManager(boardDir string) *Manager {
	return &Manager{
		boardDir:      boardDir,
		globalConfDir: DefaultGlobalConfigDir(),
	}
}

// NewManagerWithGlobalDir creates a new Manager with a custom global config directory.
// This is useful for testing.
func NewManagerWithGlobalDir(boardDir, globalConfDir string) *Manager {
	return &Manager{
		boardDir:      boardDir,
		globalConfDir: globalConfDir,
	}
}

// GetBoardConfigInfo returns information about the board config file.
func (m *Manager) GetBoardConfigInfo() domain.ConfigInfo {
	return readConfigInfo(filepath.Join(m.boardDir, domain.ConfigFileName))
}

// GetGlobalConfigInfo returns information about the global config file.
func (m *Manager) GetGlobalConfigInfo() domain.ConfigInfo {
	if m.globalConfDir == "" {
		return domain.ConfigInfo{}
	}
	return readConfigInfo(filepath.Join(m.globalConfDir, domain.ConfigFileName))
}

func readConfigInfo(path string) domain.ConfigInfo {
	content, err := os.ReadFile(path)
	if err != nil {
		return domain.ConfigInfo{Path: path}
	}
	return domain.ConfigInfo{
		Path:    path,
		Content: string(content),
		Exists:  true,
	}
}

// InitBoardConfig creates the board config file from the template.
func (m *Manager) InitBoardConfig(cfg *domain.Config) error {
	if err := os.MkdirAll(m.boardDir, 0o750); err != nil {
		return fmt.Errorf("create board directory: %w", err)
	}
	return initConfig(filepath.Join(m.boardDir, domain.ConfigFileName), cfg)
}

// InitGlobalConfig creates the global config file from the template.
func (m *Manager) InitGlobalConfig(cfg *domain.Config) error {
	if m.globalConfDir == "" {
		return errors.New("global config directory not available")
	}
	if err := os.MkdirAll(m.globalConfDir, 0o700); err != nil {
		return fmt.Errorf("create global config directory: %w", err)
	}
	return initConfig(filepath.Join(m.globalConfDir, domain.ConfigFileName), cfg)
}

func initConfig(path string, cfg *domain.Config) error {
	if _, err := os.Stat(path); err == nil {
		return domain.ErrConfigExists
	}
	return os.WriteFile(path, []byte(domain.RenderConfigTemplate(cfg)), 0o600)
}
