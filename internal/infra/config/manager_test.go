package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runoshun/kanban-sync/internal/domain"
)

func TestManager_GetBoardConfigInfo(t *testing.T) {
	t.Run("returns info when file exists", func(t *testing.T) {
		boardDir := t.TempDir()
		writeConfig(t, boardDir, "[log]\nlevel = \"debug\"")

		info := NewManagerWithGlobalDir(boardDir, "").GetBoardConfigInfo()

		assert.Equal(t, filepath.Join(boardDir, domain.ConfigFileName), info.Path)
		assert.Equal(t, "[log]\nlevel = \"debug\"", info.Content)
		assert.True(t, info.Exists)
	})

	t.Run("returns info when file does not exist", func(t *testing.T) {
		boardDir := t.TempDir()

		info := NewManagerWithGlobalDir(boardDir, "").GetBoardConfigInfo()

		assert.Equal(t, filepath.Join(boardDir, domain.ConfigFileName), info.Path)
		assert.Empty(t, info.Content)
		assert.False(t, info.Exists)
	})
}

func TestManager_GetGlobalConfigInfo_NoDir(t *testing.T) {
	info := NewManagerWithGlobalDir(t.TempDir(), "").GetGlobalConfigInfo()
	assert.Equal(t, domain.ConfigInfo{}, info)
}

func TestManager_InitBoardConfig(t *testing.T) {
	boardDir := filepath.Join(t.TempDir(), ".kanban")
	manager := NewManagerWithGlobalDir(boardDir, "")

	require.NoError(t, manager.InitBoardConfig(domain.NewDefaultConfig()))

	content, err := os.ReadFile(filepath.Join(boardDir, domain.ConfigFileName))
	require.NoError(t, err)
	assert.Contains(t, string(content), "[store]")
	assert.Contains(t, string(content), `level = "info"`)

	err = manager.InitBoardConfig(domain.NewDefaultConfig())
	assert.ErrorIs(t, err, domain.ErrConfigExists)
}

func TestManager_InitGlobalConfig(t *testing.T) {
	t.Run("creates directory and file", func(t *testing.T) {
		globalDir := filepath.Join(t.TempDir(), "kanban")
		manager := NewManagerWithGlobalDir("", globalDir)

		require.NoError(t, manager.InitGlobalConfig(domain.NewDefaultConfig()))
		assert.True(t, manager.GetGlobalConfigInfo().Exists)
	})

	t.Run("fails without global dir", func(t *testing.T) {
		err := NewManagerWithGlobalDir("", "").InitGlobalConfig(domain.NewDefaultConfig())
		assert.Error(t, err)
	})
}
