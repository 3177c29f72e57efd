package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runoshun/kanban-sync/internal/domain"
	"github.com/runoshun/kanban-sync/internal/infra/jsonstore"
	"github.com/runoshun/kanban-sync/internal/infra/sqlitestore"
	"github.com/runoshun/kanban-sync/internal/usecase"
)

func writeBoardConfig(t *testing.T, dir, content string) {
	t.Helper()
	boardDir := domain.BoardDir(dir)
	require.NoError(t, os.MkdirAll(boardDir, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(boardDir, domain.ConfigFileName), []byte(content), 0o600))
}

func TestNew_DefaultsToJSONStore(t *testing.T) {
	dir := t.TempDir()
	c, err := NewWithGlobalDir(dir, "")
	require.NoError(t, err)
	defer c.Close()

	assert.IsType(t, &jsonstore.Store{}, c.Issues)
	assert.Equal(t, filepath.Join(domain.BoardDir(dir), "board.json"), c.Config.StorePath)
	_, ok := c.GitStore()
	assert.False(t, ok)

	out, err := c.InitBoardUseCase().Execute(context.Background(), usecase.InitBoardInput{BoardDir: c.Config.BoardDir})
	require.NoError(t, err)
	assert.False(t, out.AlreadyInitialized)

	created, err := c.NewIssueUseCase().Execute(context.Background(), usecase.NewIssueInput{Title: "First"})
	require.NoError(t, err)
	assert.Equal(t, domain.IssueID(1), created.Issue.ID)
}

func TestNew_SQLiteStore(t *testing.T) {
	dir := t.TempDir()
	writeBoardConfig(t, dir, "[store]\ntype = \"sqlite\"\n")

	c, err := NewWithGlobalDir(dir, "")
	require.NoError(t, err)
	defer c.Close()

	assert.IsType(t, &sqlitestore.Store{}, c.Issues)
	assert.FileExists(t, filepath.Join(domain.BoardDir(dir), "board.db"))
}

func TestNew_GitStoreRequiresRepository(t *testing.T) {
	dir := t.TempDir()
	writeBoardConfig(t, dir, "[store]\ntype = \"git\"\n")

	_, err := NewWithGlobalDir(dir, "")
	assert.Error(t, err)
}

func TestNew_InvalidConfigFallsBackToDefaults(t *testing.T) {
	dir := t.TempDir()
	writeBoardConfig(t, dir, "[store\n")

	c, err := NewWithGlobalDir(dir, "")
	require.NoError(t, err)
	defer c.Close()

	assert.Equal(t, domain.StoreJSON, c.AppConfig.Store.Type)
	require.NotEmpty(t, c.AppConfig.Warnings)
	assert.Contains(t, c.AppConfig.Warnings[len(c.AppConfig.Warnings)-1], "config:")
}

func TestOpenStore_UnknownType(t *testing.T) {
	cfg := domain.NewDefaultConfig()
	cfg.Store.Type = "etcd"
	c := &Container{AppConfig: cfg, Config: Config{StorePath: filepath.Join(t.TempDir(), "x")}}

	err := c.openStore()
	assert.True(t, errors.Is(err, domain.ErrUnknownStore))
}

func TestConnectBus(t *testing.T) {
	c, err := NewWithGlobalDir(t.TempDir(), "")
	require.NoError(t, err)
	defer c.Close()

	bus, err := c.ConnectBus(context.Background())
	require.NoError(t, err)
	assert.Nil(t, bus)
	assert.Nil(t, c.Notifier)

	m := miniredis.RunT(t)
	c.AppConfig.Server.RedisAddr = m.Addr()
	bus, err = c.ConnectBus(context.Background())
	require.NoError(t, err)
	require.NotNil(t, bus)
	assert.NotNil(t, c.Notifier)

	again, err := c.ConnectBus(context.Background())
	require.NoError(t, err)
	assert.Same(t, bus, again)
}

func TestConnectBus_Unreachable(t *testing.T) {
	c, err := NewWithGlobalDir(t.TempDir(), "")
	require.NoError(t, err)
	defer c.Close()

	c.AppConfig.Server.RedisAddr = "127.0.0.1:1"
	_, err = c.ConnectBus(context.Background())
	assert.Error(t, err)
	assert.Nil(t, c.Notifier)
}

func TestNewBoardClient_UsesConfiguredURL(t *testing.T) {
	c := NewWithDeps(Config{}, nil, nil, domain.RealClock{}, nil)
	client := c.NewBoardClient("", nil)
	require.NotNil(t, client)
	assert.NoError(t, client.Close())
}
