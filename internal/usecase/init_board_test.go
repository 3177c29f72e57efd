package usecase_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runoshun/kanban-sync/internal/domain"
	"github.com/runoshun/kanban-sync/internal/testutil"
	"github.com/runoshun/kanban-sync/internal/usecase"
)

func TestInitBoard_Execute(t *testing.T) {
	boardDir := filepath.Join(t.TempDir(), ".kanban")
	store := &testutil.MockStoreInitializer{}

	out, err := usecase.NewInitBoard(store).Execute(context.Background(), usecase.InitBoardInput{BoardDir: boardDir})

	require.NoError(t, err)
	assert.False(t, out.AlreadyInitialized)
	assert.Equal(t, domain.DefaultStatuses(), store.Seeded)
	info, err := os.Stat(filepath.Join(boardDir, "logs"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestInitBoard_AlreadyInitialized(t *testing.T) {
	store := &testutil.MockStoreInitializer{Initialized: true}

	out, err := usecase.NewInitBoard(store).Execute(context.Background(), usecase.InitBoardInput{BoardDir: t.TempDir()})

	require.NoError(t, err)
	assert.True(t, out.AlreadyInitialized)
	assert.Nil(t, store.Seeded)
}

func TestInitBoard_StoreError(t *testing.T) {
	store := &testutil.MockStoreInitializer{InitErr: errors.New("locked")}

	_, err := usecase.NewInitBoard(store).Execute(context.Background(), usecase.InitBoardInput{BoardDir: t.TempDir()})

	assert.ErrorContains(t, err, "initialize store: locked")
}
