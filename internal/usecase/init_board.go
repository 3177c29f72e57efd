// Package usecase contains the application use cases.
package usecase

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/runoshun/kanban-sync/internal/domain"
)

// InitBoardInput contains the input parameters for InitBoard.
type InitBoardInput struct {
	BoardDir string // Path to the .kanban directory
}

// InitBoardOutput contains the output from InitBoard.
type InitBoardOutput struct {
	BoardDir           string // Path to the board directory
	AlreadyInitialized bool   // True if the store already existed
}

// InitBoard creates the board directory and seeds the default columns.
type InitBoard struct {
	storeInit domain.StoreInitializer
}

// NewInitBoard creates a new InitBoard use case.
func NewInitBoard(storeInit domain.StoreInitializer) *InitBoard {
	return &InitBoard{storeInit: storeInit}
}

// Execute initializes the board. Running it on an initialized board is a no-op.
func (uc *InitBoard) Execute(_ context.Context, in InitBoardInput) (*InitBoardOutput, error) {
	if uc.storeInit.IsInitialized() {
		return &InitBoardOutput{BoardDir: in.BoardDir, AlreadyInitialized: true}, nil
	}

	if err := os.MkdirAll(filepath.Join(in.BoardDir, "logs"), 0o750); err != nil {
		return nil, fmt.Errorf("create board directory: %w", err)
	}

	if err := uc.storeInit.Initialize(domain.DefaultStatuses()); err != nil {
		return nil, fmt.Errorf("initialize store: %w", err)
	}

	return &InitBoardOutput{BoardDir: in.BoardDir}, nil
}
