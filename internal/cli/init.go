package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/runoshun/kanban-sync/internal/app"
	"github.com/runoshun/kanban-sync/internal/usecase"
)

// newInitCommand creates the init command.
func newInitCommand(c *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize a board in the current directory",
		Long: `Initialize a board in the current directory.

This command creates the .kanban/ directory and seeds the store
configured in [store] with the default columns:
Backlog, Selected, In Progress and Done.

Running it again on an initialized board is a no-op.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, err := c.InitBoardUseCase().Execute(cmd.Context(), usecase.InitBoardInput{
				BoardDir: c.Config.BoardDir,
			})
			if err != nil {
				return err
			}

			if out.AlreadyInitialized {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Board already initialized in %s\n", out.BoardDir)
				return nil
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Initialized board in %s (store: %s)\n", out.BoardDir, c.AppConfig.Store.Type)
			return nil
		},
	}
}
