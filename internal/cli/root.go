// Package cli provides the command-line interface for kanban.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/runoshun/kanban-sync/internal/app"
	"github.com/runoshun/kanban-sync/internal/board"
	"github.com/runoshun/kanban-sync/internal/channel"
	"github.com/runoshun/kanban-sync/internal/tui"
)

// Command group IDs.
const (
	groupSetup  = "setup"
	groupBoard  = "board"
	groupManage = "manage"
)

// launchTUIFunc is a function variable for launching the board TUI, allowing it to be mocked in tests.
var launchTUIFunc = launchTUI

// NewRootCommand creates the root command for kanban.
// It receives the container for dependency injection and version for display.
func NewRootCommand(c *app.Container, version string) *cobra.Command {
	root := &cobra.Command{
		Use:   "kanban",
		Short: "Kanban board with optimistic reordering",
		Long: `kanban is a terminal kanban board.

Issues are dragged between columns on the client and reordered locally
right away. Changed issues are pushed to the board server as field
updates; the server answers with the authoritative collection.

Run without arguments to open the board.`,
		Version: version,
		// SilenceUsage prevents usage from being printed on errors
		SilenceUsage: true,
		// SilenceErrors prevents Cobra from printing errors (we handle it in main)
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Skip if container is nil (e.g. in tests)
			if c == nil || c.AppConfig == nil {
				return nil
			}
			for _, w := range c.AppConfig.Warnings {
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %s\n", w)
			}
			return nil
		},
		RunE: func(_ *cobra.Command, _ []string) error {
			return launchTUIFunc(c, "")
		},
	}

	root.AddGroup(
		&cobra.Group{ID: groupSetup, Title: "Setup Commands:"},
		&cobra.Group{ID: groupBoard, Title: "Board Commands:"},
		&cobra.Group{ID: groupManage, Title: "Issue and Column Management:"},
	)

	// Setup commands
	initCmd := newInitCommand(c)
	initCmd.GroupID = groupSetup

	configCmd := newConfigCommand(c)
	configCmd.GroupID = groupSetup

	storeCmd := newStoreCommand(c)
	storeCmd.GroupID = groupSetup

	// Board commands
	boardCmd := newBoardCommand(c)
	boardCmd.GroupID = groupBoard

	serveCmd := newServeCommand(c)
	serveCmd.GroupID = groupBoard

	moveCmd := newMoveCommand(c)
	moveCmd.GroupID = groupBoard

	// Management commands
	issueCmd := newIssueCommand(c)
	issueCmd.GroupID = groupManage

	statusCmd := newStatusCommand(c)
	statusCmd.GroupID = groupManage

	root.AddCommand(
		initCmd,
		configCmd,
		storeCmd,
		boardCmd,
		serveCmd,
		moveCmd,
		issueCmd,
		statusCmd,
	)

	return root
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// launchTUI opens the board against url ("" = configured server URL).
// The client logs to the board log file while the TUI owns the terminal.
func launchTUI(c *app.Container, url string) error {
	ctx, cancel := signalContext(context.Background())
	defer cancel()

	logger := c.ClientLogger()
	defer func() { _ = logger.Close() }()

	client := c.NewBoardClient(url, logger)
	session := board.NewSession(channel.NewQueue(client, logger), logger)
	return tui.Run(ctx, client, session, tui.Options{
		Logger: logger,
		UserID: c.AppConfig.Client.UserID,
	})
}
