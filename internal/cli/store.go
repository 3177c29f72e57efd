package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/runoshun/kanban-sync/internal/app"
)

// errNotGitStore is returned by store push/fetch on other backends.
var errNotGitStore = errors.New(`store push/fetch need [store] type = "git"`)

// newStoreCommand creates the store command.
func newStoreCommand(c *app.Container) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "store",
		Short: "Share the git-backed store",
		Long: `Share a git-backed board through a git remote.

The board lives in refs/<namespace>/* of the repository, so it is pushed
and fetched with an explicit refspec. fetch overwrites the local board refs.`,
	}

	cmd.AddCommand(
		newStoreRemoteCommand(c, "push", "Push the board refs to a remote"),
		newStoreRemoteCommand(c, "fetch", "Fetch the board refs from a remote"),
	)
	return cmd
}

func newStoreRemoteCommand(c *app.Container, verb, short string) *cobra.Command {
	return &cobra.Command{
		Use:   verb + " [remote]",
		Short: short,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			gs, ok := c.GitStore()
			if !ok {
				return errNotGitStore
			}
			remote := "origin"
			if len(args) == 1 {
				remote = args[0]
			}

			run := gs.Push
			if verb == "fetch" {
				run = gs.Fetch
			}
			if err := run(cmd.Context(), remote); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s %s: %s\n", verb, remote, gs.Refspec())
			return nil
		},
	}
}
