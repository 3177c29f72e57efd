package cli

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/runoshun/kanban-sync/internal/app"
	"github.com/runoshun/kanban-sync/internal/domain"
	"github.com/runoshun/kanban-sync/internal/usecase"
)

// newStatusCommand creates the status command.
func newStatusCommand(c *app.Container) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Manage board columns",
		Long: `Manage the board's columns (issue statuses).

A column can only be removed once it holds no issues.`,
	}

	cmd.AddCommand(
		newStatusListCommand(c),
		newStatusAddCommand(c),
		newStatusRenameCommand(c),
		newStatusRmCommand(c),
	)
	return cmd
}

func parseStatusID(s string) (domain.IssueStatusID, error) {
	n, err := strconv.ParseInt(s, 10, 32)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid status ID: %q", s)
	}
	return domain.IssueStatusID(n), nil
}

// newStatusListCommand creates the status list subcommand.
func newStatusListCommand(c *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List columns in display order",
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, err := c.ListStatusesUseCase().Execute(cmd.Context(), usecase.ListStatusesInput{})
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
			_, _ = fmt.Fprintln(tw, "ID\tPOS\tNAME")
			for _, st := range out.Statuses {
				_, _ = fmt.Fprintf(tw, "%d\t%d\t%s\n", st.ID, st.Position, st.Name)
			}
			return tw.Flush()
		},
	}
}

// newStatusAddCommand creates the status add subcommand.
func newStatusAddCommand(c *app.Container) *cobra.Command {
	var position int32

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a column",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			connectNotifier(cmd, c)

			in := usecase.CreateStatusInput{Name: args[0]}
			if cmd.Flags().Changed("position") {
				in.Position = &position
			}
			out, err := c.CreateStatusUseCase().Execute(cmd.Context(), in)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Added column %d: %s\n", out.Status.ID, out.Status.Name)
			return nil
		},
	}

	cmd.Flags().Int32Var(&position, "position", 0, "Display position (default: after the last column)")
	return cmd
}

// newStatusRenameCommand creates the status rename subcommand.
func newStatusRenameCommand(c *app.Container) *cobra.Command {
	var position int32

	cmd := &cobra.Command{
		Use:   "rename <id> [name]",
		Short: "Rename or move a column",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseStatusID(args[0])
			if err != nil {
				return err
			}
			in := usecase.UpdateStatusInput{ID: id}
			if len(args) == 2 {
				in.Name = args[1]
			}
			if cmd.Flags().Changed("position") {
				in.Position = &position
			}
			if in.Name == "" && in.Position == nil {
				return fmt.Errorf("nothing to change: pass a name or --position")
			}
			connectNotifier(cmd, c)

			out, err := c.UpdateStatusUseCase().Execute(cmd.Context(), in)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Updated column %d: %s (position %d)\n",
				out.Status.ID, out.Status.Name, out.Status.Position)
			return nil
		},
	}

	cmd.Flags().Int32Var(&position, "position", 0, "New display position")
	return cmd
}

// newStatusRmCommand creates the status rm subcommand.
func newStatusRmCommand(c *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>",
		Short: "Remove an empty column",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseStatusID(args[0])
			if err != nil {
				return err
			}
			connectNotifier(cmd, c)

			if _, err := c.DeleteStatusUseCase().Execute(cmd.Context(), usecase.DeleteStatusInput{ID: id}); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Removed column %d\n", id)
			return nil
		},
	}
}
