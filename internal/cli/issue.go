package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/runoshun/kanban-sync/internal/app"
	"github.com/runoshun/kanban-sync/internal/domain"
	"github.com/runoshun/kanban-sync/internal/usecase"
)

// newIssueCommand creates the issue command.
func newIssueCommand(c *app.Container) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "issue",
		Short: "Create, list and delete issues",
		Long: `Create, list and delete issues directly in the store.

Running servers are told about the change through Redis when
[server] redis_addr is configured; otherwise clients see it on their
next refresh.`,
	}

	cmd.AddCommand(
		newIssueNewCommand(c),
		newIssueListCommand(c),
		newIssueRmCommand(c),
	)
	return cmd
}

// connectNotifier attaches the Redis notifier when one is configured.
// A failure only costs live updates, so it is reported as a warning.
func connectNotifier(cmd *cobra.Command, c *app.Container) {
	if _, err := c.ConnectBus(cmd.Context()); err != nil {
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Warning: servers will not be notified: %v\n", err)
	}
}

// newIssueNewCommand creates the issue new subcommand.
func newIssueNewCommand(c *app.Container) *cobra.Command {
	var opts struct {
		title     string
		desc      string
		assignees []int32
		status    int32
		reporter  int32
	}

	cmd := &cobra.Command{
		Use:   "new",
		Short: "Create an issue at the bottom of a column",
		RunE: func(cmd *cobra.Command, _ []string) error {
			connectNotifier(cmd, c)

			assignees := make([]domain.UserID, 0, len(opts.assignees))
			for _, a := range opts.assignees {
				assignees = append(assignees, domain.UserID(a))
			}
			out, err := c.NewIssueUseCase().Execute(cmd.Context(), usecase.NewIssueInput{
				Title:       opts.title,
				Description: opts.desc,
				AssigneeIDs: assignees,
				StatusID:    domain.IssueStatusID(opts.status),
				ReporterID:  domain.UserID(opts.reporter),
			})
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Created issue #%d in column %d at position %d\n",
				out.Issue.ID, out.Issue.IssueStatusID, out.Issue.ListPosition)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.title, "title", "", "Issue title (required)")
	cmd.Flags().StringVar(&opts.desc, "desc", "", "Issue description")
	cmd.Flags().Int32Var(&opts.status, "status", 0, "Column (status ID, default: first column)")
	cmd.Flags().Int32Var(&opts.reporter, "reporter", 0, "Reporter user ID")
	cmd.Flags().Int32SliceVar(&opts.assignees, "assignee", nil, "Assignee user ID (repeatable)")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

// newIssueListCommand creates the issue list subcommand.
func newIssueListCommand(c *app.Container) *cobra.Command {
	var opts struct {
		query  string
		status int32
		user   int32
		mine   bool
		asJSON bool
	}

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List issues in board order",
		RunE: func(cmd *cobra.Command, _ []string) error {
			user := domain.UserID(opts.user)
			if opts.mine {
				user = c.AppConfig.Client.UserID
				if user == 0 {
					return fmt.Errorf("--mine needs [client] user_id in the config")
				}
			}

			out, err := c.ListIssuesUseCase().Execute(cmd.Context(), usecase.ListIssuesInput{
				Query:    opts.query,
				StatusID: domain.IssueStatusID(opts.status),
				UserID:   user,
			})
			if err != nil {
				return err
			}

			if opts.asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(out.Issues)
			}
			return printIssues(cmd.OutOrStdout(), out.Issues)
		},
	}

	cmd.Flags().StringVarP(&opts.query, "query", "q", "", "Case-insensitive title filter")
	cmd.Flags().Int32Var(&opts.status, "status", 0, "Only this column (status ID)")
	cmd.Flags().Int32Var(&opts.user, "user", 0, "Only issues this user reported or is assigned to")
	cmd.Flags().BoolVar(&opts.mine, "mine", false, "Only issues of [client] user_id")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "Output JSON")
	return cmd
}

// printIssues writes issues as an aligned table.
func printIssues(w io.Writer, issues []domain.Issue) error {
	tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ID\tSTATUS\tPOS\tTITLE\tASSIGNEES")
	for _, issue := range issues {
		assignees := make([]string, 0, len(issue.AssigneeIDs))
		for _, a := range issue.AssigneeIDs {
			assignees = append(assignees, strconv.Itoa(int(a)))
		}
		_, _ = fmt.Fprintf(tw, "%d\t%d\t%d\t%s\t%s\n",
			issue.ID, issue.IssueStatusID, issue.ListPosition, issue.Title, strings.Join(assignees, ","))
	}
	return tw.Flush()
}

// newIssueRmCommand creates the issue rm subcommand.
func newIssueRmCommand(c *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete an issue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseIssueID(args[0])
			if err != nil {
				return err
			}
			connectNotifier(cmd, c)

			out, err := c.DeleteIssueUseCase().Execute(cmd.Context(), usecase.DeleteIssueInput{ID: id})
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Deleted issue #%d: %s\n", id, out.Title)
			return nil
		},
	}
}
