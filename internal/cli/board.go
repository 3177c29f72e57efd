package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/runoshun/kanban-sync/internal/app"
	"github.com/runoshun/kanban-sync/internal/board"
	"github.com/runoshun/kanban-sync/internal/channel"
	"github.com/runoshun/kanban-sync/internal/domain"
	"github.com/runoshun/kanban-sync/internal/infra/wsclient"
	"github.com/runoshun/kanban-sync/internal/protocol"
)

// errConnectionClosed is returned by move when the client stops before the
// server confirmed the change.
var errConnectionClosed = errors.New("connection closed before the move was confirmed")

// newBoardCommand creates the board command.
func newBoardCommand(c *app.Container) *cobra.Command {
	var url string

	cmd := &cobra.Command{
		Use:   "board",
		Short: "Open the board",
		Long: `Open the interactive board connected to a board server.

Keys:
  h/l, j/k   move between columns and issues
  space      pick up the selected issue
  j/k        while dragging: swap with the neighbour
  enter      drop (on the issue under the cursor in another column)
  c          drop at the end of the cursor's column
  esc        cancel the drag and restore the board
  m, /       filter by "only mine" ([client] user_id) or by title
  x, r       delete the selected issue, refresh from the server

Changes made while offline are queued and sent on reconnect.`,
		RunE: func(_ *cobra.Command, _ []string) error {
			return launchTUIFunc(c, url)
		},
	}

	cmd.Flags().StringVar(&url, "url", "", "Board server websocket URL (default: [server] url)")
	return cmd
}

// moveTarget is where move drops the issue.
type moveTarget struct {
	onto   domain.IssueID       // Drop on this issue (0 = unused)
	column domain.IssueStatusID // Drop at the end of this column (0 = unused)
}

// newMoveCommand creates the move command.
func newMoveCommand(c *app.Container) *cobra.Command {
	var url string
	var onto, column int32
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "move <id>",
		Short: "Move an issue through the board server",
		Long: `Move an issue the same way the board does, without the UI.

With --column the issue is dropped at the end of that column.
With --onto the issue is dropped on another issue: in the same column the
two swap positions, in another column the issue lands right after it.

The command waits until the server broadcasts the new board.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseIssueID(args[0])
			if err != nil {
				return err
			}
			if (onto == 0) == (column == 0) {
				return errors.New("exactly one of --onto or --column is required")
			}
			target := moveTarget{onto: domain.IssueID(onto), column: domain.IssueStatusID(column)}

			ctx, cancel := signalContext(cmd.Context())
			defer cancel()
			ctx, cancelTimeout := context.WithTimeout(ctx, timeout)
			defer cancelTimeout()

			client := c.NewBoardClient(url, c.DomainLogger())
			return runMove(ctx, client, id, target, c.DomainLogger(), cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&url, "url", "", "Board server websocket URL (default: [server] url)")
	cmd.Flags().Int32Var(&onto, "onto", 0, "Drop on this issue")
	cmd.Flags().Int32Var(&column, "column", 0, "Drop at the end of this column (status ID)")
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "Give up after this long")
	return cmd
}

// runMove drives one session through a drag and waits for the server's
// replacement collection to reflect it.
func runMove(ctx context.Context, client *wsclient.Client, id domain.IssueID, target moveTarget, logger domain.Logger, w io.Writer) error {
	session := board.NewSession(channel.NewQueue(client, logger), logger)
	client.Start(ctx)
	defer client.Close()

	var want *domain.Issue
	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("move #%d: %w", id, ctx.Err())

		case ev, ok := <-client.Events():
			if !ok {
				return errConnectionClosed
			}
			if ev.Kind != wsclient.EventMessage {
				wsclient.Deliver(ev, session)
				continue
			}

			m, err := protocol.Decode(ev.Frame)
			if err != nil {
				logger.Warn("move", fmt.Sprintf("dropping frame: %v", err))
				continue
			}
			session.Receive(m)

			if e, ok := m.(protocol.ErrorMsg); ok && want != nil {
				return fmt.Errorf("server rejected the move: %s", e.Text)
			}

			if want == nil {
				if !session.Loaded() || len(session.Statuses()) == 0 {
					continue
				}
				done, err := applyMove(session, id, target, w)
				if err != nil || done == nil {
					return err
				}
				want = done
				continue
			}

			if _, ok := m.(protocol.IssuesLoaded); !ok {
				continue
			}
			if got, ok := session.Issue(id); ok {
				if got.IssueStatusID == want.IssueStatusID && got.ListPosition == want.ListPosition {
					_, _ = fmt.Fprintf(w, "Moved issue #%d to column %d at position %d\n", id, got.IssueStatusID, got.ListPosition)
					return nil
				}
			}
		}
	}
}

// applyMove runs the drag on the loaded session. It returns the expected
// state of the moved issue, or nil when nothing had to be sent.
func applyMove(session *board.Session, id domain.IssueID, target moveTarget, w io.Writer) (*domain.Issue, error) {
	if _, ok := session.Issue(id); !ok {
		return nil, fmt.Errorf("%w: #%d", domain.ErrIssueNotFound, id)
	}
	if _, ok := session.Issue(target.onto); target.onto != 0 && !ok {
		return nil, fmt.Errorf("%w: #%d", domain.ErrIssueNotFound, target.onto)
	}
	if target.column != 0 && !hasStatus(session.Statuses(), target.column) {
		return nil, fmt.Errorf("%w: %d", domain.ErrStatusNotFound, target.column)
	}

	session.Handle(board.DragStarted{ID: id})
	session.Handle(board.DragLeave{})
	var res board.Result
	if target.onto != 0 {
		res = session.Handle(board.DropOnIssue{ID: target.onto})
	} else {
		res = session.Handle(board.DropOnColumn{Status: target.column})
	}

	if res.Sync.Issues == 0 {
		_, _ = fmt.Fprintf(w, "Issue #%d is already there (%s)\n", id, res.Outcome)
		return nil, nil
	}
	_, _ = fmt.Fprintf(w, "Sent %d updates for %d issues\n", res.Sync.Delivered, res.Sync.Issues)

	issue, _ := session.Issue(id)
	return &issue, nil
}

func hasStatus(statuses []domain.IssueStatus, id domain.IssueStatusID) bool {
	for _, st := range statuses {
		if st.ID == id {
			return true
		}
	}
	return false
}

// parseIssueID parses a positive issue ID argument. A leading '#' is accepted.
func parseIssueID(s string) (domain.IssueID, error) {
	if len(s) > 0 && s[0] == '#' {
		s = s[1:]
	}
	n, err := strconv.ParseInt(s, 10, 32)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid issue ID: %q", s)
	}
	return domain.IssueID(n), nil
}
