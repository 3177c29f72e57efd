package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/runoshun/kanban-sync/internal/app"
	"github.com/runoshun/kanban-sync/internal/server"
)

// newServeCommand creates the serve command.
func newServeCommand(c *app.Container) *cobra.Command {
	var listen string
	var debounce time.Duration

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the board server",
		Long: `Run the board server over the configured store.

Clients connect to /ws and exchange binary frames. Every applied update is
followed by a fresh issue collection for all clients. Column management
is available under /api/statuses, and /healthz reports liveness.

When [server] redis_addr is set, changes made by other servers and by
'kanban issue' or 'kanban status' commands are picked up through Redis.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if listen == "" {
				listen = c.AppConfig.Server.Listen
			}

			ctx, cancel := signalContext(cmd.Context())
			defer cancel()
			defer func() { _ = c.Close() }()

			bus, err := c.ConnectBus(ctx)
			if err != nil {
				return fmt.Errorf("connect redis: %w", err)
			}

			srv := c.NewServer(server.Options{Debounce: debounce})
			if bus != nil {
				go bus.Subscribe(ctx, srv.OnChange)
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Serving board on %s\n", listen)
			c.Logger.Info("board server started", "listen", listen, "store", string(c.AppConfig.Store.Type), "redis", bus != nil)
			if err := srv.Start(ctx, listen); err != nil {
				return err
			}
			c.Logger.Info("board server stopped")
			return nil
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "Address to listen on (default: [server] listen)")
	cmd.Flags().DurationVar(&debounce, "debounce", 50*time.Millisecond, "Coalesce broadcasts within this window")
	return cmd
}
