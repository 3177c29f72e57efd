// Package server implements the board server: a websocket hub that applies
// field updates to the store and echoes full replacements to every client,
// plus a small read and column-admin HTTP API.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/runoshun/kanban-sync/internal/domain"
	"github.com/runoshun/kanban-sync/internal/protocol"
	"github.com/runoshun/kanban-sync/internal/usecase"
)

// Options tunes the server. Zero values select the defaults.
type Options struct {
	Debounce     time.Duration // Window in which issue changes coalesce into one replacement (default 50ms)
	PingPeriod   time.Duration // Keepalive ping interval (default 30s)
	WriteTimeout time.Duration // Deadline for one frame write (default 5s)
	SendQueue    int           // Frames buffered per peer (default 64)
}

// Server serves the board over websocket and HTTP.
type Server struct {
	echo   *echo.Echo
	hub    *Hub
	logger domain.Logger

	listIssues   *usecase.ListIssues
	listStatuses *usecase.ListStatuses
	updateIssue  *usecase.UpdateIssueField
	deleteIssue  *usecase.DeleteIssue
	createStatus *usecase.CreateStatus
	updateStatus *usecase.UpdateStatus
	deleteStatus *usecase.DeleteStatus

	issuesChanged   *coalescer
	statusesChanged *coalescer

	upgrader websocket.Upgrader
	opts     Options
}

// New creates a server over repo. notifier may be nil; when set, every store
// change is also published to other server instances.
func New(repo domain.IssueRepository, clock domain.Clock, notifier domain.ChangeNotifier, logger domain.Logger, opts Options) *Server {
	if logger == nil {
		logger = domain.NopLogger{}
	}
	if opts.Debounce <= 0 {
		opts.Debounce = 50 * time.Millisecond
	}
	if opts.PingPeriod <= 0 {
		opts.PingPeriod = 30 * time.Second
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 5 * time.Second
	}

	s := &Server{
		echo:         echo.New(),
		hub:          NewHub(opts.SendQueue, logger),
		logger:       logger,
		listIssues:   usecase.NewListIssues(repo),
		listStatuses: usecase.NewListStatuses(repo),
		updateIssue:  usecase.NewUpdateIssueField(repo, clock, notifier, logger),
		deleteIssue:  usecase.NewDeleteIssue(repo, notifier, logger),
		createStatus: usecase.NewCreateStatus(repo, notifier, logger),
		updateStatus: usecase.NewUpdateStatus(repo, notifier, logger),
		deleteStatus: usecase.NewDeleteStatus(repo, notifier, logger),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  16 * 1024,
			WriteBufferSize: 16 * 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		opts: opts,
	}
	s.issuesChanged = newCoalescer(opts.Debounce, s.broadcastIssues)
	s.statusesChanged = newCoalescer(opts.Debounce, s.broadcastStatuses)

	s.echo.HideBanner = true
	s.echo.HidePort = true
	s.register()
	return s
}

// Handler returns the HTTP handler, for embedding and tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Hub returns the server's peer hub.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Start serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) Start(ctx context.Context, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.echo.Start(addr)
	}()
	s.logger.Info("server", "listening on "+addr)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve %s: %w", addr, err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.Close()
	if err := s.echo.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// Close stops pending broadcasts and disconnects every peer.
func (s *Server) Close() {
	s.issuesChanged.Stop()
	s.statusesChanged.Stop()
	s.hub.closeAll()
}

// OnChange schedules a replacement broadcast after another process changed
// the store.
func (s *Server) OnChange(kind domain.ChangeKind) {
	switch kind {
	case domain.ChangeIssues:
		s.issuesChanged.Trigger()
	case domain.ChangeStatuses:
		s.statusesChanged.Trigger()
	default:
		s.logger.Warn("server", fmt.Sprintf("unknown change kind %q", kind))
	}
}

func (s *Server) handleWS(c echo.Context) error {
	conn, err := s.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// The upgrader already replied with an HTTP error.
		s.logger.Debug("server", fmt.Sprintf("upgrade: %v", err))
		return nil
	}
	defer conn.Close()
	conn.SetReadLimit(protocol.MaxFrameSize)

	p := s.hub.add()
	defer s.hub.remove(p.id)

	readTimeout := 2 * s.opts.PingPeriod
	_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(readTimeout))
	})

	go s.writeLoop(conn, p)

	ctx := c.Request().Context()
	for {
		typ, frame, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Debug("server", fmt.Sprintf("peer %s read: %v", p.id, err))
			}
			return nil
		}
		_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
		if typ != websocket.BinaryMessage {
			continue
		}
		m, err := protocol.Decode(frame)
		if err != nil {
			s.reject(p.id, err)
			continue
		}
		s.handle(ctx, p.id, m)
	}
}

// writeLoop is the only writer of conn's data frames. It exits when the hub
// closes the peer's queue or a write fails.
func (s *Server) writeLoop(conn *websocket.Conn, p *peer) {
	ticker := time.NewTicker(s.opts.PingPeriod)
	defer ticker.Stop()
	defer conn.Close()

	for {
		select {
		case frame, ok := <-p.out:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
					time.Now().Add(time.Second))
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(s.opts.WriteTimeout))
			if err := conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
				s.logger.Debug("server", fmt.Sprintf("peer %s write: %v", p.id, err))
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(s.opts.WriteTimeout)); err != nil {
				return
			}
		}
	}
}

// handle applies one client message. Failures go back to the sender only.
func (s *Server) handle(ctx context.Context, id uuid.UUID, m protocol.Message) {
	switch m := m.(type) {
	case protocol.IssueUpdateRequest:
		_, err := s.updateIssue.Execute(ctx, usecase.UpdateIssueFieldInput{
			ID:    m.ID,
			Field: m.Field,
			Value: m.Value,
		})
		if err != nil {
			s.reject(id, fmt.Errorf("update #%d %s: %w", m.ID, m.Field, err))
			return
		}
		s.issuesChanged.Trigger()

	case protocol.IssueDeleteRequest:
		if _, err := s.deleteIssue.Execute(ctx, usecase.DeleteIssueInput{ID: m.ID}); err != nil {
			s.reject(id, fmt.Errorf("delete #%d: %w", m.ID, err))
			return
		}
		s.broadcast(protocol.IssueDeleted{ID: m.ID})
		s.issuesChanged.Trigger()

	case protocol.IssuesRequest:
		msg, err := s.issuesMessage(ctx)
		if err != nil {
			s.reject(id, err)
			return
		}
		s.send(id, msg)

	case protocol.IssueStatusesRequest:
		msg, err := s.statusesMessage(ctx)
		if err != nil {
			s.reject(id, err)
			return
		}
		s.send(id, msg)

	case protocol.IssuesLoaded, protocol.IssueDeleted, protocol.IssueStatusesLoaded,
		protocol.IssueStatusCreated, protocol.IssueStatusUpdated, protocol.IssueStatusDeleted,
		protocol.ErrorMsg:
		s.reject(id, fmt.Errorf("%s is not accepted from clients", m.Kind()))
	}
}

func (s *Server) issuesMessage(ctx context.Context) (protocol.Message, error) {
	out, err := s.listIssues.Execute(ctx, usecase.ListIssuesInput{})
	if err != nil {
		return nil, err
	}
	return protocol.IssuesLoaded{Issues: out.Issues}, nil
}

func (s *Server) statusesMessage(ctx context.Context) (protocol.Message, error) {
	out, err := s.listStatuses.Execute(ctx, usecase.ListStatusesInput{})
	if err != nil {
		return nil, err
	}
	return protocol.IssueStatusesLoaded{Statuses: out.Statuses}, nil
}

func (s *Server) broadcastIssues() {
	msg, err := s.issuesMessage(context.Background())
	if err != nil {
		s.logger.Error("server", fmt.Sprintf("load issues for broadcast: %v", err))
		return
	}
	s.broadcast(msg)
}

func (s *Server) broadcastStatuses() {
	msg, err := s.statusesMessage(context.Background())
	if err != nil {
		s.logger.Error("server", fmt.Sprintf("load statuses for broadcast: %v", err))
		return
	}
	s.broadcast(msg)
}

func (s *Server) broadcast(m protocol.Message) {
	if err := s.hub.Broadcast(m); err != nil {
		s.logger.Error("server", err.Error())
	}
}

func (s *Server) send(id uuid.UUID, m protocol.Message) {
	if err := s.hub.Send(id, m); err != nil {
		s.logger.Error("server", err.Error())
	}
}

func (s *Server) reject(id uuid.UUID, err error) {
	s.logger.Warn("server", fmt.Sprintf("peer %s: %v", id, err))
	s.send(id, protocol.ErrorMsg{Text: err.Error()})
}
