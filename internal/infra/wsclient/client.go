// Package wsclient provides the board client's websocket transport. It keeps
// one connection to the board server alive and reports lifecycle changes and
// inbound frames as events.
package wsclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/runoshun/kanban-sync/internal/channel"
	"github.com/runoshun/kanban-sync/internal/domain"
)

// ErrNotConnected is returned by WriteFrame while no connection is open.
var ErrNotConnected = errors.New("websocket not connected")

// Ensure Client implements channel.Transport.
var _ channel.Transport = (*Client)(nil)

// EventKind distinguishes client events.
type EventKind int

// Event kinds.
const (
	EventConnecting EventKind = iota
	EventOpened
	EventClosed
	EventMessage
)

// String returns the string representation of the event kind.
func (k EventKind) String() string {
	switch k {
	case EventConnecting:
		return "connecting"
	case EventOpened:
		return "opened"
	case EventClosed:
		return "closed"
	case EventMessage:
		return "message"
	}
	return "unknown"
}

// Event is posted by the client's goroutines.
type Event struct {
	Err   error  // Set on EventClosed when the connection failed
	Frame []byte // Set on EventMessage
	Kind  EventKind
}

// Options configures a Client.
type Options struct {
	Logger       domain.Logger
	URL          string
	ReconnectMin time.Duration
	ReconnectMax time.Duration
	WriteTimeout time.Duration
	// Dialer defaults to a dialer with a 5 second handshake timeout.
	Dialer *websocket.Dialer
}

// Client maintains a websocket connection with exponential reconnect backoff.
type Client struct {
	opts   Options
	events chan Event
	stop   chan struct{}
	done   chan struct{}
	conn   *websocket.Conn

	startOnce sync.Once
	closeOnce sync.Once
	mu        sync.Mutex
	writeMu   sync.Mutex
}

// New creates a client. Call Start to begin connecting.
func New(opts Options) *Client {
	if opts.Logger == nil {
		opts.Logger = domain.NopLogger{}
	}
	if opts.ReconnectMin <= 0 {
		opts.ReconnectMin = domain.DefaultReconnectMin
	}
	if opts.ReconnectMax < opts.ReconnectMin {
		opts.ReconnectMax = opts.ReconnectMin
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 5 * time.Second
	}
	if opts.Dialer == nil {
		opts.Dialer = &websocket.Dialer{HandshakeTimeout: 5 * time.Second}
	}
	return &Client{
		opts:   opts,
		events: make(chan Event, 256),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// Events returns the event stream. It is closed after Close.
func (c *Client) Events() <-chan Event {
	return c.events
}

// Start launches the connection loop. It stops when ctx is done or Close is
// called.
func (c *Client) Start(ctx context.Context) {
	c.startOnce.Do(func() {
		go c.run(ctx)
	})
}

// Close stops the loop, closes the connection and waits for the loop to exit.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		close(c.stop)
		c.disconnect(true)
		c.startOnce.Do(func() { close(c.done); close(c.events) })
		<-c.done
	})
	return nil
}

// WriteFrame sends one binary frame on the current connection.
func (c *Client) WriteFrame(frame []byte) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return ErrNotConnected
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = conn.SetWriteDeadline(time.Now().Add(c.opts.WriteTimeout))
	if err := conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
		// The reader notices the closed socket and reports EventClosed.
		_ = conn.Close()
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}

func (c *Client) disconnect(graceful bool) {
	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()
	if conn == nil {
		return
	}
	if graceful {
		c.writeMu.Lock()
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		c.writeMu.Unlock()
	}
	_ = conn.Close()
}

// post delivers an event unless the client is stopping.
func (c *Client) post(ctx context.Context, ev Event) bool {
	select {
	case c.events <- ev:
		return true
	case <-c.stop:
		return false
	case <-ctx.Done():
		return false
	}
}

func (c *Client) run(ctx context.Context) {
	defer close(c.done)
	defer close(c.events)

	backoff := c.opts.ReconnectMin
	for {
		if !c.post(ctx, Event{Kind: EventConnecting}) {
			c.disconnect(true)
			return
		}

		opened, err := c.connectAndReadLoop(ctx)
		if opened {
			backoff = c.opts.ReconnectMin
		}
		if !c.post(ctx, Event{Kind: EventClosed, Err: err}) {
			c.disconnect(true)
			return
		}
		if err != nil {
			c.opts.Logger.Warn("wsclient", fmt.Sprintf("connection to %s lost: %v (retry in %s)", c.opts.URL, err, backoff))
		}

		select {
		case <-c.stop:
			return
		case <-ctx.Done():
			c.disconnect(true)
			return
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > c.opts.ReconnectMax {
			backoff = c.opts.ReconnectMax
		}
	}
}

// connectAndReadLoop dials once and reads until the connection fails.
func (c *Client) connectAndReadLoop(ctx context.Context) (opened bool, err error) {
	// Close must not wait out a stalled handshake.
	dialCtx, cancelDial := context.WithCancel(ctx)
	go func() {
		select {
		case <-c.stop:
			cancelDial()
		case <-dialCtx.Done():
		}
	}()
	conn, resp, err := c.opts.Dialer.DialContext(dialCtx, c.opts.URL, http.Header{})
	cancelDial()
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		select {
		case <-c.stop:
			return false, nil
		default:
		}
		return false, fmt.Errorf("dial %s: %w", c.opts.URL, err)
	}

	c.mu.Lock()
	select {
	case <-c.stop:
		c.mu.Unlock()
		_ = conn.Close()
		return false, nil
	default:
	}
	c.conn = conn
	c.mu.Unlock()
	c.opts.Logger.Info("wsclient", "connected to "+c.opts.URL)

	if !c.post(ctx, Event{Kind: EventOpened}) {
		return true, nil
	}

	readDone := make(chan struct{})
	defer close(readDone)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-readDone:
		}
	}()

	for {
		typ, frame, err := conn.ReadMessage()
		if err != nil {
			c.mu.Lock()
			if c.conn == conn {
				c.conn = nil
			}
			c.mu.Unlock()
			_ = conn.Close()
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return true, nil
			}
			return true, err
		}
		if typ != websocket.BinaryMessage {
			continue
		}
		if !c.post(ctx, Event{Kind: EventMessage, Frame: frame}) {
			return true, nil
		}
	}
}
