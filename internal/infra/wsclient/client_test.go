package wsclient

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// echoServer echoes binary frames. When dropAfter is positive the server
// closes each connection after echoing that many frames.
func echoServer(t *testing.T, dropAfter int) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var conns atomic.Int32
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		conns.Add(1)
		for n := 0; dropAfter <= 0 || n < dropAfter; n++ {
			typ, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if err := conn.WriteMessage(typ, msg); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &conns
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func nextEvent(t *testing.T, c *Client, want EventKind) Event {
	t.Helper()
	timeout := time.After(5 * time.Second)
	for {
		select {
		case ev, ok := <-c.Events():
			require.True(t, ok, "event stream closed while waiting for %s", want)
			if ev.Kind == want {
				return ev
			}
		case <-timeout:
			t.Fatalf("timed out waiting for %s", want)
		}
	}
}

func TestClient_OpenWriteReceive(t *testing.T) {
	srv, _ := echoServer(t, 0)
	c := New(Options{URL: wsURL(srv), ReconnectMin: 10 * time.Millisecond})
	c.Start(context.Background())
	defer c.Close()

	nextEvent(t, c, EventOpened)
	require.NoError(t, c.WriteFrame([]byte{0x00, 0xa0}))

	ev := nextEvent(t, c, EventMessage)
	assert.Equal(t, []byte{0x00, 0xa0}, ev.Frame)
}

func TestClient_WriteWithoutConnection(t *testing.T) {
	c := New(Options{URL: "ws://127.0.0.1:1/ws"})
	err := c.WriteFrame([]byte{0x00})
	assert.ErrorIs(t, err, ErrNotConnected)
	assert.NoError(t, c.Close())
}

func TestClient_ReconnectsAfterServerDrop(t *testing.T) {
	srv, conns := echoServer(t, 1)
	c := New(Options{
		URL:          wsURL(srv),
		ReconnectMin: 10 * time.Millisecond,
		ReconnectMax: 20 * time.Millisecond,
	})
	c.Start(context.Background())
	defer c.Close()

	nextEvent(t, c, EventOpened)
	require.NoError(t, c.WriteFrame([]byte{0x00, 0x01}))
	nextEvent(t, c, EventMessage)
	nextEvent(t, c, EventClosed)
	nextEvent(t, c, EventOpened)

	assert.GreaterOrEqual(t, conns.Load(), int32(2))
}

func TestClient_DialFailureReportsClosed(t *testing.T) {
	srv, _ := echoServer(t, 0)
	url := wsURL(srv)
	srv.Close()

	c := New(Options{URL: url, ReconnectMin: 10 * time.Millisecond})
	c.Start(context.Background())
	defer c.Close()

	nextEvent(t, c, EventConnecting)
	ev := nextEvent(t, c, EventClosed)
	assert.Error(t, ev.Err)
}

func TestClient_ContextCancelStops(t *testing.T) {
	srv, _ := echoServer(t, 0)
	ctx, cancel := context.WithCancel(context.Background())
	c := New(Options{URL: wsURL(srv)})
	c.Start(ctx)

	nextEvent(t, c, EventOpened)
	cancel()

	timeout := time.After(5 * time.Second)
	for {
		select {
		case _, ok := <-c.Events():
			if !ok {
				return
			}
		case <-timeout:
			t.Fatal("event stream not closed after cancel")
		}
	}
}

func TestClient_CloseDuringStalledHandshake(t *testing.T) {
	// Accepts TCP connections but never answers the upgrade request.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	accepted := make(chan net.Conn, 4)
	acceptDone := make(chan struct{})
	go func() {
		defer close(acceptDone)
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			accepted <- conn
		}
	}()
	t.Cleanup(func() {
		_ = ln.Close()
		<-acceptDone
		close(accepted)
		for conn := range accepted {
			_ = conn.Close()
		}
	})

	c := New(Options{
		URL:    "ws://" + ln.Addr().String() + "/ws",
		Dialer: &websocket.Dialer{HandshakeTimeout: 30 * time.Second},
	})
	c.Start(context.Background())
	nextEvent(t, c, EventConnecting)

	select {
	case conn := <-accepted:
		accepted <- conn
	case <-time.After(2 * time.Second):
		t.Fatal("client never dialed")
	}

	closed := make(chan struct{})
	go func() {
		_ = c.Close()
		close(closed)
	}()
	select {
	case <-closed:
	case <-time.After(time.Second):
		t.Fatal("Close blocked on the pending handshake")
	}
}
