package tui

import "github.com/runoshun/kanban-sync/internal/infra/wsclient"

// Msg is the sealed interface for all TUI messages.
//
// go-sumtype:decl Msg
type Msg interface {
	sealed()
}

// MsgTransport carries one websocket client event into the update loop.
type MsgTransport struct {
	Event wsclient.Event
}

func (MsgTransport) sealed() {}

// MsgTransportDone is sent once the client's event stream has ended.
type MsgTransportDone struct{}

func (MsgTransportDone) sealed() {}

// MsgClearNotice clears the transient notice in the status line.
type MsgClearNotice struct {
	Seq int
}

func (MsgClearNotice) sealed() {}
