package wsclient

import "github.com/runoshun/kanban-sync/internal/channel"

// Sink consumes client events on the owner's event loop. board.Session
// implements it.
type Sink interface {
	Connecting()
	Opened() channel.FlushReport
	Closed()
	ReceiveFrame(frame []byte) error
}

// Deliver applies one event to sink. Malformed frames are reported by the
// sink and otherwise ignored.
func Deliver(ev Event, sink Sink) {
	switch ev.Kind {
	case EventConnecting:
		sink.Connecting()
	case EventOpened:
		sink.Opened()
	case EventClosed:
		sink.Closed()
	case EventMessage:
		_ = sink.ReceiveFrame(ev.Frame)
	}
}
