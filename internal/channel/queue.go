// Package channel buffers outbound protocol messages in front of a
// transport that may not be connected.
package channel

import (
	"fmt"

	"github.com/runoshun/kanban-sync/internal/domain"
	"github.com/runoshun/kanban-sync/internal/protocol"
)

// State is the transport's connection state as seen by the queue.
type State int

// Connection states.
const (
	Closed State = iota
	Connecting
	Open
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Connecting:
		return "connecting"
	case Open:
		return "open"
	}
	return "unknown"
}

// Result is the fate of one Send call.
type Result int

// Send results.
const (
	Delivered Result = iota // Written to the transport
	Bounced                 // Queued for the next flush
	Dropped                 // Could not be encoded, discarded
)

// String returns the string representation of the result.
func (r Result) String() string {
	switch r {
	case Delivered:
		return "delivered"
	case Bounced:
		return "bounced"
	case Dropped:
		return "dropped"
	}
	return "unknown"
}

// Transport writes one encoded frame.
type Transport interface {
	WriteFrame(frame []byte) error
}

// FlushReport summarizes a Flush.
type FlushReport struct {
	Delivered int
	Dropped   int
	Remaining int // Still queued after the flush
}

// Queue sends messages while the transport is open and keeps them in FIFO
// order otherwise. It is not safe for concurrent use.
type Queue struct {
	transport Transport
	logger    domain.Logger
	pending   []protocol.Message
	state     State
}

// NewQueue creates a closed queue writing to t.
func NewQueue(t Transport, logger domain.Logger) *Queue {
	if logger == nil {
		logger = domain.NopLogger{}
	}
	return &Queue{transport: t, logger: logger, state: Closed}
}

// Send writes m when the queue is open and queues it otherwise. A failed
// write queues m and closes the queue.
func (q *Queue) Send(m protocol.Message) Result {
	if q.state != Open || q.transport == nil {
		q.pending = append(q.pending, m)
		return Bounced
	}

	frame, err := protocol.Encode(m)
	if err != nil {
		q.logger.Error("channel", fmt.Sprintf("dropping %s: %v", m.Kind(), err))
		return Dropped
	}
	if err := q.transport.WriteFrame(frame); err != nil {
		q.logger.Warn("channel", fmt.Sprintf("write %s failed, queueing: %v", m.Kind(), err))
		q.state = Closed
		q.pending = append(q.pending, m)
		return Bounced
	}
	return Delivered
}

// Flush drains queued messages in order while the queue stays open.
func (q *Queue) Flush() FlushReport {
	var report FlushReport
	if q.state != Open {
		report.Remaining = len(q.pending)
		return report
	}

	pending := q.pending
	q.pending = nil
	for i, m := range pending {
		switch q.Send(m) {
		case Delivered:
			report.Delivered++
		case Dropped:
			report.Dropped++
		case Bounced:
			q.pending = append(q.pending, pending[i+1:]...)
			report.Remaining = len(q.pending)
			return report
		}
	}
	return report
}

// Opened marks the transport open and flushes the queue.
func (q *Queue) Opened() FlushReport {
	q.state = Open
	return q.Flush()
}

// Closed marks the transport closed. Queued messages are kept.
func (q *Queue) Closed() {
	q.state = Closed
}

// SetState sets the connection state without flushing.
func (q *Queue) SetState(s State) {
	q.state = s
}

// State returns the connection state.
func (q *Queue) State() State {
	return q.state
}

// Pending returns the number of queued messages.
func (q *Queue) Pending() int {
	return len(q.pending)
}
