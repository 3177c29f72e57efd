package wsclient

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/runoshun/kanban-sync/internal/channel"
)

type recordingSink struct {
	calls  []string
	frames [][]byte
}

func (s *recordingSink) Connecting() { s.calls = append(s.calls, "connecting") }
func (s *recordingSink) Opened() channel.FlushReport {
	s.calls = append(s.calls, "opened")
	return channel.FlushReport{}
}
func (s *recordingSink) Closed() { s.calls = append(s.calls, "closed") }
func (s *recordingSink) ReceiveFrame(frame []byte) error {
	s.calls = append(s.calls, "frame")
	s.frames = append(s.frames, frame)
	return nil
}

func TestDeliver(t *testing.T) {
	sink := &recordingSink{}
	for _, ev := range []Event{
		{Kind: EventConnecting},
		{Kind: EventOpened},
		{Kind: EventMessage, Frame: []byte{0, 1}},
		{Kind: EventClosed},
	} {
		Deliver(ev, sink)
	}

	assert.Equal(t, []string{"connecting", "opened", "frame", "closed"}, sink.calls)
	assert.Equal(t, [][]byte{{0, 1}}, sink.frames)
}
