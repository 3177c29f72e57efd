package server

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runoshun/kanban-sync/internal/protocol"
	"github.com/runoshun/kanban-sync/internal/testutil"
)

func TestHub_BroadcastReachesEveryPeer(t *testing.T) {
	h := NewHub(4, nil)
	a := h.add()
	b := h.add()

	require.NoError(t, h.Broadcast(protocol.IssueDeleted{ID: 7}))

	for _, p := range []*peer{a, b} {
		frame := <-p.out
		m, err := protocol.Decode(frame)
		require.NoError(t, err)
		assert.Equal(t, protocol.IssueDeleted{ID: 7}, m)
	}
}

func TestHub_SendTargetsOnePeer(t *testing.T) {
	h := NewHub(4, nil)
	a := h.add()
	b := h.add()

	require.NoError(t, h.Send(a.id, protocol.ErrorMsg{Text: "nope"}))

	assert.Len(t, a.out, 1)
	assert.Empty(t, b.out)
}

func TestHub_DropsSlowPeer(t *testing.T) {
	logger := &testutil.MockLogger{}
	h := NewHub(1, logger)
	p := h.add()

	require.NoError(t, h.Broadcast(protocol.IssuesRequest{}))
	require.NoError(t, h.Broadcast(protocol.IssuesRequest{}))

	assert.Equal(t, 0, h.Len())
	_, ok := <-p.out
	assert.True(t, ok, "the queued frame is still delivered")
	_, ok = <-p.out
	assert.False(t, ok, "queue is closed after the drop")
	assert.Equal(t, 1, logger.Count("WARN"))

	// Removing a dropped peer again is a no-op.
	h.remove(p.id)
}

func TestHub_CloseAll(t *testing.T) {
	h := NewHub(1, nil)
	p := h.add()
	h.closeAll()

	assert.Equal(t, 0, h.Len())
	_, ok := <-p.out
	assert.False(t, ok)
}

func TestCoalescer_RunsOncePerWindow(t *testing.T) {
	var calls atomic.Int32
	c := newCoalescer(20*time.Millisecond, func() { calls.Add(1) })

	for range 5 {
		c.Trigger()
	}
	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, 5*time.Millisecond)

	c.Trigger()
	require.Eventually(t, func() bool { return calls.Load() == 2 }, time.Second, 5*time.Millisecond)
}

func TestCoalescer_Stop(t *testing.T) {
	var calls atomic.Int32
	c := newCoalescer(20*time.Millisecond, func() { calls.Add(1) })

	c.Trigger()
	c.Stop()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(0), calls.Load())
}
