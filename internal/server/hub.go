package server

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/runoshun/kanban-sync/internal/domain"
	"github.com/runoshun/kanban-sync/internal/protocol"
)

// peer is one connected board client. The hub owns out; it is closed when
// the peer is removed.
type peer struct {
	out chan []byte
	id  uuid.UUID
}

// Hub tracks connected peers and fans frames out to them. Sends never block:
// a peer whose queue is full is dropped and reconnects on its own.
type Hub struct {
	peers     map[uuid.UUID]*peer
	logger    domain.Logger
	sendQueue int
	mu        sync.Mutex
}

// NewHub creates an empty hub. sendQueue bounds the frames buffered per peer.
func NewHub(sendQueue int, logger domain.Logger) *Hub {
	if sendQueue <= 0 {
		sendQueue = 64
	}
	if logger == nil {
		logger = domain.NopLogger{}
	}
	return &Hub{
		peers:     make(map[uuid.UUID]*peer),
		logger:    logger,
		sendQueue: sendQueue,
	}
}

func (h *Hub) add() *peer {
	p := &peer{id: uuid.New(), out: make(chan []byte, h.sendQueue)}
	h.mu.Lock()
	h.peers[p.id] = p
	n := len(h.peers)
	h.mu.Unlock()
	h.logger.Info("hub", fmt.Sprintf("peer %s joined (%d connected)", p.id, n))
	return p
}

func (h *Hub) remove(id uuid.UUID) {
	h.mu.Lock()
	p, ok := h.peers[id]
	if ok {
		delete(h.peers, id)
		close(p.out)
	}
	n := len(h.peers)
	h.mu.Unlock()
	if ok {
		h.logger.Info("hub", fmt.Sprintf("peer %s left (%d connected)", id, n))
	}
}

// closeAll removes every peer; their writers send a close frame and exit.
func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, p := range h.peers {
		delete(h.peers, id)
		close(p.out)
	}
}

// Len returns the number of connected peers.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.peers)
}

// Send encodes m and queues it for one peer.
func (h *Hub) Send(id uuid.UUID, m protocol.Message) error {
	frame, err := protocol.Encode(m)
	if err != nil {
		return fmt.Errorf("encode %s: %w", m.Kind(), err)
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if p, ok := h.peers[id]; ok {
		h.enqueueLocked(p, frame)
	}
	return nil
}

// Broadcast encodes m once and queues it for every peer.
func (h *Hub) Broadcast(m protocol.Message) error {
	frame, err := protocol.Encode(m)
	if err != nil {
		return fmt.Errorf("encode %s: %w", m.Kind(), err)
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, p := range h.peers {
		h.enqueueLocked(p, frame)
	}
	return nil
}

func (h *Hub) enqueueLocked(p *peer, frame []byte) {
	select {
	case p.out <- frame:
	default:
		delete(h.peers, p.id)
		close(p.out)
		h.logger.Warn("hub", fmt.Sprintf("peer %s too slow, dropped", p.id))
	}
}

// coalescer runs fn once per window no matter how often it is triggered
// inside that window.
type coalescer struct {
	timer *time.Timer
	fn    func()
	delay time.Duration
	mu    sync.Mutex
}

func newCoalescer(delay time.Duration, fn func()) *coalescer {
	return &coalescer{delay: delay, fn: fn}
}

func (c *coalescer) Trigger() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.timer != nil {
		return
	}
	c.timer = time.AfterFunc(c.delay, func() {
		c.mu.Lock()
		c.timer = nil
		c.mu.Unlock()
		c.fn()
	})
}

func (c *coalescer) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}
