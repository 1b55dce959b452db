package net

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"InkBoard/internal/state"
)

const (
	writeWait  = 5 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	sendBuffer = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// Peer is one connected mirror viewer.
type Peer struct {
	ID   string
	conn *websocket.Conn
	send chan []byte
}

// Hub fans notebook ops out to all connected peers.
type Hub struct {
	peers map[string]*Peer
	mu    sync.RWMutex
	log   *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{peers: make(map[string]*Peer), log: logger}
}

// remove unregisters p and closes its queue, which ends its write loop.
// Calling it twice is harmless.
func (h *Hub) remove(p *Peer) {
	h.mu.Lock()
	_, ok := h.peers[p.ID]
	if ok {
		delete(h.peers, p.ID)
		close(p.send)
	}
	h.mu.Unlock()
	if ok {
		h.log.Info("peer disconnected", "peer", p.ID)
	}
}

func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.peers)
}

// Broadcast queues op for every peer. A peer whose buffer is full is
// disconnected; a mirror that missed an op cannot recover.
func (h *Hub) Broadcast(op state.Op) {
	data, err := json.Marshal(op)
	if err != nil {
		h.log.Error("marshal op", "error", err)
		return
	}
	var slow []*Peer
	h.mu.RLock()
	for _, p := range h.peers {
		select {
		case p.send <- data:
		default:
			slow = append(slow, p)
		}
	}
	h.mu.RUnlock()

	for _, p := range slow {
		h.log.Warn("peer too slow, disconnecting", "peer", p.ID, "op", string(op.Type))
		h.remove(p)
	}
}

// Serve upgrades the request and streams ops until the peer goes away. The
// peer is registered before greet runs, so every op emitted after greet's
// snapshot reaches it; ops already in the snapshot may arrive twice.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, greet func() []state.Op) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", "error", err)
		return
	}
	p := &Peer{ID: uuid.NewString(), conn: conn}
	h.register(p, greet)

	go h.writeLoop(p)
	h.readLoop(p)
}

// register adds p and queues its greeting under the hub lock, so no
// broadcast lands ahead of the greeting.
func (h *Hub) register(p *Peer, greet func() []state.Op) {
	h.mu.Lock()
	var greeting []state.Op
	if greet != nil {
		greeting = greet()
	}
	p.send = make(chan []byte, sendBuffer+len(greeting))
	for _, op := range greeting {
		if data, err := json.Marshal(op); err == nil {
			p.send <- data
		}
	}
	h.peers[p.ID] = p
	h.mu.Unlock()
	h.log.Info("peer connected", "peer", p.ID, "greeting", len(greeting))
}

// readLoop only services control frames; mirrors are read-only.
func (h *Hub) readLoop(p *Peer) {
	defer func() {
		h.remove(p)
		p.conn.Close()
	}()
	p.conn.SetReadLimit(512)
	_ = p.conn.SetReadDeadline(time.Now().Add(pongWait))
	p.conn.SetPongHandler(func(string) error {
		return p.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := p.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writeLoop(p *Peer) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		p.conn.Close()
	}()
	for {
		select {
		case data, ok := <-p.send:
			_ = p.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = p.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := p.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				h.log.Warn("write to peer failed", "peer", p.ID, "error", err)
				return
			}
		case <-ticker.C:
			_ = p.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := p.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
