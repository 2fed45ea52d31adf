package net

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	sendQueueSize = 256
	writeWait     = 10 * time.Second
	WSPath        = "/ws"
)

// peer is one connected client. All writes go through its send queue so that
// a single goroutine owns the connection's write side.
type peer struct {
	id   string
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
	once sync.Once
}

func (p *peer) close() {
	p.once.Do(func() {
		close(p.done)
		_ = p.conn.Close()
	})
}

// Hub is run by the HOST. It accepts websocket clients, hands every message
// they send to OnMessage and relays it to the other clients.
type Hub struct {
	peers    map[string]*peer
	mu       sync.RWMutex
	upgrader websocket.Upgrader
	log      zerolog.Logger

	// OnMessage is called from the connection's goroutine for every valid
	// message a client sends.
	OnMessage func(from string, msg Message)
}

func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		peers: make(map[string]*peer),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
		log: log.With().Str("component", "hub").Logger(),
	}
}

// ServeHTTP upgrades the request and serves the client until it disconnects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Str("remote", r.RemoteAddr).Msg("websocket upgrade failed")
		return
	}

	p := &peer{
		id:   conn.RemoteAddr().String(),
		conn: conn,
		send: make(chan []byte, sendQueueSize),
		done: make(chan struct{}),
	}
	h.add(p)
	defer h.remove(p)

	go h.writeLoop(p)
	h.readLoop(p)
}

// Listen serves the hub on addr in the background. The returned server is
// shut down by the caller.
func (h *Hub) Listen(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle(WSPath, h)
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		h.log.Info().Str("addr", addr).Msg("host server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			h.log.Error().Err(err).Msg("host server stopped")
		}
	}()
	return srv
}

// Broadcast sends msg to every connected client.
func (h *Hub) Broadcast(msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal %s message: %w", msg.Type, err)
	}
	h.broadcast(data, "")
	return nil
}

// Peers returns the number of connected clients.
func (h *Hub) Peers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.peers)
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	peers := h.peers
	h.peers = make(map[string]*peer)
	h.mu.Unlock()
	for _, p := range peers {
		p.close()
	}
}

func (h *Hub) add(p *peer) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.peers[p.id] = p
	h.log.Info().Str("peer", p.id).Msg("client connected")
}

func (h *Hub) remove(p *peer) {
	h.mu.Lock()
	delete(h.peers, p.id)
	h.mu.Unlock()
	p.close()
	h.log.Info().Str("peer", p.id).Msg("client disconnected")
}

func (h *Hub) broadcast(data []byte, exclude string) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for id, p := range h.peers {
		if id == exclude {
			continue
		}
		select {
		case p.send <- data:
		default:
			h.log.Warn().Str("peer", id).Msg("send queue full, dropping message")
		}
	}
}

func (h *Hub) readLoop(p *peer) {
	for {
		_, data, err := p.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.log.Warn().Err(err).Str("peer", p.id).Msg("read failed")
			}
			return
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			h.log.Warn().Err(err).Str("peer", p.id).Msg("ignoring malformed message")
			continue
		}
		h.log.Debug().Str("peer", p.id).Str("type", msg.Type).Msg("received")

		if h.OnMessage != nil {
			h.OnMessage(p.id, msg)
		}
		h.broadcast(data, p.id)
	}
}

func (h *Hub) writeLoop(p *peer) {
	for {
		select {
		case data := <-p.send:
			_ = p.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := p.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				h.log.Warn().Err(err).Str("peer", p.id).Msg("write failed")
				p.close()
				return
			}
		case <-p.done:
			return
		}
	}
}
