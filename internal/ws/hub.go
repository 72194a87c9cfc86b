// Package ws carries the streaming side of the bridge: the client
// registry (hub), the websocket server, and the liveness monitor.
package ws

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const writeWait = 2 * time.Second

// Conn is the write side of a streaming client connection. gorilla's
// *websocket.Conn satisfies it; tests substitute fakes.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// StatusUpdate is the JSON status envelope pushed to clients. Only the
// fields that changed are set; the rest are omitted.
type StatusUpdate struct {
	Type         string `json:"type"`
	SimConnected *bool  `json:"sim_connected,omitempty"`
	FileWriting  *bool  `json:"file_writing,omitempty"`
}

// Hub tracks live streaming connections and fans messages out to them.
// A failed send evicts the offending client without disturbing the rest
// of the pass.
type Hub struct {
	mu      sync.Mutex
	clients map[uuid.UUID]Conn
}

func NewHub() *Hub {
	return &Hub{clients: make(map[uuid.UUID]Conn)}
}

func (h *Hub) Register(c Conn) uuid.UUID {
	id := uuid.New()
	h.mu.Lock()
	h.clients[id] = c
	h.mu.Unlock()
	return id
}

func (h *Hub) Unregister(id uuid.UUID) {
	h.mu.Lock()
	c, ok := h.clients[id]
	if ok {
		delete(h.clients, id)
	}
	h.mu.Unlock()
	if ok {
		_ = c.Close()
	}
}

func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// BroadcastPosition sends the bare "lat,lon,heading" text message the
// moving map consumes. No envelope, matching the map's parser.
func (h *Hub) BroadcastPosition(lat, lon, heading float64) {
	h.BroadcastText(fmt.Sprintf("%v,%v,%v", lat, lon, heading))
}

func (h *Hub) BroadcastText(msg string) {
	h.broadcast([]byte(msg))
}

func (h *Hub) BroadcastStatus(u StatusUpdate) {
	u.Type = "status_update"
	b, err := json.Marshal(u)
	if err != nil {
		log.Printf("ws status marshal failed: %v", err)
		return
	}
	h.broadcast(b)
}

// Send writes to a single client, for per-connection replies such as
// the shutdown acknowledgment.
func (h *Hub) Send(id uuid.UUID, msg []byte) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	c, ok := h.clients[id]
	if !ok {
		return fmt.Errorf("ws client %s not registered", id)
	}
	_ = c.SetWriteDeadline(time.Now().Add(writeWait))
	return c.WriteMessage(websocket.TextMessage, msg)
}

// broadcast iterates a snapshot of the membership, collects the clients
// whose send failed, and prunes them after the pass. Eviction never
// aborts delivery to the remaining clients.
func (h *Hub) broadcast(msg []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	type member struct {
		id   uuid.UUID
		conn Conn
	}
	snapshot := make([]member, 0, len(h.clients))
	for id, c := range h.clients {
		snapshot = append(snapshot, member{id: id, conn: c})
	}

	var failed []member
	for _, m := range snapshot {
		_ = m.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := m.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			log.Printf("ws send failed id=%s: %v", m.id, err)
			failed = append(failed, m)
		}
	}

	for _, m := range failed {
		delete(h.clients, m.id)
		_ = m.conn.Close()
	}
}

// CloseAll sends a close frame to every client and empties the
// registry. Used during shutdown; errors are ignored.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	closeMsg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bridge stopping")
	for id, c := range h.clients {
		_ = c.SetWriteDeadline(time.Now().Add(writeWait))
		_ = c.WriteMessage(websocket.CloseMessage, closeMsg)
		_ = c.Close()
		delete(h.clients, id)
	}
}
