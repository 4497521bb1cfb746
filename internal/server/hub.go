package server

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/rs/zerolog"

	"github.com/ethoschat/ethoschat/internal/chat"
)

const broadcastTimeout = 5 * time.Second

// Hub tracks which websocket connections subscribe to which room and
// fans persisted messages out to them. One room per connection.
type Hub struct {
	log zerolog.Logger

	mu    sync.Mutex
	rooms map[string]map[*websocket.Conn]struct{}
}

// NewHub creates an empty hub.
func NewHub(logger *zerolog.Logger) *Hub {
	l := zerolog.Nop()
	if logger != nil {
		l = *logger
	}
	return &Hub{
		log:   l,
		rooms: make(map[string]map[*websocket.Conn]struct{}),
	}
}

// Join subscribes a connection to a room's stream.
func (h *Hub) Join(roomID string, conn *websocket.Conn) {
	h.mu.Lock()
	conns, ok := h.rooms[roomID]
	if !ok {
		conns = make(map[*websocket.Conn]struct{})
		h.rooms[roomID] = conns
	}
	conns[conn] = struct{}{}
	h.mu.Unlock()

	h.log.Debug().Str("room", roomID).Msg("client joined room stream")
}

// Leave drops a connection from a room's stream.
func (h *Hub) Leave(roomID string, conn *websocket.Conn) {
	h.mu.Lock()
	if conns, ok := h.rooms[roomID]; ok {
		delete(conns, conn)
		if len(conns) == 0 {
			delete(h.rooms, roomID)
		}
	}
	h.mu.Unlock()

	h.log.Debug().Str("room", roomID).Msg("client left room stream")
}

// Subscribers returns the number of connections on a room's stream.
func (h *Hub) Subscribers(roomID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.rooms[roomID])
}

// Broadcast sends one message, encoded as a single JSON frame, to every
// subscriber of its room. Connections that fail to accept the write are
// dropped.
func (h *Hub) Broadcast(ctx context.Context, msg chat.Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.log.Error().Err(err).Msg("marshal broadcast")
		return
	}

	h.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(h.rooms[msg.RoomID]))
	for conn := range h.rooms[msg.RoomID] {
		conns = append(conns, conn)
	}
	h.mu.Unlock()

	for _, conn := range conns {
		writeCtx, cancel := context.WithTimeout(ctx, broadcastTimeout)
		err := conn.Write(writeCtx, websocket.MessageText, data)
		cancel()
		if err != nil {
			h.log.Debug().Err(err).Str("room", msg.RoomID).Msg("dropping dead subscriber")
			h.Leave(msg.RoomID, conn)
			_ = conn.Close(websocket.StatusGoingAway, "write failed")
		}
	}
}
