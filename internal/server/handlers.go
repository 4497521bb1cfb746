package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/coder/websocket"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ethoschat/ethoschat/internal/chat"
	"github.com/ethoschat/ethoschat/internal/store"
)

const defaultHistoryLimit = 100

// Handlers provides the REST and websocket endpoints of the development
// server.
type Handlers struct {
	hub   *Hub
	store store.MessageStore
	log   zerolog.Logger
}

// NewHandlers creates the handler set.
func NewHandlers(hub *Hub, st store.MessageStore, logger *zerolog.Logger) *Handlers {
	l := zerolog.Nop()
	if logger != nil {
		l = *logger
	}
	return &Handlers{hub: hub, store: st, log: l}
}

// SendRequest is the POST body for sending a message.
type SendRequest struct {
	UserID   string `json:"userId" binding:"required"`
	Username string `json:"username" binding:"required"`
	Text     string `json:"text" binding:"required,max=2000"`
}

// ErrorResponse represents an error response body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Health answers the health probe.
// GET /api/health
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().UnixMilli(),
	})
}

// ListMessages returns a room's history, oldest first.
// GET /api/rooms/:room/messages?limit=
func (h *Handlers) ListMessages(c *gin.Context) {
	roomID := c.Param("room")

	limit := defaultHistoryLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid limit"})
			return
		}
		limit = n
	}

	msgs, err := h.store.ListMessages(c.Request.Context(), roomID, limit)
	if err != nil {
		h.log.Error().Err(err).Str("room", roomID).Msg("failed to list messages")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}
	c.JSON(http.StatusOK, msgs)
}

// PostMessage persists a message, broadcasts it to the room's stream and
// returns the stored form. Senders see their own message arrive over the
// stream like everyone else.
// POST /api/rooms/:room/messages
func (h *Handlers) PostMessage(c *gin.Context) {
	roomID := c.Param("room")

	var req SendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid send request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	msg := chat.Message{
		ID:        uuid.NewString(),
		RoomID:    roomID,
		UserID:    req.UserID,
		Username:  req.Username,
		Text:      req.Text,
		Timestamp: time.Now().UnixMilli(),
	}

	if err := h.store.SaveMessage(c.Request.Context(), msg); err != nil {
		h.log.Error().Err(err).Str("room", roomID).Msg("failed to save message")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	h.hub.Broadcast(c.Request.Context(), msg)
	c.JSON(http.StatusCreated, msg)
}

// ServeWS upgrades the connection and streams the room's messages until
// the client goes away.
// GET /ws/:room
func (h *Handlers) ServeWS(c *gin.Context) {
	roomID := c.Param("room")

	conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Error().Err(err).Str("room", roomID).Msg("ws accept error")
		return
	}

	h.hub.Join(roomID, conn)
	defer h.hub.Leave(roomID, conn)

	// The stream is one-way; reading only surfaces close and keeps
	// control frames flowing.
	ctx := c.Request.Context()
	for {
		if _, _, err := conn.Read(ctx); err != nil {
			break
		}
	}
	_ = conn.Close(websocket.StatusNormalClosure, "closing")
}
