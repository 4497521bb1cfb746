// Package controller composes the REST client, the message store and
// the room session manager into the room-switch flow the UI drives:
// seed history, then join the live stream.
package controller

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/ethoschat/ethoschat/internal/chat"
)

var (
	// ErrNotLoggedIn is returned when an operation requires a user.
	ErrNotLoggedIn = errors.New("not logged in")
	// ErrUnknownRoom is returned for a room missing from the tier table.
	ErrUnknownRoom = errors.New("unknown room")
	// ErrAccessDenied is returned when the user's score is outside the
	// room's band.
	ErrAccessDenied = errors.New("room access denied")
	// ErrSendFailed signals the caller to restore the unsent text for a
	// manual retry. Sends are not retried automatically.
	ErrSendFailed = errors.New("send failed")
)

// History is the narrow REST surface the controller consumes.
type History interface {
	FetchMessages(ctx context.Context, roomID string, limit int) []chat.Message
	SendMessage(ctx context.Context, roomID, userID, username, text string) *chat.Message
}

// Sessions is the narrow session-manager surface the controller consumes.
type Sessions interface {
	JoinRoom(ctx context.Context, roomID string)
	LeaveRoom(roomID string)
	Disconnect()
	OnNewMessage(func(chat.Message))
	OffNewMessage()
	Connected() bool
}

// Controller owns the active-room state of one client.
type Controller struct {
	history      History
	store        *chat.Store
	sessions     Sessions
	historyLimit int
	log          zerolog.Logger

	mu         sync.Mutex
	user       *chat.User
	activeRoom string
	onUpdate   func(roomID string)
}

// New constructs a controller. historyLimit bounds history fetches;
// 0 selects the API default.
func New(history History, store *chat.Store, sessions Sessions, historyLimit int, logger *zerolog.Logger) *Controller {
	l := zerolog.Nop()
	if logger != nil {
		l = *logger
	}
	return &Controller{
		history:      history,
		store:        store,
		sessions:     sessions,
		historyLimit: historyLimit,
		log:          l,
	}
}

// Start binds the logged-in user and subscribes to the live stream.
// Inbound messages for the active room are appended to the store (the
// store dedups the local-send echo) and surfaced via the update callback.
func (c *Controller) Start(user *chat.User) {
	c.mu.Lock()
	c.user = user
	c.mu.Unlock()

	c.sessions.OnNewMessage(func(msg chat.Message) {
		c.mu.Lock()
		active := c.activeRoom
		cb := c.onUpdate
		c.mu.Unlock()

		if msg.RoomID != active {
			return
		}
		if c.store.Append(msg) && cb != nil {
			cb(msg.RoomID)
		}
	})
}

// OnUpdate registers the callback invoked after a new message lands in
// the store. A nil callback clears it.
func (c *Controller) OnUpdate(cb func(roomID string)) {
	c.mu.Lock()
	c.onUpdate = cb
	c.mu.Unlock()
}

// SetActiveRoom checks eligibility, seeds the room's history and joins
// its live stream. A failed history fetch seeds an empty room; the live
// stream still connects.
func (c *Controller) SetActiveRoom(ctx context.Context, roomID string) error {
	room, ok := chat.RoomByID(roomID)
	if !ok {
		return ErrUnknownRoom
	}

	c.mu.Lock()
	user := c.user
	c.mu.Unlock()
	if user == nil {
		return ErrNotLoggedIn
	}
	if !chat.CanAccess(user.Score, room) {
		return ErrAccessDenied
	}

	history := c.history.FetchMessages(ctx, roomID, c.historyLimit)
	c.store.Replace(roomID, history)

	c.mu.Lock()
	c.activeRoom = roomID
	c.mu.Unlock()

	c.sessions.JoinRoom(ctx, roomID)
	c.log.Debug().Str("room", roomID).Int("history", len(history)).Msg("room activated")
	return nil
}

// Send posts a message to the active room. The message is not inserted
// locally; its echo arrives over the live stream. On failure the caller
// keeps the text and retries manually.
func (c *Controller) Send(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	c.mu.Lock()
	user := c.user
	roomID := c.activeRoom
	c.mu.Unlock()
	if user == nil {
		return ErrNotLoggedIn
	}
	if roomID == "" {
		return ErrUnknownRoom
	}

	if msg := c.history.SendMessage(ctx, roomID, user.ID, user.Username, text); msg == nil {
		return ErrSendFailed
	}
	return nil
}

// Messages returns the active snapshot of a room's history.
func (c *Controller) Messages(roomID string) []chat.Message {
	return c.store.Messages(roomID)
}

// ActiveRoom returns the currently joined room, or "".
func (c *Controller) ActiveRoom() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.activeRoom
}

// User returns the logged-in user, or nil.
func (c *Controller) User() *chat.User {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.user
}

// Connected reports whether the live stream is up.
func (c *Controller) Connected() bool {
	return c.sessions.Connected()
}

// Leave disconnects from the active room, keeping the user logged in.
func (c *Controller) Leave() {
	c.mu.Lock()
	roomID := c.activeRoom
	c.activeRoom = ""
	c.mu.Unlock()

	if roomID != "" {
		c.sessions.LeaveRoom(roomID)
	}
}

// Logout tears everything down: live stream, subscriber, history, user.
func (c *Controller) Logout() {
	c.sessions.Disconnect()
	c.sessions.OffNewMessage()
	c.store.ClearAll()

	c.mu.Lock()
	c.user = nil
	c.activeRoom = ""
	c.mu.Unlock()
}
