package socket

import (
	"context"
	"sync"

	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog"

	"github.com/ethoschat/ethoschat/internal/chat"
)

// ManagerConfig carries the dependencies for a Manager. Dial, Backoff
// and Clock fall back to production defaults when left zero.
type ManagerConfig struct {
	BaseURL string
	Dial    Dialer
	Backoff Backoff
	Clock   clock.Clock
	Logger  *zerolog.Logger
}

// Manager is the single entry point for "be connected to room R". It
// enforces at most one live room session at a time and routes inbound
// messages to a single subscriber. Registering a new subscriber replaces
// the old one; the design reflects a one-active-view UI.
type Manager struct {
	cfg ManagerConfig

	mu        sync.Mutex
	session   *Session
	room      string
	onMessage func(chat.Message)
}

// NewManager constructs a manager with no active session.
func NewManager(cfg ManagerConfig) *Manager {
	if cfg.Dial == nil {
		cfg.Dial = Dial
	}
	if cfg.Backoff.MaxAttempts == 0 {
		cfg.Backoff = DefaultBackoff()
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.New()
	}
	return &Manager{cfg: cfg}
}

// JoinRoom connects to a room's stream. Joining the room the session is
// already open on is a no-op; otherwise any previous session is closed
// first and a fresh one (with a fresh retry budget) is opened.
func (m *Manager) JoinRoom(ctx context.Context, roomID string) {
	m.mu.Lock()
	if m.room == roomID && m.session != nil && m.session.Connected() {
		m.mu.Unlock()
		return
	}

	old := m.session

	var sess *Session
	sess = NewSession(ctx, SessionConfig{
		Room:    roomID,
		URL:     StreamURL(m.cfg.BaseURL, roomID),
		Dial:    m.cfg.Dial,
		Backoff: m.cfg.Backoff,
		Clock:   m.cfg.Clock,
		Logger:  m.cfg.Logger,
		OnMessage: func(msg chat.Message) {
			m.dispatch(sess, msg)
		},
	})
	m.session = sess
	m.room = roomID
	m.mu.Unlock()

	if old != nil {
		old.Close()
	}
	sess.Open()
}

// LeaveRoom closes the session only if it currently targets roomID. A
// stale leave, issued after a newer join raced it, is ignored.
func (m *Manager) LeaveRoom(roomID string) {
	m.mu.Lock()
	if m.room != roomID {
		m.mu.Unlock()
		return
	}
	old := m.session
	m.session = nil
	m.room = ""
	m.mu.Unlock()

	if old != nil {
		old.Close()
	}
}

// Disconnect closes the current session regardless of room. Used on
// full teardown, e.g. logout.
func (m *Manager) Disconnect() {
	m.mu.Lock()
	old := m.session
	m.session = nil
	m.room = ""
	m.mu.Unlock()

	if old != nil {
		old.Close()
	}
}

// OnNewMessage registers the subscriber for inbound messages, replacing
// any previous one.
func (m *Manager) OnNewMessage(cb func(chat.Message)) {
	m.mu.Lock()
	m.onMessage = cb
	m.mu.Unlock()
}

// OffNewMessage clears the subscriber.
func (m *Manager) OffNewMessage() {
	m.mu.Lock()
	m.onMessage = nil
	m.mu.Unlock()
}

// Connected reports whether the current session has a live connection.
func (m *Manager) Connected() bool {
	m.mu.Lock()
	sess := m.session
	m.mu.Unlock()
	return sess != nil && sess.Connected()
}

// ActiveRoom returns the room of the current session, or "".
func (m *Manager) ActiveRoom() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.room
}

// dispatch forwards a message to the subscriber, dropping it when the
// originating session has been superseded by a room switch.
func (m *Manager) dispatch(from *Session, msg chat.Message) {
	m.mu.Lock()
	current := m.session
	cb := m.onMessage
	m.mu.Unlock()

	if from != current || cb == nil {
		return
	}
	cb(msg)
}
