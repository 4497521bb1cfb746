package socket

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog"

	"github.com/ethoschat/ethoschat/internal/chat"
)

// State identifies where a session is in its lifecycle.
type State int

const (
	// StateIdle means Open has not been called yet.
	StateIdle State = iota
	// StateConnecting means a dial is in flight.
	StateConnecting
	// StateOpen means the connection is live and frames are flowing.
	StateOpen
	// StateReconnecting means a reconnect timer is pending.
	StateReconnecting
	// StateClosed is terminal: explicit close or exhausted retry budget.
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateReconnecting:
		return "reconnecting"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// SessionConfig carries the dependencies for a Session. Dial, Backoff
// and Clock fall back to production defaults when left zero.
type SessionConfig struct {
	Room      string
	URL       string
	Dial      Dialer
	Backoff   Backoff
	Clock     clock.Clock
	Logger    *zerolog.Logger
	OnMessage func(chat.Message)
}

// Session owns zero-or-one live connection bound to a single room.
// Connection loss feeds the backoff policy; an explicit Close or an
// exhausted retry budget is terminal. A closed session is never reused,
// the manager builds a fresh one per join.
type Session struct {
	room      string
	url       string
	dial      Dialer
	backoff   Backoff
	clk       clock.Clock
	log       zerolog.Logger
	onMessage func(chat.Message)

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	state    State
	conn     Conn
	attempts int
	timer    *clock.Timer
	gen      uint64
}

// NewSession constructs a session bound to one room. The context bounds
// every dial and read; it is released on Close.
func NewSession(ctx context.Context, cfg SessionConfig) *Session {
	if cfg.Dial == nil {
		cfg.Dial = Dial
	}
	if cfg.Backoff.MaxAttempts == 0 {
		cfg.Backoff = DefaultBackoff()
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.New()
	}
	logger := zerolog.Nop()
	if cfg.Logger != nil {
		logger = cfg.Logger.With().Str("room", cfg.Room).Logger()
	}

	ctx, cancel := context.WithCancel(ctx)
	return &Session{
		room:      cfg.Room,
		url:       cfg.URL,
		dial:      cfg.Dial,
		backoff:   cfg.Backoff,
		clk:       cfg.Clock,
		log:       logger,
		onMessage: cfg.OnMessage,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Room returns the room this session is bound to.
func (s *Session) Room() string {
	return s.room
}

// State reports the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Connected reports whether the underlying connection is currently open.
func (s *Session) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == StateOpen
}

// Open starts the first connection attempt. It does not block; dial
// errors go silently into the reconnect path. Calling Open more than
// once is a no-op.
func (s *Session) Open() {
	s.mu.Lock()
	if s.state != StateIdle {
		s.mu.Unlock()
		return
	}
	s.state = StateConnecting
	gen := s.gen
	s.mu.Unlock()

	go s.connect(gen)
}

// Close tears the session down: pending reconnect timers are cancelled,
// the live connection is closed, in-flight dials are aborted. Idempotent.
func (s *Session) Close() {
	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return
	}
	s.state = StateClosed
	s.gen++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	conn := s.conn
	s.conn = nil
	s.mu.Unlock()

	s.cancel()
	if conn != nil {
		_ = conn.Close()
	}
	s.log.Debug().Msg("session closed")
}

func (s *Session) connect(gen uint64) {
	conn, err := s.dial(s.ctx, s.url)

	s.mu.Lock()
	if s.state == StateClosed || gen != s.gen {
		s.mu.Unlock()
		if conn != nil {
			_ = conn.Close()
		}
		return
	}
	if err != nil {
		s.log.Debug().Err(err).Msg("dial failed")
		s.scheduleReconnectLocked()
		s.mu.Unlock()
		return
	}
	s.conn = conn
	s.state = StateOpen
	s.attempts = 0
	s.mu.Unlock()

	s.log.Info().Msg("connected")
	go s.readLoop(conn, gen)
}

func (s *Session) readLoop(conn Conn, gen uint64) {
	for {
		data, err := conn.Read(s.ctx)
		if err != nil {
			s.connLost(gen, err)
			return
		}

		var msg chat.Message
		if err := json.Unmarshal(data, &msg); err != nil {
			// A bad frame must not kill the stream.
			s.log.Warn().Err(err).Msg("dropping undecodable frame")
			continue
		}
		if s.onMessage != nil {
			s.onMessage(msg)
		}
	}
}

// connLost routes a dropped connection into the reconnect path, unless
// the session was closed or superseded since the read loop started.
func (s *Session) connLost(gen uint64, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateClosed || gen != s.gen {
		return
	}
	s.conn = nil
	s.log.Debug().Err(err).Msg("connection lost")
	s.scheduleReconnectLocked()
}

func (s *Session) scheduleReconnectLocked() {
	s.attempts++
	delay, ok := s.backoff.Next(s.attempts)
	if !ok {
		// Terminal. A fresh join builds a new session with a fresh budget.
		s.state = StateClosed
		s.cancel()
		s.log.Warn().Int("attempts", s.attempts-1).Msg("reconnect budget exhausted")
		return
	}

	s.state = StateReconnecting
	gen := s.gen
	s.log.Info().Int("attempt", s.attempts).Dur("delay", delay).Msg("scheduling reconnect")

	s.timer = s.clk.AfterFunc(delay, func() {
		s.mu.Lock()
		// The generation check makes a late-firing timer a no-op even if
		// Stop raced the fire.
		if s.state == StateClosed || gen != s.gen {
			s.mu.Unlock()
			return
		}
		s.state = StateConnecting
		s.mu.Unlock()
		s.connect(gen)
	})
}
