package chat

import "sync"

// Store holds per-room message history: insertion-ordered, deduplicated
// by message ID. It has exactly two writers: the history seed (Replace)
// and the live socket path (Append).
type Store struct {
	mu    sync.Mutex
	rooms map[string]*roomMessages
}

type roomMessages struct {
	list []Message
	seen map[string]struct{}
}

// NewStore constructs an empty message store.
func NewStore() *Store {
	return &Store{rooms: make(map[string]*roomMessages)}
}

// Replace overwrites a room's history wholesale. Used after a history
// fetch; the fetched slice is trusted as the source of truth, so no
// dedup is applied within it beyond rebuilding the index.
func (s *Store) Replace(roomID string, msgs []Message) {
	rm := &roomMessages{
		list: make([]Message, 0, len(msgs)),
		seen: make(map[string]struct{}, len(msgs)),
	}
	for _, m := range msgs {
		rm.list = append(rm.list, m)
		rm.seen[m.ID] = struct{}{}
	}

	s.mu.Lock()
	s.rooms[roomID] = rm
	s.mu.Unlock()
}

// Append inserts a message at the tail of its room's sequence. The insert
// is idempotent: a message whose ID is already present is dropped, which
// handles the local-send echo and duplicate frames during reconnection.
// Returns whether the message was inserted.
func (s *Store) Append(msg Message) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	rm, ok := s.rooms[msg.RoomID]
	if !ok {
		rm = &roomMessages{seen: make(map[string]struct{})}
		s.rooms[msg.RoomID] = rm
	}
	if _, dup := rm.seen[msg.ID]; dup {
		return false
	}
	rm.list = append(rm.list, msg)
	rm.seen[msg.ID] = struct{}{}
	return true
}

// Messages returns a copy of a room's sequence in insertion order.
func (s *Store) Messages(roomID string) []Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	rm, ok := s.rooms[roomID]
	if !ok {
		return nil
	}
	out := make([]Message, len(rm.list))
	copy(out, rm.list)
	return out
}

// Len returns the number of messages stored for a room.
func (s *Store) Len(roomID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rm, ok := s.rooms[roomID]; ok {
		return len(rm.list)
	}
	return 0
}

// Clear drops a single room's history.
func (s *Store) Clear(roomID string) {
	s.mu.Lock()
	delete(s.rooms, roomID)
	s.mu.Unlock()
}

// ClearAll drops every room's history. Used on logout.
func (s *Store) ClearAll() {
	s.mu.Lock()
	s.rooms = make(map[string]*roomMessages)
	s.mu.Unlock()
}
