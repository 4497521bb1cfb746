package controller

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/ethoschat/ethoschat/internal/chat"
)

type fakeHistory struct {
	mu       sync.Mutex
	ops      []string
	messages map[string][]chat.Message
	failSend bool
}

func (f *fakeHistory) FetchMessages(_ context.Context, roomID string, _ int) []chat.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ops = append(f.ops, "fetch:"+roomID)
	return f.messages[roomID]
}

func (f *fakeHistory) SendMessage(_ context.Context, roomID, userID, username, text string) *chat.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ops = append(f.ops, "send:"+roomID)
	if f.failSend {
		return nil
	}
	return &chat.Message{ID: "echo", RoomID: roomID, UserID: userID, Username: username, Text: text}
}

type fakeSessions struct {
	mu        sync.Mutex
	ops       []string
	onMessage func(chat.Message)
	connected bool
}

func (f *fakeSessions) JoinRoom(_ context.Context, roomID string) {
	f.mu.Lock()
	f.ops = append(f.ops, "join:"+roomID)
	f.connected = true
	f.mu.Unlock()
}

func (f *fakeSessions) LeaveRoom(roomID string) {
	f.mu.Lock()
	f.ops = append(f.ops, "leave:"+roomID)
	f.connected = false
	f.mu.Unlock()
}

func (f *fakeSessions) Disconnect() {
	f.mu.Lock()
	f.ops = append(f.ops, "disconnect")
	f.connected = false
	f.mu.Unlock()
}

func (f *fakeSessions) OnNewMessage(cb func(chat.Message)) {
	f.mu.Lock()
	f.onMessage = cb
	f.mu.Unlock()
}

func (f *fakeSessions) OffNewMessage() {
	f.mu.Lock()
	f.onMessage = nil
	f.mu.Unlock()
}

func (f *fakeSessions) Connected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected
}

func (f *fakeSessions) deliver(msg chat.Message) {
	f.mu.Lock()
	cb := f.onMessage
	f.mu.Unlock()
	if cb != nil {
		cb(msg)
	}
}

func newTestController(history *fakeHistory, sessions *fakeSessions) (*Controller, *chat.Store) {
	store := chat.NewStore()
	c := New(history, store, sessions, 0, nil)
	c.Start(&chat.User{ID: "u1", Username: "alice", Score: 1350})
	return c, store
}

func TestSetActiveRoomSeedsThenJoins(t *testing.T) {
	history := &fakeHistory{messages: map[string][]chat.Message{
		"established": {{ID: "m1", RoomID: "established", Text: "old"}},
	}}
	sessions := &fakeSessions{}
	c, store := newTestController(history, sessions)

	if err := c.SetActiveRoom(context.Background(), "established"); err != nil {
		t.Fatalf("set active room: %v", err)
	}

	if got := store.Messages("established"); len(got) != 1 || got[0].ID != "m1" {
		t.Fatalf("history not seeded: %+v", got)
	}
	// The fetch must complete before the join opens the live stream.
	if len(history.ops) != 1 || history.ops[0] != "fetch:established" {
		t.Fatalf("unexpected history ops: %v", history.ops)
	}
	if len(sessions.ops) != 1 || sessions.ops[0] != "join:established" {
		t.Fatalf("unexpected session ops: %v", sessions.ops)
	}
}

func TestSetActiveRoomAccessControl(t *testing.T) {
	c, _ := newTestController(&fakeHistory{}, &fakeSessions{})

	// Score 1350 is in the established band, not the reputable one.
	if err := c.SetActiveRoom(context.Background(), "reputable"); !errors.Is(err, ErrAccessDenied) {
		t.Fatalf("expected ErrAccessDenied, got %v", err)
	}
	if err := c.SetActiveRoom(context.Background(), "missing"); !errors.Is(err, ErrUnknownRoom) {
		t.Fatalf("expected ErrUnknownRoom, got %v", err)
	}
	if err := c.SetActiveRoom(context.Background(), "established"); err != nil {
		t.Fatalf("eligible room refused: %v", err)
	}
}

func TestLiveMessagesAppendAndNotify(t *testing.T) {
	history := &fakeHistory{}
	sessions := &fakeSessions{}
	c, store := newTestController(history, sessions)

	var updates []string
	c.OnUpdate(func(roomID string) { updates = append(updates, roomID) })

	if err := c.SetActiveRoom(context.Background(), "established"); err != nil {
		t.Fatalf("set active room: %v", err)
	}

	sessions.deliver(chat.Message{ID: "m1", RoomID: "established", Text: "hi"})
	// Echo duplicate is dropped silently.
	sessions.deliver(chat.Message{ID: "m1", RoomID: "established", Text: "hi"})
	// Frames for other rooms are ignored.
	sessions.deliver(chat.Message{ID: "x1", RoomID: "neutral", Text: "elsewhere"})

	if got := store.Messages("established"); len(got) != 1 {
		t.Fatalf("expected 1 stored message, got %d", len(got))
	}
	if store.Len("neutral") != 0 {
		t.Fatal("inactive-room frame was appended")
	}
	if len(updates) != 1 || updates[0] != "established" {
		t.Fatalf("unexpected updates: %v", updates)
	}
}

func TestSendDoesNotInsertLocally(t *testing.T) {
	history := &fakeHistory{}
	sessions := &fakeSessions{}
	c, store := newTestController(history, sessions)

	if err := c.SetActiveRoom(context.Background(), "established"); err != nil {
		t.Fatalf("set active room: %v", err)
	}
	if err := c.Send(context.Background(), "hello"); err != nil {
		t.Fatalf("send: %v", err)
	}

	// The echo arrives over the socket, not from the send path.
	if store.Len("established") != 0 {
		t.Fatal("send optimistically inserted the message")
	}
}

func TestSendFailure(t *testing.T) {
	history := &fakeHistory{failSend: true}
	sessions := &fakeSessions{}
	c, _ := newTestController(history, sessions)

	if err := c.SetActiveRoom(context.Background(), "established"); err != nil {
		t.Fatalf("set active room: %v", err)
	}
	if err := c.Send(context.Background(), "hello"); !errors.Is(err, ErrSendFailed) {
		t.Fatalf("expected ErrSendFailed, got %v", err)
	}

	// Blank input is dropped without touching the API.
	if err := c.Send(context.Background(), "   "); err != nil {
		t.Fatalf("blank send should be a no-op, got %v", err)
	}
	if got := history.ops[len(history.ops)-1]; got != "send:established" {
		t.Fatalf("blank send reached the API: %v", history.ops)
	}
}

func TestLogoutClearsEverything(t *testing.T) {
	history := &fakeHistory{}
	sessions := &fakeSessions{}
	c, store := newTestController(history, sessions)

	if err := c.SetActiveRoom(context.Background(), "established"); err != nil {
		t.Fatalf("set active room: %v", err)
	}
	sessions.deliver(chat.Message{ID: "m1", RoomID: "established", Text: "hi"})

	c.Logout()

	if c.User() != nil || c.ActiveRoom() != "" {
		t.Fatal("logout left user state behind")
	}
	if store.Len("established") != 0 {
		t.Fatal("logout left history behind")
	}
	if sessions.Connected() {
		t.Fatal("logout left the session connected")
	}
	if err := c.SetActiveRoom(context.Background(), "established"); !errors.Is(err, ErrNotLoggedIn) {
		t.Fatalf("expected ErrNotLoggedIn after logout, got %v", err)
	}
}
