package socket

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ethoschat/ethoschat/internal/chat"
)

// fakeConn is an in-memory Conn fed by the test.
type fakeConn struct {
	frames chan []byte
	errs   chan error

	mu     sync.Mutex
	closed bool
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		frames: make(chan []byte, 16),
		errs:   make(chan error, 1),
	}
}

func (c *fakeConn) Read(ctx context.Context) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case err := <-c.errs:
		return nil, err
	case data := <-c.frames:
		return data, nil
	}
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		select {
		case c.errs <- errors.New("use of closed connection"):
		default:
		}
	}
	return nil
}

func (c *fakeConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *fakeConn) push(t *testing.T, msg chat.Message) {
	t.Helper()
	data, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("marshal message: %v", err)
	}
	c.frames <- data
}

func (c *fakeConn) pushRaw(data []byte) {
	c.frames <- data
}

// drop simulates a network failure on the live connection.
func (c *fakeConn) drop() {
	c.errs <- errors.New("connection reset by peer")
}

// fakeDialer records dial attempts and hands out fakeConns. Dials to a
// URL containing a refused substring fail.
type fakeDialer struct {
	mu      sync.Mutex
	urls    []string
	conns   []*fakeConn
	refused map[string]bool
}

func newFakeDialer() *fakeDialer {
	return &fakeDialer{refused: make(map[string]bool)}
}

func (d *fakeDialer) dial(_ context.Context, url string) (Conn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.urls = append(d.urls, url)
	for substr, refuse := range d.refused {
		if refuse && strings.Contains(url, substr) {
			return nil, errors.New("dial refused")
		}
	}
	conn := newFakeConn()
	d.conns = append(d.conns, conn)
	return conn, nil
}

func (d *fakeDialer) refuse(roomID string, refuse bool) {
	d.mu.Lock()
	d.refused[roomID] = refuse
	d.mu.Unlock()
}

func (d *fakeDialer) dialCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.urls)
}

func (d *fakeDialer) dialCountFor(roomID string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, u := range d.urls {
		if strings.HasSuffix(u, "/ws/"+roomID) {
			n++
		}
	}
	return n
}

func (d *fakeDialer) lastConn() *fakeConn {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.conns) == 0 {
		return nil
	}
	return d.conns[len(d.conns)-1]
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal(msg)
}

// collector gathers delivered messages for assertions.
type collector struct {
	mu   sync.Mutex
	msgs []chat.Message
}

func (c *collector) add(msg chat.Message) {
	c.mu.Lock()
	c.msgs = append(c.msgs, msg)
	c.mu.Unlock()
}

func (c *collector) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.msgs)
}

func (c *collector) ids() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.msgs))
	for i, m := range c.msgs {
		out[i] = m.ID
	}
	return out
}
