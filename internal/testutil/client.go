package testutil

import (
	"io"
	"net"
	"strings"
	"sync"
	"testing"
	"time"
)

// DefaultWait bounds how long Client.Expect waits for server output
const DefaultWait = 3 * time.Second

// Client plays the remote side of a connection in tests. Everything the
// server writes is accumulated; Expect consumes it in order.
type Client struct {
	t    testing.TB
	conn net.Conn

	mu     sync.Mutex
	buf    strings.Builder
	offset int
	closed bool
}

// NewClient starts reading from conn in the background
func NewClient(t testing.TB, conn net.Conn) *Client {
	c := &Client{t: t, conn: conn}
	go c.readLoop()
	t.Cleanup(func() { _ = conn.Close() })
	return c
}

func (c *Client) readLoop() {
	buf := make([]byte, 1024)
	for {
		n, err := c.conn.Read(buf)
		c.mu.Lock()
		c.buf.Write(buf[:n])
		if err != nil {
			c.closed = true
		}
		c.mu.Unlock()
		if err != nil {
			return
		}
	}
}

// Expect waits until substr appears in unread output and consumes up to
// and including it. It fails the test on timeout.
func (c *Client) Expect(substr string) {
	c.t.Helper()
	deadline := time.Now().Add(DefaultWait)
	for {
		c.mu.Lock()
		rest := c.buf.String()[c.offset:]
		if i := strings.Index(rest, substr); i >= 0 {
			c.offset += i + len(substr)
			c.mu.Unlock()
			return
		}
		closed := c.closed
		c.mu.Unlock()

		if closed || time.Now().After(deadline) {
			c.t.Fatalf("expected %q, unread output: %q (closed=%v)", substr, rest, closed)
		}
		time.Sleep(2 * time.Millisecond)
	}
}

// Reply sends one line to the server
func (c *Client) Reply(text string) {
	c.t.Helper()
	if _, err := io.WriteString(c.conn, text+"\n"); err != nil {
		c.t.Fatalf("reply %q: %v", text, err)
	}
}

// Answer waits for prompt then replies to it
func (c *Client) Answer(prompt, reply string) {
	c.t.Helper()
	c.Expect(prompt)
	c.Reply(reply)
}

// WaitClosed waits until the server closes the connection
func (c *Client) WaitClosed() {
	c.t.Helper()
	deadline := time.Now().Add(DefaultWait)
	for {
		c.mu.Lock()
		closed := c.closed
		c.mu.Unlock()
		if closed {
			return
		}
		if time.Now().After(deadline) {
			c.t.Fatalf("connection was not closed")
		}
		time.Sleep(2 * time.Millisecond)
	}
}

// Transcript returns everything received so far
func (c *Client) Transcript() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buf.String()
}

// Close drops the client side of the connection
func (c *Client) Close() {
	_ = c.conn.Close()
}
