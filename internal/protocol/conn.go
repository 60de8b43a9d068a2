package protocol

import (
	"context"
	"errors"
	"net"
	"strings"
	"sync"
	"time"
)

const (
	// ReplyMarker prefixes a message that requires exactly one reply
	ReplyMarker = "{{expect_reply}}"

	// ReadBufferSize is the largest chunk read from the peer in one go
	ReadBufferSize = 1024

	incomingBuffer = 16
)

// ErrDisconnected is returned once the underlying connection is gone
var ErrDisconnected = errors.New("peer disconnected")

// ErrReplyTimeout is returned when a prompted reply does not arrive in time
var ErrReplyTimeout = errors.New("timed out waiting for reply")

// Conn wraps a stream connection with the line-oriented prompt/reply protocol.
//
// A single goroutine owns reads for the whole lifetime of the connection, so a
// closed or dead peer is noticed even while nobody is waiting on a reply.
type Conn struct {
	raw          net.Conn
	replyTimeout time.Duration

	writeMu  sync.Mutex
	promptMu sync.Mutex

	incoming chan string
	done     chan struct{}

	closeOnce sync.Once
	errMu     sync.Mutex
	err       error
}

// ConnOption configures a Conn
type ConnOption func(*Conn)

// WithReplyTimeout bounds how long Prompt waits for a reply. Zero disables the bound.
func WithReplyTimeout(d time.Duration) ConnOption {
	return func(c *Conn) {
		c.replyTimeout = d
	}
}

// NewConn wraps raw and starts its read loop
func NewConn(raw net.Conn, opts ...ConnOption) *Conn {
	c := &Conn{
		raw:      raw,
		incoming: make(chan string, incomingBuffer),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	go c.readLoop()
	return c
}

// Send writes a message that does not expect a reply
func (c *Conn) Send(text string) error {
	return c.write(text)
}

// Prompt writes a reply-marked message and blocks until one reply arrives,
// the connection dies, or ctx is done.
func (c *Conn) Prompt(ctx context.Context, text string) (string, error) {
	c.promptMu.Lock()
	defer c.promptMu.Unlock()

	c.drain()

	if err := c.write(ReplyMarker + text); err != nil {
		return "", err
	}

	var timeout <-chan time.Time
	if c.replyTimeout > 0 {
		timer := time.NewTimer(c.replyTimeout)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case line := <-c.incoming:
		return line, nil
	case <-c.done:
		// A reply may have raced the close
		select {
		case line := <-c.incoming:
			return line, nil
		default:
		}
		return "", ErrDisconnected
	case <-timeout:
		return "", ErrReplyTimeout
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Done is closed when the connection is no longer usable
func (c *Conn) Done() <-chan struct{} {
	return c.done
}

// Err returns the error that ended the connection, if any
func (c *Conn) Err() error {
	c.errMu.Lock()
	defer c.errMu.Unlock()
	return c.err
}

// RemoteAddr returns the peer address
func (c *Conn) RemoteAddr() string {
	return c.raw.RemoteAddr().String()
}

// Close closes the underlying connection. Pending prompts return ErrDisconnected.
func (c *Conn) Close() error {
	err := c.raw.Close()
	c.finish(ErrDisconnected)
	return err
}

func (c *Conn) write(text string) error {
	select {
	case <-c.done:
		return ErrDisconnected
	default:
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if _, err := c.raw.Write([]byte(text)); err != nil {
		c.finish(err)
		_ = c.raw.Close()
		return ErrDisconnected
	}
	return nil
}

func (c *Conn) readLoop() {
	buf := make([]byte, ReadBufferSize)
	for {
		n, err := c.raw.Read(buf)
		if n > 0 {
			for _, line := range SplitReplies(string(buf[:n])) {
				select {
				case c.incoming <- line:
				case <-c.done:
					return
				}
			}
		}
		if err != nil {
			c.finish(err)
			return
		}
	}
}

// drain discards replies nobody asked for
func (c *Conn) drain() {
	for {
		select {
		case <-c.incoming:
		default:
			return
		}
	}
}

func (c *Conn) finish(err error) {
	c.closeOnce.Do(func() {
		c.errMu.Lock()
		c.err = err
		c.errMu.Unlock()
		close(c.done)
	})
}

// SplitReplies breaks a received chunk into trimmed, non-empty replies
func SplitReplies(chunk string) []string {
	var replies []string
	for _, line := range strings.Split(chunk, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			replies = append(replies, line)
		}
	}
	return replies
}

// StripMarker removes every reply marker from a received message and reports whether one was present
func StripMarker(message string) (string, bool) {
	if !strings.Contains(message, ReplyMarker) {
		return message, false
	}
	return strings.ReplaceAll(message, ReplyMarker, ""), true
}
