package protocol

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pipe returns a server-side Conn and the raw client end
func pipe(t *testing.T, opts ...ConnOption) (*Conn, net.Conn) {
	t.Helper()
	server, client := net.Pipe()
	conn := NewConn(server, opts...)
	t.Cleanup(func() {
		_ = conn.Close()
		_ = client.Close()
	})
	return conn, client
}

func readChunk(t *testing.T, c net.Conn) string {
	t.Helper()
	buf := make([]byte, ReadBufferSize)
	require.NoError(t, c.SetReadDeadline(time.Now().Add(2*time.Second)))
	n, err := c.Read(buf)
	require.NoError(t, err)
	return string(buf[:n])
}

// readRaw is safe to call from helper goroutines
func readRaw(c net.Conn) string {
	buf := make([]byte, ReadBufferSize)
	_ = c.SetReadDeadline(time.Now().Add(2 * time.Second))
	n, _ := c.Read(buf)
	return string(buf[:n])
}

func TestSendWritesPlainText(t *testing.T) {
	conn, client := pipe(t)

	go func() { _ = conn.Send("hello\n") }()

	assert.Equal(t, "hello\n", readChunk(t, client))
}

func TestPromptAddsMarkerAndReturnsTrimmedReply(t *testing.T) {
	conn, client := pipe(t)

	go func() {
		_ = readRaw(client)
		_, _ = client.Write([]byte("  rock \n"))
	}()

	reply, err := conn.Prompt(context.Background(), "Your move: ")
	require.NoError(t, err)
	assert.Equal(t, "rock", reply)
}

func TestPromptMessageCarriesMarker(t *testing.T) {
	conn, client := pipe(t)

	result := make(chan string, 1)
	go func() {
		result <- readRaw(client)
		_, _ = client.Write([]byte("1"))
	}()

	_, err := conn.Prompt(context.Background(), "Pick: ")
	require.NoError(t, err)
	assert.Equal(t, ReplyMarker+"Pick: ", <-result)
}

func TestPromptFailsWhenPeerCloses(t *testing.T) {
	conn, client := pipe(t)

	go func() {
		_ = readRaw(client)
		_ = client.Close()
	}()

	_, err := conn.Prompt(context.Background(), "Pick: ")
	assert.ErrorIs(t, err, ErrDisconnected)

	select {
	case <-conn.Done():
	case <-time.After(time.Second):
		t.Fatal("Done was not closed after peer hung up")
	}
}

func TestCloseUnblocksPendingPrompt(t *testing.T) {
	conn, client := pipe(t)

	go func() {
		_ = readRaw(client)
		_ = conn.Close()
	}()

	_, err := conn.Prompt(context.Background(), "Pick: ")
	assert.ErrorIs(t, err, ErrDisconnected)
}

func TestPromptHonoursReplyTimeout(t *testing.T) {
	conn, client := pipe(t, WithReplyTimeout(20*time.Millisecond))

	go func() { _ = readRaw(client) }()

	_, err := conn.Prompt(context.Background(), "Pick: ")
	assert.ErrorIs(t, err, ErrReplyTimeout)
}

func TestPromptHonoursContext(t *testing.T) {
	conn, client := pipe(t)
	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		_ = readRaw(client)
		cancel()
	}()

	_, err := conn.Prompt(ctx, "Pick: ")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPromptDiscardsUnsolicitedInput(t *testing.T) {
	conn, client := pipe(t)

	_, err := client.Write([]byte("stray\n"))
	require.NoError(t, err)
	require.Eventually(t, func() bool { return len(conn.incoming) == 1 }, time.Second, 5*time.Millisecond)

	go func() {
		_ = readRaw(client)
		_, _ = client.Write([]byte("paper\n"))
	}()

	reply, err := conn.Prompt(context.Background(), "Pick: ")
	require.NoError(t, err)
	assert.Equal(t, "paper", reply)
}

func TestSendAfterCloseFails(t *testing.T) {
	conn, _ := pipe(t)
	require.NoError(t, conn.Close())

	assert.ErrorIs(t, conn.Send("hi"), ErrDisconnected)
}

func TestSplitReplies(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{name: "bare reply", input: "rock", expected: []string{"rock"}},
		{name: "trailing newline", input: "rock\n", expected: []string{"rock"}},
		{name: "crlf", input: "rock\r\n", expected: []string{"rock"}},
		{name: "coalesced replies", input: "1\nrock\n", expected: []string{"1", "rock"}},
		{name: "blank lines skipped", input: "\n\n  \n", expected: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SplitReplies(tt.input))
		})
	}
}

func TestStripMarker(t *testing.T) {
	text, expects := StripMarker(ReplyMarker + "Enter username: ")
	assert.True(t, expects)
	assert.Equal(t, "Enter username: ", text)

	text, expects = StripMarker("Goodbye!\n")
	assert.False(t, expects)
	assert.Equal(t, "Goodbye!\n", text)

	text, expects = StripMarker("Draw!" + ReplyMarker + "Menu")
	assert.True(t, expects)
	assert.Equal(t, "Draw!Menu", text)
}
