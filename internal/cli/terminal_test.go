package cli

import (
	"bufio"
	"bytes"
	"io"
	"net"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/rpsgame/internal/protocol"
)

// fakeServer runs script against the server end of a pipe
func fakeServer(t *testing.T, script func(w io.Writer, r *bufio.Reader)) net.Conn {
	t.Helper()
	serverSide, clientSide := net.Pipe()
	t.Cleanup(func() {
		_ = serverSide.Close()
		_ = clientSide.Close()
	})
	go func() {
		script(serverSide, bufio.NewReader(serverSide))
		_ = serverSide.Close()
	}()
	return clientSide
}

func TestRunTerminalAnswersPrompts(t *testing.T) {
	replies := make(chan string, 2)
	conn := fakeServer(t, func(w io.Writer, r *bufio.Reader) {
		_, _ = io.WriteString(w, protocol.ReplyMarker+"Welcome! Login (1) or Register (2): ")
		line, _ := r.ReadString('\n')
		replies <- line
		_, _ = io.WriteString(w, protocol.ReplyMarker+"Enter username: ")
		line, _ = r.ReadString('\n')
		replies <- line
		_, _ = io.WriteString(w, "Goodbye!\n")
	})

	var out bytes.Buffer
	err := RunTerminal(conn, strings.NewReader("\n   \n1\nalice\n"), &out)
	require.NoError(t, err)

	assert.Equal(t, "1\n", <-replies)
	assert.Equal(t, "alice\n", <-replies)
	assert.Equal(t, "Welcome! Login (1) or Register (2): Enter username: Goodbye!\n", out.String())
	assert.NotContains(t, out.String(), protocol.ReplyMarker)
}

func TestRunTerminalMarkerSplitAcrossReads(t *testing.T) {
	replies := make(chan string, 1)
	conn := fakeServer(t, func(w io.Writer, r *bufio.Reader) {
		_, _ = io.WriteString(w, "Rankings\n{{expect")
		_, _ = io.WriteString(w, "_reply}}Enter your choice: ")
		line, _ := r.ReadString('\n')
		replies <- line
		_, _ = io.WriteString(w, "Goodbye!\n")
	})

	var out bytes.Buffer
	require.NoError(t, RunTerminal(conn, strings.NewReader("6\n"), &out))

	assert.Equal(t, "6\n", <-replies)
	assert.Equal(t, "Rankings\nEnter your choice: Goodbye!\n", out.String())
}

func TestRunTerminalServerClose(t *testing.T) {
	conn := fakeServer(t, func(w io.Writer, _ *bufio.Reader) {
		_, _ = io.WriteString(w, "Invalid credentials. Disconnecting...\n")
	})

	var out bytes.Buffer
	require.NoError(t, RunTerminal(conn, strings.NewReader(""), &out))

	assert.Contains(t, out.String(), "Invalid credentials. Disconnecting...\n")
	assert.Contains(t, out.String(), "Connection closed by server.")
}

func TestRunTerminalInputExhausted(t *testing.T) {
	conn := fakeServer(t, func(w io.Writer, r *bufio.Reader) {
		_, _ = io.WriteString(w, protocol.ReplyMarker+"Enter username: ")
		_, _ = r.ReadString('\n')
	})

	var out bytes.Buffer
	assert.NoError(t, RunTerminal(conn, strings.NewReader("\n\n"), &out))
	assert.Equal(t, "Enter username: ", out.String())
}

func TestSplitPartialMarker(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		complete string
		partial  string
	}{
		{"no marker", "hello\n", "hello\n", ""},
		{"whole marker", protocol.ReplyMarker + "Name: ", protocol.ReplyMarker + "Name: ", ""},
		{"one brace", "hello {", "hello ", "{"},
		{"most of marker", "x{{expect_reply}", "x", "{{expect_reply}"},
		{"unrelated brace", "a { b", "a { b", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			complete, partial := splitPartialMarker(tt.text)
			assert.Equal(t, tt.complete, complete)
			assert.Equal(t, tt.partial, partial)
		})
	}
}
