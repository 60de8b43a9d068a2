package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"

	"github.com/mcoot/rpsgame/internal/protocol"
)

// goodbye ends an interactive session once the server has said it
const goodbye = "Goodbye"

// RunTerminal relays a game server connection to a terminal. Every server
// message is printed with reply markers removed; for each marker one
// non-empty line is read from in and sent back. It returns when the server
// says goodbye, the connection drops or in runs out.
func RunTerminal(conn io.ReadWriter, in io.Reader, out io.Writer) error {
	lines := bufio.NewScanner(in)
	buf := make([]byte, protocol.ReadBufferSize)
	var pending string

	for {
		n, err := conn.Read(buf)
		if n > 0 {
			text := pending + string(buf[:n])
			text, pending = splitPartialMarker(text)

			prompts := strings.Count(text, protocol.ReplyMarker)
			message, _ := protocol.StripMarker(text)
			if _, werr := io.WriteString(out, message); werr != nil {
				return werr
			}
			if strings.Contains(message, goodbye) {
				return nil
			}

			for range prompts {
				reply, ok := nextLine(lines)
				if !ok {
					return lines.Err()
				}
				if _, werr := fmt.Fprintf(conn, "%s\n", reply); werr != nil {
					return fmt.Errorf("send reply: %w", werr)
				}
			}
		}
		if err != nil {
			_, _ = io.WriteString(out, pending)
			if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
				_, _ = io.WriteString(out, "\nConnection closed by server.\n")
				return nil
			}
			return fmt.Errorf("read: %w", err)
		}
	}
}

// nextLine returns the next non-empty trimmed input line
func nextLine(lines *bufio.Scanner) (string, bool) {
	for lines.Scan() {
		if line := strings.TrimSpace(lines.Text()); line != "" {
			return line, true
		}
	}
	return "", false
}

// splitPartialMarker holds back a trailing fragment that could be the start
// of a reply marker split across reads
func splitPartialMarker(text string) (complete, partial string) {
	for i := len(protocol.ReplyMarker) - 1; i > 0; i-- {
		if strings.HasSuffix(text, protocol.ReplyMarker[:i]) {
			return text[:len(text)-i], text[len(text)-i:]
		}
	}
	return text, ""
}
