package protocol

import "context"

// Peer is a connected, authenticated player as seen by components that need
// to talk to sessions they do not own (matchmaking, tournaments, broadcasts).
type Peer interface {
	Username() string
	Send(text string) error
	Prompt(ctx context.Context, text string) (string, error)
	// Done is closed once the peer's connection is gone
	Done() <-chan struct{}
}
