package match

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/mcoot/rpsgame/internal/protocol"
)

// Moves holds the raw replies of both participants of an exchange
type Moves struct {
	First     string
	Second    string
	FirstErr  error
	SecondErr error
}

// PeerError reports which participant failed to answer
type PeerError struct {
	Username string
	Err      error
}

func (e *PeerError) Error() string {
	return fmt.Sprintf("collect move from %s: %v", e.Username, e.Err)
}

func (e *PeerError) Unwrap() error {
	return e.Err
}

// CollectMoves prompts both peers at once and waits for both replies.
// The first failure cancels the other prompt and is returned as a *PeerError.
func CollectMoves(ctx context.Context, first, second protocol.Peer, prompt string) (Moves, error) {
	g, gctx := errgroup.WithContext(ctx)
	moves := collect(gctx, g, first, second, prompt, true)
	err := g.Wait()
	return *moves, err
}

// CollectEach prompts both peers at once and records each side's error
// separately; one side failing does not interrupt the other.
func CollectEach(ctx context.Context, first, second protocol.Peer, prompt string) Moves {
	var g errgroup.Group
	moves := collect(ctx, &g, first, second, prompt, false)
	_ = g.Wait()
	return *moves
}

func collect(ctx context.Context, g *errgroup.Group, first, second protocol.Peer, prompt string, failFast bool) *Moves {
	moves := &Moves{}
	ask := func(peer protocol.Peer, reply *string, replyErr *error) func() error {
		return func() error {
			r, err := peer.Prompt(ctx, prompt)
			if err != nil {
				*replyErr = err
				if failFast {
					return &PeerError{Username: peer.Username(), Err: err}
				}
				return nil
			}
			*reply = r
			return nil
		}
	}
	g.Go(ask(first, &moves.First, &moves.FirstErr))
	g.Go(ask(second, &moves.Second, &moves.SecondErr))
	return moves
}
