package matchmaking

import (
	"context"
	"log/slog"
	"sync"

	"github.com/mcoot/rpsgame/internal/model"
	"github.com/mcoot/rpsgame/internal/protocol"
)

// WaitingMessage is sent to a player parked in the queue
const WaitingMessage = "Waiting for an opponent...\n"

// Matcher plays a single match between two peers
type Matcher interface {
	Play(ctx context.Context, first, second protocol.Peer) (*model.MatchResult, error)
}

// ticket is a parked enqueuer. The driving session fills in the outcome
// and closes done to hand control back.
type ticket struct {
	peer   protocol.Peer
	done   chan struct{}
	result *model.MatchResult
	err    error
}

// Queue pairs waiting players strictly first-in first-out.
//
// The earliest waiting player is parked inside Enqueue; the player that
// completes a pair drives the match on its own goroutine and then resumes
// the parked one. Both callers return the same result.
type Queue struct {
	matcher Matcher
	logger  *slog.Logger

	mu      sync.Mutex
	waiting []*ticket
}

// New creates a new matchmaking Queue
func New(matcher Matcher, logger *slog.Logger) *Queue {
	return &Queue{
		matcher: matcher,
		logger:  logger.With(slog.String("component", "matchmaking")),
	}
}

// Enqueue adds peer to the queue and blocks until its match is resolved,
// the peer disconnects, or ctx is cancelled.
func (q *Queue) Enqueue(ctx context.Context, peer protocol.Peer) (*model.MatchResult, error) {
	q.mu.Lock()
	for _, t := range q.waiting {
		if t.peer.Username() == peer.Username() {
			q.mu.Unlock()
			return nil, model.ErrAlreadyQueued
		}
	}

	if len(q.waiting) == 0 {
		t := &ticket{peer: peer, done: make(chan struct{})}
		q.waiting = append(q.waiting, t)
		q.mu.Unlock()

		q.logger.Info("player waiting for match", slog.String("username", peer.Username()))
		_ = peer.Send(WaitingMessage)
		return q.wait(ctx, t)
	}

	opponent := q.waiting[0]
	q.waiting = q.waiting[1:]
	q.mu.Unlock()

	q.logger.Info("match formed",
		slog.String("first", opponent.peer.Username()),
		slog.String("second", peer.Username()),
	)

	result, err := q.matcher.Play(ctx, opponent.peer, peer)
	opponent.result, opponent.err = result, err
	close(opponent.done)
	return result, err
}

// wait parks the caller until its ticket is resolved. A ticket already
// claimed by a driver cannot be withdrawn, so the caller then waits for
// that match to finish; its own failed prompt ends the match quickly.
func (q *Queue) wait(ctx context.Context, t *ticket) (*model.MatchResult, error) {
	var cause error
	select {
	case <-t.done:
		return t.result, t.err
	case <-t.peer.Done():
		cause = protocol.ErrDisconnected
	case <-ctx.Done():
		cause = ctx.Err()
	}

	if q.withdraw(t) {
		q.logger.Info("player left queue",
			slog.String("username", t.peer.Username()),
			slog.String("reason", cause.Error()),
		)
		return nil, cause
	}
	<-t.done
	return t.result, t.err
}

// withdraw removes t if no driver has claimed it yet
func (q *Queue) withdraw(t *ticket) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i, w := range q.waiting {
		if w == t {
			q.waiting = append(q.waiting[:i], q.waiting[i+1:]...)
			return true
		}
	}
	return false
}

// Waiting returns the usernames currently queued, oldest first
func (q *Queue) Waiting() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	names := make([]string, len(q.waiting))
	for i, t := range q.waiting {
		names[i] = t.peer.Username()
	}
	return names
}
