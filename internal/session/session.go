package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/mcoot/rpsgame/internal/model"
	"github.com/mcoot/rpsgame/internal/protocol"
	"github.com/mcoot/rpsgame/internal/services/auth"
	"github.com/mcoot/rpsgame/internal/services/matchmaking"
	"github.com/mcoot/rpsgame/internal/services/ranking"
	"github.com/mcoot/rpsgame/internal/services/tournament"
)

// Dependencies are the server-wide services a session talks to
type Dependencies struct {
	Directory   *auth.Service
	Rankings    *ranking.Service
	Queue       *matchmaking.Queue
	Tournaments *tournament.Engine
	Logger      *slog.Logger
}

// pendingTournament is set when the session leaves Idle for a tournament
type pendingTournament struct {
	name  string
	drive bool            // this session runs the rounds
	done  <-chan struct{} // closed when an entrant may return to Idle
}

// Session is the state machine for one client connection
type Session struct {
	id     string
	conn   *protocol.Conn
	deps   Dependencies
	logger *slog.Logger

	pending *pendingTournament

	mu       sync.RWMutex
	username string // set once bound in the directory
	state    State
}

// Ensure Session implements Peer
var _ protocol.Peer = (*Session)(nil)

// New creates a session for an accepted connection
func New(conn *protocol.Conn, deps Dependencies) *Session {
	id := uuid.NewString()
	return &Session{
		id:   id,
		conn: conn,
		deps: deps,
		logger: deps.Logger.With(
			slog.String("component", "session"),
			slog.String("session_id", id),
			slog.String("remote_addr", conn.RemoteAddr()),
		),
		state: StateUnauthenticated,
	}
}

// ID returns the session's unique identifier
func (s *Session) ID() string {
	return s.id
}

// Username returns the bound username, or "" before login
func (s *Session) Username() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.username
}

// State returns the current state
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Session) Send(text string) error {
	return s.conn.Send(text)
}

func (s *Session) Prompt(ctx context.Context, text string) (string, error) {
	return s.conn.Prompt(ctx, text)
}

func (s *Session) Done() <-chan struct{} {
	return s.conn.Done()
}

// Close drops the connection; Run notices and cleans up
func (s *Session) Close() error {
	return s.conn.Close()
}

// Run drives the state machine until the client quits or disconnects.
// On return the connection is closed and the player's directory binding
// and un-started tournament enrolments are gone.
func (s *Session) Run(ctx context.Context) {
	defer s.cleanup()

	s.logger.Info("session started")
	for state := StateUnauthenticated; state != StateDisconnected; {
		s.setState(state)

		next, err := s.step(ctx, state)
		if err != nil {
			if errors.Is(err, protocol.ErrDisconnected) || errors.Is(err, context.Canceled) {
				s.logger.Info("connection closed", slog.String("state", state.String()))
			} else {
				s.logger.Warn("session error",
					slog.String("state", state.String()),
					slog.String("error", err.Error()),
				)
			}
			next = StateDisconnected
		}
		state = next
	}
	s.setState(StateDisconnected)
}

func (s *Session) step(ctx context.Context, state State) (State, error) {
	switch state {
	case StateUnauthenticated:
		return StateAwaitingCredentialChoice, nil
	case StateAwaitingCredentialChoice:
		return s.chooseCredentials(ctx)
	case StateLoggingIn:
		return s.login(ctx)
	case StateRegistering:
		return s.register(ctx)
	case StateIdle:
		return s.idle(ctx)
	case StateInMatch:
		return s.play(ctx)
	case StateInTournamentMatch:
		return s.awaitTournament(ctx)
	default:
		return StateDisconnected, fmt.Errorf("unexpected state %s", state)
	}
}

func (s *Session) setState(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

func (s *Session) cleanup() {
	if name := s.Username(); name != "" {
		s.deps.Directory.Unbind(name, s)
		s.deps.Tournaments.Leave(name)
		s.logger.Info("player disconnected", slog.String("username", name))
	}
	_ = s.conn.Close()
}

// disconnected reports whether the connection has already gone
func (s *Session) disconnected(ctx context.Context) bool {
	select {
	case <-s.conn.Done():
		return true
	case <-ctx.Done():
		return true
	default:
		return false
	}
}

// Authentication states

func (s *Session) chooseCredentials(ctx context.Context) (State, error) {
	choice, err := s.Prompt(ctx, msgWelcome)
	if err != nil {
		return StateDisconnected, err
	}
	switch choice {
	case "1":
		return StateLoggingIn, nil
	case "2":
		return StateRegistering, nil
	default:
		return s.refuse(msgInvalidWelcome)
	}
}

func (s *Session) login(ctx context.Context) (State, error) {
	username, password, err := s.credentials(ctx, msgUsername, msgPassword)
	if err != nil {
		return StateDisconnected, err
	}

	if err := s.deps.Directory.Authenticate(ctx, username, password); err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			s.logger.Info("login failed", slog.String("username", username))
			return s.refuse(msgBadCredentials)
		}
		return StateDisconnected, err
	}
	return s.bind(username, msgLoggedIn)
}

func (s *Session) register(ctx context.Context) (State, error) {
	username, password, err := s.credentials(ctx, msgNewUsername, msgNewPassword)
	if err != nil {
		return StateDisconnected, err
	}

	if err := s.deps.Directory.Register(ctx, username, password); err != nil {
		switch {
		case errors.Is(err, auth.ErrUsernameTaken):
			return s.refuse(msgUsernameTaken)
		case errors.Is(err, auth.ErrInvalidUsername):
			return s.refuse(msgUsernameEmpty)
		default:
			return StateDisconnected, err
		}
	}
	return s.bind(username, msgRegistered)
}

func (s *Session) credentials(ctx context.Context, userPrompt, passPrompt string) (string, string, error) {
	username, err := s.Prompt(ctx, userPrompt)
	if err != nil {
		return "", "", err
	}
	password, err := s.Prompt(ctx, passPrompt)
	if err != nil {
		return "", "", err
	}
	return username, password, nil
}

// bind claims username in the directory. A username already connected
// elsewhere is refused and the existing session is left untouched.
func (s *Session) bind(username, welcome string) (State, error) {
	if err := s.deps.Directory.Bind(username, s); err != nil {
		if errors.Is(err, auth.ErrAlreadyConnected) {
			s.logger.Info("duplicate login refused", slog.String("username", username))
			return s.refuse(fmt.Sprintf(msgAlreadyLoggedIn, username))
		}
		return StateDisconnected, err
	}

	s.mu.Lock()
	s.username = username
	s.mu.Unlock()
	s.logger = s.logger.With(slog.String("username", username))
	s.logger.Info("player logged in")

	if err := s.Send(welcome); err != nil {
		return StateDisconnected, err
	}
	return StateIdle, nil
}

// refuse sends a final message and ends the session
func (s *Session) refuse(message string) (State, error) {
	_ = s.Send(message)
	return StateDisconnected, nil
}

// Idle: the command menu

func (s *Session) idle(ctx context.Context) (State, error) {
	choice, err := s.Prompt(ctx, msgMenu)
	if err != nil {
		return StateDisconnected, err
	}

	switch choice {
	case "1":
		return StateInMatch, nil
	case "2":
		return s.showRankings(ctx)
	case "3":
		return s.createTournament(ctx)
	case "4":
		return s.joinTournament(ctx)
	case "5":
		return s.startTournament(ctx)
	case "6":
		_ = s.Send(msgGoodbye)
		return StateDisconnected, nil
	default:
		return StateIdle, s.Send(msgInvalidChoice)
	}
}

func (s *Session) showRankings(ctx context.Context) (State, error) {
	scores, err := s.deps.Rankings.Snapshot(ctx)
	if err != nil {
		return StateDisconnected, err
	}
	if len(scores) == 0 {
		return StateIdle, s.Send(msgNoRankings)
	}

	var b strings.Builder
	b.WriteString(msgRankings)
	for _, sc := range scores {
		fmt.Fprintf(&b, "%s: %d\n", sc.Username, sc.Score)
	}
	return StateIdle, s.Send(b.String())
}

// InMatch: park in the matchmaking queue until the match resolves

func (s *Session) play(ctx context.Context) (State, error) {
	_, err := s.deps.Queue.Enqueue(ctx, s)
	if s.disconnected(ctx) {
		return StateDisconnected, err
	}
	if err != nil {
		if errors.Is(err, model.ErrAlreadyQueued) {
			return StateIdle, s.Send(msgAlreadyQueued)
		}
		// the opponent dropped; the survivor has been told
		s.logger.Info("match did not complete", slog.String("error", err.Error()))
	}
	return StateIdle, nil
}
