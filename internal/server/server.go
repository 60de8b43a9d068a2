package server

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/mcoot/rpsgame/internal/protocol"
	"github.com/mcoot/rpsgame/internal/session"
)

// FullMessage is sent to a connection refused because every slot is taken
const FullMessage = "Server is full. Try again later.\n"

// Config holds configuration for the game server
type Config struct {
	Host string
	Port int
	TLS  *tls.Config

	// MaxSessions bounds concurrent sessions; zero means unbounded
	MaxSessions int
	// ReplyTimeout bounds every prompt; zero means wait forever
	ReplyTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// DefaultConfig returns sensible defaults for the game server
func DefaultConfig() Config {
	return Config{
		Host:            "127.0.0.1",
		Port:            12345,
		ShutdownTimeout: 10 * time.Second,
	}
}

// Server accepts TLS connections and runs one session per connection
type Server struct {
	config Config
	deps   session.Dependencies
	logger *slog.Logger
	slots  *semaphore.Weighted // nil when unbounded

	// sessionCtx is cancelled on shutdown
	sessionCtx    context.Context
	cancelSession context.CancelFunc

	mu       sync.Mutex
	listener net.Listener
	sessions map[string]*session.Session
	closing  bool
	wg       sync.WaitGroup
}

// New creates a new game server
func New(config Config, deps session.Dependencies, logger *slog.Logger) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		config:        config,
		deps:          deps,
		logger:        logger.With(slog.String("component", "server")),
		sessionCtx:    ctx,
		cancelSession: cancel,
		sessions:      make(map[string]*session.Session),
	}
	if config.MaxSessions > 0 {
		s.slots = semaphore.NewWeighted(int64(config.MaxSessions))
	}
	return s
}

// Listen binds the TLS listener. Port 0 picks a free port.
func (s *Server) Listen() error {
	if s.config.TLS == nil {
		return errors.New("TLS config required")
	}
	addr := net.JoinHostPort(s.config.Host, fmt.Sprint(s.config.Port))
	ln, err := tls.Listen("tcp", addr, s.config.TLS)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}

	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	s.logger.Info("game server listening", slog.String("addr", ln.Addr().String()))
	return nil
}

// Serve accepts connections until Shutdown. It returns nil after a
// clean shutdown.
func (s *Server) Serve() error {
	s.mu.Lock()
	ln := s.listener
	s.mu.Unlock()
	if ln == nil {
		return errors.New("server is not listening")
	}

	for {
		raw, err := ln.Accept()
		if err != nil {
			if s.isClosing() {
				return nil
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				continue
			}
			return fmt.Errorf("accept: %w", err)
		}
		s.handle(raw)
	}
}

// Start binds and serves; it blocks until Shutdown
func (s *Server) Start() error {
	if err := s.Listen(); err != nil {
		return err
	}
	return s.Serve()
}

func (s *Server) handle(raw net.Conn) {
	if s.slots != nil && !s.slots.TryAcquire(1) {
		s.logger.Warn("connection refused, server full",
			slog.String("remote_addr", raw.RemoteAddr().String()),
		)
		go reject(raw)
		return
	}

	conn := protocol.NewConn(raw, protocol.WithReplyTimeout(s.config.ReplyTimeout))
	sess := session.New(conn, s.deps)

	s.mu.Lock()
	if s.closing {
		s.mu.Unlock()
		_ = conn.Close()
		s.release()
		return
	}
	s.sessions[sess.ID()] = sess
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()
		defer s.release()
		defer s.forget(sess)
		sess.Run(s.sessionCtx)
	}()
}

// reject tells the client it is over capacity; the write also completes
// the TLS handshake, so it is bounded by a deadline.
func reject(raw net.Conn) {
	_ = raw.SetWriteDeadline(time.Now().Add(5 * time.Second))
	_, _ = raw.Write([]byte(FullMessage))
	_ = raw.Close()
}

func (s *Server) release() {
	if s.slots != nil {
		s.slots.Release(1)
	}
}

func (s *Server) forget(sess *session.Session) {
	s.mu.Lock()
	delete(s.sessions, sess.ID())
	s.mu.Unlock()
}

func (s *Server) isClosing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closing
}

// Shutdown stops accepting, closes every live session, closes the
// listener and then waits for session goroutines to finish cleanup.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closing = true
	live := make([]*session.Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		live = append(live, sess)
	}
	ln := s.listener
	s.mu.Unlock()

	s.logger.Info("shutting down game server", slog.Int("live_sessions", len(live)))

	s.cancelSession()
	for _, sess := range live {
		_ = sess.Close()
	}
	if ln != nil {
		_ = ln.Close()
	}

	waitCtx := ctx
	if s.config.ShutdownTimeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, s.config.ShutdownTimeout)
		defer cancel()
	}

	finished := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(finished)
	}()

	select {
	case <-finished:
		s.logger.Info("game server stopped")
		return nil
	case <-waitCtx.Done():
		return fmt.Errorf("shutdown error: %w", waitCtx.Err())
	}
}

// Addr returns the bound listen address, or "" before Listen
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// SessionCount returns the number of live sessions
func (s *Server) SessionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
