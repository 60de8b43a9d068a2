package server

import (
	"context"
	"crypto/tls"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/rpsgame/internal/factory"
	"github.com/mcoot/rpsgame/internal/protocol"
	"github.com/mcoot/rpsgame/internal/testutil"
)

const (
	waitFor = 3 * time.Second
	tick    = 5 * time.Millisecond
)

type ServerSuite struct {
	suite.Suite
	app       *factory.TestApp
	serverTLS *tls.Config
	clientTLS *tls.Config
}

func TestServerSuite(t *testing.T) {
	suite.Run(t, new(ServerSuite))
}

func (s *ServerSuite) SetupSuite() {
	serverTLS, certPEM, err := protocol.SelfSignedTLSConfig("127.0.0.1")
	s.Require().NoError(err)
	clientTLS, err := protocol.ClientTLSConfigFromPEM(certPEM, "127.0.0.1")
	s.Require().NoError(err)
	s.serverTLS = serverTLS
	s.clientTLS = clientTLS
}

func (s *ServerSuite) SetupTest() {
	s.app = factory.NewTestApp()
}

// start runs a server on a free port and registers its shutdown
func (s *ServerSuite) start(cfg Config) (*Server, <-chan error) {
	cfg.Host = "127.0.0.1"
	cfg.Port = 0
	cfg.TLS = s.serverTLS
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 2 * time.Second
	}

	srv := New(cfg, s.app.SessionDependencies(), testutil.NopLogger())
	s.Require().NoError(srv.Listen())

	served := make(chan error, 1)
	go func() { served <- srv.Serve() }()
	s.T().Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return srv, served
}

func (s *ServerSuite) dial(srv *Server) *testutil.Client {
	conn, err := tls.Dial("tcp", srv.Addr(), s.clientTLS)
	s.Require().NoError(err)
	return testutil.NewClient(s.T(), conn)
}

func (s *ServerSuite) register(c *testutil.Client, username string) {
	c.Answer("Login (1) or Register (2): ", "2")
	c.Answer("Enter a new username: ", username)
	c.Answer("Enter a new password: ", "pw")
	c.Expect("Registration successful!")
	c.Expect("6. Quit\n")
}

func (s *ServerSuite) TestWelcomesConnection() {
	srv, _ := s.start(DefaultConfig())

	client := s.dial(srv)
	client.Expect(protocol.ReplyMarker + "Welcome! Login (1) or Register (2): ")
	s.Eventually(func() bool { return srv.SessionCount() == 1 }, waitFor, tick)
}

func (s *ServerSuite) TestSessionsAreIndependent() {
	srv, _ := s.start(DefaultConfig())

	alice := s.dial(srv)
	bob := s.dial(srv)
	s.register(alice, "alice")
	s.register(bob, "bob")

	s.ElementsMatch([]string{"alice", "bob"}, s.app.Directory.Online())
	s.Equal(2, srv.SessionCount())
}

func (s *ServerSuite) TestQuitReleasesSession() {
	srv, _ := s.start(DefaultConfig())

	alice := s.dial(srv)
	s.register(alice, "alice")
	alice.Reply("6")
	alice.Expect("Goodbye!")
	alice.WaitClosed()

	s.Eventually(func() bool { return srv.SessionCount() == 0 }, waitFor, tick)
	s.Empty(s.app.Directory.Online())
}

func (s *ServerSuite) TestRejectsWhenFull() {
	cfg := DefaultConfig()
	cfg.MaxSessions = 1
	srv, _ := s.start(cfg)

	first := s.dial(srv)
	first.Expect("Welcome!")

	second := s.dial(srv)
	second.Expect(FullMessage)
	second.WaitClosed()

	// The first session keeps working
	s.register(first, "alice")
	s.Equal(1, srv.SessionCount())
}

func (s *ServerSuite) TestSlotIsReusedAfterDisconnect() {
	cfg := DefaultConfig()
	cfg.MaxSessions = 1
	srv, _ := s.start(cfg)

	first := s.dial(srv)
	first.Expect("Welcome!")
	first.Close()
	s.Eventually(func() bool { return srv.SessionCount() == 0 }, waitFor, tick)

	second := s.dial(srv)
	second.Expect("Welcome!")
}

func (s *ServerSuite) TestReplyTimeoutClosesConnection() {
	cfg := DefaultConfig()
	cfg.ReplyTimeout = 50 * time.Millisecond
	srv, _ := s.start(cfg)

	client := s.dial(srv)
	client.Expect("Welcome!")
	client.WaitClosed()
	s.Eventually(func() bool { return srv.SessionCount() == 0 }, waitFor, tick)
}

func (s *ServerSuite) TestShutdownClosesSessions() {
	srv, served := s.start(DefaultConfig())

	alice := s.dial(srv)
	s.register(alice, "alice")

	s.Require().NoError(srv.Shutdown(context.Background()))

	alice.WaitClosed()
	s.Equal(0, srv.SessionCount())
	s.Empty(s.app.Directory.Online())

	select {
	case err := <-served:
		s.NoError(err)
	case <-time.After(waitFor):
		s.Fail("Serve did not return after Shutdown")
	}
}

func (s *ServerSuite) TestShutdownCancelsUnstartedTournaments() {
	srv, _ := s.start(DefaultConfig())

	alice := s.dial(srv)
	s.register(alice, "alice")
	alice.Reply("3")
	alice.Answer("Enter tournament name: ", "cup")
	alice.Expect("Tournament 'cup' created.")

	s.Require().NoError(srv.Shutdown(context.Background()))
	s.Empty(s.app.Tournaments.List())
}

func (s *ServerSuite) TestListenRequiresTLS() {
	srv := New(DefaultConfig(), s.app.SessionDependencies(), testutil.NopLogger())
	s.Error(srv.Listen())
	s.Equal("", srv.Addr())
}

func (s *ServerSuite) TestServeRequiresListen() {
	srv := New(DefaultConfig(), s.app.SessionDependencies(), testutil.NopLogger())
	s.Error(srv.Serve())
}
