package session

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/rpsgame/internal/dependencies/mocks"
	"github.com/mcoot/rpsgame/internal/protocol"
	"github.com/mcoot/rpsgame/internal/services/auth"
	"github.com/mcoot/rpsgame/internal/services/match"
	"github.com/mcoot/rpsgame/internal/services/matchmaking"
	"github.com/mcoot/rpsgame/internal/services/ranking"
	"github.com/mcoot/rpsgame/internal/services/tournament"
	"github.com/mcoot/rpsgame/internal/storage/memory"
	"github.com/mcoot/rpsgame/internal/testutil"
)

const (
	waitFor = 3 * time.Second
	tick    = 5 * time.Millisecond
)

type SessionSuite struct {
	suite.Suite
	deps   Dependencies
	random *mocks.MockRandom
	ctx    context.Context
	cancel context.CancelFunc
}

func TestSessionSuite(t *testing.T) {
	suite.Run(t, new(SessionSuite))
}

func (s *SessionSuite) SetupTest() {
	store := memory.New()
	clk := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	logger := testutil.NopLogger()
	s.random = mocks.NewMockRandom()

	directory := auth.New(store, clk, auth.Config{BcryptCost: bcrypt.MinCost}, logger)
	rankings := ranking.New(store, logger)
	s.deps = Dependencies{
		Directory:   directory,
		Rankings:    rankings,
		Queue:       matchmaking.New(match.NewEngine(rankings, nil, logger), logger),
		Tournaments: tournament.NewEngine(directory, rankings, nil, clk, s.random, logger),
		Logger:      logger,
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())
}

func (s *SessionSuite) TearDownTest() {
	s.cancel()
}

type running struct {
	session *Session
	client  *testutil.Client
	done    chan struct{}
}

func (s *SessionSuite) connect() *running {
	serverSide, clientSide := net.Pipe()
	r := &running{
		session: New(protocol.NewConn(serverSide), s.deps),
		client:  testutil.NewClient(s.T(), clientSide),
		done:    make(chan struct{}),
	}
	go func() {
		r.session.Run(s.ctx)
		close(r.done)
	}()
	return r
}

func (s *SessionSuite) waitEnded(r *running) {
	select {
	case <-r.done:
	case <-time.After(waitFor):
		s.FailNow("session did not end")
	}
}

// login registers username through the menus and waits for the command menu
func (s *SessionSuite) login(username string) *running {
	r := s.connect()
	r.client.Answer(msgWelcome, "2")
	r.client.Answer(msgNewUsername, username)
	r.client.Answer(msgNewPassword, "pw-"+username)
	r.client.Expect(msgRegistered)
	r.client.Expect("6. Quit")
	return r
}

// Authentication

func (s *SessionSuite) TestInvalidWelcomeChoiceDisconnects() {
	r := s.connect()
	r.client.Answer(msgWelcome, "9")

	r.client.Expect(msgInvalidWelcome)
	s.waitEnded(r)
	r.client.WaitClosed()
}

func (s *SessionSuite) TestRegisterLogsIn() {
	r := s.login("alice")

	s.Eventually(func() bool { return r.session.State() == StateIdle }, waitFor, tick)
	s.Equal("alice", r.session.Username())
	_, ok := s.deps.Directory.Lookup("alice")
	s.True(ok)
}

func (s *SessionSuite) TestLoginWithValidCredentials() {
	s.Require().NoError(s.deps.Directory.Register(s.ctx, "bob", "secret"))

	r := s.connect()
	r.client.Answer(msgWelcome, "1")
	r.client.Answer(msgUsername, "bob")
	r.client.Answer(msgPassword, "secret")

	r.client.Expect(msgLoggedIn)
	r.client.Expect("6. Quit")
	s.Equal("bob", r.session.Username())
}

func (s *SessionSuite) TestLoginWithBadPasswordDisconnects() {
	s.Require().NoError(s.deps.Directory.Register(s.ctx, "bob", "secret"))

	r := s.connect()
	r.client.Answer(msgWelcome, "1")
	r.client.Answer(msgUsername, "bob")
	r.client.Answer(msgPassword, "guess")

	r.client.Expect(msgBadCredentials)
	s.waitEnded(r)
	_, ok := s.deps.Directory.Lookup("bob")
	s.False(ok)
}

func (s *SessionSuite) TestRegisterTakenUsernameDisconnects() {
	s.Require().NoError(s.deps.Directory.Register(s.ctx, "bob", "secret"))

	r := s.connect()
	r.client.Answer(msgWelcome, "2")
	r.client.Answer(msgNewUsername, "bob")
	r.client.Answer(msgNewPassword, "other")

	r.client.Expect(msgUsernameTaken)
	s.waitEnded(r)
}

func (s *SessionSuite) TestSecondLoginIsRefused() {
	first := s.login("alice")

	second := s.connect()
	second.client.Answer(msgWelcome, "1")
	second.client.Answer(msgUsername, "alice")
	second.client.Answer(msgPassword, "pw-alice")

	second.client.Expect("User alice is already logged in. Disconnecting...")
	s.waitEnded(second)

	found, ok := s.deps.Directory.Lookup("alice")
	s.True(ok)
	s.Same(first.session, found)
}

// Menu

func (s *SessionSuite) TestInvalidMenuChoiceRepromptsMenu() {
	r := s.login("alice")

	r.client.Reply("banana")
	r.client.Expect(msgInvalidChoice)
	r.client.Expect("6. Quit")
	s.Equal(StateIdle, r.session.State())
}

func (s *SessionSuite) TestQuitCleansUp() {
	r := s.login("alice")

	r.client.Reply("6")
	r.client.Expect(msgGoodbye)
	s.waitEnded(r)

	s.Equal(StateDisconnected, r.session.State())
	s.Empty(s.deps.Directory.Online())
}

func (s *SessionSuite) TestDisconnectWhileIdleCleansUp() {
	r := s.login("alice")
	_, _ = s.deps.Tournaments.Create("cup", "alice")

	r.client.Close()
	s.waitEnded(r)

	s.Empty(s.deps.Directory.Online())
	s.Empty(s.deps.Tournaments.List())
}

func (s *SessionSuite) TestViewRankings() {
	r := s.login("alice")

	r.client.Reply("2")
	r.client.Expect(msgNoRankings)
	r.client.Expect("6. Quit")

	_, _ = s.deps.Rankings.Increment(s.ctx, "bob", 5)
	_, _ = s.deps.Rankings.Increment(s.ctx, "alice", 1)

	r.client.Reply("2")
	r.client.Expect("Player Rankings:\nbob: 5\nalice: 1\n")
}

// Matchmaking

func (s *SessionSuite) TestAdHocMatch() {
	alice := s.login("alice")
	bob := s.login("bob")

	alice.client.Reply("1")
	alice.client.Expect(matchmaking.WaitingMessage)
	s.Eventually(func() bool { return len(s.deps.Queue.Waiting()) == 1 }, waitFor, tick)

	bob.client.Reply("1")
	alice.client.Answer("Match found!", "rock")
	bob.client.Answer("Match found!", "scissors")

	for _, r := range []*running{alice, bob} {
		r.client.Expect("alice wins! rock beats scissors.")
		r.client.Expect("6. Quit")
	}

	scores, err := s.deps.Rankings.Snapshot(s.ctx)
	s.Require().NoError(err)
	s.Len(scores, 1)
	s.Equal(1, scores[0].Score)
}

func (s *SessionSuite) TestOpponentDisconnectAbortsMatch() {
	alice := s.login("alice")
	bob := s.login("bob")

	alice.client.Reply("1")
	s.Eventually(func() bool { return len(s.deps.Queue.Waiting()) == 1 }, waitFor, tick)
	bob.client.Reply("1")

	alice.client.Expect("Match found!")
	bob.client.Expect("Match found!")
	bob.client.Close()

	alice.client.Expect(match.AbortedMessage)
	alice.client.Expect("6. Quit")
	s.waitEnded(bob)
	s.Equal([]string{"alice"}, s.deps.Directory.Online())
}

func (s *SessionSuite) TestWaitingPlayerDisconnectLeavesQueue() {
	alice := s.login("alice")

	alice.client.Reply("1")
	s.Eventually(func() bool { return len(s.deps.Queue.Waiting()) == 1 }, waitFor, tick)

	alice.client.Close()
	s.waitEnded(alice)
	s.Empty(s.deps.Queue.Waiting())
}

// Tournaments

func (s *SessionSuite) TestCreateTournament() {
	r := s.login("carl")

	r.client.Reply("3")
	r.client.Answer(msgTournamentName, "cup")
	r.client.Expect("Tournament 'cup' created.")
	r.client.Expect("6. Quit")

	r.client.Reply("3")
	r.client.Answer(msgTournamentName, "cup")
	r.client.Expect(msgTournamentExists)

	list := s.deps.Tournaments.List()
	s.Require().Len(list, 1)
	s.Equal("carl", list[0].Creator)
}

func (s *SessionSuite) TestJoinWithNothingAvailable() {
	r := s.login("dave")

	r.client.Reply("4")
	r.client.Expect(msgNoneToJoin)
	r.client.Expect("6. Quit")
}

func (s *SessionSuite) TestJoinRejectsNonNumericSelection() {
	_, _ = s.deps.Tournaments.Create("cup", "carl")
	r := s.login("dave")

	r.client.Reply("4")
	r.client.Expect("1. cup (Creator: carl)")
	r.client.Answer(msgJoinPrompt, "first")
	r.client.Expect(msgNotANumber)
	r.client.Expect("6. Quit")

	r.client.Reply("4")
	r.client.Answer(msgJoinPrompt, "7")
	r.client.Expect(msgInvalidNumber)
	r.client.Expect("6. Quit")

	r.client.Reply("4")
	r.client.Answer(msgJoinPrompt, "0")
	r.client.Expect("6. Quit")
	s.Equal([]string{"carl"}, s.deps.Tournaments.List()[0].Players)
}

func (s *SessionSuite) TestStartWithNothingReady() {
	r := s.login("carl")
	_, _ = s.deps.Tournaments.Create("cup", "carl")

	r.client.Reply("5")
	r.client.Expect(msgNoneToStart)
	r.client.Expect("6. Quit")
}

func (s *SessionSuite) TestTournamentEndToEnd() {
	carl := s.login("carl")
	dave := s.login("dave")

	carl.client.Reply("3")
	carl.client.Answer(msgTournamentName, "cup")
	carl.client.Expect("6. Quit")

	dave.client.Reply("4")
	dave.client.Answer(msgJoinPrompt, "1")
	dave.client.Expect("Successfully joined tournament 'cup'.")
	s.Eventually(func() bool { return dave.session.State() == StateInTournamentMatch }, waitFor, tick)

	s.random.KeepOrder(2)
	carl.client.Reply("5")
	carl.client.Expect("1. cup (Players: 2)")
	carl.client.Answer(msgStartPrompt, "1")

	for _, r := range []*running{carl, dave} {
		r.client.Expect("Tournament 'cup' started!")
	}
	carl.client.Expect("Tournament match against dave")
	dave.client.Expect("Tournament match against carl")
	carl.client.Answer(tournament.MovePrompt, "rock")
	dave.client.Answer(tournament.MovePrompt, "scissors")

	for _, r := range []*running{carl, dave} {
		r.client.Expect("carl wins with rock!")
		r.client.Expect("Tournament 'cup' finished! Winner: carl")
		r.client.Expect("6. Quit")
	}

	scores, err := s.deps.Rankings.Snapshot(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(scores, 1)
	s.Equal("carl", scores[0].Username)
	s.Equal(5, scores[0].Score)
	s.Empty(s.deps.Tournaments.List())
}

func (s *SessionSuite) TestCreatorDisconnectReleasesEntrants() {
	carl := s.login("carl")
	dave := s.login("dave")

	carl.client.Reply("3")
	carl.client.Answer(msgTournamentName, "cup")
	carl.client.Expect("6. Quit")

	dave.client.Reply("4")
	dave.client.Answer(msgJoinPrompt, "1")
	dave.client.Expect("Successfully joined")

	carl.client.Close()

	dave.client.Expect("Tournament 'cup' was cancelled")
	dave.client.Expect("6. Quit")
	s.Empty(s.deps.Tournaments.List())
}

func (s *SessionSuite) TestParkedEntrantDisconnectLeavesTournament() {
	_, _ = s.deps.Tournaments.Create("cup", "carl")
	dave := s.login("dave")

	dave.client.Reply("4")
	dave.client.Answer(msgJoinPrompt, "1")
	dave.client.Expect("Successfully joined")

	dave.client.Close()
	s.waitEnded(dave)

	s.Equal([]string{"carl"}, s.deps.Tournaments.List()[0].Players)
}

func (s *SessionSuite) TestShutdownContextEndsSession() {
	r := s.login("alice")

	s.cancel()
	s.waitEnded(r)
	r.client.WaitClosed()
}

func TestStateString(t *testing.T) {
	for st := StateUnauthenticated; st <= StateDisconnected; st++ {
		if st.String() == "unknown" {
			t.Errorf("state %d has no name", st)
		}
	}
}
