package factory

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/rpsgame/internal/events"
	"github.com/mcoot/rpsgame/internal/model"
	redisstorage "github.com/mcoot/rpsgame/internal/storage/redis"
	"github.com/mcoot/rpsgame/internal/testutil"
)

type IntegrationSuite struct {
	suite.Suite
	app *TestApp
	ctx context.Context
}

func TestIntegrationSuite(t *testing.T) {
	suite.Run(t, new(IntegrationSuite))
}

func (s *IntegrationSuite) SetupTest() {
	s.app = NewTestApp()
	s.ctx = context.Background()
}

// Test: ad-hoc match through the queue, then a two-player tournament
func (s *IntegrationSuite) TestMatchThenTournament() {
	alice := testutil.NewScriptedPeer("alice", "rock", "rock")
	bob := testutil.NewScriptedPeer("bob", "scissors", "paper")
	s.Require().NoError(s.app.Directory.Bind("alice", alice))
	s.Require().NoError(s.app.Directory.Bind("bob", bob))

	// Step 1: alice waits, bob completes the pair
	parked := make(chan error, 1)
	go func() {
		_, err := s.app.Queue.Enqueue(s.ctx, alice)
		parked <- err
	}()
	s.Require().Eventually(func() bool { return len(s.app.Queue.Waiting()) == 1 }, waitFor, tick)

	result, err := s.app.Queue.Enqueue(s.ctx, bob)
	s.Require().NoError(err)
	s.Equal("alice", result.Winner)
	s.Require().NoError(<-parked)

	// Step 2: bob runs a tournament against alice
	_, err = s.app.Tournaments.Create("cup", "bob")
	s.Require().NoError(err)
	_, err = s.app.Tournaments.Join("cup", "alice")
	s.Require().NoError(err)
	s.app.MockRandom.KeepOrder(2)
	_, err = s.app.Tournaments.Start("cup", "bob")
	s.Require().NoError(err)

	winner, err := s.app.Tournaments.Run(s.ctx, "cup")
	s.Require().NoError(err)
	s.Equal("bob", winner)

	// Step 3: rankings reflect both
	scores, err := s.app.Rankings.Snapshot(s.ctx)
	s.Require().NoError(err)
	s.Equal([]model.Score{
		{Username: "bob", Score: 5},
		{Username: "alice", Score: 1},
	}, scores)
}

func (s *IntegrationSuite) TestSessionDependenciesAreShared() {
	deps := s.app.SessionDependencies()

	s.Same(s.app.Directory, deps.Directory)
	s.Same(s.app.Rankings, deps.Rankings)
	s.Same(s.app.Queue, deps.Queue)
	s.Same(s.app.Tournaments, deps.Tournaments)
	s.NotNil(deps.Logger)
}

func (s *IntegrationSuite) TestCloseEndsEventStream() {
	s.Require().NoError(s.app.Close())
	s.False(s.app.Events.Register(events.NewClient("late")))
}

// Storage selection

func TestNewDefaultsToFileStorage(t *testing.T) {
	dir := t.TempDir()
	app, err := New(Config{DataDir: dir})
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = app.Close() }()

	if err := app.Directory.Register(context.Background(), "alice", "pw"); err != nil {
		t.Fatal(err)
	}

	reopened, err := New(Config{StorageType: StorageTypeFile, DataDir: dir})
	if err != nil {
		t.Fatal(err)
	}
	if err := reopened.Directory.Authenticate(context.Background(), "alice", "pw"); err != nil {
		t.Fatalf("registration did not persist: %v", err)
	}
}

func TestNewMemoryStorage(t *testing.T) {
	app, err := New(Config{StorageType: StorageTypeMemory})
	if err != nil {
		t.Fatal(err)
	}
	if app.Storage == nil {
		t.Fatal("storage not wired")
	}
}

func TestNewRedisStorage(t *testing.T) {
	mini := miniredis.RunT(t)
	cfg := redisstorage.DefaultConfig()
	cfg.URL = "redis://" + mini.Addr()

	app, err := New(Config{StorageType: StorageTypeRedis, RedisConfig: &cfg})
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = app.Close() }()

	if _, err := app.Rankings.Increment(context.Background(), "alice", 1); err != nil {
		t.Fatal(err)
	}
	if !mini.Exists("rps:rankings") {
		t.Fatal("ranking not written to redis")
	}
}

func TestNewRedisRequiresConfig(t *testing.T) {
	if _, err := New(Config{StorageType: StorageTypeRedis}); err == nil {
		t.Fatal("expected error without RedisConfig")
	}
}

func TestNewRejectsUnknownStorage(t *testing.T) {
	if _, err := New(Config{StorageType: "floppy"}); err == nil {
		t.Fatal("expected error for unknown storage type")
	}
}
