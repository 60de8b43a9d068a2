package auth

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/rpsgame/internal/dependencies/clock"
	"github.com/mcoot/rpsgame/internal/model"
	"github.com/mcoot/rpsgame/internal/protocol"
	"github.com/mcoot/rpsgame/internal/storage"
)

// Errors
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUsernameTaken      = errors.New("username already exists")
	ErrInvalidUsername    = errors.New("username cannot be empty")
	ErrAlreadyConnected   = errors.New("player is already connected")
)

// Config holds configuration for the auth service
type Config struct {
	// BcryptCost is the work factor for password hashes
	BcryptCost int
}

// DefaultConfig returns default auth configuration
func DefaultConfig() Config {
	return Config{
		BcryptCost: bcrypt.DefaultCost,
	}
}

// Service is the player directory: it owns credentials and tracks which
// peer, if any, is currently connected for each username.
type Service struct {
	storage storage.Storage
	clock   clock.Clock
	logger  *slog.Logger
	cost    int

	// serialises the exists-check and save of Register
	registerMu sync.Mutex

	mu     sync.RWMutex
	online map[string]protocol.Peer
}

// New creates a new auth Service
func New(storage storage.Storage, clock clock.Clock, cfg Config, logger *slog.Logger) *Service {
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = DefaultConfig().BcryptCost
	}
	return &Service{
		storage: storage,
		clock:   clock,
		logger:  logger.With(slog.String("component", "auth")),
		cost:    cfg.BcryptCost,
		online:  make(map[string]protocol.Peer),
	}
}

// Register creates a new account with a hashed password
func (s *Service) Register(ctx context.Context, username, password string) error {
	if strings.TrimSpace(username) == "" {
		return ErrInvalidUsername
	}

	s.registerMu.Lock()
	defer s.registerMu.Unlock()

	_, err := s.storage.GetPlayer(ctx, username)
	if err == nil {
		return ErrUsernameTaken
	}
	if !errors.Is(err, model.ErrPlayerNotFound) {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return err
	}

	player := &model.Player{
		Username:     username,
		PasswordHash: string(hash),
		CreatedAt:    s.clock.Now(),
	}
	if err := s.storage.SavePlayer(ctx, player); err != nil {
		return err
	}

	s.logger.Info("player registered", slog.String("username", username))
	return nil
}

// Authenticate checks a username and password against the stored hash
func (s *Service) Authenticate(ctx context.Context, username, password string) error {
	player, err := s.storage.GetPlayer(ctx, username)
	if err != nil {
		if errors.Is(err, model.ErrPlayerNotFound) {
			return ErrInvalidCredentials
		}
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(player.PasswordHash), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// GetPlayer returns the stored player record
func (s *Service) GetPlayer(ctx context.Context, username string) (*model.Player, error) {
	return s.storage.GetPlayer(ctx, username)
}

// Bind records peer as the live connection for username.
// A username already bound to a different peer is rejected.
func (s *Service) Bind(username string, peer protocol.Peer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.online[username]; ok && existing != peer {
		return ErrAlreadyConnected
	}
	s.online[username] = peer
	return nil
}

// Unbind clears the binding for username, but only if it still points at peer
func (s *Service) Unbind(username string, peer protocol.Peer) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.online[username]; ok && existing == peer {
		delete(s.online, username)
	}
}

// Lookup returns the live peer for username
func (s *Service) Lookup(username string) (protocol.Peer, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	peer, ok := s.online[username]
	return peer, ok
}

// Online returns the usernames of every connected player, sorted
func (s *Service) Online() []string {
	s.mu.RLock()
	names := make([]string, 0, len(s.online))
	for name := range s.online {
		names = append(names, name)
	}
	s.mu.RUnlock()

	sort.Strings(names)
	return names
}
