package memory

import (
	"context"
	"sync"

	"github.com/mcoot/rpsgame/internal/model"
	"github.com/mcoot/rpsgame/internal/storage"
)

// Storage is an in-memory implementation of the storage interface
type Storage struct {
	mu sync.RWMutex

	players map[string]*model.Player
	scores  map[string]int
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		players: make(map[string]*model.Player),
		scores:  make(map[string]int),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Player operations

func (s *Storage) SavePlayer(ctx context.Context, player *model.Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := *player
	s.players[player.Username] = &p
	return nil
}

func (s *Storage) GetPlayer(ctx context.Context, username string) (*model.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	player, ok := s.players[username]
	if !ok {
		return nil, model.ErrPlayerNotFound
	}
	p := *player
	return &p, nil
}

// Ranking operations

func (s *Storage) IncrementScore(ctx context.Context, username string, amount int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scores[username] += amount
	return s.scores[username], nil
}

func (s *Storage) GetScores(ctx context.Context) ([]model.Score, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	scores := make([]model.Score, 0, len(s.scores))
	for username, score := range s.scores {
		scores = append(scores, model.Score{Username: username, Score: score})
	}
	return scores, nil
}

// Close is a no-op for memory storage
func (s *Storage) Close() error {
	return nil
}
