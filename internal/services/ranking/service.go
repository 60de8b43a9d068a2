package ranking

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/mcoot/rpsgame/internal/model"
	"github.com/mcoot/rpsgame/internal/storage"
)

const (
	// MatchWinPoints is awarded for winning an ad-hoc match
	MatchWinPoints = 1
	// TournamentWinPoints is awarded to a tournament's final winner
	TournamentWinPoints = 5
)

// Service accumulates per-player scores on top of storage
type Service struct {
	storage storage.Storage
	logger  *slog.Logger

	// serialises read-modify-write on backends without atomic increments
	mu sync.Mutex
}

// New creates a new ranking Service
func New(storage storage.Storage, logger *slog.Logger) *Service {
	return &Service{
		storage: storage,
		logger:  logger.With(slog.String("component", "ranking")),
	}
}

// Increment adds amount to username's score and returns the new total
func (s *Service) Increment(ctx context.Context, username string, amount int) (int, error) {
	s.mu.Lock()
	total, err := s.storage.IncrementScore(ctx, username, amount)
	s.mu.Unlock()
	if err != nil {
		return 0, fmt.Errorf("increment score for %s: %w", username, err)
	}

	s.logger.Info("score updated",
		slog.String("username", username),
		slog.Int("amount", amount),
		slog.Int("total", total),
	)
	return total, nil
}

// Snapshot returns all scores ordered by descending score, then username
func (s *Service) Snapshot(ctx context.Context) ([]model.Score, error) {
	scores, err := s.storage.GetScores(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(scores, func(i, j int) bool {
		if scores[i].Score != scores[j].Score {
			return scores[i].Score > scores[j].Score
		}
		return scores[i].Username < scores[j].Username
	})
	return scores, nil
}
