package storage

import (
	"context"

	"github.com/mcoot/rpsgame/internal/model"
)

// Storage defines the interface for data persistence.
// Every mutation is durable by the time the call returns.
type Storage interface {
	// Player operations
	SavePlayer(ctx context.Context, player *model.Player) error
	GetPlayer(ctx context.Context, username string) (*model.Player, error)

	// Ranking operations

	// IncrementScore adds amount to the player's score, treating a missing
	// entry as 0, and returns the new total.
	IncrementScore(ctx context.Context, username string, amount int) (int, error)
	// GetScores returns every ranking entry in no particular order
	GetScores(ctx context.Context) ([]model.Score, error)

	Close() error
}
