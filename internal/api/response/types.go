package response

import (
	"time"

	"github.com/mcoot/rpsgame/internal/model"
)

// Score is one leaderboard row
type Score struct {
	Username string `json:"username"`
	Score    int    `json:"score"`
}

// ScoresFromModel converts an ordered leaderboard
func ScoresFromModel(scores []model.Score) []Score {
	out := make([]Score, len(scores))
	for i, s := range scores {
		out[i] = Score{Username: s.Username, Score: s.Score}
	}
	return out
}

// Tournament represents a tournament in API responses
type Tournament struct {
	Name       string    `json:"name"`
	Creator    string    `json:"creator"`
	Players    []string  `json:"players"`
	InProgress bool      `json:"in_progress"`
	Round      int       `json:"round"`
	CreatedAt  time.Time `json:"created_at"`
}

// TournamentFromModel converts model.Tournament
func TournamentFromModel(t *model.Tournament) Tournament {
	players := make([]string, len(t.Players))
	copy(players, t.Players)
	return Tournament{
		Name:       t.Name,
		Creator:    t.Creator,
		Players:    players,
		InProgress: t.InProgress,
		Round:      t.Round,
		CreatedAt:  t.CreatedAt,
	}
}

// Player represents a registered player. The password hash is never exposed.
// CreatedAt is omitted when the storage backend does not record it.
type Player struct {
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at,omitzero"`
	Score     int       `json:"score"`
	Online    bool      `json:"online"`
}

// PlayerFromModel converts a model.Player to a response Player
func PlayerFromModel(p *model.Player) Player {
	return Player{
		Username:  p.Username,
		CreatedAt: p.CreatedAt,
	}
}

// OnlinePlayers lists usernames with a live session
type OnlinePlayers struct {
	Players []string `json:"players"`
}

// Health is the health check body
type Health struct {
	Status string `json:"status"`
}
