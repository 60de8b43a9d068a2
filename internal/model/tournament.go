package model

import "time"

// Pair is one bracket slot. An empty Second means First has a bye.
type Pair struct {
	First  string
	Second string
}

// IsBye returns true if the pair has no opponent
func (p Pair) IsBye() bool {
	return p.Second == ""
}

// Tournament is an elimination bracket. Pairs only exist while InProgress.
type Tournament struct {
	Name       string
	Creator    string
	Players    []string // enrolled, in join order (shuffled on start)
	Pairs      []Pair   // current round
	Round      int      // 0 until started
	InProgress bool
	CreatedAt  time.Time
}

// HasPlayer returns true if username is enrolled
func (t *Tournament) HasPlayer(username string) bool {
	for _, p := range t.Players {
		if p == username {
			return true
		}
	}
	return false
}

// Clone returns a deep copy safe to hand out of a lock
func (t *Tournament) Clone() Tournament {
	c := *t
	c.Players = append([]string(nil), t.Players...)
	c.Pairs = append([]Pair(nil), t.Pairs...)
	return c
}
