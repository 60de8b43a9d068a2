package model

import "time"

// Player is a registered account. Username is the identity and never changes.
type Player struct {
	Username     string    `json:"username"`
	PasswordHash string    `json:"password_hash"` // bcrypt hash
	CreatedAt    time.Time `json:"created_at"`
}

// Score is one row of the ranking table
type Score struct {
	Username string `json:"username"`
	Score    int    `json:"score"`
}
