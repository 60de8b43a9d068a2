package model

import "errors"

// Common errors used across the application
var (
	// Player errors
	ErrPlayerNotFound = errors.New("player not found")

	// Matchmaking errors
	ErrAlreadyQueued = errors.New("player is already waiting for a match")

	// Tournament errors
	ErrTournamentNotFound  = errors.New("tournament not found")
	ErrDuplicateTournament = errors.New("tournament name already in use")
	ErrInvalidTournament   = errors.New("tournament name cannot be empty")
	ErrAlreadyJoined       = errors.New("player has already joined this tournament")
	ErrAlreadyStarted      = errors.New("tournament has already started")
	ErrNotCreator          = errors.New("player is not the tournament creator")
	ErrInsufficientPlayers = errors.New("insufficient players to start tournament")
)
