package session

// State is where a session is in its lifecycle
type State int

const (
	StateUnauthenticated State = iota
	StateAwaitingCredentialChoice
	StateLoggingIn
	StateRegistering
	StateIdle
	StateInMatch
	StateInTournamentMatch
	StateDisconnected
)

func (s State) String() string {
	switch s {
	case StateUnauthenticated:
		return "unauthenticated"
	case StateAwaitingCredentialChoice:
		return "awaiting_credential_choice"
	case StateLoggingIn:
		return "logging_in"
	case StateRegistering:
		return "registering"
	case StateIdle:
		return "idle"
	case StateInMatch:
		return "in_match"
	case StateInTournamentMatch:
		return "in_tournament_match"
	case StateDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}
