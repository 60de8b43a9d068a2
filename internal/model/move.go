package model

// Move is one of the three accepted hand shapes
type Move string

const (
	MoveRock     Move = "rock"
	MovePaper    Move = "paper"
	MoveScissors Move = "scissors"
)

// Valid reports whether m is part of the move vocabulary.
// Comparison is exact: "Rock" is not a valid move.
func (m Move) Valid() bool {
	switch m {
	case MoveRock, MovePaper, MoveScissors:
		return true
	default:
		return false
	}
}

// Beats reports whether m defeats other
func (m Move) Beats(other Move) bool {
	switch m {
	case MoveRock:
		return other == MoveScissors
	case MoveScissors:
		return other == MovePaper
	case MovePaper:
		return other == MoveRock
	default:
		return false
	}
}

// Result classifies how a single exchange ended
type Result string

const (
	ResultInvalid    Result = "invalid"     // at least one move outside the vocabulary
	ResultDraw       Result = "draw"        // both moves equal
	ResultFirstWins  Result = "first_wins"  // first-listed participant won
	ResultSecondWins Result = "second_wins" // second-listed participant won
)

// Outcome is the resolution of one exchange between two moves
type Outcome struct {
	Result Result
	First  Move
	Second Move
}

// Decisive returns true if the outcome has a winner
func (o Outcome) Decisive() bool {
	return o.Result == ResultFirstWins || o.Result == ResultSecondWins
}

// WinningMove returns the move that won, or "" if the outcome is not decisive
func (o Outcome) WinningMove() Move {
	switch o.Result {
	case ResultFirstWins:
		return o.First
	case ResultSecondWins:
		return o.Second
	default:
		return ""
	}
}

// LosingMove returns the move that lost, or "" if the outcome is not decisive
func (o Outcome) LosingMove() Move {
	switch o.Result {
	case ResultFirstWins:
		return o.Second
	case ResultSecondWins:
		return o.First
	default:
		return ""
	}
}

// MatchResult records a finished ad-hoc match
type MatchResult struct {
	First   string
	Second  string
	Outcome Outcome
	Winner  string // empty unless decisive
	Message string // text delivered to both participants
}
