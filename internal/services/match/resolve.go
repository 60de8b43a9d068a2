package match

import "github.com/mcoot/rpsgame/internal/model"

// Resolve decides a single exchange. Moves outside the vocabulary make
// the whole exchange invalid, whichever side sent them.
func Resolve(first, second model.Move) model.Outcome {
	outcome := model.Outcome{First: first, Second: second}
	switch {
	case !first.Valid() || !second.Valid():
		outcome.Result = model.ResultInvalid
	case first == second:
		outcome.Result = model.ResultDraw
	case first.Beats(second):
		outcome.Result = model.ResultFirstWins
	default:
		outcome.Result = model.ResultSecondWins
	}
	return outcome
}
