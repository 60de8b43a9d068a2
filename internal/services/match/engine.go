package match

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mcoot/rpsgame/internal/model"
	"github.com/mcoot/rpsgame/internal/protocol"
	"github.com/mcoot/rpsgame/internal/services/ranking"
)

const (
	MovePrompt     = "Match found! Play your move: rock, paper, scissors\n"
	AbortedMessage = "Your opponent disconnected. Match aborted.\n"
	InvalidMessage = "Invalid move. Game aborted.\n"
)

// Ranker records ranking points
type Ranker interface {
	Increment(ctx context.Context, username string, amount int) (int, error)
}

// Observer is told about every match that reaches a result
type Observer interface {
	MatchFinished(result *model.MatchResult)
}

// Engine plays one-shot ad-hoc matches
type Engine struct {
	rankings Ranker
	observer Observer // optional
	logger   *slog.Logger
}

// NewEngine creates a new match Engine. observer may be nil.
func NewEngine(rankings Ranker, observer Observer, logger *slog.Logger) *Engine {
	return &Engine{
		rankings: rankings,
		observer: observer,
		logger:   logger.With(slog.String("component", "match")),
	}
}

// Play asks both peers for a move, resolves the exchange, credits the
// winner and tells both peers the same result. If either peer fails to
// answer the match is aborted and the survivor is told so.
func (e *Engine) Play(ctx context.Context, first, second protocol.Peer) (*model.MatchResult, error) {
	moves, err := CollectMoves(ctx, first, second, MovePrompt)
	if err != nil {
		var pe *PeerError
		if errors.As(err, &pe) {
			for _, p := range []protocol.Peer{first, second} {
				if p.Username() != pe.Username {
					_ = p.Send(AbortedMessage)
				}
			}
		}
		e.logger.Info("match aborted",
			slog.String("first", first.Username()),
			slog.String("second", second.Username()),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	outcome := Resolve(model.Move(moves.First), model.Move(moves.Second))
	result := &model.MatchResult{
		First:   first.Username(),
		Second:  second.Username(),
		Outcome: outcome,
	}

	switch outcome.Result {
	case model.ResultInvalid:
		result.Message = InvalidMessage
	case model.ResultDraw:
		result.Message = fmt.Sprintf("Draw! Both chose %s.\n", outcome.First)
	default:
		result.Winner = result.First
		if outcome.Result == model.ResultSecondWins {
			result.Winner = result.Second
		}
		result.Message = fmt.Sprintf("%s wins! %s beats %s.\n",
			result.Winner, outcome.WinningMove(), outcome.LosingMove())

		if _, err := e.rankings.Increment(ctx, result.Winner, ranking.MatchWinPoints); err != nil {
			e.logger.Error("failed to record match win",
				slog.String("username", result.Winner),
				slog.String("error", err.Error()),
			)
		}
	}

	for _, p := range []protocol.Peer{first, second} {
		if err := p.Send(result.Message); err != nil {
			e.logger.Debug("failed to deliver match result",
				slog.String("username", p.Username()),
				slog.String("error", err.Error()),
			)
		}
	}

	e.logger.Info("match finished",
		slog.String("first", result.First),
		slog.String("second", result.Second),
		slog.String("result", string(outcome.Result)),
		slog.String("winner", result.Winner),
	)
	if e.observer != nil {
		e.observer.MatchFinished(result)
	}
	return result, nil
}
