package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/mcoot/rpsgame/internal/model"
)

func (s *Session) createTournament(ctx context.Context) (State, error) {
	name, err := s.Prompt(ctx, msgTournamentName)
	if err != nil {
		return StateDisconnected, err
	}

	t, err := s.deps.Tournaments.Create(name, s.Username())
	switch {
	case errors.Is(err, model.ErrDuplicateTournament):
		return StateIdle, s.Send(msgTournamentExists)
	case errors.Is(err, model.ErrInvalidTournament):
		return StateIdle, s.Send(msgTournamentNameEmpty)
	case err != nil:
		return StateDisconnected, err
	}
	return StateIdle, s.Send(fmt.Sprintf(msgTournamentCreated, t.Name))
}

func (s *Session) joinTournament(ctx context.Context) (State, error) {
	available := s.deps.Tournaments.Joinable()
	if len(available) == 0 {
		return StateIdle, s.Send(msgNoneToJoin)
	}

	var list strings.Builder
	list.WriteString(msgJoinList)
	for i, t := range available {
		fmt.Fprintf(&list, msgJoinEntry, i+1, t.Name, t.Creator)
	}
	if err := s.Send(list.String()); err != nil {
		return StateDisconnected, err
	}

	t, state, err := s.choose(ctx, msgJoinPrompt, available)
	if t == nil {
		return state, err
	}

	done, err := s.deps.Tournaments.Join(t.Name, s.Username())
	switch {
	case errors.Is(err, model.ErrAlreadyJoined):
		return StateIdle, s.Send(msgAlreadyJoined)
	case errors.Is(err, model.ErrAlreadyStarted):
		return StateIdle, s.Send(msgAlreadyStarted)
	case errors.Is(err, model.ErrTournamentNotFound):
		return StateIdle, s.Send(msgTournamentGone)
	case err != nil:
		return StateDisconnected, err
	}

	s.pending = &pendingTournament{name: t.Name, done: done}
	return StateInTournamentMatch, s.Send(fmt.Sprintf(msgJoined, t.Name))
}

func (s *Session) startTournament(ctx context.Context) (State, error) {
	available := s.deps.Tournaments.Startable(s.Username())
	if len(available) == 0 {
		return StateIdle, s.Send(msgNoneToStart)
	}

	var list strings.Builder
	list.WriteString(msgStartList)
	for i, t := range available {
		fmt.Fprintf(&list, msgStartEntry, i+1, t.Name, len(t.Players))
	}
	if err := s.Send(list.String()); err != nil {
		return StateDisconnected, err
	}

	t, state, err := s.choose(ctx, msgStartPrompt, available)
	if t == nil {
		return state, err
	}

	started, err := s.deps.Tournaments.Start(t.Name, s.Username())
	switch {
	case errors.Is(err, model.ErrInsufficientPlayers):
		return StateIdle, s.Send(msgNotEnoughPlayers)
	case errors.Is(err, model.ErrAlreadyStarted):
		return StateIdle, s.Send(msgAlreadyStarted)
	case errors.Is(err, model.ErrTournamentNotFound), errors.Is(err, model.ErrNotCreator):
		return StateIdle, s.Send(msgTournamentGone)
	case err != nil:
		return StateDisconnected, err
	}

	announcement := fmt.Sprintf(msgStarted, started.Name)
	for _, name := range started.Players {
		if peer, ok := s.deps.Directory.Lookup(name); ok {
			_ = peer.Send(announcement)
		}
	}

	s.pending = &pendingTournament{name: started.Name, drive: true}
	return StateInTournamentMatch, nil
}

// choose prompts for a 1-based index into options. A nil tournament means
// the caller should return the given state and error as-is.
func (s *Session) choose(ctx context.Context, prompt string, options []model.Tournament) (*model.Tournament, State, error) {
	reply, err := s.Prompt(ctx, prompt)
	if err != nil {
		return nil, StateDisconnected, err
	}

	n, err := strconv.Atoi(reply)
	switch {
	case err != nil:
		return nil, StateIdle, s.Send(msgNotANumber)
	case n == 0:
		return nil, StateIdle, nil
	case n < 0 || n > len(options):
		return nil, StateIdle, s.Send(msgInvalidNumber)
	}
	return &options[n-1], StateIdle, nil
}

// InTournamentMatch: either drive the rounds or wait to be released

func (s *Session) awaitTournament(ctx context.Context) (State, error) {
	p := s.pending
	s.pending = nil
	if p == nil {
		return StateIdle, nil
	}

	if p.drive {
		winner, err := s.deps.Tournaments.Run(ctx, p.name)
		if err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Error("tournament failed",
				slog.String("tournament", p.name),
				slog.String("error", err.Error()),
			)
		}
		s.logger.Info("tournament over",
			slog.String("tournament", p.name),
			slog.String("winner", winner),
		)
		if s.disconnected(ctx) {
			return StateDisconnected, nil
		}
		return StateIdle, nil
	}

	select {
	case <-p.done:
		return StateIdle, nil
	case <-s.conn.Done():
		return StateDisconnected, nil
	case <-ctx.Done():
		return StateDisconnected, ctx.Err()
	}
}
