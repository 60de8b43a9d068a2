package tournament

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/mcoot/rpsgame/internal/dependencies/clock"
	"github.com/mcoot/rpsgame/internal/dependencies/random"
	"github.com/mcoot/rpsgame/internal/model"
	"github.com/mcoot/rpsgame/internal/protocol"
	"github.com/mcoot/rpsgame/internal/services/match"
	"github.com/mcoot/rpsgame/internal/services/ranking"
)

// MovePrompt asks a participant for a tournament move
const MovePrompt = "Enter your move (rock/paper/scissors): "

// Directory resolves a username to its live connection
type Directory interface {
	Lookup(username string) (protocol.Peer, bool)
}

// Ranker records ranking points
type Ranker interface {
	Increment(ctx context.Context, username string, amount int) (int, error)
}

// Observer is told when tournaments start and finish
type Observer interface {
	TournamentStarted(t model.Tournament)
	TournamentFinished(name, winner string)
}

// entry is an active tournament plus the channel its parked entrants wait on
type entry struct {
	t    *model.Tournament
	done chan struct{}
}

// Engine owns every active tournament: creation, enrolment, bracket
// generation and round execution. Bracket state is only touched under mu;
// move collection runs outside it.
type Engine struct {
	directory Directory
	rankings  Ranker
	observer  Observer // optional
	clock     clock.Clock
	random    random.Random
	logger    *slog.Logger

	mu      sync.Mutex
	entries []*entry // creation order
}

// NewEngine creates a new tournament Engine. observer may be nil.
func NewEngine(
	directory Directory,
	rankings Ranker,
	observer Observer,
	clock clock.Clock,
	random random.Random,
	logger *slog.Logger,
) *Engine {
	return &Engine{
		directory: directory,
		rankings:  rankings,
		observer:  observer,
		clock:     clock,
		random:    random,
		logger:    logger.With(slog.String("component", "tournament")),
	}
}

// Create opens a tournament with the creator as its only entrant
func (e *Engine) Create(name, creator string) (model.Tournament, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.Tournament{}, model.ErrInvalidTournament
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.find(name) != nil {
		return model.Tournament{}, model.ErrDuplicateTournament
	}

	t := &model.Tournament{
		Name:      name,
		Creator:   creator,
		Players:   []string{creator},
		CreatedAt: e.clock.Now(),
	}
	e.entries = append(e.entries, &entry{t: t, done: make(chan struct{})})

	e.logger.Info("tournament created",
		slog.String("tournament", name),
		slog.String("creator", creator),
	)
	return t.Clone(), nil
}

// Join enrols username. The returned channel is closed once the
// tournament finishes or is cancelled.
func (e *Engine) Join(name, username string) (<-chan struct{}, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ent := e.find(name)
	if ent == nil {
		return nil, model.ErrTournamentNotFound
	}
	if ent.t.HasPlayer(username) {
		return nil, model.ErrAlreadyJoined
	}
	if ent.t.InProgress {
		return nil, model.ErrAlreadyStarted
	}

	ent.t.Players = append(ent.t.Players, username)
	e.logger.Info("player joined tournament",
		slog.String("tournament", name),
		slog.String("username", username),
		slog.Int("player_count", len(ent.t.Players)),
	)
	return ent.done, nil
}

// Start marks the tournament in progress and generates round 1. Enrolment
// is closed under the same lock, so no join can race the shuffle.
func (e *Engine) Start(name, requester string) (model.Tournament, error) {
	started, err := e.start(name, requester)
	if err != nil {
		return model.Tournament{}, err
	}
	if e.observer != nil {
		e.observer.TournamentStarted(started)
	}
	return started, nil
}

func (e *Engine) start(name, requester string) (model.Tournament, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ent := e.find(name)
	if ent == nil {
		return model.Tournament{}, model.ErrTournamentNotFound
	}
	t := ent.t
	if t.Creator != requester {
		return model.Tournament{}, model.ErrNotCreator
	}
	if t.InProgress {
		return model.Tournament{}, model.ErrAlreadyStarted
	}
	if len(t.Players) < 2 {
		return model.Tournament{}, model.ErrInsufficientPlayers
	}

	random.Shuffle(e.random, t.Players)
	t.Pairs = PairUp(t.Players)
	t.Round = 1
	t.InProgress = true

	e.logger.Info("tournament started",
		slog.String("tournament", name),
		slog.Int("player_count", len(t.Players)),
		slog.Int("pair_count", len(t.Pairs)),
	)
	return t.Clone(), nil
}

// Run plays rounds until at most one entrant remains, then awards the
// winner and releases every parked entrant. It returns the winner, or ""
// when every match of the last round was voided.
func (e *Engine) Run(ctx context.Context, name string) (string, error) {
	e.mu.Lock()
	ent := e.find(name)
	if ent == nil || !ent.t.InProgress {
		e.mu.Unlock()
		return "", model.ErrTournamentNotFound
	}
	e.mu.Unlock()

	for {
		if err := ctx.Err(); err != nil {
			e.finish(ctx, ent, nil)
			return "", err
		}

		e.mu.Lock()
		pairs := append([]model.Pair(nil), ent.t.Pairs...)
		round := ent.t.Round
		e.mu.Unlock()

		winners := e.playRound(ctx, name, pairs)
		e.logger.Info("round finished",
			slog.String("tournament", name),
			slog.Int("round", round),
			slog.Int("winner_count", len(winners)),
		)

		// Prompts cut short by shutdown are not forfeits
		if err := ctx.Err(); err != nil {
			e.finish(ctx, ent, nil)
			return "", err
		}

		if len(winners) <= 1 {
			e.finish(ctx, ent, winners)
			if len(winners) == 0 {
				return "", nil
			}
			return winners[0], nil
		}

		e.mu.Lock()
		ent.t.Pairs = PairUp(winners)
		ent.t.Round++
		e.mu.Unlock()
	}
}

// playRound runs every pair concurrently; winners keep pair order
func (e *Engine) playRound(ctx context.Context, name string, pairs []model.Pair) []string {
	slots := make([]string, len(pairs))
	var g errgroup.Group
	for i, p := range pairs {
		g.Go(func() error {
			slots[i] = e.playPair(ctx, name, p)
			return nil
		})
	}
	_ = g.Wait()

	winners := make([]string, 0, len(slots))
	for _, w := range slots {
		if w != "" {
			winners = append(winners, w)
		}
	}
	return winners
}

// playPair returns the entrant that advances from p, or "" if none does
func (e *Engine) playPair(ctx context.Context, name string, p model.Pair) string {
	if p.IsBye() {
		e.notify(p.First, "You have a bye this round and advance automatically.\n")
		return p.First
	}

	first, firstOK := e.directory.Lookup(p.First)
	second, secondOK := e.directory.Lookup(p.Second)
	switch {
	case !firstOK && !secondOK:
		return ""
	case !firstOK:
		_ = second.Send(fmt.Sprintf("%s is not connected. You advance.\n", p.First))
		return p.Second
	case !secondOK:
		_ = first.Send(fmt.Sprintf("%s is not connected. You advance.\n", p.Second))
		return p.First
	}

	_ = first.Send(fmt.Sprintf("Tournament match against %s\n", p.Second))
	_ = second.Send(fmt.Sprintf("Tournament match against %s\n", p.First))

	moves := match.CollectEach(ctx, first, second, MovePrompt)
	switch {
	case moves.FirstErr != nil && moves.SecondErr != nil:
		return ""
	case moves.FirstErr != nil:
		_ = second.Send(fmt.Sprintf("%s forfeited. You advance.\n", p.First))
		return p.Second
	case moves.SecondErr != nil:
		_ = first.Send(fmt.Sprintf("%s forfeited. You advance.\n", p.Second))
		return p.First
	}

	winner, message := Decide(p, normalise(moves.First), normalise(moves.Second))
	_ = first.Send(message)
	_ = second.Send(message)

	e.logger.Info("tournament match finished",
		slog.String("tournament", name),
		slog.String("first", p.First),
		slog.String("second", p.Second),
		slog.String("winner", winner),
	)
	return winner
}

// Decide applies the tournament rule to one exchange: a draw advances the
// first-listed entrant and an invalid move voids the match.
func Decide(p model.Pair, first, second model.Move) (winner, message string) {
	outcome := match.Resolve(first, second)
	switch outcome.Result {
	case model.ResultInvalid:
		return "", "Invalid move. Match voided.\n"
	case model.ResultDraw:
		return p.First, fmt.Sprintf("Draw! %s advances by default.\n", p.First)
	case model.ResultFirstWins:
		return p.First, fmt.Sprintf("%s wins with %s!\n", p.First, first)
	default:
		return p.Second, fmt.Sprintf("%s wins with %s!\n", p.Second, second)
	}
}

func normalise(reply string) model.Move {
	return model.Move(strings.ToLower(strings.TrimSpace(reply)))
}

// finish removes the tournament, awards and announces the winner if there
// is one, then releases parked entrants.
func (e *Engine) finish(ctx context.Context, ent *entry, winners []string) {
	e.mu.Lock()
	e.remove(ent)
	players := append([]string(nil), ent.t.Players...)
	name := ent.t.Name
	e.mu.Unlock()

	var message, winner string
	if len(winners) == 1 {
		winner = winners[0]
		if _, err := e.rankings.Increment(ctx, winner, ranking.TournamentWinPoints); err != nil {
			e.logger.Error("failed to record tournament win",
				slog.String("tournament", name),
				slog.String("username", winner),
				slog.String("error", err.Error()),
			)
		}
		message = fmt.Sprintf("Tournament '%s' finished! Winner: %s\n", name, winner)
		e.logger.Info("tournament finished",
			slog.String("tournament", name),
			slog.String("winner", winner),
		)
	} else {
		message = fmt.Sprintf("Tournament '%s' finished without a winner.\n", name)
		e.logger.Info("tournament finished without winner", slog.String("tournament", name))
	}

	for _, p := range players {
		e.notify(p, message)
	}
	if e.observer != nil {
		e.observer.TournamentFinished(name, winner)
	}
	close(ent.done)
}

// Leave withdraws username from every tournament that has not started.
// A creator leaving cancels the tournament and releases its entrants.
func (e *Engine) Leave(username string) {
	var cancelled []*entry

	e.mu.Lock()
	kept := e.entries[:0]
	for _, ent := range e.entries {
		t := ent.t
		switch {
		case t.InProgress:
			kept = append(kept, ent)
		case t.Creator == username:
			cancelled = append(cancelled, ent)
		default:
			for i, p := range t.Players {
				if p == username {
					t.Players = append(t.Players[:i], t.Players[i+1:]...)
					break
				}
			}
			kept = append(kept, ent)
		}
	}
	for i := len(kept); i < len(e.entries); i++ {
		e.entries[i] = nil
	}
	e.entries = kept
	e.mu.Unlock()

	for _, ent := range cancelled {
		e.logger.Info("tournament cancelled",
			slog.String("tournament", ent.t.Name),
			slog.String("creator", username),
		)
		message := fmt.Sprintf("Tournament '%s' was cancelled because its creator left.\n", ent.t.Name)
		for _, p := range ent.t.Players {
			if p != username {
				e.notify(p, message)
			}
		}
		close(ent.done)
	}
}

// List returns copies of every active tournament in creation order
func (e *Engine) List() []model.Tournament {
	return e.filter(func(*model.Tournament) bool { return true })
}

// Get returns a copy of the named tournament
func (e *Engine) Get(name string) (model.Tournament, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	ent := e.find(name)
	if ent == nil {
		return model.Tournament{}, model.ErrTournamentNotFound
	}
	return ent.t.Clone(), nil
}

// Joinable returns the tournaments still accepting entrants
func (e *Engine) Joinable() []model.Tournament {
	return e.filter(func(t *model.Tournament) bool { return !t.InProgress })
}

// Startable returns requester's tournaments that can be started now
func (e *Engine) Startable(requester string) []model.Tournament {
	return e.filter(func(t *model.Tournament) bool {
		return t.Creator == requester && !t.InProgress && len(t.Players) >= 2
	})
}

func (e *Engine) filter(keep func(*model.Tournament) bool) []model.Tournament {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]model.Tournament, 0, len(e.entries))
	for _, ent := range e.entries {
		if keep(ent.t) {
			out = append(out, ent.t.Clone())
		}
	}
	return out
}

func (e *Engine) notify(username, message string) {
	if peer, ok := e.directory.Lookup(username); ok {
		_ = peer.Send(message)
	}
}

// find must be called with mu held
func (e *Engine) find(name string) *entry {
	for _, ent := range e.entries {
		if ent.t.Name == name {
			return ent
		}
	}
	return nil
}

// remove must be called with mu held
func (e *Engine) remove(target *entry) {
	for i, ent := range e.entries {
		if ent == target {
			e.entries = append(e.entries[:i], e.entries[i+1:]...)
			return
		}
	}
}

// PairUp pairs entrants consecutively. An odd entrant out gets a bye.
func PairUp(players []string) []model.Pair {
	pairs := make([]model.Pair, 0, (len(players)+1)/2)
	for i := 0; i < len(players); i += 2 {
		p := model.Pair{First: players[i]}
		if i+1 < len(players) {
			p.Second = players[i+1]
		}
		pairs = append(pairs, p)
	}
	return pairs
}
