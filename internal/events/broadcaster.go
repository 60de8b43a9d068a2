package events

import (
	"encoding/json"
	"log/slog"

	"github.com/mcoot/rpsgame/internal/model"
	"github.com/mcoot/rpsgame/internal/services/match"
	"github.com/mcoot/rpsgame/internal/services/tournament"
)

// Event names on the stream
const (
	EventMatchFinished      = "match-finished"
	EventTournamentStarted  = "tournament-started"
	EventTournamentFinished = "tournament-finished"
)

// MatchFinished is the payload of a match-finished event
type MatchFinished struct {
	First  string `json:"first"`
	Second string `json:"second"`
	Result string `json:"result"`
	Winner string `json:"winner,omitempty"`
}

// TournamentStarted is the payload of a tournament-started event
type TournamentStarted struct {
	Name    string   `json:"name"`
	Creator string   `json:"creator"`
	Players []string `json:"players"`
}

// TournamentFinished is the payload of a tournament-finished event.
// Winner is empty when the final round produced none.
type TournamentFinished struct {
	Name   string `json:"name"`
	Winner string `json:"winner,omitempty"`
}

// Broadcaster turns game outcomes into JSON events on the hub
type Broadcaster struct {
	hub    *Hub
	logger *slog.Logger
}

var (
	_ match.Observer      = (*Broadcaster)(nil)
	_ tournament.Observer = (*Broadcaster)(nil)
)

// NewBroadcaster creates a new Broadcaster
func NewBroadcaster(hub *Hub, logger *slog.Logger) *Broadcaster {
	return &Broadcaster{
		hub:    hub,
		logger: logger.With(slog.String("component", "events-broadcaster")),
	}
}

// MatchFinished publishes an ad-hoc match result
func (b *Broadcaster) MatchFinished(result *model.MatchResult) {
	b.publish(EventMatchFinished, MatchFinished{
		First:  result.First,
		Second: result.Second,
		Result: string(result.Outcome.Result),
		Winner: result.Winner,
	})
}

// TournamentStarted publishes the first-round line-up
func (b *Broadcaster) TournamentStarted(t model.Tournament) {
	b.publish(EventTournamentStarted, TournamentStarted{
		Name:    t.Name,
		Creator: t.Creator,
		Players: append([]string(nil), t.Players...),
	})
}

// TournamentFinished publishes a tournament's winner
func (b *Broadcaster) TournamentFinished(name, winner string) {
	b.publish(EventTournamentFinished, TournamentFinished{Name: name, Winner: winner})
}

func (b *Broadcaster) publish(eventName string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		b.logger.Error("failed to encode event",
			slog.String("event", eventName),
			slog.String("error", err.Error()))
		return
	}
	b.hub.BroadcastEvent(eventName, string(data))
}
