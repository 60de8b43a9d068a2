package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
	w      io.Writer
}

// NewOutput creates a new Output formatter writing to w
func NewOutput(format string, w io.Writer) *Output {
	return &Output{format: format, w: w}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintError outputs an error
func (o *Output) PrintError(err error) {
	if o.format == "json" {
		errData := map[string]any{
			"error": map[string]string{
				"message": err.Error(),
			},
		}
		data, _ := json.Marshal(errData)
		_, _ = fmt.Fprintln(o.w, string(data))
	} else {
		_, _ = fmt.Fprintf(o.w, "Error: %s\n", err)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.w)
	if _, stream := data.(Event); !stream {
		enc.SetIndent("", "  ")
	}
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case Rankings:
		o.printRankings(v)
	case Tournaments:
		o.printTournaments(v)
	case Tournament:
		o.printTournament(v)
	case OnlinePlayers:
		o.printOnline(v)
	case Player:
		o.printPlayer(v)
	case HealthResult:
		o.printHealthResult(v)
	case Event:
		o.printf("%s %s\n", v.Name, v.Data)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// Score response type (matches API)
type Score struct {
	Username string `json:"username"`
	Score    int    `json:"score"`
}

// Rankings is the ordered leaderboard
type Rankings []Score

// Tournament response type
type Tournament struct {
	Name       string    `json:"name"`
	Creator    string    `json:"creator"`
	Players    []string  `json:"players"`
	InProgress bool      `json:"in_progress"`
	Round      int       `json:"round"`
	CreatedAt  time.Time `json:"created_at"`
}

// Tournaments lists active tournaments
type Tournaments []Tournament

// OnlinePlayers response type
type OnlinePlayers struct {
	Players []string `json:"players"`
}

// Player response type
type Player struct {
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at,omitzero"`
	Score     int       `json:"score"`
	Online    bool      `json:"online"`
}

// HealthResult response type
type HealthResult struct {
	Status string `json:"status"`
}

func (o *Output) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(o.w, format, args...)
}

func (o *Output) printRankings(r Rankings) {
	if len(r) == 0 {
		o.printf("No rankings available yet.\n")
		return
	}
	o.printf("Player Rankings:\n")
	for i, s := range r {
		o.printf("%d. %s: %d points\n", i+1, s.Username, s.Score)
	}
}

func (o *Output) printTournaments(ts Tournaments) {
	if len(ts) == 0 {
		o.printf("No active tournaments.\n")
		return
	}
	for _, t := range ts {
		o.printf("%s (Creator: %s, Players: %d, %s)\n", t.Name, t.Creator, len(t.Players), tournamentStatus(t))
	}
}

func (o *Output) printTournament(t Tournament) {
	o.printf("Tournament: %s\n", t.Name)
	o.printf("Creator: %s\n", t.Creator)
	o.printf("Status: %s\n", tournamentStatus(t))
	o.printf("Players (%d): %s\n", len(t.Players), strings.Join(t.Players, ", "))
}

func tournamentStatus(t Tournament) string {
	if t.InProgress {
		return fmt.Sprintf("round %d", t.Round)
	}
	return "waiting"
}

func (o *Output) printOnline(p OnlinePlayers) {
	if len(p.Players) == 0 {
		o.printf("No players online.\n")
		return
	}
	o.printf("Online (%d): %s\n", len(p.Players), strings.Join(p.Players, ", "))
}

func (o *Output) printPlayer(p Player) {
	online := "no"
	if p.Online {
		online = "yes"
	}
	o.printf("Player: %s\n", p.Username)
	o.printf("Score: %d\n", p.Score)
	o.printf("Online: %s\n", online)
	if !p.CreatedAt.IsZero() {
		o.printf("Registered: %s\n", p.CreatedAt.Format(time.RFC3339))
	}
}

func (o *Output) printHealthResult(h HealthResult) {
	o.printf("Status: %s\n", h.Status)
}
