package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/rpsgame/internal/api/apierr"
	"github.com/mcoot/rpsgame/internal/api/response"
	"github.com/mcoot/rpsgame/internal/services/tournament"
)

// TournamentHandler exposes active tournaments
type TournamentHandler struct {
	tournaments *tournament.Engine
}

// NewTournamentHandler creates a new tournament handler
func NewTournamentHandler(tournaments *tournament.Engine) *TournamentHandler {
	return &TournamentHandler{tournaments: tournaments}
}

// List handles GET /api/v1/tournaments
func (h *TournamentHandler) List(w http.ResponseWriter, r *http.Request) {
	list := h.tournaments.List()

	out := make([]response.Tournament, len(list))
	for i := range list {
		out[i] = response.TournamentFromModel(&list[i])
	}
	response.JSON(w, http.StatusOK, out)
}

// Get handles GET /api/v1/tournaments/{name}
func (h *TournamentHandler) Get(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	t, err := h.tournaments.Get(name)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.TournamentFromModel(&t))
}
