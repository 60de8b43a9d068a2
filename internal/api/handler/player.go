package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/rpsgame/internal/api/apierr"
	"github.com/mcoot/rpsgame/internal/api/response"
	"github.com/mcoot/rpsgame/internal/services/auth"
	"github.com/mcoot/rpsgame/internal/services/ranking"
)

// PlayerHandler handles player-related endpoints
type PlayerHandler struct {
	directory *auth.Service
	rankings  *ranking.Service
}

// NewPlayerHandler creates a new player handler
func NewPlayerHandler(directory *auth.Service, rankings *ranking.Service) *PlayerHandler {
	return &PlayerHandler{
		directory: directory,
		rankings:  rankings,
	}
}

// Online handles GET /api/v1/players/online
func (h *PlayerHandler) Online(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, response.OnlinePlayers{Players: h.directory.Online()})
}

// Get handles GET /api/v1/players/{username}
func (h *PlayerHandler) Get(w http.ResponseWriter, r *http.Request) {
	username := mux.Vars(r)["username"]

	player, err := h.directory.GetPlayer(r.Context(), username)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	scores, err := h.rankings.Snapshot(r.Context())
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	resp := response.PlayerFromModel(player)
	for _, sc := range scores {
		if sc.Username == player.Username {
			resp.Score = sc.Score
			break
		}
	}
	_, resp.Online = h.directory.Lookup(player.Username)

	response.JSON(w, http.StatusOK, resp)
}
