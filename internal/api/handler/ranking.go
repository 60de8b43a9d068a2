package handler

import (
	"net/http"
	"strconv"

	"github.com/mcoot/rpsgame/internal/api/apierr"
	"github.com/mcoot/rpsgame/internal/api/response"
	"github.com/mcoot/rpsgame/internal/services/ranking"
)

// RankingHandler serves the leaderboard
type RankingHandler struct {
	rankings *ranking.Service
}

// NewRankingHandler creates a new ranking handler
func NewRankingHandler(rankings *ranking.Service) *RankingHandler {
	return &RankingHandler{rankings: rankings}
}

// List handles GET /api/v1/rankings[?limit=N]
func (h *RankingHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			apierr.WriteError(w, apierr.NewInvalidRequestError("limit must be a positive integer"))
			return
		}
		limit = n
	}

	scores, err := h.rankings.Snapshot(r.Context())
	if err != nil {
		apierr.WriteError(w, err)
		return
	}
	if limit > 0 && len(scores) > limit {
		scores = scores[:limit]
	}

	response.JSON(w, http.StatusOK, response.ScoresFromModel(scores))
}
