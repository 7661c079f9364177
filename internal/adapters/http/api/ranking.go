package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/mooot/league/internal/domain/model"
	"github.com/mooot/league/internal/domain/types"
)

const defaultTopLimit = 10

// RankingDependencies defines the read side of leaderboards.
type RankingDependencies interface {
	Ranking(ctx context.Context, chatID int64, period model.Period) ([]model.LeaderboardEntry, error)
	GlobalTop(ctx context.Context, n int) ([]model.LeaderboardEntry, error)
}

type rankingResponse struct {
	ChatID  int64         `json:"chat_id"`
	Period  string        `json:"period"`
	Entries []types.Entry `json:"entries"`
}

// RankingHandler serves chat rankings and the global top.
type RankingHandler struct {
	deps     RankingDependencies
	maxLimit int
}

// NewRankingHandler creates a new ranking handler.
func NewRankingHandler(deps RankingDependencies, maxLimit int) *RankingHandler {
	return &RankingHandler{deps: deps, maxLimit: maxLimit}
}

// HandleGetRanking handles GET /chats/{chatID}/ranking?period=month|day|all.
func (h *RankingHandler) HandleGetRanking(w http.ResponseWriter, r *http.Request) {
	id, err := chatID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	period, err := model.ParsePeriod(r.URL.Query().Get("period"))
	if err != nil {
		writeError(w, err)
		return
	}
	entries, err := h.deps.Ranking(r.Context(), id, period)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rankingResponse{ChatID: id, Period: string(period), Entries: types.Entries(entries)})
}

// HandleGetTop handles GET /top?limit=N.
func (h *RankingHandler) HandleGetTop(w http.ResponseWriter, r *http.Request) {
	n := defaultTopLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			writeError(w, badRequest("invalid limit %q", raw))
			return
		}
		if v > h.maxLimit {
			writeError(w, badRequest("limit exceeds %d", h.maxLimit))
			return
		}
		n = v
	}
	entries, err := h.deps.GlobalTop(r.Context(), n)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, types.Entries(entries))
}
