package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	service "github.com/mooot/league/internal/app"
	"github.com/mooot/league/internal/domain/model"
	"github.com/mooot/league/internal/domain/types"
)

// LeagueDependencies defines month closing, awards and characters.
type LeagueDependencies interface {
	CloseMonth(ctx context.Context, chatID int64, now time.Time) (service.CloseResult, error)
	Awards(ctx context.Context, chatID int64) ([]model.AwardRecord, error)
	AnnounceAwards(ctx context.Context, chatID int64) ([]model.AwardRecord, error)
	AddCharacter(ctx context.Context, c model.Character) (model.Character, error)
	Characters(ctx context.Context, chatID int64) ([]model.Character, error)
	PlayCharacters(ctx context.Context, chatID int64, now time.Time) ([]model.GameRecord, error)
}

type closeResponse struct {
	ChatID     int64         `json:"chat_id"`
	RunID      string        `json:"run_id"`
	PeriodCode int           `json:"period_code"`
	Ranking    []types.Entry `json:"ranking"`
	Grants     []types.Grant `json:"grants"`
}

type characterRequest struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Ability int    `json:"ability"`
}

// LeagueHandler serves the month close, awards and characters.
type LeagueHandler struct {
	deps LeagueDependencies
	now  func() time.Time
}

// NewLeagueHandler creates a new league handler.
func NewLeagueHandler(deps LeagueDependencies, now func() time.Time) *LeagueHandler {
	return &LeagueHandler{deps: deps, now: now}
}

// HandleClose handles POST /chats/{chatID}/close[?at=RFC3339].
func (h *LeagueHandler) HandleClose(w http.ResponseWriter, r *http.Request) {
	id, err := chatID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	when, err := at(r, h.now)
	if err != nil {
		writeError(w, err)
		return
	}
	res, err := h.deps.CloseMonth(r.Context(), id, when)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, closeResponse{
		ChatID:     id,
		RunID:      res.RunID,
		PeriodCode: res.PeriodCode,
		Ranking:    types.Entries(res.Ranking),
		Grants:     types.Grants(res.Grants),
	})
}

// HandleGetAwards handles GET /chats/{chatID}/awards.
func (h *LeagueHandler) HandleGetAwards(w http.ResponseWriter, r *http.Request) {
	id, err := chatID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	records, err := h.deps.Awards(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, types.Awards(records))
}

// HandleAnnounceAwards handles POST /chats/{chatID}/awards/announce.
func (h *LeagueHandler) HandleAnnounceAwards(w http.ResponseWriter, r *http.Request) {
	id, err := chatID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	records, err := h.deps.AnnounceAwards(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, types.Awards(records))
}

// HandleGetCharacters handles GET /chats/{chatID}/characters.
func (h *LeagueHandler) HandleGetCharacters(w http.ResponseWriter, r *http.Request) {
	id, err := chatID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	characters, err := h.deps.Characters(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, types.Characters(characters))
}

// HandlePostCharacter handles POST /chats/{chatID}/characters.
func (h *LeagueHandler) HandlePostCharacter(w http.ResponseWriter, r *http.Request) {
	id, err := chatID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req characterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, badRequest("decode body: %v", err))
		return
	}
	c, err := h.deps.AddCharacter(r.Context(), model.Character{ID: req.ID, ChatID: id, Name: req.Name, Ability: req.Ability})
	if err != nil {
		writeError(w, err)
		return
	}
	status := http.StatusCreated
	if req.ID != 0 {
		status = http.StatusOK
	}
	writeJSON(w, status, types.Characters([]model.Character{c})[0])
}

// HandlePlayCharacters handles POST /chats/{chatID}/characters/play[?at=RFC3339].
func (h *LeagueHandler) HandlePlayCharacters(w http.ResponseWriter, r *http.Request) {
	id, err := chatID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	when, err := at(r, h.now)
	if err != nil {
		writeError(w, err)
		return
	}
	plays, err := h.deps.PlayCharacters(r.Context(), id, when)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, types.Plays(plays))
}
