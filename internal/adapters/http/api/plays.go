package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/mooot/league/internal/domain/model"
	"github.com/mooot/league/internal/domain/scoring"
)

// PlayDependencies defines what the plays handler needs.
type PlayDependencies interface {
	// Submit queues a play for persistence. Returns ErrBackpressure when
	// the queue is full.
	Submit(ctx context.Context, rec model.GameRecord) error
}

// playRequest carries either explicit points or a shared result text.
type playRequest struct {
	PlayerKind     string `json:"player_kind"`
	PlayerID       int64  `json:"player_id"`
	PlayerName     string `json:"player_name"`
	Points         *int   `json:"points"`
	ElapsedSeconds int    `json:"elapsed_seconds"`
	RecordedAt     string `json:"recorded_at"`
	Share          string `json:"share"`
}

func (p playRequest) record(chatID int64) (model.GameRecord, error) {
	kind := p.PlayerKind
	if kind == "" {
		kind = model.KindHuman.String()
	}
	k, err := model.ParsePlayerKind(kind)
	if err != nil {
		return model.GameRecord{}, err
	}
	rec := model.GameRecord{
		ChatID:         chatID,
		Player:         model.PlayerID{Kind: k, ID: p.PlayerID},
		PlayerName:     strings.TrimSpace(p.PlayerName),
		ElapsedSeconds: p.ElapsedSeconds,
	}
	switch {
	case strings.TrimSpace(p.Share) != "":
		if rec.Points, rec.ElapsedSeconds, err = scoring.ParseShare(p.Share); err != nil {
			return model.GameRecord{}, err
		}
	case p.Points != nil:
		rec.Points = *p.Points
	default:
		return model.GameRecord{}, badRequest("either points or share is required")
	}
	if p.RecordedAt != "" {
		if rec.RecordedAt, err = time.Parse(time.RFC3339, p.RecordedAt); err != nil {
			return model.GameRecord{}, badRequest("invalid recorded_at; must be RFC3339")
		}
	}
	return rec, nil
}

type ackResponse struct {
	Status string `json:"status"`
	Points int    `json:"points"`
}

// PlaysHandler accepts plays.
type PlaysHandler struct {
	deps PlayDependencies
}

// NewPlaysHandler creates a new plays handler.
func NewPlaysHandler(deps PlayDependencies) *PlaysHandler {
	return &PlaysHandler{deps: deps}
}

// HandlePostPlay handles POST /chats/{chatID}/plays.
func (h *PlaysHandler) HandlePostPlay(w http.ResponseWriter, r *http.Request) {
	id, err := chatID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req playRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, badRequest("decode body: %v", err))
		return
	}
	rec, err := req.record(id)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.deps.Submit(r.Context(), rec); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted", Points: rec.Points})
}
