// Package api exposes the league over HTTP.
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	service "github.com/mooot/league/internal/app"
	"github.com/mooot/league/pkg/metrics"
)

const defaultMaxLimit = 100

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to the service implementation.
type Dependencies interface {
	PlayDependencies
	RankingDependencies
	LeagueDependencies
	StatsProvider
}

// Server wires HTTP routes for the league API.
type Server struct {
	healthHandler  *HealthHandler
	statsHandler   *StatsHandler
	playsHandler   *PlaysHandler
	rankingHandler *RankingHandler
	leagueHandler  *LeagueHandler
}

// Option configures a Server.
type Option func(*serverOptions)

type serverOptions struct {
	now      func() time.Time
	maxLimit int
}

// WithClock overrides the time used for closes and character plays.
func WithClock(now func() time.Time) Option {
	return func(o *serverOptions) {
		if now != nil {
			o.now = now
		}
	}
}

// WithMaxLimit caps the size of the global top.
func WithMaxLimit(n int) Option {
	return func(o *serverOptions) {
		if n > 0 {
			o.maxLimit = n
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, opts ...Option) *Server {
	o := serverOptions{now: time.Now, maxLimit: defaultMaxLimit}
	for _, opt := range opts {
		opt(&o)
	}
	return &Server{
		healthHandler:  NewHealthHandler(),
		statsHandler:   NewStatsHandler(deps),
		playsHandler:   NewPlaysHandler(deps),
		rankingHandler: NewRankingHandler(deps, o.maxLimit),
		leagueHandler:  NewLeagueHandler(deps, o.now),
	}
}

// Router builds the chi router with every route attached.
func (s *Server) Router() *chi.Mux {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(MetricsMiddleware)

	r.Get("/healthz", s.healthHandler.HandleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}))
	r.Get("/stats", s.statsHandler.HandleStats)
	r.Get("/top", s.rankingHandler.HandleGetTop)

	r.Route("/chats/{chatID}", func(r chi.Router) {
		r.Post("/plays", s.playsHandler.HandlePostPlay)
		r.Get("/ranking", s.rankingHandler.HandleGetRanking)
		r.Post("/close", s.leagueHandler.HandleClose)
		r.Get("/awards", s.leagueHandler.HandleGetAwards)
		r.Post("/awards/announce", s.leagueHandler.HandleAnnounceAwards)
		r.Get("/characters", s.leagueHandler.HandleGetCharacters)
		r.Post("/characters", s.leagueHandler.HandlePostCharacter)
		r.Post("/characters/play", s.leagueHandler.HandlePlayCharacters)
	})
	return r
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	status, code := statusFor(err)
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

func badRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrBadRequest, fmt.Sprintf(format, args...))
}

// chatID reads the {chatID} path parameter.
func chatID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "chatID")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, badRequest("invalid chat id %q", raw)
	}
	return id, nil
}

// at reads the optional RFC3339 "at" query parameter, falling back to now.
func at(r *http.Request, now func() time.Time) (time.Time, error) {
	raw := r.URL.Query().Get("at")
	if raw == "" {
		return now(), nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, badRequest("invalid at; must be RFC3339")
	}
	return t, nil
}

// Compile-time check that the service satisfies the handler dependencies.
var _ Dependencies = (*service.Service)(nil)
