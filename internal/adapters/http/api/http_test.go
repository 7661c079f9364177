package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/mooot/league/internal/adapters/http/api"
	"github.com/mooot/league/internal/adapters/repository"
	service "github.com/mooot/league/internal/app"
	"github.com/mooot/league/internal/domain/model"
	"github.com/mooot/league/internal/domain/ranking"
	"github.com/mooot/league/internal/domain/types"
	"github.com/mooot/league/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

// mockLeague records calls and returns canned results.
type mockLeague struct {
	mu        sync.Mutex
	submitted []model.GameRecord
	submitErr error
	rankErr   error
	closeErr  error
	closedAt  time.Time
	ranking   []model.LeaderboardEntry
	awards    []model.AwardRecord
	chars     []model.Character
	announced []int64
}

func (m *mockLeague) Submit(_ context.Context, rec model.GameRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.submitErr != nil {
		return m.submitErr
	}
	m.submitted = append(m.submitted, rec)
	return nil
}

func (m *mockLeague) Ranking(_ context.Context, _ int64, _ model.Period) ([]model.LeaderboardEntry, error) {
	return m.ranking, m.rankErr
}

func (m *mockLeague) GlobalTop(_ context.Context, n int) ([]model.LeaderboardEntry, error) {
	if n > len(m.ranking) {
		return m.ranking, nil
	}
	return m.ranking[:n], nil
}

func (m *mockLeague) CloseMonth(_ context.Context, chatID int64, now time.Time) (service.CloseResult, error) {
	m.closedAt = now
	if m.closeErr != nil {
		return service.CloseResult{}, m.closeErr
	}
	return service.CloseResult{
		ChatID:     chatID,
		RunID:      "run-1",
		PeriodCode: int(now.Month()),
		Ranking:    m.ranking,
		Grants:     []model.AwardGrant{{ChatID: chatID, Player: model.Human(1), TrophyID: int(now.Month()) * 10}},
	}, nil
}

func (m *mockLeague) Awards(_ context.Context, chatID int64) ([]model.AwardRecord, error) {
	if chatID == 404 {
		return nil, service.ErrUnknownChat
	}
	return m.awards, nil
}

func (m *mockLeague) AnnounceAwards(ctx context.Context, chatID int64) ([]model.AwardRecord, error) {
	records, err := m.Awards(ctx, chatID)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.announced = append(m.announced, chatID)
	m.mu.Unlock()
	return records, nil
}

func (m *mockLeague) AddCharacter(_ context.Context, c model.Character) (model.Character, error) {
	if strings.TrimSpace(c.Name) == "" {
		return model.Character{}, repository.ErrInvalidCharacter
	}
	if c.ID == 0 {
		c.ID = int64(len(m.chars) + 1)
	}
	m.chars = append(m.chars, c)
	return c, nil
}

func (m *mockLeague) Characters(_ context.Context, _ int64) ([]model.Character, error) {
	return m.chars, nil
}

func (m *mockLeague) PlayCharacters(_ context.Context, chatID int64, now time.Time) ([]model.GameRecord, error) {
	out := make([]model.GameRecord, 0, len(m.chars))
	for _, c := range m.chars {
		out = append(out, model.GameRecord{ChatID: chatID, Player: model.CharacterID(c.ID), PlayerName: c.Name, Points: 3, RecordedAt: now})
	}
	return out, nil
}

func (m *mockLeague) GetStats() map[string]any {
	return map[string]any{"started": true}
}

var fixedNow = time.Date(2024, time.March, 31, 21, 0, 0, 0, time.UTC)

func newTestServer(m *mockLeague) http.Handler {
	return api.NewServer(m, api.WithClock(func() time.Time { return fixedNow }), api.WithMaxLimit(50)).Router()
}

func do(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func errorCode(rr *httptest.ResponseRecorder) string {
	var resp struct {
		Code string `json:"code"`
	}
	_ = json.Unmarshal(rr.Body.Bytes(), &resp)
	return resp.Code
}

func TestPlays(t *testing.T) {
	Convey("Given the API over a mock league", t, func() {
		m := &mockLeague{}
		h := newTestServer(m)

		Convey("When a play with explicit points is posted", func() {
			rr := do(h, http.MethodPost, "/chats/-100/plays",
				`{"player_id": 7, "player_name": "Ana", "points": 5, "elapsed_seconds": 40, "recorded_at": "2024-03-02T10:00:00Z"}`)

			Convey("Then it is accepted and submitted", func() {
				So(rr.Code, ShouldEqual, http.StatusAccepted)
				So(len(m.submitted), ShouldEqual, 1)
				rec := m.submitted[0]
				So(rec.ChatID, ShouldEqual, -100)
				So(rec.Player, ShouldResemble, model.Human(7))
				So(rec.Points, ShouldEqual, 5)
				So(rec.RecordedAt, ShouldEqual, time.Date(2024, time.March, 2, 10, 0, 0, 0, time.UTC))
			})
		})

		Convey("When a shared result is posted", func() {
			rr := do(h, http.MethodPost, "/chats/-100/plays",
				`{"player_id": 7, "player_name": "Ana", "share": "mooot 123\n🎯3/6\n⏱00:01:05"}`)

			Convey("Then points and time come from the share", func() {
				So(rr.Code, ShouldEqual, http.StatusAccepted)
				So(m.submitted[0].Points, ShouldEqual, 4)
				So(m.submitted[0].ElapsedSeconds, ShouldEqual, 65)
			})
		})

		Convey("When the body is unusable", func() {
			cases := []string{
				`{"player_id": 7`,
				`{"player_id": 7, "player_name": "Ana"}`,
				`{"player_id": 7, "player_name": "Ana", "share": "hello"}`,
				`{"player_kind": "robot", "player_id": 7, "player_name": "Ana", "points": 1}`,
				`{"player_id": 7, "player_name": "Ana", "points": 1, "recorded_at": "yesterday"}`,
			}
			for _, body := range cases {
				rr := do(h, http.MethodPost, "/chats/-100/plays", body)
				So(rr.Code, ShouldEqual, http.StatusBadRequest)
				So(errorCode(rr), ShouldEqual, "bad_request")
			}
			So(m.submitted, ShouldBeEmpty)
		})

		Convey("When the chat id is not a number", func() {
			rr := do(h, http.MethodPost, "/chats/abc/plays", `{}`)
			So(rr.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the league is under backpressure", func() {
			m.submitErr = service.ErrBackpressure
			rr := do(h, http.MethodPost, "/chats/-100/plays", `{"player_id": 7, "player_name": "Ana", "points": 1}`)
			So(rr.Code, ShouldEqual, http.StatusTooManyRequests)
			So(errorCode(rr), ShouldEqual, "backpressure")
		})

		Convey("When the play fails validation in the service", func() {
			m.submitErr = fmt.Errorf("%w: player name is required", repository.ErrInvalidRecord)
			rr := do(h, http.MethodPost, "/chats/-100/plays", `{"player_id": 7, "player_name": "", "points": 1}`)
			So(rr.Code, ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestRanking(t *testing.T) {
	Convey("Given a league with a ranking", t, func() {
		m := &mockLeague{ranking: []model.LeaderboardEntry{
			{Player: model.Human(1), PlayerName: "Ana", TotalPoints: 11},
			{Player: model.CharacterID(2), PlayerName: "Robo", TotalPoints: 6},
		}}
		h := newTestServer(m)

		Convey("When the month ranking is requested", func() {
			rr := do(h, http.MethodGet, "/chats/-100/ranking", "")
			var resp struct {
				Period  string        `json:"period"`
				Entries []types.Entry `json:"entries"`
			}
			So(json.Unmarshal(rr.Body.Bytes(), &resp), ShouldBeNil)

			Convey("Then ranked rows are returned", func() {
				So(rr.Code, ShouldEqual, http.StatusOK)
				So(resp.Period, ShouldEqual, "month")
				So(len(resp.Entries), ShouldEqual, 2)
				So(resp.Entries[1].Rank, ShouldEqual, 2)
				So(resp.Entries[1].PlayerKind, ShouldEqual, "character")
			})
		})

		Convey("When an unknown period is requested", func() {
			rr := do(h, http.MethodGet, "/chats/-100/ranking?period=year", "")
			So(rr.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the batch is invalid", func() {
			m.rankErr = fmt.Errorf("%w: record 3", ranking.ErrInvalidRecordBatch)
			rr := do(h, http.MethodGet, "/chats/-100/ranking?period=all", "")
			So(rr.Code, ShouldEqual, http.StatusUnprocessableEntity)
			So(errorCode(rr), ShouldEqual, "invalid_record_batch")
		})

		Convey("When the global top is requested", func() {
			rr := do(h, http.MethodGet, "/top?limit=1", "")
			var entries []types.Entry
			So(json.Unmarshal(rr.Body.Bytes(), &entries), ShouldBeNil)
			So(rr.Code, ShouldEqual, http.StatusOK)
			So(len(entries), ShouldEqual, 1)
		})

		Convey("When the limit is out of range", func() {
			So(do(h, http.MethodGet, "/top?limit=0", "").Code, ShouldEqual, http.StatusBadRequest)
			So(do(h, http.MethodGet, "/top?limit=51", "").Code, ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestLeague(t *testing.T) {
	Convey("Given a league ready to close", t, func() {
		m := &mockLeague{ranking: []model.LeaderboardEntry{{Player: model.Human(1), PlayerName: "Ana", TotalPoints: 11}}}
		h := newTestServer(m)

		Convey("When a chat is closed without a time", func() {
			rr := do(h, http.MethodPost, "/chats/-100/close", "")
			var resp struct {
				RunID  string        `json:"run_id"`
				Grants []types.Grant `json:"grants"`
			}
			So(json.Unmarshal(rr.Body.Bytes(), &resp), ShouldBeNil)

			Convey("Then the server clock is used and grants are returned", func() {
				So(rr.Code, ShouldEqual, http.StatusOK)
				So(m.closedAt, ShouldEqual, fixedNow)
				So(resp.RunID, ShouldEqual, "run-1")
				So(resp.Grants[0].TrophyID, ShouldEqual, 30)
				So(resp.Grants[0].Tier, ShouldEqual, 0)
			})
		})

		Convey("When a chat is closed at an explicit time", func() {
			rr := do(h, http.MethodPost, "/chats/-100/close?at=2024-04-30T21:00:00Z", "")
			So(rr.Code, ShouldEqual, http.StatusOK)
			So(m.closedAt.Month(), ShouldEqual, time.April)
			So(do(h, http.MethodPost, "/chats/-100/close?at=soon", "").Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the month was already closed", func() {
			m.closeErr = fmt.Errorf("%w: league:close:-100:2024:3", service.ErrPeriodClosed)
			rr := do(h, http.MethodPost, "/chats/-100/close", "")
			So(rr.Code, ShouldEqual, http.StatusConflict)
			So(errorCode(rr), ShouldEqual, "period_closed")
		})

		Convey("When awards of an unknown chat are listed", func() {
			So(do(h, http.MethodGet, "/chats/404/awards", "").Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("When awards are listed", func() {
			m.awards = []model.AwardRecord{{AwardGrant: model.AwardGrant{ChatID: -100, Player: model.Human(1), TrophyID: 30}, PlayerName: "Ana", RunID: "run-1"}}
			rr := do(h, http.MethodGet, "/chats/-100/awards", "")
			var awards []types.Award
			So(json.Unmarshal(rr.Body.Bytes(), &awards), ShouldBeNil)
			So(awards[0].Name, ShouldEqual, "Ana")
			So(awards[0].PeriodCode, ShouldEqual, 3)
		})

		Convey("When the trophy cabinet is announced", func() {
			m.awards = []model.AwardRecord{{AwardGrant: model.AwardGrant{ChatID: -100, Player: model.Human(1), TrophyID: 31}, PlayerName: "Ana", RunID: "run-1"}}
			rr := do(h, http.MethodPost, "/chats/-100/awards/announce", "")
			var awards []types.Award
			So(json.Unmarshal(rr.Body.Bytes(), &awards), ShouldBeNil)
			So(rr.Code, ShouldEqual, http.StatusOK)
			So(len(awards), ShouldEqual, 1)
			So(m.announced, ShouldResemble, []int64{-100})
			So(do(h, http.MethodPost, "/chats/404/awards/announce", "").Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("When a character is created and plays", func() {
			rr := do(h, http.MethodPost, "/chats/-100/characters", `{"name": "Robo", "ability": 7}`)
			So(rr.Code, ShouldEqual, http.StatusCreated)

			rr = do(h, http.MethodPost, "/chats/-100/characters/play", "")
			var plays []types.Play
			So(json.Unmarshal(rr.Body.Bytes(), &plays), ShouldBeNil)

			Convey("Then the play is reported under the character", func() {
				So(rr.Code, ShouldEqual, http.StatusOK)
				So(len(plays), ShouldEqual, 1)
				So(plays[0].PlayerKind, ShouldEqual, "character")
				So(plays[0].RecordedAt, ShouldEqual, fixedNow)
			})

			Convey("Then it is listed", func() {
				rr := do(h, http.MethodGet, "/chats/-100/characters", "")
				So(rr.Body.String(), ShouldContainSubstring, `"name":"Robo"`)
			})
		})

		Convey("When an invalid character is posted", func() {
			So(do(h, http.MethodPost, "/chats/-100/characters", `{"name": " "}`).Code, ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestCharactersStayInTheirChat(t *testing.T) {
	Convey("Given the API over a memory-backed service", t, func() {
		svc := service.New(service.WithLocation(time.UTC))
		h := api.NewServer(svc, api.WithClock(func() time.Time { return fixedNow })).Router()

		rr := do(h, http.MethodPost, "/chats/1/characters", `{"name": "Robo", "ability": 4}`)
		So(rr.Code, ShouldEqual, http.StatusCreated)
		var created types.Character
		So(json.Unmarshal(rr.Body.Bytes(), &created), ShouldBeNil)

		Convey("When another chat posts an update for that character", func() {
			body := fmt.Sprintf(`{"id": %d, "name": "Stolen", "ability": 10}`, created.ID)
			rr := do(h, http.MethodPost, "/chats/2/characters", body)

			Convey("Then it is not found and the owner keeps it", func() {
				So(rr.Code, ShouldEqual, http.StatusNotFound)
				So(do(h, http.MethodGet, "/chats/1/characters", "").Body.String(), ShouldContainSubstring, `"name":"Robo"`)
				So(do(h, http.MethodGet, "/chats/2/characters", "").Body.String(), ShouldNotContainSubstring, "Stolen")
			})
		})

		Convey("When the owning chat updates it", func() {
			body := fmt.Sprintf(`{"id": %d, "name": "Robo", "ability": 9}`, created.ID)
			So(do(h, http.MethodPost, "/chats/1/characters", body).Code, ShouldEqual, http.StatusOK)
		})
	})
}

func TestOperationalRoutes(t *testing.T) {
	Convey("Given the API", t, func() {
		h := newTestServer(&mockLeague{})

		Convey("Then health, stats and metrics respond", func() {
			So(do(h, http.MethodGet, "/healthz", "").Body.String(), ShouldContainSubstring, `"status":"ok"`)
			So(do(h, http.MethodGet, "/stats", "").Body.String(), ShouldContainSubstring, `"started":true`)

			do(h, http.MethodGet, "/chats/-100/ranking", "")
			rr := do(h, http.MethodGet, "/metrics", "")
			So(rr.Code, ShouldEqual, http.StatusOK)
			So(rr.Body.String(), ShouldContainSubstring, `route="/chats/{chatID}/ranking"`)
		})

		Convey("Then unknown routes and methods are rejected", func() {
			So(do(h, http.MethodGet, "/nope", "").Code, ShouldEqual, http.StatusNotFound)
			So(do(h, http.MethodGet, "/chats/-100/close", "").Code, ShouldEqual, http.StatusMethodNotAllowed)
		})
	})
}

func TestStatusMapping(t *testing.T) {
	Convey("Given errors from the service", t, func() {
		m := &mockLeague{}
		h := newTestServer(m)
		cases := []struct {
			err    error
			status int
		}{
			{service.ErrNotStarted, http.StatusServiceUnavailable},
			{errors.New("database is down"), http.StatusInternalServerError},
		}
		for _, c := range cases {
			m.submitErr = c.err
			rr := do(h, http.MethodPost, "/chats/-100/plays", `{"player_id": 7, "player_name": "Ana", "points": 1}`)
			So(rr.Code, ShouldEqual, c.status)
		}
	})
}
