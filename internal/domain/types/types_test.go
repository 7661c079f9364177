package types_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/mooot/league/internal/domain/model"
	types "github.com/mooot/league/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func TestEntries(t *testing.T) {
	Convey("Given a computed leaderboard", t, func() {
		ranking := []model.LeaderboardEntry{
			{Player: model.Human(1), PlayerName: "Anna", TotalPoints: 20},
			{Player: model.CharacterID(1), PlayerName: "Robot", TotalPoints: 12},
		}

		Convey("When it is converted to rows", func() {
			rows := types.Entries(ranking)

			Convey("Then ranks start at one and kinds are labelled", func() {
				So(rows, ShouldResemble, []types.Entry{
					{Rank: 1, PlayerKind: "human", PlayerID: 1, Name: "Anna", Points: 20},
					{Rank: 2, PlayerKind: "character", PlayerID: 1, Name: "Robot", Points: 12},
				})
			})

			Convey("Then the JSON uses snake case keys", func() {
				raw, err := json.Marshal(rows[0])
				So(err, ShouldBeNil)
				So(string(raw), ShouldEqual, `{"rank":1,"player_kind":"human","player_id":1,"name":"Anna","points":20}`)
			})
		})

		Convey("When the leaderboard is empty", func() {
			rows := types.Entries(nil)
			So(rows, ShouldNotBeNil)
			So(rows, ShouldBeEmpty)
		})
	})
}

func TestGrantsAndAwards(t *testing.T) {
	Convey("Given allocated grants", t, func() {
		grants := []model.AwardGrant{{ChatID: 5, Player: model.Human(3), TrophyID: 1012}}

		Convey("Then the trophy id is split into period and tier", func() {
			views := types.Grants(grants)
			So(views[0].PeriodCode, ShouldEqual, 101)
			So(views[0].Tier, ShouldEqual, 2)
			So(views[0].PlayerKind, ShouldEqual, "human")
		})

		Convey("Then persisted awards keep run metadata", func() {
			at := time.Date(2024, 10, 31, 21, 0, 0, 0, time.UTC)
			views := types.Awards([]model.AwardRecord{{AwardGrant: grants[0], PlayerName: "Carl", RunID: "run-1", GrantedAt: at}})
			So(views[0].Name, ShouldEqual, "Carl")
			So(views[0].RunID, ShouldEqual, "run-1")
			So(views[0].GrantedAt, ShouldEqual, at)
			So(views[0].TrophyID, ShouldEqual, 1012)
		})
	})
}

func TestPlaysAndCharacters(t *testing.T) {
	Convey("Given a character play", t, func() {
		at := time.Date(2024, 10, 2, 11, 0, 0, 0, time.UTC)
		rec := model.GameRecord{ChatID: 5, Player: model.CharacterID(9), PlayerName: "Robo", Points: 4, ElapsedSeconds: 95, RecordedAt: at}

		Convey("Then the play view names the character kind", func() {
			views := types.Plays([]model.GameRecord{rec})
			So(views[0].PlayerKind, ShouldEqual, "character")
			So(views[0].ElapsedSeconds, ShouldEqual, 95)
			So(views[0].RecordedAt, ShouldEqual, at)
		})

		Convey("Then characters keep id, name and ability", func() {
			views := types.Characters([]model.Character{{ID: 9, ChatID: 5, Name: "Robo", Ability: 7}})
			So(views, ShouldResemble, []types.Character{{ID: 9, Name: "Robo", Ability: 7}})
		})
	})
}
