package awards_test

import (
	"errors"
	"testing"

	"github.com/mooot/league/internal/domain/awards"
	"github.com/mooot/league/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func entries(n int) []model.LeaderboardEntry {
	out := make([]model.LeaderboardEntry, n)
	for i := range out {
		out[i] = model.LeaderboardEntry{Player: model.Human(int64(i + 1)), PlayerName: "p", TotalPoints: 100 - i}
	}
	return out
}

func TestAllocate(t *testing.T) {
	Convey("Given the default trophy policy", t, func() {
		Convey("When four players finished the period", func() {
			ranking := []model.LeaderboardEntry{
				{Player: model.Human(1), TotalPoints: 20},
				{Player: model.Human(2), TotalPoints: 20},
				{Player: model.Human(3), TotalPoints: 15},
				{Player: model.Human(4), TotalPoints: 10},
			}
			grants := awards.Allocate(-100, ranking, 101)

			Convey("Then the top three get positional trophies and the rest participation", func() {
				So(grants, ShouldResemble, []model.AwardGrant{
					{ChatID: -100, Player: model.Human(1), TrophyID: 1010},
					{ChatID: -100, Player: model.Human(2), TrophyID: 1011},
					{ChatID: -100, Player: model.Human(3), TrophyID: 1012},
					{ChatID: -100, Player: model.Human(4), TrophyID: 1013},
				})
			})
		})

		Convey("When only two players finished", func() {
			grants := awards.Allocate(1, entries(2), 5)

			Convey("Then exactly two positional trophies are granted", func() {
				So(grants, ShouldHaveLength, 2)
				So(grants[0].TrophyID, ShouldEqual, 50)
				So(grants[1].TrophyID, ShouldEqual, 51)
			})
		})

		Convey("When the ranking is empty", func() {
			grants := awards.Allocate(1, nil, 5)
			So(grants, ShouldNotBeNil)
			So(grants, ShouldHaveLength, 0)
		})

		Convey("When many players finished", func() {
			grants := awards.Allocate(1, entries(9), 12)

			Convey("Then everybody past third shares the participation trophy", func() {
				for _, g := range grants[3:] {
					So(g.TrophyID, ShouldEqual, 123)
				}
			})
		})

		Convey("Then the number of grants always equals the number of entries", func() {
			for n := 0; n < 12; n++ {
				So(awards.Allocate(1, entries(n), 3), ShouldHaveLength, n)
			}
		})

		Convey("Then allocating twice grants the same trophies again", func() {
			So(awards.Allocate(1, entries(5), 7), ShouldResemble, awards.Allocate(1, entries(5), 7))
		})
	})
}

func TestPolicy(t *testing.T) {
	Convey("Given custom policies", t, func() {
		Convey("When a policy has a single position", func() {
			p, err := awards.NewPolicy(1)
			So(err, ShouldBeNil)
			grants := p.Allocate(1, entries(3), 4)
			So(grants[0].TrophyID, ShouldEqual, 40)
			So(grants[1].TrophyID, ShouldEqual, 41)
			So(grants[2].TrophyID, ShouldEqual, 41)
			So(p.IsPositional(0), ShouldBeTrue)
			So(p.IsPositional(1), ShouldBeFalse)
		})

		Convey("When positions do not fit in one digit", func() {
			_, err := awards.NewPolicy(10)
			So(errors.Is(err, awards.ErrInvalidPolicy), ShouldBeTrue)
			_, err = awards.NewPolicy(-1)
			So(errors.Is(err, awards.ErrInvalidPolicy), ShouldBeTrue)
		})

		Convey("When a policy has no positions", func() {
			_, err := awards.NewPolicy(0)

			Convey("Then it is refused so nobody receives the first-place trophy", func() {
				So(errors.Is(err, awards.ErrInvalidPolicy), ShouldBeTrue)
			})
		})

		Convey("When a policy uses every digit", func() {
			p, err := awards.NewPolicy(9)
			So(err, ShouldBeNil)
			grants := p.Allocate(1, entries(11), 4)
			So(grants[8].TrophyID, ShouldEqual, 48)
			So(grants[9].TrophyID, ShouldEqual, 49)
			So(grants[10].TrophyID, ShouldEqual, 49)
		})
	})
}

func TestTrophyID(t *testing.T) {
	Convey("Given composite trophy ids", t, func() {
		So(awards.TrophyID(12, 2), ShouldEqual, 122)
		period, tier := awards.SplitTrophyID(122)
		So(period, ShouldEqual, 12)
		So(tier, ShouldEqual, 2)
	})
}
