package postgres

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/mooot/league/internal/adapters/repository"
	"github.com/mooot/league/internal/domain/model"
)

const testDSNEnv = "MOOOT_TEST_POSTGRES_DSN"

// openStore creates a throwaway schema. Tests skip when no database is
// configured.
func openStore(t *testing.T) (*Store, func()) {
	t.Helper()
	dsn := os.Getenv(testDSNEnv)
	if dsn == "" {
		t.Skipf("skip postgres tests: %s not set", testDSNEnv)
	}
	ctx := context.Background()
	schema := fmt.Sprintf("test_%d", time.Now().UnixNano())

	admin, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("open admin pool: %v", err)
	}
	if _, err := admin.Exec(ctx, "CREATE SCHEMA "+pgx.Identifier{schema}.Sanitize()); err != nil {
		admin.Close()
		t.Fatalf("create schema: %v", err)
	}

	st, err := New(ctx, withSearchPath(dsn, schema))
	if err != nil {
		admin.Close()
		t.Fatalf("open store: %v", err)
	}
	return st, func() {
		st.Close()
		_, _ = admin.Exec(ctx, "DROP SCHEMA "+pgx.Identifier{schema}.Sanitize()+" CASCADE")
		admin.Close()
	}
}

func withSearchPath(dsn, schema string) string {
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "search_path=" + url.QueryEscape(schema)
}

func TestPostgresStore(t *testing.T) {
	st, cleanup := openStore(t)
	defer cleanup()

	Convey("Given a migrated postgres store", t, func() {
		ctx := context.Background()
		at := time.Date(2024, 10, 10, 9, 0, 0, 0, time.UTC)

		Convey("When migrations run again", func() {
			So(st.Migrate(ctx), ShouldBeNil)
		})

		Convey("When plays are inserted", func() {
			chat := time.Now().UnixNano()
			_, err := st.InsertRecord(ctx, model.GameRecord{ChatID: chat, Player: model.Human(1), PlayerName: "Anna", Points: 3, ElapsedSeconds: 60, RecordedAt: at})
			So(err, ShouldBeNil)
			_, err = st.InsertRecord(ctx, model.GameRecord{ChatID: chat, Player: model.CharacterID(1), PlayerName: "Robot", Points: 5, ElapsedSeconds: 90, RecordedAt: at.Add(time.Hour)})
			So(err, ShouldBeNil)

			Convey("Then records are read back best first within the window", func() {
				recs, err := st.Records(ctx, chat, at, at.Add(2*time.Hour))
				So(err, ShouldBeNil)
				So(recs, ShouldHaveLength, 2)
				So(recs[0].Player, ShouldResemble, model.CharacterID(1))
				So(recs[1].RecordedAt.Equal(at), ShouldBeTrue)

				recs, err = st.Records(ctx, chat, at.Add(time.Minute), time.Time{})
				So(err, ShouldBeNil)
				So(recs, ShouldHaveLength, 1)
			})

			Convey("Then the global query keeps one kind", func() {
				recs, err := st.RecordsAllChats(ctx, at, at.Add(2*time.Hour), model.KindHuman)
				So(err, ShouldBeNil)
				for _, r := range recs {
					So(r.Player.Kind, ShouldEqual, model.KindHuman)
				}
			})

			Convey("Then grants are saved atomically and named", func() {
				grants := []model.AwardGrant{
					{ChatID: chat, Player: model.CharacterID(1), TrophyID: 100},
					{ChatID: chat, Player: model.Human(1), TrophyID: 101},
				}
				So(st.SaveGrants(ctx, "run-1", grants, at), ShouldBeNil)

				awards, err := st.Awards(ctx, chat)
				So(err, ShouldBeNil)
				So(awards, ShouldHaveLength, 2)
				So(awards[0].PlayerName, ShouldEqual, "Robot")

				err = st.SaveGrants(ctx, "run-1", grants, at)
				So(err, ShouldNotBeNil)
				awards, _ = st.Awards(ctx, chat)
				So(awards, ShouldHaveLength, 2)
			})
		})

		Convey("When characters are stored", func() {
			chat := time.Now().UnixNano()
			c, err := st.PutCharacter(ctx, model.Character{ChatID: chat, Name: "Parrot", Ability: 4})
			So(err, ShouldBeNil)
			So(c.ID, ShouldBeGreaterThan, 0)

			c.Ability = 6
			_, err = st.PutCharacter(ctx, c)
			So(err, ShouldBeNil)

			chars, err := st.Characters(ctx, chat)
			So(err, ShouldBeNil)
			So(chars, ShouldResemble, []model.Character{c})

			_, err = st.PutCharacter(ctx, model.Character{ID: 1 << 40, ChatID: chat, Name: "Ghost"})
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)

			_, err = st.PutCharacter(ctx, model.Character{ID: c.ID, ChatID: chat + 1, Name: "Stolen", Ability: 10})
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			chars, err = st.Characters(ctx, chat)
			So(err, ShouldBeNil)
			So(chars, ShouldResemble, []model.Character{c})
			moved, err := st.Characters(ctx, chat+1)
			So(err, ShouldBeNil)
			So(moved, ShouldBeEmpty)

			chats, err := st.Chats(ctx)
			So(err, ShouldBeNil)
			So(chats, ShouldContain, chat)
		})
	})
}

func TestPeriodGuard(t *testing.T) {
	st, cleanup := openStore(t)
	defer cleanup()

	Convey("Given the persisted period guard", t, func() {
		ctx := context.Background()
		key := fmt.Sprintf("league:close:%d:2024:3", time.Now().UnixNano())
		g := st.PeriodGuard()

		Convey("When a period is claimed", func() {
			seen, err := g.SeenAndRecord(ctx, key)
			So(err, ShouldBeNil)
			So(seen, ShouldBeFalse)
			So(g.Size(), ShouldEqual, 1)

			Convey("Then a second claim sees it, even through a new guard", func() {
				seen, err := g.SeenAndRecord(ctx, key)
				So(err, ShouldBeNil)
				So(seen, ShouldBeTrue)

				seen, err = st.PeriodGuard().SeenAndRecord(ctx, key)
				So(err, ShouldBeNil)
				So(seen, ShouldBeTrue)
			})

			Convey("Then a released claim can be taken again", func() {
				So(g.Unrecord(ctx, key), ShouldBeNil)
				So(g.Size(), ShouldEqual, 0)
				seen, err := g.SeenAndRecord(ctx, key)
				So(err, ShouldBeNil)
				So(seen, ShouldBeFalse)
			})
		})
	})
}

func TestMigrations(t *testing.T) {
	Convey("Given the embedded migrations", t, func() {
		migs := Migrations()
		Convey("Then versions are strictly increasing and non-empty", func() {
			for i, m := range migs {
				So(m.Version, ShouldEqual, i+1)
				So(strings.TrimSpace(m.UpSQL), ShouldNotBeEmpty)
			}
		})
	})
}

func TestNullTime(t *testing.T) {
	Convey("Given window bounds", t, func() {
		So(nullTime(time.Time{}), ShouldBeNil)
		loc := time.FixedZone("x", 3600)
		got := nullTime(time.Date(2024, 1, 1, 1, 0, 0, 0, loc))
		So(got, ShouldNotBeNil)
		So(got.Location(), ShouldEqual, time.UTC)
	})
}
