package cache_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/mooot/league/internal/adapters/cache"
	"github.com/mooot/league/internal/domain/dedupe"
)

func deadRedis() *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         "localhost:1",
		DialTimeout:  10 * time.Millisecond,
		ReadTimeout:  10 * time.Millisecond,
		WriteTimeout: 10 * time.Millisecond,
		MaxRetries:   -1,
	})
}

func TestGuardUnavailable(t *testing.T) {
	Convey("Given a guard whose Redis is down", t, func() {
		client := deadRedis()
		defer client.Close()
		g := cache.NewGuard(client)
		ctx := context.Background()

		Convey("When a period is claimed", func() {
			seen, err := g.SeenAndRecord(ctx, dedupe.PeriodKey(1, 2024, 10))

			Convey("Then the failure is reported rather than treated as unclaimed", func() {
				So(errors.Is(err, cache.ErrGuardUnavailable), ShouldBeTrue)
				So(seen, ShouldBeFalse)
				So(g.Size(), ShouldEqual, 0)
			})
		})

		Convey("When a claim is released", func() {
			err := g.Unrecord(ctx, "x")
			So(errors.Is(err, cache.ErrGuardUnavailable), ShouldBeTrue)
		})

		Convey("When dialing it", func() {
			_, err := cache.Dial(ctx, "localhost:1", "", 0)
			So(errors.Is(err, cache.ErrGuardUnavailable), ShouldBeTrue)
		})
	})
}

func TestGuardLive(t *testing.T) {
	addr := os.Getenv("MOOOT_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("skip redis tests: MOOOT_TEST_REDIS_ADDR not set")
	}

	Convey("Given a guard on a live Redis", t, func() {
		ctx := context.Background()
		client, err := cache.Dial(ctx, addr, "", 0)
		So(err, ShouldBeNil)
		defer client.Close()

		g := cache.NewGuard(client, cache.WithTTL(time.Minute), cache.WithPrefix(fmt.Sprintf("test:%d:", time.Now().UnixNano())))
		key := dedupe.PeriodKey(-100, 2024, 10)

		Convey("Then a key is claimed once until released", func() {
			seen, err := g.SeenAndRecord(ctx, key)
			So(err, ShouldBeNil)
			So(seen, ShouldBeFalse)
			So(g.Size(), ShouldEqual, 1)

			seen, err = g.SeenAndRecord(ctx, key)
			So(err, ShouldBeNil)
			So(seen, ShouldBeTrue)

			So(g.Unrecord(ctx, key), ShouldBeNil)
			So(g.Size(), ShouldEqual, 0)

			seen, err = g.SeenAndRecord(ctx, key)
			So(err, ShouldBeNil)
			So(seen, ShouldBeFalse)
			So(g.Unrecord(ctx, key), ShouldBeNil)
		})
	})
}
