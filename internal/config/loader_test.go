package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/mooot/league/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "league.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	convey.Convey("Given no file and no env", t, func() {
		cfg, err := config.Load(context.Background())

		convey.Convey("Then defaults are returned", func() {
			convey.So(err, convey.ShouldBeNil)
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.QueueSize, convey.ShouldEqual, 10_000)
			convey.So(cfg.SchedulerEnabled, convey.ShouldBeTrue)
		})
	})
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("MOOOT_ADDR", ":8080")
	t.Setenv("MOOOT_QUEUE_SIZE", "500")
	t.Setenv("MOOOT_WORKER_COUNT", "16")
	t.Setenv("MOOOT_TIMEZONE", "UTC")
	t.Setenv("MOOOT_SCHEDULER_ENABLED", "false")
	t.Setenv("MOOOT_DEV_CHAT_ID", "-1001")
	t.Setenv("MOOOT_POSITIONAL_TROPHIES", "5")

	convey.Convey("Given MOOOT_ environment variables", t, func() {
		cfg, err := config.Load(context.Background())

		convey.Convey("Then they override the defaults", func() {
			convey.So(err, convey.ShouldBeNil)
			convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
			convey.So(cfg.QueueSize, convey.ShouldEqual, 500)
			convey.So(cfg.WorkerCount, convey.ShouldEqual, 16)
			convey.So(cfg.Timezone, convey.ShouldEqual, "UTC")
			convey.So(cfg.SchedulerEnabled, convey.ShouldBeFalse)
			convey.So(cfg.DevChatID, convey.ShouldEqual, -1001)
			convey.So(cfg.PositionalTrophies, convey.ShouldEqual, 5)
		})
	})
}

func TestLoad_File(t *testing.T) {
	path := writeConfigFile(t, `
addr: ":9090"
storage: postgres
postgres_dsn: postgres://league@localhost/league
redis_addr: localhost:6379
close_hour: 22
`)
	t.Setenv("MOOOT_CONFIG", path)
	t.Setenv("MOOOT_CLOSE_HOUR", "20")

	convey.Convey("Given a YAML file and an env override", t, func() {
		cfg, err := config.Load(context.Background())

		convey.Convey("Then the file is read and env wins over it", func() {
			convey.So(err, convey.ShouldBeNil)
			convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
			convey.So(cfg.Storage, convey.ShouldEqual, config.StoragePostgres)
			convey.So(cfg.PostgresDSN, convey.ShouldEqual, "postgres://league@localhost/league")
			convey.So(cfg.RedisAddr, convey.ShouldEqual, "localhost:6379")
			convey.So(cfg.CloseHour, convey.ShouldEqual, 20)
			convey.So(cfg.Timezone, convey.ShouldEqual, "Europe/Madrid")
		})
	})
}

func TestLoad_Errors(t *testing.T) {
	convey.Convey("Given a missing config file", t, func() {
		t.Setenv("MOOOT_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))
		_, err := config.Load(context.Background())
		convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
	})

	convey.Convey("Given an invalid value", t, func() {
		t.Setenv("MOOOT_CONFIG", "")
		t.Setenv("MOOOT_STORAGE", "postgres")
		_, err := config.Load(context.Background())
		convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
	})
}
