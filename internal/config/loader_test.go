package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/creatorscore/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

var configEnvVars = []string{
	config.EnvConfigFile,
	"CREATORSCORE_LOG_LEVEL",
	"CREATORSCORE_LOG_FORMAT",
	"CREATORSCORE_ADDR",
	"CREATORSCORE_QUEUE_SIZE",
	"CREATORSCORE_WORKER_COUNT",
	"CREATORSCORE_DEDUPE_SIZE",
	"CREATORSCORE_MAX_LEADERBOARD_LIMIT",
	"CREATORSCORE_MAX_BATCH_SIZE",
	"CREATORSCORE_BATCH_CONCURRENCY",
}

func clearConfigEnvVars() {
	for _, k := range configEnvVars {
		_ = os.Unsetenv(k)
	}
}

func setEnv(kv map[string]string) {
	for k, v := range kv {
		_ = os.Setenv(k, v)
	}
}

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()
		defer clearConfigEnvVars()

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then it should match New", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldResemble, config.New(ctx))
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			setEnv(map[string]string{
				"CREATORSCORE_ADDR":                  ":8080",
				"CREATORSCORE_QUEUE_SIZE":            "2048",
				"CREATORSCORE_WORKER_COUNT":          "16",
				"CREATORSCORE_DEDUPE_SIZE":           "0",
				"CREATORSCORE_MAX_LEADERBOARD_LIMIT": "25",
				"CREATORSCORE_MAX_BATCH_SIZE":        "50",
				"CREATORSCORE_BATCH_CONCURRENCY":     "3",
				"CREATORSCORE_LOG_FORMAT":            "json",
			})
			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 2048)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 16)
				convey.So(cfg.DedupeSize, convey.ShouldEqual, 0)
				convey.So(cfg.MaxLeaderboardLimit, convey.ShouldEqual, 25)
				convey.So(cfg.MaxBatchSize, convey.ShouldEqual, 50)
				convey.So(cfg.BatchConcurrency, convey.ShouldEqual, 3)
				convey.So(cfg.LogFormat, convey.ShouldEqual, "json")
			})
		})

		convey.Convey("When loading config with a YAML file", func() {
			path := writeConfigFile(t, `
addr: ":9090"
queue_size: 300
worker_count: 24
log_level: debug
`)
			setEnv(map[string]string{config.EnvConfigFile: path})
			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from the file and keep other defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 300)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 24)
				convey.So(cfg.LogLevel, convey.ShouldEqual, "debug")
				convey.So(cfg.DedupeSize, convey.ShouldEqual, 50_000)
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			path := writeConfigFile(t, `
addr: ":9090"
queue_size: 300
worker_count: 24
`)
			setEnv(map[string]string{
				config.EnvConfigFile:        path,
				"CREATORSCORE_ADDR":         ":8080",
				"CREATORSCORE_WORKER_COUNT": "32",
			})
			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 300)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 32)
			})
		})

		convey.Convey("When the config file is invalid YAML", func() {
			path := writeConfigFile(t, `invalid: yaml: content: [`)
			setEnv(map[string]string{config.EnvConfigFile: path})
			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(cfg, convey.ShouldBeNil)
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the config file does not exist", func() {
			setEnv(map[string]string{config.EnvConfigFile: filepath.Join(t.TempDir(), "missing.yaml")})
			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(cfg, convey.ShouldBeNil)
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When a numeric variable is not a number", func() {
			setEnv(map[string]string{"CREATORSCORE_QUEUE_SIZE": "lots"})
			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(cfg, convey.ShouldBeNil)
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the addr is empty", func() {
			setEnv(map[string]string{"CREATORSCORE_ADDR": ""})
			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(cfg, convey.ShouldBeNil)
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "addr must not be empty")
			})
		})

		convey.Convey("When the worker count is negative", func() {
			setEnv(map[string]string{"CREATORSCORE_WORKER_COUNT": "-10"})
			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(cfg, convey.ShouldBeNil)
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})
	})
}
