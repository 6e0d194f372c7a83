package main

import (
	"context"
	"io"
	"os"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	"github.com/lantechdigital/sinilai/internal/adapters/http/api"
	"github.com/lantechdigital/sinilai/internal/adapters/http/swagger"
	"github.com/lantechdigital/sinilai/internal/adapters/repository"
	service "github.com/lantechdigital/sinilai/internal/app"
	"github.com/lantechdigital/sinilai/internal/config"
	"github.com/lantechdigital/sinilai/internal/domain/rolegate"
	"github.com/lantechdigital/sinilai/pkg/logger"
)

func TestMain(m *testing.M) {
	if err := logger.Init(logger.WithWriter(io.Discard)); err != nil {
		os.Exit(1)
	}
	os.Exit(m.Run())
}

func TestMainFunction(t *testing.T) {
	convey.Convey("Given the main application", t, func() {
		convey.Convey("When testing configuration loading", func() {
			_ = os.Setenv("SINILAI_ADDR", ":8080")
			_ = os.Setenv("SINILAI_QUEUE_SIZE", "1000")
			_ = os.Setenv("SINILAI_WORKER_COUNT", "4")
			defer func() {
				_ = os.Unsetenv("SINILAI_ADDR")
				_ = os.Unsetenv("SINILAI_QUEUE_SIZE")
				_ = os.Unsetenv("SINILAI_WORKER_COUNT")
			}()

			convey.Convey("Then configuration should be loadable", func() {
				ctx := context.Background()
				cfg, err := config.Load(ctx)
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.NoticeQueueSize, convey.ShouldEqual, 1000)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 4)
			})
		})

		convey.Convey("When testing service creation", func() {
			convey.Convey("Then service should be creatable with default options", func() {
				svc := service.New()
				convey.So(svc, convey.ShouldNotBeNil)
			})

			convey.Convey("And service should be creatable with custom options", func() {
				svc := service.New(
					service.WithWorkerCount(8),
					service.WithQueueSize(2000),
					service.WithPollInterval(time.Second),
					service.WithMaxRecapLimit(25),
				)
				convey.So(svc, convey.ShouldNotBeNil)
			})
		})

		convey.Convey("When testing HTTP server creation", func() {
			svc := service.New()
			convey.So(svc, convey.ShouldNotBeNil)

			convey.Convey("Then the router should be buildable", func() {
				ctx := context.Background()
				server := api.NewServer(svc, svc,
					api.WithJWTSecret("test-secret"),
					api.WithSessionTTL(time.Hour),
					api.WithCORSAllowedOrigins([]string{"*"}),
				)
				convey.So(server, convey.ShouldNotBeNil)

				router := server.Router(ctx)
				convey.So(router, convey.ShouldNotBeNil)

				convey.So(func() {
					swagger.Register(ctx, router)
				}, convey.ShouldNotPanic)
			})
		})
	})
}

func TestMainHelpers(t *testing.T) {
	convey.Convey("Given the main helper functions", t, func() {
		ctx := context.Background()
		log := logger.Get()

		convey.Convey("When selecting a store without a DSN", func() {
			cfg := config.New(ctx)
			store, err := openStore(ctx, cfg, log)

			convey.Convey("Then the in-memory store is used", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(store, convey.ShouldNotBeNil)
				_, ok := store.(*repository.MemoryStore)
				convey.So(ok, convey.ShouldBeTrue)
			})
		})

		convey.Convey("When resolving the JWT secret", func() {
			convey.Convey("Then a configured secret is used verbatim", func() {
				cfg := config.New(ctx)
				cfg.JWTSecret = "configured"
				convey.So(jwtSecret(ctx, cfg, log), convey.ShouldEqual, "configured")
			})

			convey.Convey("And a missing secret falls back to an ephemeral one", func() {
				cfg := config.New(ctx)
				first := jwtSecret(ctx, cfg, log)
				second := jwtSecret(ctx, cfg, log)
				convey.So(first, convey.ShouldNotBeEmpty)
				convey.So(first, convey.ShouldNotEqual, second)
			})
		})

		convey.Convey("When bootstrapping the admin key", func() {
			svc := service.New(
				service.WithLogger(log),
				service.WithStore(repository.NewMemoryStore()),
				service.WithWorkerCount(1),
				service.WithPollInterval(time.Hour),
			)
			convey.So(svc.Start(ctx), convey.ShouldBeNil)
			defer svc.Stop()

			cfg := config.New(ctx)
			cfg.BootstrapAdminKey = "BOOT-ADMIN"

			bootstrapAdminKey(ctx, svc, cfg, log)

			convey.Convey("Then the key resolves to a super-admin session", func() {
				sess, err := svc.ResolveKey(ctx, "BOOT-ADMIN")
				convey.So(err, convey.ShouldBeNil)
				convey.So(sess.Allowed(rolegate.AreaConfiguration), convey.ShouldBeTrue)
				convey.So(sess.Allowed(rolegate.AreaJudging), convey.ShouldBeTrue)
			})

			convey.Convey("And bootstrapping twice is idempotent", func() {
				convey.So(func() {
					bootstrapAdminKey(ctx, svc, cfg, log)
				}, convey.ShouldNotPanic)

				_, err := svc.ResolveKey(ctx, "BOOT-ADMIN")
				convey.So(err, convey.ShouldBeNil)
			})

			convey.Convey("And an empty key is a no-op", func() {
				empty := config.New(ctx)
				convey.So(func() {
					bootstrapAdminKey(ctx, svc, empty, log)
				}, convey.ShouldNotPanic)
			})
		})
	})
}

func TestMainApplicationErrorHandling(t *testing.T) {
	convey.Convey("Given main application error handling", t, func() {
		convey.Convey("When testing invalid configuration", func() {
			_ = os.Setenv("SINILAI_ADDR", "")
			defer func() { _ = os.Unsetenv("SINILAI_ADDR") }()

			convey.Convey("Then configuration loading should fail", func() {
				ctx := context.Background()
				cfg, err := config.Load(ctx)
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}
