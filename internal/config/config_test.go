package config_test

import (
	"context"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	"github.com/lantechdigital/sinilai/internal/config"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New(context.Background())

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.DatabaseDSN, convey.ShouldBeEmpty)
			convey.So(cfg.SessionTTL, convey.ShouldEqual, 12*time.Hour)
			convey.So(cfg.NoticeQueueSize, convey.ShouldEqual, 1024)
			convey.So(cfg.WorkerCount, convey.ShouldEqual, 2)
			convey.So(cfg.PollInterval, convey.ShouldEqual, 5*time.Second)
			convey.So(cfg.MaxRecapLimit, convey.ShouldEqual, 100)
			convey.So(cfg.CORSAllowedOrigins, convey.ShouldResemble, []string{"*"})
		})
	})
}
