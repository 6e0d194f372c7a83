package metrics_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/lantechdigital/sinilai/pkg/metrics"
)

func TestManagerRegistration(t *testing.T) {
	Convey("Given a manager on a fresh registry", t, func() {
		registry := prometheus.NewRegistry()
		m := metrics.NewManager(
			metrics.WithPrometheusRegistry(registry),
			metrics.WithNamespace("sinilai_test"),
			metrics.WithSubsystem("recap"),
		)
		So(m, ShouldNotBeNil)

		Convey("Then all collectors register without collisions", func() {
			families, err := registry.Gather()
			So(err, ShouldBeNil)
			// Counters and histograms only appear after first observation,
			// but gauges register eagerly via promauto.
			So(families, ShouldNotBeNil)
		})
	})
}

func TestPackageLevelRecorders(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("Then recording is safe across the whole surface", func() {
			So(func() {
				metrics.RecordScoreUpsert()
				metrics.RecordScoreClamped()
				metrics.RecordScoreWriteDenied()
				metrics.RecordFinalize()
				metrics.RecordFinalizeConflict()
				metrics.RecordUnlock()
				metrics.RecordRecapRebuild(12.5)
				metrics.RecordRecapRebuildError()
				metrics.UpdateRecapRows(10)
				metrics.RecordStoreUpdateLatency(1)
				metrics.RecordStoreQueryLatency(1)
				metrics.UpdateQueueSize(3)
				metrics.UpdateQueueCapacity(100)
				metrics.UpdateQueueUtilization(0.03)
				metrics.RecordQueueEnqueue()
				metrics.RecordQueueDequeue()
				metrics.RecordNoticeDropped()
				metrics.UpdateRefreshWorkerCount(2)
				metrics.RecordHTTPRequest("recap", "GET", "200")
				metrics.RecordHTTPRequestDuration("recap", "GET", "200", 4.2)
				metrics.RecordAuthFailure()
			}, ShouldNotPanic)
		})

		Convey("Then the shared registry is exposed for the metrics endpoint", func() {
			So(metrics.GetRegistry(), ShouldNotBeNil)
			_, err := metrics.GetRegistry().Gather()
			So(err, ShouldBeNil)
		})
	})
}
