package service_test

import (
	"context"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	service "github.com/lantechdigital/sinilai/internal/app"
	"github.com/lantechdigital/sinilai/internal/domain/model"
	logging "github.com/lantechdigital/sinilai/pkg/logger"
)

// End-to-end flow: configure, score with two judges, finalize, and let
// the refresh machinery surface the result without a manual Refresh.
func TestServiceEndToEnd(t *testing.T) {
	ctx := context.Background()

	Convey("Given a service with a fast poll interval", t, func() {
		_ = logging.Init()

		svc := service.New(
			service.WithWorkerCount(2),
			service.WithQueueSize(16),
			service.WithPollInterval(30*time.Millisecond),
		)
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		ev, err := svc.CreateEvent(ctx, "Ujian Kompetensi Keahlian RPL")
		So(err, ShouldBeNil)
		c1, err := svc.AddCriterion(ctx, model.Criterion{EventID: ev.ID, Name: "Perencanaan", Weight: 20})
		So(err, ShouldBeNil)
		c2, err := svc.AddCriterion(ctx, model.Criterion{EventID: ev.ID, Name: "Hasil Kerja", Weight: 80})
		So(err, ShouldBeNil)

		st, err := svc.CreateStudent(ctx, model.Student{Name: "Dewi", Class: "XII RPL 1", NIS: "22401", EventID: ev.ID})
		So(err, ShouldBeNil)

		Convey("When two judges score and a coordinator finalizes", func() {
			_, err := svc.UpsertScores(ctx, st.ID, "juri-1", "Juri 1", map[string]float64{c1.ID: 80, c2.ID: 90})
			So(err, ShouldBeNil)
			_, err = svc.UpsertScores(ctx, st.ID, "juri-2", "Juri 2", map[string]float64{c1.ID: 90, c2.ID: 80})
			So(err, ShouldBeNil)

			// Per-criterion mean across judges: 85 each, so the
			// weighted average is 85 regardless of weights.
			avg, err := svc.Finalize(ctx, st.ID)
			So(err, ShouldBeNil)
			So(avg, ShouldEqual, 85)

			Convey("Then the recap converges without a manual refresh", func() {
				deadline := time.Now().Add(2 * time.Second)
				var rows int
				for time.Now().Before(deadline) {
					if rows = len(svc.Recap(ctx, "", 0)); rows == 1 {
						break
					}
					time.Sleep(10 * time.Millisecond)
				}
				So(rows, ShouldEqual, 1)

				got := svc.Recap(ctx, ev.ID, 0)
				So(got, ShouldHaveLength, 1)
				So(got[0].Name, ShouldEqual, "Dewi")
				So(got[0].EventName, ShouldEqual, "Ujian Kompetensi Keahlian RPL")
				So(got[0].FinalScore, ShouldEqual, 85)
			})
		})
	})
}
