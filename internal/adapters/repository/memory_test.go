package repository_test

import (
	"context"
	"testing"

	"github.com/lantechdigital/sinilai/internal/adapters/repository"
	"github.com/lantechdigital/sinilai/internal/domain/model"
	"github.com/lantechdigital/sinilai/internal/domain/workflow"
	. "github.com/smartystreets/goconvey/convey"
)

func TestEventAndCriterionStore(t *testing.T) {
	ctx := context.Background()

	Convey("Given an empty store", t, func() {
		store := repository.NewMemoryStore()

		Convey("When an event is created with criteria", func() {
			ev, err := store.CreateEvent(ctx, "Web Development")
			So(err, ShouldBeNil)

			c1, err := store.AddCriterion(ctx, model.Criterion{EventID: ev.ID, Name: "UI", Weight: 40})
			So(err, ShouldBeNil)
			_, err = store.AddCriterion(ctx, model.Criterion{EventID: ev.ID, Name: "Backend", Weight: 60})
			So(err, ShouldBeNil)

			Convey("Then criteria list in creation order with the default bound", func() {
				criteria, err := store.ListCriteria(ctx, ev.ID)
				So(err, ShouldBeNil)
				So(criteria, ShouldHaveLength, 2)
				So(criteria[0].Name, ShouldEqual, "UI")
				So(criteria[0].MaxScore, ShouldEqual, 100)
			})

			Convey("Then removing a criterion shrinks the registry", func() {
				So(store.RemoveCriterion(ctx, c1.ID), ShouldBeNil)
				criteria, _ := store.ListCriteria(ctx, ev.ID)
				So(criteria, ShouldHaveLength, 1)
			})

			Convey("Then deleting the event cascades its criteria", func() {
				So(store.DeleteEvent(ctx, ev.ID), ShouldBeNil)
				criteria, _ := store.ListCriteria(ctx, "")
				So(criteria, ShouldBeEmpty)
				_, err := store.GetEvent(ctx, ev.ID)
				So(err, ShouldEqual, repository.ErrNotFound)
			})
		})

		Convey("When a criterion targets an unknown event", func() {
			_, err := store.AddCriterion(ctx, model.Criterion{EventID: "missing", Name: "X"})

			Convey("Then the registry rejects it", func() {
				So(err, ShouldEqual, repository.ErrNotFound)
			})
		})

		Convey("When an unknown criterion is removed", func() {
			So(store.RemoveCriterion(ctx, "missing"), ShouldEqual, repository.ErrNotFound)
		})
	})
}

func TestScoreLedger(t *testing.T) {
	ctx := context.Background()

	Convey("Given a store with a student and criteria", t, func() {
		store := repository.NewMemoryStore()
		ev, _ := store.CreateEvent(ctx, "Jaringan")
		c1, _ := store.AddCriterion(ctx, model.Criterion{EventID: ev.ID, Name: "Crimping", Weight: 40})
		c2, _ := store.AddCriterion(ctx, model.Criterion{EventID: ev.ID, Name: "Routing", Weight: 60})
		st, _ := store.CreateStudent(ctx, model.Student{Name: "Ani", Class: "XII TKJ 1", EventID: ev.ID})

		Convey("When scores are upserted", func() {
			_, err := store.UpsertScore(ctx, model.ScoreEntry{StudentID: st.ID, CriterionID: c1.ID, Score: 80})
			So(err, ShouldBeNil)
			_, err = store.UpsertScore(ctx, model.ScoreEntry{StudentID: st.ID, CriterionID: c2.ID, Score: 90})
			So(err, ShouldBeNil)

			Convey("Then the ledger reads them back", func() {
				scores, err := store.GetScores(ctx, st.ID, "")
				So(err, ShouldBeNil)
				So(scores[c1.ID], ShouldEqual, 80)
				So(scores[c2.ID], ShouldEqual, 90)
			})

			Convey("Then a repeated upsert overwrites, not duplicates", func() {
				_, err := store.UpsertScore(ctx, model.ScoreEntry{StudentID: st.ID, CriterionID: c1.ID, Score: 85})
				So(err, ShouldBeNil)
				scores, _ := store.GetScores(ctx, st.ID, "")
				So(scores[c1.ID], ShouldEqual, 85)
			})

			Convey("When the set is finalized", func() {
				So(store.Finalize(ctx, st.ID, 86, ev.ID), ShouldBeNil)

				Convey("Then the state is final", func() {
					state, err := store.ScoreState(ctx, st.ID)
					So(err, ShouldBeNil)
					So(state, ShouldEqual, workflow.Final)
				})

				Convey("Then further writes fail with the lock error and change nothing", func() {
					_, err := store.UpsertScore(ctx, model.ScoreEntry{StudentID: st.ID, CriterionID: c1.ID, Score: 10})
					So(err, ShouldEqual, repository.ErrLocked)
					scores, _ := store.GetScores(ctx, st.ID, "")
					So(scores[c1.ID], ShouldEqual, 80)
				})

				Convey("Then a second finalize loses the race", func() {
					So(store.Finalize(ctx, st.ID, 99, ev.ID), ShouldEqual, repository.ErrLocked)
					results, _ := store.ListFinalResults(ctx)
					So(results[0].FinalScore, ShouldEqual, 86)
				})

				Convey("Then the finalized aggregate joins student and event metadata", func() {
					results, err := store.ListFinalResults(ctx)
					So(err, ShouldBeNil)
					So(results, ShouldHaveLength, 2) // one row per score entry
					So(results[0].StudentName, ShouldEqual, "Ani")
					So(results[0].EventName, ShouldEqual, "Jaringan")
					So(results[0].FinalScore, ShouldEqual, 86)
				})

				Convey("When the set is unlocked", func() {
					So(store.Unlock(ctx, st.ID), ShouldBeNil)

					Convey("Then it is writable again and gone from the recap read", func() {
						state, _ := store.ScoreState(ctx, st.ID)
						So(state, ShouldEqual, workflow.Draft)
						_, err := store.UpsertScore(ctx, model.ScoreEntry{StudentID: st.ID, CriterionID: c1.ID, Score: 70})
						So(err, ShouldBeNil)
						results, _ := store.ListFinalResults(ctx)
						So(results, ShouldBeEmpty)
					})
				})
			})
		})

		Convey("When finalize targets a student with no entries", func() {
			So(store.Finalize(ctx, st.ID, 50, ev.ID), ShouldEqual, repository.ErrNotFound)
		})

		Convey("When unlock targets a draft set", func() {
			_, _ = store.UpsertScore(ctx, model.ScoreEntry{StudentID: st.ID, CriterionID: c1.ID, Score: 50})
			So(store.Unlock(ctx, st.ID), ShouldEqual, workflow.ErrNotFinal)
		})

		Convey("When two judges score the same criterion", func() {
			_, _ = store.UpsertScore(ctx, model.ScoreEntry{StudentID: st.ID, CriterionID: c1.ID, JudgeID: "j1", Score: 80})
			_, _ = store.UpsertScore(ctx, model.ScoreEntry{StudentID: st.ID, CriterionID: c1.ID, JudgeID: "j2", Score: 90})

			Convey("Then the unscoped read averages across judges", func() {
				scores, _ := store.GetScores(ctx, st.ID, "")
				So(scores[c1.ID], ShouldEqual, 85)
			})

			Convey("Then a judge-scoped read isolates that judge", func() {
				scores, _ := store.GetScores(ctx, st.ID, "j1")
				So(scores[c1.ID], ShouldEqual, 80)
			})
		})

		Convey("When a scored student is deleted", func() {
			_, _ = store.UpsertScore(ctx, model.ScoreEntry{StudentID: st.ID, CriterionID: c1.ID, Score: 77})
			So(store.Finalize(ctx, st.ID, 77, ev.ID), ShouldBeNil)
			So(store.DeleteStudent(ctx, st.ID), ShouldBeNil)

			Convey("Then orphaned aggregates drop out of the recap read", func() {
				results, _ := store.ListFinalResults(ctx)
				So(results, ShouldBeEmpty)
			})
		})
	})
}

func TestKeyStore(t *testing.T) {
	ctx := context.Background()

	Convey("Given an empty key store", t, func() {
		store := repository.NewMemoryStore()

		Convey("When a key is created", func() {
			k, err := store.CreateKey(ctx, model.AccessKey{Key: "JURI-2024-01", Name: "Juri 1", Role: "Juri"})
			So(err, ShouldBeNil)

			Convey("Then the secret resolves", func() {
				found, err := store.FindKeyBySecret(ctx, "JURI-2024-01")
				So(err, ShouldBeNil)
				So(found.Role, ShouldEqual, "Juri")
			})

			Convey("Then a duplicate secret is rejected", func() {
				_, err := store.CreateKey(ctx, model.AccessKey{Key: "JURI-2024-01", Role: "Admin"})
				So(err, ShouldEqual, repository.ErrConflict)
			})

			Convey("Then deletion revokes it", func() {
				So(store.DeleteKey(ctx, k.ID), ShouldBeNil)
				_, err := store.FindKeyBySecret(ctx, "JURI-2024-01")
				So(err, ShouldEqual, repository.ErrNotFound)
			})
		})

		Convey("When an unknown secret is resolved", func() {
			_, err := store.FindKeyBySecret(ctx, "nope")
			So(err, ShouldEqual, repository.ErrNotFound)
		})
	})
}

func TestBulkRoster(t *testing.T) {
	ctx := context.Background()

	Convey("Given a bulk import", t, func() {
		store := repository.NewMemoryStore()
		created, err := store.CreateStudents(ctx, []model.Student{
			{Name: "Ani", Class: "XII RPL 1"},
			{Name: "Budi", Class: "XII RPL 1"},
			{Name: "Citra", Class: "XII RPL 2"},
		})
		So(err, ShouldBeNil)
		So(created, ShouldHaveLength, 3)

		Convey("Then the roster lists in import order", func() {
			students, err := store.ListStudents(ctx, "")
			So(err, ShouldBeNil)
			So(students[0].Name, ShouldEqual, "Ani")
			So(students[2].Name, ShouldEqual, "Citra")
		})
	})
}
