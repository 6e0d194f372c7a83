package workflow_test

import (
	"testing"

	"github.com/lantechdigital/sinilai/internal/domain/workflow"
	. "github.com/smartystreets/goconvey/convey"
)

func TestStates(t *testing.T) {
	Convey("Given the persisted is_final flag", t, func() {
		So(workflow.StateOf(false), ShouldEqual, workflow.Draft)
		So(workflow.StateOf(true), ShouldEqual, workflow.Final)
		So(workflow.Draft.String(), ShouldEqual, "draft")
		So(workflow.Final.String(), ShouldEqual, "final")
	})
}

func TestEnsureWritable(t *testing.T) {
	Convey("Given a draft score set", t, func() {
		Convey("Then writes are admitted", func() {
			So(workflow.EnsureWritable(workflow.Draft), ShouldBeNil)
		})
	})

	Convey("Given a finalized score set", t, func() {
		Convey("Then writes fail with the lock error", func() {
			So(workflow.EnsureWritable(workflow.Final), ShouldEqual, workflow.ErrLocked)
		})
	})
}

func TestFinalize(t *testing.T) {
	Convey("Given a draft score set", t, func() {
		next, err := workflow.Finalize(workflow.Draft)

		Convey("Then it transitions to final", func() {
			So(err, ShouldBeNil)
			So(next, ShouldEqual, workflow.Final)
		})
	})

	Convey("Given an already finalized score set", t, func() {
		next, err := workflow.Finalize(workflow.Final)

		Convey("Then the second finalize is rejected, not absorbed", func() {
			So(err, ShouldEqual, workflow.ErrLocked)
			So(next, ShouldEqual, workflow.Final)
		})
	})
}

func TestUnlock(t *testing.T) {
	Convey("Given a finalized score set", t, func() {
		next, err := workflow.Unlock(workflow.Final)

		Convey("Then the override returns it to draft", func() {
			So(err, ShouldBeNil)
			So(next, ShouldEqual, workflow.Draft)
		})
	})

	Convey("Given a draft score set", t, func() {
		_, err := workflow.Unlock(workflow.Draft)

		Convey("Then unlock reports there is nothing to revert", func() {
			So(err, ShouldEqual, workflow.ErrNotFinal)
		})
	})
}
