package rolegate_test

import (
	"testing"

	"github.com/lantechdigital/sinilai/internal/domain/rolegate"
	. "github.com/smartystreets/goconvey/convey"
)

func TestParse(t *testing.T) {
	Convey("Given judge-style labels", t, func() {
		for _, label := range []string{"Juri 1", "juri utama", "Panel B", "JUDGE", "Juri Administrasi"} {
			role, err := rolegate.Parse(label)
			So(err, ShouldBeNil)
			So(role, ShouldEqual, rolegate.RoleJudge)
		}
	})

	Convey("Given coordinator-style labels", t, func() {
		for _, label := range []string{"Koordinator", "Koordinator Akademik", "Staf Akademik"} {
			role, err := rolegate.Parse(label)
			So(err, ShouldBeNil)
			So(role, ShouldEqual, rolegate.RoleCoordinator)
		}
	})

	Convey("Given admin labels", t, func() {
		role, err := rolegate.Parse("Admin Sekolah")
		So(err, ShouldBeNil)
		So(role, ShouldEqual, rolegate.RoleAdmin)
	})

	Convey("Given super-admin labels", t, func() {
		Convey("Then both spellings resolve before the plain admin match", func() {
			for _, label := range []string{"Super Admin", "SUPERADMIN", "super admin"} {
				role, err := rolegate.Parse(label)
				So(err, ShouldBeNil)
				So(role, ShouldEqual, rolegate.RoleSuperAdmin)
			}
		})
	})

	Convey("Given unknown or empty labels", t, func() {
		for _, label := range []string{"", "   ", "Siswa", "Guest"} {
			role, err := rolegate.Parse(label)
			So(err, ShouldEqual, rolegate.ErrUnknownRole)
			So(role, ShouldEqual, rolegate.RoleUnknown)
		}
	})
}

func TestFromName(t *testing.T) {
	Convey("Given the enumerated role names", t, func() {
		for _, role := range []rolegate.Role{
			rolegate.RoleJudge, rolegate.RoleCoordinator, rolegate.RoleAdmin, rolegate.RoleSuperAdmin,
		} {
			parsed, err := rolegate.FromName(role.String())
			So(err, ShouldBeNil)
			So(parsed, ShouldEqual, role)
		}
	})

	Convey("Given a name outside the vocabulary", t, func() {
		_, err := rolegate.FromName("root")
		So(err, ShouldEqual, rolegate.ErrUnknownRole)
	})
}

func TestAuthorize(t *testing.T) {
	allAreas := []rolegate.Area{
		rolegate.AreaJudging, rolegate.AreaRoster, rolegate.AreaRecap, rolegate.AreaConfiguration,
	}

	Convey("Given admin and super-admin roles", t, func() {
		Convey("Then the master-key bypass grants every area", func() {
			for _, area := range allAreas {
				So(rolegate.Authorize(rolegate.RoleAdmin, area), ShouldBeTrue)
				So(rolegate.Authorize(rolegate.RoleSuperAdmin, area), ShouldBeTrue)
			}
		})
	})

	Convey("Given a judge", t, func() {
		So(rolegate.Authorize(rolegate.RoleJudge, rolegate.AreaJudging), ShouldBeTrue)
		So(rolegate.Authorize(rolegate.RoleJudge, rolegate.AreaRoster), ShouldBeFalse)
		So(rolegate.Authorize(rolegate.RoleJudge, rolegate.AreaRecap), ShouldBeFalse)
		So(rolegate.Authorize(rolegate.RoleJudge, rolegate.AreaConfiguration), ShouldBeFalse)
	})

	Convey("Given a coordinator", t, func() {
		So(rolegate.Authorize(rolegate.RoleCoordinator, rolegate.AreaRecap), ShouldBeTrue)
		So(rolegate.Authorize(rolegate.RoleCoordinator, rolegate.AreaJudging), ShouldBeFalse)
	})

	Convey("Given an unknown role", t, func() {
		Convey("Then every restricted area is denied", func() {
			for _, area := range allAreas {
				So(rolegate.Authorize(rolegate.RoleUnknown, area), ShouldBeFalse)
			}
		})
	})
}

func TestSession(t *testing.T) {
	Convey("Given a judge session", t, func() {
		sess := rolegate.Session{Role: rolegate.RoleJudge, Key: "key-1", Name: "Juri 1"}
		So(sess.Allowed(rolegate.AreaJudging), ShouldBeTrue)
		So(sess.Allowed(rolegate.AreaConfiguration), ShouldBeFalse)
	})
}
