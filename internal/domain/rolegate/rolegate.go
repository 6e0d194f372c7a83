// Package rolegate maps access-key role labels to enumerated roles and
// decides which workflow areas each role may reach.
//
// Labels in the wild are free-form ("Juri 1", "Panel B", "Koordinator
// Akademik", "Super Admin"), so parsing is keyword-based and
// case-insensitive, but it happens exactly once at login; every later
// check works on the enumerated Role.
package rolegate

import (
	"errors"
	"strings"
)

// ErrUnknownRole is returned when a label matches no known role keyword.
var ErrUnknownRole = errors.New("unknown role")

// Role is the enumerated authorization role.
type Role int

const (
	RoleUnknown Role = iota
	RoleJudge
	RoleCoordinator
	RoleAdmin
	RoleSuperAdmin
)

var roleNames = map[Role]string{
	RoleUnknown:     "unknown",
	RoleJudge:       "judge",
	RoleCoordinator: "coordinator",
	RoleAdmin:       "admin",
	RoleSuperAdmin:  "super-admin",
}

func (r Role) String() string {
	if name, ok := roleNames[r]; ok {
		return name
	}
	return "unknown"
}

// FromName reverses String, for roles carried in session tokens.
func FromName(name string) (Role, error) {
	for role, n := range roleNames {
		if n == name && role != RoleUnknown {
			return role, nil
		}
	}
	return RoleUnknown, ErrUnknownRole
}

// Parse resolves a raw credential-role label to a Role.
//
// "SUPER ADMIN" contains "ADMIN", so the super-admin check runs first.
// Judge and coordinator keywords are checked before the bare "ADMIN"
// fallback so a label like "Juri Administrasi" stays a judge.
func Parse(label string) (Role, error) {
	upper := strings.ToUpper(strings.TrimSpace(label))
	switch {
	case upper == "":
		return RoleUnknown, ErrUnknownRole
	case strings.Contains(upper, "SUPER ADMIN"), strings.Contains(upper, "SUPERADMIN"):
		return RoleSuperAdmin, nil
	case strings.Contains(upper, "JURI"), strings.Contains(upper, "PANEL"), strings.Contains(upper, "JUDGE"):
		return RoleJudge, nil
	case strings.Contains(upper, "KOORDINATOR"), strings.Contains(upper, "AKADEMIK"):
		return RoleCoordinator, nil
	case strings.Contains(upper, "ADMIN"):
		return RoleAdmin, nil
	default:
		return RoleUnknown, ErrUnknownRole
	}
}

// Area is a restricted workflow area.
type Area int

const (
	// AreaJudging covers score entry and finalize.
	AreaJudging Area = iota
	// AreaRoster covers student management and the unlock override.
	AreaRoster
	// AreaRecap covers the coordinator leaderboard.
	AreaRecap
	// AreaConfiguration covers events, criteria and access keys.
	AreaConfiguration
)

func (a Area) String() string {
	switch a {
	case AreaJudging:
		return "judging"
	case AreaRoster:
		return "roster"
	case AreaRecap:
		return "recap"
	case AreaConfiguration:
		return "configuration"
	default:
		return "unknown"
	}
}

// Authorize reports whether role may enter area. Admin and super-admin
// pass everywhere (master-key bypass); every other role only reaches its
// own area, and an unknown role reaches nothing.
func Authorize(role Role, area Area) bool {
	switch role {
	case RoleAdmin, RoleSuperAdmin:
		return true
	case RoleJudge:
		return area == AreaJudging
	case RoleCoordinator:
		return area == AreaRecap
	default:
		return false
	}
}

// Session is the explicit authentication context resolved at login and
// passed to workflow calls. It replaces the original design's ambient
// browser-storage role.
type Session struct {
	Role Role
	// Key is the access-key id, used as the judge identifier on score rows.
	Key string
	// Name is the key holder's display label.
	Name string
}

// Allowed reports whether the session may enter area.
func (s Session) Allowed(area Area) bool {
	return Authorize(s.Role, area)
}
