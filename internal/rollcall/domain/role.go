package domain

import (
	"fmt"
	"strings"
)

// Role is an organization membership role. The set is closed and totally
// ordered: Owner ⊇ Admin ⊇ AttendanceTaker ⊇ Member. The zero value is
// RoleNone, which holds no capabilities.
type Role uint8

const (
	RoleNone Role = iota
	RoleMember
	RoleAttendanceTaker
	RoleAdmin
	RoleOwner
)

// Capability is something a role may be allowed to do within an
// organization.
type Capability uint8

const (
	CapabilityTakeAttendance Capability = iota + 1
	CapabilityCorrectAttendance
)

func (c Capability) String() string {
	switch c {
	case CapabilityTakeAttendance:
		return "take_attendance"
	case CapabilityCorrectAttendance:
		return "correct_attendance"
	default:
		return fmt.Sprintf("capability(%d)", uint8(c))
	}
}

// minimumRole is the lowest role holding each capability. Because roles
// are totally ordered, every role at or above it holds it too.
func (c Capability) minimumRole() (Role, bool) {
	switch c {
	case CapabilityTakeAttendance:
		return RoleAttendanceTaker, true
	case CapabilityCorrectAttendance:
		return RoleAdmin, true
	default:
		return RoleNone, false
	}
}

// Allows reports whether r holds capability c. Unknown roles and unknown
// capabilities are never allowed.
func (r Role) Allows(c Capability) bool {
	if !r.Valid() {
		return false
	}
	min, ok := c.minimumRole()
	if !ok {
		return false
	}
	return r >= min
}

// AtLeast reports whether r is other or a superset of it.
func (r Role) AtLeast(other Role) bool {
	return r.Valid() && r >= other
}

// Valid reports whether r is one of the four membership roles.
func (r Role) Valid() bool {
	return r >= RoleMember && r <= RoleOwner
}

func (r Role) String() string {
	switch r {
	case RoleMember:
		return "member"
	case RoleAttendanceTaker:
		return "attendance_taker"
	case RoleAdmin:
		return "admin"
	case RoleOwner:
		return "owner"
	default:
		return "none"
	}
}

// ParseRole accepts the canonical names plus the spaced/hyphenated spelling
// organizations tend to type ("Attendance Taker").
func ParseRole(s string) (Role, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.NewReplacer(" ", "_", "-", "_").Replace(norm)

	switch norm {
	case "member":
		return RoleMember, nil
	case "attendance_taker":
		return RoleAttendanceTaker, nil
	case "admin":
		return RoleAdmin, nil
	case "owner":
		return RoleOwner, nil
	default:
		return RoleNone, fmt.Errorf("domain: unknown role %q", s)
	}
}

func (r Role) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("domain: cannot marshal role %d", uint8(r))
	}
	return []byte(r.String()), nil
}

func (r *Role) UnmarshalText(b []byte) error {
	parsed, err := ParseRole(string(b))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
