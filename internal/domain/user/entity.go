package user

type Role string

const (
	RoleAdmin    Role = "admin"    // HR / back office - full access
	RoleManager  Role = "manager"  // Can view team attendance and reports
	RoleEmployee Role = "employee" // Regular staff
)

var RoleValues = []string{
	string(RoleAdmin),
	string(RoleManager),
	string(RoleEmployee),
}

// Identity is the authenticated caller as carried by the access token.
type Identity struct {
	UserID string
	Role   Role
}

// IsAdmin checks if the caller has the admin role
func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}

// CanViewAll reports whether the caller may read other users' attendance.
func (i Identity) CanViewAll() bool {
	return HasPermission(i.Role, PermissionAttendanceViewAll)
}
