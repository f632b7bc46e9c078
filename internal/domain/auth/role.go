package auth

// Role is carried in the "role" claim of access tokens.
type Role string

const (
	// RoleKiosk is a scanning station: it may record scans and read an employee's state.
	RoleKiosk Role = "kiosk"
	// RoleAdmin may additionally list and delete records and watch the dashboard.
	RoleAdmin Role = "admin"
)

var RoleValues = []string{
	string(RoleKiosk),
	string(RoleAdmin),
}

func (r Role) IsValid() bool {
	return r == RoleKiosk || r == RoleAdmin
}
