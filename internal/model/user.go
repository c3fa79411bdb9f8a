package model

// User represents an account from the users table.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Password string `json:"-"`
	Role     string `json:"role"`
}

// Roles.
const (
	RoleAdmin     = "admin"
	RoleModerator = "moder"
	RoleSpectator = "spectator"
)

// Actions gated by role.
const (
	ActionView       = "view"
	ActionAdd        = "add"
	ActionGenerateID = "generate_id"
	ActionEdit       = "edit"
	ActionDelete     = "delete"
)

var permissions = map[string][]string{
	RoleSpectator: {ActionView},
	RoleModerator: {ActionView, ActionAdd, ActionGenerateID},
	RoleAdmin:     {ActionView, ActionAdd, ActionGenerateID, ActionEdit, ActionDelete},
}

// RoleAtLeast checks if role meets or exceeds the minimum required role.
func RoleAtLeast(role, minimum string) bool {
	levels := map[string]int{
		RoleAdmin:     3,
		RoleModerator: 2,
		RoleSpectator: 1,
	}
	return levels[role] >= levels[minimum] && levels[minimum] > 0
}

// Can reports whether role is allowed to perform action.
func Can(role, action string) bool {
	for _, a := range permissions[role] {
		if a == action {
			return true
		}
	}
	return false
}

// Permissions returns the actions role may perform, in a stable order.
func Permissions(role string) []string {
	return append([]string{}, permissions[role]...)
}

// ValidRole reports whether role is one of the known roles.
func ValidRole(role string) bool {
	_, ok := permissions[role]
	return ok
}

// PublicRole reports whether role may be chosen at self-registration.
// Moderators are assigned by an admin.
func PublicRole(role string) bool {
	return role == RoleSpectator || role == RoleAdmin
}
