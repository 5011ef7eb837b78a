package models

// Role distinguishes regular users from the admin identity.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Identity is the logged-in user.
type Identity struct {
	Username string `json:"username"`
	Role     Role   `json:"role"`
}

// IsAdmin reports whether the identity holds the admin role.
func (i Identity) IsAdmin() bool { return i.Role == RoleAdmin }

// IsZero reports whether nobody is logged in.
func (i Identity) IsZero() bool { return i.Username == "" }

// CacheScope is the key under which this identity's current bookings are cached.
//
// Every admin shares one scope.
func (i Identity) CacheScope() string {
	if i.IsAdmin() {
		return string(RoleAdmin)
	}
	return i.Username
}

// Owns reports whether the booking is visible to this identity.
func (i Identity) Owns(b Booking) bool {
	if i.IsAdmin() {
		return b.Username != ""
	}
	return b.Username == i.Username
}
