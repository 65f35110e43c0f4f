package models

// Roles the backend assigns to authenticated users.
const (
	RoleAdmin    = "admin"
	RoleEmployee = "employee"
)

// User represents the authenticated user as reported by the backend.
type User struct {
	Username   string `json:"username"`
	Role       string `json:"role"`
	FullName   string `json:"full_name,omitempty"`
	Department string `json:"department,omitempty"`
}

// IsAdmin reports whether the user may reach the admin dashboard.
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// DisplayName prefers the full name when the backend provided one.
func (u User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.Username
}

// Token is the credential issued at login. The access token stays opaque to
// the client apart from the expiry claim inspected at startup.
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	Role        string `json:"role"`
	Username    string `json:"username"`
	SessionID   string `json:"session_id"`
}
