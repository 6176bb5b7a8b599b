package auth

import "time"

// User represents an operator/player account for the admin REST surface.
// This core's own session handshake (internal/network) never authenticates
// against it — a connected game client is just a pawn spawned on Ready —
// this account layer exists only for the admin/status API (internal/api).
type User struct {
	ID           uint64
	Username     string
	PasswordHash string
	CreatedAt    time.Time
	LastLogin    time.Time
	IsAdmin      bool
	Role         string
}

// GetRole reports the user's role, defaulting to "admin"/"user" from
// IsAdmin when Role hasn't been set explicitly.
func (u *User) GetRole() string {
	if u.Role != "" {
		return u.Role
	}
	if u.IsAdmin {
		return "admin"
	}
	return "user"
}
