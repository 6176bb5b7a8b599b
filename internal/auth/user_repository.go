package auth

import "errors"

// UserRepository defines operations for account persistence; swapping the
// in-memory implementation for a database-backed one never touches
// internal/api.
type UserRepository interface {
	GetUserByUsername(username string) (*User, error)
	GetUserByID(id uint64) (*User, error)
	CreateUser(username string, passwordHash string, isAdmin bool) (*User, error)
	ValidateCredentials(username, password string) (*User, error)
}

var (
	ErrUserNotFound = errors.New("user not found")
	ErrUserExists   = errors.New("user already exists")
)
