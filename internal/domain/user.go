package domain

import "time"

// UserRole distinguishes regular users from administrators.
type UserRole string

const (
	RoleUser  UserRole = "user"
	RoleAdmin UserRole = "admin"
)

// User is the domain model for accounts that submit and work tickets.
type User struct {
	ID           string
	Username     string
	Email        string
	Name         string
	Role         UserRole
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Ref returns the embeddable reference for ticket responses.
func (u *User) Ref() UserRef {
	return UserRef{ID: u.ID, Username: u.Username, Name: u.Name}
}

// UserRef is the slice of a user exposed on tickets and comments. It
// never carries credentials.
type UserRef struct {
	ID       string
	Username string
	Name     string
}
