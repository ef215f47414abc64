package domain

import "time"

// Role is one of the three fixed access levels.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleUser    Role = "user"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleUser:
		return true
	}
	return false
}

// MaxUsernameLength is the longest username the stores accept, in characters.
const MaxUsernameLength = 64

// AuthProvider records how an account was created or last linked.
type AuthProvider string

const (
	ProviderLocal  AuthProvider = "local"
	ProviderGoogle AuthProvider = "google"
)

// User models an account. PasswordHash and ExternalID never leave the
// process in JSON; an account holds at least one of them.
type User struct {
	ID             uint         `json:"id"`
	Username       string       `json:"username"`
	Email          string       `json:"email,omitempty"`
	PasswordHash   string       `json:"-"`
	ExternalID     string       `json:"-"`
	FirstName      string       `json:"first_name,omitempty"`
	LastName       string       `json:"last_name,omitempty"`
	ProfilePicture string       `json:"profile_picture,omitempty"`
	AuthProvider   AuthProvider `json:"auth_provider"`
	Role           Role         `json:"role"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

// HasPassword reports whether the account can log in locally.
func (u *User) HasPassword() bool {
	return u.PasswordHash != ""
}

// FillProfile copies the given profile fields into the ones still empty.
// Existing values are never overwritten.
func (u *User) FillProfile(firstName, lastName, picture string) {
	if u.FirstName == "" {
		u.FirstName = firstName
	}
	if u.LastName == "" {
		u.LastName = lastName
	}
	if u.ProfilePicture == "" {
		u.ProfilePicture = picture
	}
}
