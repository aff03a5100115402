package types

import "time"

type UserRole string

const (
	UserRoleOwner  UserRole = "owner"
	UserRoleTenant UserRole = "tenant"
)

// User is the profile of the signed-in account as the server returns it.
type User struct {
	ID           string    `json:"_id" yaml:"id"`
	Name         string    `json:"name" yaml:"name"`
	Email        string    `json:"email" yaml:"email"`
	Phone        string    `json:"phone,omitempty" yaml:"phone,omitempty"`
	Role         UserRole  `json:"role" yaml:"role"`
	ProfileImage string    `json:"profile_image,omitempty" yaml:"profile_image,omitempty"`
	CreatedAt    time.Time `json:"createdAt,omitempty" yaml:"createdAt,omitempty"`
}

func (u User) IsOwner() bool {
	return u.Role == UserRoleOwner
}

// Session is the persisted authentication state.
type Session struct {
	Token           string    `json:"token,omitempty" yaml:"token,omitempty"`
	User            *User     `json:"user,omitempty" yaml:"user,omitempty"`
	IsAuthenticated bool      `json:"isAuthenticated" yaml:"isAuthenticated"`
	ExpiresAt       time.Time `json:"expiresAt,omitempty" yaml:"expiresAt,omitempty"`
}

// Expired reports whether the session token carried an expiry that has passed.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterRequest struct {
	Name     string   `json:"name"`
	Email    string   `json:"email"`
	Password string   `json:"password"`
	Phone    string   `json:"phone,omitempty"`
	Role     UserRole `json:"role"`
}

// AuthResult is the data payload of login and register.
type AuthResult struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

type UpdateProfileRequest struct {
	Name         *string `json:"name,omitempty"`
	Phone        *string `json:"phone,omitempty"`
	ProfileImage *string `json:"profile_image,omitempty"`
}

type UpdatePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}
