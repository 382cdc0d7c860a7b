package models

import (
	"errors"
	"strings"
	"time"
)

// UserRole represents valid user roles
type UserRole string

const (
	UserRoleUser      UserRole = "user"
	UserRoleAuthor    UserRole = "author"
	UserRoleModerator UserRole = "moderator"
	UserRoleAdmin     UserRole = "admin"
)

var roleRank = map[UserRole]int{
	UserRoleUser:      0,
	UserRoleAuthor:    1,
	UserRoleModerator: 2,
	UserRoleAdmin:     3,
}

// IsValidRole validates a role against the schema CHECK constraint
func IsValidRole(role string) bool {
	_, ok := roleRank[UserRole(role)]
	return ok
}

// User represents a system user
type User struct {
	ID           string    `json:"id" db:"id"`
	Username     string    `json:"username" db:"username"`
	Email        string    `json:"email,omitempty" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Role         UserRole  `json:"role" db:"role"`
	DisplayName  string    `json:"display_name" db:"display_name"`
	Bio          string    `json:"bio,omitempty" db:"bio"`
	AvatarURL    string    `json:"avatar_url,omitempty" db:"avatar_url"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// RegisterRequest
type RegisterRequest struct {
	Username    string `json:"username" binding:"required"`
	Email       string `json:"email" binding:"required"`
	Password    string `json:"password" binding:"required"`
	DisplayName string `json:"display_name"`
}

// LoginRequest
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// UpdateProfileRequest - nil fields are left untouched
type UpdateProfileRequest struct {
	DisplayName *string `json:"display_name"`
	Bio         *string `json:"bio"`
	AvatarURL   *string `json:"avatar_url"`
}

// UpdateRoleRequest is the body of PUT /admin/users/:id/role
type UpdateRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

// UserProfile - public-facing profile, NO sensitive data
type UserProfile struct {
	ID          string    `json:"id"`
	Username    string    `json:"username"`
	DisplayName string    `json:"display_name"`
	Bio         string    `json:"bio,omitempty"`
	AvatarURL   string    `json:"avatar_url,omitempty"`
	Role        UserRole  `json:"role"`
	CreatedAt   time.Time `json:"created_at"`
}

// Profile strips the private fields of a user
func (u *User) Profile() UserProfile {
	return UserProfile{
		ID:          u.ID,
		Username:    u.Username,
		DisplayName: u.DisplayName,
		Bio:         u.Bio,
		AvatarURL:   u.AvatarURL,
		Role:        u.Role,
		CreatedAt:   u.CreatedAt,
	}
}

// LoginResponse
type LoginResponse struct {
	Token     string      `json:"token"`
	User      UserProfile `json:"user"`
	ExpiresIn int         `json:"expires_in"` // seconds
}

// ValidateRegisterRequest adds additional validation beyond struct tags
func ValidateRegisterRequest(req *RegisterRequest) error {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	if len(req.Username) < 3 || len(req.Username) > 50 {
		return errors.New("username must be between 3 and 50 characters")
	}
	for _, r := range req.Username {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '_' || r == '-') {
			return errors.New("username may only contain letters, digits, '-' and '_'")
		}
	}
	if !strings.Contains(req.Email, "@") {
		return errors.New("email address is invalid")
	}
	if len(req.Password) < 8 || len(req.Password) > 128 {
		return errors.New("password must be between 8 and 128 characters")
	}
	return nil
}

// HasRole checks if user has at least the required role
func (u *User) HasRole(requiredRole UserRole) bool {
	return roleRank[u.Role] >= roleRank[requiredRole]
}
