package identity

import (
	"github.com/gmja/storefront/internal/domain/identity"
	"github.com/gmja/storefront/internal/infrastructure/auth"
)

// Authentication methods reported on a Principal
const (
	MethodSession = "session"
	MethodBearer  = "bearer"
	MethodToken   = "token"
)

// LoginInput contains the input for user login
type LoginInput struct {
	Username string
	Password string
}

// LoginResult contains the user and the session token issued for it
type LoginResult struct {
	User  *identity.User
	Token *auth.IssuedToken
}

// SignupInput mirrors the signup form
type SignupInput struct {
	Username  string
	Email     string
	Password  string
	Password2 string
}

// ChangePasswordInput contains the input for a password change
type ChangePasswordInput struct {
	OldPassword string
	NewPassword string
}

// UpdateProfileInput holds the editable profile fields
type UpdateProfileInput struct {
	Name  string
	Email string
}

// Principal is an authenticated request's user. Claims is nil for API token
// authentication.
type Principal struct {
	User   *identity.User
	Claims *auth.Claims
	Method string
}

// IsStaff reports whether the principal may use staff-only views
func (p *Principal) IsStaff() bool {
	return p != nil && p.User != nil && p.User.IsStaff && p.User.IsActive
}

// AdminUserInput holds the fields staff may edit on the admin site
type AdminUserInput struct {
	Username string `json:"username" form:"username"`
	Email    string `json:"email" form:"email" binding:"omitempty,email"`
	Name     string `json:"name" form:"name" binding:"max=255"`
	Password string `json:"password" form:"password"`
	IsStaff  bool   `json:"is_staff" form:"is_staff"`
	IsActive bool   `json:"is_active" form:"is_active"`
}
