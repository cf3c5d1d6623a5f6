package identity

import (
	"context"

	"github.com/gmja/storefront/internal/domain/shared"
)

// UserRepository defines the interface for user persistence
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	Update(ctx context.Context, user *User) error
	Delete(ctx context.Context, id uint) error
	FindByID(ctx context.Context, id uint) (*User, error)
	// FindByUsername matches the username exactly
	FindByUsername(ctx context.Context, username string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	// FindAll searches username, email and name with the filter's Search
	FindAll(ctx context.Context, filter shared.Filter) ([]User, int64, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Count(ctx context.Context) (int64, error)
}

// AuthTokenRepository stores API tokens
type AuthTokenRepository interface {
	FindByKey(ctx context.Context, key string) (*AuthToken, error)
	FindByUserID(ctx context.Context, userID uint) (*AuthToken, error)
	Create(ctx context.Context, token *AuthToken) error
	DeleteByUserID(ctx context.Context, userID uint) error
}
