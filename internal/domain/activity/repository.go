package activity

import (
	"context"

	"github.com/gmja/storefront/internal/domain/shared"
)

// ActionRepository stores stream actions
type ActionRepository interface {
	Create(ctx context.Context, action *Action) error
	FindByID(ctx context.Context, id uint) (*Action, error)
	Delete(ctx context.Context, id uint) error
	// FindByActor lists public actions performed by ref, newest first
	FindByActor(ctx context.Context, ref Ref, filter shared.Filter) ([]Action, int64, error)
	// FindForFollows lists public actions matching any follow, newest first.
	// Actor-only follows match the actor; others also match target and object.
	FindForFollows(ctx context.Context, follows []Follow, filter shared.Filter) ([]Action, int64, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]Action, int64, error)
	Count(ctx context.Context) (int64, error)
}

// FollowRepository stores follows
type FollowRepository interface {
	// Create returns false when the follow already existed
	Create(ctx context.Context, follow *Follow) (bool, error)
	Delete(ctx context.Context, userID uint, object Ref) error
	Exists(ctx context.Context, userID uint, object Ref) (bool, error)
	FindByObject(ctx context.Context, object Ref, filter shared.Filter) ([]Follow, int64, error)
	FindByUser(ctx context.Context, userID uint) ([]Follow, error)
}
