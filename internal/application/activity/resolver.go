package activity

import (
	"context"
	"errors"

	"github.com/gmja/storefront/internal/domain/activity"
	"github.com/gmja/storefront/internal/domain/shared"
)

// ObjectResolver checks that a reference points at a stored object
type ObjectResolver interface {
	Exists(ctx context.Context, ref activity.Ref) (bool, error)
}

// FinderFunc loads an object by ID and returns shared.ErrNotFound when it
// is missing
type FinderFunc func(ctx context.Context, id uint) error

// Finders resolves references through one FinderFunc per content type
type Finders map[activity.ContentType]FinderFunc

// Exists implements ObjectResolver
func (f Finders) Exists(ctx context.Context, ref activity.Ref) (bool, error) {
	find, ok := f[ref.Type]
	if !ok {
		return false, activity.ErrUnknownContentType
	}
	if err := find(ctx, ref.ID); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Finder adapts a repository FindByID method
func Finder[T any](find func(ctx context.Context, id uint) (T, error)) FinderFunc {
	return func(ctx context.Context, id uint) error {
		_, err := find(ctx, id)
		return err
	}
}
