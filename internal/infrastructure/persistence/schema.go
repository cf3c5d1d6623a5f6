package persistence

import (
	"context"
	"fmt"

	"github.com/gmja/storefront/internal/domain/activity"
	"github.com/gmja/storefront/internal/domain/basket"
	"github.com/gmja/storefront/internal/domain/catalog"
	"github.com/gmja/storefront/internal/domain/identity"
	"github.com/gmja/storefront/internal/domain/order"
	"github.com/gmja/storefront/internal/domain/wishlist"
	"gorm.io/gorm"
)

// Models lists every persisted entity in dependency order
func Models() []any {
	return []any{
		&identity.User{},
		&identity.AuthToken{},
		&catalog.Category{},
		&catalog.Product{},
		&catalog.Review{},
		&basket.Basket{},
		&basket.Line{},
		&order.Order{},
		&order.Line{},
		&wishlist.Entry{},
		&activity.Action{},
		&activity.Follow{},
	}
}

// AutoMigrate creates the schema from the entity definitions. SQLite
// databases (tests, local development) use it; PostgreSQL deployments run
// the SQL migrations instead.
func AutoMigrate(ctx context.Context, db *gorm.DB) error {
	if err := db.WithContext(ctx).AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
