package persistence

import (
	"context"
	"testing"

	"github.com/gmja/storefront/internal/domain/catalog"
	"github.com/gmja/storefront/internal/domain/identity"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens a fresh in-memory SQLite database with the full schema
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, AutoMigrate(context.Background(), db))
	return db
}

func createUser(t *testing.T, db *gorm.DB, username string) *identity.User {
	t.Helper()
	user, err := identity.NewUser(username, username+"@example.com", "correct-horse")
	require.NoError(t, err)
	require.NoError(t, NewGormUserRepository(db).Create(context.Background(), user))
	return user
}

func createProduct(t *testing.T, db *gorm.DB, title string, price string, stock int) *catalog.Product {
	t.Helper()
	product, err := catalog.NewProduct(catalog.ProductInput{
		Title:    title,
		Slug:     catalog.Slugify(title),
		Price:    decimal.RequireFromString(price),
		Stock:    stock,
		IsActive: true,
	})
	require.NoError(t, err)
	require.NoError(t, NewGormProductRepository(db).Save(context.Background(), product))
	return product
}
