package basket

import (
	"context"
	"testing"
	"time"

	"github.com/gmja/storefront/internal/domain/basket"
	"github.com/gmja/storefront/internal/domain/catalog"
	"github.com/gmja/storefront/internal/domain/shared"
	"github.com/gmja/storefront/internal/infrastructure/persistence"
	"github.com/gmja/storefront/internal/infrastructure/persistence/persistencetest"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newBasketService(t *testing.T) (*BasketService, *gorm.DB) {
	t.Helper()
	db := persistencetest.NewSQLite(t)
	svc := NewBasketService(
		persistence.NewGormBasketRepository(db),
		persistence.NewGormProductRepository(db),
		nil,
	)
	return svc, db
}

func seedProduct(t *testing.T, db *gorm.DB, title, price string, stock int, active bool) *catalog.Product {
	t.Helper()
	p, err := catalog.NewProduct(catalog.ProductInput{
		Title:    title,
		Price:    decimal.RequireFromString(price),
		Stock:    stock,
		IsActive: active,
	})
	require.NoError(t, err)
	require.NoError(t, persistence.NewGormProductRepository(db).Save(context.Background(), p))
	return p
}

func TestBasketService_Get(t *testing.T) {
	svc, _ := newBasketService(t)
	ctx := context.Background()

	b, err := svc.Get(ctx, Ref{})
	require.NoError(t, err)
	assert.True(t, b.IsNew())
	assert.True(t, b.IsEmpty())

	b, err = svc.Get(ctx, Ref{BasketID: 404})
	require.NoError(t, err)
	assert.True(t, b.IsNew(), "unknown session basket starts over")
}

func TestBasketService_AddProduct(t *testing.T) {
	svc, db := newBasketService(t)
	ctx := context.Background()
	coffee := seedProduct(t, db, "Coffee", "12.00", 5, true)

	b, err := svc.AddProduct(ctx, Ref{}, coffee.ID, 2)
	require.NoError(t, err)
	require.NotZero(t, b.ID)

	ref := Ref{BasketID: b.ID}
	b, err = svc.AddProduct(ctx, ref, coffee.ID, 0)
	require.NoError(t, err)
	require.Len(t, b.Lines, 1)
	assert.Equal(t, 3, b.Lines[0].Quantity)
	assert.Equal(t, "36", b.Total().String())

	_, err = svc.AddProduct(ctx, ref, coffee.ID, 3)
	assert.ErrorIs(t, err, shared.ErrInsufficientStock)

	t.Run("inactive products cannot be added", func(t *testing.T) {
		hidden := seedProduct(t, db, "Hidden", "1.00", 5, false)
		_, err := svc.AddProduct(ctx, ref, hidden.ID, 1)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("user baskets are found by owner", func(t *testing.T) {
		uid := uint(7)
		first, err := svc.AddProduct(ctx, Ref{UserID: &uid}, coffee.ID, 1)
		require.NoError(t, err)
		again, err := svc.Get(ctx, Ref{UserID: &uid})
		require.NoError(t, err)
		assert.Equal(t, first.ID, again.ID)
	})

	t.Run("session cannot continue an owned basket", func(t *testing.T) {
		uid := uint(8)
		owned, err := svc.AddProduct(ctx, Ref{UserID: &uid}, coffee.ID, 1)
		require.NoError(t, err)
		b, err := svc.Get(ctx, Ref{BasketID: owned.ID})
		require.NoError(t, err)
		assert.True(t, b.IsNew())
	})
}

func TestBasketService_UpdateLine(t *testing.T) {
	svc, db := newBasketService(t)
	ctx := context.Background()
	rum := seedProduct(t, db, "Rum", "20.00", 4, true)
	cake := seedProduct(t, db, "Cake", "5.00", 10, true)

	b, err := svc.AddProduct(ctx, Ref{}, rum.ID, 1)
	require.NoError(t, err)
	ref := Ref{BasketID: b.ID}
	b, err = svc.AddProduct(ctx, ref, cake.ID, 2)
	require.NoError(t, err)
	rumLine, cakeLine := b.Lines[0].ID, b.Lines[1].ID

	b, err = svc.UpdateLine(ctx, ref, rumLine, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, b.Line(rumLine).Quantity)

	_, err = svc.UpdateLine(ctx, ref, rumLine, 5)
	assert.ErrorIs(t, err, shared.ErrInsufficientStock)

	b, err = svc.RemoveLine(ctx, ref, cakeLine)
	require.NoError(t, err)
	assert.Nil(t, b.Line(cakeLine))

	_, err = svc.UpdateLine(ctx, ref, 9999, 1)
	assert.ErrorIs(t, err, basket.ErrLineNotFound)

	_, err = svc.UpdateLine(ctx, Ref{}, rumLine, 1)
	assert.ErrorIs(t, err, basket.ErrLineNotFound, "another shopper's line is invisible")

	stored, err := svc.Get(ctx, ref)
	require.NoError(t, err)
	require.Len(t, stored.Lines, 1)
	assert.Equal(t, rumLine, stored.Lines[0].ID)
}

func TestBasketService_MergeOnLogin(t *testing.T) {
	ctx := context.Background()

	t.Run("adopts anonymous basket", func(t *testing.T) {
		svc, db := newBasketService(t)
		p := seedProduct(t, db, "Bun", "3.00", 10, true)
		anon, err := svc.AddProduct(ctx, Ref{}, p.ID, 2)
		require.NoError(t, err)

		uid := uint(1)
		merged, err := svc.MergeOnLogin(ctx, uid, anon.ID)
		require.NoError(t, err)
		require.NotNil(t, merged)
		assert.Equal(t, anon.ID, merged.ID)
		require.NotNil(t, merged.OwnerID)
		assert.Equal(t, uid, *merged.OwnerID)
	})

	t.Run("merges into existing basket", func(t *testing.T) {
		svc, db := newBasketService(t)
		bun := seedProduct(t, db, "Bun", "3.00", 10, true)
		cheese := seedProduct(t, db, "Cheese", "4.00", 10, true)
		uid := uint(2)

		owned, err := svc.AddProduct(ctx, Ref{UserID: &uid}, bun.ID, 1)
		require.NoError(t, err)
		anon, err := svc.AddProduct(ctx, Ref{}, bun.ID, 2)
		require.NoError(t, err)
		_, err = svc.AddProduct(ctx, Ref{BasketID: anon.ID}, cheese.ID, 1)
		require.NoError(t, err)

		merged, err := svc.MergeOnLogin(ctx, uid, anon.ID)
		require.NoError(t, err)
		assert.Equal(t, owned.ID, merged.ID)
		assert.Equal(t, 4, merged.NumItems())

		stale, err := persistence.NewGormBasketRepository(db).FindByID(ctx, anon.ID)
		require.NoError(t, err)
		assert.Equal(t, basket.StatusMerged, stale.Status)
		assert.Empty(t, stale.Lines)
	})

	t.Run("nothing to merge", func(t *testing.T) {
		svc, _ := newBasketService(t)
		merged, err := svc.MergeOnLogin(ctx, 3, 0)
		require.NoError(t, err)
		assert.Nil(t, merged)
	})
}

func TestBasketService_PurgeAbandoned(t *testing.T) {
	ctx := context.Background()
	svc, db := newBasketService(t)
	bun := seedProduct(t, db, "Bun", "3.00", 10, true)
	uid := uint(7)

	old, err := svc.AddProduct(ctx, Ref{}, bun.ID, 1)
	require.NoError(t, err)
	fresh, err := svc.AddProduct(ctx, Ref{}, bun.ID, 1)
	require.NoError(t, err)
	owned, err := svc.AddProduct(ctx, Ref{UserID: &uid}, bun.ID, 1)
	require.NoError(t, err)

	lastWeek := time.Now().Add(-7 * 24 * time.Hour)
	require.NoError(t, db.Model(&basket.Basket{}).
		Where("id IN ?", []uint{old.ID, owned.ID}).
		UpdateColumn("updated_at", lastWeek).Error)

	n, err := svc.PurgeAbandoned(ctx, 48*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	repo := persistence.NewGormBasketRepository(db)
	_, err = repo.FindByID(ctx, old.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
	_, err = repo.FindByID(ctx, fresh.ID)
	assert.NoError(t, err)
	_, err = repo.FindByID(ctx, owned.ID)
	assert.NoError(t, err, "baskets of users are kept")

	var lines int64
	require.NoError(t, db.Model(&basket.Line{}).Where("basket_id = ?", old.ID).Count(&lines).Error)
	assert.Zero(t, lines)
}
