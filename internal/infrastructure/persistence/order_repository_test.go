package persistence

import (
	"context"
	"testing"

	"github.com/gmja/storefront/internal/domain/basket"
	"github.com/gmja/storefront/internal/domain/order"
	"github.com/gmja/storefront/internal/domain/shared"
	"github.com/gmja/storefront/internal/domain/wishlist"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testAddress() order.Address {
	return order.Address{Name: "Ann Lee", Line1: "1 Hope Road", City: "Kingston", Country: "JM"}
}

func orderFromBasket(t *testing.T, b *basket.Basket) *order.Order {
	t.Helper()
	lines := make([]order.Line, 0, len(b.Lines))
	for _, l := range b.Lines {
		lines = append(lines, order.Line{ProductID: l.ProductID, Title: l.Title, Quantity: l.Quantity, UnitPrice: l.PriceExclTax})
	}
	o, err := order.New(b.OwnerID, b.ID, lines, testAddress(), "guest@example.com")
	require.NoError(t, err)
	return o
}

func TestGormBasketRepository_Save(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewGormBasketRepository(db)
	rum := createProduct(t, db, "Dark Rum", "30.00", 5)
	coffee := createProduct(t, db, "Coffee", "18.50", 5)
	user := createUser(t, db, "alice")

	b := basket.New(&user.ID)
	_, err := b.AddProduct(rum, 2)
	require.NoError(t, err)
	_, err = b.AddProduct(coffee, 1)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, b))

	loaded, err := repo.FindOpenByOwner(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Lines, 2)
	rumLine := loaded.Lines[0].ID
	assert.Equal(t, "78.5", loaded.Total().String())

	require.NoError(t, loaded.RemoveLine(loaded.Lines[1].ID))
	require.NoError(t, loaded.UpdateLine(rumLine, 3, rum.Stock))
	require.NoError(t, repo.Save(ctx, loaded))

	reloaded, err := repo.FindByID(ctx, b.ID)
	require.NoError(t, err)
	require.Len(t, reloaded.Lines, 1)
	assert.Equal(t, rumLine, reloaded.Lines[0].ID)
	assert.Equal(t, 3, reloaded.Lines[0].Quantity)

	_, err = repo.FindOpenByOwner(ctx, 999)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGormOrderRepository_Create(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewGormOrderRepository(db)
	rum := createProduct(t, db, "Dark Rum", "30.00", 5)

	b := basket.New(nil)
	_, err := b.AddProduct(rum, 2)
	require.NoError(t, err)
	require.NoError(t, NewGormBasketRepository(db).Save(ctx, b))

	o := orderFromBasket(t, b)
	require.NoError(t, repo.Create(ctx, o))
	assert.Equal(t, order.NumberFor(o.ID), o.Number)

	found, err := repo.FindByNumber(ctx, o.Number)
	require.NoError(t, err)
	require.Len(t, found.Lines, 1)
	assert.Equal(t, "60", found.Total.String())
	assert.Equal(t, "JM", found.ShippingAddress.Country)

	require.NoError(t, found.MarkPaid())
	require.NoError(t, repo.Update(ctx, found))

	filter := shared.DefaultFilter()
	filter.Filters["status"] = string(order.StatusPaid)
	orders, total, err := repo.FindAll(ctx, filter)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, orders, 1)
	assert.Len(t, orders[0].Lines, 1)
}

func TestGormCheckoutStore_PlaceOrder(t *testing.T) {
	ctx := context.Background()

	t.Run("takes stock and submits basket", func(t *testing.T) {
		db := newTestDB(t)
		rum := createProduct(t, db, "Dark Rum", "30.00", 5)
		b := basket.New(nil)
		_, err := b.AddProduct(rum, 2)
		require.NoError(t, err)
		require.NoError(t, NewGormBasketRepository(db).Save(ctx, b))

		o := orderFromBasket(t, b)
		require.NoError(t, NewGormCheckoutStore(db).PlaceOrder(ctx, b, o))

		product, err := NewGormProductRepository(db).FindByID(ctx, rum.ID)
		require.NoError(t, err)
		assert.Equal(t, 3, product.Stock)

		stored, err := NewGormBasketRepository(db).FindByID(ctx, b.ID)
		require.NoError(t, err)
		assert.Equal(t, basket.StatusSubmitted, stored.Status)
		assert.NotEmpty(t, o.Number)
	})

	t.Run("rolls back when stock ran out", func(t *testing.T) {
		db := newTestDB(t)
		rum := createProduct(t, db, "Dark Rum", "30.00", 5)
		coffee := createProduct(t, db, "Coffee", "18.50", 5)
		b := basket.New(nil)
		_, err := b.AddProduct(rum, 2)
		require.NoError(t, err)
		_, err = b.AddProduct(coffee, 4)
		require.NoError(t, err)
		require.NoError(t, NewGormBasketRepository(db).Save(ctx, b))

		// someone else bought the coffee in the meantime
		require.NoError(t, db.Model(coffee).Update("stock", 1).Error)

		err = NewGormCheckoutStore(db).PlaceOrder(ctx, b, orderFromBasket(t, b))
		assert.ErrorIs(t, err, shared.ErrInsufficientStock)

		product, err := NewGormProductRepository(db).FindByID(ctx, rum.ID)
		require.NoError(t, err)
		assert.Equal(t, 5, product.Stock)

		count, err := NewGormOrderRepository(db).Count(ctx)
		require.NoError(t, err)
		assert.Zero(t, count)

		var status string
		require.NoError(t, db.Model(&basket.Basket{}).Where("id = ?", b.ID).Pluck("status", &status).Error)
		assert.Equal(t, string(basket.StatusOpen), status)
	})
}

func TestGormWishlistRepository(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewGormWishlistRepository(db)
	user := createUser(t, db, "alice")
	rum := createProduct(t, db, "Dark Rum", "30.00", 5)

	require.NoError(t, repo.Add(ctx, wishlist.NewEntry(user.ID, rum.ID)))
	require.NoError(t, repo.Add(ctx, wishlist.NewEntry(user.ID, rum.ID)))

	ids, err := repo.ProductIDs(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint{rum.ID}, ids)

	ok, err := repo.Contains(ctx, user.ID, rum.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, repo.Remove(ctx, user.ID, rum.ID))
	ok, err = repo.Contains(ctx, user.ID, rum.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}


