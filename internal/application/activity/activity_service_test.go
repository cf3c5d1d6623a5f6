package activity

import (
	"context"
	"testing"

	"github.com/gmja/storefront/internal/domain/activity"
	"github.com/gmja/storefront/internal/domain/catalog"
	"github.com/gmja/storefront/internal/domain/identity"
	"github.com/gmja/storefront/internal/domain/order"
	"github.com/gmja/storefront/internal/domain/shared"
	"github.com/gmja/storefront/internal/infrastructure/event"
	"github.com/gmja/storefront/internal/infrastructure/persistence"
	"github.com/gmja/storefront/internal/infrastructure/persistence/persistencetest"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type activityFixture struct {
	db     *gorm.DB
	svc    *ActivityService
	users  *persistence.GormUserRepository
	anna   *identity.User
	ben    *identity.User
	coffee *catalog.Product
}

func newActivityFixture(t *testing.T) *activityFixture {
	t.Helper()
	db := persistencetest.NewSQLite(t)
	ctx := context.Background()

	users := persistence.NewGormUserRepository(db)
	products := persistence.NewGormProductRepository(db)
	resolver := Finders{
		activity.ContentTypeUser:     Finder(users.FindByID),
		activity.ContentTypeProduct:  Finder(products.FindByID),
		activity.ContentTypeCategory: Finder(persistence.NewGormCategoryRepository(db).FindByID),
		activity.ContentTypeOrder:    Finder(persistence.NewGormOrderRepository(db).FindByID),
	}
	svc := NewActivityService(persistence.NewGormActionRepository(db), persistence.NewGormFollowRepository(db), resolver, nil)

	newUser := func(name string) *identity.User {
		u, err := identity.NewUser(name, name+"@example.com", "correct-horse")
		require.NoError(t, err)
		require.NoError(t, users.Create(ctx, u))
		return u
	}
	coffee, err := catalog.NewProduct(catalog.ProductInput{Title: "Coffee", Price: decimal.NewFromInt(5), Stock: 3, IsActive: true})
	require.NoError(t, err)
	require.NoError(t, products.Save(ctx, coffee))

	return &activityFixture{db: db, svc: svc, users: users, anna: newUser("anna"), ben: newUser("ben"), coffee: coffee}
}

func userRef(u *identity.User) activity.Ref {
	return activity.Ref{Type: activity.ContentTypeUser, ID: u.ID}
}

func TestActivityService_Follow(t *testing.T) {
	f := newActivityFixture(t)
	ctx := context.Background()
	product := activity.Ref{Type: activity.ContentTypeProduct, ID: f.coffee.ID}

	_, err := f.svc.Follow(ctx, f.anna.ID, product, false)
	require.NoError(t, err)
	_, err = f.svc.Follow(ctx, f.anna.ID, product, false)
	require.NoError(t, err, "following twice is idempotent")

	count, err := f.svc.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count, "only the first follow is recorded")

	followers, err := f.svc.Followers(ctx, product, shared.Filter{})
	require.NoError(t, err)
	require.EqualValues(t, 1, followers.Total)
	assert.Equal(t, f.anna.ID, followers.Items[0].UserID)

	following, err := f.svc.Following(ctx, f.anna.ID)
	require.NoError(t, err)
	require.Len(t, following, 1)
	assert.Equal(t, product, following[0].Object)

	ok, err := f.svc.IsFollowing(ctx, f.anna.ID, product)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, f.svc.Unfollow(ctx, f.anna.ID, product))
	require.NoError(t, f.svc.Unfollow(ctx, f.anna.ID, product))
	ok, err = f.svc.IsFollowing(ctx, f.anna.ID, product)
	require.NoError(t, err)
	assert.False(t, ok)

	t.Run("missing object", func(t *testing.T) {
		_, err := f.svc.Follow(ctx, f.anna.ID, activity.Ref{Type: activity.ContentTypeProduct, ID: 999}, false)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("self follow", func(t *testing.T) {
		_, err := f.svc.Follow(ctx, f.anna.ID, userRef(f.anna), false)
		var de *shared.DomainError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, "INVALID_FOLLOW", de.Code)
	})

	t.Run("unknown content type", func(t *testing.T) {
		_, err := f.svc.Followers(ctx, activity.Ref{Type: "invoice", ID: 1}, shared.Filter{})
		assert.ErrorIs(t, err, activity.ErrUnknownContentType)
	})
}

func TestActivityService_Streams(t *testing.T) {
	f := newActivityFixture(t)
	ctx := context.Background()
	product := activity.Ref{Type: activity.ContentTypeProduct, ID: f.coffee.ID}

	// anna follows ben; ben follows the product
	_, err := f.svc.Follow(ctx, f.anna.ID, userRef(f.ben), true)
	require.NoError(t, err)
	_, err = f.svc.Follow(ctx, f.ben.ID, product, false)
	require.NoError(t, err)

	reviewed, err := activity.NewAction(userRef(f.anna), activity.VerbReviewed)
	require.NoError(t, err)
	require.NoError(t, f.svc.Record(ctx, reviewed.WithTarget(product)))

	secret, err := activity.NewAction(userRef(f.ben), activity.VerbPlacedOrder)
	require.NoError(t, err)
	require.NoError(t, f.svc.Record(ctx, secret.Private()))

	t.Run("actor stream is public actions by the actor", func(t *testing.T) {
		page, err := f.svc.ActorStream(ctx, userRef(f.ben), shared.Filter{})
		require.NoError(t, err)
		require.EqualValues(t, 1, page.Total)
		assert.Equal(t, activity.VerbStartedFollowing, page.Items[0].Verb)
	})

	t.Run("anna sees ben's actions only", func(t *testing.T) {
		page, err := f.svc.UserStream(ctx, f.anna.ID, shared.Filter{})
		require.NoError(t, err)
		require.EqualValues(t, 1, page.Total)
		assert.Equal(t, f.ben.ID, page.Items[0].Actor.ID)
	})

	t.Run("ben sees everything touching the product", func(t *testing.T) {
		page, err := f.svc.UserStream(ctx, f.ben.ID, shared.Filter{})
		require.NoError(t, err)
		assert.EqualValues(t, 2, page.Total)
	})

	t.Run("no follows means an empty feed", func(t *testing.T) {
		u, err := identity.NewUser("carl", "carl@example.com", "correct-horse")
		require.NoError(t, err)
		require.NoError(t, f.users.Create(ctx, u))
		page, err := f.svc.UserStream(ctx, u.ID, shared.Filter{})
		require.NoError(t, err)
		assert.Empty(t, page.Items)
	})

	t.Run("private actions are hidden from detail", func(t *testing.T) {
		_, err := f.svc.Get(ctx, secret.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
		got, err := f.svc.Get(ctx, reviewed.ID)
		require.NoError(t, err)
		require.NotNil(t, got.Target)
		assert.Equal(t, product, *got.Target)
	})

	all, err := f.svc.List(ctx, shared.Filter{})
	require.NoError(t, err)
	assert.EqualValues(t, 4, all.Total)

	require.NoError(t, f.svc.Delete(ctx, secret.ID))
	assert.ErrorIs(t, f.svc.Delete(ctx, secret.ID), shared.ErrNotFound)
}

func TestStreamHandler(t *testing.T) {
	f := newActivityFixture(t)
	ctx := context.Background()

	bus := event.NewInMemoryEventBus(zap.NewNop())
	bus.Subscribe(NewStreamHandler(f.svc))

	uid := f.anna.ID
	placed := &order.Order{UserID: &uid, Number: "100001"}
	placed.ID = 1
	guest := &order.Order{Number: "100002"}
	guest.ID = 2
	review := &catalog.Review{ID: 1, ProductID: f.coffee.ID, UserID: &uid, Score: 5}

	require.NoError(t, bus.Publish(ctx,
		order.NewPlacedEvent(placed),
		order.NewPlacedEvent(guest),
		catalog.NewReviewPostedEvent(review),
		identity.NewUserSignedUpEvent(f.ben),
	))

	all, err := f.svc.List(ctx, shared.Filter{})
	require.NoError(t, err)
	require.EqualValues(t, 3, all.Total, "guest order is skipped")

	verbs := map[string]bool{}
	for _, a := range all.Items {
		verbs[a.Verb] = a.Public
	}
	assert.Equal(t, map[string]bool{
		activity.VerbPlacedOrder: false,
		activity.VerbReviewed:    true,
		activity.VerbJoined:      true,
	}, verbs)
}
