package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/gmja/storefront/internal/domain/activity"
	"github.com/gmja/storefront/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(t *testing.T, repo *GormActionRepository, actor activity.Ref, verb string, object *activity.Ref, at time.Time) *activity.Action {
	t.Helper()
	action, err := activity.NewAction(actor, verb)
	require.NoError(t, err)
	if object != nil {
		action.WithObject(*object)
	}
	action.Timestamp = at
	require.NoError(t, repo.Create(context.Background(), action))
	return action
}

func TestGormActionRepository_Streams(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	actions := NewGormActionRepository(db)

	alice := activity.Ref{Type: activity.ContentTypeUser, ID: 1}
	bob := activity.Ref{Type: activity.ContentTypeUser, ID: 2}
	rum := activity.Ref{Type: activity.ContentTypeProduct, ID: 7}
	now := time.Now()

	first := record(t, actions, alice, activity.VerbJoined, nil, now.Add(-3*time.Minute))
	second := record(t, actions, bob, activity.VerbReviewed, &rum, now.Add(-2*time.Minute))
	hidden := record(t, actions, alice, activity.VerbPlacedOrder, nil, now.Add(-time.Minute))
	hidden.Private()
	require.NoError(t, db.Save(hidden).Error)

	t.Run("actor stream excludes private actions", func(t *testing.T) {
		list, total, err := actions.FindByActor(ctx, alice, shared.DefaultFilter())
		require.NoError(t, err)
		assert.EqualValues(t, 1, total)
		require.Len(t, list, 1)
		assert.Equal(t, first.ID, list[0].ID)
	})

	t.Run("actor-only follow matches the actor", func(t *testing.T) {
		follows := []activity.Follow{{UserID: 3, ObjectType: rum.Type, ObjectID: rum.ID, ActorOnly: true}}
		_, total, err := actions.FindForFollows(ctx, follows, shared.DefaultFilter())
		require.NoError(t, err)
		assert.Zero(t, total)
	})

	t.Run("full follow matches object and is newest first", func(t *testing.T) {
		follows := []activity.Follow{
			{UserID: 3, ObjectType: rum.Type, ObjectID: rum.ID},
			{UserID: 3, ObjectType: alice.Type, ObjectID: alice.ID, ActorOnly: true},
		}
		list, total, err := actions.FindForFollows(ctx, follows, shared.DefaultFilter())
		require.NoError(t, err)
		assert.EqualValues(t, 2, total)
		require.Len(t, list, 2)
		assert.Equal(t, second.ID, list[0].ID)
		assert.Equal(t, first.ID, list[1].ID)
	})

	t.Run("no follows means an empty stream", func(t *testing.T) {
		list, total, err := actions.FindForFollows(ctx, nil, shared.DefaultFilter())
		require.NoError(t, err)
		assert.Zero(t, total)
		assert.Empty(t, list)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, actions.Delete(ctx, first.ID))
		_, err := actions.FindByID(ctx, first.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
		assert.ErrorIs(t, actions.Delete(ctx, first.ID), shared.ErrNotFound)
	})
}

func TestGormFollowRepository(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewGormFollowRepository(db)
	rum := activity.Ref{Type: activity.ContentTypeProduct, ID: 7}

	follow, err := activity.NewFollow(1, rum, false)
	require.NoError(t, err)
	created, err := repo.Create(ctx, follow)
	require.NoError(t, err)
	assert.True(t, created)

	again, err := activity.NewFollow(1, rum, false)
	require.NoError(t, err)
	created, err = repo.Create(ctx, again)
	require.NoError(t, err)
	assert.False(t, created)

	other, err := activity.NewFollow(2, rum, true)
	require.NoError(t, err)
	_, err = repo.Create(ctx, other)
	require.NoError(t, err)

	followers, total, err := repo.FindByObject(ctx, rum, shared.DefaultFilter())
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, followers, 2)

	mine, err := repo.FindByUser(ctx, 2)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.True(t, mine[0].ActorOnly)

	require.NoError(t, repo.Delete(ctx, 1, rum))
	exists, err := repo.Exists(ctx, 1, rum)
	require.NoError(t, err)
	assert.False(t, exists)
}
