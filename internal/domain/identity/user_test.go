package identity

import (
	"strings"
	"testing"

	"github.com/gmja/storefront/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUser(t *testing.T) {
	t.Run("creates active user with hashed password", func(t *testing.T) {
		user, err := NewUser("alice", "alice@Example.COM", "s3cret-pass")

		require.NoError(t, err)
		assert.Equal(t, "alice", user.Username)
		assert.Equal(t, "alice@example.com", user.Email)
		assert.True(t, user.IsActive)
		assert.False(t, user.IsStaff)
		assert.NotEqual(t, "s3cret-pass", user.PasswordHash)
		assert.NotNil(t, user.PasswordChangedAt)
		assert.False(t, user.DateJoined.IsZero())
	})

	t.Run("accepts username punctuation", func(t *testing.T) {
		_, err := NewUser("j.doe+shop@home-1_x", "", "s3cret-pass")
		assert.NoError(t, err)
	})

	t.Run("fails with empty username", func(t *testing.T) {
		_, err := NewUser("  ", "", "s3cret-pass")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cannot be empty")
	})

	t.Run("fails with invalid characters", func(t *testing.T) {
		_, err := NewUser("bad name", "", "s3cret-pass")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "may contain only")
	})

	t.Run("fails with long username", func(t *testing.T) {
		_, err := NewUser(strings.Repeat("a", 151), "", "s3cret-pass")
		assert.Error(t, err)
	})

	t.Run("fails with invalid email", func(t *testing.T) {
		_, err := NewUser("alice", "not-an-email", "s3cret-pass")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Invalid email")
	})

	t.Run("fails with short password", func(t *testing.T) {
		_, err := NewUser("alice", "", "short")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "at least 8 characters")
	})
}

func TestUser_CheckPassword(t *testing.T) {
	user, err := NewUser("bob", "", "first-password")
	require.NoError(t, err)

	assert.True(t, user.CheckPassword("first-password"))
	assert.False(t, user.CheckPassword("wrong-password"))

	require.NoError(t, user.SetPassword("second-password"))
	assert.False(t, user.CheckPassword("first-password"))
	assert.True(t, user.CheckPassword("second-password"))

	empty := &User{}
	assert.False(t, empty.CheckPassword(""))
}

func TestNewSuperuser(t *testing.T) {
	user, err := NewSuperuser("admin", "admin@example.com", "admin-password")
	require.NoError(t, err)
	assert.True(t, user.IsStaff)
	assert.True(t, user.IsSuperuser)
}

func TestUser_CanManage(t *testing.T) {
	alice := &User{Model: shared.Model{ID: 1}}
	bob := &User{Model: shared.Model{ID: 2}}
	staff := &User{Model: shared.Model{ID: 3}, IsStaff: true}

	assert.True(t, alice.CanManage(alice))
	assert.False(t, alice.CanManage(bob))
	assert.True(t, staff.CanManage(bob))
	assert.False(t, (*User)(nil).CanManage(bob))
}

func TestUser_DisplayName(t *testing.T) {
	user := &User{Username: "carol"}
	assert.Equal(t, "carol", user.DisplayName())
	require.NoError(t, user.SetName("  Carol King "))
	assert.Equal(t, "Carol King", user.DisplayName())
}

func TestGenerateTokenKey(t *testing.T) {
	key, err := GenerateTokenKey()
	require.NoError(t, err)
	assert.Len(t, key, 40)
	assert.Regexp(t, `^[0-9a-f]{40}$`, key)

	other, err := GenerateTokenKey()
	require.NoError(t, err)
	assert.NotEqual(t, key, other)
}

func TestErrorsMatchByCode(t *testing.T) {
	err := shared.NewDomainError("INVALID_CREDENTIALS", "different wording")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}
