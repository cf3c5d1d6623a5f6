package activity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseContentType(t *testing.T) {
	ct, err := ParseContentType("Product")
	require.NoError(t, err)
	assert.Equal(t, ContentTypeProduct, ct)

	_, err = ParseContentType("invoice")
	assert.ErrorIs(t, err, ErrUnknownContentType)
}

func TestNewAction(t *testing.T) {
	a, err := NewAction(Ref{Type: ContentTypeUser, ID: 1}, "reviewed")
	require.NoError(t, err)
	a.WithTarget(Ref{Type: ContentTypeProduct, ID: 9})

	assert.True(t, a.Public)
	require.NotNil(t, a.TargetID)
	assert.Equal(t, uint(9), *a.TargetID)
	assert.Nil(t, a.ObjectID)
	assert.Equal(t, "user reviewed on product", a.String())
	assert.False(t, a.Private().Public)

	_, err = NewAction(Ref{Type: ContentTypeUser, ID: 1}, " ")
	assert.Error(t, err)
	_, err = NewAction(Ref{}, "joined")
	assert.Error(t, err)
}

func TestNewFollow(t *testing.T) {
	f, err := NewFollow(1, Ref{Type: ContentTypeProduct, ID: 1}, false)
	require.NoError(t, err)
	assert.Equal(t, Ref{Type: ContentTypeProduct, ID: 1}, f.Object())

	_, err = NewFollow(1, Ref{Type: ContentTypeUser, ID: 1}, true)
	assert.Error(t, err)
}
