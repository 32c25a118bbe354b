package models_test

import (
	"testing"

	"github.com/bookifyapp/server/apperr"
	"github.com/bookifyapp/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestNewCollection_Defaults(t *testing.T) {
	user := primitive.NewObjectID()
	c := models.NewCollection(user, "Sci-fi", "space operas")

	assert.Equal(t, user, c.User)
	assert.True(t, c.Deletable)
	assert.Empty(t, c.Books)
}

func TestNewDefaultCollection(t *testing.T) {
	c := models.NewDefaultCollection(primitive.NewObjectID())
	assert.Equal(t, models.DefaultCollectionTitle, c.Title)
	assert.False(t, c.Deletable)
}

func TestAddRemoveBook(t *testing.T) {
	c := models.NewCollection(primitive.NewObjectID(), "t", "d")
	b1, b2 := primitive.NewObjectID(), primitive.NewObjectID()

	require.NoError(t, c.AddBook(b1))
	require.NoError(t, c.AddBook(b2))
	assert.True(t, c.Contains(b1))

	err := c.AddBook(b1)
	assert.True(t, apperr.Is(err, apperr.ErrConflict))
	assert.Len(t, c.Books, 2)

	require.NoError(t, c.RemoveBook(b1))
	assert.False(t, c.Contains(b1))
	assert.True(t, c.Contains(b2))

	err = c.RemoveBook(b1)
	assert.True(t, apperr.Is(err, apperr.ErrConflict))
}

func TestEmpty(t *testing.T) {
	c := models.NewCollection(primitive.NewObjectID(), "t", "d")

	err := c.Empty()
	assert.True(t, apperr.Is(err, apperr.ErrConflict))

	require.NoError(t, c.AddBook(primitive.NewObjectID()))
	require.NoError(t, c.Empty())
	assert.Empty(t, c.Books)
}

func TestCanDelete_Guards(t *testing.T) {
	user := primitive.NewObjectID()

	// The default collection can never be removed, even when empty.
	def := models.NewDefaultCollection(user)
	err := def.CanDelete()
	assert.True(t, apperr.Is(err, apperr.ErrConflict))

	// A deletable collection holding books must be emptied first.
	c := models.NewCollection(user, "t", "d")
	require.NoError(t, c.AddBook(primitive.NewObjectID()))
	err = c.CanDelete()
	assert.True(t, apperr.Is(err, apperr.ErrConflict))

	// Empty and deletable passes.
	require.NoError(t, c.Empty())
	assert.NoError(t, c.CanDelete())
}

func TestDefaultCollectionFlow(t *testing.T) {
	// Default Bookmarks collection: delete refused, add a book, delete still
	// refused, remove the book, delete refused because it is not deletable.
	def := models.NewDefaultCollection(primitive.NewObjectID())
	b1 := primitive.NewObjectID()

	assert.Error(t, def.CanDelete())

	require.NoError(t, def.AddBook(b1))
	assert.Error(t, def.CanDelete())

	require.NoError(t, def.RemoveBook(b1))
	assert.Error(t, def.CanDelete())
}

func TestRename(t *testing.T) {
	c := models.NewCollection(primitive.NewObjectID(), "t", "d")

	err := c.Rename(nil, nil)
	assert.True(t, apperr.Is(err, apperr.ErrValidation))

	title := "Favourites"
	require.NoError(t, c.Rename(&title, nil))
	assert.Equal(t, "Favourites", c.Title)
	assert.Equal(t, "d", c.Description)

	desc := "books I keep rereading"
	require.NoError(t, c.Rename(nil, &desc))
	assert.Equal(t, "Favourites", c.Title)
	assert.Equal(t, "books I keep rereading", c.Description)
}

func TestIsOwner(t *testing.T) {
	user := primitive.NewObjectID()
	c := models.NewCollection(user, "t", "d")
	assert.True(t, c.IsOwner(user))
	assert.False(t, c.IsOwner(primitive.NewObjectID()))
}
