package models_test

import (
	"testing"

	"github.com/bookifyapp/server/apperr"
	"github.com/bookifyapp/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newDraftBook(t *testing.T) (*models.Book, primitive.ObjectID) {
	t.Helper()
	author := primitive.NewObjectID()
	return models.NewBook(author, "T", "D"), author
}

func TestNewBook_Defaults(t *testing.T) {
	book, author := newDraftBook(t)

	assert.Equal(t, author, book.Author)
	assert.Equal(t, models.StatusDraft, book.Status)
	assert.Empty(t, book.Chapters)
	assert.Empty(t, book.Likes)
	assert.Empty(t, book.Ratings)
	assert.Empty(t, book.Reviews)
	assert.Empty(t, book.Collaborators)
	assert.Nil(t, book.PublicationDate)
}

func TestSetStatus_SameStatusConflicts(t *testing.T) {
	// A status no-op is a conflict for every status, not just draft.
	for _, status := range []string{models.StatusDraft, models.StatusPublished, models.StatusArchived} {
		t.Run(status, func(t *testing.T) {
			book, _ := newDraftBook(t)
			book.AddChapter("C1", "text")
			if status != models.StatusDraft {
				require.NoError(t, book.SetStatus(status))
			}
			err := book.SetStatus(status)
			assert.True(t, apperr.Is(err, apperr.ErrConflict), "expected conflict, got %v", err)
		})
	}
}

func TestSetStatus_PublishRequiresChapters(t *testing.T) {
	book, _ := newDraftBook(t)

	err := book.SetStatus(models.StatusPublished)
	require.True(t, apperr.Is(err, apperr.ErrValidation), "expected validation error, got %v", err)
	assert.Equal(t, models.StatusDraft, book.Status)
	assert.Nil(t, book.PublicationDate)

	book.AddChapter("C1", "once upon a time")
	require.NoError(t, book.SetStatus(models.StatusPublished))
	assert.Equal(t, models.StatusPublished, book.Status)
	require.NotNil(t, book.PublicationDate)
	assert.False(t, book.PublicationDate.IsZero())
}

func TestSetStatus_LeavingPublishedClearsPublicationDate(t *testing.T) {
	book, _ := newDraftBook(t)
	book.AddChapter("C1", "text")
	require.NoError(t, book.SetStatus(models.StatusPublished))
	require.NotNil(t, book.PublicationDate)

	require.NoError(t, book.SetStatus(models.StatusArchived))
	assert.Nil(t, book.PublicationDate)
}

func TestSetStatus_UnknownStatus(t *testing.T) {
	book, _ := newDraftBook(t)
	err := book.SetStatus("retired")
	assert.True(t, apperr.Is(err, apperr.ErrValidation))
}

func TestChapters_AddUpdateDelete(t *testing.T) {
	book, _ := newDraftBook(t)

	c1 := book.AddChapter("C1", "first")
	c2 := book.AddChapter("C2", "second")
	c3 := book.AddChapter("C3", "third")
	require.Len(t, book.Chapters, 3)

	// Update keeps the chapter in place.
	require.NoError(t, book.UpdateChapter(c2.ID, "C2 revised", "second, revised"))
	assert.Equal(t, "C2 revised", book.Chapters[1].Title)
	assert.Equal(t, "second, revised", book.Chapters[1].Content)
	assert.Equal(t, c2.ID, book.Chapters[1].ID)

	// Delete keeps relative order of the rest.
	require.NoError(t, book.DeleteChapter(c2.ID))
	require.Len(t, book.Chapters, 2)
	assert.Equal(t, c1.ID, book.Chapters[0].ID)
	assert.Equal(t, c3.ID, book.Chapters[1].ID)

	err := book.UpdateChapter(c2.ID, "x", "y")
	assert.True(t, apperr.Is(err, apperr.ErrNotFound))
	err = book.DeleteChapter(c2.ID)
	assert.True(t, apperr.Is(err, apperr.ErrNotFound))
}

func TestLikeUnlike_Symmetry(t *testing.T) {
	book, _ := newDraftBook(t)
	reader := primitive.NewObjectID()

	require.NoError(t, book.Like(reader))
	assert.Equal(t, 1, book.LikesCount())

	err := book.Like(reader)
	assert.True(t, apperr.Is(err, apperr.ErrConflict))
	assert.Equal(t, 1, book.LikesCount())

	require.NoError(t, book.Unlike(reader))
	assert.Equal(t, 0, book.LikesCount())

	err = book.Unlike(reader)
	assert.True(t, apperr.Is(err, apperr.ErrConflict))
}

func TestUnlike_OnlyRemovesOwnLike(t *testing.T) {
	book, _ := newDraftBook(t)
	a, b := primitive.NewObjectID(), primitive.NewObjectID()
	require.NoError(t, book.Like(a))
	require.NoError(t, book.Like(b))

	require.NoError(t, book.Unlike(a))
	require.Len(t, book.Likes, 1)
	assert.Equal(t, b, book.Likes[0])
}

func TestRate_OverwritesInPlace(t *testing.T) {
	book, _ := newDraftBook(t)
	u1, u2 := primitive.NewObjectID(), primitive.NewObjectID()

	require.NoError(t, book.Rate(u1, 4))
	require.NoError(t, book.Rate(u2, 5))
	require.NoError(t, book.Rate(u1, 2))

	require.Len(t, book.Ratings, 2)
	assert.Equal(t, 2, book.Ratings[0].Rating)
	assert.Equal(t, u1, book.Ratings[0].UserID)
	assert.Equal(t, 5, book.Ratings[1].Rating)
}

func TestRate_RangeValidation(t *testing.T) {
	book, _ := newDraftBook(t)
	reader := primitive.NewObjectID()

	for _, rating := range []int{0, -1, 6, 100} {
		err := book.Rate(reader, rating)
		assert.True(t, apperr.Is(err, apperr.ErrValidation), "rating %d should be rejected", rating)
	}
	assert.Empty(t, book.Ratings)

	require.NoError(t, book.Rate(reader, 1))
	require.NoError(t, book.Rate(reader, 5))
}

func TestAddReview_AppendOnly(t *testing.T) {
	book, _ := newDraftBook(t)
	reader := primitive.NewObjectID()

	err := book.AddReview(reader, "")
	assert.True(t, apperr.Is(err, apperr.ErrValidation))

	require.NoError(t, book.AddReview(reader, "great read"))
	require.NoError(t, book.AddReview(reader, "read it again, still great"))
	require.Len(t, book.Reviews, 2)
	assert.False(t, book.Reviews[0].CreatedAt.IsZero())
}

func TestCollaborators_Lifecycle(t *testing.T) {
	book, _ := newDraftBook(t)
	u2 := primitive.NewObjectID()

	// Role defaults to editor.
	require.NoError(t, book.AddCollaborator(u2, ""))
	require.Len(t, book.Collaborators, 1)
	assert.Equal(t, models.CollaboratorEditor, book.Collaborators[0].Role)

	err := book.AddCollaborator(u2, models.CollaboratorCoAuthor)
	assert.True(t, apperr.Is(err, apperr.ErrConflict))

	require.NoError(t, book.SetCollaboratorRole(u2, models.CollaboratorCoAuthor))
	assert.Equal(t, models.CollaboratorCoAuthor, book.Collaborators[0].Role)

	// Setting the same role again is a conflict.
	err = book.SetCollaboratorRole(u2, models.CollaboratorCoAuthor)
	assert.True(t, apperr.Is(err, apperr.ErrConflict))

	require.NoError(t, book.RemoveCollaborator(u2))
	assert.Empty(t, book.Collaborators)

	err = book.SetCollaboratorRole(u2, models.CollaboratorEditor)
	assert.True(t, apperr.Is(err, apperr.ErrNotFound))
	err = book.RemoveCollaborator(u2)
	assert.True(t, apperr.Is(err, apperr.ErrNotFound))
}

func TestAddCollaborator_InvalidRole(t *testing.T) {
	book, _ := newDraftBook(t)
	err := book.AddCollaborator(primitive.NewObjectID(), "owner")
	assert.True(t, apperr.Is(err, apperr.ErrValidation))
}

func TestApplyPatch(t *testing.T) {
	book, _ := newDraftBook(t)

	err := book.ApplyPatch(&models.BookPatch{})
	assert.True(t, apperr.Is(err, apperr.ErrValidation))

	title := "New Title"
	tags := []string{"fantasy", "adventure"}
	require.NoError(t, book.ApplyPatch(&models.BookPatch{Title: &title, Tags: &tags}))
	assert.Equal(t, "New Title", book.Title)
	assert.Equal(t, tags, book.Tags)
	// Untouched fields stay put.
	assert.Equal(t, "D", book.Description)
}

func TestDraftToPublishedFlow(t *testing.T) {
	author := primitive.NewObjectID()
	book := models.NewBook(author, "T", "D")
	assert.Equal(t, models.StatusDraft, book.Status)

	err := book.SetStatus(models.StatusPublished)
	require.True(t, apperr.Is(err, apperr.ErrValidation))

	book.AddChapter("C1", "...")

	require.NoError(t, book.SetStatus(models.StatusPublished))
	assert.Equal(t, models.StatusPublished, book.Status)
	require.NotNil(t, book.PublicationDate)
}

func TestIsAuthor(t *testing.T) {
	book, author := newDraftBook(t)
	assert.True(t, book.IsAuthor(author))
	assert.False(t, book.IsAuthor(primitive.NewObjectID()))
}
