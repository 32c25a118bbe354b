package models

import (
	"time"

	"github.com/bookifyapp/server/apperr"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DefaultCollectionTitle names the non-deletable bookmark collection every
// user gets at registration.
const DefaultCollectionTitle = "Bookmarks"

type Collection struct {
	ID          primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	User        primitive.ObjectID   `bson:"user" json:"user"`
	Title       string               `bson:"title" json:"title"`
	Description string               `bson:"description" json:"description"`
	Books       []primitive.ObjectID `bson:"books" json:"books"`
	Deletable   bool                 `bson:"deletable" json:"deletable"`
	CoverImage  string               `bson:"coverImage,omitempty" json:"coverImage,omitempty"`
	Version     int64                `bson:"version" json:"-"`
	CreatedAt   time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time            `bson:"updatedAt" json:"updatedAt"`
}

// NewCollection creates a user-owned, deletable collection.
func NewCollection(user primitive.ObjectID, title, description string) *Collection {
	now := time.Now()
	return &Collection{
		User:        user,
		Title:       title,
		Description: description,
		Books:       []primitive.ObjectID{},
		Deletable:   true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// NewDefaultCollection creates the per-user Bookmarks collection. It can
// never be deleted.
func NewDefaultCollection(user primitive.ObjectID) *Collection {
	c := NewCollection(user, DefaultCollectionTitle, "The default bookmark collection")
	c.Deletable = false
	return c
}

// IsOwner reports whether actor owns the collection.
func (c *Collection) IsOwner(actor primitive.ObjectID) bool {
	return c.User == actor
}

// Contains reports whether the book is already a member.
func (c *Collection) Contains(bookID primitive.ObjectID) bool {
	for _, id := range c.Books {
		if id == bookID {
			return true
		}
	}
	return false
}

// AddBook inserts the book into the member set.
func (c *Collection) AddBook(bookID primitive.ObjectID) error {
	if c.Contains(bookID) {
		return apperr.Conflict("Book already exists in this collection")
	}
	c.Books = append(c.Books, bookID)
	c.UpdatedAt = time.Now()
	return nil
}

// RemoveBook removes the book from the member set.
func (c *Collection) RemoveBook(bookID primitive.ObjectID) error {
	for i, id := range c.Books {
		if id == bookID {
			c.Books = append(c.Books[:i], c.Books[i+1:]...)
			c.UpdatedAt = time.Now()
			return nil
		}
	}
	return apperr.Conflict("Book does not exist in this collection")
}

// Empty clears the member set.
func (c *Collection) Empty() error {
	if len(c.Books) == 0 {
		return apperr.Conflict("Collection is already empty")
	}
	c.Books = []primitive.ObjectID{}
	c.UpdatedAt = time.Now()
	return nil
}

// CanDelete checks the deletion guards: the default collection is never
// deletable, and a collection holding books must be emptied first.
func (c *Collection) CanDelete() error {
	if !c.Deletable {
		return apperr.Conflict("You are not allowed to delete this collection")
	}
	if len(c.Books) > 0 {
		return apperr.Conflict("Collection has books. Remove all books from collection before deleting collection")
	}
	return nil
}

// Rename applies a partial update of title and/or description. At least one
// must be supplied.
func (c *Collection) Rename(title, description *string) error {
	if title == nil && description == nil {
		return apperr.Validation("Please provide the title or description to update")
	}
	if title != nil {
		c.Title = *title
	}
	if description != nil {
		c.Description = *description
	}
	c.UpdatedAt = time.Now()
	return nil
}
