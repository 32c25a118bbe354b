package models

import (
	"time"

	"github.com/bookifyapp/server/apperr"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Book status values.
const (
	StatusDraft     = "draft"
	StatusPublished = "published"
	StatusArchived  = "archived"
)

// Collaborator roles.
const (
	CollaboratorEditor   = "editor"
	CollaboratorCoAuthor = "co-author"
)

var validStatuses = []string{StatusDraft, StatusPublished, StatusArchived}
var validCollaboratorRoles = []string{CollaboratorEditor, CollaboratorCoAuthor}

// Chapter is an owned child of a Book. Slice position is the canonical
// reading order.
type Chapter struct {
	ID        primitive.ObjectID `bson:"_id" json:"id"`
	Title     string             `bson:"title" json:"title"`
	Content   string             `bson:"content" json:"content"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Collaborator grants a non-author user editing rights on a book. At most one
// entry per user.
type Collaborator struct {
	User primitive.ObjectID `bson:"user" json:"user"`
	Role string             `bson:"role" json:"role"`
}

// Rating is one user's rating of a book; re-rating overwrites in place.
type Rating struct {
	UserID primitive.ObjectID `bson:"userId" json:"userId"`
	Rating int                `bson:"rating" json:"rating"`
}

// Review is an append-only reader comment; a user may submit several.
type Review struct {
	UserID    primitive.ObjectID `bson:"userId" json:"userId"`
	Comment   string             `bson:"comment" json:"comment"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}

type Book struct {
	ID              primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Author          primitive.ObjectID   `bson:"author" json:"author"`
	Title           string               `bson:"title" json:"title"`
	Description     string               `bson:"description" json:"description"`
	Summary         string               `bson:"summary,omitempty" json:"summary,omitempty"`
	Content         string               `bson:"content,omitempty" json:"content,omitempty"`
	Chapters        []Chapter            `bson:"chapters" json:"chapters"`
	Tags            []string             `bson:"tags,omitempty" json:"tags,omitempty"`
	Genres          []string             `bson:"genres,omitempty" json:"genres,omitempty"`
	CoverImage      string               `bson:"coverImage,omitempty" json:"coverImage,omitempty"`
	CoverImageKey   string               `bson:"coverImageKey,omitempty" json:"-"` // object key in S3
	PublicationDate *time.Time           `bson:"publicationDate" json:"publicationDate"`
	Status          string               `bson:"status" json:"status"`
	Likes           []primitive.ObjectID `bson:"likes" json:"likes"`
	Ratings         []Rating             `bson:"ratings" json:"ratings"`
	Reviews         []Review             `bson:"reviews" json:"reviews"`
	Collaborators   []Collaborator       `bson:"collaborators" json:"collaborators"`
	IsFeatured      bool                 `bson:"isFeatured" json:"isFeatured"`
	ReadTime        int                  `bson:"readTime,omitempty" json:"readTime,omitempty"`
	Version         int64                `bson:"version" json:"-"` // optimistic concurrency counter
	CreatedAt       time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time            `bson:"updatedAt" json:"updatedAt"`
}

// NewBook creates a draft book owned by the given author. The author identity
// never changes afterwards.
func NewBook(author primitive.ObjectID, title, description string) *Book {
	now := time.Now()
	return &Book{
		Author:        author,
		Title:         title,
		Description:   description,
		Status:        StatusDraft,
		Chapters:      []Chapter{},
		Likes:         []primitive.ObjectID{},
		Ratings:       []Rating{},
		Reviews:       []Review{},
		Collaborators: []Collaborator{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// ValidStatus reports whether s is a known book status.
func ValidStatus(s string) bool {
	for _, v := range validStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// ValidCollaboratorRole reports whether r is a known collaborator role.
func ValidCollaboratorRole(r string) bool {
	for _, v := range validCollaboratorRoles {
		if v == r {
			return true
		}
	}
	return false
}

// IsAuthor reports whether actor owns the book.
func (b *Book) IsAuthor(actor primitive.ObjectID) bool {
	return b.Author == actor
}

// AddChapter appends a chapter to the end of the reading order and returns it.
func (b *Book) AddChapter(title, content string) *Chapter {
	now := time.Now()
	b.Chapters = append(b.Chapters, Chapter{
		ID:        primitive.NewObjectID(),
		Title:     title,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	})
	b.UpdatedAt = now
	return &b.Chapters[len(b.Chapters)-1]
}

// UpdateChapter replaces the title and content of the chapter with the given
// id, preserving its position in the reading order.
func (b *Book) UpdateChapter(chapterID primitive.ObjectID, title, content string) error {
	for i := range b.Chapters {
		if b.Chapters[i].ID == chapterID {
			b.Chapters[i].Title = title
			b.Chapters[i].Content = content
			b.Chapters[i].UpdatedAt = time.Now()
			b.UpdatedAt = b.Chapters[i].UpdatedAt
			return nil
		}
	}
	return apperr.NotFound("Chapter with the specified ID not found")
}

// DeleteChapter removes the chapter with the given id. Remaining chapters keep
// their relative order.
func (b *Book) DeleteChapter(chapterID primitive.ObjectID) error {
	for i := range b.Chapters {
		if b.Chapters[i].ID == chapterID {
			b.Chapters = append(b.Chapters[:i], b.Chapters[i+1:]...)
			b.UpdatedAt = time.Now()
			return nil
		}
	}
	return apperr.NotFound("Chapter with the specified ID not found")
}

// SetStatus transitions the book to the target status. Publishing requires at
// least one chapter and stamps the publication date; any other target clears
// it.
func (b *Book) SetStatus(status string) error {
	if !ValidStatus(status) {
		return apperr.Validation("Book status must be either published, archived or draft")
	}
	if b.Status == status {
		return apperr.Conflictf("Book already has a status of %s. Please specify a new status", status)
	}
	if status == StatusPublished && len(b.Chapters) == 0 {
		return apperr.Validation("Book must have at least one chapter to be published")
	}
	b.Status = status
	if status == StatusPublished {
		now := time.Now()
		b.PublicationDate = &now
	} else {
		b.PublicationDate = nil
	}
	b.UpdatedAt = time.Now()
	return nil
}

// BookPatch is the statically declared field set an author may update on a
// book. Requests carrying any other field are rejected in full at decode time.
type BookPatch struct {
	Title       *string   `json:"title"`
	Description *string   `json:"description"`
	Summary     *string   `json:"summary"`
	Content     *string   `json:"content"`
	Tags        *[]string `json:"tags"`
	Genres      *[]string `json:"genres"`
	CoverImage  *string   `json:"coverImage"`
}

// IsEmpty reports whether the patch carries no fields at all.
func (p *BookPatch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.Summary == nil &&
		p.Content == nil && p.Tags == nil && p.Genres == nil && p.CoverImage == nil
}

// ApplyPatch applies the supplied fields to the book. All-or-nothing: the
// caller rejects unknown fields and empty patches before this is reached.
func (b *Book) ApplyPatch(p *BookPatch) error {
	if p.IsEmpty() {
		return apperr.Validation("No fields provided for update")
	}
	if p.Title != nil {
		b.Title = *p.Title
	}
	if p.Description != nil {
		b.Description = *p.Description
	}
	if p.Summary != nil {
		b.Summary = *p.Summary
	}
	if p.Content != nil {
		b.Content = *p.Content
	}
	if p.Tags != nil {
		b.Tags = *p.Tags
	}
	if p.Genres != nil {
		b.Genres = *p.Genres
	}
	if p.CoverImage != nil {
		b.CoverImage = *p.CoverImage
	}
	b.UpdatedAt = time.Now()
	return nil
}

// Like records that the user likes the book. At most one like per user.
func (b *Book) Like(userID primitive.ObjectID) error {
	for _, id := range b.Likes {
		if id == userID {
			return apperr.Conflict("You have already liked this book")
		}
	}
	b.Likes = append(b.Likes, userID)
	return nil
}

// Unlike removes the user's like.
func (b *Book) Unlike(userID primitive.ObjectID) error {
	for i, id := range b.Likes {
		if id == userID {
			b.Likes = append(b.Likes[:i], b.Likes[i+1:]...)
			return nil
		}
	}
	return apperr.Conflict("You have not liked this book")
}

// LikesCount returns the number of likes.
func (b *Book) LikesCount() int {
	return len(b.Likes)
}

// Rate records the user's rating in [1,5]. A repeat rating overwrites the
// previous value in place.
func (b *Book) Rate(userID primitive.ObjectID, rating int) error {
	if rating < 1 || rating > 5 {
		return apperr.Validation("Rating value must be between 1 and 5")
	}
	for i := range b.Ratings {
		if b.Ratings[i].UserID == userID {
			b.Ratings[i].Rating = rating
			return nil
		}
	}
	b.Ratings = append(b.Ratings, Rating{UserID: userID, Rating: rating})
	return nil
}

// AddReview appends a review with a server-assigned timestamp. Reviews are
// append-only: a user may submit any number.
func (b *Book) AddReview(userID primitive.ObjectID, comment string) error {
	if comment == "" {
		return apperr.Validation("Comment is required to review a book")
	}
	b.Reviews = append(b.Reviews, Review{
		UserID:    userID,
		Comment:   comment,
		CreatedAt: time.Now(),
	})
	return nil
}

// AddCollaborator grants the user collaborator rights. Role defaults to
// editor when unspecified.
func (b *Book) AddCollaborator(userID primitive.ObjectID, role string) error {
	if role == "" {
		role = CollaboratorEditor
	}
	if !ValidCollaboratorRole(role) {
		return apperr.Validation("Collaborator role must be either editor or co-author")
	}
	for _, c := range b.Collaborators {
		if c.User == userID {
			return apperr.Conflict("User is already a collaborator")
		}
	}
	b.Collaborators = append(b.Collaborators, Collaborator{User: userID, Role: role})
	return nil
}

// SetCollaboratorRole changes an existing collaborator's role.
func (b *Book) SetCollaboratorRole(userID primitive.ObjectID, role string) error {
	if !ValidCollaboratorRole(role) {
		return apperr.Validation("Collaborator role must be either editor or co-author")
	}
	for i := range b.Collaborators {
		if b.Collaborators[i].User == userID {
			if b.Collaborators[i].Role == role {
				return apperr.Conflict("User already has the specified role")
			}
			b.Collaborators[i].Role = role
			return nil
		}
	}
	return apperr.NotFound("User is not a collaborator")
}

// RemoveCollaborator revokes the user's collaborator rights.
func (b *Book) RemoveCollaborator(userID primitive.ObjectID) error {
	for i, c := range b.Collaborators {
		if c.User == userID {
			b.Collaborators = append(b.Collaborators[:i], b.Collaborators[i+1:]...)
			return nil
		}
	}
	return apperr.NotFound("User with the specified ID is not a collaborator for this book")
}
