package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/bookifyapp/server/apperr"
	"github.com/bookifyapp/server/middleware"
	"github.com/bookifyapp/server/models"
	"github.com/bookifyapp/server/service"
	"github.com/bookifyapp/server/store"
	"github.com/bookifyapp/server/validation"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// maxSaveRetries bounds the reload-reapply loop when a save loses the
// optimistic-version race.
const maxSaveRetries = 3

type BooksHandler struct {
	DB       *store.DB
	S3       *service.S3Service // nil when uploads are not configured
	Validate *validation.Validator
	MaxBytes int64
}

type CreateBookRequest struct {
	Title       string   `json:"title" validate:"required"`
	Description string   `json:"description" validate:"required"`
	Summary     string   `json:"summary"`
	Tags        []string `json:"tags"`
	Genres      []string `json:"genres"`
	CoverImage  string   `json:"coverImage"`
}

// Create creates a draft book owned by the requesting user.
func (h *BooksHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, apperr.Unauthorized("You are currently not logged in. Please sign in to continue"))
		return
	}
	var req CreateBookRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, err)
		return
	}
	if err := h.Validate.Validate(req); err != nil {
		respondError(w, err)
		return
	}

	book := models.NewBook(actor, req.Title, req.Description)
	book.Summary = req.Summary
	book.Tags = req.Tags
	book.Genres = req.Genres
	book.CoverImage = req.CoverImage

	id, err := h.DB.InsertBook(r.Context(), book)
	if err != nil {
		respondError(w, err)
		return
	}
	book.ID = id
	respondSuccess(w, http.StatusCreated, "Book created successfully", map[string]any{"book": book})
}

// List returns all published books.
func (h *BooksHandler) List(w http.ResponseWriter, r *http.Request) {
	books, err := h.DB.PublishedBooks(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	if len(books) == 0 {
		respondList(w, "No books found", 0, map[string]any{"books": books})
		return
	}
	respondList(w, "Books retrieved successfully", len(books), map[string]any{"books": books})
}

// Search matches the query case-insensitively against title or description
// of published books. No match is an empty result, not an error.
func (h *BooksHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")
	if query == "" {
		respondError(w, apperr.Validation("Please provide a search query"))
		return
	}
	books, err := h.DB.SearchPublishedBooks(r.Context(), query)
	if err != nil {
		respondError(w, err)
		return
	}
	if len(books) == 0 {
		respondList(w, "No books found", 0, map[string]any{"books": books})
		return
	}
	respondList(w, "Books retrieved successfully", len(books), map[string]any{"books": books})
}

// Get returns a book's public detail with its author profile expanded.
func (h *BooksHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := bookIDParam(r)
	if err != nil {
		respondError(w, err)
		return
	}
	book, err := h.DB.BookByID(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	if book == nil {
		respondError(w, apperr.NotFound("Book with the specified ID not found"))
		return
	}
	data := map[string]any{"book": book}
	if author, err := h.DB.UserByID(r.Context(), book.Author); err == nil && author != nil {
		data["author"] = author.PublicProfile()
	}
	respondSuccess(w, http.StatusOK, "Book details retrieved successfully", data)
}

// AuthorBooks returns all of the requesting author's books, every status.
func (h *BooksHandler) AuthorBooks(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, apperr.Unauthorized("You are currently not logged in. Please sign in to continue"))
		return
	}
	books, err := h.DB.BooksByAuthor(r.Context(), actor)
	if err != nil {
		respondError(w, err)
		return
	}
	if len(books) == 0 {
		respondList(w, "No books found for the author", 0, map[string]any{"books": books})
		return
	}
	respondList(w, "Author's books retrieved successfully", len(books), map[string]any{"books": books})
}

// AuthorBookDetail returns one of the requesting author's own books.
func (h *BooksHandler) AuthorBookDetail(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, apperr.Unauthorized("You are currently not logged in. Please sign in to continue"))
		return
	}
	id, err := bookIDParam(r)
	if err != nil {
		respondError(w, err)
		return
	}
	book, err := h.DB.BookByID(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	if book == nil || !book.IsAuthor(actor) {
		respondError(w, errBookNotFoundForAuthor)
		return
	}
	respondSuccess(w, http.StatusOK, "Book details retrieved successfully", map[string]any{"book": book})
}

// UpdateDetails applies an allow-listed partial update to the book's
// metadata. Any field outside the allow-list rejects the whole request.
func (h *BooksHandler) UpdateDetails(w http.ResponseWriter, r *http.Request) {
	var patch models.BookPatch
	if err := decodeStrict(r, &patch); err != nil {
		respondError(w, err)
		return
	}
	h.mutateAsAuthor(w, r, "Book updated successfully", func(book *models.Book) error {
		return book.ApplyPatch(&patch)
	})
}

type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=draft published archived"`
}

// UpdateStatus transitions the book's lifecycle status.
func (h *BooksHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req UpdateStatusRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, err)
		return
	}
	if err := h.Validate.Validate(req); err != nil {
		respondError(w, apperr.Validation("Book status is required and must be either published, archived or draft"))
		return
	}
	h.mutateAsAuthor(w, r, "Book status updated successfully", func(book *models.Book) error {
		return book.SetStatus(req.Status)
	})
}

type ChapterRequest struct {
	Title   string `json:"title" validate:"required"`
	Content string `json:"content" validate:"required"`
}

// AddChapter appends a chapter to the book.
func (h *BooksHandler) AddChapter(w http.ResponseWriter, r *http.Request) {
	var req ChapterRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, err)
		return
	}
	if err := h.Validate.Validate(req); err != nil {
		respondError(w, err)
		return
	}
	h.mutateAsAuthorStatus(w, r, http.StatusCreated, "Chapter added successfully", func(book *models.Book) error {
		book.AddChapter(req.Title, req.Content)
		return nil
	})
}

// UpdateChapter replaces a chapter's title and content in place.
func (h *BooksHandler) UpdateChapter(w http.ResponseWriter, r *http.Request) {
	chapterID, err := objectIDParam(r, "chapterID", "Invalid chapter ID")
	if err != nil {
		respondError(w, err)
		return
	}
	var req ChapterRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, err)
		return
	}
	if err := h.Validate.Validate(req); err != nil {
		respondError(w, err)
		return
	}
	h.mutateAsAuthor(w, r, "Chapter updated successfully", func(book *models.Book) error {
		return book.UpdateChapter(chapterID, req.Title, req.Content)
	})
}

// DeleteChapter removes a chapter; the rest keep their order.
func (h *BooksHandler) DeleteChapter(w http.ResponseWriter, r *http.Request) {
	chapterID, err := objectIDParam(r, "chapterID", "Invalid chapter ID")
	if err != nil {
		respondError(w, err)
		return
	}
	h.mutateAsAuthor(w, r, "Chapter deleted successfully", func(book *models.Book) error {
		return book.DeleteChapter(chapterID)
	})
}

// UploadCover stores the uploaded image and sets it as the book's cover,
// deleting the replaced object.
func (h *BooksHandler) UploadCover(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, apperr.Unauthorized("You are currently not logged in. Please sign in to continue"))
		return
	}
	if h.S3 == nil {
		respondError(w, apperr.Internal("Image uploads are not configured"))
		return
	}
	id, err := bookIDParam(r)
	if err != nil {
		respondError(w, err)
		return
	}
	book, err := h.DB.BookByID(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	if book == nil || !book.IsAuthor(actor) {
		respondError(w, errBookNotFoundForAuthor)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.MaxBytes)
	if err := r.ParseMultipartForm(h.MaxBytes); err != nil {
		respondError(w, apperr.Validation("Please upload a file"))
		return
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		respondError(w, apperr.Validation("Please upload a file"))
		return
	}
	defer file.Close()

	key, url, err := h.S3.Upload(r.Context(), service.FolderBookCovers, header.Filename, file, header.Header.Get("Content-Type"))
	if err != nil {
		respondError(w, apperr.Internal("Book cover image could not be uploaded").WithCause(err))
		return
	}
	oldKey := book.CoverImageKey
	h.mutateAsAuthor(w, r, "Book cover image updated successfully", func(b *models.Book) error {
		b.CoverImage = url
		b.CoverImageKey = key
		return nil
	})
	if oldKey != "" {
		if err := h.S3.Delete(r.Context(), oldKey); err != nil {
			log.Println("cover image cleanup:", err)
		}
	}
}

// Like records the requesting reader's like.
func (h *BooksHandler) Like(w http.ResponseWriter, r *http.Request) {
	h.mutateAsReader(w, r, "Book liked successfully", func(book *models.Book, actor primitive.ObjectID) error {
		return book.Like(actor)
	})
}

// Unlike removes the requesting reader's like.
func (h *BooksHandler) Unlike(w http.ResponseWriter, r *http.Request) {
	h.mutateAsReader(w, r, "Book unliked successfully", func(book *models.Book, actor primitive.ObjectID) error {
		return book.Unlike(actor)
	})
}

type RateRequest struct {
	Rating int `json:"rating"`
}

// Rate records the requesting reader's rating; re-rating overwrites.
func (h *BooksHandler) Rate(w http.ResponseWriter, r *http.Request) {
	var req RateRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, err)
		return
	}
	if req.Rating == 0 {
		respondError(w, apperr.Validation("Rating value is required to rate a book"))
		return
	}
	h.mutateAsReader(w, r, "Book rated successfully", func(book *models.Book, actor primitive.ObjectID) error {
		return book.Rate(actor, req.Rating)
	})
}

type ReviewRequest struct {
	Comment string `json:"comment"`
}

// Review appends the requesting reader's review.
func (h *BooksHandler) Review(w http.ResponseWriter, r *http.Request) {
	var req ReviewRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, err)
		return
	}
	h.mutateAsReader(w, r, "Book reviewed successfully", func(book *models.Book, actor primitive.ObjectID) error {
		return book.AddReview(actor, req.Comment)
	})
}

type CollaboratorRequest struct {
	CollaboratorID string `json:"collaboratorId"`
	Role           string `json:"role"`
}

// AddCollaborator grants a user collaborator rights on the book.
func (h *BooksHandler) AddCollaborator(w http.ResponseWriter, r *http.Request) {
	var req CollaboratorRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, err)
		return
	}
	if req.CollaboratorID == "" {
		respondError(w, apperr.Validation("User ID for collaborator is required"))
		return
	}
	collaboratorID, err := primitive.ObjectIDFromHex(req.CollaboratorID)
	if err != nil {
		respondError(w, apperr.Validation("Invalid collaborator ID"))
		return
	}
	h.mutateAsAuthor(w, r, "Collaborator added successfully", func(book *models.Book) error {
		return book.AddCollaborator(collaboratorID, req.Role)
	})
}

// EditCollaboratorRole changes an existing collaborator's role.
func (h *BooksHandler) EditCollaboratorRole(w http.ResponseWriter, r *http.Request) {
	var req CollaboratorRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, err)
		return
	}
	if req.CollaboratorID == "" || req.Role == "" {
		respondError(w, apperr.Validation("User ID and role for collaborator is required"))
		return
	}
	collaboratorID, err := primitive.ObjectIDFromHex(req.CollaboratorID)
	if err != nil {
		respondError(w, apperr.Validation("Invalid collaborator ID"))
		return
	}
	h.mutateAsAuthor(w, r, "Collaborator role updated successfully", func(book *models.Book) error {
		return book.SetCollaboratorRole(collaboratorID, req.Role)
	})
}

// RemoveCollaborator revokes a user's collaborator rights.
func (h *BooksHandler) RemoveCollaborator(w http.ResponseWriter, r *http.Request) {
	var req CollaboratorRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, err)
		return
	}
	if req.CollaboratorID == "" {
		respondError(w, apperr.Validation("User ID for collaborator is required"))
		return
	}
	collaboratorID, err := primitive.ObjectIDFromHex(req.CollaboratorID)
	if err != nil {
		respondError(w, apperr.Validation("Invalid collaborator ID"))
		return
	}
	h.mutateAsAuthor(w, r, "Collaborator removed successfully", func(book *models.Book) error {
		return book.RemoveCollaborator(collaboratorID)
	})
}

// CollaboratorView is a collaborator entry expanded with the user's public
// profile. Sensitive fields never appear here.
type CollaboratorView struct {
	User models.Profile `json:"user"`
	Role string         `json:"role"`
}

// ListCollaborators returns the book's collaborators with their public
// profiles. Author only.
func (h *BooksHandler) ListCollaborators(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, apperr.Unauthorized("You are currently not logged in. Please sign in to continue"))
		return
	}
	id, err := bookIDParam(r)
	if err != nil {
		respondError(w, err)
		return
	}
	book, err := h.DB.BookByID(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	if book == nil || !book.IsAuthor(actor) {
		respondError(w, errBookNotFoundForAuthor)
		return
	}

	ids := make([]primitive.ObjectID, 0, len(book.Collaborators))
	for _, c := range book.Collaborators {
		ids = append(ids, c.User)
	}
	users, err := h.DB.UsersByIDs(r.Context(), ids)
	if err != nil {
		respondError(w, err)
		return
	}
	views := make([]CollaboratorView, 0, len(book.Collaborators))
	for _, c := range book.Collaborators {
		u, ok := users[c.User]
		if !ok {
			continue
		}
		views = append(views, CollaboratorView{User: u.PublicProfile(), Role: c.Role})
	}
	respondSuccess(w, http.StatusOK, "Collaborators retrieved successfully", map[string]any{"collaborators": views})
}

var errBookNotFoundForAuthor = apperr.NotFound("Book with the specified ID not found for the user (author)")

// mutateAsAuthor runs a load-mutate-save cycle on the book, requiring the
// actor to be its author. Ownership failures and absent books report the same
// not-found so existence never leaks. Lost version races are retried.
func (h *BooksHandler) mutateAsAuthor(w http.ResponseWriter, r *http.Request, message string, mutate func(*models.Book) error) {
	h.mutateAsAuthorStatus(w, r, http.StatusOK, message, mutate)
}

func (h *BooksHandler) mutateAsAuthorStatus(w http.ResponseWriter, r *http.Request, code int, message string, mutate func(*models.Book) error) {
	actor, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, apperr.Unauthorized("You are currently not logged in. Please sign in to continue"))
		return
	}
	book, err := h.mutateBook(r, func(book *models.Book) error {
		if !book.IsAuthor(actor) {
			return errBookNotFoundForAuthor
		}
		return mutate(book)
	})
	if err != nil {
		respondError(w, err)
		return
	}
	respondSuccess(w, code, message, map[string]any{"book": book})
}

// mutateAsReader is mutateAsAuthor without the ownership requirement; any
// authenticated, email-verified reader may interact with any book.
func (h *BooksHandler) mutateAsReader(w http.ResponseWriter, r *http.Request, message string, mutate func(*models.Book, primitive.ObjectID) error) {
	actor, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, apperr.Unauthorized("You are currently not logged in. Please sign in to continue"))
		return
	}
	book, err := h.mutateBook(r, func(book *models.Book) error {
		return mutate(book, actor)
	})
	if err != nil {
		respondError(w, err)
		return
	}
	respondSuccess(w, http.StatusOK, message, map[string]any{"book": book})
}

func (h *BooksHandler) mutateBook(r *http.Request, mutate func(*models.Book) error) (*models.Book, error) {
	id, err := bookIDParam(r)
	if err != nil {
		return nil, err
	}
	for attempt := 0; attempt < maxSaveRetries; attempt++ {
		book, err := h.DB.BookByID(r.Context(), id)
		if err != nil {
			return nil, err
		}
		if book == nil {
			return nil, apperr.NotFound("Book with the specified ID not found")
		}
		if err := mutate(book); err != nil {
			return nil, err
		}
		err = h.DB.SaveBook(r.Context(), book)
		if err == nil {
			return book, nil
		}
		if !errors.Is(err, store.ErrStale) {
			return nil, err
		}
	}
	return nil, apperr.Internal("Book could not be updated due to concurrent changes")
}

func bookIDParam(r *http.Request) (primitive.ObjectID, error) {
	return objectIDParam(r, "id", "Invalid book ID")
}

func objectIDParam(r *http.Request, name, errMsg string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, name))
	if err != nil {
		return primitive.NilObjectID, apperr.Validation(errMsg)
	}
	return id, nil
}
