package handlers

import (
	"errors"
	"net/http"

	"github.com/bookifyapp/server/apperr"
	"github.com/bookifyapp/server/middleware"
	"github.com/bookifyapp/server/models"
	"github.com/bookifyapp/server/store"
	"github.com/bookifyapp/server/validation"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type CollectionsHandler struct {
	DB       *store.DB
	Validate *validation.Validator
}

type CreateCollectionRequest struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description" validate:"required"`
}

// Create creates a user-owned collection.
func (h *CollectionsHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, apperr.Unauthorized("You are currently not logged in. Please sign in to continue"))
		return
	}
	var req CreateCollectionRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, err)
		return
	}
	if err := h.Validate.Validate(req); err != nil {
		respondError(w, err)
		return
	}

	collection := models.NewCollection(actor, req.Title, req.Description)
	id, err := h.DB.InsertCollection(r.Context(), collection)
	if err != nil {
		respondError(w, err)
		return
	}
	collection.ID = id
	respondSuccess(w, http.StatusCreated, "Collection created successfully", map[string]any{"collection": collection})
}

// List returns all of the requesting user's collections.
func (h *CollectionsHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, apperr.Unauthorized("You are currently not logged in. Please sign in to continue"))
		return
	}
	collections, err := h.DB.CollectionsByUser(r.Context(), actor)
	if err != nil {
		respondError(w, err)
		return
	}
	respondList(w, "Collections retrieved successfully", len(collections), map[string]any{"collections": collections})
}

// Detail returns one collection, owner only.
func (h *CollectionsHandler) Detail(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, apperr.Unauthorized("You are currently not logged in. Please sign in to continue"))
		return
	}
	id, err := objectIDParam(r, "id", "Invalid collection ID")
	if err != nil {
		respondError(w, err)
		return
	}
	collection, err := h.DB.CollectionByID(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	if collection == nil || !collection.IsOwner(actor) {
		respondError(w, errCollectionNotFound)
		return
	}
	respondSuccess(w, http.StatusOK, "Collection details retrieved successfully", map[string]any{"collection": collection})
}

type UpdateCollectionRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
}

// Update renames and/or re-describes a collection.
func (h *CollectionsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req UpdateCollectionRequest
	if err := decodeStrict(r, &req); err != nil {
		respondError(w, err)
		return
	}
	h.mutateAsOwner(w, r, "id", "Collection updated successfully", func(c *models.Collection) error {
		return c.Rename(req.Title, req.Description)
	})
}

type CollectionBookRequest struct {
	CollectionID string `json:"collectionId"`
	BookID       string `json:"bookId"`
}

func (req *CollectionBookRequest) ids() (collectionID, bookID primitive.ObjectID, err error) {
	if req.CollectionID == "" || req.BookID == "" {
		return primitive.NilObjectID, primitive.NilObjectID, apperr.Validation("Please provide the collection id and the book id")
	}
	collectionID, err = primitive.ObjectIDFromHex(req.CollectionID)
	if err != nil {
		return primitive.NilObjectID, primitive.NilObjectID, apperr.Validation("Invalid collection ID")
	}
	bookID, err = primitive.ObjectIDFromHex(req.BookID)
	if err != nil {
		return primitive.NilObjectID, primitive.NilObjectID, apperr.Validation("Invalid book ID")
	}
	return collectionID, bookID, nil
}

// AddBook inserts a book into one of the requesting user's collections.
func (h *CollectionsHandler) AddBook(w http.ResponseWriter, r *http.Request) {
	var req CollectionBookRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, err)
		return
	}
	collectionID, bookID, err := req.ids()
	if err != nil {
		respondError(w, err)
		return
	}
	book, err := h.DB.BookByID(r.Context(), bookID)
	if err != nil {
		respondError(w, err)
		return
	}
	if book == nil {
		respondError(w, apperr.NotFound("Book with the specified ID not found"))
		return
	}
	h.mutateCollection(w, r, collectionID, "Book added to collection successfully", func(c *models.Collection) error {
		return c.AddBook(bookID)
	})
}

// RemoveBook removes a book from one of the requesting user's collections.
func (h *CollectionsHandler) RemoveBook(w http.ResponseWriter, r *http.Request) {
	var req CollectionBookRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, err)
		return
	}
	collectionID, bookID, err := req.ids()
	if err != nil {
		respondError(w, err)
		return
	}
	book, err := h.DB.BookByID(r.Context(), bookID)
	if err != nil {
		respondError(w, err)
		return
	}
	if book == nil {
		respondError(w, apperr.NotFound("Book with the specified ID not found"))
		return
	}
	h.mutateCollection(w, r, collectionID, "Book removed from collection successfully", func(c *models.Collection) error {
		return c.RemoveBook(bookID)
	})
}

// Empty clears every book from a collection.
func (h *CollectionsHandler) Empty(w http.ResponseWriter, r *http.Request) {
	h.mutateAsOwner(w, r, "id", "Collection emptied successfully", func(c *models.Collection) error {
		return c.Empty()
	})
}

// Delete removes a collection permanently. The default Bookmarks collection
// and any non-empty collection are protected.
func (h *CollectionsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, apperr.Unauthorized("You are currently not logged in. Please sign in to continue"))
		return
	}
	id, err := objectIDParam(r, "id", "Invalid collection ID")
	if err != nil {
		respondError(w, err)
		return
	}
	collection, err := h.DB.CollectionByID(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	if collection == nil || !collection.IsOwner(actor) {
		respondError(w, errCollectionNotFound)
		return
	}
	if err := collection.CanDelete(); err != nil {
		respondError(w, err)
		return
	}
	if err := h.DB.DeleteCollection(r.Context(), id); err != nil {
		respondError(w, err)
		return
	}
	respondSuccess(w, http.StatusOK, "Collection deleted successfully", nil)
}

var errCollectionNotFound = apperr.NotFound("Collection with the specified ID not found")

func (h *CollectionsHandler) mutateAsOwner(w http.ResponseWriter, r *http.Request, param, message string, mutate func(*models.Collection) error) {
	id, err := objectIDParam(r, param, "Invalid collection ID")
	if err != nil {
		respondError(w, err)
		return
	}
	h.mutateCollection(w, r, id, message, mutate)
}

// mutateCollection runs a load-mutate-save cycle on the collection, requiring
// the actor to own it. Non-owners get the same not-found as an absent
// collection. Lost version races are retried.
func (h *CollectionsHandler) mutateCollection(w http.ResponseWriter, r *http.Request, id primitive.ObjectID, message string, mutate func(*models.Collection) error) {
	actor, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, apperr.Unauthorized("You are currently not logged in. Please sign in to continue"))
		return
	}
	for attempt := 0; attempt < maxSaveRetries; attempt++ {
		collection, err := h.DB.CollectionByID(r.Context(), id)
		if err != nil {
			respondError(w, err)
			return
		}
		if collection == nil || !collection.IsOwner(actor) {
			respondError(w, errCollectionNotFound)
			return
		}
		if err := mutate(collection); err != nil {
			respondError(w, err)
			return
		}
		err = h.DB.SaveCollection(r.Context(), collection)
		if err == nil {
			respondSuccess(w, http.StatusOK, message, map[string]any{"collection": collection})
			return
		}
		if !errors.Is(err, store.ErrStale) {
			respondError(w, err)
			return
		}
	}
	respondError(w, apperr.Internal("Collection could not be updated due to concurrent changes"))
}
