package handlers

import (
	"log"
	"net/http"
	"time"

	"github.com/bookifyapp/server/apperr"
	"github.com/bookifyapp/server/middleware"
	"github.com/bookifyapp/server/service"
	"github.com/bookifyapp/server/store"
	"github.com/bookifyapp/server/validation"
	"go.mongodb.org/mongo-driver/bson"
	"golang.org/x/crypto/bcrypt"
)

type UsersHandler struct {
	DB       *store.DB
	S3       *service.S3Service // nil when uploads are not configured
	Validate *validation.Validator
	MaxBytes int64
}

// GetProfile returns the authenticated user's own profile.
func (h *UsersHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		respondError(w, apperr.Unauthorized("You are currently not logged in. Please sign in to continue"))
		return
	}
	respondSuccess(w, http.StatusOK, "User details retrieved successfully", map[string]any{"user": user})
}

// ProfilePatch is the statically declared field set a user may update on
// their profile. Password changes go through UpdatePassword.
type ProfilePatch struct {
	Firstname   *string `json:"firstname"`
	Lastname    *string `json:"lastname"`
	PhoneNumber *string `json:"phoneNumber"`
}

func (p *ProfilePatch) isEmpty() bool {
	return p.Firstname == nil && p.Lastname == nil && p.PhoneNumber == nil
}

// UpdateProfile applies a partial profile update. Requests carrying any field
// outside the allow-list are rejected in full.
func (h *UsersHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		respondError(w, apperr.Unauthorized("You are currently not logged in. Please sign in to continue"))
		return
	}
	var patch ProfilePatch
	if err := decodeStrict(r, &patch); err != nil {
		respondError(w, err)
		return
	}
	if patch.isEmpty() {
		respondError(w, apperr.Validation("Please fill in fields to update"))
		return
	}
	fields := bson.M{}
	if patch.Firstname != nil {
		fields["firstname"] = *patch.Firstname
	}
	if patch.Lastname != nil {
		fields["lastname"] = *patch.Lastname
	}
	if patch.PhoneNumber != nil {
		fields["phoneNumber"] = *patch.PhoneNumber
	}
	if err := h.DB.UpdateUserFields(r.Context(), user.ID, fields); err != nil {
		respondError(w, err)
		return
	}
	updated, err := h.DB.UserByID(r.Context(), user.ID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondSuccess(w, http.StatusOK, "User details updated successfully", map[string]any{"user": updated})
}

type UpdatePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=8"`
}

// UpdatePassword verifies the current password and replaces it. The change
// timestamp invalidates every token issued before it.
func (h *UsersHandler) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		respondError(w, apperr.Unauthorized("You are currently not logged in. Please sign in to continue"))
		return
	}
	var req UpdatePasswordRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, err)
		return
	}
	if err := h.Validate.Validate(req); err != nil {
		respondError(w, err)
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.CurrentPassword)) != nil {
		respondError(w, apperr.Unauthorized("Current password supplied is wrong"))
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		respondError(w, err)
		return
	}
	err = h.DB.UpdateUserFields(r.Context(), user.ID, bson.M{
		"password":          string(hash),
		"passwordChangedAt": time.Now(),
	})
	if err != nil {
		respondError(w, err)
		return
	}
	respondSuccess(w, http.StatusOK, "Password updated successfully", nil)
}

// UpdateProfileImage stores the uploaded image and replaces the user's
// profile picture, deleting the previous object.
func (h *UsersHandler) UpdateProfileImage(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		respondError(w, apperr.Unauthorized("You are currently not logged in. Please sign in to continue"))
		return
	}
	if h.S3 == nil {
		respondError(w, apperr.Internal("Image uploads are not configured"))
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.MaxBytes)
	if err := r.ParseMultipartForm(h.MaxBytes); err != nil {
		respondError(w, apperr.Validation("Please upload an image"))
		return
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		respondError(w, apperr.Validation("Please upload an image"))
		return
	}
	defer file.Close()

	key, url, err := h.S3.Upload(r.Context(), service.FolderProfileImages, header.Filename, file, header.Header.Get("Content-Type"))
	if err != nil {
		respondError(w, apperr.Internal("Profile image could not be uploaded").WithCause(err))
		return
	}
	err = h.DB.UpdateUserFields(r.Context(), user.ID, bson.M{
		"profileImage":    url,
		"profileImageKey": key,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	if user.ProfileImageKey != "" {
		if err := h.S3.Delete(r.Context(), user.ProfileImageKey); err != nil {
			log.Println("profile image cleanup:", err)
		}
	}
	updated, err := h.DB.UserByID(r.Context(), user.ID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondSuccess(w, http.StatusOK, "Your image has been uploaded successfully", map[string]any{"user": updated})
}
