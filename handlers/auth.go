package handlers

import (
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/bookifyapp/server/apperr"
	"github.com/bookifyapp/server/middleware"
	"github.com/bookifyapp/server/models"
	"github.com/bookifyapp/server/service"
	"github.com/bookifyapp/server/store"
	"github.com/bookifyapp/server/utils"
	"github.com/bookifyapp/server/validation"
	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"
)

type AuthHandler struct {
	DB        *store.DB
	Mailer    *service.Mailer // nil when SMTP is not configured
	Validate  *validation.Validator
	JWTSecret string
	BaseURL   string
}

type RegisterRequest struct {
	Firstname   string `json:"firstname" validate:"required"`
	Lastname    string `json:"lastname" validate:"required"`
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8"`
	PhoneNumber string `json:"phoneNumber" validate:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type TokenResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// Register creates the account, its default Bookmarks collection, and sends
// the verification email. A failed email dispatch is logged but does not fail
// registration; the user can ask for a resend.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, err)
		return
	}
	if err := h.Validate.Validate(req); err != nil {
		respondError(w, err)
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))

	existing, err := h.DB.UserByEmail(r.Context(), req.Email)
	if err != nil {
		respondError(w, err)
		return
	}
	if existing != nil {
		respondError(w, apperr.Conflict("User with the specified email address already exists"))
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		respondError(w, err)
		return
	}
	rawToken, tokenHash, err := utils.NewVerificationToken()
	if err != nil {
		respondError(w, err)
		return
	}

	user := &models.User{
		Firstname:         req.Firstname,
		Lastname:          req.Lastname,
		Email:             req.Email,
		PhoneNumber:       req.PhoneNumber,
		Password:          string(hash),
		Role:              models.RoleUser,
		Permissions:       []string{},
		VerificationToken: tokenHash,
		Active:            true,
		CreatedAt:         time.Now(),
	}
	id, err := h.DB.CreateUser(r.Context(), user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			respondError(w, apperr.Conflict("Email or phone number already in use"))
			return
		}
		respondError(w, err)
		return
	}
	user.ID = id

	// Every user gets the non-deletable Bookmarks collection. The partial
	// unique index makes a duplicate insert a no-op rather than a second
	// default collection.
	if _, err := h.DB.InsertCollection(r.Context(), models.NewDefaultCollection(id)); err != nil && !mongo.IsDuplicateKeyError(err) {
		log.Println("register: default collection:", err)
	}

	h.sendVerificationEmail(r, user, rawToken)

	token, err := h.createToken(user)
	if err != nil {
		respondError(w, err)
		return
	}
	respondSuccess(w, http.StatusCreated, "User registered successfully. A verification link has been sent to your email address", TokenResponse{Token: token, User: user})
}

// Login authenticates by email and password. The failure message never says
// which of the two was wrong.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, err)
		return
	}
	if err := h.Validate.Validate(req); err != nil {
		respondError(w, err)
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))

	user, err := h.DB.UserByEmail(r.Context(), req.Email)
	if err != nil {
		respondError(w, err)
		return
	}
	if user == nil || bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)) != nil {
		respondError(w, apperr.Unauthorized("Invalid email or password"))
		return
	}

	token, err := h.createToken(user)
	if err != nil {
		respondError(w, err)
		return
	}
	respondSuccess(w, http.StatusOK, "Logged in successfully", TokenResponse{Token: token, User: user})
}

// VerifyEmail consumes the link from the verification email.
func (h *AuthHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(strings.ToLower(chi.URLParam(r, "email")))
	rawToken := chi.URLParam(r, "token")

	user, err := h.DB.UserByEmail(r.Context(), email)
	if err != nil {
		respondError(w, err)
		return
	}
	if user == nil {
		respondError(w, apperr.NotFound("User with the specified email address does not exist"))
		return
	}
	if user.EmailVerified {
		respondError(w, apperr.Conflict("User has already been verified"))
		return
	}
	if !utils.CheckVerificationToken(rawToken, user.VerificationToken) {
		respondError(w, apperr.Validation("Invalid verification token"))
		return
	}
	err = h.DB.UpdateUserFields(r.Context(), user.ID, bson.M{
		"emailVerified":     true,
		"verificationToken": "",
	})
	if err != nil {
		respondError(w, err)
		return
	}
	respondSuccess(w, http.StatusOK, "Email verified successfully", nil)
}

type ResendVerificationRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ResendVerification regenerates the token and re-sends the email. Unlike
// registration, a dispatch failure here is surfaced: re-sending the email is
// the whole point of the call.
func (h *AuthHandler) ResendVerification(w http.ResponseWriter, r *http.Request) {
	var req ResendVerificationRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, err)
		return
	}
	if err := h.Validate.Validate(req); err != nil {
		respondError(w, err)
		return
	}
	email := strings.TrimSpace(strings.ToLower(req.Email))

	user, err := h.DB.UserByEmail(r.Context(), email)
	if err != nil {
		respondError(w, err)
		return
	}
	if user == nil {
		respondError(w, apperr.NotFound("User with the specified email address does not exist"))
		return
	}
	if user.EmailVerified {
		respondError(w, apperr.Conflict("User has already been verified"))
		return
	}

	rawToken, tokenHash, err := utils.NewVerificationToken()
	if err != nil {
		respondError(w, err)
		return
	}
	if err := h.DB.UpdateUserFields(r.Context(), user.ID, bson.M{"verificationToken": tokenHash}); err != nil {
		respondError(w, err)
		return
	}
	if h.Mailer == nil {
		respondError(w, apperr.Internal("Email delivery is not configured"))
		return
	}
	if err := h.Mailer.SendVerificationEmail(user.Email, user.Firstname, h.verifyURL(user.Email, rawToken)); err != nil {
		log.Println("resend verification:", err)
		respondError(w, apperr.Internal("Verification email could not be sent"))
		return
	}
	h.logEmail(r, user)
	respondSuccess(w, http.StatusOK, "Verification link has been resent to your email address", nil)
}

// Logout clears the token cookie. Tokens themselves are stateless.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     "token",
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	respondSuccess(w, http.StatusOK, "Successfully logged out", nil)
}

func (h *AuthHandler) sendVerificationEmail(r *http.Request, user *models.User, rawToken string) {
	if h.Mailer == nil {
		log.Println("register: SMTP not configured; skipping verification email for", user.Email)
		return
	}
	if err := h.Mailer.SendVerificationEmail(user.Email, user.Firstname, h.verifyURL(user.Email, rawToken)); err != nil {
		log.Println("register: verification email:", err)
		return
	}
	h.logEmail(r, user)
}

func (h *AuthHandler) logEmail(r *http.Request, user *models.User) {
	entry := &models.EmailLog{
		UserID:  user.ID,
		ToEmail: user.Email,
		Kind:    models.EmailKindVerification,
		SentAt:  time.Now(),
	}
	if err := h.DB.InsertEmailLog(r.Context(), entry); err != nil {
		log.Println("email log:", err)
	}
}

func (h *AuthHandler) verifyURL(email, rawToken string) string {
	return h.BaseURL + "/api/auth/verify/" + email + "/" + rawToken
}

func (h *AuthHandler) createToken(user *models.User) (string, error) {
	claims := &middleware.Claims{
		UserID: user.ID.Hex(),
		Email:  user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour * 7)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(h.JWTSecret))
}
