package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/bookifyapp/server/models"
	"github.com/bookifyapp/server/store"
	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type contextKey string

const userKey contextKey = "user"

type Claims struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// Auth authenticates the request from its Bearer token, checks the user still
// exists and has not changed their password since the token was issued, and
// puts the resolved user into the request context.
func Auth(jwtSecret string, db *store.DB) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			if auth == "" {
				http.Error(w, `{"status":"error","message":"You are currently not logged in. Please sign in to continue"}`, http.StatusUnauthorized)
				return
			}
			parts := strings.SplitN(auth, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				http.Error(w, `{"status":"error","message":"Invalid authorization format"}`, http.StatusUnauthorized)
				return
			}
			token, err := jwt.ParseWithClaims(parts[1], &Claims{}, func(t *jwt.Token) (interface{}, error) {
				return []byte(jwtSecret), nil
			})
			if err != nil || !token.Valid {
				http.Error(w, `{"status":"error","message":"Invalid or expired token"}`, http.StatusUnauthorized)
				return
			}
			claims, ok := token.Claims.(*Claims)
			if !ok {
				http.Error(w, `{"status":"error","message":"Invalid token"}`, http.StatusUnauthorized)
				return
			}
			userID, err := primitive.ObjectIDFromHex(claims.UserID)
			if err != nil {
				http.Error(w, `{"status":"error","message":"Invalid token"}`, http.StatusUnauthorized)
				return
			}
			user, err := db.UserByID(r.Context(), userID)
			if err != nil {
				http.Error(w, `{"status":"error","message":"Authentication failed"}`, http.StatusInternalServerError)
				return
			}
			if user == nil || !user.Active {
				http.Error(w, `{"status":"error","message":"The user with the token does not exist anymore"}`, http.StatusUnauthorized)
				return
			}
			if claims.IssuedAt != nil && user.PasswordChangedAfter(claims.IssuedAt.Time) {
				http.Error(w, `{"status":"error","message":"User password has been changed. Please login to get a new token"}`, http.StatusUnauthorized)
				return
			}
			ctx := context.WithValue(r.Context(), userKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireVerifiedEmail rejects requests from users who have not verified
// their email address. Must run after Auth.
func RequireVerifiedEmail() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := UserFromContext(r.Context())
			if !ok {
				http.Error(w, `{"status":"error","message":"You are currently not logged in. Please sign in to continue"}`, http.StatusUnauthorized)
				return
			}
			if !user.EmailVerified {
				http.Error(w, `{"status":"error","message":"Email has not been verified. Please verify your email address"}`, http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// UserFromContext returns the authenticated user placed by Auth.
func UserFromContext(ctx context.Context) (*models.User, bool) {
	u, ok := ctx.Value(userKey).(*models.User)
	return u, ok
}

// UserIDFromContext returns the authenticated user's id.
func UserIDFromContext(ctx context.Context) (primitive.ObjectID, bool) {
	u, ok := UserFromContext(ctx)
	if !ok {
		return primitive.NilObjectID, false
	}
	return u.ID, true
}
