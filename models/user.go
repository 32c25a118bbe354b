package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role constants for user authorization.
const (
	RoleUser       = "user"
	RoleAdmin      = "admin"
	RoleSuperAdmin = "superadmin"
)

type User struct {
	ID                primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Firstname         string             `bson:"firstname" json:"firstname"`
	Lastname          string             `bson:"lastname" json:"lastname"`
	Email             string             `bson:"email" json:"email"`
	PhoneNumber       string             `bson:"phoneNumber" json:"phoneNumber"`
	Password          string             `bson:"password" json:"-"` // bcrypt hash
	Role              string             `bson:"role" json:"role"`
	Permissions       []string           `bson:"permissions" json:"-"`
	ProfileImage      string             `bson:"profileImage,omitempty" json:"profileImage,omitempty"`
	ProfileImageKey   string             `bson:"profileImageKey,omitempty" json:"-"` // object key in S3
	PasswordChangedAt time.Time          `bson:"passwordChangedAt,omitempty" json:"-"`
	EmailVerified     bool               `bson:"emailVerified" json:"emailVerified"`
	VerificationToken string             `bson:"verificationToken,omitempty" json:"-"` // bcrypt hash
	Active            bool               `bson:"active" json:"active"`
	CreatedAt         time.Time          `bson:"createdAt" json:"createdAt"`
}

// PasswordChangedAfter reports whether the password was changed after the
// given token issue time. Tokens issued before a password change are dead.
func (u *User) PasswordChangedAfter(issuedAt time.Time) bool {
	if u.PasswordChangedAt.IsZero() {
		return false
	}
	return u.PasswordChangedAt.After(issuedAt)
}

// Profile is the public projection of a user: no password, permissions or
// verification state.
type Profile struct {
	ID           primitive.ObjectID `json:"id"`
	Firstname    string             `json:"firstname"`
	Lastname     string             `json:"lastname"`
	Email        string             `json:"email"`
	ProfileImage string             `json:"profileImage,omitempty"`
}

// PublicProfile returns the public projection of the user.
func (u *User) PublicProfile() Profile {
	return Profile{
		ID:           u.ID,
		Firstname:    u.Firstname,
		Lastname:     u.Lastname,
		Email:        u.Email,
		ProfileImage: u.ProfileImage,
	}
}
