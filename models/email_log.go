package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Email kinds recorded in the email log.
const (
	EmailKindVerification = "verification"
)

// EmailLog records one outbound email dispatch.
type EmailLog struct {
	ID      primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID  primitive.ObjectID `bson:"userId" json:"userId"`
	ToEmail string             `bson:"toEmail" json:"toEmail"`
	Kind    string             `bson:"kind" json:"kind"`
	SentAt  time.Time          `bson:"sentAt" json:"sentAt"`
}
