package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Profile is the public-readable projection of a user account. It exists so
// lower-privilege callers can resolve display data without reading the users
// collection.
type Profile struct {
	ID          primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	UserID      string             `json:"userId" bson:"userId"`
	Email       string             `json:"email" bson:"email"`
	DisplayName string             `json:"displayName" bson:"displayName"`
	UpdatedAt   primitive.DateTime `json:"updatedAt" bson:"updatedAt"`
}
