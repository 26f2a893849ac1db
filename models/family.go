package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Family holds the structure for the family collection in mongo
type Family struct {
	ID        primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	Name      string             `json:"name" bson:"name"`
	OwnerID   string             `json:"ownerId" bson:"ownerId"`
	CreatedAt primitive.DateTime `json:"createdAt" bson:"createdAt"`
	UpdatedAt primitive.DateTime `json:"updatedAt" bson:"updatedAt"`
}
