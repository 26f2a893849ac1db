package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FamilyMembership status values.
const (
	MembershipStatusActive  = "active"
	MembershipStatusPending = "pending"
	MembershipStatusRemoved = "removed"
)

// FamilyMembership represents the (family, user) relationship in mongo.
// A user holds at most one active membership system-wide.
type FamilyMembership struct {
	ID       primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	FamilyID string             `json:"familyId" bson:"familyId"`
	UserID   string             `json:"userId" bson:"userId"`
	Role     string             `json:"role" bson:"role"`
	Status   string             `json:"status" bson:"status"`
	JoinedAt primitive.DateTime `json:"joinedAt" bson:"joinedAt"`
}
