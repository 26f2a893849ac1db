package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Invitation status values. An invitation leaves pending exactly once and
// never transitions out of a terminal state.
const (
	InvitationStatusPending   = "pending"
	InvitationStatusAccepted  = "accepted"
	InvitationStatusDeclined  = "declined"
	InvitationStatusCancelled = "cancelled"
	InvitationStatusExpired   = "expired"
)

// Invitation roles a new member can be granted.
const (
	InvitationRoleAdmin  = "admin"
	InvitationRoleViewer = "viewer"
)

// Invitation represents the structure of an invitation document in MongoDB
type Invitation struct {
	ID            primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	FamilyID      string             `json:"familyId" bson:"familyId"`
	InviterID     string             `json:"inviterId" bson:"inviterId"`
	InvitedEmail  string             `json:"invitedEmail" bson:"invitedEmail"`
	InvitedUserID string             `json:"invitedUserId,omitempty" bson:"invitedUserId,omitempty"`
	Role          string             `json:"role" bson:"role"`
	Message       string             `json:"message,omitempty" bson:"message,omitempty"`
	Status        string             `json:"status" bson:"status"`
	Token         string             `json:"token" bson:"token" index:"unique"`
	ExpiresAt     primitive.DateTime `json:"expiresAt" bson:"expiresAt"`
	CreatedAt     primitive.DateTime `json:"createdAt" bson:"createdAt"`
	UpdatedAt     primitive.DateTime `json:"updatedAt" bson:"updatedAt"`
}

// EnrichedInvitation is an invitation joined with family and inviter display
// data for the dashboard and notification badge views
type EnrichedInvitation struct {
	Invitation   `bson:",inline"`
	FamilyName   string `json:"familyName"`
	InviterName  string `json:"inviterName"`
	InviterEmail string `json:"inviterEmail"`
}
