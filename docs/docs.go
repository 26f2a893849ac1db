// Package docs Family Budget API.
//
// Documentation of Family Budget API.
//
//     Schemes: https
//     BasePath: /
//     Version: 1.0.0
//     Host: https://family-budget-api.herokuapp.com
//
//     Consumes:
//     - application/json
//
//     Produces:
//     - application/json
//
//     Security:
//     - basic
//
//    SecurityDefinitions:
//    basic:
//      type: basic
//
// swagger:meta
package docs

import (
	"github.com/familybudget/family-budget-api/models"
)

// swagger:route GET /health health healthEndpointID
// Lists the healthchex of the web service api.
// responses:
//   200: healthResponse

// Shows the current health of the api. true means it is alive, false means it is not.
// swagger:response healthResponse
type healthResponseWrapper struct {
	// in:body
	Body struct {
		Alive bool `json:"alive"`
	}
}

// swagger:route POST /api/v1/family/{family_id}/invitations invitations sendInvitation
// Creates a pending invitation and emails the invitee an acceptance link.
// responses:
//   201: invitationResponse
//   400: classifiedErrorResponse
//   403: classifiedErrorResponse
//   409: classifiedErrorResponse

// A single invitation document.
// swagger:response invitationResponse
type invitationResponseWrapper struct {
	// in:body
	Body models.Invitation
}

// swagger:route GET /api/v1/invitations/pending invitations pendingInvitations
// Lists the non-expired pending invitations addressed to the caller.
// responses:
//   200: enrichedInvitationsResponse

// Invitations joined with family and inviter display data.
// swagger:response enrichedInvitationsResponse
type enrichedInvitationsResponseWrapper struct {
	// in:body
	Body []models.EnrichedInvitation
}

// swagger:route POST /api/v1/invitations/{invitation_id}/accept invitations acceptInvitation
// Accepts a pending invitation and creates the membership.
// responses:
//   200: membershipResponse
//   400: classifiedErrorResponse
//   409: classifiedErrorResponse
//   410: classifiedErrorResponse

// The membership created by accepting an invitation.
// swagger:response membershipResponse
type membershipResponseWrapper struct {
	// in:body
	Body models.FamilyMembership
}

// Workflow failures carry a stable kind, a user-facing message, a retry hint
// and a suggested next step.
// swagger:response classifiedErrorResponse
type classifiedErrorResponseWrapper struct {
	// in:body
	Body models.ClassifiedErrorResponse
}
