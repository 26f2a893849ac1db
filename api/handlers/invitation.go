package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/familybudget/family-budget-api/api"
	"github.com/familybudget/family-budget-api/config"
	"github.com/familybudget/family-budget-api/invitations"
	"github.com/familybudget/family-budget-api/models"
)

// Invitation struct mostly used for mocking tests
type Invitation struct {
	Service *invitations.Service
	Queries *invitations.QueryService
}

// SendInvitationHandler creates a new pending invitation for a family
func (i Invitation) SendInvitationHandler(w http.ResponseWriter, r *http.Request) {
	familyID := mux.Vars(r)["family_id"]

	var body struct {
		Email     string `json:"email"`
		Role      string `json:"role"`
		Message   string `json:"message"`
		InviterID string `json:"inviterId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	zap.S().Debugf("family_id: %v, email: %v, role: %v", familyID, body.Email, body.Role)

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	invitation, err := i.Service.Send(ctx, invitations.SendInput{
		FamilyID:  familyID,
		Email:     body.Email,
		Role:      body.Role,
		Message:   body.Message,
		InviterID: body.InviterID,
	})
	if err != nil {
		writeClassified(w, err)
		return
	}

	b, err := json.Marshal(invitation)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	w.Write(b)
}

// AcceptInvitationHandler accepts a pending invitation by its id
func (i Invitation) AcceptInvitationHandler(w http.ResponseWriter, r *http.Request) {
	invitationID := mux.Vars(r)["invitation_id"]
	i.accept(w, r, invitations.AcceptInput{InvitationID: invitationID})
}

// AcceptInvitationByTokenHandler accepts a pending invitation by its token,
// the path taken from the email link
func (i Invitation) AcceptInvitationByTokenHandler(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Token  string `json:"token"`
		UserID string `json:"userId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	membership, err := i.Service.Accept(ctx, invitations.AcceptInput{Token: body.Token, UserID: body.UserID})
	if err != nil {
		writeClassified(w, err)
		return
	}
	writeJSON(w, http.StatusOK, membership)
}

func (i Invitation) accept(w http.ResponseWriter, r *http.Request, input invitations.AcceptInput) {
	var body struct {
		UserID string `json:"userId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	input.UserID = body.UserID

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	membership, err := i.Service.Accept(ctx, input)
	if err != nil {
		writeClassified(w, err)
		return
	}
	writeJSON(w, http.StatusOK, membership)
}

// DeclineInvitationHandler declines a pending invitation
func (i Invitation) DeclineInvitationHandler(w http.ResponseWriter, r *http.Request) {
	invitationID := mux.Vars(r)["invitation_id"]

	var body struct {
		UserID string `json:"userId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	if err := i.Service.Decline(ctx, invitationID, body.UserID); err != nil {
		writeClassified(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": models.InvitationStatusDeclined})
}

// CancelInvitationHandler withdraws a pending invitation
func (i Invitation) CancelInvitationHandler(w http.ResponseWriter, r *http.Request) {
	invitationID := mux.Vars(r)["invitation_id"]

	var body struct {
		UserID string `json:"userId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	if err := i.Service.Cancel(ctx, invitationID, body.UserID); err != nil {
		writeClassified(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": models.InvitationStatusCancelled})
}

// InvitationByTokenHandler returns the invitation for an email-link token so
// the landing page can show family and role before the user decides
func (i Invitation) InvitationByTokenHandler(w http.ResponseWriter, r *http.Request) {
	token := mux.Vars(r)["token"]

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	invitation, err := i.Service.GetByToken(ctx, token)
	if err != nil {
		writeClassified(w, err)
		return
	}
	writeJSON(w, http.StatusOK, invitation)
}

// ListPendingInvitationsHandler returns the non-expired pending invitations
// addressed to the calling user's email
func (i Invitation) ListPendingInvitationsHandler(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		config.ErrorStatus("user_id is required", http.StatusBadRequest, w, nil)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	pending, err := i.Queries.ListPendingForUser(ctx, userID)
	if err != nil {
		writeClassified(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pending)
}

// ListSentInvitationsHandler returns every invitation created for a family,
// newest first
func (i Invitation) ListSentInvitationsHandler(w http.ResponseWriter, r *http.Request) {
	familyID := mux.Vars(r)["family_id"]
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		config.ErrorStatus("user_id is required", http.StatusBadRequest, w, nil)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	sent, err := i.Queries.ListSentForFamily(ctx, familyID, userID)
	if err != nil {
		writeClassified(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sent)
}

// CleanupExpiredInvitationsHandler runs the expiry sweep on demand. The
// scheduler runs the same sweep hourly; this route exists for support
// tooling and is admin-gated.
func (i Invitation) CleanupExpiredInvitationsHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	expired, err := i.Service.CleanupExpired(ctx)
	if err != nil {
		writeClassified(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"expired": expired})
}

// writeClassified renders a classified invitation error with the status code
// its kind maps to. The body always carries the full classification contract.
func writeClassified(w http.ResponseWriter, err error) {
	ce := invitations.Classify(err)
	config.ClassifiedErrorStatus(models.ClassifiedErrorResponse{
		Kind:            string(ce.Kind),
		Message:         ce.UserMessage,
		CanRetry:        ce.CanRetry,
		SuggestedAction: ce.SuggestedAction,
	}, statusForKind(ce.Kind), w)
}

func statusForKind(kind invitations.Kind) int {
	switch kind {
	case invitations.KindPermissionDenied:
		return http.StatusForbidden
	case invitations.KindUserNotRegistered, invitations.KindValidationError:
		return http.StatusBadRequest
	case invitations.KindUserAlreadyInvited, invitations.KindUserAlreadyMember:
		return http.StatusConflict
	case invitations.KindVerificationFailed:
		return http.StatusGone
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	b, err := json.Marshal(v)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(status)
	w.Write(b)
}
