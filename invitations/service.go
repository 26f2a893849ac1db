package invitations

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/familybudget/family-budget-api/databases"
	"github.com/familybudget/family-budget-api/models"
)

// InvitationTTL is how long an invitation stays acceptable. Fixed policy;
// expiresAt is immutable once set.
const InvitationTTL = 7 * 24 * time.Hour

// Service is the invitation lifecycle manager. All dependencies are
// injected; nothing in this package holds global state.
type Service struct {
	Inv      databases.InvitationDatabase
	Fam      databases.FamilyDatabase
	Mem      databases.FamilyMembershipDatabase
	Users    databases.UserDatabase
	Client   databases.ClientHelper
	Verifier *Verifier
	Notifier Notifier

	now func() time.Time
}

// NewService wires a lifecycle manager over the given database helpers. The
// notifier may be nil; notification is best-effort and never affects the
// outcome of an operation.
func NewService(
	inv databases.InvitationDatabase,
	fam databases.FamilyDatabase,
	mem databases.FamilyMembershipDatabase,
	users databases.UserDatabase,
	profiles databases.ProfileDatabase,
	client databases.ClientHelper,
	notifier Notifier,
) *Service {
	return &Service{
		Inv:      inv,
		Fam:      fam,
		Mem:      mem,
		Users:    users,
		Client:   client,
		Verifier: NewVerifier(users, profiles, mem),
		Notifier: notifier,
		now:      time.Now,
	}
}

// SendInput carries the parameters for Send.
type SendInput struct {
	FamilyID  string `json:"familyId"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	Message   string `json:"message"`
	InviterID string `json:"-"`
}

// Send creates a pending invitation after the full precondition chain
// passes. Checks run in order and short-circuit: inviter permission, target
// is registered, target has no family, no duplicate pending invitation. On
// any failure nothing is written. The uniqueness index on the invitations
// collection, not the pre-check, is what makes a concurrent duplicate send
// lose.
func (s *Service) Send(ctx context.Context, input SendInput) (*models.Invitation, error) {
	if err := validateSendInput(input); err != nil {
		return nil, Classify(err)
	}

	family, err := s.loadFamily(ctx, input.FamilyID)
	if err != nil {
		return nil, Classify(err)
	}

	if err := s.requireAdminOrOwner(ctx, family, input.InviterID); err != nil {
		return nil, Classify(err)
	}

	invited, err := s.Verifier.ResolveUser(ctx, input.Email)
	if err != nil {
		return nil, Classify(err)
	}

	hasFamily, err := s.Verifier.HasActiveFamily(ctx, invited.ID)
	if err != nil {
		return nil, Classify(err)
	}
	if hasFamily {
		return nil, Classify(fmt.Errorf("%w: %s", ErrUserAlreadyMember, invited.Email))
	}

	// Fast-path duplicate check for a friendly error; the unique index below
	// is the actual race guard.
	pending, err := s.Inv.CountDocuments(ctx, bson.M{
		"familyId":     input.FamilyID,
		"invitedEmail": invited.Email,
		"status":       models.InvitationStatusPending,
	})
	if err != nil {
		return nil, Classify(err)
	}
	if pending > 0 {
		return nil, Classify(fmt.Errorf("%w: %s", ErrUserAlreadyInvited, invited.Email))
	}

	token, err := GenerateToken()
	if err != nil {
		return nil, Classify(err)
	}

	now := s.now()
	invitation := models.Invitation{
		ID:            primitive.NewObjectID(),
		FamilyID:      input.FamilyID,
		InviterID:     input.InviterID,
		InvitedEmail:  invited.Email,
		InvitedUserID: invited.ID,
		Role:          input.Role,
		Message:       strings.TrimSpace(input.Message),
		Status:        models.InvitationStatusPending,
		Token:         token,
		ExpiresAt:     primitive.NewDateTimeFromTime(now.Add(InvitationTTL)),
		CreatedAt:     primitive.NewDateTimeFromTime(now),
		UpdatedAt:     primitive.NewDateTimeFromTime(now),
	}

	if _, err := s.Inv.InsertOne(ctx, invitation); err != nil {
		return nil, Classify(err)
	}

	// Creation is the durable effect; notification is fire-and-forget.
	if s.Notifier != nil {
		inviterName := s.lookupDisplayName(ctx, input.InviterID)
		go func(inv models.Invitation, familyName, inviterName string) {
			defer func() {
				if r := recover(); r != nil {
					zap.S().Errorw("invitation notification panicked", "recover", r)
				}
			}()
			s.Notifier.InvitationCreated(inv, familyName, inviterName)
		}(invitation, family.Name, inviterName)
	}

	return &invitation, nil
}

// AcceptInput identifies the invitation by id or by token, plus the
// accepting user.
type AcceptInput struct {
	InvitationID string
	Token        string
	UserID       string
}

// Accept transitions a pending, unexpired invitation to accepted and creates
// the membership row in one transaction. The accepting account's stored
// email must match the invited email exactly, so an intercepted token is
// useless to a different account. A second accept sees status != pending and
// fails cleanly without duplicating membership.
func (s *Service) Accept(ctx context.Context, input AcceptInput) (*models.FamilyMembership, error) {
	if input.UserID == "" {
		return nil, Classify(fmt.Errorf("%w: user id is required", ErrValidation))
	}

	invitation, err := s.findForUpdate(ctx, input.InvitationID, input.Token)
	if err != nil {
		return nil, Classify(err)
	}

	if invitation.Status != models.InvitationStatusPending {
		return nil, Classify(fmt.Errorf("%w: invitation is %s", ErrVerificationFailed, invitation.Status))
	}

	now := s.now()
	if !now.Before(invitation.ExpiresAt.Time()) {
		s.expireInPlace(ctx, invitation.ID, now)
		return nil, Classify(fmt.Errorf("%w: invitation expired", ErrVerificationFailed))
	}

	if err := s.requireInvitedUser(ctx, invitation, input.UserID); err != nil {
		return nil, Classify(err)
	}

	// Re-checked at acceptance because time has passed since send.
	hasFamily, err := s.Verifier.HasActiveFamily(ctx, input.UserID)
	if err != nil {
		return nil, Classify(err)
	}
	if hasFamily {
		return nil, Classify(fmt.Errorf("%w: user %s", ErrUserAlreadyMember, input.UserID))
	}

	membership := models.FamilyMembership{
		ID:       primitive.NewObjectID(),
		FamilyID: invitation.FamilyID,
		UserID:   input.UserID,
		Role:     invitation.Role,
		Status:   models.MembershipStatusActive,
		JoinedAt: primitive.NewDateTimeFromTime(now),
	}

	// Both collections move together or not at all.
	err = s.Client.WithTransaction(ctx, func(sc context.Context) error {
		res, err := s.Inv.UpdateOne(sc,
			bson.M{"_id": invitation.ID, "status": models.InvitationStatusPending},
			bson.M{"$set": bson.M{
				"status":        models.InvitationStatusAccepted,
				"invitedUserId": input.UserID,
				"updatedAt":     primitive.NewDateTimeFromTime(now),
			}},
		)
		if err != nil {
			return err
		}
		if res == nil || res.ModifiedCount == 0 {
			return fmt.Errorf("%w: invitation is no longer pending", ErrVerificationFailed)
		}

		_, err = s.Mem.InsertOne(sc, membership)
		return err
	})
	if err != nil {
		return nil, Classify(err)
	}

	return &membership, nil
}

// Decline transitions a pending invitation to declined. Same email-ownership
// requirement as Accept; no membership side effect.
func (s *Service) Decline(ctx context.Context, invitationID, userID string) error {
	invitation, err := s.findForUpdate(ctx, invitationID, "")
	if err != nil {
		return Classify(err)
	}

	if invitation.Status != models.InvitationStatusPending {
		return Classify(fmt.Errorf("%w: invitation is %s", ErrVerificationFailed, invitation.Status))
	}

	now := s.now()
	if !now.Before(invitation.ExpiresAt.Time()) {
		s.expireInPlace(ctx, invitation.ID, now)
		return Classify(fmt.Errorf("%w: invitation expired", ErrVerificationFailed))
	}

	if err := s.requireInvitedUser(ctx, invitation, userID); err != nil {
		return Classify(err)
	}

	if err := s.transition(ctx, invitation.ID, models.InvitationStatusDeclined, now); err != nil {
		return Classify(err)
	}
	return nil
}

// Cancel withdraws a pending invitation. Permitted for the original inviter
// or any currently-active admin of the family.
func (s *Service) Cancel(ctx context.Context, invitationID, userID string) error {
	invitation, err := s.findForUpdate(ctx, invitationID, "")
	if err != nil {
		return Classify(err)
	}

	if invitation.Status != models.InvitationStatusPending {
		return Classify(fmt.Errorf("%w: invitation is %s", ErrVerificationFailed, invitation.Status))
	}

	if invitation.InviterID != userID {
		isAdmin, err := s.isActiveAdmin(ctx, invitation.FamilyID, userID)
		if err != nil {
			return Classify(err)
		}
		if !isAdmin {
			return Classify(fmt.Errorf("%w: only the inviter or a family admin can cancel", ErrPermissionDenied))
		}
	}

	if err := s.transition(ctx, invitation.ID, models.InvitationStatusCancelled, s.now()); err != nil {
		return Classify(err)
	}
	return nil
}

// CleanupExpired transitions every pending invitation past its expiry to
// expired and returns how many rows moved. Safe to run repeatedly and
// concurrently; a second run matches nothing.
func (s *Service) CleanupExpired(ctx context.Context) (int64, error) {
	now := s.now()
	res, err := s.Inv.UpdateMany(ctx,
		bson.M{
			"status":    models.InvitationStatusPending,
			"expiresAt": bson.M{"$lt": primitive.NewDateTimeFromTime(now)},
		},
		bson.M{"$set": bson.M{
			"status":    models.InvitationStatusExpired,
			"updatedAt": primitive.NewDateTimeFromTime(now),
		}},
	)
	if err != nil {
		return 0, Classify(err)
	}
	if res == nil {
		return 0, nil
	}
	return res.ModifiedCount, nil
}

// GetByToken fetches an invitation by its token, for the email-link landing
// page. Expired-but-pending invitations are reported as verification
// failures, not returned.
func (s *Service) GetByToken(ctx context.Context, token string) (*models.Invitation, error) {
	if token == "" {
		return nil, Classify(fmt.Errorf("%w: token is required", ErrValidation))
	}

	invitation, err := s.Inv.FindOne(ctx, bson.M{"token": token})
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, Classify(fmt.Errorf("%w: unknown invitation token", ErrVerificationFailed))
		}
		return nil, Classify(err)
	}

	if invitation.Status == models.InvitationStatusPending && !s.now().Before(invitation.ExpiresAt.Time()) {
		s.expireInPlace(ctx, invitation.ID, s.now())
		return nil, Classify(fmt.Errorf("%w: invitation expired", ErrVerificationFailed))
	}

	return invitation, nil
}

func validateSendInput(input SendInput) error {
	if input.FamilyID == "" {
		return fmt.Errorf("%w: family id is required", ErrValidation)
	}
	if input.InviterID == "" {
		return fmt.Errorf("%w: inviter id is required", ErrValidation)
	}
	email := NormalizeEmail(input.Email)
	if email == "" || !strings.Contains(email, "@") {
		return fmt.Errorf("%w: a valid email address is required", ErrValidation)
	}
	if input.Role != models.InvitationRoleAdmin && input.Role != models.InvitationRoleViewer {
		return fmt.Errorf("%w: role must be %q or %q", ErrValidation, models.InvitationRoleAdmin, models.InvitationRoleViewer)
	}
	return nil
}

func (s *Service) loadFamily(ctx context.Context, familyID string) (*models.Family, error) {
	fID, err := primitive.ObjectIDFromHex(familyID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid family id", ErrValidation)
	}

	family, err := s.Fam.FindOne(ctx, bson.M{"_id": fID})
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: family not found", ErrValidation)
		}
		return nil, err
	}
	return family, nil
}

// requireAdminOrOwner allows the recorded family owner or any member holding
// the admin role with active status.
func (s *Service) requireAdminOrOwner(ctx context.Context, family *models.Family, userID string) error {
	if family.OwnerID == userID {
		return nil
	}

	count, err := s.Mem.CountDocuments(ctx, bson.M{
		"familyId": family.ID.Hex(),
		"userId":   userID,
		"role":     models.InvitationRoleAdmin,
		"status":   models.MembershipStatusActive,
	})
	if err != nil {
		return err
	}
	if count == 0 {
		return fmt.Errorf("%w: only family admins can send invitations", ErrPermissionDenied)
	}
	return nil
}

func (s *Service) isActiveAdmin(ctx context.Context, familyID, userID string) (bool, error) {
	count, err := s.Mem.CountDocuments(ctx, bson.M{
		"familyId": familyID,
		"userId":   userID,
		"role":     models.InvitationRoleAdmin,
		"status":   models.MembershipStatusActive,
	})
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// requireInvitedUser checks that the acting account's stored email equals
// the invited email exactly. Case-sensitive on the stored value: a token in
// the wrong hands does not transfer the invitation.
func (s *Service) requireInvitedUser(ctx context.Context, invitation *models.Invitation, userID string) error {
	user := models.User{}
	err := s.Users.FindOne(ctx, bson.M{"_id": userID}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return fmt.Errorf("%w: accepting account not found", ErrVerificationFailed)
		}
		return err
	}

	if user.Details.Email != invitation.InvitedEmail {
		return fmt.Errorf("%w: this invitation was sent to a different email address", ErrPermissionDenied)
	}
	return nil
}

func (s *Service) findForUpdate(ctx context.Context, invitationID, token string) (*models.Invitation, error) {
	var filter bson.M
	switch {
	case invitationID != "":
		id, err := primitive.ObjectIDFromHex(invitationID)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid invitation id", ErrValidation)
		}
		filter = bson.M{"_id": id}
	case token != "":
		filter = bson.M{"token": token}
	default:
		return nil, fmt.Errorf("%w: invitation id or token is required", ErrValidation)
	}

	invitation, err := s.Inv.FindOne(ctx, filter)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: invitation not found", ErrVerificationFailed)
		}
		return nil, err
	}
	return invitation, nil
}

// transition flips a pending invitation into a terminal state. The status
// filter makes the write conditional, so a lost race fails instead of
// resurrecting a terminal invitation.
func (s *Service) transition(ctx context.Context, id primitive.ObjectID, status string, now time.Time) error {
	res, err := s.Inv.UpdateOne(ctx,
		bson.M{"_id": id, "status": models.InvitationStatusPending},
		bson.M{"$set": bson.M{
			"status":    status,
			"updatedAt": primitive.NewDateTimeFromTime(now),
		}},
	)
	if err != nil {
		return err
	}
	if res == nil || res.ModifiedCount == 0 {
		return fmt.Errorf("%w: invitation is no longer pending", ErrVerificationFailed)
	}
	return nil
}

// expireInPlace is the eager variant of the scheduled sweep: an expired
// invitation noticed during a read or accept attempt is transitioned right
// away. Best-effort; the caller already fails with a verification error.
func (s *Service) expireInPlace(ctx context.Context, id primitive.ObjectID, now time.Time) {
	_, err := s.Inv.UpdateOne(ctx,
		bson.M{"_id": id, "status": models.InvitationStatusPending},
		bson.M{"$set": bson.M{
			"status":    models.InvitationStatusExpired,
			"updatedAt": primitive.NewDateTimeFromTime(now),
		}},
	)
	if err != nil {
		zap.S().Warnw("failed to expire invitation in place", "invitationId", id.Hex(), "error", err)
	}
}

func (s *Service) lookupDisplayName(ctx context.Context, userID string) string {
	user := models.User{}
	if err := s.Users.FindOne(ctx, bson.M{"_id": userID}).Decode(&user); err != nil {
		return ""
	}
	if user.Details.Name != "" {
		return user.Details.Name
	}
	return user.Details.Username
}
