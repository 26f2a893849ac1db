package invitations

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/familybudget/family-budget-api/databases"
	"github.com/familybudget/family-budget-api/models"
)

// ResolvedUser is an identity produced by a resolver. Both fields required
// for an invitation record must be present; half-formed identities are
// rejected before they reach the caller.
type ResolvedUser struct {
	ID             string
	Email          string
	Name           string
	EmailConfirmed bool
}

// UserResolver resolves an email to a registered account. A (nil, nil)
// return is an authoritative "no such account"; an error means this lookup
// path could not answer and the next tier should be consulted.
type UserResolver interface {
	Resolve(ctx context.Context, email string) (*ResolvedUser, error)
}

// PrivilegedResolver is the primary lookup path: a direct query against the
// users collection, which ordinary clients cannot read.
type PrivilegedResolver struct {
	DB databases.UserDatabase
}

// Resolve looks the email up in the users collection, normalized to
// trimmed lower case.
func (r *PrivilegedResolver) Resolve(ctx context.Context, email string) (*ResolvedUser, error) {
	normalized := NormalizeEmail(email)

	user := models.User{}
	err := r.DB.FindOne(ctx, bson.M{"user.email": normalized}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			// The call itself succeeded, so this miss is authoritative.
			return nil, nil
		}
		return nil, fmt.Errorf("privileged user lookup failed: %w", err)
	}

	return &ResolvedUser{
		ID:             user.ID,
		Email:          user.Details.Email,
		Name:           user.Details.Name,
		EmailConfirmed: user.Details.EmailConfirmed,
	}, nil
}

// ProfileResolver is the fallback lookup path: a case-insensitive match
// against the public-readable profiles collection, used when the privileged
// path errors.
type ProfileResolver struct {
	DB databases.ProfileDatabase
}

// Resolve matches the email case-insensitively against public profiles.
func (r *ProfileResolver) Resolve(ctx context.Context, email string) (*ResolvedUser, error) {
	normalized := NormalizeEmail(email)

	profile, err := r.DB.FindOne(ctx, bson.M{
		"email": primitive.Regex{Pattern: "^" + regexp.QuoteMeta(normalized) + "$", Options: "i"},
	})
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("profile lookup failed: %w", err)
	}

	return &ResolvedUser{
		ID:    profile.UserID,
		Email: profile.Email,
		Name:  profile.DisplayName,
	}, nil
}

// Verifier answers the two questions the lifecycle manager asks before an
// invitation may be sent or accepted: does this email belong to a registered
// account, and does that account already hold a family membership.
type Verifier struct {
	resolvers   []UserResolver
	memberships databases.FamilyMembershipDatabase
}

// NewVerifier builds a verifier with the standard two-tier resolver chain:
// privileged users lookup first, public profiles as the fallback.
func NewVerifier(udb databases.UserDatabase, pdb databases.ProfileDatabase, mdb databases.FamilyMembershipDatabase) *Verifier {
	return &Verifier{
		resolvers: []UserResolver{
			&PrivilegedResolver{DB: udb},
			&ProfileResolver{DB: pdb},
		},
		memberships: mdb,
	}
}

// NewVerifierWithResolvers builds a verifier with a caller-supplied resolver
// chain, first success wins. Used by tests to exercise the chain policy in
// isolation.
func NewVerifierWithResolvers(mdb databases.FamilyMembershipDatabase, resolvers ...UserResolver) *Verifier {
	return &Verifier{resolvers: resolvers, memberships: mdb}
}

// ResolveUser walks the resolver chain. An authoritative miss from any tier,
// or every tier erroring, means the email is unregistered — invitations can
// only target existing accounts. A match missing id or email is rejected
// as a verification failure rather than propagated.
func (v *Verifier) ResolveUser(ctx context.Context, email string) (*ResolvedUser, error) {
	if NormalizeEmail(email) == "" {
		return nil, fmt.Errorf("%w: email is required", ErrValidation)
	}

	var lastErr error
	for _, resolver := range v.resolvers {
		user, err := resolver.Resolve(ctx, email)
		if err != nil {
			lastErr = err
			continue
		}
		if user == nil {
			return nil, fmt.Errorf("%w: %s", ErrUserNotRegistered, NormalizeEmail(email))
		}
		if user.ID == "" || user.Email == "" {
			return nil, fmt.Errorf("%w: lookup returned an incomplete identity", ErrVerificationFailed)
		}
		return user, nil
	}

	if lastErr != nil {
		// Every tier errored without producing a match. Invitations can only
		// target existing accounts, so this is treated as unregistered.
		return nil, fmt.Errorf("%w: %v", ErrUserNotRegistered, lastErr)
	}
	return nil, ErrUserNotRegistered
}

// HasActiveFamily reports whether the user already holds an active or
// pending membership anywhere. A user may belong to at most one family
// system-wide.
func (v *Verifier) HasActiveFamily(ctx context.Context, userID string) (bool, error) {
	count, err := v.memberships.CountDocuments(ctx, bson.M{
		"userId": userID,
		"status": bson.M{"$in": []string{models.MembershipStatusActive, models.MembershipStatusPending}},
	})
	if err != nil {
		return false, fmt.Errorf("membership lookup failed: %w", err)
	}
	return count > 0, nil
}

// NormalizeEmail trims whitespace and lowercases an email for lookups. The
// stored invitedEmail keeps whatever casing the account itself registered.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
