package invitations

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/familybudget/family-budget-api/databases"
	"github.com/familybudget/family-budget-api/databases/mocks"
)

type stubResolver struct {
	user   *ResolvedUser
	err    error
	called bool
}

func (s *stubResolver) Resolve(ctx context.Context, email string) (*ResolvedUser, error) {
	s.called = true
	return s.user, s.err
}

func membershipDBWithCount(count int64, err error) databases.FamilyMembershipDatabase {
	conn := &mocks.CollectionHelper{}
	conn.On("CountDocuments", mock.Anything, mock.Anything).Return(count, err)

	db := &mocks.DatabaseHelper{}
	db.On("Collection", "familyMemberships").Return(conn)

	return databases.NewFamilyMembershipDatabase(db)
}

func TestVerifier_ResolveUser_FirstTierWins(t *testing.T) {
	first := &stubResolver{user: &ResolvedUser{ID: "user-1", Email: "alice@example.com"}}
	second := &stubResolver{}
	v := NewVerifierWithResolvers(membershipDBWithCount(0, nil), first, second)

	user, err := v.ResolveUser(context.Background(), "Alice@Example.com ")
	assert.NoError(t, err)
	assert.Equal(t, "user-1", user.ID)
	assert.False(t, second.called, "second tier consulted after a first-tier match")
}

func TestVerifier_ResolveUser_AuthoritativeMissStopsChain(t *testing.T) {
	first := &stubResolver{user: nil, err: nil}
	second := &stubResolver{user: &ResolvedUser{ID: "user-2", Email: "alice@example.com"}}
	v := NewVerifierWithResolvers(membershipDBWithCount(0, nil), first, second)

	_, err := v.ResolveUser(context.Background(), "alice@example.com")
	assert.ErrorIs(t, err, ErrUserNotRegistered)
	assert.False(t, second.called, "a successful empty lookup is authoritative")
}

func TestVerifier_ResolveUser_ErrorFallsToNextTier(t *testing.T) {
	first := &stubResolver{err: errors.New("users collection unavailable")}
	second := &stubResolver{user: &ResolvedUser{ID: "user-3", Email: "bob@example.com"}}
	v := NewVerifierWithResolvers(membershipDBWithCount(0, nil), first, second)

	user, err := v.ResolveUser(context.Background(), "bob@example.com")
	assert.NoError(t, err)
	assert.Equal(t, "user-3", user.ID)
	assert.True(t, second.called)
}

func TestVerifier_ResolveUser_AllTiersErroring(t *testing.T) {
	first := &stubResolver{err: errors.New("tier one down")}
	second := &stubResolver{err: errors.New("tier two down")}
	v := NewVerifierWithResolvers(membershipDBWithCount(0, nil), first, second)

	_, err := v.ResolveUser(context.Background(), "carol@example.com")
	assert.ErrorIs(t, err, ErrUserNotRegistered)
}

func TestVerifier_ResolveUser_HalfFormedIdentityRejected(t *testing.T) {
	tests := []struct {
		name string
		user *ResolvedUser
	}{
		{"missing id", &ResolvedUser{Email: "dave@example.com"}},
		{"missing email", &ResolvedUser{ID: "user-4"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewVerifierWithResolvers(membershipDBWithCount(0, nil), &stubResolver{user: tt.user})
			_, err := v.ResolveUser(context.Background(), "dave@example.com")
			assert.ErrorIs(t, err, ErrVerificationFailed)
		})
	}
}

func TestVerifier_ResolveUser_EmptyEmail(t *testing.T) {
	v := NewVerifierWithResolvers(membershipDBWithCount(0, nil), &stubResolver{})
	_, err := v.ResolveUser(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestVerifier_HasActiveFamily(t *testing.T) {
	v := NewVerifierWithResolvers(membershipDBWithCount(1, nil))
	has, err := v.HasActiveFamily(context.Background(), "user-1")
	assert.NoError(t, err)
	assert.True(t, has)

	v = NewVerifierWithResolvers(membershipDBWithCount(0, nil))
	has, err = v.HasActiveFamily(context.Background(), "user-1")
	assert.NoError(t, err)
	assert.False(t, has)

	v = NewVerifierWithResolvers(membershipDBWithCount(0, errors.New("mocked-error")))
	_, err = v.HasActiveFamily(context.Background(), "user-1")
	assert.Error(t, err)
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "alice@example.com", NormalizeEmail("  Alice@Example.COM "))
	assert.Equal(t, "", NormalizeEmail("   "))
}
