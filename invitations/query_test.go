package invitations

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/familybudget/family-budget-api/databases"
	"github.com/familybudget/family-budget-api/databases/mocks"
	"github.com/familybudget/family-budget-api/models"
)

type queryMocks struct {
	invitations *mocks.CollectionHelper
	families    *mocks.CollectionHelper
	memberships *mocks.CollectionHelper
	users       *mocks.CollectionHelper
}

func newTestQueryService() (*QueryService, *queryMocks) {
	m := &queryMocks{
		invitations: &mocks.CollectionHelper{},
		families:    &mocks.CollectionHelper{},
		memberships: &mocks.CollectionHelper{},
		users:       &mocks.CollectionHelper{},
	}

	db := &mocks.DatabaseHelper{}
	db.On("Collection", "invitations").Return(m.invitations)
	db.On("Collection", "families").Return(m.families)
	db.On("Collection", "familyMemberships").Return(m.memberships)
	db.On("Collection", "users").Return(m.users)

	q := NewQueryService(
		databases.NewInvitationDatabase(db),
		databases.NewFamilyDatabase(db),
		databases.NewFamilyMembershipDatabase(db),
		databases.NewUserDatabase(db),
	)
	return q, m
}

func invitationCursor(invs []models.Invitation) *mocks.CursorHelper {
	cur := &mocks.CursorHelper{}
	cur.On("All", mock.Anything, mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(1).(*[]models.Invitation)
		*arg = invs
	})
	return cur
}

func familyCursor(families []models.Family) *mocks.CursorHelper {
	cur := &mocks.CursorHelper{}
	cur.On("All", mock.Anything, mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(1).(*[]models.Family)
		*arg = families
	})
	return cur
}

func userCursor(users []models.User) *mocks.CursorHelper {
	cur := &mocks.CursorHelper{}
	cur.On("All", mock.Anything, mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(1).(*[]models.User)
		*arg = users
	})
	return cur
}

func TestQueryService_ListPendingForUser(t *testing.T) {
	q, m := newTestQueryService()
	famID := primitive.NewObjectID()
	inv := pendingInvitation(famID)

	m.users.On("FindOne", mock.Anything, mock.Anything).Return(userResult("invitee-1", "invitee@example.com"))
	m.invitations.On("Find", mock.Anything, mock.Anything, mock.Anything).
		Return(invitationCursor([]models.Invitation{inv}), nil)
	m.families.On("Find", mock.Anything, mock.Anything).
		Return(familyCursor([]models.Family{{ID: famID, Name: "The Smiths", OwnerID: "owner-1"}}), nil)
	m.users.On("Find", mock.Anything, mock.Anything).
		Return(userCursor([]models.User{{
			ID:      "owner-1",
			Details: models.UserDetails{Name: "Olivia Smith", Email: "olivia@example.com"},
		}}), nil)

	out, err := q.ListPendingForUser(context.Background(), "invitee-1")
	require.NoError(t, err)
	require.Len(t, out, 1)

	assert.Equal(t, inv.ID, out[0].ID)
	assert.Equal(t, "The Smiths", out[0].FamilyName)
	assert.Equal(t, "Olivia Smith", out[0].InviterName)
	assert.Equal(t, "olivia@example.com", out[0].InviterEmail)
}

func TestQueryService_ListPendingForUser_Empty(t *testing.T) {
	q, m := newTestQueryService()

	m.users.On("FindOne", mock.Anything, mock.Anything).Return(userResult("invitee-1", "invitee@example.com"))
	m.invitations.On("Find", mock.Anything, mock.Anything, mock.Anything).
		Return(invitationCursor(nil), nil)

	out, err := q.ListPendingForUser(context.Background(), "invitee-1")
	require.NoError(t, err)
	// No data is an empty slice, never nil, so the handler encodes [].
	assert.NotNil(t, out)
	assert.Len(t, out, 0)
}

func TestQueryService_ListPendingForUser_UnknownAccount(t *testing.T) {
	q, m := newTestQueryService()
	m.users.On("FindOne", mock.Anything, mock.Anything).Return(noDocsResult())

	_, err := q.ListPendingForUser(context.Background(), "ghost-1")
	assert.Equal(t, KindVerificationFailed, kindOf(t, err))
}

func TestQueryService_ListSentForFamily(t *testing.T) {
	q, m := newTestQueryService()
	famID := primitive.NewObjectID()
	inv := pendingInvitation(famID)
	declined := pendingInvitation(famID)
	declined.Status = models.InvitationStatusDeclined

	m.memberships.On("CountDocuments", mock.Anything, mock.Anything).Return(int64(1), nil)
	m.invitations.On("Find", mock.Anything, mock.Anything, mock.Anything).
		Return(invitationCursor([]models.Invitation{inv, declined}), nil)
	m.families.On("Find", mock.Anything, mock.Anything).
		Return(familyCursor([]models.Family{{ID: famID, Name: "The Smiths"}}), nil)
	m.users.On("Find", mock.Anything, mock.Anything).
		Return(userCursor([]models.User{{
			ID:      "owner-1",
			Details: models.UserDetails{Username: "osmith", Email: "olivia@example.com"},
		}}), nil)

	out, err := q.ListSentForFamily(context.Background(), famID.Hex(), "owner-1")
	require.NoError(t, err)
	require.Len(t, out, 2)

	// Terminal invitations stay in the sent view.
	assert.Equal(t, models.InvitationStatusDeclined, out[1].Status)
	// Username is the display fallback when no name is set.
	assert.Equal(t, "osmith", out[0].InviterName)
}

func TestQueryService_ListSentForFamily_NotAMember(t *testing.T) {
	q, m := newTestQueryService()
	m.memberships.On("CountDocuments", mock.Anything, mock.Anything).Return(int64(0), nil)

	_, err := q.ListSentForFamily(context.Background(), primitive.NewObjectID().Hex(), "stranger-7")
	assert.Equal(t, KindPermissionDenied, kindOf(t, err))
	m.invitations.AssertNotCalled(t, "Find", mock.Anything, mock.Anything, mock.Anything)
}
