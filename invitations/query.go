package invitations

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/familybudget/family-budget-api/databases"
	"github.com/familybudget/family-budget-api/models"
)

// nowFunc is swapped out by tests.
var nowFunc = time.Now

// QueryService is the read-only sibling of the lifecycle manager, used by
// the dashboard and the notification badge. No mutation happens here.
type QueryService struct {
	Inv   databases.InvitationDatabase
	Fam   databases.FamilyDatabase
	Mem   databases.FamilyMembershipDatabase
	Users databases.UserDatabase
}

// NewQueryService wires a query service over the given database helpers.
func NewQueryService(inv databases.InvitationDatabase, fam databases.FamilyDatabase, mem databases.FamilyMembershipDatabase, users databases.UserDatabase) *QueryService {
	return &QueryService{Inv: inv, Fam: fam, Mem: mem, Users: users}
}

// ListPendingForUser returns the non-expired pending invitations addressed
// to the user's own email, enriched with family and inviter display data.
// No data is not an error: the result is an empty slice.
func (q *QueryService) ListPendingForUser(ctx context.Context, userID string) ([]models.EnrichedInvitation, error) {
	user := models.User{}
	err := q.Users.FindOne(ctx, bson.M{"_id": userID}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, Classify(fmt.Errorf("%w: account not found", ErrVerificationFailed))
		}
		return nil, Classify(err)
	}

	now := primitive.NewDateTimeFromTime(nowFunc())
	invitations, err := q.Inv.Find(ctx,
		bson.M{
			"invitedEmail": user.Details.Email,
			"status":       models.InvitationStatusPending,
			"expiresAt":    bson.M{"$gt": now},
		},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}),
	)
	if err != nil {
		return nil, Classify(err)
	}

	enriched, err := q.enrich(ctx, invitations)
	if err != nil {
		return nil, Classify(err)
	}
	return enriched, nil
}

// ListSentForFamily returns every invitation ever created for the family,
// newest first, enriched like ListPendingForUser. The caller must currently
// be an active member of the family.
func (q *QueryService) ListSentForFamily(ctx context.Context, familyID, userID string) ([]models.EnrichedInvitation, error) {
	count, err := q.Mem.CountDocuments(ctx, bson.M{
		"familyId": familyID,
		"userId":   userID,
		"status":   models.MembershipStatusActive,
	})
	if err != nil {
		return nil, Classify(err)
	}
	if count == 0 {
		return nil, Classify(fmt.Errorf("%w: not a member of this family", ErrPermissionDenied))
	}

	invitations, err := q.Inv.Find(ctx,
		bson.M{"familyId": familyID},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}),
	)
	if err != nil {
		return nil, Classify(err)
	}

	enriched, err := q.enrich(ctx, invitations)
	if err != nil {
		return nil, Classify(err)
	}
	return enriched, nil
}

// enrich joins family names and inviter display data onto the invitations
// using one batched $in lookup per collection, never a per-row query.
func (q *QueryService) enrich(ctx context.Context, invitations []models.Invitation) ([]models.EnrichedInvitation, error) {
	enriched := make([]models.EnrichedInvitation, 0, len(invitations))
	if len(invitations) == 0 {
		return enriched, nil
	}

	familyIDSet := map[string]struct{}{}
	inviterIDSet := map[string]struct{}{}
	for _, inv := range invitations {
		familyIDSet[inv.FamilyID] = struct{}{}
		inviterIDSet[inv.InviterID] = struct{}{}
	}

	familyOIDs := make([]primitive.ObjectID, 0, len(familyIDSet))
	for id := range familyIDSet {
		oid, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			continue
		}
		familyOIDs = append(familyOIDs, oid)
	}
	inviterIDs := make([]string, 0, len(inviterIDSet))
	for id := range inviterIDSet {
		inviterIDs = append(inviterIDs, id)
	}

	families, err := q.Fam.Find(ctx, bson.M{"_id": bson.M{"$in": familyOIDs}})
	if err != nil {
		return nil, err
	}
	familyNames := make(map[string]string, len(families))
	for _, f := range families {
		familyNames[f.ID.Hex()] = f.Name
	}

	inviters, err := q.Users.Find(ctx, bson.M{"_id": bson.M{"$in": inviterIDs}})
	if err != nil {
		return nil, err
	}
	inviterDetails := make(map[string]models.UserDetails, len(inviters))
	for _, u := range inviters {
		inviterDetails[u.ID] = u.Details
	}

	for _, inv := range invitations {
		details := inviterDetails[inv.InviterID]
		name := details.Name
		if name == "" {
			name = details.Username
		}
		enriched = append(enriched, models.EnrichedInvitation{
			Invitation:   inv,
			FamilyName:   familyNames[inv.FamilyID],
			InviterName:  name,
			InviterEmail: details.Email,
		})
	}
	return enriched, nil
}
