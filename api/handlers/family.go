package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/familybudget/family-budget-api/api"
	"github.com/familybudget/family-budget-api/config"
	"github.com/familybudget/family-budget-api/databases"
	"github.com/familybudget/family-budget-api/models"
)

// Family struct mostly used for mocking tests
type Family struct {
	DB  databases.FamilyDatabase
	MDB databases.FamilyMembershipDatabase
}

// CreateFamilyHandler creates a family and seeds its owner as an active
// admin member
func (f Family) CreateFamilyHandler(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name    string `json:"name"`
		OwnerID string `json:"ownerId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	if strings.TrimSpace(body.Name) == "" || body.OwnerID == "" {
		config.ErrorStatus("name and ownerId are required", http.StatusBadRequest, w, nil)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	now := primitive.NewDateTimeFromTime(time.Now().UTC())
	family := models.Family{
		Name:      strings.TrimSpace(body.Name),
		OwnerID:   body.OwnerID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	res, err := f.DB.InsertOne(ctx, family)
	if err != nil {
		config.ErrorStatus("failed to create family", http.StatusInternalServerError, w, err)
		return
	}
	familyID, ok := res.Decode().(primitive.ObjectID)
	if !ok {
		config.ErrorStatus("failed to read inserted family id", http.StatusInternalServerError, w, nil)
		return
	}
	family.ID = familyID

	membership := models.FamilyMembership{
		FamilyID: familyID.Hex(),
		UserID:   body.OwnerID,
		Role:     models.InvitationRoleAdmin,
		Status:   models.MembershipStatusActive,
		JoinedAt: now,
	}
	if _, err := f.MDB.InsertOne(ctx, membership); err != nil {
		config.ErrorStatus("failed to create owner membership", http.StatusInternalServerError, w, err)
		return
	}
	zap.S().Debugf("created family %s for owner %s", familyID.Hex(), body.OwnerID)

	b, err := json.Marshal(family)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	w.Write(b)
}

// FamilyHandler returns a family by ID
func (f Family) FamilyHandler(w http.ResponseWriter, r *http.Request) {
	familyID := mux.Vars(r)["family_id"]

	zap.S().Debugf("family_id: %v", familyID)

	fID, err := primitive.ObjectIDFromHex(familyID)
	if err != nil {
		config.ErrorStatus("family_id is not a valid hex id", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	family, err := f.DB.FindOne(ctx, bson.M{"_id": fID})
	if err != nil {
		config.ErrorStatus("failed to get family by ID", http.StatusNotFound, w, err)
		return
	}

	b, err := json.Marshal(family)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// FamilyMembersHandler returns the active memberships of a family
func (f Family) FamilyMembersHandler(w http.ResponseWriter, r *http.Request) {
	familyID := mux.Vars(r)["family_id"]

	if _, err := primitive.ObjectIDFromHex(familyID); err != nil {
		config.ErrorStatus("family_id is not a valid hex id", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	members, err := f.MDB.Find(ctx, bson.M{
		"familyId": familyID,
		"status":   models.MembershipStatusActive,
	})
	if err != nil {
		config.ErrorStatus("failed to get family members", http.StatusInternalServerError, w, err)
		return
	}
	if members == nil {
		members = []models.FamilyMembership{}
	}

	b, err := json.Marshal(members)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}
