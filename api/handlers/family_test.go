package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/familybudget/family-budget-api/api/handlers"
	"github.com/familybudget/family-budget-api/databases"
	"github.com/familybudget/family-budget-api/databases/mocks"
	"github.com/familybudget/family-budget-api/models"
)

func newFamilyHandler() (handlers.Family, *mocks.CollectionHelper, *mocks.CollectionHelper) {
	familyColl := &mocks.CollectionHelper{}
	membershipColl := &mocks.CollectionHelper{}

	dbHelper := &mocks.DatabaseHelper{}
	dbHelper.On("Collection", "families").Return(familyColl)
	dbHelper.On("Collection", "familyMemberships").Return(membershipColl)

	return handlers.Family{
		DB:  databases.NewFamilyDatabase(dbHelper),
		MDB: databases.NewFamilyMembershipDatabase(dbHelper),
	}, familyColl, membershipColl
}

func TestCreateFamilyHandler(t *testing.T) {
	h, familyColl, membershipColl := newFamilyHandler()
	famID := primitive.NewObjectID()

	insertResult := &mocks.InsertOneResultHelper{}
	insertResult.On("Decode").Return(famID)
	familyColl.On("InsertOne", mock.Anything, mock.Anything).Return(insertResult, nil)
	membershipColl.On("InsertOne", mock.Anything, mock.Anything).Return(&mocks.InsertOneResultHelper{}, nil)

	body := bytes.NewBufferString(`{"name":"The Smiths","ownerId":"owner-1"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/family", body)
	rr := httptest.NewRecorder()

	h.CreateFamilyHandler(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code)

	var created models.Family
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&created))
	assert.Equal(t, famID, created.ID)
	assert.Equal(t, "The Smiths", created.Name)
	assert.Equal(t, "owner-1", created.OwnerID)

	membershipColl.AssertCalled(t, "InsertOne", mock.Anything, mock.Anything)
}

func TestCreateFamilyHandler_MissingName(t *testing.T) {
	h, _, _ := newFamilyHandler()

	body := bytes.NewBufferString(`{"ownerId":"owner-1"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/family", body)
	rr := httptest.NewRecorder()

	h.CreateFamilyHandler(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestFamilyHandler_InvalidHexID(t *testing.T) {
	h, _, _ := newFamilyHandler()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/family/not-a-hex-id", nil)
	req = mux.SetURLVars(req, map[string]string{"family_id": "not-a-hex-id"})
	rr := httptest.NewRecorder()

	h.FamilyHandler(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestFamilyMembersHandler_Empty(t *testing.T) {
	h, _, membershipColl := newFamilyHandler()
	famID := primitive.NewObjectID()

	cursor := &mocks.CursorHelper{}
	cursor.On("All", mock.Anything, mock.Anything).Return(nil)
	membershipColl.On("Find", mock.Anything, mock.Anything).Return(cursor, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/family/"+famID.Hex()+"/members", nil)
	req = mux.SetURLVars(req, map[string]string{"family_id": famID.Hex()})
	rr := httptest.NewRecorder()

	h.FamilyMembersHandler(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "[]", rr.Body.String())
}
