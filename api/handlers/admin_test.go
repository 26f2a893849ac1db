package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"

	"github.com/familybudget/family-budget-api/api/handlers"
	"github.com/familybudget/family-budget-api/databases"
	"github.com/familybudget/family-budget-api/databases/mocks"
	"github.com/familybudget/family-budget-api/models"
)

func newAdminHandler(result *mocks.SingleResultHelper) handlers.Admin {
	collectionHelper := &mocks.CollectionHelper{}
	collectionHelper.On("FindOne", mock.Anything, mock.Anything).Return(result)

	dbHelper := &mocks.DatabaseHelper{}
	dbHelper.On("Collection", "admins").Return(collectionHelper)

	return handlers.Admin{ADB: databases.NewAdminDatabase(dbHelper)}
}

func TestAdminLoginHandler(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	hash, err := bcrypt.GenerateFromPassword([]byte("correct horse"), bcrypt.MinCost)
	require.NoError(t, err)

	adminID := primitive.NewObjectID()
	result := &mocks.SingleResultHelper{}
	result.On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(**models.AdminUser)
		(*arg).ID = adminID
		(*arg).Email = "ops@familybudget.app"
		(*arg).Password = string(hash)
		(*arg).Roles = []string{"support"}
		(*arg).Active = true
	})
	h := newAdminHandler(result)

	body := bytes.NewBufferString(`{"email":"Ops@FamilyBudget.app","password":"correct horse"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/login", body)
	rr := httptest.NewRecorder()

	h.AdminLoginHandler(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var resp struct {
		Token string `json:"token"`
		Admin struct {
			ID    string   `json:"id"`
			Email string   `json:"email"`
			Roles []string `json:"roles"`
		} `json:"admin"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, adminID.Hex(), resp.Admin.ID)
	assert.Equal(t, "ops@familybudget.app", resp.Admin.Email)

	claims := jwt.MapClaims{}
	_, err = jwt.ParseWithClaims(resp.Token, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	})
	require.NoError(t, err)
	assert.Equal(t, "admin", claims["scope"])
}

func TestAdminLoginHandler_WrongPassword(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	hash, err := bcrypt.GenerateFromPassword([]byte("correct horse"), bcrypt.MinCost)
	require.NoError(t, err)

	result := &mocks.SingleResultHelper{}
	result.On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(**models.AdminUser)
		(*arg).Email = "ops@familybudget.app"
		(*arg).Password = string(hash)
		(*arg).Active = true
	})
	h := newAdminHandler(result)

	body := bytes.NewBufferString(`{"email":"ops@familybudget.app","password":"battery staple"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/login", body)
	rr := httptest.NewRecorder()

	h.AdminLoginHandler(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestAdminLoginHandler_UnknownAccount(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	result := &mocks.SingleResultHelper{}
	result.On("Decode", mock.Anything).Return(mongo.ErrNoDocuments)
	h := newAdminHandler(result)

	body := bytes.NewBufferString(`{"email":"nobody@familybudget.app","password":"whatever"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/login", body)
	rr := httptest.NewRecorder()

	h.AdminLoginHandler(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestAdminAuthMiddleware(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	var h handlers.Admin
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	protected := h.AdminAuthMiddleware(next)

	// No token.
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/invitations/cleanup", nil)
	rr := httptest.NewRecorder()
	protected.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	// Valid token but not admin scope.
	userToken := signTestToken(t, "test-secret", jwt.MapClaims{
		"sub":   "user-1",
		"scope": "user",
		"exp":   time.Now().Add(time.Hour).Unix(),
	})
	req = httptest.NewRequest(http.MethodPost, "/api/v1/admin/invitations/cleanup", nil)
	req.Header.Set("Authorization", "Bearer "+userToken)
	rr = httptest.NewRecorder()
	protected.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	// Admin scope passes through.
	adminToken := signTestToken(t, "test-secret", jwt.MapClaims{
		"sub":   "admin-1",
		"scope": "admin",
		"exp":   time.Now().Add(time.Hour).Unix(),
	})
	req = httptest.NewRequest(http.MethodPost, "/api/v1/admin/invitations/cleanup", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	rr = httptest.NewRecorder()
	protected.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	// Expired token.
	expiredToken := signTestToken(t, "test-secret", jwt.MapClaims{
		"sub":   "admin-1",
		"scope": "admin",
		"exp":   time.Now().Add(-time.Hour).Unix(),
	})
	req = httptest.NewRequest(http.MethodPost, "/api/v1/admin/invitations/cleanup", nil)
	req.Header.Set("Authorization", "Bearer "+expiredToken)
	rr = httptest.NewRecorder()
	protected.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func signTestToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}
