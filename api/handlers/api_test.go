package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/familybudget/family-budget-api/databases/mocks"
)

var a App

func setupTestRouter() {
	db := &mocks.DatabaseHelper{}
	db.On("Client").Return(&mocks.ClientHelper{})
	a.dbHelper = db
	a.Router = a.New()
}

func executeRequest(req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	a.Router.ServeHTTP(rr, req)
	return rr
}

func checkResponseCode(t *testing.T, expected, actual int) {
	if expected != actual {
		t.Errorf("Expected response code %d. Got %d\n", expected, actual)
	}
}

func TestUnknownRoute(t *testing.T) {
	setupTestRouter()
	req, _ := http.NewRequest("GET", "/asdf", nil)
	response := executeRequest(req)

	checkResponseCode(t, http.StatusNotFound, response.Code)
}

func TestHealthCheckRoute(t *testing.T) {
	setupTestRouter()
	req, _ := http.NewRequest("GET", "/health", nil)
	response := executeRequest(req)

	checkResponseCode(t, http.StatusOK, response.Code)

	if !strings.Contains(response.Body.String(), "alive") {
		t.Errorf("Expected 'alive' in the reponse. Got '%s'", response.Body.String())
	}
}

func TestApp_SendInvitationUnauthorized(t *testing.T) {
	setupTestRouter()
	req, _ := http.NewRequest("POST", "/api/v1/family/1234/invitations", nil)
	response := executeRequest(req)

	checkResponseCode(t, http.StatusUnauthorized, response.Code)
}

func TestApp_PendingInvitationsUnauthorized(t *testing.T) {
	setupTestRouter()
	req, _ := http.NewRequest("GET", "/api/v1/invitations/pending", nil)
	response := executeRequest(req)

	checkResponseCode(t, http.StatusUnauthorized, response.Code)
}

func TestApp_CleanupRouteRequiresAdminToken(t *testing.T) {
	setupTestRouter()
	req, _ := http.NewRequest("POST", "/api/v1/admin/invitations/cleanup", nil)
	response := executeRequest(req)

	checkResponseCode(t, http.StatusUnauthorized, response.Code)
}

func TestApp_MetricsRouteRequiresAdminToken(t *testing.T) {
	setupTestRouter()
	req, _ := http.NewRequest("GET", "/api/v1/metrics", nil)
	response := executeRequest(req)

	checkResponseCode(t, http.StatusUnauthorized, response.Code)
}
