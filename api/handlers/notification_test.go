package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/familybudget/family-budget-api/api/handlers"
	"github.com/familybudget/family-budget-api/models"
)

func TestNotificationHub_SendToUser(t *testing.T) {
	hub := handlers.NewNotificationHub()
	server := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "?user_id=invitee-1"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	// Registration runs server-side just after the handshake.
	time.Sleep(100 * time.Millisecond)

	hub.SendToUser("invitee-1", "invitation:created", map[string]string{"familyId": "fam-1"})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg map[string]interface{}
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "invitation:created", msg["event"])
}

func TestNotificationHub_SendToDisconnectedUser(t *testing.T) {
	hub := handlers.NewNotificationHub()

	// No connection registered; the push is silently skipped.
	hub.SendToUser("nobody", "invitation:created", nil)
}

func TestHubNotifier_SkipsUnresolvedUser(t *testing.T) {
	n := &handlers.HubNotifier{Hub: handlers.NewNotificationHub()}

	// An invitation whose target never resolved to an account has nowhere to
	// be pushed.
	n.InvitationCreated(models.Invitation{InvitedEmail: "invitee@example.com"}, "The Smiths", "Olivia")
}
