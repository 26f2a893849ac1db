package handlers

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/familybudget/family-budget-api/models"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Adjust CORS as needed, e.g., check r.Header.Get("Origin")
	},
}

// NotificationHub tracks connected users (userId -> *websocket.Conn) so
// invitation events can be pushed to the dashboard badge in real time.
type NotificationHub struct {
	clients map[string]*websocket.Conn
	mutex   sync.Mutex
}

func NewNotificationHub() *NotificationHub {
	return &NotificationHub{
		clients: make(map[string]*websocket.Conn),
	}
}

// ServeWS upgrades the connection and registers it under the user's id
func (h *NotificationHub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		zap.S().Errorf("websocket upgrade error: %v", err)
		return
	}

	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		conn.Close()
		return
	}

	h.mutex.Lock()
	h.clients[userID] = conn
	h.mutex.Unlock()
	zap.S().Debugf("user %s connected to /ws/notifications", userID)

	conn.SetCloseHandler(func(code int, text string) error {
		h.mutex.Lock()
		delete(h.clients, userID)
		h.mutex.Unlock()
		zap.S().Debugf("user %s disconnected from /ws/notifications", userID)
		return nil
	})

	// Keep connection alive
	for {
		if _, _, err := conn.NextReader(); err != nil {
			conn.Close()
			break
		}
	}
}

// SendToUser pushes an event to a single connected user. Users without an
// open connection are skipped; write failures evict the connection.
func (h *NotificationHub) SendToUser(userID, event string, data interface{}) {
	h.mutex.Lock()
	conn, exists := h.clients[userID]
	h.mutex.Unlock()

	if !exists {
		return
	}
	err := conn.WriteJSON(map[string]interface{}{
		"event": event,
		"data":  data,
	})
	if err != nil {
		zap.S().Errorf("error sending %s to user %s: %v", event, userID, err)
		h.mutex.Lock()
		delete(h.clients, userID)
		h.mutex.Unlock()
		conn.Close()
	}
}

// HubNotifier pushes invitation events over the websocket hub. The invited
// user only gets a push when the verifier resolved them to a known account.
type HubNotifier struct {
	Hub *NotificationHub
}

func (n *HubNotifier) InvitationCreated(invitation models.Invitation, familyName, inviterName string) {
	if invitation.InvitedUserID == "" {
		return
	}
	n.Hub.SendToUser(invitation.InvitedUserID, "invitation:created", map[string]interface{}{
		"invitationId": invitation.ID.Hex(),
		"familyId":     invitation.FamilyID,
		"familyName":   familyName,
		"inviterName":  inviterName,
		"role":         invitation.Role,
		"expiresAt":    invitation.ExpiresAt.Time().UTC(),
	})
}
