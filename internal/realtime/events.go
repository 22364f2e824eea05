package realtime

import (
	"encoding/json"
)

// Client-to-server event names.
const (
	EventJoinRoom    = "joinRoom"
	EventSendMessage = "sendMessage"
)

// Server-to-client event names.
const (
	EventNewMessage   = "newMessage"
	EventNotification = "notification"
	EventError        = "error"
)

// Envelope frames every websocket message in both directions.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// SendMessagePayload is the data of a sendMessage event.
type SendMessagePayload struct {
	ProjectID string `json:"projectId"`
	Message   string `json:"message"`
	UserID    string `json:"userId"`
	UserName  string `json:"userName"`
}

// NotificationPayload nudges connected clients to refresh their badge
// counts after a room event lands.
type NotificationPayload struct {
	Type      string `json:"type"`
	ProjectID string `json:"projectId"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// marshalEvent frames an outbound event. Marshal failures can only come from
// our own payload types, so they are treated as programmer errors.
func marshalEvent(event string, data any) []byte {
	raw, err := json.Marshal(data)
	if err != nil {
		raw = []byte("null")
	}
	out, _ := json.Marshal(Envelope{Event: event, Data: raw})
	return out
}

// RoomKey derives the broadcast group key for a project.
func RoomKey(projectID string) string {
	return "room_" + projectID
}
