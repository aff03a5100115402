package realtime

import (
	"encoding/json"

	"github.com/google/uuid"
)

// Frame types on the notification channel.
const (
	TypeAuth       = "auth"
	TypeJoinGroup  = "join_group"
	TypeLeaveGroup = "leave_group"
	TypePing       = "ping"

	TypeConnected             = "connected"
	TypePong                  = "pong"
	TypeError                 = "error"
	TypeNotification          = "notification"
	TypeGroupNotification     = "group_notification"
	TypeBroadcastNotification = "broadcast_notification"
)

// Frame is the JSON envelope of every message in either direction.
type Frame struct {
	Type    string          `json:"type"`
	ID      string          `json:"id,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
	Error   string          `json:"error,omitempty"`
}

type AuthPayload struct {
	Token string `json:"token"`
}

type GroupPayload struct {
	GroupID string `json:"groupId"`
}

// NewFrame encodes payload into a frame of type typ with a fresh id.
func NewFrame(typ string, payload any) (Frame, error) {
	f := Frame{Type: typ, ID: uuid.NewString()}
	if payload == nil {
		return f, nil
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return f, err
	}
	f.Payload = raw
	return f, nil
}

// isNotification reports whether typ carries a notification payload.
func isNotification(typ string) bool {
	switch typ {
	case TypeNotification, TypeGroupNotification, TypeBroadcastNotification:
		return true
	}
	return false
}
